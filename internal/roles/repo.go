package roles

import (
	"context"

	"gorm.io/gorm"

	"github.com/novatech/management-backend/pkg/db/models"
)

// Repository persists roles and user-role assignments.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// List returns every role ordered by id.
func (r *Repository) List(ctx context.Context) ([]models.Role, error) {
	var out []models.Role
	if err := r.db.WithContext(ctx).Order("id").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Repository) FindByID(ctx context.Context, id uint) (*models.Role, error) {
	var role models.Role
	if err := r.db.WithContext(ctx).First(&role, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &role, nil
}

func (r *Repository) FindByName(ctx context.Context, name string) (*models.Role, error) {
	var role models.Role
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&role).Error; err != nil {
		return nil, err
	}
	return &role, nil
}

// HasRole reports whether the assignment row exists.
func (r *Repository) HasRole(ctx context.Context, userID, roleID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.UserRole{}).
		Where("user_id = ? AND role_id = ?", userID, roleID).
		Count(&count).Error
	return count > 0, err
}

func (r *Repository) Assign(ctx context.Context, userID, roleID uint) error {
	return r.db.WithContext(ctx).Create(&models.UserRole{UserID: userID, RoleID: roleID}).Error
}

// Revoke deletes the assignment and reports how many rows were removed.
func (r *Repository) Revoke(ctx context.Context, userID, roleID uint) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND role_id = ?", userID, roleID).
		Delete(&models.UserRole{})
	return res.RowsAffected, res.Error
}
