package clients

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/novatech/management-backend/pkg/db/models"
)

// Repository persists clients.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) List(ctx context.Context, params ListParams) ([]models.Client, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Client{})
	if term := strings.ToLower(strings.TrimSpace(params.Search)); term != "" {
		like := "%" + term + "%"
		q = q.Where("LOWER(client_name) LIKE ? OR LOWER(email) LIKE ?", like, like)
	}
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.Client
	if err := q.Order("id").Scopes(params.Scope()).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func (r *Repository) FindByID(ctx context.Context, id uint) (*models.Client, error) {
	var client models.Client
	if err := r.db.WithContext(ctx).First(&client, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &client, nil
}

// EmailTaken reports whether another client already uses email. excludeID
// skips the client being updated.
func (r *Repository) EmailTaken(ctx context.Context, email string, excludeID uint) (bool, error) {
	var count int64
	q := r.db.WithContext(ctx).Model(&models.Client{}).Where("LOWER(email) = ?", strings.ToLower(email))
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	err := q.Count(&count).Error
	return count > 0, err
}

func (r *Repository) Create(ctx context.Context, client *models.Client) error {
	return r.db.WithContext(ctx).Create(client).Error
}

// Apply updates only the given columns. It returns false when no row with
// id exists anymore.
func (r *Repository) Apply(ctx context.Context, id uint, changes map[string]any) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.Client{}).Where("id = ?", id).Updates(changes)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// Dependents counts orders and invoices still pointing at the client.
func (r *Repository) Dependents(ctx context.Context, id uint) (orders int64, invoices int64, err error) {
	if err = r.db.WithContext(ctx).Model(&models.Order{}).Where("client_id = ?", id).Count(&orders).Error; err != nil {
		return 0, 0, err
	}
	if err = r.db.WithContext(ctx).Model(&models.Invoice{}).Where("client_id = ?", id).Count(&invoices).Error; err != nil {
		return 0, 0, err
	}
	return orders, invoices, nil
}

func (r *Repository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.Client{}, id).Error
}
