package products

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/novatech/management-backend/pkg/db/models"
)

// Repository persists products and owns the stock counters.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) List(ctx context.Context, params ListParams) ([]models.Product, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Product{})
	if term := strings.ToLower(strings.TrimSpace(params.Search)); term != "" {
		q = q.Where("LOWER(product_name) LIKE ?", "%"+term+"%")
	}
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []models.Product
	if err := q.Order("id").Scopes(params.Scope()).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func (r *Repository) FindByID(ctx context.Context, id uint) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// FindByIDs loads the products keyed by id. Missing ids are simply absent.
func (r *Repository) FindByIDs(ctx context.Context, ids []uint) (map[uint]models.Product, error) {
	out := make(map[uint]models.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []models.Product
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, p := range rows {
		out[p.ID] = p
	}
	return out, nil
}

func (r *Repository) Create(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Create(product).Error
}

// Apply updates only the given columns. It returns false when no row with
// id exists anymore.
func (r *Repository) Apply(ctx context.Context, id uint, changes map[string]any) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.Product{}).Where("id = ?", id).Updates(changes)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// DecrementStock takes qty units only when at least qty are available. It
// returns false when the guard did not match.
func (r *Repository) DecrementStock(ctx context.Context, id uint, qty int) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ? AND quantity_in_stock >= ?", id, qty).
		UpdateColumn("quantity_in_stock", gorm.Expr("quantity_in_stock - ?", qty))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// IncrementStock returns qty units to the product.
func (r *Repository) IncrementStock(ctx context.Context, id uint, qty int) error {
	return r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", id).
		UpdateColumn("quantity_in_stock", gorm.Expr("quantity_in_stock + ?", qty)).Error
}

// OrderItemCount counts order lines referencing the product.
func (r *Repository) OrderItemCount(ctx context.Context, id uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.OrderItem{}).Where("product_id = ?", id).Count(&count).Error
	return count, err
}

func (r *Repository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.Product{}, id).Error
}
