package orders

import (
	"context"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/novatech/management-backend/pkg/db/models"
)

// Repository persists order headers and their lines.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) withGraph(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Client").
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Preload("Items.Product")
}

func (r *Repository) List(ctx context.Context, params ListParams) ([]models.Order, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Order{})
	if params.ClientID != nil {
		q = q.Where("client_id = ?", *params.ClientID)
	}
	if status := strings.TrimSpace(params.Status); status != "" {
		q = q.Where("LOWER(status) = ?", strings.ToLower(status))
	}
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var ids []uint
	if err := q.Order("order_date DESC, id DESC").Scopes(params.Scope()).Pluck("id", &ids).Error; err != nil {
		return nil, 0, err
	}
	if len(ids) == 0 {
		return []models.Order{}, total, nil
	}
	var rows []models.Order
	if err := r.withGraph(ctx).Where("id IN ?", ids).Order("order_date DESC, id DESC").Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// FindByID loads the order with its client and lines.
func (r *Repository) FindByID(ctx context.Context, id uint) (*models.Order, error) {
	var order models.Order
	if err := r.withGraph(ctx).First(&order, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// Recent returns the newest orders with their graph loaded.
func (r *Repository) Recent(ctx context.Context, limit int) ([]models.Order, error) {
	var rows []models.Order
	err := r.withGraph(ctx).Order("order_date DESC, id DESC").Limit(limit).Find(&rows).Error
	return rows, err
}

// Create inserts the header only. Associations are never written implicitly.
func (r *Repository) Create(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(order).Error
}

func (r *Repository) CreateItems(ctx context.Context, items []models.OrderItem) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(&items).Error
}

func (r *Repository) UpdateHeader(ctx context.Context, id uint, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Model(&models.Order{}).Where("id = ?", id).Updates(updates).Error
}

func (r *Repository) HasInvoice(ctx context.Context, orderID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Invoice{}).Where("order_id = ?", orderID).Count(&count).Error
	return count > 0, err
}

func (r *Repository) DeleteItems(ctx context.Context, orderID uint) error {
	return r.db.WithContext(ctx).Where("order_id = ?", orderID).Delete(&models.OrderItem{}).Error
}

func (r *Repository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.Order{}, id).Error
}
