package invoices

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/novatech/management-backend/pkg/db/models"
	"github.com/novatech/management-backend/pkg/enums"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) withRefs(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Preload("Order").Preload("Client")
}

func (r *Repository) List(ctx context.Context, params ListParams) ([]models.Invoice, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Invoice{})
	if params.ClientID != nil {
		q = q.Where("client_id = ?", *params.ClientID)
	}
	if params.OrderID != nil {
		q = q.Where("order_id = ?", *params.OrderID)
	}
	if status := strings.TrimSpace(params.Status); status != "" {
		q = q.Where("LOWER(status) = ?", strings.ToLower(status))
	}
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []models.Invoice
	err := q.Preload("Order").Preload("Client").
		Order("invoice_date DESC, id DESC").
		Scopes(params.Scope()).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func (r *Repository) FindByID(ctx context.Context, id uint) (*models.Invoice, error) {
	var inv models.Invoice
	if err := r.withRefs(ctx).First(&inv, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &inv, nil
}

func (r *Repository) ExistsForOrder(ctx context.Context, orderID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Invoice{}).Where("order_id = ?", orderID).Count(&count).Error
	return count > 0, err
}

func (r *Repository) Create(ctx context.Context, inv *models.Invoice) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(inv).Error
}

// UpdateFields writes status and due_date together; due_date may be nil.
func (r *Repository) UpdateFields(ctx context.Context, id uint, status enums.InvoiceStatus, due *time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.Invoice{}).
		Where("id = ?", id).
		Updates(map[string]any{"status": status, "due_date": due}).Error
}

func (r *Repository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.Invoice{}, id).Error
}

// MarkOverdue flips pending invoices whose due date has passed.
func (r *Repository) MarkOverdue(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Invoice{}).
		Where("status = ? AND due_date IS NOT NULL AND due_date < ?", enums.InvoiceStatusPending, now).
		Update("status", enums.InvoiceStatusOverdue)
	return res.RowsAffected, res.Error
}
