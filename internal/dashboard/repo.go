package dashboard

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/novatech/management-backend/pkg/db/models"
	"github.com/novatech/management-backend/pkg/enums"
)

// Repository runs the read-only aggregate queries behind the dashboard.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

type paidInvoice struct {
	InvoiceDate time.Time
	TotalAmount decimal.Decimal
}

func (r *Repository) PaidRevenue(ctx context.Context) (decimal.Decimal, error) {
	var sum decimal.NullDecimal
	row := r.db.WithContext(ctx).
		Model(&models.Invoice{}).
		Where("status = ?", enums.InvoiceStatusPaid).
		Select("SUM(total_amount)").
		Row()
	if err := row.Scan(&sum); err != nil {
		return decimal.Zero, err
	}
	if !sum.Valid {
		return decimal.Zero, nil
	}
	return sum.Decimal.Round(2), nil
}

// PaidSince returns date and amount of paid invoices issued at or after since.
func (r *Repository) PaidSince(ctx context.Context, since time.Time) ([]paidInvoice, error) {
	var rows []paidInvoice
	err := r.db.WithContext(ctx).
		Model(&models.Invoice{}).
		Select("invoice_date", "total_amount").
		Where("status = ? AND invoice_date >= ?", enums.InvoiceStatusPaid, since).
		Scan(&rows).Error
	return rows, err
}

func (r *Repository) CountOrdersWithStatus(ctx context.Context, statuses []enums.OrderStatus) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Order{}).Where("status IN ?", statuses).Count(&n).Error
	return n, err
}

func (r *Repository) CountClientsAddedBetween(ctx context.Context, from, to time.Time) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&models.Client{}).
		Where("date_added >= ? AND date_added < ?", from, to).
		Count(&n).Error
	return n, err
}

func (r *Repository) OrderStatusCounts(ctx context.Context, since time.Time) ([]DistributionPoint, error) {
	var rows []DistributionPoint
	err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Select("status AS category, COUNT(*) AS count").
		Where("order_date >= ?", since).
		Group("status").
		Order("count DESC, category").
		Scan(&rows).Error
	return rows, err
}
