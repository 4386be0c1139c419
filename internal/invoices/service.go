package invoices

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/novatech/management-backend/internal/orders"
	"github.com/novatech/management-backend/pkg/db"
	"github.com/novatech/management-backend/pkg/db/models"
	"github.com/novatech/management-backend/pkg/enums"
	pkgerrors "github.com/novatech/management-backend/pkg/errors"
	"github.com/novatech/management-backend/pkg/logger"
	"github.com/novatech/management-backend/pkg/pagination"
)

// Postgres reports the index name, sqlite the column.
var orderUniqueKeys = []string{"idx_invoices_order_id", "invoices.order_id"}

// Service bills orders. There is at most one invoice per order and paid
// invoices are kept forever.
type Service interface {
	List(ctx context.Context, params ListParams) (pagination.Page[InvoiceDTO], error)
	Get(ctx context.Context, id uint) (*InvoiceDTO, error)
	Create(ctx context.Context, input CreateInput) (*InvoiceDTO, error)
	Update(ctx context.Context, id uint, input UpdateInput) (*InvoiceDTO, error)
	Delete(ctx context.Context, id uint) error
	MarkOverdue(ctx context.Context, now time.Time) (int64, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type service struct {
	tx   txRunner
	repo *Repository
	logg *logger.Logger
	now  func() time.Time
}

func NewService(client *db.Client, logg *logger.Logger) (Service, error) {
	if client == nil {
		return nil, fmt.Errorf("db client is required")
	}
	return &service{
		tx:   client,
		repo: NewRepository(client.DB()),
		logg: logg,
		now:  func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *service) List(ctx context.Context, params ListParams) (pagination.Page[InvoiceDTO], error) {
	rows, total, err := s.repo.List(ctx, params)
	if err != nil {
		return pagination.Page[InvoiceDTO]{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list invoices")
	}
	items := make([]InvoiceDTO, 0, len(rows))
	for i := range rows {
		items = append(items, FromModel(&rows[i]))
	}
	return pagination.NewPage(items, total, params.Params), nil
}

func (s *service) Get(ctx context.Context, id uint) (*InvoiceDTO, error) {
	m, err := loadInvoice(ctx, s.repo, id)
	if err != nil {
		return nil, err
	}
	dto := FromModel(m)
	return &dto, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*InvoiceDTO, error) {
	if input.OrderID == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order_id is required")
	}
	status := enums.InvoiceStatusPending
	if strings.TrimSpace(input.Status) != "" {
		parsed, err := enums.ParseInvoiceStatus(input.Status)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, err.Error())
		}
		status = parsed
	}

	var created *models.Invoice
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := NewRepository(tx)
		order, err := orders.NewRepository(tx).FindByID(ctx, input.OrderID)
		if err != nil {
			if db.IsNotFound(err) {
				return pkgerrors.NotFound("order", input.OrderID)
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
		}
		exists, err := repo.ExistsForOrder(ctx, order.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check existing invoice")
		}
		if exists {
			return pkgerrors.Newf(pkgerrors.CodeConflict, "invoice already exists for order %d", order.ID)
		}

		inv := &models.Invoice{
			InvoiceDate: s.now(),
			OrderID:     order.ID,
			ClientID:    order.ClientID,
			TotalAmount: order.TotalAmount,
			Status:      status,
			DueDate:     utcOrNil(input.DueDate),
		}
		if err := repo.Create(ctx, inv); err != nil {
			if isOrderDuplicate(err) {
				return pkgerrors.Newf(pkgerrors.CodeConflict, "invoice already exists for order %d", order.ID)
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create invoice")
		}
		created, err = repo.FindByID(ctx, inv.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reload invoice")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if s.logg != nil {
		s.logg.Info(s.logg.WithFields(ctx, map[string]any{"invoice_id": created.ID, "order_id": created.OrderID}), "invoice.created")
	}
	dto := FromModel(created)
	return &dto, nil
}

func (s *service) Update(ctx context.Context, id uint, input UpdateInput) (*InvoiceDTO, error) {
	var updated *models.Invoice
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := NewRepository(tx)
		inv, err := loadInvoice(ctx, repo, id)
		if err != nil {
			return err
		}
		if input.Status == nil && input.DueDate == nil {
			updated = inv
			return nil
		}

		status := inv.Status
		due := inv.DueDate
		if input.Status != nil {
			if strings.TrimSpace(*input.Status) != "" {
				parsed, err := enums.ParseInvoiceStatus(*input.Status)
				if err != nil {
					return pkgerrors.New(pkgerrors.CodeValidation, err.Error())
				}
				status = parsed
			}
			due = nil
		}
		if input.DueDate != nil {
			due = utcOrNil(input.DueDate)
		}

		if err := repo.UpdateFields(ctx, id, status, due); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update invoice")
		}
		updated, err = loadInvoice(ctx, repo, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	dto := FromModel(updated)
	return &dto, nil
}

func (s *service) Delete(ctx context.Context, id uint) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := NewRepository(tx)
		inv, err := loadInvoice(ctx, repo, id)
		if err != nil {
			return err
		}
		if inv.Status == enums.InvoiceStatusPaid {
			return pkgerrors.New(pkgerrors.CodeConflict, "paid invoices cannot be deleted")
		}
		if err := repo.Delete(ctx, id); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete invoice")
		}
		return nil
	})
}

func (s *service) MarkOverdue(ctx context.Context, now time.Time) (int64, error) {
	n, err := s.repo.MarkOverdue(ctx, now.UTC())
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mark overdue invoices")
	}
	return n, nil
}

func loadInvoice(ctx context.Context, repo *Repository, id uint) (*models.Invoice, error) {
	m, err := repo.FindByID(ctx, id)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.NotFound("invoice", id)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load invoice")
	}
	return m, nil
}

func isOrderDuplicate(err error) bool {
	for _, key := range orderUniqueKeys {
		if db.IsUniqueViolation(err, key) {
			return true
		}
	}
	return false
}

func utcOrNil(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC()
	return &v
}
