package orders

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/novatech/management-backend/internal/clients"
	"github.com/novatech/management-backend/internal/products"
	"github.com/novatech/management-backend/pkg/db"
	"github.com/novatech/management-backend/pkg/db/models"
	"github.com/novatech/management-backend/pkg/enums"
	pkgerrors "github.com/novatech/management-backend/pkg/errors"
	"github.com/novatech/management-backend/pkg/logger"
	"github.com/novatech/management-backend/pkg/metrics"
	"github.com/novatech/management-backend/pkg/pagination"
)

// Service runs the order workflow: stock-checked creation, limited updates
// and stock-restoring deletion.
type Service interface {
	List(ctx context.Context, params ListParams) (pagination.Page[OrderDTO], error)
	Get(ctx context.Context, id uint) (*OrderDTO, error)
	Create(ctx context.Context, input CreateInput) (*OrderDTO, error)
	Update(ctx context.Context, id uint, input UpdateInput) (*OrderDTO, error)
	Delete(ctx context.Context, id uint) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type ServiceParams struct {
	DB      *db.Client
	Metrics *metrics.OrderMetrics
	Logger  *logger.Logger
}

type service struct {
	tx      txRunner
	repo    *Repository
	metrics *metrics.OrderMetrics
	logg    *logger.Logger
	now     func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	if params.DB == nil {
		return nil, fmt.Errorf("db client is required")
	}
	return &service{
		tx:      params.DB,
		repo:    NewRepository(params.DB.DB()),
		metrics: params.Metrics,
		logg:    params.Logger,
		now:     func() time.Time { return time.Now().UTC() },
	}, nil
}

// InsufficientStockDetails accompanies INSUFFICIENT_STOCK errors.
type InsufficientStockDetails struct {
	ProductID uint `json:"product_id"`
	Available int  `json:"available"`
	Requested int  `json:"requested"`
}

func insufficientStock(productID uint, available, requested int) error {
	return pkgerrors.Newf(pkgerrors.CodeInsufficient,
		"Not enough stock for product %d. Available: %d, Requested: %d.", productID, available, requested).
		WithDetails(InsufficientStockDetails{ProductID: productID, Available: available, Requested: requested})
}

func (s *service) List(ctx context.Context, params ListParams) (pagination.Page[OrderDTO], error) {
	rows, total, err := s.repo.List(ctx, params)
	if err != nil {
		return pagination.Page[OrderDTO]{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list orders")
	}
	items := make([]OrderDTO, 0, len(rows))
	for i := range rows {
		items = append(items, FromModel(&rows[i]))
	}
	return pagination.NewPage(items, total, params.Params), nil
}

func (s *service) Get(ctx context.Context, id uint) (*OrderDTO, error) {
	m, err := loadOrder(ctx, s.repo, id)
	if err != nil {
		return nil, err
	}
	dto := FromModel(m)
	return &dto, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*OrderDTO, error) {
	demand, order, err := s.prepare(input)
	if err != nil {
		s.metrics.Rejected(metrics.RejectInvalid)
		return nil, err
	}

	var created *models.Order
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := NewRepository(tx)
		productRepo := products.NewRepository(tx)

		if _, err := clients.NewRepository(tx).FindByID(ctx, order.ClientID); err != nil {
			if db.IsNotFound(err) {
				return pkgerrors.NotFound("client", order.ClientID)
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load client")
		}

		catalog, err := productRepo.FindByIDs(ctx, demand.productIDs())
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load products")
		}
		for _, id := range demand.order {
			product, ok := catalog[id]
			if !ok {
				return pkgerrors.NotFound("product", id)
			}
			if product.QuantityInStock < demand.qty[id] {
				return insufficientStock(id, product.QuantityInStock, demand.qty[id])
			}
		}

		total := decimal.Zero
		for i := range order.Items {
			line := &order.Items[i]
			line.UnitPrice = catalog[line.ProductID].Price
			total = total.Add(line.LineTotal())
		}
		order.TotalAmount = total.Round(2)

		for _, id := range demand.productIDs() {
			ok, err := productRepo.DecrementStock(ctx, id, demand.qty[id])
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decrement stock")
			}
			if !ok {
				// Lost a race with a concurrent order after the stock check.
				current, err := productRepo.FindByID(ctx, id)
				if err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reload product")
				}
				return insufficientStock(id, current.QuantityInStock, demand.qty[id])
			}
		}

		items := order.Items
		order.Items = nil
		if err := repo.Create(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create order")
		}
		for i := range items {
			items[i].OrderID = order.ID
		}
		if err := repo.CreateItems(ctx, items); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create order items")
		}

		created, err = repo.FindByID(ctx, order.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reload order")
		}
		return nil
	})
	if err != nil {
		s.metrics.Rejected(rejectReason(err))
		return nil, err
	}

	s.metrics.Created(demand.units())
	if s.logg != nil {
		s.logg.Info(s.logg.WithFields(ctx, map[string]any{
			"order_id":  created.ID,
			"client_id": created.ClientID,
			"total":     created.TotalAmount.StringFixed(2),
			"lines":     len(created.Items),
		}), "order.created")
	}
	dto := FromModel(created)
	return &dto, nil
}

func (s *service) Update(ctx context.Context, id uint, input UpdateInput) (*OrderDTO, error) {
	var updated *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := NewRepository(tx)
		if _, err := loadOrder(ctx, repo, id); err != nil {
			return err
		}

		changes := map[string]any{}
		if input.ClientID != nil {
			if _, err := clients.NewRepository(tx).FindByID(ctx, *input.ClientID); err != nil {
				if db.IsNotFound(err) {
					return pkgerrors.NotFound("client", *input.ClientID)
				}
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load client")
			}
			changes["client_id"] = *input.ClientID
		}
		if input.Status != nil && strings.TrimSpace(*input.Status) != "" {
			changes["status"] = enums.NormalizeOrderStatus(*input.Status)
		}
		if err := repo.UpdateHeader(ctx, id, changes); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update order")
		}

		var err error
		updated, err = loadOrder(ctx, repo, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	dto := FromModel(updated)
	return &dto, nil
}

// Delete puts every line's quantity back on the shelf before removing the order.
func (s *service) Delete(ctx context.Context, id uint) error {
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := NewRepository(tx)
		order, err := loadOrder(ctx, repo, id)
		if err != nil {
			return err
		}
		if order.Status.IsTerminal() {
			return pkgerrors.Newf(pkgerrors.CodeConflict, "order with status '%s' cannot be deleted", order.Status)
		}
		invoiced, err := repo.HasInvoice(ctx, id)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check invoices")
		}
		if invoiced {
			return pkgerrors.New(pkgerrors.CodeConflict, "order cannot be deleted because it has associated invoices")
		}

		productRepo := products.NewRepository(tx)
		for _, item := range order.Items {
			if err := productRepo.IncrementStock(ctx, item.ProductID, item.Quantity); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "restore stock")
			}
		}
		if err := repo.DeleteItems(ctx, id); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete order items")
		}
		if err := repo.Delete(ctx, id); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete order")
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.metrics.Deleted()
	if s.logg != nil {
		s.logg.Info(s.logg.WithField(ctx, "order_id", id), "order.deleted")
	}
	return nil
}

// lineDemand aggregates requested units per product, keeping first-seen order.
type lineDemand struct {
	order []uint
	qty   map[uint]int
}

func (d lineDemand) productIDs() []uint {
	ids := append([]uint(nil), d.order...)
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (d lineDemand) units() int {
	n := 0
	for _, q := range d.qty {
		n += q
	}
	return n
}

func (s *service) prepare(input CreateInput) (lineDemand, *models.Order, error) {
	demand := lineDemand{qty: map[uint]int{}}
	if input.ClientID == 0 {
		return demand, nil, pkgerrors.New(pkgerrors.CodeValidation, "client_id is required")
	}
	if len(input.Items) == 0 {
		return demand, nil, pkgerrors.New(pkgerrors.CodeValidation, "order must contain at least one item")
	}

	status := enums.OrderStatusOpen
	if strings.TrimSpace(input.Status) != "" {
		status = enums.NormalizeOrderStatus(input.Status)
	}
	order := &models.Order{
		OrderDate: s.now(),
		ClientID:  input.ClientID,
		Status:    status,
		Items:     make([]models.OrderItem, 0, len(input.Items)),
	}
	for i, line := range input.Items {
		if line.ProductID == 0 {
			return demand, nil, pkgerrors.Newf(pkgerrors.CodeValidation, "order_items[%d].product_id is required", i)
		}
		if line.Quantity <= 0 {
			return demand, nil, pkgerrors.Newf(pkgerrors.CodeValidation, "order_items[%d].quantity must be greater than zero", i)
		}
		if line.Quantity > MaxQuantity-demand.qty[line.ProductID] {
			return demand, nil, pkgerrors.Newf(pkgerrors.CodeValidation, "total quantity for product %d exceeds %d", line.ProductID, MaxQuantity)
		}
		if _, seen := demand.qty[line.ProductID]; !seen {
			demand.order = append(demand.order, line.ProductID)
		}
		demand.qty[line.ProductID] += line.Quantity
		order.Items = append(order.Items, models.OrderItem{ProductID: line.ProductID, Quantity: line.Quantity})
	}
	return demand, order, nil
}

func rejectReason(err error) string {
	switch {
	case pkgerrors.IsCode(err, pkgerrors.CodeInsufficient):
		return metrics.RejectInsufficientStock
	case pkgerrors.IsCode(err, pkgerrors.CodeNotFound):
		return metrics.RejectNotFound
	case pkgerrors.IsCode(err, pkgerrors.CodeValidation):
		return metrics.RejectInvalid
	default:
		return metrics.RejectInternal
	}
}

func loadOrder(ctx context.Context, repo *Repository, id uint) (*models.Order, error) {
	m, err := repo.FindByID(ctx, id)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.NotFound("order", id)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
	}
	return m, nil
}
