package orders

import (
	"math"
	"time"

	"github.com/shopspring/decimal"

	"github.com/novatech/management-backend/internal/clients"
	"github.com/novatech/management-backend/pkg/db/models"
	"github.com/novatech/management-backend/pkg/enums"
	"github.com/novatech/management-backend/pkg/pagination"
)

// missingProductName is shown for lines whose product row is gone.
const missingProductName = "N/A"

// OrderDTO is the wire shape of an order with its lines and client snapshot.
type OrderDTO struct {
	ID          uint               `json:"id"`
	OrderDate   time.Time          `json:"order_date"`
	ClientID    uint               `json:"client_id"`
	Status      enums.OrderStatus  `json:"status"`
	TotalAmount decimal.Decimal    `json:"total_amount"`
	Client      *clients.ClientDTO `json:"client,omitempty"`
	Items       []OrderItemDTO     `json:"order_items"`
}

type OrderItemDTO struct {
	ID          uint            `json:"id"`
	ProductID   uint            `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	LineTotal   decimal.Decimal `json:"line_total"`
}

// ListParams filters the order list. Status matches case-insensitively.
type ListParams struct {
	ClientID *uint
	Status   string
	pagination.Params
}

// MaxQuantity is the largest quantity a product can carry in one order; it
// matches the INT stock and quantity columns.
const MaxQuantity = math.MaxInt32

type LineInput struct {
	ProductID uint `json:"product_id" validate:"required"`
	Quantity  int  `json:"quantity" validate:"required,gt=0,max=2147483647"`
}

type CreateInput struct {
	ClientID uint        `json:"client_id" validate:"required"`
	Status   string      `json:"status" validate:"omitempty,max=50"`
	Items    []LineInput `json:"order_items" validate:"required,min=1,dive"`
}

// UpdateInput only touches the client and the status. Line items are
// immutable once the order exists.
type UpdateInput struct {
	ClientID *uint   `json:"client_id"`
	Status   *string `json:"status" validate:"omitempty,max=50"`
}

func FromModel(m *models.Order) OrderDTO {
	dto := OrderDTO{
		ID:          m.ID,
		OrderDate:   m.OrderDate,
		ClientID:    m.ClientID,
		Status:      m.Status,
		TotalAmount: m.TotalAmount,
		Items:       make([]OrderItemDTO, 0, len(m.Items)),
	}
	if m.Client != nil {
		c := clients.FromModel(m.Client)
		dto.Client = &c
	}
	for _, item := range m.Items {
		name := missingProductName
		if item.Product != nil {
			name = item.Product.ProductName
		}
		dto.Items = append(dto.Items, OrderItemDTO{
			ID:          item.ID,
			ProductID:   item.ProductID,
			ProductName: name,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			LineTotal:   item.LineTotal(),
		})
	}
	return dto
}
