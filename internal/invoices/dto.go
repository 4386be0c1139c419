package invoices

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/novatech/management-backend/internal/clients"
	"github.com/novatech/management-backend/pkg/db/models"
	"github.com/novatech/management-backend/pkg/enums"
	"github.com/novatech/management-backend/pkg/pagination"
)

// InvoiceDTO is the wire shape of an invoice.
type InvoiceDTO struct {
	ID          uint                `json:"id"`
	InvoiceDate time.Time           `json:"invoice_date"`
	OrderID     uint                `json:"order_id"`
	Order       *OrderSummary       `json:"order,omitempty"`
	ClientID    uint                `json:"client_id"`
	Client      *clients.ClientDTO  `json:"client,omitempty"`
	TotalAmount decimal.Decimal     `json:"total_amount"`
	Status      enums.InvoiceStatus `json:"status"`
	DueDate     *time.Time          `json:"due_date,omitempty"`
}

type OrderSummary struct {
	ID        uint      `json:"id"`
	OrderDate time.Time `json:"order_date"`
}

type ListParams struct {
	ClientID *uint
	OrderID  *uint
	Status   string
	pagination.Params
}

type CreateInput struct {
	OrderID uint       `json:"order_id" validate:"required"`
	Status  string     `json:"status"`
	DueDate *time.Time `json:"due_date"`
}

// UpdateInput changes status and due date. A present Status with no DueDate
// clears the due date.
type UpdateInput struct {
	Status  *string    `json:"status"`
	DueDate *time.Time `json:"due_date"`
}

func FromModel(m *models.Invoice) InvoiceDTO {
	dto := InvoiceDTO{
		ID:          m.ID,
		InvoiceDate: m.InvoiceDate,
		OrderID:     m.OrderID,
		ClientID:    m.ClientID,
		TotalAmount: m.TotalAmount,
		Status:      m.Status,
		DueDate:     m.DueDate,
	}
	if m.Order != nil {
		dto.Order = &OrderSummary{ID: m.Order.ID, OrderDate: m.Order.OrderDate}
	}
	if m.Client != nil {
		c := clients.FromModel(m.Client)
		dto.Client = &c
	}
	return dto
}
