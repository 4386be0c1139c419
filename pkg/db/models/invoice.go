package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/novatech/management-backend/pkg/enums"
)

// Invoice bills a single order. ClientID and TotalAmount are copied from the
// order when the invoice is created.
type Invoice struct {
	ID          uint                `gorm:"column:id;primaryKey"`
	InvoiceDate time.Time           `gorm:"column:invoice_date;not null"`
	OrderID     uint                `gorm:"column:order_id;not null;uniqueIndex"`
	ClientID    uint                `gorm:"column:client_id;not null;index"`
	TotalAmount decimal.Decimal     `gorm:"column:total_amount;type:numeric(18,2);not null"`
	Status      enums.InvoiceStatus `gorm:"column:status;type:varchar(20);not null"`
	DueDate     *time.Time          `gorm:"column:due_date"`

	Order  *Order  `gorm:"foreignKey:OrderID;constraint:OnDelete:RESTRICT"`
	Client *Client `gorm:"foreignKey:ClientID;constraint:OnDelete:RESTRICT"`
}
