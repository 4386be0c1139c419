package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/novatech/management-backend/pkg/enums"
)

// Order is the header of a customer order. TotalAmount is fixed at creation.
type Order struct {
	ID          uint              `gorm:"column:id;primaryKey"`
	OrderDate   time.Time         `gorm:"column:order_date;not null;index"`
	ClientID    uint              `gorm:"column:client_id;not null;index"`
	Status      enums.OrderStatus `gorm:"column:status;type:varchar(50);not null"`
	TotalAmount decimal.Decimal   `gorm:"column:total_amount;type:numeric(18,2);not null"`

	// Read-only associations, populated with Preload.
	Client *Client     `gorm:"foreignKey:ClientID;constraint:OnDelete:RESTRICT"`
	Items  []OrderItem `gorm:"foreignKey:OrderID"`
}

// OrderItem is a single order line. UnitPrice is the product price at order time.
type OrderItem struct {
	ID        uint            `gorm:"column:id;primaryKey"`
	OrderID   uint            `gorm:"column:order_id;not null;index"`
	ProductID uint            `gorm:"column:product_id;not null;index"`
	Quantity  int             `gorm:"column:quantity;not null"`
	UnitPrice decimal.Decimal `gorm:"column:unit_price;type:numeric(18,2);not null"`

	Product *Product `gorm:"foreignKey:ProductID;constraint:OnDelete:RESTRICT"`
}

// LineTotal is Quantity × UnitPrice.
func (i OrderItem) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}
