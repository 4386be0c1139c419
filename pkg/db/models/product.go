package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/novatech/management-backend/pkg/enums"
)

// Product is a catalog entry with its current stock level.
type Product struct {
	ID              uint                `gorm:"column:id;primaryKey"`
	ProductName     string              `gorm:"column:product_name;type:varchar(200);not null"`
	Description     *string             `gorm:"column:description"`
	Price           decimal.Decimal     `gorm:"column:price;type:numeric(18,2);not null"`
	QuantityInStock int                 `gorm:"column:quantity_in_stock;not null"`
	Status          enums.ProductStatus `gorm:"column:status;type:varchar(20);not null"`
	ImageURL        *string             `gorm:"column:image_url"`
	DateAdded       time.Time           `gorm:"column:date_added;not null"`
}
