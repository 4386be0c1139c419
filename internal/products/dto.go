package products

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/novatech/management-backend/pkg/db/models"
	"github.com/novatech/management-backend/pkg/enums"
	"github.com/novatech/management-backend/pkg/pagination"
)

// ProductDTO is the wire shape of a product.
type ProductDTO struct {
	ID              uint                `json:"id"`
	ProductName     string              `json:"product_name"`
	Description     *string             `json:"description,omitempty"`
	Price           decimal.Decimal     `json:"price"`
	QuantityInStock int                 `json:"quantity_in_stock"`
	Status          enums.ProductStatus `json:"status"`
	ImageURL        *string             `json:"image_url,omitempty"`
	DateAdded       time.Time           `json:"date_added"`
}

type ListParams struct {
	Search string
	pagination.Params
}

type CreateInput struct {
	ProductName     string          `json:"product_name" validate:"required,max=200"`
	Description     *string         `json:"description"`
	Price           decimal.Decimal `json:"price" validate:"gt=0"`
	QuantityInStock int             `json:"quantity_in_stock"`
	Status          string          `json:"status" validate:"required"`
	ImageURL        *string         `json:"image_url" validate:"omitempty,max=2048"`
}

// UpdateInput is a partial update; nil pointers and empty strings leave
// the stored value alone.
type UpdateInput struct {
	ProductName     string           `json:"product_name" validate:"omitempty,max=200"`
	Description     *string          `json:"description"`
	Price           *decimal.Decimal `json:"price"`
	QuantityInStock *int             `json:"quantity_in_stock"`
	Status          string           `json:"status"`
	ImageURL        *string          `json:"image_url" validate:"omitempty,max=2048"`
}

func FromModel(m *models.Product) ProductDTO {
	return ProductDTO{
		ID:              m.ID,
		ProductName:     m.ProductName,
		Description:     m.Description,
		Price:           m.Price,
		QuantityInStock: m.QuantityInStock,
		Status:          m.Status,
		ImageURL:        m.ImageURL,
		DateAdded:       m.DateAdded,
	}
}
