package products

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/novatech/management-backend/pkg/db"
	"github.com/novatech/management-backend/pkg/db/models"
	"github.com/novatech/management-backend/pkg/enums"
	pkgerrors "github.com/novatech/management-backend/pkg/errors"
	"github.com/novatech/management-backend/pkg/pagination"
)

// Service manages the product catalog.
type Service interface {
	List(ctx context.Context, params ListParams) (pagination.Page[ProductDTO], error)
	Get(ctx context.Context, id uint) (*ProductDTO, error)
	Create(ctx context.Context, input CreateInput) (*ProductDTO, error)
	Update(ctx context.Context, id uint, input UpdateInput) (*ProductDTO, error)
	Delete(ctx context.Context, id uint) error
}

type service struct {
	client *db.Client
	repo   *Repository
	now    func() time.Time
}

func NewService(client *db.Client) (Service, error) {
	if client == nil {
		return nil, fmt.Errorf("db client is required")
	}
	return &service{
		client: client,
		repo:   NewRepository(client.DB()),
		now:    func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *service) List(ctx context.Context, params ListParams) (pagination.Page[ProductDTO], error) {
	rows, total, err := s.repo.List(ctx, params)
	if err != nil {
		return pagination.Page[ProductDTO]{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list products")
	}
	items := make([]ProductDTO, 0, len(rows))
	for i := range rows {
		items = append(items, FromModel(&rows[i]))
	}
	return pagination.NewPage(items, total, params.Params), nil
}

func (s *service) Get(ctx context.Context, id uint) (*ProductDTO, error) {
	m, err := loadProduct(ctx, s.repo, id)
	if err != nil {
		return nil, err
	}
	dto := FromModel(m)
	return &dto, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*ProductDTO, error) {
	name := strings.TrimSpace(input.ProductName)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product_name is required")
	}
	if err := validatePrice(input.Price); err != nil {
		return nil, err
	}
	if err := validateStock(input.QuantityInStock); err != nil {
		return nil, err
	}
	status, err := enums.ParseProductStatus(input.Status)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, err.Error())
	}

	m := &models.Product{
		ProductName:     name,
		Description:     trimmedOrNil(input.Description),
		Price:           input.Price.Round(2),
		QuantityInStock: input.QuantityInStock,
		Status:          status,
		ImageURL:        trimmedOrNil(input.ImageURL),
		DateAdded:       s.now(),
	}
	if err := s.repo.Create(ctx, m); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create product")
	}
	dto := FromModel(m)
	return &dto, nil
}

// Update writes only the columns the caller supplied, so concurrent stock
// decrements are never overwritten unless the stock itself is being set.
func (s *service) Update(ctx context.Context, id uint, input UpdateInput) (*ProductDTO, error) {
	changes, err := productChanges(input)
	if err != nil {
		return nil, err
	}

	var out *models.Product
	err = s.client.WithTx(ctx, func(tx *gorm.DB) error {
		repo := NewRepository(tx)
		if _, err := loadProduct(ctx, repo, id); err != nil {
			return err
		}
		if len(changes) > 0 {
			found, err := repo.Apply(ctx, id, changes)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update product")
			}
			if !found {
				return pkgerrors.NotFound("product", id)
			}
		}
		out, err = loadProduct(ctx, repo, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	dto := FromModel(out)
	return &dto, nil
}

func productChanges(input UpdateInput) (map[string]any, error) {
	changes := map[string]any{}
	if name := strings.TrimSpace(input.ProductName); name != "" {
		changes["product_name"] = name
	}
	if input.Description != nil {
		changes["description"] = nullable(trimmedOrNil(input.Description))
	}
	if input.ImageURL != nil {
		changes["image_url"] = nullable(trimmedOrNil(input.ImageURL))
	}
	if input.Price != nil {
		if err := validatePrice(*input.Price); err != nil {
			return nil, err
		}
		changes["price"] = input.Price.Round(2)
	}
	if input.QuantityInStock != nil {
		if err := validateStock(*input.QuantityInStock); err != nil {
			return nil, err
		}
		changes["quantity_in_stock"] = *input.QuantityInStock
	}
	if strings.TrimSpace(input.Status) != "" {
		status, err := enums.ParseProductStatus(input.Status)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, err.Error())
		}
		changes["status"] = string(status)
	}
	return changes, nil
}

// Delete refuses while any order line references the product.
func (s *service) Delete(ctx context.Context, id uint) error {
	return s.client.WithTx(ctx, func(tx *gorm.DB) error {
		repo := NewRepository(tx)
		if _, err := loadProduct(ctx, repo, id); err != nil {
			return err
		}
		refs, err := repo.OrderItemCount(ctx, id)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check product references")
		}
		if refs > 0 {
			return pkgerrors.New(pkgerrors.CodeConflict, "product is referenced by existing order items")
		}
		if err := repo.Delete(ctx, id); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete product")
		}
		return nil
	})
}

func loadProduct(ctx context.Context, repo *Repository, id uint) (*models.Product, error) {
	m, err := repo.FindByID(ctx, id)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.NotFound("product", id)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
	}
	return m, nil
}

func validatePrice(price decimal.Decimal) error {
	if !price.IsPositive() {
		return pkgerrors.New(pkgerrors.CodeValidation, "price must be greater than zero")
	}
	return nil
}

func validateStock(qty int) error {
	if qty < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity_in_stock cannot be negative")
	}
	return nil
}

// nullable turns a nil pointer into SQL NULL for map updates.
func nullable(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func trimmedOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
