package clients

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/novatech/management-backend/pkg/db"
	"github.com/novatech/management-backend/pkg/db/models"
	"github.com/novatech/management-backend/pkg/enums"
	pkgerrors "github.com/novatech/management-backend/pkg/errors"
	"github.com/novatech/management-backend/pkg/pagination"
)

const emailInUseMessage = "email already in use by another client"

// Service manages customer records.
type Service interface {
	List(ctx context.Context, params ListParams) (pagination.Page[ClientDTO], error)
	Get(ctx context.Context, id uint) (*ClientDTO, error)
	Create(ctx context.Context, input CreateInput) (*ClientDTO, error)
	Update(ctx context.Context, id uint, input UpdateInput) (*ClientDTO, error)
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

func (s *service) List(ctx context.Context, params ListParams) (pagination.Page[ClientDTO], error) {
	rows, total, err := s.repo.List(ctx, params)
	if err != nil {
		return pagination.Page[ClientDTO]{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list clients")
	}
	items := make([]ClientDTO, 0, len(rows))
	for i := range rows {
		items = append(items, FromModel(&rows[i]))
	}
	return pagination.NewPage(items, total, params.Params), nil
}

func (s *service) Get(ctx context.Context, id uint) (*ClientDTO, error) {
	m, err := loadClient(ctx, s.repo, id)
	if err != nil {
		return nil, err
	}
	dto := FromModel(m)
	return &dto, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*ClientDTO, error) {
	status, err := enums.ParseClientStatus(input.Status)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, err.Error())
	}
	name := strings.TrimSpace(input.ClientName)
	email := strings.TrimSpace(input.Email)
	if name == "" || email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "client_name and email are required")
	}

	taken, err := s.repo.EmailTaken(ctx, email, 0)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check client email")
	}
	if taken {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, emailInUseMessage)
	}

	m := &models.Client{
		ClientName: name,
		Email:      email,
		Phone:      normalizePhone(input.Phone),
		Status:     status,
		DateAdded:  s.now(),
	}
	if err := s.repo.Create(ctx, m); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, emailInUseMessage)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create client")
	}
	dto := FromModel(m)
	return &dto, nil
}

// Update writes only the supplied columns. A changed email is re-checked
// for uniqueness inside the same transaction.
func (s *service) Update(ctx context.Context, id uint, input UpdateInput) (*ClientDTO, error) {
	changes := map[string]any{}
	if name := strings.TrimSpace(input.ClientName); name != "" {
		changes["client_name"] = name
	}
	if input.Phone != nil {
		if phone := normalizePhone(input.Phone); phone != nil {
			changes["phone"] = *phone
		} else {
			changes["phone"] = nil
		}
	}
	if strings.TrimSpace(input.Status) != "" {
		status, err := enums.ParseClientStatus(input.Status)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, err.Error())
		}
		changes["status"] = string(status)
	}

	var out *models.Client
	err := s.client.WithTx(ctx, func(tx *gorm.DB) error {
		repo := NewRepository(tx)
		current, err := loadClient(ctx, repo, id)
		if err != nil {
			return err
		}
		if email := strings.TrimSpace(input.Email); email != "" && !strings.EqualFold(email, current.Email) {
			taken, err := repo.EmailTaken(ctx, email, id)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check client email")
			}
			if taken {
				return pkgerrors.New(pkgerrors.CodeConflict, emailInUseMessage)
			}
			changes["email"] = email
		}
		if len(changes) > 0 {
			found, err := repo.Apply(ctx, id, changes)
			if err != nil {
				if db.IsUniqueViolation(err, "") {
					return pkgerrors.New(pkgerrors.CodeConflict, emailInUseMessage)
				}
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update client")
			}
			if !found {
				return pkgerrors.NotFound("client", id)
			}
		}
		out, err = loadClient(ctx, repo, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	dto := FromModel(out)
	return &dto, nil
}

// Delete refuses while orders or invoices still reference the client.
func (s *service) Delete(ctx context.Context, id uint) error {
	return s.client.WithTx(ctx, func(tx *gorm.DB) error {
		repo := NewRepository(tx)
		if _, err := loadClient(ctx, repo, id); err != nil {
			return err
		}
		orders, invoices, err := repo.Dependents(ctx, id)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check client dependents")
		}
		if orders > 0 {
			return pkgerrors.New(pkgerrors.CodeConflict, "client has existing orders")
		}
		if invoices > 0 {
			return pkgerrors.New(pkgerrors.CodeConflict, "client has existing invoices")
		}
		if err := repo.Delete(ctx, id); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete client")
		}
		return nil
	})
}

func loadClient(ctx context.Context, repo *Repository, id uint) (*models.Client, error) {
	m, err := repo.FindByID(ctx, id)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.NotFound("client", id)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load client")
	}
	return m, nil
}

func normalizePhone(phone *string) *string {
	if phone == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*phone)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
