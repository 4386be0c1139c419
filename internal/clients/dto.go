package clients

import (
	"time"

	"github.com/novatech/management-backend/pkg/db/models"
	"github.com/novatech/management-backend/pkg/enums"
	"github.com/novatech/management-backend/pkg/pagination"
)

// ClientDTO is the wire shape of a client.
type ClientDTO struct {
	ID         uint               `json:"id"`
	ClientName string             `json:"client_name"`
	Email      string             `json:"email"`
	Phone      *string            `json:"phone,omitempty"`
	Status     enums.ClientStatus `json:"status"`
	DateAdded  time.Time          `json:"date_added"`
}

// ListParams filters the client list. Search matches name or email.
type ListParams struct {
	Search string
	pagination.Params
}

type CreateInput struct {
	ClientName string  `json:"client_name" validate:"required,max=200"`
	Email      string  `json:"email" validate:"required,email,max=255"`
	Phone      *string `json:"phone" validate:"omitempty,max=50"`
	Status     string  `json:"status" validate:"required"`
}

// UpdateInput is a partial update. Empty strings leave fields untouched,
// except Phone where a present empty value clears it.
type UpdateInput struct {
	ClientName string  `json:"client_name" validate:"omitempty,max=200"`
	Email      string  `json:"email" validate:"omitempty,email,max=255"`
	Phone      *string `json:"phone" validate:"omitempty,max=50"`
	Status     string  `json:"status"`
}

func FromModel(m *models.Client) ClientDTO {
	return ClientDTO{
		ID:         m.ID,
		ClientName: m.ClientName,
		Email:      m.Email,
		Phone:      m.Phone,
		Status:     m.Status,
		DateAdded:  m.DateAdded,
	}
}
