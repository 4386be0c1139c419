package users

import (
	"time"

	"github.com/novatech/management-backend/pkg/db/models"
)

// UserDTO is the transport shape that omits credentials.
type UserDTO struct {
	ID               uint      `json:"id"`
	Email            string    `json:"email"`
	FirstName        string    `json:"first_name,omitempty"`
	LastName         string    `json:"last_name,omitempty"`
	RegistrationDate time.Time `json:"registration_date"`
	Roles            []string  `json:"roles"`
}

// CreateUserDTO holds the data required by the repo to persist a new user.
type CreateUserDTO struct {
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	RegisteredAt time.Time
}

func FromModel(u *models.User, roles []string) *UserDTO {
	if u == nil {
		return nil
	}
	if roles == nil {
		roles = []string{}
	}
	return &UserDTO{
		ID:               u.ID,
		Email:            u.Email,
		FirstName:        Deref(u.FirstName),
		LastName:         Deref(u.LastName),
		RegistrationDate: u.RegistrationDate,
		Roles:            roles,
	}
}

func (c CreateUserDTO) ToModel() *models.User {
	registered := c.RegisteredAt
	if registered.IsZero() {
		registered = time.Now().UTC()
	}
	return &models.User{
		Email:            c.Email,
		PasswordHash:     c.PasswordHash,
		FirstName:        optional(c.FirstName),
		LastName:         optional(c.LastName),
		RegistrationDate: registered,
	}
}

// Deref returns the pointed-to string or "".
func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
