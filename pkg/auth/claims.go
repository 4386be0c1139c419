package auth

import (
	"strconv"

	"github.com/golang-jwt/jwt/v5"
)

// Identity is the data available when minting a token for a signed-in user.
type Identity struct {
	UserID    uint
	Email     string
	FirstName string
	LastName  string
	Roles     []string
}

// Claims is the typed JWT payload. Roles carries one entry per assigned role.
type Claims struct {
	Email      string   `json:"email"`
	GivenName  string   `json:"given_name,omitempty"`
	FamilyName string   `json:"family_name,omitempty"`
	Roles      []string `json:"roles"`
	jwt.RegisteredClaims
}

// UserID parses the subject back into the numeric user id.
func (c *Claims) UserID() (uint, error) {
	id, err := strconv.ParseUint(c.Subject, 10, 64)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}
