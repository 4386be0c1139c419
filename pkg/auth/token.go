package auth

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/novatech/management-backend/pkg/config"
)

// TokenTTL is the fixed lifetime of an access token.
const TokenTTL = 7 * 24 * time.Hour

var jwtSigningMethod = jwt.SigningMethodHS512

// Token is a signed access token plus the values callers persist alongside it.
type Token struct {
	Value     string
	ID        string
	ExpiresAt time.Time
	Roles     []string
}

// Issuer mints and validates access tokens with a symmetric key.
type Issuer struct {
	key      []byte
	issuer   string
	audience string
}

// NewIssuer fails when any of the signing parameters is missing.
func NewIssuer(cfg config.JWTConfig) (*Issuer, error) {
	var missing []string
	if strings.TrimSpace(cfg.Key) == "" {
		missing = append(missing, "key")
	}
	if strings.TrimSpace(cfg.Issuer) == "" {
		missing = append(missing, "issuer")
	}
	if strings.TrimSpace(cfg.Audience) == "" {
		missing = append(missing, "audience")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("jwt config missing %s", strings.Join(missing, ", "))
	}
	return &Issuer{
		key:      []byte(cfg.Key),
		issuer:   cfg.Issuer,
		audience: cfg.Audience,
	}, nil
}

// Mint signs a token for the identity, valid from now for TokenTTL.
func (i *Issuer) Mint(now time.Time, id Identity) (Token, error) {
	if id.UserID == 0 {
		return Token{}, fmt.Errorf("user id is required")
	}

	expiresAt := now.Add(TokenTTL)
	jti := uuid.NewString()
	roles := dedupeRoles(id.Roles)

	claims := Claims{
		Email:      id.Email,
		GivenName:  strings.TrimSpace(id.FirstName),
		FamilyName: strings.TrimSpace(id.LastName),
		Roles:      roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(id.UserID), 10),
			Issuer:    i.issuer,
			Audience:  jwt.ClaimStrings{i.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        jti,
		},
	}

	signed, err := jwt.NewWithClaims(jwtSigningMethod, claims).SignedString(i.key)
	if err != nil {
		return Token{}, fmt.Errorf("signing jwt: %w", err)
	}
	return Token{Value: signed, ID: jti, ExpiresAt: expiresAt, Roles: roles}, nil
}

// Parse validates signature, algorithm, issuer, audience and expiry.
func (i *Issuer) Parse(tokenString string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(token *jwt.Token) (any, error) {
			if token.Method != jwtSigningMethod {
				return nil, fmt.Errorf("unexpected signing method %s", token.Header["alg"])
			}
			return i.key, nil
		},
		jwt.WithValidMethods([]string{jwtSigningMethod.Alg()}),
		jwt.WithIssuer(i.issuer),
		jwt.WithAudience(i.audience),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, err
	}
	if claims.ID == "" {
		return nil, fmt.Errorf("token id is required")
	}
	if _, err := claims.UserID(); err != nil {
		return nil, fmt.Errorf("invalid subject: %w", err)
	}
	return claims, nil
}

func dedupeRoles(roles []string) []string {
	out := make([]string, 0, len(roles))
	seen := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		role = strings.TrimSpace(role)
		if role == "" {
			continue
		}
		if _, ok := seen[role]; ok {
			continue
		}
		seen[role] = struct{}{}
		out = append(out, role)
	}
	return out
}
