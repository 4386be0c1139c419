package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/novatech/management-backend/pkg/config"
)

func testConfig() config.JWTConfig {
	return config.JWTConfig{
		Key:      "test-signing-key-that-is-long-enough-for-hs512",
		Issuer:   "novatech",
		Audience: "novatech-clients",
	}
}

func newTestIssuer(t *testing.T) *Issuer {
	t.Helper()
	issuer, err := NewIssuer(testConfig())
	if err != nil {
		t.Fatalf("new issuer: %v", err)
	}
	return issuer
}

func TestNewIssuerRequiresAllParameters(t *testing.T) {
	cases := map[string]func(*config.JWTConfig){
		"key":      func(c *config.JWTConfig) { c.Key = "" },
		"issuer":   func(c *config.JWTConfig) { c.Issuer = " " },
		"audience": func(c *config.JWTConfig) { c.Audience = "" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := testConfig()
			mutate(&cfg)
			_, err := NewIssuer(cfg)
			if err == nil || !strings.Contains(err.Error(), name) {
				t.Fatalf("expected error naming %s, got %v", name, err)
			}
		})
	}
}

func TestMintAndParse(t *testing.T) {
	issuer := newTestIssuer(t)
	now := time.Now().UTC()

	token, err := issuer.Mint(now, Identity{
		UserID:    42,
		Email:     "ana@novatech.test",
		FirstName: "Ana",
		Roles:     []string{"Admin", "User", "Admin"},
	})
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	if token.ID == "" {
		t.Fatal("expected jti")
	}
	if !token.ExpiresAt.Equal(now.Add(7 * 24 * time.Hour)) {
		t.Fatalf("unexpected expiry %v", token.ExpiresAt)
	}

	claims, err := issuer.Parse(token.Value)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	userID, err := claims.UserID()
	if err != nil || userID != 42 {
		t.Fatalf("expected user 42, got %d err=%v", userID, err)
	}
	if claims.Email != "ana@novatech.test" || claims.GivenName != "Ana" || claims.FamilyName != "" {
		t.Fatalf("unexpected identity claims %+v", claims)
	}
	if len(claims.Roles) != 2 || claims.Roles[0] != "Admin" || claims.Roles[1] != "User" {
		t.Fatalf("expected de-duplicated roles, got %v", claims.Roles)
	}
	if claims.ID != token.ID {
		t.Fatalf("jti mismatch")
	}
	if len(claims.Audience) != 1 || claims.Audience[0] != "novatech-clients" {
		t.Fatalf("unexpected audience %v", claims.Audience)
	}
}

func TestMintWithoutRolesYieldsEmptyRoleClaim(t *testing.T) {
	issuer := newTestIssuer(t)
	token, err := issuer.Mint(time.Now(), Identity{UserID: 7, Email: "x@novatech.test"})
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	claims, err := issuer.Parse(token.Value)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.Roles == nil || len(claims.Roles) != 0 {
		t.Fatalf("expected empty roles, got %#v", claims.Roles)
	}
	if !strings.Contains(decodePayload(t, token.Value), `"roles":[]`) {
		t.Fatal("roles claim should be an empty array")
	}
}

func TestParseRejectsExpiredToken(t *testing.T) {
	issuer := newTestIssuer(t)
	token, err := issuer.Mint(time.Now().Add(-8*24*time.Hour), Identity{UserID: 1, Email: "a@b.c"})
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	if _, err := issuer.Parse(token.Value); err == nil {
		t.Fatal("expected expired token to fail")
	}
}

func TestParseRejectsForeignIssuerAndAudience(t *testing.T) {
	issuer := newTestIssuer(t)

	other := testConfig()
	other.Audience = "someone-else"
	foreign, err := NewIssuer(other)
	if err != nil {
		t.Fatalf("new issuer: %v", err)
	}
	token, err := foreign.Mint(time.Now(), Identity{UserID: 1, Email: "a@b.c"})
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	if _, err := issuer.Parse(token.Value); err == nil {
		t.Fatal("expected audience mismatch to fail")
	}

	other = testConfig()
	other.Key = "another-key-entirely-another-key-entirely"
	forged, _ := NewIssuer(other)
	token, _ = forged.Mint(time.Now(), Identity{UserID: 1, Email: "a@b.c"})
	if _, err := issuer.Parse(token.Value); err == nil {
		t.Fatal("expected signature mismatch to fail")
	}
}

func TestParseRejectsOtherAlgorithms(t *testing.T) {
	issuer := newTestIssuer(t)
	claims := Claims{
		Email: "a@b.c",
		Roles: []string{"Admin"},
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "1",
			Issuer:    "novatech",
			Audience:  jwt.ClaimStrings{"novatech-clients"},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			ID:        "jti",
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testConfig().Key))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := issuer.Parse(signed); err == nil {
		t.Fatal("expected HS256 token to be rejected")
	}
}

func decodePayload(t *testing.T, token string) string {
	t.Helper()
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		t.Fatalf("malformed token")
	}
	raw, err := jwt.NewParser().DecodeSegment(parts[1])
	if err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	return string(raw)
}
