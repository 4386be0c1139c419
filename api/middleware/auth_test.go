package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/novatech/management-backend/pkg/auth"
	"github.com/novatech/management-backend/pkg/config"
	"github.com/novatech/management-backend/pkg/enums"
)

var testJWT = config.JWTConfig{Key: "middleware-test-signing-key-0123456789", Issuer: "novatech", Audience: "novatech-web"}

func newTestIssuer(t *testing.T) *auth.Issuer {
	t.Helper()
	issuer, err := auth.NewIssuer(testJWT)
	if err != nil {
		t.Fatalf("new issuer: %v", err)
	}
	return issuer
}

func mintTestToken(t *testing.T, issuer *auth.Issuer, userID uint, roles ...string) auth.Token {
	t.Helper()
	token, err := issuer.Mint(time.Now(), auth.Identity{UserID: userID, Email: "user@novatech.test", Roles: roles})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
}

func TestAuthRejectsMissingToken(t *testing.T) {
	handler := Auth(newTestIssuer(t), stubSessionVerifier{ok: true}, nil)(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestAuthRejectsInvalidToken(t *testing.T) {
	handler := Auth(newTestIssuer(t), stubSessionVerifier{ok: true}, nil)(okHandler())

	for _, header := range []string{"Bearer invalid", "Basic abc", "Bearer"} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", header)
		resp := httptest.NewRecorder()
		handler.ServeHTTP(resp, req)
		if resp.Code != http.StatusUnauthorized {
			t.Fatalf("%q: expected 401 got %d", header, resp.Code)
		}
	}
}

func TestAuthAllowsValidToken(t *testing.T) {
	issuer := newTestIssuer(t)
	token := mintTestToken(t, issuer, 42, "Admin", "User")

	var captured struct {
		user  uint
		roles []string
		jti   string
	}
	handler := Auth(issuer, stubSessionVerifier{ok: true}, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured.user, _ = UserIDFromContext(r.Context())
		captured.roles = RolesFromContext(r.Context())
		captured.jti = TokenIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "bearer "+token.Value)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if captured.user != 42 {
		t.Fatalf("expected user 42 got %d", captured.user)
	}
	if len(captured.roles) != 2 || captured.roles[0] != "Admin" {
		t.Fatalf("unexpected roles %v", captured.roles)
	}
	if captured.jti != token.ID {
		t.Fatalf("expected jti %s got %s", token.ID, captured.jti)
	}
}

func TestAuthRejectsRevokedSession(t *testing.T) {
	issuer := newTestIssuer(t)
	token := mintTestToken(t, issuer, 7, "User")

	cases := map[string]struct {
		verifier stubSessionVerifier
		want     int
	}{
		"revoked":     {verifier: stubSessionVerifier{ok: false}, want: http.StatusUnauthorized},
		"redis error": {verifier: stubSessionVerifier{err: errors.New("down")}, want: http.StatusServiceUnavailable},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			handler := Auth(issuer, tc.verifier, nil)(okHandler())
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set("Authorization", "Bearer "+token.Value)
			resp := httptest.NewRecorder()
			handler.ServeHTTP(resp, req)
			if resp.Code != tc.want {
				t.Fatalf("expected %d got %d", tc.want, resp.Code)
			}
		})
	}
}

func TestRequireAnyRole(t *testing.T) {
	handler := RequireAnyRole(nil, enums.RoleAdmin)(okHandler())

	cases := map[string]struct {
		ctx  context.Context
		want int
	}{
		"anonymous": {ctx: context.Background(), want: http.StatusUnauthorized},
		"user":      {ctx: WithIdentity(context.Background(), 1, []string{"User"}, "j"), want: http.StatusForbidden},
		"no roles":  {ctx: WithIdentity(context.Background(), 1, []string{}, "j"), want: http.StatusForbidden},
		"lowercase": {ctx: WithIdentity(context.Background(), 1, []string{"admin"}, "j"), want: http.StatusForbidden},
		"admin":     {ctx: WithIdentity(context.Background(), 1, []string{"User", "Admin"}, "j"), want: http.StatusOK},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil).WithContext(tc.ctx)
			resp := httptest.NewRecorder()
			handler.ServeHTTP(resp, req)
			if resp.Code != tc.want {
				t.Fatalf("expected %d got %d", tc.want, resp.Code)
			}
		})
	}
}

type stubSessionVerifier struct {
	ok  bool
	err error
}

func (s stubSessionVerifier) HasSession(ctx context.Context, accessID string) (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	return s.ok, nil
}
