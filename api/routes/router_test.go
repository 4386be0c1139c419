package routes

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/novatech/management-backend/internal/clients"
	"github.com/novatech/management-backend/internal/dashboard"
	"github.com/novatech/management-backend/internal/roles"
	pkgAuth "github.com/novatech/management-backend/pkg/auth"
	"github.com/novatech/management-backend/pkg/config"
	"github.com/novatech/management-backend/pkg/enums"
	"github.com/novatech/management-backend/pkg/logger"
	"github.com/novatech/management-backend/pkg/metrics"
	"github.com/novatech/management-backend/pkg/pagination"
)

type stubPinger struct{ err error }

func (s stubPinger) Ping(context.Context) error { return s.err }

type stubSessions struct{ live bool }

func (s stubSessions) HasSession(context.Context, string) (bool, error) { return s.live, nil }

type stubClients struct{ clients.Service }

func (stubClients) List(_ context.Context, p clients.ListParams) (pagination.Page[clients.ClientDTO], error) {
	return pagination.NewPage([]clients.ClientDTO{}, 0, p.Params), nil
}

func (stubClients) Delete(context.Context, uint) error { return nil }

type stubRoles struct{ roles.Service }

func (stubRoles) List(context.Context) ([]roles.RoleDTO, error) {
	return []roles.RoleDTO{{ID: 1, Name: "Admin"}, {ID: 2, Name: "User"}}, nil
}

type stubDashboard struct{ dashboard.Service }

func (stubDashboard) Stats(context.Context, time.Time) (*dashboard.StatsDTO, error) {
	return &dashboard.StatsDTO{}, nil
}

type stubLimiter struct{ allow bool }

func (s stubLimiter) FixedWindowAllow(context.Context, string, int64, time.Duration) (bool, int64, error) {
	return s.allow, 1, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App:     config.AppConfig{Env: "test"},
		JWT:     config.JWTConfig{Key: "router-test-signing-key-0123456789abcdef", Issuer: "novatech", Audience: "novatech-web"},
		Metrics: config.MetricsConfig{Enabled: true, Path: "/metrics"},
		AuthRateLimit: config.AuthRateLimitConfig{
			LoginWindow:  time.Minute,
			LoginIPLimit: 5,
		},
	}
}

type testEnv struct {
	cfg    *config.Config
	issuer *pkgAuth.Issuer
	router http.Handler
}

func newTestEnv(t *testing.T, mutate func(*Infra)) testEnv {
	t.Helper()
	cfg := testConfig()
	issuer, err := pkgAuth.NewIssuer(cfg.JWT)
	if err != nil {
		t.Fatalf("new issuer: %v", err)
	}
	reg := prometheus.NewRegistry()
	infra := Infra{
		DB:          stubPinger{},
		Redis:       stubPinger{},
		RateLimiter: stubLimiter{allow: true},
		Tokens:      issuer,
		Sessions:    stubSessions{live: true},
		HTTPMetrics: metrics.NewHTTPMetrics(reg),
		Gatherer:    reg,
	}
	if mutate != nil {
		mutate(&infra)
	}
	logg := logger.New(logger.Options{ServiceName: "test", Level: logger.ParseLevel("debug"), Output: io.Discard})
	router := NewRouter(cfg, logg, infra, Services{
		Clients:   stubClients{},
		Roles:     stubRoles{},
		Dashboard: stubDashboard{},
	})
	return testEnv{cfg: cfg, issuer: issuer, router: router}
}

func (e testEnv) bearer(t *testing.T, roles ...enums.RoleName) string {
	t.Helper()
	names := make([]string, 0, len(roles))
	for _, r := range roles {
		names = append(names, r.String())
	}
	token, err := e.issuer.Mint(time.Now(), pkgAuth.Identity{UserID: 42, Email: "staff@novatech.test", Roles: names})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return "Bearer " + token.Value
}

func (e testEnv) do(method, path, auth string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	resp := httptest.NewRecorder()
	e.router.ServeHTTP(resp, req)
	return resp
}

func TestHealthEndpoints(t *testing.T) {
	env := newTestEnv(t, nil)
	if resp := env.do(http.MethodGet, "/health/live", ""); resp.Code != http.StatusOK {
		t.Fatalf("expected live 200 got %d", resp.Code)
	}
	if resp := env.do(http.MethodGet, "/health/ready", ""); resp.Code != http.StatusOK {
		t.Fatalf("expected ready 200 got %d", resp.Code)
	}

	down := newTestEnv(t, func(i *Infra) { i.Redis = stubPinger{err: errors.New("connection refused")} })
	if resp := down.do(http.MethodGet, "/health/ready", ""); resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected ready 503 got %d", resp.Code)
	}
}

func TestMetricsEndpointExposesHTTPCounters(t *testing.T) {
	env := newTestEnv(t, nil)
	env.do(http.MethodGet, "/health/live", "")

	resp := env.do(http.MethodGet, "/metrics", "")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected metrics 200 got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), "http_requests_total") {
		t.Fatalf("expected http_requests_total in exposition")
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	env := newTestEnv(t, nil)
	for _, path := range []string{"/api/clients", "/api/dashboard/stats", "/api/roles", "/api/auth/me"} {
		if resp := env.do(http.MethodGet, path, ""); resp.Code != http.StatusUnauthorized {
			t.Fatalf("%s: expected 401 got %d", path, resp.Code)
		}
	}
}

func TestRevokedSessionIsRejected(t *testing.T) {
	env := newTestEnv(t, func(i *Infra) { i.Sessions = stubSessions{live: false} })
	if resp := env.do(http.MethodGet, "/api/clients", env.bearer(t, enums.RoleAdmin)); resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for revoked session got %d", resp.Code)
	}
}

func TestReadRoutesAcceptEitherRole(t *testing.T) {
	env := newTestEnv(t, nil)
	for _, role := range []enums.RoleName{enums.RoleAdmin, enums.RoleUser} {
		if resp := env.do(http.MethodGet, "/api/clients", env.bearer(t, role)); resp.Code != http.StatusOK {
			t.Fatalf("%s: expected 200 got %d", role, resp.Code)
		}
		if resp := env.do(http.MethodGet, "/api/dashboard/stats", env.bearer(t, role)); resp.Code != http.StatusOK {
			t.Fatalf("%s: expected dashboard 200 got %d", role, resp.Code)
		}
	}
}

func TestTokenWithoutKnownRoleIsForbidden(t *testing.T) {
	env := newTestEnv(t, nil)
	if resp := env.do(http.MethodGet, "/api/clients", env.bearer(t)); resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 without roles got %d", resp.Code)
	}
}

func TestWriteRoutesRequireAdmin(t *testing.T) {
	env := newTestEnv(t, nil)

	if resp := env.do(http.MethodDelete, "/api/clients/3", env.bearer(t, enums.RoleUser)); resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for user delete got %d", resp.Code)
	}
	if resp := env.do(http.MethodDelete, "/api/clients/3", env.bearer(t, enums.RoleAdmin)); resp.Code != http.StatusNoContent {
		t.Fatalf("expected 204 for admin delete got %d", resp.Code)
	}
}

func TestRoleAdministrationIsAdminOnly(t *testing.T) {
	env := newTestEnv(t, nil)
	if resp := env.do(http.MethodGet, "/api/roles", env.bearer(t, enums.RoleUser)); resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for user got %d", resp.Code)
	}
	if resp := env.do(http.MethodGet, "/api/roles", env.bearer(t, enums.RoleAdmin)); resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin got %d", resp.Code)
	}
}

func TestInvalidPathIDIsBadRequest(t *testing.T) {
	env := newTestEnv(t, nil)
	if resp := env.do(http.MethodDelete, "/api/clients/abc", env.bearer(t, enums.RoleAdmin)); resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for non-numeric id got %d", resp.Code)
	}
}

func TestLoginIsThrottled(t *testing.T) {
	env := newTestEnv(t, func(i *Infra) { i.RateLimiter = stubLimiter{allow: false} })
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{"email":"a@b.test","password":"x"}`))
	resp := httptest.NewRecorder()
	env.router.ServeHTTP(resp, req)
	if resp.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 got %d", resp.Code)
	}
}
