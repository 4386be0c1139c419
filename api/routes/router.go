package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/novatech/management-backend/api/controllers"
	"github.com/novatech/management-backend/api/middleware"
	"github.com/novatech/management-backend/internal/auth"
	"github.com/novatech/management-backend/internal/clients"
	"github.com/novatech/management-backend/internal/dashboard"
	"github.com/novatech/management-backend/internal/invoices"
	"github.com/novatech/management-backend/internal/orders"
	"github.com/novatech/management-backend/internal/products"
	"github.com/novatech/management-backend/internal/roles"
	"github.com/novatech/management-backend/pkg/auth/session"
	"github.com/novatech/management-backend/pkg/config"
	"github.com/novatech/management-backend/pkg/enums"
	"github.com/novatech/management-backend/pkg/logger"
	"github.com/novatech/management-backend/pkg/metrics"
	"github.com/novatech/management-backend/pkg/redis"
)

// Infra holds the shared clients the router needs beyond the domain services.
type Infra struct {
	DB          controllers.Pinger
	Redis       controllers.Pinger
	RateLimiter redis.RateLimiter
	Tokens      middleware.TokenParser
	Sessions    session.Checker
	HTTPMetrics *metrics.HTTPMetrics
	Gatherer    prometheus.Gatherer
}

type Services struct {
	Auth      auth.Service
	Clients   clients.Service
	Products  products.Service
	Orders    orders.Service
	Invoices  invoices.Service
	Roles     roles.Service
	Dashboard dashboard.Service
}

func NewRouter(cfg *config.Config, logg *logger.Logger, infra Infra, svc Services) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(infra.HTTPMetrics),
		middleware.CORS(cfg.CORS),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	forgotPolicy := middleware.NewAuthRateLimitPolicy(
		"forgot-password",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, map[string]controllers.Pinger{
			"database": infra.DB,
			"redis":    infra.Redis,
		}))
	})

	if cfg.Metrics.Enabled && infra.Gatherer != nil {
		path := cfg.Metrics.Path
		if path == "" {
			path = "/metrics"
		}
		r.Method(http.MethodGet, path, promhttp.HandlerFor(infra.Gatherer, promhttp.HandlerOpts{}))
	}

	authenticated := middleware.Auth(infra.Tokens, infra.Sessions, logg)
	anyRole := middleware.RequireAnyRole(logg, enums.RoleAdmin, enums.RoleUser)
	adminOnly := middleware.RequireAnyRole(logg, enums.RoleAdmin)

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.RateLimit(cfg.RateLimit, logg))

		r.Route("/auth", func(r chi.Router) {
			r.With(middleware.AuthRateLimit(registerPolicy, infra.RateLimiter, logg)).Post("/register", controllers.AuthRegister(svc.Auth, logg))
			r.With(middleware.AuthRateLimit(loginPolicy, infra.RateLimiter, logg)).Post("/login", controllers.AuthLogin(svc.Auth, logg))
			r.With(middleware.AuthRateLimit(forgotPolicy, infra.RateLimiter, logg)).Post("/forgot-password", controllers.AuthForgotPassword(svc.Auth, logg))
			r.With(authenticated).Post("/logout", controllers.AuthLogout(svc.Auth, logg))
			r.With(authenticated).Get("/me", controllers.AuthMe(svc.Auth, logg))
		})

		r.Group(func(r chi.Router) {
			r.Use(authenticated)

			r.Route("/clients", func(r chi.Router) {
				r.With(anyRole).Get("/", controllers.ClientList(svc.Clients, logg))
				r.With(anyRole).Get("/{id}", controllers.ClientGet(svc.Clients, logg))
				r.With(adminOnly).Post("/", controllers.ClientCreate(svc.Clients, logg))
				r.With(adminOnly).Put("/{id}", controllers.ClientUpdate(svc.Clients, logg))
				r.With(adminOnly).Delete("/{id}", controllers.ClientDelete(svc.Clients, logg))
			})

			r.Route("/products", func(r chi.Router) {
				r.With(anyRole).Get("/", controllers.ProductList(svc.Products, logg))
				r.With(anyRole).Get("/{id}", controllers.ProductGet(svc.Products, logg))
				r.With(adminOnly).Post("/", controllers.ProductCreate(svc.Products, logg))
				r.With(adminOnly).Put("/{id}", controllers.ProductUpdate(svc.Products, logg))
				r.With(adminOnly).Delete("/{id}", controllers.ProductDelete(svc.Products, logg))
			})

			r.Route("/orders", func(r chi.Router) {
				r.With(anyRole).Get("/", controllers.OrderList(svc.Orders, logg))
				r.With(anyRole).Get("/{id}", controllers.OrderGet(svc.Orders, logg))
				r.With(adminOnly).Post("/", controllers.OrderCreate(svc.Orders, logg))
				r.With(adminOnly).Put("/{id}", controllers.OrderUpdate(svc.Orders, logg))
				r.With(adminOnly).Delete("/{id}", controllers.OrderDelete(svc.Orders, logg))
			})

			r.Route("/invoices", func(r chi.Router) {
				r.With(anyRole).Get("/", controllers.InvoiceList(svc.Invoices, logg))
				r.With(anyRole).Get("/{id}", controllers.InvoiceGet(svc.Invoices, logg))
				r.With(adminOnly).Post("/", controllers.InvoiceCreate(svc.Invoices, logg))
				r.With(adminOnly).Put("/{id}", controllers.InvoiceUpdate(svc.Invoices, logg))
				r.With(adminOnly).Delete("/{id}", controllers.InvoiceDelete(svc.Invoices, logg))
			})

			r.Group(func(r chi.Router) {
				r.Use(adminOnly)
				r.Get("/roles", controllers.RoleList(svc.Roles, logg))
				r.Post("/users/{userId}/roles/{roleId}", controllers.RoleAssign(svc.Roles, logg))
				r.Delete("/users/{userId}/roles/{roleId}", controllers.RoleRevoke(svc.Roles, logg))
			})

			r.Route("/dashboard", func(r chi.Router) {
				r.Use(anyRole)
				r.Get("/stats", controllers.DashboardStats(svc.Dashboard, logg))
				r.Get("/revenue-trend", controllers.DashboardRevenueTrend(svc.Dashboard, logg))
				r.Get("/order-distribution", controllers.DashboardOrderDistribution(svc.Dashboard, logg))
				r.Get("/recent-activity", controllers.DashboardRecentActivity(svc.Dashboard, logg))
			})
		})
	})

	return r
}
