package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"

	"github.com/novatech/management-backend/api/routes"
	"github.com/novatech/management-backend/internal/auth"
	"github.com/novatech/management-backend/internal/clients"
	"github.com/novatech/management-backend/internal/dashboard"
	"github.com/novatech/management-backend/internal/invoices"
	"github.com/novatech/management-backend/internal/orders"
	"github.com/novatech/management-backend/internal/products"
	"github.com/novatech/management-backend/internal/roles"
	pkgAuth "github.com/novatech/management-backend/pkg/auth"
	"github.com/novatech/management-backend/pkg/auth/session"
	"github.com/novatech/management-backend/pkg/config"
	"github.com/novatech/management-backend/pkg/db"
	"github.com/novatech/management-backend/pkg/env"
	"github.com/novatech/management-backend/pkg/logger"
	"github.com/novatech/management-backend/pkg/metrics"
	"github.com/novatech/management-backend/pkg/migrate"
	"github.com/novatech/management-backend/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	if err := run(cfg, logg); err != nil {
		logg.Error(context.Background(), "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logg *logger.Logger) (err error) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, dbClient.Close()) }()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		return err
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, redisClient.Close()) }()

	issuer, err := pkgAuth.NewIssuer(cfg.JWT)
	if err != nil {
		return err
	}
	sessions, err := session.NewManager(redisClient)
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	services, err := buildServices(cfg, logg, dbClient, issuer, sessions, registry)
	if err != nil {
		return err
	}

	if cfg.Bootstrap.Enabled() {
		if err := services.Auth.EnsureAdmin(ctx, cfg.Bootstrap.AdminEmail, cfg.Bootstrap.AdminPassword); err != nil {
			return err
		}
	}

	handler := routes.NewRouter(cfg, logg, routes.Infra{
		DB:          dbClient,
		Redis:       redisClient,
		RateLimiter: redisClient,
		Tokens:      issuer,
		Sessions:    sessions,
		HTTPMetrics: metrics.NewHTTPMetrics(registry),
		Gatherer:    registry,
	}, services)

	addr := ":" + cfg.App.Port
	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logCtx := logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "addr": addr, "instance": env.InstanceID()})
	logg.Info(logCtx, "starting api server")

	serveErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	logg.Info(logCtx, "shutting down api server")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func buildServices(cfg *config.Config, logg *logger.Logger, dbClient *db.Client, issuer *pkgAuth.Issuer, sessions *session.Manager, reg prometheus.Registerer) (routes.Services, error) {
	var (
		svc  routes.Services
		errs error
		err  error
	)

	svc.Auth, err = auth.NewService(auth.ServiceParams{
		DB:             dbClient,
		Issuer:         issuer,
		SessionManager: sessions,
		PasswordConfig: cfg.Password,
		Logger:         logg,
	})
	errs = multierr.Append(errs, err)

	svc.Clients, err = clients.NewService(dbClient)
	errs = multierr.Append(errs, err)

	svc.Products, err = products.NewService(dbClient)
	errs = multierr.Append(errs, err)

	svc.Orders, err = orders.NewService(orders.ServiceParams{
		DB:      dbClient,
		Metrics: metrics.NewOrderMetrics(reg),
		Logger:  logg,
	})
	errs = multierr.Append(errs, err)

	svc.Invoices, err = invoices.NewService(dbClient, logg)
	errs = multierr.Append(errs, err)

	svc.Roles, err = roles.NewService(dbClient, logg)
	errs = multierr.Append(errs, err)

	svc.Dashboard, err = dashboard.NewService(dbClient)
	errs = multierr.Append(errs, err)

	return svc, errs
}
