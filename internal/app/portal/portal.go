// Package portal собирает приложение: хранилище, redis, выпуск и проверку
// токенов, сервис аутентификации и HTTP-сервер с guard.
package portal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/magabrotheeeer/community-portal/internal/cache"
	"github.com/magabrotheeeer/community-portal/internal/config"
	"github.com/magabrotheeeer/community-portal/internal/family"
	"github.com/magabrotheeeer/community-portal/internal/http/handlers/health"
	"github.com/magabrotheeeer/community-portal/internal/lib/jwt"
	"github.com/magabrotheeeer/community-portal/internal/lib/metrics"
	"github.com/magabrotheeeer/community-portal/internal/lib/sl"
	"github.com/magabrotheeeer/community-portal/internal/migrations"
	services "github.com/magabrotheeeer/community-portal/internal/services/auth"
	"github.com/magabrotheeeer/community-portal/internal/storage/mongodb"
)

const shutdownTimeout = 15 * time.Second

// App — HTTP-сервер портала и его соединения.
type App struct {
	server *http.Server
	logger *slog.Logger
	db     *mongodb.Storage
	cache  *cache.Cache
}

// New подключается к MongoDB и redis, применяет миграции и собирает маршруты.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	const op = "app.portal.New"

	issuer, err := jwt.NewIssuer(cfg.JWTSecretKey)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	verifier, err := jwt.NewVerifier(cfg.JWTSecretKey)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	db, err := mongodb.New(ctx, cfg.Mongo)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := migrations.Run(cfg.Mongo); err != nil {
		_ = db.Close(context.Background())
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	logger.Info("mongo migrations applied")

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		_ = db.Close(context.Background())
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	authService := services.NewAuthService(logger, db, cacheRedis, issuer, cfg.AccessCodes, cfg.LoginThrottle, m)

	router := chi.NewRouter()
	RegisterRoutes(router, logger, Deps{
		Families: family.FromConfig(cfg.JWTToken),
		Verifier: verifier,
		Auth:     authService,
		Metrics:  m,
		Gatherer: reg,
		Checkers: map[string]health.Checker{
			"mongo": db,
			"redis": cacheRedis,
		},
		RateLimit: cfg.RateLimit,
		Secure:    cfg.CookieSecure(),
	})

	srv := &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &App{
		server: srv,
		logger: logger,
		db:     db,
		cache:  cacheRedis,
	}, nil
}

// Run обслуживает запросы до отмены ctx, затем корректно останавливает сервер.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		a.close()
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		a.close()
		return err
	}
}

func (a *App) close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.db.Close(ctx); err != nil {
		a.logger.Error("failed to close mongo", sl.Err(err))
	}
	if err := a.cache.Close(); err != nil {
		a.logger.Error("failed to close redis", sl.Err(err))
	}
}
