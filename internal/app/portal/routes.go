package portal

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
	"golang.org/x/time/rate"

	"github.com/magabrotheeeer/community-portal/internal/config"
	"github.com/magabrotheeeer/community-portal/internal/family"
	"github.com/magabrotheeeer/community-portal/internal/http/handlers/activity"
	"github.com/magabrotheeeer/community-portal/internal/http/handlers/auth/accesscode"
	"github.com/magabrotheeeer/community-portal/internal/http/handlers/auth/checkauth"
	"github.com/magabrotheeeer/community-portal/internal/http/handlers/auth/credentials"
	"github.com/magabrotheeeer/community-portal/internal/http/handlers/auth/login"
	"github.com/magabrotheeeer/community-portal/internal/http/handlers/auth/logout"
	"github.com/magabrotheeeer/community-portal/internal/http/handlers/health"
	"github.com/magabrotheeeer/community-portal/internal/http/handlers/pages"
	"github.com/magabrotheeeer/community-portal/internal/http/handlers/session"
	"github.com/magabrotheeeer/community-portal/internal/http/middlewarectx"
	"github.com/magabrotheeeer/community-portal/internal/lib/jwt"
	"github.com/magabrotheeeer/community-portal/internal/lib/metrics"
)

// AuthService — всё, что обработчикам нужно от сервиса аутентификации.
type AuthService interface {
	login.Service
	accesscode.Service
	logout.Service
	credentials.Service
	activity.Service
}

// Deps — зависимости маршрутов.
type Deps struct {
	Families  family.Set
	Verifier  middlewarectx.TokenVerifier
	Auth      AuthService
	Metrics   *metrics.Metrics
	Gatherer  prometheus.Gatherer
	Checkers  map[string]health.Checker
	RateLimit config.RateLimit
	Secure    bool
}

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, d Deps) {
	// Глобальные middleware. Guard стоит до маршрутизации и видит каждый запрос.
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Logger,
		middleware.Recoverer,
		middlewarectx.Guard(d.Verifier, middlewarectx.DefaultRules(d.Families), logger, d.Metrics),
	)

	r.Get("/health", health.New(logger, d.Checkers).ServeHTTP)
	r.Handle("/metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{}))
	r.Get("/docs/*", httpSwagger.WrapHandler)

	for _, fam := range d.Families.All() {
		registerFamily(r, logger, d, fam)
	}
}

func registerFamily(r chi.Router, logger *slog.Logger, d Deps, fam family.Family) {
	r.Get(fam.EntryPath, pages.New(logger, fam, pages.Entry).ServeHTTP)
	r.Get(fam.LoginPath, pages.New(logger, fam, pages.Login).ServeHTTP)
	r.Get(fam.DashboardPath, pages.New(logger, fam, pages.Dashboard).ServeHTTP)

	// Бюджет отдельный на каждый IP внутри семейства: подбор кода admin
	// не тратит бюджет ментора, а один клиент не блокирует вход остальным.
	limiters := middlewarectx.NewClientLimiters(rate.Limit(d.RateLimit.RPS), d.RateLimit.Burst, d.RateLimit.ClientIdle)
	limited := middlewarectx.RateLimitMiddleware(logger, limiters)

	r.Route(fam.APIPrefix, func(r chi.Router) {
		r.With(limited).Post(middlewarectx.LoginEndpoint, login.New(logger, d.Auth, d.Verifier, fam, d.Secure).ServeHTTP)
		if fam.RequiresPreAuth() {
			r.With(limited).Post(middlewarectx.VerifyCodeEndpoint, accesscode.New(logger, d.Auth, fam, d.Secure).ServeHTTP)
		}
		r.Post(middlewarectx.LogoutEndpoint, logout.New(logger, d.Auth, d.Verifier, fam, d.Secure).ServeHTTP)
		r.Get(middlewarectx.CheckAuthEndpoint, checkauth.New(logger, d.Verifier, fam).ServeHTTP)

		// Ниже только защищённые guard маршруты.
		r.Get("/session", session.New().ServeHTTP)
		if fam.Role == jwt.RoleAdmin {
			r.Get("/activity-log", activity.New(logger, d.Auth).ServeHTTP)
			r.Post("/credentials", credentials.New(logger, d.Auth).ServeHTTP)
		}
	})
}
