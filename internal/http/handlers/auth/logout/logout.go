// Package logout реализует выход из семейства ролей: cookie сессии и кода доступа стираются.
package logout

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/community-portal/internal/family"
	"github.com/magabrotheeeer/community-portal/internal/http/middlewarectx"
	"github.com/magabrotheeeer/community-portal/internal/http/response"
	"github.com/magabrotheeeer/community-portal/internal/lib/jwt"
)

// Service записывает выход в журнал.
type Service interface {
	Logout(ctx context.Context, fam family.Family, claims *jwt.Claims)
}

// Handler обрабатывает POST /api/{family}/logout.
type Handler struct {
	log      *slog.Logger
	svc      Service
	verifier middlewarectx.TokenVerifier
	fam      family.Family
	secure   bool
}

// New создаёт обработчик выхода для семейства fam.
func New(log *slog.Logger, svc Service, verifier middlewarectx.TokenVerifier, fam family.Family, secure bool) *Handler {
	return &Handler{log: log, svc: svc, verifier: verifier, fam: fam, secure: secure}
}

// ServeHTTP godoc
// @Summary Выход
// @Description Стирает cookie сессии семейства. Работает и без валидной сессии.
// @Tags Auth
// @Produce  json
// @Param family path string true "admin, mentor или ambassador"
// @Success 200 {object} response.Response "Сессия завершена"
// @Router /api/{family}/logout [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.logout"

	log := h.log.With(
		slog.String("op", op),
		slog.String("family", h.fam.Name()),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	// В журнал попадает только выход с проверенной сессией.
	if token, ok := middlewarectx.SessionToken(r, h.fam); ok {
		if claims, err := h.verifier.VerifyWithRole(token, h.fam.Role); err == nil {
			h.svc.Logout(r.Context(), h.fam, claims)
			log.Info("logout", slog.String("account_id", claims.UserID))
		}
	}

	for _, c := range h.fam.ExpiredCookies(h.secure) {
		http.SetCookie(w, c)
	}
	render.JSON(w, r, response.OKWithData(map[string]any{
		"redirect": h.fam.EntryPath,
	}))
}
