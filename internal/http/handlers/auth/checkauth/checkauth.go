// Package checkauth отвечает браузеру, активна ли сессия семейства.
package checkauth

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/community-portal/internal/family"
	"github.com/magabrotheeeer/community-portal/internal/http/middlewarectx"
	"github.com/magabrotheeeer/community-portal/internal/lib/jwt"
	"github.com/magabrotheeeer/community-portal/internal/lib/sl"
)

// Response — состояние сессии.
type Response struct {
	Authenticated bool     `json:"authenticated"`
	ID            string   `json:"id,omitempty"`
	Role          jwt.Role `json:"role,omitempty"`
	Username      string   `json:"username,omitempty"`
}

// Handler обрабатывает GET /api/{family}/check-auth.
type Handler struct {
	log      *slog.Logger
	verifier middlewarectx.TokenVerifier
	fam      family.Family
}

// New создаёт обработчик для семейства fam.
func New(log *slog.Logger, verifier middlewarectx.TokenVerifier, fam family.Family) *Handler {
	return &Handler{log: log, verifier: verifier, fam: fam}
}

// ServeHTTP godoc
// @Summary Проверка сессии
// @Tags Auth
// @Produce  json
// @Param family path string true "admin, mentor или ambassador"
// @Success 200 {object} Response "Сессия активна"
// @Failure 401 {object} Response "Сессии нет"
// @Router /api/{family}/check-auth [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.checkauth"

	token, ok := middlewarectx.SessionToken(r, h.fam)
	if !ok {
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, Response{})
		return
	}

	claims, err := h.verifier.VerifyWithRole(token, h.fam.Role)
	if err != nil {
		h.log.Debug("session is not valid",
			slog.String("op", op),
			slog.String("family", h.fam.Name()),
			slog.String("request_id", middleware.GetReqID(r.Context())),
			sl.Err(err),
		)
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, Response{})
		return
	}

	render.JSON(w, r, Response{
		Authenticated: true,
		ID:            claims.UserID,
		Role:          claims.Role,
		Username:      claims.Username,
	})
}
