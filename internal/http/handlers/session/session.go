// Package session возвращает claims текущей сессии защищённого маршрута.
package session

import (
	"net/http"

	"github.com/go-chi/render"

	"github.com/magabrotheeeer/community-portal/internal/http/middlewarectx"
	"github.com/magabrotheeeer/community-portal/internal/http/response"
)

// Handler обрабатывает GET /api/{family}/session.
type Handler struct{}

// New создаёт Handler.
func New() *Handler {
	return &Handler{}
}

// ServeHTTP godoc
// @Summary Текущая сессия
// @Description Возвращает проверенные guard claims. Без валидной cookie guard отвечает 401.
// @Tags Auth
// @Produce  json
// @Param family path string true "admin, mentor или ambassador"
// @Success 200 {object} response.Response "Claims сессии"
// @Failure 401 {object} response.ErrorResponse "Нет сессии"
// @Router /api/{family}/session [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	claims, ok := middlewarectx.ClaimsFromContext(r.Context())
	if !ok {
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	data := map[string]any{
		"id":   claims.UserID,
		"role": claims.Role,
	}
	if claims.Username != "" {
		data["username"] = claims.Username
	}
	if claims.ExpiresAt != nil {
		data["expires_at"] = claims.ExpiresAt.Unix()
	}
	render.JSON(w, r, response.OKWithData(data))
}
