// Package activity отдаёт администратору журнал входов и выходов.
package activity

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/community-portal/internal/http/response"
	"github.com/magabrotheeeer/community-portal/internal/lib/sl"
	"github.com/magabrotheeeer/community-portal/internal/models"
)

// MaxLimit верхняя граница размера страницы.
const MaxLimit = 100

// Service описывает чтение журнала.
type Service interface {
	ActivityLog(ctx context.Context, limit int) ([]models.Activity, error)
}

// Handler обрабатывает GET /api/admin/activity-log.
type Handler struct {
	log *slog.Logger
	svc Service
}

// New создаёт Handler.
func New(log *slog.Logger, svc Service) *Handler {
	return &Handler{log: log, svc: svc}
}

// ServeHTTP godoc
// @Summary Журнал действий
// @Tags Admin
// @Produce  json
// @Param limit query int false "Количество записей (по умолчанию 20, максимум 100)"
// @Success 200 {object} response.Response "Последние записи, новые первыми"
// @Failure 400 {object} response.ErrorResponse "Некорректный limit"
// @Failure 401 {object} response.ErrorResponse "Нет сессии администратора"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /api/admin/activity-log [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.activity"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("invalid limit"))
			return
		}
		limit = min(n, MaxLimit)
	}

	logs, err := h.svc.ActivityLog(r.Context(), limit)
	if err != nil {
		log.Error("failed to read activity log", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to fetch activity logs"))
		return
	}
	render.JSON(w, r, response.OKWithData(logs))
}
