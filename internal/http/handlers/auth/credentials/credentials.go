// Package credentials реализует выдачу учётных данных администратором:
// логин и пароль для входа ментора, амбассадора или другого администратора.
package credentials

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/community-portal/internal/http/middlewarectx"
	"github.com/magabrotheeeer/community-portal/internal/http/response"
	"github.com/magabrotheeeer/community-portal/internal/lib/jwt"
	"github.com/magabrotheeeer/community-portal/internal/lib/sl"
	"github.com/magabrotheeeer/community-portal/internal/storage"
)

// Request — новые учётные данные.
type Request struct {
	Role     string `json:"role" validate:"required,oneof=admin mentor ambassador"`
	Username string `json:"username" validate:"required,min=3,max=50"`
	Name     string `json:"name" validate:"max=100"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

// Service описывает создание учётной записи.
type Service interface {
	Register(ctx context.Context, role jwt.Role, username, name, password string) (string, error)
}

// Handler обрабатывает POST /api/admin/credentials.
type Handler struct {
	log      *slog.Logger
	svc      Service
	validate *validator.Validate
}

// New создаёт Handler.
func New(log *slog.Logger, svc Service) *Handler {
	return &Handler{
		log:      log,
		svc:      svc,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Выдать учётные данные
// @Description Доступно только администратору. Пароль сохраняется в виде bcrypt-хеша.
// @Tags Admin
// @Accept  json
// @Produce  json
// @Param request body Request true "Учётные данные"
// @Success 201 {object} response.Response "Учётная запись создана"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 401 {object} response.ErrorResponse "Нет сессии администратора"
// @Failure 409 {object} response.ErrorResponse "Логин занят"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /api/admin/credentials [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.credentials"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)
	if claims, ok := middlewarectx.ClaimsFromContext(r.Context()); ok {
		log = log.With(slog.String("admin", claims.Username))
	}

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		log.Info("validation failed", sl.Err(err))
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	id, err := h.svc.Register(r.Context(), jwt.Role(req.Role), req.Username, req.Name, req.Password)
	if errors.Is(err, storage.ErrAccountExists) {
		log.Info("username already taken", slog.String("role", req.Role), slog.String("username", req.Username))
		render.Status(r, http.StatusConflict)
		render.JSON(w, r, response.Error("username already exists"))
		return
	}
	if err != nil {
		log.Error("failed to create credentials", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to create credentials"))
		return
	}

	log.Info("credentials created", slog.String("role", req.Role), slog.String("username", req.Username))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.OKWithData(map[string]any{
		"id":       id,
		"role":     req.Role,
		"username": req.Username,
	}))
}
