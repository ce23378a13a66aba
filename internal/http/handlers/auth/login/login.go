// Package login реализует HTTP-обработчик входа в семейство ролей.
//
// Обработчик проверяет JSON с логином и паролем, передаёт их в сервис
// аутентификации и при успехе ставит cookie сессии семейства. Для admin и
// ambassador вход возможен только после подтверждения кода доступа.
package login

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/community-portal/internal/family"
	"github.com/magabrotheeeer/community-portal/internal/http/middlewarectx"
	"github.com/magabrotheeeer/community-portal/internal/http/response"
	"github.com/magabrotheeeer/community-portal/internal/lib/sl"
	services "github.com/magabrotheeeer/community-portal/internal/services/auth"
)

// Request — учётные данные для входа.
type Request struct {
	Username string `json:"username" validate:"required,max=100"`
	Password string `json:"password" validate:"required,max=72"`
}

// Service описывает вход по логину и паролю.
type Service interface {
	Login(ctx context.Context, fam family.Family, username, password string) (string, error)
}

// Handler обрабатывает POST /api/{family}/login.
type Handler struct {
	log      *slog.Logger
	svc      Service
	verifier middlewarectx.TokenVerifier
	fam      family.Family
	secure   bool
	validate *validator.Validate
}

// New создаёт обработчик входа для семейства fam.
// verifier проверяет отметку о коде доступа у семейств, которым она нужна.
func New(log *slog.Logger, svc Service, verifier middlewarectx.TokenVerifier, fam family.Family, secure bool) *Handler {
	return &Handler{
		log:      log,
		svc:      svc,
		verifier: verifier,
		fam:      fam,
		secure:   secure,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Вход в семейство ролей
// @Description Проверяет логин и пароль, ставит HttpOnly cookie сессии семейства.
// @Tags Auth
// @Accept  json
// @Produce  json
// @Param family path string true "admin, mentor или ambassador"
// @Param request body Request true "Учётные данные"
// @Success 200 {object} response.Response "Успешный вход"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 401 {object} response.ErrorResponse "Неверные учётные данные"
// @Failure 403 {object} response.ErrorResponse "Код доступа не подтверждён"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 429 {object} response.ErrorResponse "Слишком много попыток"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /api/{family}/login [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.login"

	log := h.log.With(
		slog.String("op", op),
		slog.String("family", h.fam.Name()),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	if err := middlewarectx.CheckPreAuth(r, h.fam, h.verifier); err != nil {
		log.Info("login attempt without verified access code", sl.Err(err))
		render.Status(r, http.StatusForbidden)
		render.JSON(w, r, response.Error("access code is not verified"))
		return
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

	token, err := h.svc.Login(r.Context(), h.fam, req.Username, req.Password)
	switch {
	case errors.Is(err, services.ErrInvalidCredentials):
		log.Info("invalid credentials", slog.String("username", req.Username))
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Error("invalid credentials"))
		return
	case errors.Is(err, services.ErrTooManyAttempts):
		log.Warn("login throttled", slog.String("username", req.Username))
		render.Status(r, http.StatusTooManyRequests)
		render.JSON(w, r, response.Error("too many login attempts"))
		return
	case err != nil:
		log.Error("login failed", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal error"))
		return
	}

	http.SetCookie(w, h.fam.SessionCookie(token, h.secure))
	log.Info("login success", slog.String("username", req.Username))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"role":     h.fam.Name(),
		"redirect": h.fam.DashboardPath,
	}))
}
