// Package accesscode реализует проверку кода доступа перед входом admin и ambassador.
package accesscode

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/community-portal/internal/family"
	"github.com/magabrotheeeer/community-portal/internal/http/response"
	"github.com/magabrotheeeer/community-portal/internal/lib/sl"
	services "github.com/magabrotheeeer/community-portal/internal/services/auth"
)

// Request — код доступа семейства.
type Request struct {
	Code string `json:"code" validate:"required,max=128"`
}

// Service описывает проверку кода доступа. При верном коде возвращает
// подписанную отметку для cookie предварительного шага.
type Service interface {
	VerifyAccessCode(fam family.Family, code string) (string, error)
}

// Handler обрабатывает POST /api/{admin,ambassador}/verify-code.
type Handler struct {
	log      *slog.Logger
	svc      Service
	fam      family.Family
	secure   bool
	validate *validator.Validate
}

// New создаёт обработчик для семейства fam.
func New(log *slog.Logger, svc Service, fam family.Family, secure bool) *Handler {
	return &Handler{
		log:      log,
		svc:      svc,
		fam:      fam,
		secure:   secure,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Проверка кода доступа
// @Description При верном коде ставит короткоживущую cookie, открывающую страницу входа.
// @Tags Auth
// @Accept  json
// @Produce  json
// @Param family path string true "admin или ambassador"
// @Param request body Request true "Код доступа"
// @Success 200 {object} response.Response "Код подтверждён"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 401 {object} response.ErrorResponse "Неверный код"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Router /api/{family}/verify-code [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.accesscode"

	log := h.log.With(
		slog.String("op", op),
		slog.String("family", h.fam.Name()),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

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

	token, err := h.svc.VerifyAccessCode(h.fam, req.Code)
	if err != nil {
		if !errors.Is(err, services.ErrInvalidAccessCode) {
			log.Error("access code check failed", sl.Err(err))
		} else {
			log.Info("invalid access code")
		}
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Error("invalid access code"))
		return
	}

	http.SetCookie(w, h.fam.PreAuthSessionCookie(token, h.secure))
	log.Info("access code verified")
	render.JSON(w, r, response.OKWithData(map[string]any{
		"redirect": h.fam.LoginPath,
	}))
}
