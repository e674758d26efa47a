// Package profileoverride реализует HTTP-обработчик явных предпочтений
// пользователя. Явные предпочтения имеют приоритет над выведенными.
package profileoverride

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/mindwellhq/mindwell-backend/internal/http/middlewarectx"
	"github.com/mindwellhq/mindwell-backend/internal/http/response"
	"github.com/mindwellhq/mindwell-backend/internal/lib/sl"
	"github.com/mindwellhq/mindwell-backend/internal/models"
)

// Handler обрабатывает HTTP-запросы установки явных предпочтений.
type Handler struct {
	log      *slog.Logger        // Логгер для записи информации и ошибок
	service  Service             // Сервис бизнес-логики профилей
	validate *validator.Validate // Валидатор структуры входящих данных
}

// Service описывает интерфейс установки явных предпочтений.
type Service interface {
	SetOverrides(ctx context.Context, userUID string, overrides models.DummyOverrides) (*models.Profile, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Установить явные предпочтения
// @Description Сохраняет явные предпочтения стиля общения и длины ответов. Пустое поле снимает ранее установленное предпочтение.
// @Tags Profile
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param request body models.DummyOverrides true "Явные предпочтения"
// @Success 200 {object} map[string]any "Обновленный профиль"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /profile/overrides [put]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.profile.override"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.DummyOverrides
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}
	log.Info("request body decoded")

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}
	log.Info("all fields are validated")

	userUID, ok := r.Context().Value(middlewarectx.UserUID).(string)
	if !ok || userUID == "" {
		log.Error("user uid not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	profile, err := h.service.SetOverrides(r.Context(), userUID, req)
	if err != nil {
		log.Error("failed to set overrides", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not set overrides"))
		return
	}

	log.Info("overrides updated")
	render.JSON(w, r, response.OKWithData(profile))
}
