// Package profileget реализует HTTP-обработчик чтения профиля предпочтений.
package profileget

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/mindwellhq/mindwell-backend/internal/http/middlewarectx"
	"github.com/mindwellhq/mindwell-backend/internal/http/response"
	"github.com/mindwellhq/mindwell-backend/internal/lib/sl"
	"github.com/mindwellhq/mindwell-backend/internal/models"
)

// Handler обрабатывает HTTP-запросы чтения профиля.
type Handler struct {
	log     *slog.Logger // Логгер для записи информации и ошибок
	service Service      // Сервис бизнес-логики профилей
}

// Service описывает интерфейс чтения профиля предпочтений.
type Service interface {
	Get(ctx context.Context, userUID string) (*models.Profile, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Профиль предпочтений
// @Description Возвращает профиль предпочтений пользователя. Для нового пользователя возвращаются значения по умолчанию.
// @Tags Profile
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} map[string]any "Профиль предпочтений"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /profile [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.profile.get"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	userUID, ok := r.Context().Value(middlewarectx.UserUID).(string)
	if !ok || userUID == "" {
		log.Error("user uid not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	profile, err := h.service.Get(r.Context(), userUID)
	if err != nil {
		log.Error("failed to get profile", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not get profile"))
		return
	}

	log.Info("profile read")
	render.JSON(w, r, response.OKWithData(profile))
}
