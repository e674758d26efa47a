// Package substatus реализует HTTP-обработчик чтения статуса подписки.
package substatus

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/mindwellhq/mindwell-backend/internal/http/middlewarectx"
	"github.com/mindwellhq/mindwell-backend/internal/http/response"
	"github.com/mindwellhq/mindwell-backend/internal/lib/sl"
	subscriptionservice "github.com/mindwellhq/mindwell-backend/internal/services/subscription"
)

// Handler обрабатывает HTTP-запросы статуса подписки.
type Handler struct {
	log     *slog.Logger // Логгер для записи информации и ошибок
	service Service      // Сервис бизнес-логики подписок
}

// Service описывает интерфейс чтения статуса подписки.
type Service interface {
	GetStatus(ctx context.Context, userUID string) (*subscriptionservice.Status, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Статус подписки
// @Description Возвращает текущий статус подписки пользователя (с кэшированием).
// @Tags Subscription
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} map[string]any "Статус подписки"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /subscription/status [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscription.status"
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

	status, err := h.service.GetStatus(r.Context(), userUID)
	if err != nil {
		log.Error("failed to get subscription status", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not get subscription status"))
		return
	}

	log.Info("subscription status read", slog.String("tier", status.Tier))
	render.JSON(w, r, response.OKWithData(status))
}
