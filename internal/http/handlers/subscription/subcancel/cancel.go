// Package subcancel реализует HTTP-обработчик отмены подписки.
package subcancel

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/mindwellhq/mindwell-backend/internal/http/middlewarectx"
	"github.com/mindwellhq/mindwell-backend/internal/http/response"
	"github.com/mindwellhq/mindwell-backend/internal/lib/sl"
	subscriptionservice "github.com/mindwellhq/mindwell-backend/internal/services/subscription"
)

// Handler обрабатывает HTTP-запросы отмены подписки.
type Handler struct {
	log     *slog.Logger // Логгер для записи информации и ошибок
	service Service      // Сервис бизнес-логики подписок
}

// Service описывает интерфейс отмены подписки.
type Service interface {
	Cancel(ctx context.Context, userUID string) error
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Отменить подписку
// @Description Отменяет текущую подписку пользователя. Доступ сохраняется до конца оплаченного периода.
// @Tags Subscription
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} map[string]any "Подписка отменена"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 409 {object} response.ErrorResponse "Активная подписка отсутствует"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /subscription [delete]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscription.cancel"
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

	if err := h.service.Cancel(r.Context(), userUID); err != nil {
		if errors.Is(err, subscriptionservice.ErrNoActiveSubscription) {
			log.Error("no active subscription", sl.Err(err))
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error("no active subscription"))
			return
		}
		log.Error("failed to cancel subscription", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not cancel subscription"))
		return
	}

	log.Info("subscription cancelled")
	render.JSON(w, r, response.OKWithData(map[string]any{
		"message": "subscription cancelled",
	}))
}
