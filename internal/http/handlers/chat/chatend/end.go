// Package chatend реализует HTTP-обработчик закрытия чат-сессии.
package chatend

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/mindwellhq/mindwell-backend/internal/http/middlewarectx"
	"github.com/mindwellhq/mindwell-backend/internal/http/response"
	"github.com/mindwellhq/mindwell-backend/internal/lib/sl"
	chatservice "github.com/mindwellhq/mindwell-backend/internal/services/chat"
)

// Handler обрабатывает HTTP-запросы закрытия сессии.
type Handler struct {
	log     *slog.Logger // Логгер для записи информации и ошибок
	service Service      // Сервис бизнес-логики чата
}

// Service описывает интерфейс бизнес-логики закрытия сессии.
type Service interface {
	EndSession(ctx context.Context, userUID, sessionID string) error
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Закрыть чат-сессию
// @Description Закрывает сессию, фиксируя её длительность для анализа.
// @Tags Chat
// @Produce  json
// @Security BearerAuth
// @Param session_id path string true "Идентификатор сессии"
// @Success 200 {object} map[string]any "Сессия закрыта"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 404 {object} response.ErrorResponse "Сессия не найдена"
// @Failure 409 {object} response.ErrorResponse "Сессия уже закрыта"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /chat/sessions/{session_id} [delete]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.chat.end"
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
	sessionID := chi.URLParam(r, "session_id")

	if err := h.service.EndSession(r.Context(), userUID, sessionID); err != nil {
		switch {
		case errors.Is(err, chatservice.ErrSessionNotFound), errors.Is(err, chatservice.ErrForeignSession):
			log.Error("session not found", sl.Err(err))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("session not found"))
		case errors.Is(err, chatservice.ErrSessionClosed):
			log.Error("session already closed", sl.Err(err))
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error("session already closed"))
		default:
			log.Error("failed to end session", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("could not end session"))
		}
		return
	}

	log.Info("session ended", slog.String("session_id", sessionID))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"session_id": sessionID,
		"message":    "session closed",
	}))
}
