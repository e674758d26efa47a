// Package chatstart реализует HTTP-обработчик открытия чат-сессии
// с ИИ-компаньоном.
package chatstart

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/mindwellhq/mindwell-backend/internal/http/middlewarectx"
	"github.com/mindwellhq/mindwell-backend/internal/http/response"
	"github.com/mindwellhq/mindwell-backend/internal/lib/sl"
)

// Handler обрабатывает HTTP-запросы открытия сессии.
type Handler struct {
	log     *slog.Logger // Логгер для записи информации и ошибок
	service Service      // Сервис бизнес-логики чата
}

// Service описывает интерфейс бизнес-логики открытия сессии.
type Service interface {
	StartSession(ctx context.Context, userUID string) (string, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Открыть чат-сессию
// @Description Открывает новую сессию общения с компаньоном и возвращает её идентификатор.
// @Tags Chat
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} map[string]any "Сессия открыта"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /chat/sessions [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.chat.start"
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

	sessionID, err := h.service.StartSession(r.Context(), userUID)
	if err != nil {
		log.Error("failed to start session", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not start session"))
		return
	}

	log.Info("session started", slog.String("session_id", sessionID))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"session_id": sessionID,
	}))
}
