// Package chathistory реализует HTTP-обработчик чтения истории чат-сессии.
package chathistory

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/mindwellhq/mindwell-backend/internal/http/middlewarectx"
	"github.com/mindwellhq/mindwell-backend/internal/http/response"
	"github.com/mindwellhq/mindwell-backend/internal/lib/sl"
	"github.com/mindwellhq/mindwell-backend/internal/models"
	chatservice "github.com/mindwellhq/mindwell-backend/internal/services/chat"
)

// Предел сообщений по умолчанию и максимум за один запрос.
const (
	defaultLimit = 50
	maxLimit     = 200
)

// Handler обрабатывает HTTP-запросы чтения истории.
type Handler struct {
	log     *slog.Logger // Логгер для записи информации и ошибок
	service Service      // Сервис бизнес-логики чата
}

// Service описывает интерфейс бизнес-логики чтения истории.
type Service interface {
	History(ctx context.Context, userUID, sessionID string, limit int) ([]*models.ChatMessage, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary История чат-сессии
// @Description Возвращает сообщения сессии в хронологическом порядке.
// @Tags Chat
// @Produce  json
// @Security BearerAuth
// @Param session_id path string true "Идентификатор сессии"
// @Param limit query int false "Максимум сообщений (по умолчанию 50)"
// @Success 200 {object} map[string]any "Сообщения сессии"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 404 {object} response.ErrorResponse "Сессия не найдена"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /chat/sessions/{session_id}/messages [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.chat.history"
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
	limit := defaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			log.Error("invalid limit query parameter")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error("invalid limit"))
			return
		}
		limit = parsed
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	messages, err := h.service.History(r.Context(), userUID, sessionID, limit)
	if err != nil {
		if errors.Is(err, chatservice.ErrSessionNotFound) || errors.Is(err, chatservice.ErrForeignSession) {
			log.Error("session not found", sl.Err(err))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("session not found"))
			return
		}
		log.Error("failed to read history", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not read history"))
		return
	}

	log.Info("history read", slog.String("session_id", sessionID), slog.Int("count", len(messages)))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"messages": messages,
	}))
}
