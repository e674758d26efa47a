// Package chatsend реализует HTTP-обработчик отправки сообщения
// в чат-сессию. Ответ компаньона возвращается синхронно.
package chatsend

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/mindwellhq/mindwell-backend/internal/aiclient"
	"github.com/mindwellhq/mindwell-backend/internal/http/middlewarectx"
	"github.com/mindwellhq/mindwell-backend/internal/http/response"
	"github.com/mindwellhq/mindwell-backend/internal/lib/sl"
	"github.com/mindwellhq/mindwell-backend/internal/models"
	chatservice "github.com/mindwellhq/mindwell-backend/internal/services/chat"
)

// Handler обрабатывает HTTP-запросы отправки сообщения.
type Handler struct {
	log      *slog.Logger        // Логгер для записи информации и ошибок
	service  Service             // Сервис бизнес-логики чата
	validate *validator.Validate // Валидатор структуры входящих данных
}

// Service описывает интерфейс бизнес-логики отправки сообщения.
type Service interface {
	SendMessage(ctx context.Context, userUID, tier, sessionID, content string) (string, error)
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
// @Summary Отправить сообщение компаньону
// @Description Сохраняет сообщение пользователя и возвращает ответ компаньона.
// @Tags Chat
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param request body models.DummySend true "Сообщение пользователя"
// @Success 200 {object} map[string]any "Ответ компаньона"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 404 {object} response.ErrorResponse "Сессия не найдена"
// @Failure 409 {object} response.ErrorResponse "Сессия уже закрыта"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 503 {object} response.ErrorResponse "Сервис генерации недоступен"
// @Router /chat/messages [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.chat.send"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.DummySend
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
	tier, _ := r.Context().Value(middlewarectx.Tier).(string)

	reply, err := h.service.SendMessage(r.Context(), userUID, tier, req.SessionID, req.Content)
	if err != nil {
		switch {
		case errors.Is(err, chatservice.ErrSessionNotFound), errors.Is(err, chatservice.ErrForeignSession):
			log.Error("session not found", sl.Err(err))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("session not found"))
		case errors.Is(err, chatservice.ErrSessionClosed):
			log.Error("session already closed", sl.Err(err))
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error("session already closed"))
		case errors.Is(err, aiclient.ErrUnavailable):
			log.Error("companion unavailable", sl.Err(err))
			w.WriteHeader(http.StatusServiceUnavailable)
			render.JSON(w, r, response.Error("companion is temporarily unavailable"))
		default:
			log.Error("failed to send message", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("could not send message"))
		}
		return
	}

	log.Info("message sent", slog.String("session_id", req.SessionID))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"reply": reply,
	}))
}
