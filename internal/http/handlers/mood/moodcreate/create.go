// Package moodcreate реализует HTTP-обработчик записи настроения.
package moodcreate

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

// Handler обрабатывает HTTP-запросы записи настроения.
type Handler struct {
	log      *slog.Logger        // Логгер для записи информации и ошибок
	service  Service             // Хранилище записей настроения
	validate *validator.Validate // Валидатор структуры входящих данных
}

// Service описывает интерфейс сохранения записи настроения.
// Ему напрямую удовлетворяет репозиторий хранилища.
type Service interface {
	CreateMoodEntry(ctx context.Context, entry models.MoodEntry) (int, error)
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
// @Summary Записать настроение
// @Description Сохраняет оценку настроения пользователя по шкале от 1 до 10.
// @Tags Mood
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param request body models.DummyMoodEntry true "Оценка настроения"
// @Success 200 {object} map[string]any "Запись сохранена"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /mood [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.mood.create"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.DummyMoodEntry
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

	id, err := h.service.CreateMoodEntry(r.Context(), models.MoodEntry{
		UserUID: userUID,
		Score:   req.Score,
		Note:    req.Note,
	})
	if err != nil {
		log.Error("failed to create mood entry", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not create mood entry"))
		return
	}

	log.Info("mood entry created", slog.Int("id", id))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"id": id,
	}))
}
