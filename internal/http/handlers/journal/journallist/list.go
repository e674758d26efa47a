// Package journallist реализует HTTP-обработчик чтения записей дневника.
package journallist

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/mindwellhq/mindwell-backend/internal/http/middlewarectx"
	"github.com/mindwellhq/mindwell-backend/internal/http/response"
	"github.com/mindwellhq/mindwell-backend/internal/lib/sl"
	"github.com/mindwellhq/mindwell-backend/internal/models"
)

// Период по умолчанию и пределы выборки.
const (
	defaultDays  = 30
	maxDays      = 365
	defaultLimit = 50
	maxLimit     = 200
)

// Handler обрабатывает HTTP-запросы чтения дневника.
type Handler struct {
	log     *slog.Logger // Логгер для записи информации и ошибок
	service Service      // Хранилище записей дневника
}

// Service описывает интерфейс выборки записей дневника.
// Ему напрямую удовлетворяет репозиторий хранилища.
type Service interface {
	ListJournalSince(ctx context.Context, userUID string, since time.Time, limit int) ([]*models.JournalEntry, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Список записей дневника
// @Description Возвращает записи дневника за указанный период (по умолчанию 30 дней).
// @Tags Journal
// @Produce  json
// @Security BearerAuth
// @Param days query int false "Период в днях (по умолчанию 30)"
// @Param limit query int false "Максимум записей (по умолчанию 50)"
// @Success 200 {object} map[string]any "Записи дневника"
// @Failure 400 {object} response.ErrorResponse "Некорректные параметры запроса"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /journal [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.journal.list"
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

	days, err := queryInt(r, "days", defaultDays, maxDays)
	if err != nil {
		log.Error("invalid days query parameter")
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid days"))
		return
	}
	limit, err := queryInt(r, "limit", defaultLimit, maxLimit)
	if err != nil {
		log.Error("invalid limit query parameter")
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid limit"))
		return
	}

	since := time.Now().AddDate(0, 0, -days)
	entries, err := h.service.ListJournalSince(r.Context(), userUID, since, limit)
	if err != nil {
		log.Error("failed to list journal entries", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not list journal entries"))
		return
	}

	log.Info("journal entries listed", slog.Int("count", len(entries)))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"entries": entries,
	}))
}

// queryInt читает положительный целочисленный параметр запроса
// с значением по умолчанию и верхней границей.
func queryInt(r *http.Request, name string, def, max int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil || parsed <= 0 {
		return 0, strconv.ErrSyntax
	}
	if parsed > max {
		return max, nil
	}
	return parsed, nil
}
