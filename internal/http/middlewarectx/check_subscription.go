package middlewarectx

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"github.com/mindwellhq/mindwell-backend/internal/http/response"
	"github.com/mindwellhq/mindwell-backend/internal/lib/sl"
	subscriptionservice "github.com/mindwellhq/mindwell-backend/internal/services/subscription"
)

// StatusService описывает чтение статуса подписки пользователя.
type StatusService interface {
	GetStatus(ctx context.Context, userUID string) (*subscriptionservice.Status, error)
}

// SubscriptionStatusMiddleware создает middleware, подкладывающее уровень
// доступа пользователя в контекст запроса. Доступ не блокируется: free-тарифу
// доступен тот же API, уровень влияет только на параметры генерации.
func SubscriptionStatusMiddleware(statusService StatusService, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.SubscriptionStatusMiddleware"

			userUID, ok := r.Context().Value(UserUID).(string)
			if !ok || userUID == "" {
				log.Error("user identification missing", slog.String("op", op))
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("user identification missing"))
				return
			}

			status, err := statusService.GetStatus(r.Context(), userUID)
			if err != nil {
				log.Error("failed to get subscription status", slog.String("op", op), sl.Err(err))
				render.Status(r, http.StatusInternalServerError)
				render.JSON(w, r, response.Error("internal service error"))
				return
			}

			ctx := context.WithValue(r.Context(), Tier, status.Tier)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
