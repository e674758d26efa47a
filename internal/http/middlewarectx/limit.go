package middlewarectx

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/render"

	"github.com/mindwellhq/mindwell-backend/internal/http/response"
	"github.com/mindwellhq/mindwell-backend/internal/metrics"
	"github.com/mindwellhq/mindwell-backend/internal/ratelimit"
)

// anonymousKey используется, когда запрос не удалось связать ни с каким
// идентификатором.
const anonymousKey = "anonymous"

// Предел чтения тела при поиске объявленного клиентом идентификатора.
const peekBodyLimit = 64 << 10

// RateLimitMiddleware возвращает middleware контроля допуска для заданного
// лимитера. Ключ запроса: uid аутентифицированного пользователя, иначе
// объявленный в теле user_id, иначе сетевой адрес клиента, иначе общий
// анонимный ключ. Допущенный запрос получает заголовки с остатком квоты,
// отклонённый — 429 с телом {error, retryAfter, limit, windowMs}.
func RateLimitMiddleware(limiter *ratelimit.Limiter, scope string, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := requestKey(r)
			decision := limiter.Check(key, time.Now().UTC())

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(decision.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(decision.ResetAt.Unix(), 10))

			if !decision.Allowed {
				log.Warn("request rejected by rate limiter",
					slog.String("scope", scope), slog.String("key", key))
				metrics.RateLimitRejections.WithLabelValues(scope).Inc()

				retryAfter := int(decision.RetryAfter.Seconds() + 0.999)
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				render.Status(r, http.StatusTooManyRequests)
				render.JSON(w, r, response.RateLimitResponse{
					Error:      "too many requests",
					RetryAfter: retryAfter,
					Limit:      decision.Limit,
					WindowMs:   limiter.Window().Milliseconds(),
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// requestKey выбирает идентификатор запроса для лимитера.
func requestKey(r *http.Request) string {
	if uid, ok := r.Context().Value(UserUID).(string); ok && uid != "" {
		return uid
	}
	if declared := declaredUserID(r); declared != "" {
		return declared
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil && host != "" {
		return host
	}
	if r.RemoteAddr != "" {
		return r.RemoteAddr
	}
	return anonymousKey
}

// declaredUserID подсматривает user_id в JSON-теле запроса, возвращая тело
// на место для последующего чтения обработчиком. Слишком большие тела
// не разбираются.
func declaredUserID(r *http.Request) string {
	if r.Body == nil || r.ContentLength <= 0 || r.ContentLength > peekBodyLimit {
		return ""
	}
	body, err := io.ReadAll(r.Body)
	_ = r.Body.Close()
	r.Body = io.NopCloser(bytes.NewReader(body))
	if err != nil {
		return ""
	}

	var declared struct {
		UserID string `json:"user_id"`
	}
	if err := json.Unmarshal(body, &declared); err != nil {
		return ""
	}
	return declared.UserID
}
