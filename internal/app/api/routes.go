// Package api предоставляет маршруты для основного приложения.
package api

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/mindwellhq/mindwell-backend/internal/http/handlers/auth/login"
	"github.com/mindwellhq/mindwell-backend/internal/http/handlers/auth/register"
	"github.com/mindwellhq/mindwell-backend/internal/http/handlers/chat/chatend"
	"github.com/mindwellhq/mindwell-backend/internal/http/handlers/chat/chathistory"
	"github.com/mindwellhq/mindwell-backend/internal/http/handlers/chat/chatsend"
	"github.com/mindwellhq/mindwell-backend/internal/http/handlers/chat/chatstart"
	"github.com/mindwellhq/mindwell-backend/internal/http/handlers/journal/journalcreate"
	"github.com/mindwellhq/mindwell-backend/internal/http/handlers/journal/journallist"
	"github.com/mindwellhq/mindwell-backend/internal/http/handlers/mood/moodcreate"
	"github.com/mindwellhq/mindwell-backend/internal/http/handlers/mood/moodlist"
	"github.com/mindwellhq/mindwell-backend/internal/http/handlers/profile/profileget"
	"github.com/mindwellhq/mindwell-backend/internal/http/handlers/profile/profileoverride"
	"github.com/mindwellhq/mindwell-backend/internal/http/handlers/subscription/subcancel"
	"github.com/mindwellhq/mindwell-backend/internal/http/handlers/subscription/substatus"
	"github.com/mindwellhq/mindwell-backend/internal/http/middlewarectx"
	"github.com/mindwellhq/mindwell-backend/internal/ratelimit"
	authservice "github.com/mindwellhq/mindwell-backend/internal/services/auth"
	chatservice "github.com/mindwellhq/mindwell-backend/internal/services/chat"
	profileservice "github.com/mindwellhq/mindwell-backend/internal/services/profile"
	subscriptionservice "github.com/mindwellhq/mindwell-backend/internal/services/subscription"
	"github.com/mindwellhq/mindwell-backend/internal/storage/repository"
)

// Services собирает сервисы, которые нужны обработчикам маршрутов.
type Services struct {
	Auth         *authservice.AuthService
	Chat         *chatservice.ChatService
	Subscription *subscriptionservice.SubscriptionService
	Profile      *profileservice.ProfileService
	History      *repository.Storage
}

// Limiters собирает лимитеры по группам маршрутов.
type Limiters struct {
	General *ratelimit.Limiter
	Chat    *ratelimit.Limiter
	Auth    *ratelimit.Limiter
}

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, svc Services, limiters Limiters) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)

	r.Route("/api/v1", func(r chi.Router) {
		// Открытые конечные точки со своим лимитером
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.RateLimitMiddleware(limiters.Auth, "auth", logger))
			r.Post("/register", register.New(logger, svc.Auth).ServeHTTP)
			r.Post("/login", login.New(logger, svc.Auth).ServeHTTP)
		})

		// Группа с JWT аутентификацией
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(svc.Auth, logger))
			r.Use(middlewarectx.SubscriptionStatusMiddleware(svc.Subscription, logger))

			// Чат-маршруты с отдельным лимитером
			r.Group(func(r chi.Router) {
				r.Use(middlewarectx.RateLimitMiddleware(limiters.Chat, "chat", logger))
				r.Post("/chat/sessions", chatstart.New(logger, svc.Chat).ServeHTTP)
				r.Post("/chat/messages", chatsend.New(logger, svc.Chat).ServeHTTP)
				r.Get("/chat/sessions/{session_id}/messages", chathistory.New(logger, svc.Chat).ServeHTTP)
				r.Delete("/chat/sessions/{session_id}", chatend.New(logger, svc.Chat).ServeHTTP)
			})

			// Остальные маршруты под общим лимитером
			r.Group(func(r chi.Router) {
				r.Use(middlewarectx.RateLimitMiddleware(limiters.General, "general", logger))
				r.Post("/journal", journalcreate.New(logger, svc.History).ServeHTTP)
				r.Get("/journal", journallist.New(logger, svc.History).ServeHTTP)
				r.Post("/mood", moodcreate.New(logger, svc.History).ServeHTTP)
				r.Get("/mood", moodlist.New(logger, svc.History).ServeHTTP)
				r.Get("/subscription/status", substatus.New(logger, svc.Subscription).ServeHTTP)
				r.Delete("/subscription", subcancel.New(logger, svc.Subscription).ServeHTTP)
				r.Get("/profile", profileget.New(logger, svc.Profile).ServeHTTP)
				r.Put("/profile/overrides", profileoverride.New(logger, svc.Profile).ServeHTTP)
			})
		})
	})

	r.Handle("/metrics", promhttp.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
