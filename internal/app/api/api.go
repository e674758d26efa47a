// Package api собирает HTTP-приложение: хранилище, кеш, сервисы,
// лимитеры и маршруты.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"

	"github.com/mindwellhq/mindwell-backend/internal/aiclient"
	"github.com/mindwellhq/mindwell-backend/internal/cache"
	"github.com/mindwellhq/mindwell-backend/internal/config"
	"github.com/mindwellhq/mindwell-backend/internal/lib/jwt"
	"github.com/mindwellhq/mindwell-backend/internal/migrations"
	"github.com/mindwellhq/mindwell-backend/internal/ratelimit"
	authservice "github.com/mindwellhq/mindwell-backend/internal/services/auth"
	chatservice "github.com/mindwellhq/mindwell-backend/internal/services/chat"
	profileservice "github.com/mindwellhq/mindwell-backend/internal/services/profile"
	subscriptionservice "github.com/mindwellhq/mindwell-backend/internal/services/subscription"
	"github.com/mindwellhq/mindwell-backend/internal/storage/repository"
)

// App представляет HTTP-приложение.
type App struct {
	server *http.Server
	logger *slog.Logger
	db     *repository.Storage
	cache  *cache.Cache
}

// New создает новый экземпляр HTTP-приложения.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}
	if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		return nil, err
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		return nil, err
	}

	jwtMaker := jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL)
	authService := authservice.NewAuthService(db, jwtMaker, cfg.Maintenance.TrialDays)

	companion := aiclient.NewClient(cfg.CompanionURL, cfg.CompanionKey,
		cfg.CompanionTimeout, cfg.CompanionRPS)

	chatService := chatservice.NewChatService(db, db, companion, logger)
	subscriptionService := subscriptionservice.NewSubscriptionService(db, cacheRedis, logger)
	profileService := profileservice.NewProfileService(db)

	limiters := Limiters{
		General: ratelimit.New(cfg.RateLimits.General.Window, cfg.RateLimits.General.Max),
		Chat:    ratelimit.New(cfg.RateLimits.Chat.Window, cfg.RateLimits.Chat.Max),
		Auth:    ratelimit.New(cfg.RateLimits.Auth.Window, cfg.RateLimits.Auth.Max),
	}
	limiters.General.StartSweeper(ctx, ratelimit.SweepInterval)
	limiters.Chat.StartSweeper(ctx, ratelimit.SweepInterval)
	limiters.Auth.StartSweeper(ctx, ratelimit.SweepInterval)

	router := chi.NewRouter()
	RegisterRoutes(router, logger, Services{
		Auth:         authService,
		Chat:         chatService,
		Subscription: subscriptionService,
		Profile:      profileService,
		History:      db,
	}, limiters)

	srv := &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &App{
		server: srv,
		logger: logger,
		db:     db,
		cache:  cacheRedis,
	}, nil
}

// Run запускает HTTP-сервер и останавливает его при отмене контекста.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		if closeErr := a.db.DB.Close(); closeErr != nil {
			a.logger.Error("failed to close database", slog.Any("err", closeErr))
		}
		return err
	}
}
