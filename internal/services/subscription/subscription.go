// Package services содержит пользовательскую поверхность подписки:
// чтение статуса из зеркала на записи пользователя и отмену подписки.
// Фактическое гашение отменённой подписки выполняет maintenance-джоба
// на следующем тике, статусная машина движется только вперёд.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mindwellhq/mindwell-backend/internal/lib/sl"
	"github.com/mindwellhq/mindwell-backend/internal/models"
)

// ErrNoActiveSubscription возвращается при отмене, когда у пользователя
// нет подписки в статусе trialing или active.
var ErrNoActiveSubscription = errors.New("no active subscription")

// Время жизни кешированного статуса подписки.
const statusCacheTTL = 5 * time.Minute

// SubscriptionRepository описывает операции хранилища для поверхности подписки.
type SubscriptionRepository interface {
	GetUserByUID(ctx context.Context, uid string) (*models.User, error)
	GetCurrentSubscription(ctx context.Context, userUID string) (*models.Subscription, error)
	CancelSubscription(ctx context.Context, id string, now time.Time) (int, error)
}

// Cache описывает кеш статуса подписки.
type Cache interface {
	Get(key string, result any) (bool, error)
	Set(key string, value any, expiration time.Duration) error
	Invalidate(key string) error
}

// Status — снимок состояния подписки пользователя для ответа API.
type Status struct {
	IsActive    bool       `json:"is_active"`
	Tier        string     `json:"tier"`
	PlanID      string     `json:"plan_id,omitempty"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
	IsTrial     bool       `json:"is_trial"`
	TrialEndsAt *time.Time `json:"trial_ends_at,omitempty"`
}

// SubscriptionService обслуживает запросы статуса и отмены подписки.
type SubscriptionService struct {
	repo  SubscriptionRepository
	cache Cache
	log   *slog.Logger
}

// NewSubscriptionService создает новый экземпляр SubscriptionService.
func NewSubscriptionService(repo SubscriptionRepository, cache Cache, log *slog.Logger) *SubscriptionService {
	return &SubscriptionService{
		repo:  repo,
		cache: cache,
		log:   log,
	}
}

// StatusCacheKey возвращает ключ кеша статуса для пользователя.
func StatusCacheKey(userUID string) string {
	return "substatus:" + userUID
}

// GetStatus возвращает статус подписки из кеша или зеркала пользователя.
// Недоступность кеша не ошибка: статус читается из базы.
func (s *SubscriptionService) GetStatus(ctx context.Context, userUID string) (*Status, error) {
	const op = "subscription.GetStatus"

	key := StatusCacheKey(userUID)
	if s.cache != nil {
		var cached Status
		found, err := s.cache.Get(key, &cached)
		if err != nil {
			s.log.Warn("status cache read failed", sl.Err(err))
		}
		if found {
			return &cached, nil
		}
	}

	user, err := s.repo.GetUserByUID(ctx, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	status := &Status{
		IsActive:    user.Mirror.IsActive,
		Tier:        user.Mirror.Tier,
		PlanID:      user.Mirror.PlanID,
		ExpiresAt:   user.Mirror.ExpiresAt,
		IsTrial:     user.Mirror.IsTrial,
		TrialEndsAt: user.Mirror.TrialEndsAt,
	}

	if s.cache != nil {
		if err := s.cache.Set(key, status, statusCacheTTL); err != nil {
			s.log.Warn("status cache write failed", sl.Err(err))
		}
	}
	return status, nil
}

// Cancel помечает текущую подписку пользователя отменённой: выставляет
// cancelled_at и выключает автопродление. Статус меняет maintenance-джоба.
func (s *SubscriptionService) Cancel(ctx context.Context, userUID string) error {
	const op = "subscription.Cancel"

	sub, err := s.repo.GetCurrentSubscription(ctx, userUID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	affected, err := s.repo.CancelSubscription(ctx, sub.ID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if affected == 0 {
		return fmt.Errorf("%s: %w", op, ErrNoActiveSubscription)
	}

	if s.cache != nil {
		if err := s.cache.Invalidate(StatusCacheKey(userUID)); err != nil {
			s.log.Warn("status cache invalidation failed", sl.Err(err))
		}
	}
	return nil
}
