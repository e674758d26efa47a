// Package services содержит джобу обслуживания жизненного цикла подписок:
// перевод истёкших пробных периодов в active/expired и гашение просроченных
// активных подписок с синхронизацией зеркала на записи пользователя.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mindwellhq/mindwell-backend/internal/config"
	"github.com/mindwellhq/mindwell-backend/internal/lib/plan"
	"github.com/mindwellhq/mindwell-backend/internal/lib/sl"
	"github.com/mindwellhq/mindwell-backend/internal/metrics"
	"github.com/mindwellhq/mindwell-backend/internal/models"
)

// SubscriptionRepository определяет методы хранилища, нужные джобе.
type SubscriptionRepository interface {
	// ListDueTrials возвращает подписки в статусе trialing с истёкшим пробным периодом.
	ListDueTrials(ctx context.Context, now time.Time, limit int) ([]*models.Subscription, error)
	// ListLapsedActive возвращает активные подписки с истёкшим сроком.
	ListLapsedActive(ctx context.Context, now time.Time, limit int) ([]*models.Subscription, error)
	// UpdateSubscriptionState записывает новый статус и тайминги подписки.
	UpdateSubscriptionState(ctx context.Context, sub *models.Subscription) error
	// UpdateMirror записывает зеркало подписки на запись пользователя.
	UpdateMirror(ctx context.Context, userUID string, m models.Mirror) error
}

// Cache описывает инвалидацию кешированного статуса подписки.
type Cache interface {
	Invalidate(key string) error
}

// MaintenanceService выполняет периодический проход по подпискам.
type MaintenanceService struct {
	repo      SubscriptionRepository
	cache     Cache
	log       *slog.Logger
	interval  time.Duration
	batchSize int
	trialDays int
}

// NewMaintenanceService создает новый экземпляр MaintenanceService.
func NewMaintenanceService(repo SubscriptionRepository, cache Cache, log *slog.Logger, cfg config.Maintenance) *MaintenanceService {
	return &MaintenanceService{
		repo:      repo,
		cache:     cache,
		log:       log,
		interval:  cfg.Interval,
		batchSize: cfg.BatchSize,
		trialDays: cfg.TrialDays,
	}
}

// StartRecurring запускает проход немедленно, затем повторяет его с настроенным
// интервалом до отмены контекста. Ошибка одного тика не отменяет следующие.
func (s *MaintenanceService) StartRecurring(ctx context.Context) {
	s.RunOnce(ctx, time.Now().UTC())

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.RunOnce(ctx, now.UTC())
		}
	}
}

// RunOnce выполняет один проход обслуживания: сначала пробные периоды,
// затем просроченные активные подписки. Любая ошибка логируется здесь
// и не доходит до вызывающей стороны.
func (s *MaintenanceService) RunOnce(ctx context.Context, now time.Time) {
	s.log.Info("starting subscription maintenance pass")

	if err := s.processDueTrials(ctx, now); err != nil {
		s.log.Error("maintenance pass aborted", sl.Err(err))
		return
	}
	if err := s.processLapsed(ctx, now); err != nil {
		s.log.Error("lapsed expiry aborted", sl.Err(err))
	}
}

// processDueTrials переводит подписки с истёкшим пробным периодом
// в active (пробный период завершён без отмены) или expired (подписчик отказался).
func (s *MaintenanceService) processDueTrials(ctx context.Context, now time.Time) error {
	const op = "maintenance.processDueTrials"

	subs, err := s.repo.ListDueTrials(ctx, now, s.batchSize)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if len(subs) == 0 {
		s.log.Info("no due trials found")
		return nil
	}
	s.log.Info("found due trials", slog.Int("count", len(subs)))

	for _, sub := range subs {
		if sub.Cancelled() {
			err = s.expireTrial(ctx, sub, now)
		} else {
			err = s.activateTrial(ctx, sub, now)
		}
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}
	return nil
}

// expireTrial гасит отменённую пробную подписку и переводит зеркало на free.
func (s *MaintenanceService) expireTrial(ctx context.Context, sub *models.Subscription, now time.Time) error {
	expiresAt := now
	if sub.TrialEndsAt != nil {
		expiresAt = *sub.TrialEndsAt
	}

	sub.Status = models.StatusExpired
	sub.AutoRenew = false
	sub.ExpiresAt = &expiresAt

	// Сначала каноническая запись, затем зеркало; между записями нет
	// транзакции — рассинхрон чинится следующим тиком.
	if err := s.repo.UpdateSubscriptionState(ctx, sub); err != nil {
		return err
	}
	mirror := models.Mirror{
		IsActive:       false,
		Tier:           models.TierFree,
		PlanID:         sub.PlanID,
		SubscriptionID: &sub.ID,
		ExpiresAt:      &expiresAt,
		TrialUsed:      true,
	}
	if err := s.repo.UpdateMirror(ctx, sub.UserUID, mirror); err != nil {
		return err
	}
	s.invalidateStatus(sub.UserUID)

	metrics.SubscriptionTransitions.WithLabelValues(metrics.TransitionTrialExpired).Inc()
	s.log.Info("trial expired", slog.String("subscription_id", sub.ID))
	return nil
}

// activateTrial активирует подписку после завершённого пробного периода.
func (s *MaintenanceService) activateTrial(ctx context.Context, sub *models.Subscription, now time.Time) error {
	expiresAt := now.Add(plan.Duration(sub.PlanID, s.trialDays))
	startedAt := now
	if sub.TrialStartsAt != nil {
		startedAt = *sub.TrialStartsAt
	}
	activatedAt := now

	sub.Status = models.StatusActive
	sub.ActivatedAt = &activatedAt
	sub.StartedAt = &startedAt
	sub.ExpiresAt = &expiresAt

	if err := s.repo.UpdateSubscriptionState(ctx, sub); err != nil {
		return err
	}
	mirror := models.Mirror{
		IsActive:       true,
		Tier:           models.TierPremium,
		PlanID:         sub.PlanID,
		SubscriptionID: &sub.ID,
		ExpiresAt:      &expiresAt,
		TrialUsed:      true,
	}
	if err := s.repo.UpdateMirror(ctx, sub.UserUID, mirror); err != nil {
		return err
	}
	s.invalidateStatus(sub.UserUID)

	metrics.SubscriptionTransitions.WithLabelValues(metrics.TransitionTrialActivated).Inc()
	s.log.Info("trial activated", slog.String("subscription_id", sub.ID),
		slog.String("plan_id", sub.PlanID))
	return nil
}

// processLapsed гасит активные подписки, срок которых истёк.
func (s *MaintenanceService) processLapsed(ctx context.Context, now time.Time) error {
	const op = "maintenance.processLapsed"

	subs, err := s.repo.ListLapsedActive(ctx, now, s.batchSize)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if len(subs) == 0 {
		s.log.Info("no lapsed subscriptions found")
		return nil
	}
	s.log.Info("found lapsed subscriptions", slog.Int("count", len(subs)))

	for _, sub := range subs {
		sub.Status = models.StatusExpired
		sub.AutoRenew = false

		if err := s.repo.UpdateSubscriptionState(ctx, sub); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		mirror := models.Mirror{
			IsActive:       false,
			Tier:           models.TierFree,
			PlanID:         sub.PlanID,
			SubscriptionID: &sub.ID,
			ExpiresAt:      sub.ExpiresAt,
			TrialUsed:      true,
		}
		if err := s.repo.UpdateMirror(ctx, sub.UserUID, mirror); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		s.invalidateStatus(sub.UserUID)

		metrics.SubscriptionTransitions.WithLabelValues(metrics.TransitionLapsed).Inc()
		s.log.Info("subscription lapsed", slog.String("subscription_id", sub.ID))
	}
	return nil
}

// invalidateStatus сбрасывает кешированный статус подписки пользователя.
func (s *MaintenanceService) invalidateStatus(userUID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate("substatus:" + userUID); err != nil {
		s.log.Warn("failed to invalidate status cache", slog.String("user_uid", userUID), sl.Err(err))
	}
}
