package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/mindwellhq/mindwell-backend/internal/config"
	"github.com/mindwellhq/mindwell-backend/internal/models"
)

type RepoMock struct{ mock.Mock }

func (m *RepoMock) ListDueTrials(ctx context.Context, now time.Time, limit int) ([]*models.Subscription, error) {
	args := m.Called(ctx, now, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Subscription), args.Error(1)
}

func (m *RepoMock) ListLapsedActive(ctx context.Context, now time.Time, limit int) ([]*models.Subscription, error) {
	args := m.Called(ctx, now, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Subscription), args.Error(1)
}

func (m *RepoMock) UpdateSubscriptionState(ctx context.Context, sub *models.Subscription) error {
	return m.Called(ctx, sub).Error(0)
}

func (m *RepoMock) UpdateMirror(ctx context.Context, userUID string, mirror models.Mirror) error {
	return m.Called(ctx, userUID, mirror).Error(0)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func newService(repo *RepoMock) *MaintenanceService {
	return NewMaintenanceService(repo, nil, newNoopLogger(), config.Maintenance{
		Interval:  30 * time.Minute,
		BatchSize: 200,
		TrialDays: 7,
	})
}

func TestRunOnce_TrialCompletedBecomesActive(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	trialStart := now.AddDate(0, 0, -7)
	trialEnd := now.AddDate(0, 0, -1)

	sub := &models.Subscription{
		ID:            "sub-1",
		UserUID:       "uid-1",
		PlanID:        models.PlanMonthly,
		Status:        models.StatusTrialing,
		TrialStartsAt: &trialStart,
		TrialEndsAt:   &trialEnd,
		AutoRenew:     true,
	}

	repo := new(RepoMock)
	repo.On("ListDueTrials", mock.Anything, now, 200).
		Return([]*models.Subscription{sub}, nil).Once()
	repo.On("UpdateSubscriptionState", mock.Anything, mock.MatchedBy(func(s *models.Subscription) bool {
		return s.Status == models.StatusActive &&
			s.AutoRenew &&
			s.ExpiresAt != nil && s.ExpiresAt.Equal(now.Add(30*24*time.Hour)) &&
			s.ActivatedAt != nil && s.ActivatedAt.Equal(now) &&
			s.StartedAt != nil && s.StartedAt.Equal(trialStart)
	})).Return(nil).Once()
	repo.On("UpdateMirror", mock.Anything, "uid-1", mock.MatchedBy(func(m models.Mirror) bool {
		return m.IsActive &&
			m.Tier == models.TierPremium &&
			m.PlanID == models.PlanMonthly &&
			m.SubscriptionID != nil && *m.SubscriptionID == "sub-1" &&
			m.ExpiresAt != nil && m.ExpiresAt.Equal(now.Add(30*24*time.Hour)) &&
			!m.IsTrial && m.TrialEndsAt == nil && m.TrialUsed
	})).Return(nil).Once()
	repo.On("ListLapsedActive", mock.Anything, now, 200).
		Return([]*models.Subscription{}, nil).Once()

	newService(repo).RunOnce(context.Background(), now)

	repo.AssertExpectations(t)
}

func TestRunOnce_CancelledTrialExpires(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	trialEnd := now.AddDate(0, 0, -1)
	cancelledAt := now.AddDate(0, 0, -3)

	sub := &models.Subscription{
		ID:          "sub-2",
		UserUID:     "uid-2",
		PlanID:      models.PlanMonthly,
		Status:      models.StatusTrialing,
		TrialEndsAt: &trialEnd,
		AutoRenew:   true,
		CancelledAt: &cancelledAt,
	}

	repo := new(RepoMock)
	repo.On("ListDueTrials", mock.Anything, now, 200).
		Return([]*models.Subscription{sub}, nil).Once()
	repo.On("UpdateSubscriptionState", mock.Anything, mock.MatchedBy(func(s *models.Subscription) bool {
		return s.Status == models.StatusExpired &&
			!s.AutoRenew &&
			s.ExpiresAt != nil && s.ExpiresAt.Equal(trialEnd)
	})).Return(nil).Once()
	repo.On("UpdateMirror", mock.Anything, "uid-2", mock.MatchedBy(func(m models.Mirror) bool {
		return !m.IsActive &&
			m.Tier == models.TierFree &&
			m.ExpiresAt != nil && m.ExpiresAt.Equal(trialEnd) &&
			!m.IsTrial && m.TrialEndsAt == nil
	})).Return(nil).Once()
	repo.On("ListLapsedActive", mock.Anything, now, 200).
		Return([]*models.Subscription{}, nil).Once()

	newService(repo).RunOnce(context.Background(), now)

	repo.AssertExpectations(t)
}

func TestRunOnce_AutoRenewDisabledTrialExpires(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	trialEnd := now.Add(-time.Hour)

	sub := &models.Subscription{
		ID:          "sub-3",
		UserUID:     "uid-3",
		PlanID:      models.PlanAnnually,
		Status:      models.StatusTrialing,
		TrialEndsAt: &trialEnd,
		AutoRenew:   false,
	}

	repo := new(RepoMock)
	repo.On("ListDueTrials", mock.Anything, now, 200).
		Return([]*models.Subscription{sub}, nil).Once()
	repo.On("UpdateSubscriptionState", mock.Anything, mock.MatchedBy(func(s *models.Subscription) bool {
		return s.Status == models.StatusExpired && !s.AutoRenew
	})).Return(nil).Once()
	repo.On("UpdateMirror", mock.Anything, "uid-3", mock.Anything).Return(nil).Once()
	repo.On("ListLapsedActive", mock.Anything, now, 200).
		Return([]*models.Subscription{}, nil).Once()

	newService(repo).RunOnce(context.Background(), now)

	repo.AssertExpectations(t)
}

func TestRunOnce_LapsedActiveExpires(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	expiresAt := now.AddDate(0, 0, -2)

	sub := &models.Subscription{
		ID:        "sub-4",
		UserUID:   "uid-4",
		PlanID:    models.PlanMonthly,
		Status:    models.StatusActive,
		ExpiresAt: &expiresAt,
		AutoRenew: true,
	}

	repo := new(RepoMock)
	repo.On("ListDueTrials", mock.Anything, now, 200).
		Return([]*models.Subscription{}, nil).Once()
	repo.On("ListLapsedActive", mock.Anything, now, 200).
		Return([]*models.Subscription{sub}, nil).Once()
	repo.On("UpdateSubscriptionState", mock.Anything, mock.MatchedBy(func(s *models.Subscription) bool {
		return s.Status == models.StatusExpired &&
			!s.AutoRenew &&
			s.ExpiresAt != nil && s.ExpiresAt.Equal(expiresAt)
	})).Return(nil).Once()
	repo.On("UpdateMirror", mock.Anything, "uid-4", mock.MatchedBy(func(m models.Mirror) bool {
		return !m.IsActive &&
			m.Tier == models.TierFree &&
			m.ExpiresAt != nil && m.ExpiresAt.Equal(expiresAt)
	})).Return(nil).Once()

	newService(repo).RunOnce(context.Background(), now)

	repo.AssertExpectations(t)
}

func TestRunOnce_SecondPassIsNoop(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	trialEnd := now.Add(-time.Hour)

	sub := &models.Subscription{
		ID:          "sub-5",
		UserUID:     "uid-5",
		PlanID:      models.PlanMonthly,
		Status:      models.StatusTrialing,
		TrialEndsAt: &trialEnd,
		AutoRenew:   true,
	}

	repo := new(RepoMock)
	// Первый проход видит подписку, второй — уже нет: все due-записи обработаны.
	repo.On("ListDueTrials", mock.Anything, now, 200).
		Return([]*models.Subscription{sub}, nil).Once()
	repo.On("ListDueTrials", mock.Anything, now, 200).
		Return([]*models.Subscription{}, nil).Once()
	repo.On("ListLapsedActive", mock.Anything, now, 200).
		Return([]*models.Subscription{}, nil).Twice()
	repo.On("UpdateSubscriptionState", mock.Anything, mock.Anything).Return(nil).Once()
	repo.On("UpdateMirror", mock.Anything, "uid-5", mock.Anything).Return(nil).Once()

	svc := newService(repo)
	svc.RunOnce(context.Background(), now)
	svc.RunOnce(context.Background(), now)

	repo.AssertExpectations(t)
}

func TestRunOnce_RepoErrorDoesNotPropagate(t *testing.T) {
	now := time.Now().UTC()

	repo := new(RepoMock)
	repo.On("ListDueTrials", mock.Anything, now, 200).
		Return(nil, errors.New("db down")).Once()

	// Не должно паниковать и не должно дойти до второго шага.
	newService(repo).RunOnce(context.Background(), now)

	repo.AssertExpectations(t)
	repo.AssertNotCalled(t, "ListLapsedActive", mock.Anything, mock.Anything, mock.Anything)
}

func TestRunOnce_UnknownPlanFallsBackToMonth(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	trialEnd := now.Add(-time.Minute)

	sub := &models.Subscription{
		ID:          "sub-6",
		UserUID:     "uid-6",
		PlanID:      "lifetime",
		Status:      models.StatusTrialing,
		TrialEndsAt: &trialEnd,
		AutoRenew:   true,
	}

	repo := new(RepoMock)
	repo.On("ListDueTrials", mock.Anything, now, 200).
		Return([]*models.Subscription{sub}, nil).Once()
	repo.On("UpdateSubscriptionState", mock.Anything, mock.MatchedBy(func(s *models.Subscription) bool {
		return s.ExpiresAt != nil && s.ExpiresAt.Equal(now.Add(30*24*time.Hour))
	})).Return(nil).Once()
	repo.On("UpdateMirror", mock.Anything, "uid-6", mock.Anything).Return(nil).Once()
	repo.On("ListLapsedActive", mock.Anything, now, 200).
		Return([]*models.Subscription{}, nil).Once()

	newService(repo).RunOnce(context.Background(), now)

	repo.AssertExpectations(t)
}

func TestNewMaintenanceService_Defaults(t *testing.T) {
	svc := NewMaintenanceService(new(RepoMock), nil, newNoopLogger(), config.Maintenance{
		Interval:  time.Minute,
		BatchSize: 10,
		TrialDays: 14,
	})
	assert.Equal(t, 10, svc.batchSize)
	assert.Equal(t, 14, svc.trialDays)
}
