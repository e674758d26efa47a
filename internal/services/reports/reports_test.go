package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/mindwellhq/mindwell-backend/internal/aiclient"
	"github.com/mindwellhq/mindwell-backend/internal/config"
	"github.com/mindwellhq/mindwell-backend/internal/models"
	"github.com/mindwellhq/mindwell-backend/internal/taskqueue"
)

type UsersMock struct{ mock.Mock }

func (m *UsersMock) ListActiveUsersSince(ctx context.Context, since time.Time, limit int) ([]*models.User, error) {
	args := m.Called(ctx, since, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.User), args.Error(1)
}

type AnalyzerMock struct{ mock.Mock }

func (m *AnalyzerMock) AnalyzePatterns(ctx context.Context, userUID string, windowDays int) []models.Pattern {
	args := m.Called(ctx, userUID, windowDays)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]models.Pattern)
}

func (m *AnalyzerMock) AnalyzeTimePatterns(ctx context.Context, userUID string, windowDays int) *models.TimeAnalysis {
	args := m.Called(ctx, userUID, windowDays)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(*models.TimeAnalysis)
}

func (m *AnalyzerMock) UpdateProfile(ctx context.Context, userUID string, patterns []models.Pattern, timeAnalysis *models.TimeAnalysis) error {
	return m.Called(ctx, userUID, patterns, timeAnalysis).Error(0)
}

type GeneratorMock struct{ mock.Mock }

func (m *GeneratorMock) Generate(ctx context.Context, req aiclient.GenerateRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

// PublisherMock собирает опубликованные отчёты; потокобезопасен,
// поскольку задачи очереди выполняются в отдельных горутинах.
type PublisherMock struct {
	mu       sync.Mutex
	messages []models.ReportMessage
	err      error
}

func (p *PublisherMock) PublishReport(msg models.ReportMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.messages = append(p.messages, msg)
	return nil
}

func (p *PublisherMock) Messages() []models.ReportMessage {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]models.ReportMessage(nil), p.messages...)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func premiumUser(uid, username, email string) *models.User {
	return &models.User{
		UID:      uid,
		Username: username,
		Email:    email,
		Mirror:   models.Mirror{Tier: models.TierPremium},
	}
}

func TestRunOnce_PublishesReportPerActiveUser(t *testing.T) {
	now := time.Date(2025, 6, 16, 9, 0, 0, 0, time.UTC)
	users := new(UsersMock)
	users.On("ListActiveUsersSince", mock.Anything, now.AddDate(0, 0, -7), maxReportUsers).
		Return([]*models.User{
			premiumUser("uid-1", "alice", "alice@example.com"),
			premiumUser("uid-2", "bob", "bob@example.com"),
		}, nil).Once()

	analyzer := new(AnalyzerMock)
	analyzer.On("AnalyzePatterns", mock.Anything, mock.Anything, reportWindowDays).Return(nil)
	analyzer.On("AnalyzeTimePatterns", mock.Anything, mock.Anything, reportWindowDays).
		Return(&models.TimeAnalysis{SampleSize: 4, MeanDurationMinutes: 12})
	analyzer.On("UpdateProfile", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	generator := new(GeneratorMock)
	generator.On("Generate", mock.Anything, mock.Anything).Return("your week was great", nil)

	publisher := &PublisherMock{}
	queue := taskqueue.New(context.Background(), 3, newNoopLogger())

	svc := NewReportsService(users, analyzer, generator, publisher, queue, newNoopLogger(),
		config.Reports{ReportWeekday: 1, ReportHour: 9})

	svc.RunOnce(context.Background(), now)

	require.Eventually(t, func() bool {
		return len(publisher.Messages()) == 2
	}, 2*time.Second, 10*time.Millisecond)

	for _, msg := range publisher.Messages() {
		assert.Equal(t, "Your weekly MindWell report", msg.Subject)
		assert.Equal(t, "your week was great", msg.Body)
		assert.NotEmpty(t, msg.Email)
	}
	users.AssertExpectations(t)
}

func TestRunOnce_GeneratorDownFallsBackToHeuristicSummary(t *testing.T) {
	now := time.Now().UTC()
	users := new(UsersMock)
	users.On("ListActiveUsersSince", mock.Anything, mock.Anything, maxReportUsers).
		Return([]*models.User{premiumUser("uid-1", "alice", "alice@example.com")}, nil).Once()

	patterns := []models.Pattern{
		models.TopicPreferencePattern{
			PatternMeta: models.PatternMeta{Confidence: 0.7, SampleSize: 5},
			Topics:      []string{"anxiety", "work"},
		},
	}
	analyzer := new(AnalyzerMock)
	analyzer.On("AnalyzePatterns", mock.Anything, "uid-1", reportWindowDays).Return(patterns)
	analyzer.On("AnalyzeTimePatterns", mock.Anything, "uid-1", reportWindowDays).
		Return(&models.TimeAnalysis{SampleSize: 3, MeanDurationMinutes: 20})
	analyzer.On("UpdateProfile", mock.Anything, "uid-1", mock.Anything, mock.Anything).Return(nil)

	generator := new(GeneratorMock)
	generator.On("Generate", mock.Anything, mock.Anything).
		Return("", aiclient.ErrUnavailable)

	publisher := &PublisherMock{}
	queue := taskqueue.New(context.Background(), 3, newNoopLogger())

	svc := NewReportsService(users, analyzer, generator, publisher, queue, newNoopLogger(),
		config.Reports{ReportWeekday: 1, ReportHour: 9})

	svc.RunOnce(context.Background(), now)

	require.Eventually(t, func() bool {
		return len(publisher.Messages()) == 1
	}, 2*time.Second, 10*time.Millisecond)

	body := publisher.Messages()[0].Body
	assert.True(t, strings.Contains(body, "anxiety, work"), "heuristic summary must list topics: %s", body)
	assert.True(t, strings.Contains(body, "alice"), "summary must address the user: %s", body)
}

func TestRunOnce_ProfileUpdateFailureDoesNotStallQueue(t *testing.T) {
	now := time.Now().UTC()
	users := new(UsersMock)
	users.On("ListActiveUsersSince", mock.Anything, mock.Anything, maxReportUsers).
		Return([]*models.User{
			premiumUser("uid-1", "alice", "alice@example.com"),
			premiumUser("uid-2", "bob", "bob@example.com"),
		}, nil).Once()

	analyzer := new(AnalyzerMock)
	analyzer.On("AnalyzePatterns", mock.Anything, mock.Anything, reportWindowDays).Return(nil)
	analyzer.On("AnalyzeTimePatterns", mock.Anything, mock.Anything, reportWindowDays).Return(nil)
	analyzer.On("UpdateProfile", mock.Anything, "uid-1", mock.Anything, mock.Anything).
		Return(errors.New("profile write failed"))
	analyzer.On("UpdateProfile", mock.Anything, "uid-2", mock.Anything, mock.Anything).Return(nil)

	generator := new(GeneratorMock)
	generator.On("Generate", mock.Anything, mock.Anything).Return("summary", nil)

	publisher := &PublisherMock{}
	queue := taskqueue.New(context.Background(), 1, newNoopLogger())

	svc := NewReportsService(users, analyzer, generator, publisher, queue, newNoopLogger(),
		config.Reports{ReportWeekday: 1, ReportHour: 9})

	svc.RunOnce(context.Background(), now)

	require.Eventually(t, func() bool {
		return len(publisher.Messages()) == 1
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, "bob@example.com", publisher.Messages()[0].Email)
}

func TestNextAnchor(t *testing.T) {
	// Среда, 18 июня 2025, 12:00 UTC.
	now := time.Date(2025, 6, 18, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		name    string
		weekday time.Weekday
		hour    int
		want    time.Time
	}{
		{"next monday", time.Monday, 9, time.Date(2025, 6, 23, 9, 0, 0, 0, time.UTC)},
		{"later today", time.Wednesday, 15, time.Date(2025, 6, 18, 15, 0, 0, 0, time.UTC)},
		{"same day earlier hour rolls a week", time.Wednesday, 9, time.Date(2025, 6, 25, 9, 0, 0, 0, time.UTC)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, nextAnchor(now, tc.weekday, tc.hour))
		})
	}
}
