// Package services содержит планировщик еженедельных отчётов. Раз в неделю,
// в настроенный день и час, сервис перебирает активных за последнюю неделю
// пользователей и ставит по задаче на пользователя в фоновую очередь:
// прогнать анализ, обновить профиль, собрать текст отчёта и опубликовать
// его в RabbitMQ для отправки по почте.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/streadway/amqp"

	"github.com/mindwellhq/mindwell-backend/internal/aiclient"
	"github.com/mindwellhq/mindwell-backend/internal/config"
	"github.com/mindwellhq/mindwell-backend/internal/lib/sl"
	"github.com/mindwellhq/mindwell-backend/internal/models"
	"github.com/mindwellhq/mindwell-backend/internal/rabbitmq"
	"github.com/mindwellhq/mindwell-backend/internal/taskqueue"
)

// Окно отчёта и предел пользователей за один запуск.
const (
	reportWindowDays = 7
	maxReportUsers   = 1000
)

// UserLister возвращает пользователей с активностью за период.
type UserLister interface {
	ListActiveUsersSince(ctx context.Context, since time.Time, limit int) ([]*models.User, error)
}

// Analyzer описывает конвейер анализа, питающий отчёт.
type Analyzer interface {
	AnalyzePatterns(ctx context.Context, userUID string, windowDays int) []models.Pattern
	AnalyzeTimePatterns(ctx context.Context, userUID string, windowDays int) *models.TimeAnalysis
	UpdateProfile(ctx context.Context, userUID string, patterns []models.Pattern, timeAnalysis *models.TimeAnalysis) error
}

// Generator описывает внешний сервис генерации текста отчёта.
type Generator interface {
	Generate(ctx context.Context, req aiclient.GenerateRequest) (string, error)
}

// Publisher публикует готовый отчёт для доставки по почте.
type Publisher interface {
	PublishReport(msg models.ReportMessage) error
}

// AMQPPublisher публикует отчёты в RabbitMQ.
type AMQPPublisher struct {
	Ch *amqp.Channel
}

// PublishReport отправляет отчёт в exchange отчётов с недельным ключом маршрутизации.
func (p *AMQPPublisher) PublishReport(msg models.ReportMessage) error {
	return rabbitmq.PublishMessage(p.Ch, rabbitmq.ReportsExchange, rabbitmq.WeeklyRoutingKey, msg)
}

// ReportsService готовит и рассылает еженедельные отчёты.
type ReportsService struct {
	users     UserLister
	analyzer  Analyzer
	generator Generator
	publisher Publisher
	queue     *taskqueue.Queue
	log       *slog.Logger
	weekday   time.Weekday
	hour      int
}

// NewReportsService создает новый экземпляр ReportsService.
func NewReportsService(users UserLister, analyzer Analyzer, generator Generator,
	publisher Publisher, queue *taskqueue.Queue, log *slog.Logger, cfg config.Reports) *ReportsService {
	return &ReportsService{
		users:     users,
		analyzer:  analyzer,
		generator: generator,
		publisher: publisher,
		queue:     queue,
		log:       log,
		weekday:   time.Weekday(cfg.ReportWeekday),
		hour:      cfg.ReportHour,
	}
}

// StartRecurring ждёт ближайшего настроенного дня недели и часа,
// запускает формирование отчётов и повторяет его каждую неделю.
func (s *ReportsService) StartRecurring(ctx context.Context) {
	for {
		next := nextAnchor(time.Now().UTC(), s.weekday, s.hour)
		s.log.Info("next weekly report run scheduled", slog.Time("at", next))

		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			s.RunOnce(ctx, time.Now().UTC())
		}
	}
}

// nextAnchor возвращает ближайший момент после now с заданными днём недели и часом.
func nextAnchor(now time.Time, weekday time.Weekday, hour int) time.Time {
	anchor := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, time.UTC)
	days := (int(weekday) - int(now.Weekday()) + 7) % 7
	anchor = anchor.AddDate(0, 0, days)
	if !anchor.After(now) {
		anchor = anchor.AddDate(0, 0, 7)
	}
	return anchor
}

// RunOnce ставит задачу формирования отчёта для каждого пользователя,
// активного за последнюю неделю. Очередь ограничивает число одновременных
// генераций; ошибка одной задачи не мешает остальным.
func (s *ReportsService) RunOnce(ctx context.Context, now time.Time) {
	since := now.AddDate(0, 0, -reportWindowDays)
	users, err := s.users.ListActiveUsersSince(ctx, since, maxReportUsers)
	if err != nil {
		s.log.Error("failed to list users for weekly reports", sl.Err(err))
		return
	}
	s.log.Info("scheduling weekly reports", slog.Int("users", len(users)))

	for _, user := range users {
		u := user
		s.queue.Submit(func(jobCtx context.Context) error {
			return s.buildAndPublish(jobCtx, u)
		})
	}
}

// buildAndPublish формирует отчёт одного пользователя: анализ, обновление
// профиля, текст отчёта и публикация. Ошибка обновления профиля фатальна
// для задачи; недоступность генератора закрывается эвристическим текстом.
func (s *ReportsService) buildAndPublish(ctx context.Context, user *models.User) error {
	const op = "reports.buildAndPublish"

	patterns := s.analyzer.AnalyzePatterns(ctx, user.UID, reportWindowDays)
	timeAnalysis := s.analyzer.AnalyzeTimePatterns(ctx, user.UID, reportWindowDays)

	if err := s.analyzer.UpdateProfile(ctx, user.UID, patterns, timeAnalysis); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	body, err := s.composeBody(ctx, user, patterns, timeAnalysis)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	msg := models.ReportMessage{
		Email:    user.Email,
		Username: user.Username,
		Subject:  "Your weekly MindWell report",
		Body:     body,
	}
	if err := s.publisher.PublishReport(msg); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// composeBody запрашивает текст отчёта у генератора. При его недоступности
// собирается эвристическая сводка по найденным паттернам.
func (s *ReportsService) composeBody(ctx context.Context, user *models.User,
	patterns []models.Pattern, timeAnalysis *models.TimeAnalysis) (string, error) {
	req := aiclient.GenerateRequest{
		Messages: []aiclient.Message{{
			Role:    models.RoleUser,
			Content: reportPrompt(user.Username, patterns, timeAnalysis),
		}},
		Tier: user.Mirror.Tier,
	}
	body, err := s.generator.Generate(ctx, req)
	if err != nil {
		if !errors.Is(err, aiclient.ErrUnavailable) {
			return "", err
		}
		s.log.Warn("report generator unavailable, using heuristic summary",
			slog.String("user_uid", user.UID))
		return heuristicSummary(user.Username, patterns, timeAnalysis), nil
	}
	return body, nil
}

// reportPrompt собирает вводную для генератора из результатов анализа.
func reportPrompt(username string, patterns []models.Pattern, timeAnalysis *models.TimeAnalysis) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Compose a short, warm weekly wellness report for %s.\n", username)
	b.WriteString("Observed signals:\n")
	for _, p := range patterns {
		for _, evidence := range p.Meta().Evidence {
			fmt.Fprintf(&b, "- %s: %s\n", p.Kind(), evidence)
		}
	}
	if timeAnalysis != nil && timeAnalysis.SampleSize > 0 {
		fmt.Fprintf(&b, "- %d sessions, %.0f minutes on average\n",
			timeAnalysis.SampleSize, timeAnalysis.MeanDurationMinutes)
	}
	return b.String()
}

// heuristicSummary — запасной текст отчёта без обращения к генератору.
func heuristicSummary(username string, patterns []models.Pattern, timeAnalysis *models.TimeAnalysis) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s, here is your week at a glance.\n\n", username)
	if timeAnalysis != nil && timeAnalysis.SampleSize > 0 {
		fmt.Fprintf(&b, "You checked in %d times, spending about %.0f minutes per session.\n",
			timeAnalysis.SampleSize, timeAnalysis.MeanDurationMinutes)
	}
	for _, p := range patterns {
		if topics, ok := p.(models.TopicPreferencePattern); ok && len(topics.Topics) > 0 {
			fmt.Fprintf(&b, "Themes on your mind: %s.\n", strings.Join(topics.Topics, ", "))
		}
		if engagement, ok := p.(models.EngagementPattern); ok {
			fmt.Fprintf(&b, "Your engagement this week was %s.\n", engagement.Level)
		}
	}
	b.WriteString("\nSee you next week.")
	return b.String()
}
