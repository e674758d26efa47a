// Package services содержит эвристический анализ поведения пользователя:
// извлечение паттернов из истории чатов, дневника и настроений без обращения
// к модели, а также накопление результатов в профиле персонализации.
package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/mindwellhq/mindwell-backend/internal/lib/sl"
	"github.com/mindwellhq/mindwell-backend/internal/models"
)

// Пределы выборки истории за окно анализа.
const (
	sessionCap = 50
	journalCap = 30
	moodCap    = 100
)

// Пороговые значения фильтра паттернов: паттерн попадает в результат,
// только если уверенность выше 0.5 и выборка не меньше 3.
const (
	minConfidence = 0.5
	minSamples    = 3
)

// HistoryRepository определяет выборки истории взаимодействий.
type HistoryRepository interface {
	ListRecentSessions(ctx context.Context, userUID string, since time.Time, limit int) ([]*models.ChatSession, error)
	ListMessagesForSessions(ctx context.Context, sessionIDs []string) ([]*models.ChatMessage, error)
	ListJournalSince(ctx context.Context, userUID string, since time.Time, limit int) ([]*models.JournalEntry, error)
	ListMoodsSince(ctx context.Context, userUID string, since time.Time, limit int) ([]*models.MoodEntry, error)
}

// ProfileRepository определяет чтение и сохранение профиля персонализации.
type ProfileRepository interface {
	GetProfile(ctx context.Context, userUID string) (*models.Profile, error)
	SaveProfile(ctx context.Context, profile *models.Profile) error
}

// AnalysisService выполняет анализ и обновление профиля.
type AnalysisService struct {
	history  HistoryRepository
	profiles ProfileRepository
	log      *slog.Logger
}

// NewAnalysisService создает новый экземпляр AnalysisService.
func NewAnalysisService(history HistoryRepository, profiles ProfileRepository, log *slog.Logger) *AnalysisService {
	return &AnalysisService{
		history:  history,
		profiles: profiles,
		log:      log,
	}
}

// AnalyzePatterns загружает историю пользователя за окно windowDays и
// прогоняет четыре независимых детектора. Ошибка анализа не распространяется:
// метод логирует её и возвращает пустой результат.
func (s *AnalysisService) AnalyzePatterns(ctx context.Context, userUID string, windowDays int) []models.Pattern {
	if windowDays <= 0 {
		windowDays = 30
	}
	since := time.Now().UTC().AddDate(0, 0, -windowDays)

	sessions, err := s.history.ListRecentSessions(ctx, userUID, since, sessionCap)
	if err != nil {
		s.log.Error("failed to load sessions for analysis", sl.Err(err))
		return nil
	}

	sessionIDs := make([]string, 0, len(sessions))
	for _, session := range sessions {
		sessionIDs = append(sessionIDs, session.ID)
	}
	messages, err := s.history.ListMessagesForSessions(ctx, sessionIDs)
	if err != nil {
		s.log.Error("failed to load messages for analysis", sl.Err(err))
		return nil
	}

	journal, err := s.history.ListJournalSince(ctx, userUID, since, journalCap)
	if err != nil {
		s.log.Error("failed to load journal for analysis", sl.Err(err))
		return nil
	}

	// Настроения пока участвуют только в размере выборки тем.
	if _, err := s.history.ListMoodsSince(ctx, userUID, since, moodCap); err != nil {
		s.log.Error("failed to load moods for analysis", sl.Err(err))
		return nil
	}

	var candidates []models.Pattern
	if p, ok := detectCommunicationStyle(messages); ok {
		candidates = append(candidates, p)
	}
	if p, ok := detectVerbosity(messages); ok {
		candidates = append(candidates, p)
	}
	if p, ok := detectTopics(messages, journal); ok {
		candidates = append(candidates, p)
	}
	if p, ok := detectEngagement(sessions); ok {
		candidates = append(candidates, p)
	}

	var result []models.Pattern
	for _, p := range candidates {
		meta := p.Meta()
		if meta.Confidence > minConfidence && meta.SampleSize >= minSamples {
			result = append(result, p)
		}
	}
	return result
}
