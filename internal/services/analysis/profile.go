package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/mindwellhq/mindwell-backend/internal/models"
	"github.com/mindwellhq/mindwell-backend/internal/storage/repository"
)

// Пороги слияния паттернов в профиль.
const (
	mergeConfidence   = 0.6 // Ниже этого порога выводы детекторов в профиль не попадают
	trendIncreasing   = 0.7
	trendDecreasing   = 0.3
	maxTopicInterests = 10
	maxTendencies     = 20
)

// newDefaultProfile возвращает профиль с фиксированными значениями по умолчанию.
func newDefaultProfile(userUID string) *models.Profile {
	return &models.Profile{
		UserUID:            userUID,
		CommunicationStyle: models.StyleSupportive,
		ResponseLength:     models.VerbosityModerate,
		EngagementTrend:    models.TrendStable,
	}
}

// UpdateProfile вливает результаты анализа в профиль персонализации
// и сохраняет его. Временные паттерны применяются безусловно; выводы
// детекторов стиля и подробности только при уверенности выше 0.6 и
// отсутствии явного предпочтения пользователя. Ошибка записи профиля
// возвращается вызывающей стороне.
func (s *AnalysisService) UpdateProfile(ctx context.Context, userUID string, patterns []models.Pattern, timeAnalysis *models.TimeAnalysis) error {
	const op = "analysis.UpdateProfile"

	profile, err := s.profiles.GetProfile(ctx, userUID)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%s: %w", op, err)
		}
		profile = newDefaultProfile(userUID)
	}

	if timeAnalysis != nil && timeAnalysis.SampleSize > 0 {
		profile.PreferredHours = timeAnalysis.PreferredHours
		profile.PreferredWeekdays = timeAnalysis.PreferredWeekdays
		profile.MeanSessionMinutes = timeAnalysis.MeanDurationMinutes
		profile.SessionMinutesIQR = timeAnalysis.DurationIQRMinutes
	}

	for _, pattern := range patterns {
		applyPattern(profile, pattern)
		mergeTendencies(profile, pattern)
	}

	profile.DataQuality = dataQuality(profile.Tendencies)
	profile.UpdatedAt = time.Now().UTC()

	if err := s.profiles.SaveProfile(ctx, profile); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// applyPattern обновляет атрибуты профиля по одному паттерну.
func applyPattern(profile *models.Profile, pattern models.Pattern) {
	meta := pattern.Meta()

	switch p := pattern.(type) {
	case models.CommunicationStylePattern:
		if meta.Confidence > mergeConfidence && profile.Overrides.CommunicationStyle == nil {
			profile.CommunicationStyle = p.Style
		}
	case models.VerbosityPattern:
		if meta.Confidence > mergeConfidence && profile.Overrides.ResponseLength == nil {
			profile.ResponseLength = p.Preference
		}
	case models.TopicPreferencePattern:
		profile.TopicInterests = unionTopics(profile.TopicInterests, p.Topics, maxTopicInterests)
	case models.EngagementPattern:
		switch {
		case meta.Frequency > trendIncreasing:
			profile.EngagementTrend = models.TrendIncreasing
		case meta.Frequency < trendDecreasing:
			profile.EngagementTrend = models.TrendDecreasing
		default:
			profile.EngagementTrend = models.TrendStable
		}
	}
}

// mergeTendencies вливает наблюдения паттерна в накопленные тенденции.
// Совпадение по тексту наблюдения: частота усредняется, уверенность
// берётся максимальная, выборка суммируется. Новое наблюдение добавляется
// только при уверенности выше 0.6. Остаются топ-20 по уверенности.
func mergeTendencies(profile *models.Profile, pattern models.Pattern) {
	meta := pattern.Meta()

	for _, evidence := range meta.Evidence {
		merged := false
		for i := range profile.Tendencies {
			if profile.Tendencies[i].Description != evidence {
				continue
			}
			t := &profile.Tendencies[i]
			t.Frequency = (t.Frequency + meta.Frequency) / 2
			if meta.Confidence > t.Confidence {
				t.Confidence = meta.Confidence
			}
			t.SampleSize += meta.SampleSize
			merged = true
			break
		}
		if !merged && meta.Confidence > mergeConfidence {
			profile.Tendencies = append(profile.Tendencies, models.Tendency{
				Description: evidence,
				Frequency:   meta.Frequency,
				Confidence:  meta.Confidence,
				SampleSize:  meta.SampleSize,
			})
		}
	}

	sort.SliceStable(profile.Tendencies, func(i, j int) bool {
		return profile.Tendencies[i].Confidence > profile.Tendencies[j].Confidence
	})
	if len(profile.Tendencies) > maxTendencies {
		profile.Tendencies = profile.Tendencies[:maxTendencies]
	}
}

// unionTopics объединяет темы с сохранением порядка и ограничением размера.
func unionTopics(existing, incoming []string, limit int) []string {
	seen := make(map[string]struct{}, len(existing))
	result := make([]string, 0, len(existing)+len(incoming))
	for _, topic := range existing {
		if _, ok := seen[topic]; ok {
			continue
		}
		seen[topic] = struct{}{}
		result = append(result, topic)
	}
	for _, topic := range incoming {
		if _, ok := seen[topic]; ok {
			continue
		}
		seen[topic] = struct{}{}
		result = append(result, topic)
	}
	if len(result) > limit {
		result = result[:limit]
	}
	return result
}

// dataQuality пересчитывает качество данных профиля по суммарной выборке
// накопленных тенденций: min(1, 0.3 + total/100*0.7).
func dataQuality(tendencies []models.Tendency) float64 {
	if len(tendencies) == 0 {
		return 0
	}
	total := 0
	for _, t := range tendencies {
		total += t.SampleSize
	}
	q := 0.3 + float64(total)/100*0.7
	if q > 1 {
		return 1
	}
	return q
}
