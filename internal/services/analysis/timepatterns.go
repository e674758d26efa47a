package services

import (
	"context"
	"sort"
	"time"

	"github.com/mindwellhq/mindwell-backend/internal/lib/sl"
	"github.com/mindwellhq/mindwell-backend/internal/models"
)

// Пороги временного анализа.
const (
	hourShareThreshold    = 0.20 // Час попадает в предпочтения при >=20% сессий
	weekdayShareThreshold = 0.25 // День недели при >=25% сессий
	maxPreferredHours     = 6
	maxPreferredWeekdays  = 4
	maxPlausibleMinutes   = 180.0
)

// AnalyzeTimePatterns вычисляет предпочитаемые часы и дни недели, среднюю
// длительность сессии и её межквартильный размах. Неправдоподобные
// длительности (<=0 или >=180 минут) не учитываются. Ошибка загрузки
// логируется и возвращает пустой результат.
func (s *AnalysisService) AnalyzeTimePatterns(ctx context.Context, userUID string, windowDays int) *models.TimeAnalysis {
	if windowDays <= 0 {
		windowDays = 30
	}
	since := time.Now().UTC().AddDate(0, 0, -windowDays)

	sessions, err := s.history.ListRecentSessions(ctx, userUID, since, sessionCap)
	if err != nil {
		s.log.Error("failed to load sessions for time analysis", sl.Err(err))
		return &models.TimeAnalysis{}
	}
	return computeTimeAnalysis(sessions)
}

func computeTimeAnalysis(sessions []*models.ChatSession) *models.TimeAnalysis {
	result := &models.TimeAnalysis{}
	if len(sessions) == 0 {
		return result
	}

	hourCounts := map[int]int{}
	weekdayCounts := map[int]int{}
	var durations []float64
	for _, session := range sessions {
		hourCounts[session.StartedAt.Hour()]++
		weekdayCounts[int(session.StartedAt.Weekday())]++

		d := session.DurationMinutes()
		if d > 0 && d < maxPlausibleMinutes {
			durations = append(durations, d)
		}
	}
	total := len(sessions)

	result.PreferredHours = topShares(hourCounts, total, hourShareThreshold, maxPreferredHours)
	result.PreferredWeekdays = topShares(weekdayCounts, total, weekdayShareThreshold, maxPreferredWeekdays)
	result.SampleSize = total

	if len(durations) > 0 {
		var sum float64
		for _, d := range durations {
			sum += d
		}
		result.MeanDurationMinutes = sum / float64(len(durations))

		sort.Float64s(durations)
		result.DurationIQRMinutes = percentile(durations, 0.75) - percentile(durations, 0.25)
	}
	return result
}

// topShares возвращает ключи, чья доля не меньше threshold,
// отсортированные по убыванию счётчика, не больше limit штук.
func topShares(counts map[int]int, total int, threshold float64, limit int) []int {
	var keys []int
	for key, count := range counts {
		if float64(count)/float64(total) >= threshold {
			keys = append(keys, key)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		if counts[keys[i]] != counts[keys[j]] {
			return counts[keys[i]] > counts[keys[j]]
		}
		return keys[i] < keys[j]
	})
	if len(keys) > limit {
		keys = keys[:limit]
	}
	return keys
}

// percentile возвращает значение квантиля q отсортированного среза
// с линейной интерполяцией между соседними элементами.
func percentile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if len(sorted) == 1 {
		return sorted[0]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(pos)
	if lo >= len(sorted)-1 {
		return sorted[len(sorted)-1]
	}
	frac := pos - float64(lo)
	return sorted[lo] + frac*(sorted[lo+1]-sorted[lo])
}
