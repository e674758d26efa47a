package services

import (
	"fmt"
	"sort"
	"strings"

	"github.com/mindwellhq/mindwell-backend/internal/models"
)

// Лексические маркеры регистра общения пользователя.
var (
	formalMarkers = []string{
		"please", "thank you", "would you", "could you",
		"i appreciate", "kindly", "i wonder",
	}
	casualMarkers = []string{
		"yeah", "yep", "gonna", "wanna", "lol",
		"hey", "cool", "omg", "idk",
	}
)

// Таксономия тем. Порядок в срезе фиксирует порядок обхода,
// чтобы результат был детерминированным при равных счётчиках.
var topicTaxonomy = []struct {
	topic    string
	keywords []string
}{
	{"anxiety", []string{"anxious", "anxiety", "worried", "worry", "panic", "nervous", "overwhelmed"}},
	{"depression", []string{"depressed", "depression", "hopeless", "empty", "numb", "worthless"}},
	{"relationships", []string{"partner", "friend", "family", "relationship", "boyfriend", "girlfriend", "marriage"}},
	{"work", []string{"work", "job", "boss", "career", "deadline", "coworker", "burnout"}},
	{"health", []string{"sleep", "tired", "exercise", "eating", "pain", "sick", "energy"}},
	{"goals", []string{"goal", "plan", "future", "dream", "achieve", "progress", "habit"}},
	{"mindfulness", []string{"meditate", "meditation", "breathing", "mindful", "present", "calm", "grounding"}},
}

// Пороги детектора вовлечённости.
const (
	highEngagementMessages = 10.0
	highEngagementMinutes  = 15.0
	lowEngagementMessages  = 3.0
	lowEngagementMinutes   = 5.0
)

// detectCommunicationStyle классифицирует стиль общения пользователя
// по доле вопросов, длине сообщений и лексическим маркерам.
// Требует не менее пяти сообщений пользователя.
func detectCommunicationStyle(messages []*models.ChatMessage) (models.Pattern, bool) {
	var userMessages []string
	for _, msg := range messages {
		if msg.Role == models.RoleUser {
			userMessages = append(userMessages, msg.Content)
		}
	}
	n := len(userMessages)
	if n < 5 {
		return nil, false
	}

	var questions, formal, casual int
	var totalLen int
	for _, content := range userMessages {
		if strings.Contains(content, "?") {
			questions++
		}
		lower := strings.ToLower(content)
		for _, marker := range formalMarkers {
			if strings.Contains(lower, marker) {
				formal++
				break
			}
		}
		for _, marker := range casualMarkers {
			if strings.Contains(lower, marker) {
				casual++
				break
			}
		}
		totalLen += len(content)
	}

	questionRatio := float64(questions) / float64(n)
	avgLen := float64(totalLen) / float64(n)

	var style string
	var frequency float64
	var evidence []string
	switch {
	case questionRatio > 0.4 && formal >= casual:
		style = models.StyleGentle
		frequency = questionRatio
		evidence = append(evidence,
			fmt.Sprintf("question frequency %.0f%% across %d messages", questionRatio*100, n))
		if formal > 0 {
			evidence = append(evidence,
				fmt.Sprintf("formal phrasing in %d of %d messages", formal, n))
		}
	case avgLen < 80 && casual > formal:
		style = models.StyleDirect
		frequency = float64(casual) / float64(n)
		evidence = append(evidence,
			fmt.Sprintf("short casual messages, avg %.0f chars", avgLen))
	default:
		style = models.StyleSupportive
		frequency = 1 - questionRatio
		evidence = append(evidence,
			fmt.Sprintf("statement-oriented messages, avg %.0f chars", avgLen))
	}

	// Уверенность растёт с размером выборки и ограничена сверху.
	return models.CommunicationStylePattern{
		PatternMeta: models.PatternMeta{
			Evidence:   evidence,
			Confidence: capConfidence(0.45 + 0.02*float64(n)),
			Frequency:  frequency,
			SampleSize: n,
		},
		Style: style,
	}, true
}

// detectVerbosity определяет предпочитаемую подробность ответов компаньона
// по мажоритарной корзине длины ответов ассистента. Длина оценивается
// в токенах как len/4.
func detectVerbosity(messages []*models.ChatMessage) (models.Pattern, bool) {
	buckets := map[string]int{}
	var n int
	for _, msg := range messages {
		if msg.Role != models.RoleAssistant {
			continue
		}
		n++
		tokens := msg.TokenEstimate
		if tokens == 0 {
			tokens = len(msg.Content) / 4
		}
		switch {
		case tokens < 150:
			buckets[models.VerbosityConcise]++
		case tokens <= 400:
			buckets[models.VerbosityModerate]++
		default:
			buckets[models.VerbosityDetailed]++
		}
	}
	if n < 3 {
		return nil, false
	}

	preference := models.VerbosityModerate
	best := -1
	for _, candidate := range []string{models.VerbosityConcise, models.VerbosityModerate, models.VerbosityDetailed} {
		if buckets[candidate] > best {
			best = buckets[candidate]
			preference = candidate
		}
	}
	share := float64(best) / float64(n)

	return models.VerbosityPattern{
		PatternMeta: models.PatternMeta{
			Evidence: []string{
				fmt.Sprintf("%d of %d assistant replies in the %s bucket", best, n, preference),
			},
			Confidence: capConfidence(share * (0.6 + 0.02*float64(n))),
			Frequency:  share,
			SampleSize: n,
		},
		Preference: preference,
	}, true
}

// detectTopics сопоставляет текст пользователя и записи дневника
// с таксономией тем и возвращает до трёх тем по убыванию совпадений.
func detectTopics(messages []*models.ChatMessage, journal []*models.JournalEntry) (models.Pattern, bool) {
	var texts []string
	for _, msg := range messages {
		if msg.Role == models.RoleUser {
			texts = append(texts, msg.Content)
		}
	}
	for _, entry := range journal {
		texts = append(texts, entry.Title+" "+entry.Content)
	}
	if len(texts) < 3 {
		return nil, false
	}

	counts := make(map[string]int, len(topicTaxonomy))
	total := 0
	for _, text := range texts {
		lower := strings.ToLower(text)
		for _, entry := range topicTaxonomy {
			for _, keyword := range entry.keywords {
				hits := strings.Count(lower, keyword)
				counts[entry.topic] += hits
				total += hits
			}
		}
	}
	if total == 0 {
		return nil, false
	}

	ranked := make([]string, 0, len(topicTaxonomy))
	for _, entry := range topicTaxonomy {
		if counts[entry.topic] > 0 {
			ranked = append(ranked, entry.topic)
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return counts[ranked[i]] > counts[ranked[j]]
	})
	if len(ranked) > 3 {
		ranked = ranked[:3]
	}

	evidence := make([]string, 0, len(ranked))
	for _, topic := range ranked {
		evidence = append(evidence,
			fmt.Sprintf("topic %q matched %d times", topic, counts[topic]))
	}

	return models.TopicPreferencePattern{
		PatternMeta: models.PatternMeta{
			Evidence:   evidence,
			Confidence: capConfidence(0.4 + 0.05*float64(total)),
			Frequency:  float64(counts[ranked[0]]) / float64(total),
			SampleSize: len(texts),
		},
		Topics: ranked,
	}, true
}

// detectEngagement классифицирует вовлечённость по средней насыщенности
// и длительности сессии. Учитываются только закрытые сессии.
func detectEngagement(sessions []*models.ChatSession) (models.Pattern, bool) {
	var closed []*models.ChatSession
	for _, session := range sessions {
		if session.EndedAt != nil {
			closed = append(closed, session)
		}
	}
	n := len(closed)
	if n < 3 {
		return nil, false
	}

	var totalMessages, totalMinutes float64
	for _, session := range closed {
		totalMessages += float64(session.MessageCount)
		totalMinutes += session.DurationMinutes()
	}
	meanMessages := totalMessages / float64(n)
	meanMinutes := totalMinutes / float64(n)

	var level string
	switch {
	case meanMessages > highEngagementMessages && meanMinutes > highEngagementMinutes:
		level = models.EngagementHigh
	case meanMessages < lowEngagementMessages || meanMinutes < lowEngagementMinutes:
		level = models.EngagementLow
	default:
		level = models.EngagementMedium
	}

	// Нормированная оценка вовлечённости, используется профилем как тренд.
	score := 0.5*minFloat(meanMessages/highEngagementMessages, 1) +
		0.5*minFloat(meanMinutes/highEngagementMinutes, 1)

	return models.EngagementPattern{
		PatternMeta: models.PatternMeta{
			Evidence: []string{
				fmt.Sprintf("%.1f messages and %.1f minutes per session over %d sessions",
					meanMessages, meanMinutes, n),
			},
			Confidence: capConfidence(0.4 + 0.05*float64(n)),
			Frequency:  score,
			SampleSize: n,
		},
		Level: level,
	}, true
}

func capConfidence(v float64) float64 {
	if v > 0.9 {
		return 0.9
	}
	if v < 0 {
		return 0
	}
	return v
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
