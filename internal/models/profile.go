package models

import "time"

// Тренды вовлечённости.
const (
	TrendIncreasing = "increasing"
	TrendStable     = "stable"
	TrendDecreasing = "decreasing"
)

// Tendency — накопленное наблюдение о поведении пользователя.
// Наблюдения с одинаковым текстом объединяются между прогонами анализа:
// частота усредняется, уверенность берётся максимальная, выборка суммируется.
type Tendency struct {
	Description string  `json:"description"`
	Frequency   float64 `json:"frequency"`
	Confidence  float64 `json:"confidence"`
	SampleSize  int     `json:"sample_size"`
}

// Overrides — явные предпочтения, заданные пользователем.
// Ненулевое поле блокирует обновление соответствующего атрибута анализатором.
type Overrides struct {
	CommunicationStyle *string `json:"communication_style,omitempty"`
	ResponseLength     *string `json:"response_length,omitempty"`
}

// Profile — профиль персонализации, накапливающий паттерны между прогонами.
type Profile struct {
	UserUID            string     `json:"user_uid"`
	CommunicationStyle string     `json:"communication_style"`
	ResponseLength     string     `json:"response_length"`
	TopicInterests     []string   `json:"topic_interests"`
	EngagementTrend    string     `json:"engagement_trend"`
	PreferredHours     []int      `json:"preferred_hours"`
	PreferredWeekdays  []int      `json:"preferred_weekdays"`
	MeanSessionMinutes float64    `json:"mean_session_minutes"`
	SessionMinutesIQR  float64    `json:"session_minutes_iqr"`
	Tendencies         []Tendency `json:"tendencies"`
	DataQuality        float64    `json:"data_quality"`
	Overrides          Overrides  `json:"overrides"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// TimeAnalysis — результат анализа временных привычек пользователя.
type TimeAnalysis struct {
	PreferredHours      []int   `json:"preferred_hours"`       // Часы, покрывающие >=20% сессий, топ-6
	PreferredWeekdays   []int   `json:"preferred_weekdays"`    // Дни недели, покрывающие >=25% сессий, топ-4
	MeanDurationMinutes float64 `json:"mean_duration_minutes"` // Средняя длительность сессии
	DurationIQRMinutes  float64 `json:"duration_iqr_minutes"`  // Межквартильный размах длительности
	SampleSize          int     `json:"sample_size"`           // Количество учтённых сессий
}

// DummyOverrides используется для приёма явных предпочтений из JSON-запроса.
type DummyOverrides struct {
	CommunicationStyle string `json:"communication_style" validate:"omitempty,oneof=gentle direct supportive"`
	ResponseLength     string `json:"response_length" validate:"omitempty,oneof=concise moderate detailed"`
}

// ReportMessage — сообщение о готовом еженедельном отчёте,
// публикуемое в RabbitMQ для отправки по почте.
type ReportMessage struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Subject  string `json:"subject"`
	Body     string `json:"body"`
}
