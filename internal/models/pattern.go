package models

// PatternKind — вид поведенческого паттерна, извлечённого анализатором.
type PatternKind string

// Виды паттернов.
const (
	PatternCommunicationStyle PatternKind = "communication_style"
	PatternVerbosity          PatternKind = "verbosity_preference"
	PatternTopicPreference    PatternKind = "topic_preference"
	PatternEngagement         PatternKind = "engagement"
)

// PatternMeta — общие поля любого паттерна: подтверждающие наблюдения,
// уверенность и частота в диапазоне [0,1] и размер выборки.
type PatternMeta struct {
	Evidence   []string `json:"evidence"`
	Confidence float64  `json:"confidence"`
	Frequency  float64  `json:"frequency"`
	SampleSize int      `json:"sample_size"`
}

// Meta возвращает общие поля паттерна.
func (m PatternMeta) Meta() PatternMeta { return m }

// Pattern — размеченное объединение четырёх конкретных видов паттернов.
// Каждый вид несёт собственную типизированную нагрузку, что избавляет
// потребителей от диспетчеризации по строковым типам.
type Pattern interface {
	Kind() PatternKind
	Meta() PatternMeta
}

// Стили общения пользователя.
const (
	StyleGentle     = "gentle"
	StyleDirect     = "direct"
	StyleSupportive = "supportive"
)

// CommunicationStylePattern — предпочитаемый стиль общения.
type CommunicationStylePattern struct {
	PatternMeta
	Style string `json:"style"` // gentle, direct или supportive
}

// Kind возвращает вид паттерна.
func (CommunicationStylePattern) Kind() PatternKind { return PatternCommunicationStyle }

// Предпочитаемая длина ответов компаньона.
const (
	VerbosityConcise  = "concise"
	VerbosityModerate = "moderate"
	VerbosityDetailed = "detailed"
)

// VerbosityPattern — предпочитаемая подробность ответов.
type VerbosityPattern struct {
	PatternMeta
	Preference string `json:"preference"` // concise, moderate или detailed
}

// Kind возвращает вид паттерна.
func (VerbosityPattern) Kind() PatternKind { return PatternVerbosity }

// TopicPreferencePattern — темы, к которым пользователь возвращается чаще всего.
type TopicPreferencePattern struct {
	PatternMeta
	Topics []string `json:"topics"` // До трёх тем по убыванию совпадений
}

// Kind возвращает вид паттерна.
func (TopicPreferencePattern) Kind() PatternKind { return PatternTopicPreference }

// Уровни вовлечённости.
const (
	EngagementHigh   = "high"
	EngagementMedium = "medium"
	EngagementLow    = "low"
)

// EngagementPattern — уровень вовлечённости пользователя в сессии.
type EngagementPattern struct {
	PatternMeta
	Level string `json:"level"` // high, medium или low
}

// Kind возвращает вид паттерна.
func (EngagementPattern) Kind() PatternKind { return PatternEngagement }
