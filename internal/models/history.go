package models

import "time"

// Роли сообщений в чат-сессии.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatSession представляет одну сессию общения пользователя с ИИ-компаньоном.
// EndedAt равен nil, пока сессия не закрыта.
type ChatSession struct {
	ID           string     // UUID сессии
	UserUID      string     // Владелец сессии
	StartedAt    time.Time  // Начало сессии
	EndedAt      *time.Time // Окончание сессии (nil — сессия открыта)
	MessageCount int        // Количество сообщений в сессии
}

// DurationMinutes возвращает длительность сессии в минутах
// или 0, если сессия ещё не закрыта.
func (s *ChatSession) DurationMinutes() float64 {
	if s.EndedAt == nil {
		return 0
	}
	return s.EndedAt.Sub(s.StartedAt).Minutes()
}

// ChatMessage — одно сообщение внутри чат-сессии.
type ChatMessage struct {
	ID            int       // Идентификатор сообщения
	SessionID     string    // Сессия, к которой относится сообщение
	Role          string    // user или assistant
	Content       string    // Текст сообщения
	TokenEstimate int       // Оценка длины в токенах (len/4)
	CreatedAt     time.Time // Время отправки
}

// JournalEntry — запись дневника пользователя.
type JournalEntry struct {
	ID        int
	UserUID   string
	Title     string
	Content   string
	CreatedAt time.Time
}

// MoodEntry — запись настроения пользователя по шкале от 1 до 10.
type MoodEntry struct {
	ID        int
	UserUID   string
	Score     int
	Note      string
	CreatedAt time.Time
}

// DummySend используется для приёма сообщения чата из JSON-запроса.
type DummySend struct {
	SessionID string `json:"session_id" validate:"required,uuid"` // Идентификатор сессии
	Content   string `json:"content" validate:"required"`         // Текст сообщения
	UserID    string `json:"user_id,omitempty"`                   // Объявленный клиентом идентификатор (для лимитера)
}

// DummyJournalEntry используется для приёма записи дневника из JSON-запроса.
type DummyJournalEntry struct {
	Title   string `json:"title" validate:"omitempty,max=200"` // Заголовок (опционально)
	Content string `json:"content" validate:"required"`        // Текст записи
}

// DummyMoodEntry используется для приёма записи настроения из JSON-запроса.
type DummyMoodEntry struct {
	Score int    `json:"score" validate:"required,gte=1,lte=10"` // Оценка настроения 1..10
	Note  string `json:"note" validate:"omitempty,max=500"`      // Комментарий (опционально)
}
