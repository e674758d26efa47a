// Package models содержит доменные структуры приложения: пользователей,
// подписки, историю взаимодействий и профиль персонализации.
// Структуры используются в бизнес-логике и при работе с хранилищем.
package models

import "time"

// Уровни доступа пользователя.
const (
	TierFree    = "free"
	TierPremium = "premium"
)

// User представляет зарегистрированного пользователя системы.
// Помимо учётных данных структура несёт денормализованное зеркало
// состояния подписки для быстрого чтения без обращения к таблице подписок.
type User struct {
	UID          string    // Уникальный идентификатор пользователя
	Email        string    // Электронная почта
	Username     string    // Имя пользователя (уникальное)
	PasswordHash string    // Хэш пароля пользователя
	Role         string    // Роль пользователя, admin или user
	CreatedAt    time.Time // Дата регистрации

	Mirror Mirror // Зеркало состояния подписки
}

// Mirror — денормализованные поля подписки, хранящиеся на записи пользователя.
// После каждого прохода maintenance-джобы зеркало должно отражать
// актуальное состояние канонической записи Subscription.
type Mirror struct {
	IsActive       bool       // Активна ли подписка
	Tier           string     // Уровень доступа: free или premium
	PlanID         string     // Идентификатор тарифа
	SubscriptionID *string    // Ссылка на каноническую запись подписки
	ExpiresAt      *time.Time // Дата окончания доступа
	IsTrial        bool       // Признак действующего пробного периода
	TrialEndsAt    *time.Time // Дата окончания пробного периода
	TrialUsed      bool       // Пробный период уже использован
}

// DummyRegister используется для приёма данных регистрации из JSON-запроса.
type DummyRegister struct {
	Email    string `json:"email" validate:"required,email"`       // Электронная почта
	Username string `json:"username" validate:"required,alphanum"` // Имя пользователя
	Password string `json:"password" validate:"required,min=8"`    // Пароль (минимум 8 символов)
}

// DummyLogin используется для приёма данных входа из JSON-запроса.
type DummyLogin struct {
	Username string `json:"username" validate:"required"` // Имя пользователя
	Password string `json:"password" validate:"required"` // Пароль
}
