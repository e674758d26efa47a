package models

import "time"

// Статусы подписки. Переходы движутся только вперёд:
// trialing -> active | expired, active -> expired.
// Возврат из expired возможен только внешним платёжным событием.
const (
	StatusTrialing  = "trialing"
	StatusActive    = "active"
	StatusCancelled = "cancelled"
	StatusExpired   = "expired"
)

// Идентификаторы тарифов.
const (
	PlanMonthly  = "monthly"
	PlanAnnually = "annually"
	PlanTrial    = "trial"
)

// Subscription — каноническая запись подписки.
// Записи никогда не удаляются и сохраняются для истории биллинга;
// мутируются только maintenance-джобой или платёжным вебхуком.
type Subscription struct {
	ID            string     // Уникальный идентификатор подписки
	UserUID       string     // Владелец подписки
	PlanID        string     // Идентификатор тарифа: monthly, annually, trial
	Status        string     // Текущий статус
	TrialStartsAt *time.Time // Начало пробного периода
	TrialEndsAt   *time.Time // Окончание пробного периода
	StartedAt     *time.Time // Начало оплаченного периода
	ActivatedAt   *time.Time // Момент активации
	ExpiresAt     *time.Time // Окончание оплаченного периода
	AutoRenew     bool       // Продлевать ли подписку автоматически
	CancelledAt   *time.Time // Момент отмены пользователем
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Cancelled сообщает, отказался ли подписчик от продления:
// явная отмена, выключенный автопродлёж или статус cancelled.
func (s *Subscription) Cancelled() bool {
	return s.CancelledAt != nil || !s.AutoRenew || s.Status == StatusCancelled
}
