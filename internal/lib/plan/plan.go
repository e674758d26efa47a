// Package plan содержит соответствие идентификаторов тарифов и длительности
// оплаченного периода. Используется maintenance-джобой при активации подписки.
package plan

import (
	"time"

	"github.com/mindwellhq/mindwell-backend/internal/models"
)

// DefaultTrialDays — длительность пробного периода по умолчанию.
const DefaultTrialDays = 7

// Duration возвращает длительность оплаченного периода для тарифа.
// Неизвестные тарифы получают 30 дней.
func Duration(planID string, trialDays int) time.Duration {
	if trialDays <= 0 {
		trialDays = DefaultTrialDays
	}
	switch planID {
	case models.PlanMonthly:
		return 30 * 24 * time.Hour
	case models.PlanAnnually:
		return 365 * 24 * time.Hour
	case models.PlanTrial:
		return time.Duration(trialDays) * 24 * time.Hour
	default:
		return 30 * 24 * time.Hour
	}
}
