package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mindwellhq/mindwell-backend/internal/models"
)

// ErrNotFound возвращается, когда запрошенная запись отсутствует в хранилище.
var ErrNotFound = errors.New("not found")

const subscriptionColumns = `id, user_uid, plan_id, status, trial_starts_at, trial_ends_at,
		started_at, activated_at, expires_at, auto_renew, cancelled_at, created_at, updated_at`

func scanSubscription(row interface{ Scan(...any) error }) (*models.Subscription, error) {
	var s models.Subscription
	err := row.Scan(&s.ID, &s.UserUID, &s.PlanID, &s.Status, &s.TrialStartsAt, &s.TrialEndsAt,
		&s.StartedAt, &s.ActivatedAt, &s.ExpiresAt, &s.AutoRenew, &s.CancelledAt,
		&s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// CreateSubscription вставляет новую запись подписки.
func (s *Storage) CreateSubscription(ctx context.Context, sub models.Subscription) error {
	const op = "storage.CreateSubscription"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO subscriptions (id, user_uid, plan_id, status, trial_starts_at,
			      trial_ends_at, started_at, activated_at, expires_at, auto_renew, cancelled_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := s.DB.ExecContext(ctx, query,
		sub.ID, sub.UserUID, sub.PlanID, sub.Status, sub.TrialStartsAt, sub.TrialEndsAt,
		sub.StartedAt, sub.ActivatedAt, sub.ExpiresAt, sub.AutoRenew, sub.CancelledAt)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// GetCurrentSubscription возвращает последнюю неистёкшую подписку пользователя.
func (s *Storage) GetCurrentSubscription(ctx context.Context, userUID string) (*models.Subscription, error) {
	const op = "storage.GetCurrentSubscription"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + subscriptionColumns + `
			  FROM subscriptions
			  WHERE user_uid = $1 AND status IN ($2, $3)
			  ORDER BY created_at DESC
			  LIMIT 1`
	sub, err := scanSubscription(s.DB.QueryRowContext(ctx, query, userUID,
		models.StatusTrialing, models.StatusActive))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return sub, nil
}

// ListDueTrials возвращает подписки в статусе trialing, пробный период которых
// закончился к моменту now. Выборка ограничена limit записями; остаток
// будет обработан следующим тиком джобы.
func (s *Storage) ListDueTrials(ctx context.Context, now time.Time, limit int) ([]*models.Subscription, error) {
	const op = "storage.ListDueTrials"
	return s.listByStatusDue(ctx, op, models.StatusTrialing, "trial_ends_at", now, limit)
}

// ListLapsedActive возвращает активные подписки, срок которых истёк к моменту now.
func (s *Storage) ListLapsedActive(ctx context.Context, now time.Time, limit int) ([]*models.Subscription, error) {
	const op = "storage.ListLapsedActive"
	return s.listByStatusDue(ctx, op, models.StatusActive, "expires_at", now, limit)
}

func (s *Storage) listByStatusDue(ctx context.Context, op, status, dueColumn string,
	now time.Time, limit int) ([]*models.Subscription, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + subscriptionColumns + `
			  FROM subscriptions
			  WHERE status = $1 AND ` + dueColumn + ` IS NOT NULL AND ` + dueColumn + ` <= $2
			  ORDER BY ` + dueColumn + `
			  LIMIT $3`
	rows, err := s.DB.QueryContext(ctx, query, status, now, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var result []*models.Subscription
	for rows.Next() {
		item, err := scanSubscription(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// UpdateSubscriptionState записывает новый статус и тайминги подписки.
func (s *Storage) UpdateSubscriptionState(ctx context.Context, sub *models.Subscription) error {
	const op = "storage.UpdateSubscriptionState"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE subscriptions
			  SET status = $1, auto_renew = $2, started_at = $3, activated_at = $4,
			      expires_at = $5, cancelled_at = $6, updated_at = now()
			  WHERE id = $7`
	_, err := s.DB.ExecContext(ctx, query,
		sub.Status, sub.AutoRenew, sub.StartedAt, sub.ActivatedAt,
		sub.ExpiresAt, sub.CancelledAt, sub.ID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// CancelSubscription помечает подписку отменённой: выставляет cancelled_at
// и выключает автопродлёж. Статус не меняется — перевод в expired делает
// maintenance-джоба на ближайшем тике. Возвращает количество изменённых строк.
func (s *Storage) CancelSubscription(ctx context.Context, id string, now time.Time) (int, error) {
	const op = "storage.CancelSubscription"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE subscriptions
			  SET cancelled_at = $1, auto_renew = false, updated_at = now()
			  WHERE id = $2 AND status IN ($3, $4) AND cancelled_at IS NULL`
	result, err := s.DB.ExecContext(ctx, query, now, id,
		models.StatusTrialing, models.StatusActive)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(rowsAffected), nil
}
