package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mindwellhq/mindwell-backend/internal/models"
)

const userColumns = `uid, email, username, password_hash, role, created_at,
		is_active, tier, plan_id, subscription_id, expires_at, is_trial, trial_ends_at, trial_used`

func scanUser(row interface{ Scan(...any) error }) (*models.User, error) {
	var u models.User
	var subscriptionID sql.NullString
	err := row.Scan(&u.UID, &u.Email, &u.Username, &u.PasswordHash, &u.Role, &u.CreatedAt,
		&u.Mirror.IsActive, &u.Mirror.Tier, &u.Mirror.PlanID, &subscriptionID,
		&u.Mirror.ExpiresAt, &u.Mirror.IsTrial, &u.Mirror.TrialEndsAt, &u.Mirror.TrialUsed)
	if err != nil {
		return nil, err
	}
	if subscriptionID.Valid {
		u.Mirror.SubscriptionID = &subscriptionID.String
	}
	return &u, nil
}

// RegisterUser сохраняет нового пользователя вместе с начальным зеркалом
// подписки и возвращает его uid.
func (s *Storage) RegisterUser(ctx context.Context, user models.User) (string, error) {
	const op = "storage.RegisterUser"
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO users (uid, email, username, password_hash, role,
			      is_active, tier, plan_id, subscription_id, expires_at, is_trial, trial_ends_at, trial_used)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
			  RETURNING uid`
	var uid string
	err := s.DB.QueryRowContext(ctx, query,
		user.UID, user.Email, user.Username, user.PasswordHash, user.Role,
		user.Mirror.IsActive, user.Mirror.Tier, user.Mirror.PlanID, user.Mirror.SubscriptionID,
		user.Mirror.ExpiresAt, user.Mirror.IsTrial, user.Mirror.TrialEndsAt, user.Mirror.TrialUsed).Scan(&uid)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return uid, nil
}

// GetUserByUsername возвращает пользователя по имени.
func (s *Storage) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	const op = "storage.GetUserByUsername"
	return s.getUserBy(ctx, op, "username", username)
}

// GetUserByUID возвращает пользователя по uid.
func (s *Storage) GetUserByUID(ctx context.Context, uid string) (*models.User, error) {
	const op = "storage.GetUserByUID"
	return s.getUserBy(ctx, op, "uid", uid)
}

func (s *Storage) getUserBy(ctx context.Context, op, column, value string) (*models.User, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + userColumns + ` FROM users WHERE ` + column + ` = $1`
	user, err := scanUser(s.DB.QueryRowContext(ctx, query, value))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return user, nil
}

// UpdateMirror записывает зеркало состояния подписки на запись пользователя.
func (s *Storage) UpdateMirror(ctx context.Context, userUID string, m models.Mirror) error {
	const op = "storage.UpdateMirror"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE users
			  SET is_active = $1, tier = $2, plan_id = $3, subscription_id = $4,
			      expires_at = $5, is_trial = $6, trial_ends_at = $7, trial_used = $8
			  WHERE uid = $9`
	_, err := s.DB.ExecContext(ctx, query,
		m.IsActive, m.Tier, m.PlanID, m.SubscriptionID,
		m.ExpiresAt, m.IsTrial, m.TrialEndsAt, m.TrialUsed, userUID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// ListActiveUsersSince возвращает пользователей, у которых были чат-сессии
// после момента since. Используется планировщиком еженедельных отчётов.
func (s *Storage) ListActiveUsersSince(ctx context.Context, since time.Time, limit int) ([]*models.User, error) {
	const op = "storage.ListActiveUsersSince"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + userColumns + `
			  FROM users
			  WHERE uid IN (SELECT DISTINCT user_uid FROM chat_sessions WHERE started_at >= $1)
			  ORDER BY username
			  LIMIT $2`
	rows, err := s.DB.QueryContext(ctx, query, since, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var result []*models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
