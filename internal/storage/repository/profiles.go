package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mindwellhq/mindwell-backend/internal/models"
)

// GetProfile возвращает профиль персонализации пользователя.
// Возвращает ErrNotFound, если профиль ещё не создавался.
func (s *Storage) GetProfile(ctx context.Context, userUID string) (*models.Profile, error) {
	const op = "storage.GetProfile"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT profile, updated_at FROM user_profiles WHERE user_uid = $1`
	var raw []byte
	var profile models.Profile
	err := s.DB.QueryRowContext(ctx, query, userUID).Scan(&raw, &profile.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := json.Unmarshal(raw, &profile); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	profile.UserUID = userUID
	return &profile, nil
}

// SaveProfile сохраняет профиль персонализации (вставка или обновление).
func (s *Storage) SaveProfile(ctx context.Context, profile *models.Profile) error {
	const op = "storage.SaveProfile"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	raw, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	query := `INSERT INTO user_profiles (user_uid, profile, updated_at)
			  VALUES ($1, $2, now())
			  ON CONFLICT (user_uid) DO UPDATE SET profile = $2, updated_at = now()`
	if _, err := s.DB.ExecContext(ctx, query, profile.UserUID, raw); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
