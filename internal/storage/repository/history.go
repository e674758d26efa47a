package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mindwellhq/mindwell-backend/internal/models"
)

// CreateSession вставляет новую чат-сессию.
func (s *Storage) CreateSession(ctx context.Context, session models.ChatSession) error {
	const op = "storage.CreateSession"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO chat_sessions (id, user_uid, started_at, message_count)
			  VALUES ($1, $2, $3, 0)`
	_, err := s.DB.ExecContext(ctx, query, session.ID, session.UserUID, session.StartedAt)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// GetSession возвращает чат-сессию по идентификатору.
func (s *Storage) GetSession(ctx context.Context, id string) (*models.ChatSession, error) {
	const op = "storage.GetSession"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, user_uid, started_at, ended_at, message_count
			  FROM chat_sessions WHERE id = $1`
	var session models.ChatSession
	err := s.DB.QueryRowContext(ctx, query, id).Scan(&session.ID, &session.UserUID,
		&session.StartedAt, &session.EndedAt, &session.MessageCount)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &session, nil
}

// CloseSession закрывает сессию, фиксируя момент окончания.
// Возвращает количество изменённых строк (0 — сессия не найдена или уже закрыта).
func (s *Storage) CloseSession(ctx context.Context, id string, endedAt time.Time) (int, error) {
	const op = "storage.CloseSession"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE chat_sessions SET ended_at = $1 WHERE id = $2 AND ended_at IS NULL`
	result, err := s.DB.ExecContext(ctx, query, endedAt, id)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(rowsAffected), nil
}

// InsertMessage вставляет сообщение в сессию и увеличивает её счётчик сообщений.
func (s *Storage) InsertMessage(ctx context.Context, msg models.ChatMessage) (int, error) {
	const op = "storage.InsertMessage"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO chat_messages (session_id, role, content, token_estimate)
			  VALUES ($1, $2, $3, $4)
			  RETURNING id`
	var newID int
	err := s.DB.QueryRowContext(ctx, query,
		msg.SessionID, msg.Role, msg.Content, msg.TokenEstimate).Scan(&newID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	bump := `UPDATE chat_sessions SET message_count = message_count + 1 WHERE id = $1`
	if _, err := s.DB.ExecContext(ctx, bump, msg.SessionID); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// ListSessionMessages возвращает сообщения сессии в порядке отправки.
func (s *Storage) ListSessionMessages(ctx context.Context, sessionID string, limit int) ([]*models.ChatMessage, error) {
	const op = "storage.ListSessionMessages"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, session_id, role, content, token_estimate, created_at
			  FROM chat_messages
			  WHERE session_id = $1
			  ORDER BY id
			  LIMIT $2`
	return s.listMessages(ctx, op, query, sessionID, limit)
}

// ListRecentSessions возвращает последние сессии пользователя начиная с момента since.
func (s *Storage) ListRecentSessions(ctx context.Context, userUID string, since time.Time, limit int) ([]*models.ChatSession, error) {
	const op = "storage.ListRecentSessions"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, user_uid, started_at, ended_at, message_count
			  FROM chat_sessions
			  WHERE user_uid = $1 AND started_at >= $2
			  ORDER BY started_at DESC
			  LIMIT $3`
	rows, err := s.DB.QueryContext(ctx, query, userUID, since, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var result []*models.ChatSession
	for rows.Next() {
		var item models.ChatSession
		if err := rows.Scan(&item.ID, &item.UserUID, &item.StartedAt,
			&item.EndedAt, &item.MessageCount); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// ListMessagesForSessions возвращает сообщения всех перечисленных сессий.
func (s *Storage) ListMessagesForSessions(ctx context.Context, sessionIDs []string) ([]*models.ChatMessage, error) {
	const op = "storage.ListMessagesForSessions"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}
	if len(sessionIDs) == 0 {
		return nil, nil
	}

	query := `SELECT id, session_id, role, content, token_estimate, created_at
			  FROM chat_messages
			  WHERE session_id = ANY($1)
			  ORDER BY id`
	rows, err := s.DB.QueryContext(ctx, query, sessionIDs)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()
	return s.collectMessages(op, rows)
}

func (s *Storage) listMessages(ctx context.Context, op, query string, args ...any) ([]*models.ChatMessage, error) {
	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()
	return s.collectMessages(op, rows)
}

func (s *Storage) collectMessages(op string, rows *sql.Rows) ([]*models.ChatMessage, error) {
	var result []*models.ChatMessage
	for rows.Next() {
		var item models.ChatMessage
		if err := rows.Scan(&item.ID, &item.SessionID, &item.Role, &item.Content,
			&item.TokenEstimate, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// CreateJournalEntry вставляет запись дневника и возвращает её ID.
func (s *Storage) CreateJournalEntry(ctx context.Context, entry models.JournalEntry) (int, error) {
	const op = "storage.CreateJournalEntry"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO journal_entries (user_uid, title, content)
			  VALUES ($1, $2, $3)
			  RETURNING id`
	var newID int
	err := s.DB.QueryRowContext(ctx, query, entry.UserUID, entry.Title, entry.Content).Scan(&newID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// ListJournalSince возвращает записи дневника пользователя начиная с момента since.
func (s *Storage) ListJournalSince(ctx context.Context, userUID string, since time.Time, limit int) ([]*models.JournalEntry, error) {
	const op = "storage.ListJournalSince"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, user_uid, title, content, created_at
			  FROM journal_entries
			  WHERE user_uid = $1 AND created_at >= $2
			  ORDER BY created_at DESC
			  LIMIT $3`
	rows, err := s.DB.QueryContext(ctx, query, userUID, since, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var result []*models.JournalEntry
	for rows.Next() {
		var item models.JournalEntry
		if err := rows.Scan(&item.ID, &item.UserUID, &item.Title, &item.Content,
			&item.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// CreateMoodEntry вставляет запись настроения и возвращает её ID.
func (s *Storage) CreateMoodEntry(ctx context.Context, entry models.MoodEntry) (int, error) {
	const op = "storage.CreateMoodEntry"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO mood_entries (user_uid, score, note)
			  VALUES ($1, $2, $3)
			  RETURNING id`
	var newID int
	err := s.DB.QueryRowContext(ctx, query, entry.UserUID, entry.Score, entry.Note).Scan(&newID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// ListMoodsSince возвращает записи настроения пользователя начиная с момента since.
func (s *Storage) ListMoodsSince(ctx context.Context, userUID string, since time.Time, limit int) ([]*models.MoodEntry, error) {
	const op = "storage.ListMoodsSince"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, user_uid, score, note, created_at
			  FROM mood_entries
			  WHERE user_uid = $1 AND created_at >= $2
			  ORDER BY created_at DESC
			  LIMIT $3`
	rows, err := s.DB.QueryContext(ctx, query, userUID, since, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var result []*models.MoodEntry
	for rows.Next() {
		var item models.MoodEntry
		if err := rows.Scan(&item.ID, &item.UserUID, &item.Score, &item.Note,
			&item.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
