// Package services содержит логику чат-сессий пользователя с ИИ-компаньоном:
// открытие и закрытие сессий, обмен сообщениями и историю переписки.
// Ответ компаньона генерируется внешним сервисом с учётом профиля
// персонализации пользователя.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/mindwellhq/mindwell-backend/internal/aiclient"
	"github.com/mindwellhq/mindwell-backend/internal/lib/sl"
	"github.com/mindwellhq/mindwell-backend/internal/models"
	"github.com/mindwellhq/mindwell-backend/internal/storage/repository"
)

// Ошибки уровня сервиса.
var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionClosed   = errors.New("session already closed")
	ErrForeignSession  = errors.New("session belongs to another user")
)

// Количество последних сообщений, передаваемых сервису генерации как контекст.
const contextMessages = 20

// HistoryRepository описывает операции хранилища над сессиями и сообщениями.
type HistoryRepository interface {
	CreateSession(ctx context.Context, session models.ChatSession) error
	GetSession(ctx context.Context, id string) (*models.ChatSession, error)
	CloseSession(ctx context.Context, id string, endedAt time.Time) (int, error)
	InsertMessage(ctx context.Context, msg models.ChatMessage) (int, error)
	ListSessionMessages(ctx context.Context, sessionID string, limit int) ([]*models.ChatMessage, error)
}

// ProfileReader читает профиль персонализации для подстройки ответа.
type ProfileReader interface {
	GetProfile(ctx context.Context, userUID string) (*models.Profile, error)
}

// Generator описывает внешний сервис генерации ответов компаньона.
type Generator interface {
	Generate(ctx context.Context, req aiclient.GenerateRequest) (string, error)
}

// ChatService управляет чат-сессиями и обменом сообщениями.
type ChatService struct {
	history   HistoryRepository
	profiles  ProfileReader
	generator Generator
	log       *slog.Logger
}

// NewChatService создает новый экземпляр ChatService.
func NewChatService(history HistoryRepository, profiles ProfileReader, generator Generator, log *slog.Logger) *ChatService {
	return &ChatService{
		history:   history,
		profiles:  profiles,
		generator: generator,
		log:       log,
	}
}

// StartSession открывает новую чат-сессию и возвращает её идентификатор.
func (s *ChatService) StartSession(ctx context.Context, userUID string) (string, error) {
	const op = "chat.StartSession"

	session := models.ChatSession{
		ID:        uuid.NewString(),
		UserUID:   userUID,
		StartedAt: time.Now().UTC(),
	}
	if err := s.history.CreateSession(ctx, session); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return session.ID, nil
}

// SendMessage сохраняет сообщение пользователя, запрашивает ответ компаньона
// с учётом профиля и уровня доступа и сохраняет ответ в истории.
func (s *ChatService) SendMessage(ctx context.Context, userUID, tier, sessionID, content string) (string, error) {
	const op = "chat.SendMessage"

	session, err := s.ownedSession(ctx, userUID, sessionID)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if session.EndedAt != nil {
		return "", fmt.Errorf("%s: %w", op, ErrSessionClosed)
	}

	userMsg := models.ChatMessage{
		SessionID:     sessionID,
		Role:          models.RoleUser,
		Content:       content,
		TokenEstimate: len(content) / 4,
		CreatedAt:     time.Now().UTC(),
	}
	if _, err := s.history.InsertMessage(ctx, userMsg); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	reply, err := s.generateReply(ctx, userUID, tier, sessionID)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	assistantMsg := models.ChatMessage{
		SessionID:     sessionID,
		Role:          models.RoleAssistant,
		Content:       reply,
		TokenEstimate: len(reply) / 4,
		CreatedAt:     time.Now().UTC(),
	}
	if _, err := s.history.InsertMessage(ctx, assistantMsg); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return reply, nil
}

// generateReply собирает контекст диалога и настройки стиля из профиля
// и обращается к сервису генерации. Отсутствие профиля не ошибка.
func (s *ChatService) generateReply(ctx context.Context, userUID, tier, sessionID string) (string, error) {
	recent, err := s.history.ListSessionMessages(ctx, sessionID, contextMessages)
	if err != nil {
		return "", err
	}

	req := aiclient.GenerateRequest{Tier: tier}
	for _, msg := range recent {
		req.Messages = append(req.Messages, aiclient.Message{Role: msg.Role, Content: msg.Content})
	}

	profile, err := s.profiles.GetProfile(ctx, userUID)
	switch {
	case err == nil:
		req.Style = profile.CommunicationStyle
		req.Verbosity = profile.ResponseLength
		if profile.Overrides.CommunicationStyle != nil {
			req.Style = *profile.Overrides.CommunicationStyle
		}
		if profile.Overrides.ResponseLength != nil {
			req.Verbosity = *profile.Overrides.ResponseLength
		}
	case errors.Is(err, repository.ErrNotFound):
		// Профиль появится после первого прогона анализа.
	default:
		s.log.Warn("failed to load profile for reply", sl.Err(err))
	}

	return s.generator.Generate(ctx, req)
}

// History возвращает сообщения сессии в хронологическом порядке.
func (s *ChatService) History(ctx context.Context, userUID, sessionID string, limit int) ([]*models.ChatMessage, error) {
	const op = "chat.History"

	if _, err := s.ownedSession(ctx, userUID, sessionID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	messages, err := s.history.ListSessionMessages(ctx, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return messages, nil
}

// EndSession закрывает сессию. Повторное закрытие возвращает ErrSessionClosed.
func (s *ChatService) EndSession(ctx context.Context, userUID, sessionID string) error {
	const op = "chat.EndSession"

	if _, err := s.ownedSession(ctx, userUID, sessionID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	affected, err := s.history.CloseSession(ctx, sessionID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if affected == 0 {
		return fmt.Errorf("%s: %w", op, ErrSessionClosed)
	}
	return nil
}

// ownedSession возвращает сессию, если она существует и принадлежит пользователю.
func (s *ChatService) ownedSession(ctx context.Context, userUID, sessionID string) (*models.ChatSession, error) {
	session, err := s.history.GetSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	if session.UserUID != userUID {
		return nil, ErrForeignSession
	}
	return session, nil
}
