// Package services содержит логику бизнес-уровня для регистрации,
// авторизации и валидации JWT. Регистрация сразу открывает пользователю
// пробный период: создаётся каноническая запись подписки в статусе trialing
// и начальное зеркало на записи пользователя.
package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/mindwellhq/mindwell-backend/internal/lib/jwt"
	"github.com/mindwellhq/mindwell-backend/internal/lib/password"
	"github.com/mindwellhq/mindwell-backend/internal/models"
)

// ErrInvalidCredentials возвращается при неверной паре логин/пароль.
var ErrInvalidCredentials = errors.New("invalid credentials")

// UserRepository описывает контракт для работы с пользователями в базе данных.
type UserRepository interface {
	// RegisterUser сохраняет нового пользователя и возвращает его uid.
	RegisterUser(ctx context.Context, user models.User) (string, error)

	// GetUserByUsername возвращает пользователя по имени или ошибку, если не найден.
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)

	// CreateSubscription сохраняет новую каноническую запись подписки.
	CreateSubscription(ctx context.Context, sub models.Subscription) error
}

// AuthService отвечает за регистрацию, авторизацию и валидацию JWT.
type AuthService struct {
	users     UserRepository
	jwtMaker  jwt.Maker
	trialDays int
}

// NewAuthService создает новый экземпляр AuthService.
func NewAuthService(users UserRepository, jwtMaker jwt.Maker, trialDays int) *AuthService {
	if trialDays <= 0 {
		trialDays = 7
	}
	return &AuthService{
		users:     users,
		jwtMaker:  jwtMaker,
		trialDays: trialDays,
	}
}

// Register создает нового пользователя с хэшированием пароля, дефолтной
// ролью "user" и стартовым пробным периодом.
func (s *AuthService) Register(ctx context.Context, email, username, rawPassword string) (string, error) {
	hashed, err := password.GetHash(rawPassword)
	if err != nil {
		return "", err
	}

	now := time.Now().UTC()
	trialEndsAt := now.AddDate(0, 0, s.trialDays)
	subscriptionID := uuid.NewString()

	user := models.User{
		UID:          uuid.NewString(),
		Email:        email,
		Username:     username,
		PasswordHash: hashed,
		Role:         "user", // дефолтная роль при регистрации
		Mirror: models.Mirror{
			IsActive:       true,
			Tier:           models.TierPremium,
			PlanID:         models.PlanTrial,
			SubscriptionID: &subscriptionID,
			ExpiresAt:      &trialEndsAt,
			IsTrial:        true,
			TrialEndsAt:    &trialEndsAt,
		},
	}
	uid, err := s.users.RegisterUser(ctx, user)
	if err != nil {
		return "", err
	}

	sub := models.Subscription{
		ID:            subscriptionID,
		UserUID:       uid,
		PlanID:        models.PlanTrial,
		Status:        models.StatusTrialing,
		TrialStartsAt: &now,
		TrialEndsAt:   &trialEndsAt,
		AutoRenew:     true,
	}
	if err := s.users.CreateSubscription(ctx, sub); err != nil {
		return "", err
	}
	return uid, nil
}

// Login проверяет пароль пользователя и генерирует JWT.
func (s *AuthService) Login(ctx context.Context, username, rawPassword string) (token, role string, err error) {
	user, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		return "", "", ErrInvalidCredentials
	}
	if err := password.CompareHash(user.PasswordHash, rawPassword); err != nil {
		return "", "", ErrInvalidCredentials
	}
	token, err = s.jwtMaker.GenerateToken(user.Username, user.Role, user.UID)
	if err != nil {
		return "", "", err
	}
	return token, user.Role, nil
}

// ValidateToken проверяет JWT и возвращает информацию о пользователе, роль и признак валидности.
func (s *AuthService) ValidateToken(_ context.Context, token string) (*models.User, string, bool, error) {
	claims, err := s.jwtMaker.ParseToken(token)
	if err != nil {
		return nil, "", false, err
	}
	user := &models.User{
		Username: claims.Username,
		Role:     claims.Role,
		UID:      claims.UserUID,
	}
	return user, claims.Role, true, nil
}
