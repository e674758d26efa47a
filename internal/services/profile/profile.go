// Package services содержит поверхность профиля персонализации:
// чтение профиля и установку явных предпочтений пользователя,
// блокирующих автоматические выводы анализатора.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mindwellhq/mindwell-backend/internal/models"
	"github.com/mindwellhq/mindwell-backend/internal/storage/repository"
)

// ProfileRepository описывает операции хранилища над профилем.
type ProfileRepository interface {
	GetProfile(ctx context.Context, userUID string) (*models.Profile, error)
	SaveProfile(ctx context.Context, profile *models.Profile) error
}

// ProfileService обслуживает запросы чтения и настройки профиля.
type ProfileService struct {
	profiles ProfileRepository
}

// NewProfileService создает новый экземпляр ProfileService.
func NewProfileService(profiles ProfileRepository) *ProfileService {
	return &ProfileService{profiles: profiles}
}

// Get возвращает профиль пользователя. Для пользователя без накопленной
// истории возвращается профиль с значениями по умолчанию.
func (s *ProfileService) Get(ctx context.Context, userUID string) (*models.Profile, error) {
	const op = "profile.Get"

	profile, err := s.profiles.GetProfile(ctx, userUID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return &models.Profile{
				UserUID:            userUID,
				CommunicationStyle: models.StyleSupportive,
				ResponseLength:     models.VerbosityModerate,
				EngagementTrend:    models.TrendStable,
			}, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return profile, nil
}

// SetOverrides записывает явные предпочтения пользователя. Пустое поле
// снимает соответствующее предпочтение. Заданное предпочтение сразу
// становится действующим значением атрибута.
func (s *ProfileService) SetOverrides(ctx context.Context, userUID string, overrides models.DummyOverrides) (*models.Profile, error) {
	const op = "profile.SetOverrides"

	profile, err := s.Get(ctx, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if overrides.CommunicationStyle != "" {
		style := overrides.CommunicationStyle
		profile.Overrides.CommunicationStyle = &style
		profile.CommunicationStyle = style
	} else {
		profile.Overrides.CommunicationStyle = nil
	}
	if overrides.ResponseLength != "" {
		length := overrides.ResponseLength
		profile.Overrides.ResponseLength = &length
		profile.ResponseLength = length
	} else {
		profile.Overrides.ResponseLength = nil
	}
	profile.UpdatedAt = time.Now().UTC()

	if err := s.profiles.SaveProfile(ctx, profile); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return profile, nil
}
