package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/mindwellhq/mindwell-backend/internal/lib/jwt"
	"github.com/mindwellhq/mindwell-backend/internal/lib/password"
	"github.com/mindwellhq/mindwell-backend/internal/models"
)

type UsersMock struct{ mock.Mock }

func (m *UsersMock) RegisterUser(ctx context.Context, user models.User) (string, error) {
	args := m.Called(ctx, user)
	return args.String(0), args.Error(1)
}

func (m *UsersMock) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *UsersMock) CreateSubscription(ctx context.Context, sub models.Subscription) error {
	return m.Called(ctx, sub).Error(0)
}

func TestRegister_BootstrapsTrial(t *testing.T) {
	users := new(UsersMock)
	users.On("RegisterUser", mock.Anything, mock.MatchedBy(func(u models.User) bool {
		return u.Email == "a@b.c" &&
			u.Username == "alice" &&
			u.Role == "user" &&
			u.PasswordHash != "qwerty123" &&
			u.Mirror.IsActive &&
			u.Mirror.Tier == models.TierPremium &&
			u.Mirror.IsTrial &&
			u.Mirror.TrialEndsAt != nil &&
			!u.Mirror.TrialUsed
	})).Return("uid-1", nil).Once()
	users.On("CreateSubscription", mock.Anything, mock.MatchedBy(func(sub models.Subscription) bool {
		return sub.UserUID == "uid-1" &&
			sub.PlanID == models.PlanTrial &&
			sub.Status == models.StatusTrialing &&
			sub.AutoRenew &&
			sub.TrialStartsAt != nil &&
			sub.TrialEndsAt != nil &&
			sub.TrialEndsAt.Sub(*sub.TrialStartsAt) == 7*24*time.Hour
	})).Return(nil).Once()

	maker := jwt.NewJWTMaker("secret", time.Hour)
	svc := NewAuthService(users, maker, 7)

	uid, err := svc.Register(context.Background(), "a@b.c", "alice", "qwerty123")
	require.NoError(t, err)
	assert.Equal(t, "uid-1", uid)
	users.AssertExpectations(t)
}

func TestLogin_Success(t *testing.T) {
	hash, err := password.GetHash("qwerty123")
	require.NoError(t, err)

	users := new(UsersMock)
	users.On("GetUserByUsername", mock.Anything, "alice").Return(&models.User{
		UID:          "uid-1",
		Username:     "alice",
		PasswordHash: hash,
		Role:         "user",
	}, nil).Once()

	maker := jwt.NewJWTMaker("secret", time.Hour)
	svc := NewAuthService(users, maker, 7)

	token, role, err := svc.Login(context.Background(), "alice", "qwerty123")
	require.NoError(t, err)
	assert.Equal(t, "user", role)

	claims, err := maker.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, "uid-1", claims.UserUID)
}

func TestLogin_WrongPassword(t *testing.T) {
	hash, err := password.GetHash("qwerty123")
	require.NoError(t, err)

	users := new(UsersMock)
	users.On("GetUserByUsername", mock.Anything, "alice").Return(&models.User{
		Username:     "alice",
		PasswordHash: hash,
	}, nil).Once()

	svc := NewAuthService(users, jwt.NewJWTMaker("secret", time.Hour), 7)

	_, _, err = svc.Login(context.Background(), "alice", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogin_UnknownUser(t *testing.T) {
	users := new(UsersMock)
	users.On("GetUserByUsername", mock.Anything, "ghost").
		Return(nil, errors.New("not found")).Once()

	svc := NewAuthService(users, jwt.NewJWTMaker("secret", time.Hour), 7)

	_, _, err := svc.Login(context.Background(), "ghost", "whatever")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestValidateToken(t *testing.T) {
	maker := jwt.NewJWTMaker("secret", time.Hour)
	token, err := maker.GenerateToken("alice", "user", "uid-1")
	require.NoError(t, err)

	svc := NewAuthService(new(UsersMock), maker, 7)

	user, role, ok, err := svc.ValidateToken(context.Background(), token)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "user", role)
	assert.Equal(t, "uid-1", user.UID)
}
