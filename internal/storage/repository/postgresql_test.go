package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mindwellhq/mindwell-backend/internal/models"
)

func TestStorage_RegisterUser(t *testing.T) {
	type args struct {
		ctx  context.Context
		user models.User
	}

	trialEndsAt := time.Now().AddDate(0, 0, 7)
	subscriptionID := uuid.New().String()

	tests := []struct {
		name    string
		args    args
		wantErr bool
		setup   func(t *testing.T, factory *TestDataFactory)
	}{
		{
			name: "successful register user",
			args: args{
				ctx: context.Background(),
				user: models.User{
					UID:          uuid.New().String(),
					Email:        "test@example.com",
					Username:     "testuser",
					PasswordHash: "hashedpassword",
					Role:         "user",
					Mirror: models.Mirror{
						IsActive:       true,
						Tier:           models.TierPremium,
						PlanID:         models.PlanTrial,
						SubscriptionID: &subscriptionID,
						ExpiresAt:      &trialEndsAt,
						IsTrial:        true,
						TrialEndsAt:    &trialEndsAt,
					},
				},
			},
			wantErr: false,
			setup:   func(_ *testing.T, _ *TestDataFactory) {},
		},
		{
			name: "register user with duplicate username",
			args: args{
				ctx: context.Background(),
				user: models.User{
					UID:          uuid.New().String(),
					Email:        "test2@example.com",
					Username:     "testuser", // duplicate username
					PasswordHash: "hashedpassword2",
					Role:         "user",
				},
			},
			wantErr: true,
			setup: func(t *testing.T, factory *TestDataFactory) {
				factory.CreateUser(t, uuid.New().String(), "testuser", "test@example.com", "hashedpassword", "user")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			storage, cleanup := setupTestDatabase(t)
			defer cleanup()

			factory := NewTestDataFactory(storage)
			tt.setup(t, factory)

			uid, err := storage.RegisterUser(tt.args.ctx, tt.args.user)

			if tt.wantErr {
				require.Error(t, err)
				assert.Empty(t, uid)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.args.user.UID, uid)

			verification := NewTestVerification(storage)
			verification.VerifyUserExists(t, uid)
		})
	}
}

func TestStorage_GetUserByUsername(t *testing.T) {
	tests := []struct {
		name     string
		username string
		wantErr  bool
		setup    func(t *testing.T, factory *TestDataFactory) string
	}{
		{
			name:     "successful get user by username",
			username: "testuser",
			wantErr:  false,
			setup: func(t *testing.T, factory *TestDataFactory) string {
				return factory.NewTestUser(t)
			},
		},
		{
			name:     "get non-existing user",
			username: "nonexistent",
			wantErr:  true,
			setup:    func(_ *testing.T, _ *TestDataFactory) string { return "" },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			storage, cleanup := setupTestDatabase(t)
			defer cleanup()

			factory := NewTestDataFactory(storage)
			userUID := tt.setup(t, factory)

			got, err := storage.GetUserByUsername(context.Background(), tt.username)

			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrNotFound)
				assert.Nil(t, got)
				return
			}

			require.NoError(t, err)
			require.NotNil(t, got)
			assert.Equal(t, userUID, got.UID)
			assert.Equal(t, "testuser", got.Username)
			assert.Equal(t, "test@example.com", got.Email)
			assert.Equal(t, "hashedpassword", got.PasswordHash)
			assert.Equal(t, "user", got.Role)
		})
	}
}

func TestStorage_GetCurrentSubscription(t *testing.T) {
	trialEndsAt := time.Now().AddDate(0, 0, 7)

	tests := []struct {
		name       string
		wantStatus string
		wantErr    bool
		setup      func(t *testing.T, factory *TestDataFactory) string
	}{
		{
			name:       "returns trialing subscription",
			wantStatus: models.StatusTrialing,
			wantErr:    false,
			setup: func(t *testing.T, factory *TestDataFactory) string {
				userUID := factory.NewTestUser(t)
				factory.CreateSubscription(t, uuid.New().String(), userUID,
					models.PlanTrial, models.StatusTrialing, &trialEndsAt, nil, true)
				return userUID
			},
		},
		{
			name:    "expired subscription is not current",
			wantErr: true,
			setup: func(t *testing.T, factory *TestDataFactory) string {
				userUID := factory.NewTestUser(t)
				expiresAt := time.Now().AddDate(0, -1, 0)
				factory.CreateSubscription(t, uuid.New().String(), userUID,
					models.PlanMonthly, models.StatusExpired, nil, &expiresAt, false)
				return userUID
			},
		},
		{
			name:    "no subscriptions at all",
			wantErr: true,
			setup: func(t *testing.T, factory *TestDataFactory) string {
				return factory.NewTestUser(t)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			storage, cleanup := setupTestDatabase(t)
			defer cleanup()

			factory := NewTestDataFactory(storage)
			userUID := tt.setup(t, factory)

			got, err := storage.GetCurrentSubscription(context.Background(), userUID)

			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrNotFound)
				return
			}

			require.NoError(t, err)
			require.NotNil(t, got)
			assert.Equal(t, tt.wantStatus, got.Status)
			assert.Equal(t, userUID, got.UserUID)
		})
	}
}

func TestStorage_CancelSubscription(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	factory := NewTestDataFactory(storage)
	userUID := factory.NewTestUser(t)

	subscriptionID := uuid.New().String()
	trialEndsAt := time.Now().AddDate(0, 0, 7)
	factory.CreateSubscription(t, subscriptionID, userUID,
		models.PlanTrial, models.StatusTrialing, &trialEndsAt, nil, true)

	now := time.Now()

	affected, err := storage.CancelSubscription(context.Background(), subscriptionID, now)
	require.NoError(t, err)
	assert.Equal(t, 1, affected)

	verification := NewTestVerification(storage)
	verification.VerifySubscriptionCancelled(t, subscriptionID)

	// Повторная отмена уже отменённой подписки не меняет строк
	affected, err = storage.CancelSubscription(context.Background(), subscriptionID, now)
	require.NoError(t, err)
	assert.Equal(t, 0, affected)
}

func TestStorage_ListDueTrials(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	factory := NewTestDataFactory(storage)
	userUID := factory.NewTestUser(t)

	pastEnd := time.Now().Add(-time.Hour)
	futureEnd := time.Now().Add(24 * time.Hour)
	dueID := uuid.New().String()
	factory.CreateSubscription(t, dueID, userUID, models.PlanTrial, models.StatusTrialing, &pastEnd, nil, true)
	factory.CreateSubscription(t, uuid.New().String(), userUID, models.PlanTrial, models.StatusTrialing, &futureEnd, nil, true)

	got, err := storage.ListDueTrials(context.Background(), time.Now(), 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, dueID, got[0].ID)
}

func TestStorage_SessionLifecycle(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	factory := NewTestDataFactory(storage)
	userUID := factory.NewTestUser(t)

	ctx := context.Background()
	sessionID := uuid.New().String()
	startedAt := time.Now().Add(-10 * time.Minute)

	err := storage.CreateSession(ctx, models.ChatSession{
		ID:        sessionID,
		UserUID:   userUID,
		StartedAt: startedAt,
	})
	require.NoError(t, err)

	// Сообщения увеличивают счётчик сессии
	id1, err := storage.InsertMessage(ctx, models.ChatMessage{
		SessionID: sessionID, Role: models.RoleUser, Content: "hello", TokenEstimate: 1,
	})
	require.NoError(t, err)
	id2, err := storage.InsertMessage(ctx, models.ChatMessage{
		SessionID: sessionID, Role: models.RoleAssistant, Content: "hi there", TokenEstimate: 2,
	})
	require.NoError(t, err)
	assert.Greater(t, id2, id1)

	verification := NewTestVerification(storage)
	verification.VerifySessionMessageCount(t, sessionID, 2)

	messages, err := storage.ListSessionMessages(ctx, sessionID, 10)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, models.RoleUser, messages[0].Role)
	assert.Equal(t, models.RoleAssistant, messages[1].Role)

	// Закрытие сессии
	affected, err := storage.CloseSession(ctx, sessionID, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 1, affected)

	session, err := storage.GetSession(ctx, sessionID)
	require.NoError(t, err)
	require.NotNil(t, session.EndedAt)
	assert.Equal(t, 2, session.MessageCount)

	// Повторное закрытие не меняет строк
	affected, err = storage.CloseSession(ctx, sessionID, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 0, affected)

	// Несуществующая сессия
	_, err = storage.GetSession(ctx, uuid.New().String())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStorage_JournalAndMood(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	factory := NewTestDataFactory(storage)
	userUID := factory.NewTestUser(t)

	ctx := context.Background()

	journalID, err := storage.CreateJournalEntry(ctx, models.JournalEntry{
		UserUID: userUID,
		Title:   "Morning pages",
		Content: "Slept well, feeling rested",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, journalID)

	moodID, err := storage.CreateMoodEntry(ctx, models.MoodEntry{
		UserUID: userUID,
		Score:   7,
		Note:    "pretty good",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, moodID)

	since := time.Now().AddDate(0, 0, -1)

	entries, err := storage.ListJournalSince(ctx, userUID, since, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Morning pages", entries[0].Title)

	moods, err := storage.ListMoodsSince(ctx, userUID, since, 10)
	require.NoError(t, err)
	require.Len(t, moods, 1)
	assert.Equal(t, 7, moods[0].Score)

	// Выборка с since в будущем пуста
	future := time.Now().Add(time.Hour)
	entries, err = storage.ListJournalSince(ctx, userUID, future, 10)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestStorage_ProfileRoundTrip(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	factory := NewTestDataFactory(storage)
	userUID := factory.NewTestUser(t)

	ctx := context.Background()

	// Профиль ещё не создавался
	_, err := storage.GetProfile(ctx, userUID)
	assert.ErrorIs(t, err, ErrNotFound)

	style := "direct"
	profile := &models.Profile{
		UserUID:            userUID,
		CommunicationStyle: "gentle",
		ResponseLength:     "moderate",
		TopicInterests:     []string{"anxiety", "work"},
		EngagementTrend:    models.TrendStable,
		DataQuality:        0.45,
		Overrides:          models.Overrides{CommunicationStyle: &style},
	}
	require.NoError(t, storage.SaveProfile(ctx, profile))

	got, err := storage.GetProfile(ctx, userUID)
	require.NoError(t, err)
	assert.Equal(t, userUID, got.UserUID)
	assert.Equal(t, "gentle", got.CommunicationStyle)
	assert.Equal(t, []string{"anxiety", "work"}, got.TopicInterests)
	require.NotNil(t, got.Overrides.CommunicationStyle)
	assert.Equal(t, "direct", *got.Overrides.CommunicationStyle)

	// Повторное сохранение обновляет запись
	profile.CommunicationStyle = "supportive"
	require.NoError(t, storage.SaveProfile(ctx, profile))

	got, err = storage.GetProfile(ctx, userUID)
	require.NoError(t, err)
	assert.Equal(t, "supportive", got.CommunicationStyle)
}

func TestStorage_ListActiveUsersSince(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	factory := NewTestDataFactory(storage)

	activeUID := uuid.New().String()
	idleUID := uuid.New().String()
	factory.CreateUser(t, activeUID, "activeuser", "active@example.com", "hashedpassword", "user")
	factory.CreateUser(t, idleUID, "idleuser", "idle@example.com", "hashedpassword", "user")

	factory.CreateSession(t, uuid.New().String(), activeUID, time.Now().Add(-time.Hour))
	factory.CreateSession(t, uuid.New().String(), idleUID, time.Now().AddDate(0, 0, -30))

	since := time.Now().AddDate(0, 0, -7)
	got, err := storage.ListActiveUsersSince(context.Background(), since, 100)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, activeUID, got[0].UID)
}

func TestCheckDatabaseReady(t *testing.T) {
	tests := []struct {
		name         string
		setup        func(t *testing.T, storage *Storage)
		wantError    bool
		errorContain string
	}{
		{
			name: "table exists",
			setup: func(_ *testing.T, _ *Storage) {
				// Таблица уже создается в setupTestDatabase
			},
			wantError: false,
		},
		{
			name: "table missing",
			setup: func(t *testing.T, storage *Storage) {
				_, err := storage.DB.Exec(`DROP TABLE IF EXISTS subscriptions CASCADE`)
				require.NoError(t, err)
			},
			wantError:    true,
			errorContain: "missing",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			storage, cleanup := setupTestDatabase(t)
			defer cleanup()
			tt.setup(t, storage)

			err := CheckDatabaseReady(storage)
			if tt.wantError {
				require.Error(t, err)
				if tt.errorContain != "" {
					assert.Contains(t, err.Error(), tt.errorContain)
				}
			} else {
				require.NoError(t, err)
			}
		})
	}
}
