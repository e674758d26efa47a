package subcancel

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/mindwellhq/mindwell-backend/internal/http/middlewarectx"
	subscriptionservice "github.com/mindwellhq/mindwell-backend/internal/services/subscription"
)

// Мок сервиса с методом Cancel
type SubscriptionServiceMock struct {
	mock.Mock
}

func (m *SubscriptionServiceMock) Cancel(ctx context.Context, userUID string) error {
	args := m.Called(ctx, userUID)
	return args.Error(0)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestCancelHandler_ServeHTTP(t *testing.T) {
	subMock := new(SubscriptionServiceMock)
	logger := newNoopLogger()

	handler := New(logger, subMock)

	tests := []struct {
		name           string
		ctxUID         string
		mockErr        error
		wantStatusCode int
		wantError      string
		wantStatus     string
	}{
		{
			name:           "successful cancel",
			ctxUID:         "uid-123",
			wantStatusCode: http.StatusOK,
			wantStatus:     "OK",
		},
		{
			name:           "missing user uid in context",
			ctxUID:         "",
			wantStatusCode: http.StatusUnauthorized,
			wantError:      "unauthorized",
			wantStatus:     "Error",
		},
		{
			name:           "no active subscription",
			ctxUID:         "uid-123",
			mockErr:        subscriptionservice.ErrNoActiveSubscription,
			wantStatusCode: http.StatusConflict,
			wantError:      "no active subscription",
			wantStatus:     "Error",
		},
		{
			name:           "storage error",
			ctxUID:         "uid-123",
			mockErr:        errors.New("storage error"),
			wantStatusCode: http.StatusInternalServerError,
			wantError:      "could not cancel subscription",
			wantStatus:     "Error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			subMock.ExpectedCalls = nil
			subMock.Calls = nil

			if tt.ctxUID != "" {
				subMock.On("Cancel", mock.Anything, tt.ctxUID).Return(tt.mockErr).Once()
			}

			req := httptest.NewRequest(http.MethodDelete, "/subscription", nil)
			ctx := context.WithValue(req.Context(), middleware.RequestIDKey, "reqid123")
			if tt.ctxUID != "" {
				ctx = context.WithValue(ctx, middlewarectx.UserUID, tt.ctxUID)
			}
			req = req.WithContext(ctx)

			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatusCode, rec.Code)

			var got map[string]any
			err := json.NewDecoder(rec.Body).Decode(&got)
			assert.NoError(t, err)

			assert.Equal(t, tt.wantStatus, got["status"])

			if tt.wantError != "" {
				errStr, ok := got["error"].(string)
				assert.True(t, ok)
				assert.Equal(t, tt.wantError, errStr)
			} else {
				assert.Nil(t, got["error"])
			}

			subMock.AssertExpectations(t)
		})
	}
}
