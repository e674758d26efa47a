package chatsend

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/mindwellhq/mindwell-backend/internal/aiclient"
	"github.com/mindwellhq/mindwell-backend/internal/http/middlewarectx"
	"github.com/mindwellhq/mindwell-backend/internal/models"
	chatservice "github.com/mindwellhq/mindwell-backend/internal/services/chat"
)

// Мок сервиса с методом SendMessage
type ChatServiceMock struct {
	mock.Mock
}

func (m *ChatServiceMock) SendMessage(ctx context.Context, userUID, tier, sessionID, content string) (string, error) {
	args := m.Called(ctx, userUID, tier, sessionID, content)
	return args.String(0), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestSendHandler_ServeHTTP(t *testing.T) {
	const sessionID = "6f1c1d34-9a2b-4c3d-8e5f-0a1b2c3d4e5f"

	chatMock := new(ChatServiceMock)
	logger := newNoopLogger()

	handler := New(logger, chatMock)

	tests := []struct {
		name           string
		requestBody    interface{}
		ctxUID         string
		mockReply      string
		mockErr        error
		wantStatusCode int
		wantData       map[string]any
		wantError      string
		wantStatus     string
	}{
		{
			name: "valid message",
			requestBody: models.DummySend{
				SessionID: sessionID,
				Content:   "I feel anxious today",
			},
			ctxUID:         "uid-123",
			mockReply:      "Tell me more about it.",
			wantStatusCode: http.StatusOK,
			wantData: map[string]any{
				"reply": "Tell me more about it.",
			},
			wantStatus: "OK",
		},
		{
			name:           "invalid json body",
			requestBody:    "not a json",
			ctxUID:         "uid-123",
			wantStatusCode: http.StatusBadRequest,
			wantError:      "invalid request body",
			wantStatus:     "Error",
		},
		{
			name: "validation error - missing content",
			requestBody: models.DummySend{
				SessionID: sessionID,
			},
			ctxUID:         "uid-123",
			wantStatusCode: http.StatusUnprocessableEntity,
			wantError:      "field Content is a required field",
			wantStatus:     "Error",
		},
		{
			name: "missing user uid in context",
			requestBody: models.DummySend{
				SessionID: sessionID,
				Content:   "hello",
			},
			ctxUID:         "",
			wantStatusCode: http.StatusUnauthorized,
			wantError:      "unauthorized",
			wantStatus:     "Error",
		},
		{
			name: "session not found",
			requestBody: models.DummySend{
				SessionID: sessionID,
				Content:   "hello",
			},
			ctxUID:         "uid-123",
			mockErr:        chatservice.ErrSessionNotFound,
			wantStatusCode: http.StatusNotFound,
			wantError:      "session not found",
			wantStatus:     "Error",
		},
		{
			name: "session already closed",
			requestBody: models.DummySend{
				SessionID: sessionID,
				Content:   "hello",
			},
			ctxUID:         "uid-123",
			mockErr:        chatservice.ErrSessionClosed,
			wantStatusCode: http.StatusConflict,
			wantError:      "session already closed",
			wantStatus:     "Error",
		},
		{
			name: "companion unavailable",
			requestBody: models.DummySend{
				SessionID: sessionID,
				Content:   "hello",
			},
			ctxUID:         "uid-123",
			mockErr:        aiclient.ErrUnavailable,
			wantStatusCode: http.StatusServiceUnavailable,
			wantError:      "companion is temporarily unavailable",
			wantStatus:     "Error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chatMock.ExpectedCalls = nil
			chatMock.Calls = nil

			if tt.ctxUID != "" && tt.wantStatusCode != http.StatusBadRequest &&
				tt.wantStatusCode != http.StatusUnprocessableEntity {
				chatMock.On("SendMessage", mock.Anything,
					tt.ctxUID,
					mock.Anything,
					sessionID,
					mock.Anything,
				).Return(tt.mockReply, tt.mockErr).Once()
			}

			var bodyBytes []byte
			var err error
			switch v := tt.requestBody.(type) {
			case string:
				bodyBytes = []byte(v)
			default:
				bodyBytes, err = json.Marshal(tt.requestBody)
				if err != nil {
					t.Fatal(err)
				}
			}

			req := httptest.NewRequest(http.MethodPost, "/chat/messages", bytes.NewReader(bodyBytes))
			ctx := context.WithValue(req.Context(), middleware.RequestIDKey, "reqid123")
			if tt.ctxUID != "" {
				ctx = context.WithValue(ctx, middlewarectx.UserUID, tt.ctxUID)
			}
			req = req.WithContext(ctx)

			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatusCode, rec.Code)

			var got map[string]any
			err = json.NewDecoder(rec.Body).Decode(&got)
			assert.NoError(t, err)

			assert.Equal(t, tt.wantStatus, got["status"])

			if tt.wantError != "" {
				errStr, ok := got["error"].(string)
				assert.True(t, ok)
				assert.Equal(t, tt.wantError, errStr)
			} else {
				assert.Nil(t, got["error"])
			}

			if tt.wantData != nil {
				data, ok := got["data"].(map[string]any)
				assert.True(t, ok)
				for k, v := range tt.wantData {
					assert.Equal(t, v, data[k])
				}
			}

			chatMock.AssertExpectations(t)
		})
	}
}
