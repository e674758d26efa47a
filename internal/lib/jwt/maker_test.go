package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndParseToken(t *testing.T) {
	maker := NewJWTMaker("test-secret", time.Hour)

	token, err := maker.GenerateToken("alice", "user", "uid-123")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := maker.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, "user", claims.Role)
	assert.Equal(t, "uid-123", claims.UserUID)
}

func TestParseToken_WrongSecret(t *testing.T) {
	maker := NewJWTMaker("test-secret", time.Hour)
	other := NewJWTMaker("other-secret", time.Hour)

	token, err := maker.GenerateToken("alice", "user", "uid-123")
	require.NoError(t, err)

	_, err = other.ParseToken(token)
	assert.Error(t, err)
}

func TestParseToken_Expired(t *testing.T) {
	maker := NewJWTMaker("test-secret", -time.Minute)

	token, err := maker.GenerateToken("alice", "user", "uid-123")
	require.NoError(t, err)

	_, err = maker.ParseToken(token)
	assert.Error(t, err)
}
