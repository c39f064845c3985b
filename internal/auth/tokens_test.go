package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	ts := NewTokenService("test-secret", 15*time.Minute)

	pair, err := ts.GenerateTokenPair("user-1", "user@example.com")
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)

	claims, err := ts.ParseToken(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "user@example.com", claims.Email)
}

func TestExpiredTokenRejected(t *testing.T) {
	ts := NewTokenService("test-secret", -time.Minute)

	pair, err := ts.GenerateTokenPair("user-1", "user@example.com")
	require.NoError(t, err)

	_, err = ts.ParseToken(pair.AccessToken)
	assert.Error(t, err)
}

func TestWrongSecretRejected(t *testing.T) {
	ts := NewTokenService("test-secret", 15*time.Minute)
	other := NewTokenService("other-secret", 15*time.Minute)

	pair, err := ts.GenerateTokenPair("user-1", "user@example.com")
	require.NoError(t, err)

	_, err = other.ParseToken(pair.AccessToken)
	assert.Error(t, err)
}
