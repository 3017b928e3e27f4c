package token

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTManager(t *testing.T) {
	m := NewJWTManager("test-secret", 2, 7)

	t.Run("access token round trip", func(t *testing.T) {
		tok, err := m.GenerateToken(42, "alice", "USER")
		require.NoError(t, err)

		claims, err := m.VerifyToken(tok)
		require.NoError(t, err)
		assert.Equal(t, uint(42), claims.UserID)
		assert.Equal(t, "alice", claims.Username)
		assert.InDelta(t, 2*time.Hour, m.Remaining(claims), float64(time.Minute))
	})

	t.Run("refresh token is not an access token", func(t *testing.T) {
		tok, err := m.GenerateRefreshToken(42, "alice", "USER")
		require.NoError(t, err)

		_, err = m.VerifyToken(tok)
		assert.ErrorIs(t, err, ErrInvalidToken)

		claims, err := m.VerifyRefreshToken(tok)
		require.NoError(t, err)
		assert.Equal(t, TypeRefresh, claims.TokenType)
	})

	t.Run("wrong secret", func(t *testing.T) {
		tok, err := NewJWTManager("other", 2, 7).GenerateToken(1, "bob", "USER")
		require.NoError(t, err)
		_, err = m.VerifyToken(tok)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		past := NewJWTManager("test-secret", 1, 1)
		past.now = func() time.Time { return time.Now().Add(-3 * time.Hour) }
		tok, err := past.GenerateToken(1, "bob", "USER")
		require.NoError(t, err)
		_, err = m.VerifyToken(tok)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}
