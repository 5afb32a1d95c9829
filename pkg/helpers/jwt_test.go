package helpers

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTManagerRoundTrip(t *testing.T) {
	m := NewJWTManager("test-secret", 0)

	tok, exp, err := m.Sign("u1", "u1@example.com")
	require.NoError(t, err)
	assert.True(t, exp.IsZero())

	claims, err := m.Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, "u1@example.com", claims.Email)
	assert.Nil(t, claims.ExpiresAt)
}

func TestJWTManagerWithTTL(t *testing.T) {
	m := NewJWTManager("test-secret", time.Hour)

	tok, exp, err := m.Sign("u1", "u1@example.com")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, 5*time.Second)

	claims, err := m.Parse(tok)
	require.NoError(t, err)
	require.NotNil(t, claims.ExpiresAt)
}

func TestJWTManagerRejects(t *testing.T) {
	m := NewJWTManager("test-secret", 0)
	other := NewJWTManager("other-secret", 0)
	foreign, _, err := other.Sign("u1", "u1@example.com")
	require.NoError(t, err)

	expired := NewJWTManager("test-secret", 0)
	expiredClaims := &Claims{
		UserID: "u1",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	}
	stale, err := jwt.NewWithClaims(jwt.SigningMethodHS256, expiredClaims).SignedString(expired.Secret)
	require.NoError(t, err)

	for name, tok := range map[string]string{
		"garbage":      "not-a-token",
		"wrong secret": foreign,
		"expired":      stale,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := m.Parse(tok)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}
