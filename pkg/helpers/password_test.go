package helpers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashPassword(t *testing.T) {
	PasswordCost = bcrypt.MinCost
	t.Cleanup(func() { PasswordCost = bcrypt.DefaultCost })

	a, err := HashPassword("password123")
	require.NoError(t, err)
	b, err := HashPassword("password123")
	require.NoError(t, err)

	assert.NotEqual(t, "password123", a)
	assert.NotEqual(t, a, b, "salted hashes must differ")
	assert.True(t, CompareHashAndPassword(a, "password123"))
	assert.True(t, CompareHashAndPassword(b, "password123"))
	assert.False(t, CompareHashAndPassword(a, "password124"))
	assert.False(t, CompareHashAndPassword("not-a-hash", "password123"))
}
