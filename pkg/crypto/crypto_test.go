package crypto_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/veriauth/veriauth/pkg/crypto"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := crypto.HashPassword("password123")
	require.NoError(t, err)
	require.NotEqual(t, "password123", hash)

	require.True(t, crypto.VerifyPassword(hash, "password123"))
	require.False(t, crypto.VerifyPassword(hash, "password124"))
	require.False(t, crypto.VerifyPassword("not-a-hash", "password123"))
}

func TestHashPasswordSalts(t *testing.T) {
	first, err := crypto.HashPassword("password123")
	require.NoError(t, err)
	second, err := crypto.HashPassword("password123")
	require.NoError(t, err)

	require.NotEqual(t, first, second)
}

func TestGenerateToken(t *testing.T) {
	token, err := crypto.GenerateToken(48)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	// URL safe: tokens are embedded in links.
	require.NotContains(t, token, "+")
	require.NotContains(t, token, "/")
	require.NotContains(t, token, "=")

	other, err := crypto.GenerateToken(48)
	require.NoError(t, err)
	require.NotEqual(t, token, other)
}
