package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPassword(t *testing.T) {
	t.Run("accepts passwords of 8+ characters", func(t *testing.T) {
		for _, password := range []string{"password", "p@ssw0rd!", "パスワード12345"} {
			hash, err := HashPassword(password)
			require.NoError(t, err)
			assert.NotEqual(t, password, hash)
			assert.GreaterOrEqual(t, len(hash), 60, "bcrypt hashes are 60 chars")
		}
	})

	t.Run("rejects short passwords", func(t *testing.T) {
		for _, password := range []string{"", "a", "1234567", "       "} {
			hash, err := HashPassword(password)
			assert.ErrorIs(t, err, ErrPasswordTooShort)
			assert.Empty(t, hash)
		}
	})

	t.Run("salts every hash", func(t *testing.T) {
		first, err := HashPassword("testpassword123")
		require.NoError(t, err)
		second, err := HashPassword("testpassword123")
		require.NoError(t, err)
		assert.NotEqual(t, first, second)
	})
}

func TestCheckPassword(t *testing.T) {
	hash, err := HashPassword("Password123")
	require.NoError(t, err)

	assert.True(t, CheckPassword("Password123", hash))
	assert.False(t, CheckPassword("password123", hash), "comparison is case sensitive")
	assert.False(t, CheckPassword("", hash))
	assert.False(t, CheckPassword("Password123", "not-a-bcrypt-hash"))
	assert.False(t, CheckPassword("Password123", ""))
}
