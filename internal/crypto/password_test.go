package crypto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  bool
		errMsg   string
	}{
		{
			name:     "successful hash",
			password: "correct horse battery staple",
		},
		{
			name:     "empty password",
			password: "",
			wantErr:  true,
			errMsg:   "password cannot be empty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hash, err := HashPassword(tt.password)

			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
				assert.Empty(t, hash)
				return
			}

			require.NoError(t, err)
			assert.NotEqual(t, tt.password, hash, "хеш не должен совпадать с паролем")
			assert.Regexp(t, `^\$2[aby]\$`, hash)
		})
	}
}

func TestHashPassword_Salted(t *testing.T) {
	// Одинаковый пароль дает разные хеши за счет соли
	h1, err := HashPassword("secret-password")
	require.NoError(t, err)
	h2, err := HashPassword("secret-password")
	require.NoError(t, err)

	assert.NotEqual(t, h1, h2)
	assert.NoError(t, VerifyPassword("secret-password", h1))
	assert.NoError(t, VerifyPassword("secret-password", h2))
}

func TestVerifyPassword(t *testing.T) {
	hash, err := HashPassword("secret-password")
	require.NoError(t, err)

	t.Run("matching password", func(t *testing.T) {
		assert.NoError(t, VerifyPassword("secret-password", hash))
	})

	t.Run("wrong password", func(t *testing.T) {
		err := VerifyPassword("wrong-password", hash)
		assert.ErrorIs(t, err, ErrPasswordMismatch)
	})

	t.Run("empty hash", func(t *testing.T) {
		err := VerifyPassword("secret-password", "")
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrPasswordMismatch)
	})

	t.Run("malformed hash", func(t *testing.T) {
		err := VerifyPassword("secret-password", "not-a-bcrypt-hash")
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrPasswordMismatch)
	})
}
