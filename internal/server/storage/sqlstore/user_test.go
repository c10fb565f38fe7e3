package sqlstore

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/readshare/internal/models"
	"github.com/iudanet/readshare/internal/server/storage"
)

func strPtr(s string) *string { return &s }

func TestUserStorage_CreateUser(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	now := time.Now()
	first := &models.User{
		ID:           uuid.NewString(),
		Email:        "alice@example.com",
		Username:     "alice",
		PasswordHash: "hash",
		DisplayName:  strPtr("Alice"),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	tests := []struct {
		wantError error
		user      *models.User
		name      string
	}{
		{
			name: "create new user successfully",
			user: first,
		},
		{
			name: "duplicate email",
			user: &models.User{
				ID:           uuid.NewString(),
				Email:        "alice@example.com",
				Username:     "alice2",
				PasswordHash: "hash",
				CreatedAt:    now,
				UpdatedAt:    now,
			},
			wantError: storage.ErrUserAlreadyExists,
		},
		{
			name: "duplicate username",
			user: &models.User{
				ID:           uuid.NewString(),
				Email:        "other@example.com",
				Username:     "alice",
				PasswordHash: "hash",
				CreatedAt:    now,
				UpdatedAt:    now,
			},
			wantError: storage.ErrUserAlreadyExists,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.CreateUser(ctx, tt.user)
			if tt.wantError != nil {
				assert.ErrorIs(t, err, tt.wantError)
				return
			}
			require.NoError(t, err)

			// Verify user was created
			got, err := s.GetUserByID(ctx, tt.user.ID)
			require.NoError(t, err)
			assert.Equal(t, tt.user.Email, got.Email)
			assert.Equal(t, tt.user.Username, got.Username)
			assert.Equal(t, tt.user.PasswordHash, got.PasswordHash)
			require.NotNil(t, got.DisplayName)
			assert.Equal(t, "Alice", *got.DisplayName)
			assert.Nil(t, got.AvatarURL)
			assert.WithinDuration(t, now, got.CreatedAt, time.Second)
		})
	}
}

func TestUserStorage_GetUser(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	userID := createTestUser(t, ctx, s)
	user, err := s.GetUserByID(ctx, userID)
	require.NoError(t, err)

	byEmail, err := s.GetUserByEmail(ctx, user.Email)
	require.NoError(t, err)
	assert.Equal(t, userID, byEmail.ID)

	_, err = s.GetUserByID(ctx, uuid.NewString())
	assert.ErrorIs(t, err, storage.ErrUserNotFound)

	_, err = s.GetUserByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, storage.ErrUserNotFound)
}

func TestUserStorage_UpdateUser(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	userID := createTestUser(t, ctx, s)
	otherID := createTestUser(t, ctx, s)
	other, err := s.GetUserByID(ctx, otherID)
	require.NoError(t, err)

	user, err := s.GetUserByID(ctx, userID)
	require.NoError(t, err)

	user.DisplayName = strPtr("Reader")
	user.AvatarURL = strPtr("/media/a.png")
	user.PasswordHash = "new-hash"
	user.UpdatedAt = time.Now().Add(time.Minute)
	require.NoError(t, s.UpdateUser(ctx, user))

	got, err := s.GetUserByID(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, "Reader", *got.DisplayName)
	assert.Equal(t, "/media/a.png", *got.AvatarURL)
	// хеш пароля меняет только ReplacePassword
	assert.Equal(t, "hash", got.PasswordHash)

	t.Run("username taken", func(t *testing.T) {
		user.Username = other.Username
		assert.ErrorIs(t, s.UpdateUser(ctx, user), storage.ErrUserAlreadyExists)
	})

	t.Run("unknown user", func(t *testing.T) {
		ghost := &models.User{ID: uuid.NewString(), Username: "ghost"}
		assert.ErrorIs(t, s.UpdateUser(ctx, ghost), storage.ErrUserNotFound)
	})
}

func TestUserStorage_ReplacePassword(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	userID := createTestUser(t, ctx, s)
	otherID := createTestUser(t, ctx, s)
	require.NoError(t, s.AddRefreshToken(ctx, userID, "rt-1"))
	require.NoError(t, s.AddRefreshToken(ctx, userID, "rt-2"))
	require.NoError(t, s.AddRefreshToken(ctx, otherID, "rt-other"))

	// профиль прочитан до смены пароля и сохранен после нее
	stale, err := s.GetUserByID(ctx, userID)
	require.NoError(t, err)

	revoked, err := s.ReplacePassword(ctx, userID, "new-hash", time.Now())
	require.NoError(t, err)
	assert.Equal(t, 2, revoked)

	stale.DisplayName = strPtr("Renamed")
	require.NoError(t, s.UpdateUser(ctx, stale))

	got, err := s.GetUserByID(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, "new-hash", got.PasswordHash)
	assert.Equal(t, "Renamed", *got.DisplayName)

	tokens, err := s.ListRefreshTokens(ctx, userID)
	require.NoError(t, err)
	assert.Empty(t, tokens)

	// чужой набор не затронут
	has, err := s.HasRefreshToken(ctx, otherID, "rt-other")
	require.NoError(t, err)
	assert.True(t, has)

	t.Run("unknown user", func(t *testing.T) {
		_, err := s.ReplacePassword(ctx, uuid.NewString(), "x", time.Now())
		assert.ErrorIs(t, err, storage.ErrUserNotFound)
	})
}

func TestUserStorage_DeleteUser_Cascades(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	userID := createTestUser(t, ctx, s)
	readerID := createTestUser(t, ctx, s)
	postID := createTestPost(t, ctx, s, userID)
	require.NoError(t, s.AddRefreshToken(ctx, userID, "rt-1"))
	_, err := s.AddLike(ctx, postID, readerID)
	require.NoError(t, err)

	require.NoError(t, s.DeleteUser(ctx, userID))

	_, err = s.GetUserByID(ctx, userID)
	assert.ErrorIs(t, err, storage.ErrUserNotFound)

	tokens, err := s.ListRefreshTokens(ctx, userID)
	require.NoError(t, err)
	assert.Empty(t, tokens)

	_, err = s.GetPost(ctx, postID, "")
	assert.ErrorIs(t, err, storage.ErrPostNotFound)

	assert.ErrorIs(t, s.DeleteUser(ctx, userID), storage.ErrUserNotFound)
}
