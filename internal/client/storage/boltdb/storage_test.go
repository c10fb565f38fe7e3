package boltdb

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.etcd.io/bbolt"

	"github.com/iudanet/readshare/internal/client/storage"
)

func createTestStorage(t *testing.T) (*Storage, string) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "client.db")

	store, err := New(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	return store, dbPath
}

func TestNew_CreatesBuckets(t *testing.T) {
	store, dbPath := createTestStorage(t)

	info, err := os.Stat(dbPath)
	require.NoError(t, err)
	assert.False(t, info.IsDir())

	err = store.db.View(func(tx *bbolt.Tx) error {
		if tx.Bucket(bucketSession) == nil {
			return os.ErrNotExist
		}
		return nil
	})
	require.NoError(t, err)
}

func TestNew_InvalidPath(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "missing", "dir", "client.db"))
	assert.Error(t, err)
}

func TestClose_Twice(t *testing.T) {
	store, err := New(filepath.Join(t.TempDir(), "client.db"))
	require.NoError(t, err)

	require.NoError(t, store.Close())
	assert.NoError(t, store.Close())
}

func TestStorage_Session(t *testing.T) {
	ctx := context.Background()
	store, _ := createTestStorage(t)

	_, err := store.GetSession(ctx)
	assert.ErrorIs(t, err, storage.ErrSessionNotFound)

	exp := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	session := &storage.Session{
		UserID:           "u1",
		Email:            "reader@example.com",
		AccessToken:      "access",
		RefreshToken:     "refresh",
		AccessExpiresAt:  exp,
		RefreshExpiresAt: exp.Add(24 * time.Hour),
	}
	require.NoError(t, store.SaveSession(ctx, session))

	got, err := store.GetSession(ctx)
	require.NoError(t, err)
	assert.Equal(t, session.UserID, got.UserID)
	assert.Equal(t, session.RefreshToken, got.RefreshToken)
	assert.True(t, session.AccessExpiresAt.Equal(got.AccessExpiresAt))

	// повторное сохранение заменяет сессию
	session.AccessToken = "access-2"
	require.NoError(t, store.SaveSession(ctx, session))
	got, err = store.GetSession(ctx)
	require.NoError(t, err)
	assert.Equal(t, "access-2", got.AccessToken)

	require.NoError(t, store.DeleteSession(ctx))
	_, err = store.GetSession(ctx)
	assert.ErrorIs(t, err, storage.ErrSessionNotFound)

	// удаление отсутствующей сессии не ошибка
	assert.NoError(t, store.DeleteSession(ctx))
}

func TestStorage_SessionSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "client.db")

	store, err := New(dbPath)
	require.NoError(t, err)
	require.NoError(t, store.SaveSession(ctx, &storage.Session{UserID: "u1"}))
	require.NoError(t, store.Close())

	reopened, err := New(dbPath)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.GetSession(ctx)
	require.NoError(t, err)
	assert.Equal(t, "u1", got.UserID)
}

func TestSession_Expiry(t *testing.T) {
	now := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	s := &storage.Session{AccessExpiresAt: now.Add(time.Minute), RefreshExpiresAt: now}

	assert.False(t, s.AccessExpired(now))
	assert.True(t, s.AccessExpired(now.Add(time.Minute)))
	assert.True(t, s.RefreshExpired(now))
}
