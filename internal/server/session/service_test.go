package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/readshare/internal/apperr"
	"github.com/iudanet/readshare/internal/models"
	"github.com/iudanet/readshare/internal/server/jwt"
	"github.com/iudanet/readshare/internal/server/storage"
	"github.com/iudanet/readshare/internal/server/storage/sqlstore"
)

const testPassword = "correct-horse"

type recordedEvents struct {
	mu     sync.Mutex
	events []string
}

func (r *recordedEvents) AuthEvent(event string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recordedEvents) has(event string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.events {
		if e == event {
			return true
		}
	}
	return false
}

type testEnv struct {
	svc    *Service
	store  *sqlstore.Storage
	issuer *jwt.Issuer
	events *recordedEvents
	clock  *time.Time
}

func setupTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

func testJWTConfig() jwt.Config {
	return jwt.Config{
		AccessSecret:    []byte("access-secret"),
		RefreshSecret:   []byte("refresh-secret"),
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 24 * time.Hour,
	}
}

func setupService(t *testing.T) *testEnv {
	t.Helper()

	store, err := sqlstore.New(context.Background(), sqlstore.DialectSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	now := time.Now()
	clock := &now
	issuer := jwt.NewIssuer(testJWTConfig()).WithClock(func() time.Time { return *clock })
	events := &recordedEvents{}

	return &testEnv{
		svc:    NewService(setupTestLogger(), store, issuer, events),
		store:  store,
		issuer: issuer,
		events: events,
		clock:  clock,
	}
}

func (e *testEnv) register(t *testing.T, email string) *models.User {
	t.Helper()
	user, err := e.svc.Register(context.Background(), RegisterInput{
		Username: "reader_" + email[:3],
		Email:    email,
		Password: testPassword,
	})
	require.NoError(t, err)
	return user
}

func TestService_Register(t *testing.T) {
	env := setupService(t)
	ctx := context.Background()

	user, err := env.svc.Register(ctx, RegisterInput{
		Username: "alice",
		Email:    "  Alice@Example.com ",
		Password: testPassword,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.NotEqual(t, testPassword, user.PasswordHash)
	assert.True(t, env.events.has(EventRegister))

	// Новый пользователь без сессий
	n, err := env.svc.ActiveSessions(ctx, user.ID)
	require.NoError(t, err)
	assert.Zero(t, n)

	tests := []struct {
		name    string
		in      RegisterInput
		wantErr error
	}{
		{
			name:    "missing email",
			in:      RegisterInput{Username: "bob", Password: testPassword},
			wantErr: apperr.ErrValidation,
		},
		{
			name:    "missing password",
			in:      RegisterInput{Username: "bob", Email: "bob@example.com"},
			wantErr: apperr.ErrValidation,
		},
		{
			name:    "invalid email",
			in:      RegisterInput{Username: "bob", Email: "bob", Password: testPassword},
			wantErr: apperr.ErrValidation,
		},
		{
			name:    "short password",
			in:      RegisterInput{Username: "bob", Email: "bob@example.com", Password: "short"},
			wantErr: apperr.ErrValidation,
		},
		{
			name:    "duplicate email",
			in:      RegisterInput{Username: "alice2", Email: "alice@example.com", Password: testPassword},
			wantErr: apperr.ErrConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.svc.Register(ctx, tt.in)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestService_Login(t *testing.T) {
	env := setupService(t)
	ctx := context.Background()
	user := env.register(t, "alice@example.com")

	t.Run("success persists refresh token", func(t *testing.T) {
		pair, err := env.svc.Login(ctx, "ALICE@example.com", testPassword)
		require.NoError(t, err)
		assert.Equal(t, user.ID, pair.UserID)
		assert.NotEmpty(t, pair.AccessToken)
		assert.NotEmpty(t, pair.RefreshToken)

		has, err := env.store.HasRefreshToken(ctx, user.ID, pair.RefreshToken)
		require.NoError(t, err)
		assert.True(t, has)
	})

	t.Run("errors", func(t *testing.T) {
		tests := []struct {
			name     string
			email    string
			password string
			wantErr  error
		}{
			{name: "missing fields", email: "", password: "", wantErr: apperr.ErrValidation},
			{name: "unknown email", email: "nobody@example.com", password: testPassword, wantErr: apperr.ErrNotFound},
			{name: "wrong password", email: "alice@example.com", password: "wrong-password", wantErr: apperr.ErrInvalidCredentials},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := env.svc.Login(ctx, tt.email, tt.password)
				assert.ErrorIs(t, err, tt.wantErr)
			})
		}
		assert.True(t, env.events.has(EventLoginFailed))
	})
}

func TestService_TwoLoginsGrowTheSet(t *testing.T) {
	env := setupService(t)
	ctx := context.Background()
	user := env.register(t, "alice@example.com")

	p1, err := env.svc.Login(ctx, "alice@example.com", testPassword)
	require.NoError(t, err)
	p2, err := env.svc.Login(ctx, "alice@example.com", testPassword)
	require.NoError(t, err)
	assert.NotEqual(t, p1.RefreshToken, p2.RefreshToken)

	for _, rt := range []string{p1.RefreshToken, p2.RefreshToken} {
		has, err := env.store.HasRefreshToken(ctx, user.ID, rt)
		require.NoError(t, err)
		assert.True(t, has)
	}

	n, err := env.svc.ActiveSessions(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestService_Authenticate(t *testing.T) {
	env := setupService(t)
	ctx := context.Background()
	user := env.register(t, "alice@example.com")

	pair, err := env.svc.Login(ctx, "alice@example.com", testPassword)
	require.NoError(t, err)

	userID, err := env.svc.Authenticate(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, userID)

	_, err = env.svc.Authenticate("")
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated)

	_, err = env.svc.Authenticate("garbage")
	assert.ErrorIs(t, err, apperr.ErrInvalidToken)

	// Refresh токен не проходит как access
	_, err = env.svc.Authenticate(pair.RefreshToken)
	assert.ErrorIs(t, err, apperr.ErrInvalidToken)

	// После истечения TTL access токен отклоняется
	*env.clock = env.clock.Add(16 * time.Minute)
	_, err = env.svc.Authenticate(pair.AccessToken)
	assert.ErrorIs(t, err, apperr.ErrInvalidToken)
}

func TestService_Refresh(t *testing.T) {
	env := setupService(t)
	ctx := context.Background()
	env.register(t, "alice@example.com")

	pair, err := env.svc.Login(ctx, "alice@example.com", testPassword)
	require.NoError(t, err)

	access, exp, err := env.svc.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, access)
	assert.True(t, exp.After(*env.clock))

	// Refresh токен не ротируется: им можно пользоваться повторно
	_, _, err = env.svc.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
	assert.True(t, env.events.has(EventRefresh))
}

func TestService_Refresh_Errors(t *testing.T) {
	env := setupService(t)
	ctx := context.Background()
	user := env.register(t, "alice@example.com")

	t.Run("no token", func(t *testing.T) {
		_, _, err := env.svc.Refresh(ctx, "")
		assert.ErrorIs(t, err, apperr.ErrUnauthenticated)
	})

	t.Run("garbage token", func(t *testing.T) {
		_, _, err := env.svc.Refresh(ctx, "garbage")
		assert.ErrorIs(t, err, apperr.ErrInvalidToken)
	})

	t.Run("wrong secret", func(t *testing.T) {
		cfg := testJWTConfig()
		cfg.RefreshSecret = []byte("attacker")
		forged, _, err := jwt.NewIssuer(cfg).IssueRefresh(user.ID)
		require.NoError(t, err)

		_, _, err = env.svc.Refresh(ctx, forged)
		assert.ErrorIs(t, err, apperr.ErrInvalidToken)
	})

	t.Run("access token presented as refresh", func(t *testing.T) {
		access, _, err := env.issuer.IssueAccess(user.ID)
		require.NoError(t, err)

		_, _, err = env.svc.Refresh(ctx, access)
		assert.ErrorIs(t, err, apperr.ErrInvalidToken)
	})

	t.Run("unknown principal", func(t *testing.T) {
		orphan, _, err := env.issuer.IssueRefresh("00000000-0000-0000-0000-000000000000")
		require.NoError(t, err)

		_, _, err = env.svc.Refresh(ctx, orphan)
		assert.ErrorIs(t, err, apperr.ErrNotFound)
	})

	t.Run("expired token", func(t *testing.T) {
		pair, err := env.svc.Login(ctx, "alice@example.com", testPassword)
		require.NoError(t, err)

		*env.clock = env.clock.Add(25 * time.Hour)
		defer func() { *env.clock = env.clock.Add(-25 * time.Hour) }()

		_, _, err = env.svc.Refresh(ctx, pair.RefreshToken)
		assert.ErrorIs(t, err, apperr.ErrInvalidToken)
	})
}

func TestService_Refresh_ReuseRevokesAllSessions(t *testing.T) {
	env := setupService(t)
	ctx := context.Background()
	user := env.register(t, "alice@example.com")

	p1, err := env.svc.Login(ctx, "alice@example.com", testPassword)
	require.NoError(t, err)
	p2, err := env.svc.Login(ctx, "alice@example.com", testPassword)
	require.NoError(t, err)

	// Валидно подписанный, но не зарегистрированный токен
	stray, _, err := env.issuer.IssueRefresh(user.ID)
	require.NoError(t, err)

	_, _, err = env.svc.Refresh(ctx, stray)
	assert.ErrorIs(t, err, apperr.ErrRefreshReuse)
	assert.ErrorIs(t, err, apperr.ErrInvalidToken)
	assert.True(t, env.events.has(EventRefreshReuse))

	n, err := env.svc.ActiveSessions(ctx, user.ID)
	require.NoError(t, err)
	assert.Zero(t, n)

	// Все сессии отозваны: ранее валидные токены тоже отклоняются
	for _, rt := range []string{p1.RefreshToken, p2.RefreshToken, stray} {
		_, _, err := env.svc.Refresh(ctx, rt)
		assert.ErrorIs(t, err, apperr.ErrInvalidToken)
	}

	n, err = env.svc.ActiveSessions(ctx, user.ID)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestService_Logout(t *testing.T) {
	env := setupService(t)
	ctx := context.Background()
	user := env.register(t, "alice@example.com")

	p1, err := env.svc.Login(ctx, "alice@example.com", testPassword)
	require.NoError(t, err)
	_, err = env.svc.Login(ctx, "alice@example.com", testPassword)
	require.NoError(t, err)

	require.NoError(t, env.svc.Logout(ctx, p1.RefreshToken))
	assert.True(t, env.events.has(EventLogout))

	n, err := env.svc.ActiveSessions(ctx, user.ID)
	require.NoError(t, err)
	assert.Zero(t, n)

	_, _, err = env.svc.Refresh(ctx, p1.RefreshToken)
	assert.ErrorIs(t, err, apperr.ErrInvalidToken)

	// Access токен остается валидным до истечения TTL
	_, err = env.svc.Authenticate(p1.AccessToken)
	assert.NoError(t, err)

	t.Run("errors", func(t *testing.T) {
		assert.ErrorIs(t, env.svc.Logout(ctx, ""), apperr.ErrUnauthenticated)
		assert.ErrorIs(t, env.svc.Logout(ctx, "garbage"), apperr.ErrInvalidToken)

		orphan, _, err := env.issuer.IssueRefresh("00000000-0000-0000-0000-000000000000")
		require.NoError(t, err)
		assert.ErrorIs(t, env.svc.Logout(ctx, orphan), apperr.ErrNotFound)
	})
}

func TestService_ChangePassword(t *testing.T) {
	env := setupService(t)
	ctx := context.Background()
	user := env.register(t, "alice@example.com")

	pair, err := env.svc.Login(ctx, "alice@example.com", testPassword)
	require.NoError(t, err)

	err = env.svc.ChangePassword(ctx, user.ID, "wrong-password", "new-password-1")
	assert.ErrorIs(t, err, apperr.ErrInvalidCredentials)

	err = env.svc.ChangePassword(ctx, user.ID, testPassword, "short")
	assert.ErrorIs(t, err, apperr.ErrValidation)

	require.NoError(t, env.svc.ChangePassword(ctx, user.ID, testPassword, "new-password-1"))

	n, err := env.svc.ActiveSessions(ctx, user.ID)
	require.NoError(t, err)
	assert.Zero(t, n, "смена пароля отзывает все сессии")

	_, _, err = env.svc.Refresh(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, apperr.ErrInvalidToken)

	_, err = env.svc.Login(ctx, "alice@example.com", testPassword)
	assert.ErrorIs(t, err, apperr.ErrInvalidCredentials)
	_, err = env.svc.Login(ctx, "alice@example.com", "new-password-1")
	assert.NoError(t, err)
}

// passwordWriteFails делегирует в sqlstore, но не может записать новый пароль
type passwordWriteFails struct {
	*sqlstore.Storage
	err error
}

func (p *passwordWriteFails) ReplacePassword(context.Context, string, string, time.Time) (int, error) {
	return 0, p.err
}

func TestService_ChangePassword_WriteFailureKeepsSessions(t *testing.T) {
	env := setupService(t)
	ctx := context.Background()
	user := env.register(t, "alice@example.com")

	pair, err := env.svc.Login(ctx, "alice@example.com", testPassword)
	require.NoError(t, err)

	dbErr := errors.New("disk I/O error")
	svc := NewService(setupTestLogger(), &passwordWriteFails{Storage: env.store, err: dbErr}, env.issuer, nil)

	err = svc.ChangePassword(ctx, user.ID, testPassword, "new-password-1")
	require.Error(t, err)
	assert.ErrorIs(t, err, dbErr)
	assert.Equal(t, 500, apperr.StatusFor(err))

	// ни хеш, ни набор токенов не изменились
	n, err := env.svc.ActiveSessions(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, _, err = env.svc.Refresh(ctx, pair.RefreshToken)
	assert.NoError(t, err)

	_, err = env.svc.Login(ctx, "alice@example.com", testPassword)
	assert.NoError(t, err)
}

// failingStore возвращает ошибку хранилища на любой вызов
type failingStore struct {
	storage.UserStorage
	storage.TokenStorage
	err error
}

func (f *failingStore) GetUserByEmail(context.Context, string) (*models.User, error) {
	return nil, f.err
}

func (f *failingStore) CreateUser(context.Context, *models.User) error {
	return f.err
}

func TestService_StorageErrorsAreInternal(t *testing.T) {
	dbErr := errors.New("database is locked")
	svc := NewService(setupTestLogger(), &failingStore{err: dbErr}, jwt.NewIssuer(testJWTConfig()), nil)
	ctx := context.Background()

	_, err := svc.Login(ctx, "alice@example.com", testPassword)
	require.Error(t, err)
	assert.ErrorIs(t, err, dbErr)
	assert.Equal(t, 500, apperr.StatusFor(err))

	_, err = svc.Register(ctx, RegisterInput{Username: "alice", Email: "alice@example.com", Password: testPassword})
	require.Error(t, err)
	assert.Equal(t, 500, apperr.StatusFor(err))
}
