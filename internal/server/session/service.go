// Package session is the token authority: it registers principals, issues
// access and refresh tokens, refreshes access tokens with reuse detection,
// and revokes sessions.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iudanet/readshare/internal/apperr"
	"github.com/iudanet/readshare/internal/crypto"
	"github.com/iudanet/readshare/internal/models"
	"github.com/iudanet/readshare/internal/server/jwt"
	"github.com/iudanet/readshare/internal/server/storage"
	"github.com/iudanet/readshare/internal/validation"
)

// Auth events reported to the EventRecorder
const (
	EventRegister       = "register"
	EventLogin          = "login"
	EventLoginFailed    = "login_failed"
	EventRefresh        = "refresh"
	EventRefreshReuse   = "refresh_reuse"
	EventLogout         = "logout"
	EventPasswordChange = "password_change"
)

// TokenIssuer mints and verifies signed tokens
type TokenIssuer interface {
	IssueAccess(userID string) (string, time.Time, error)
	IssueRefresh(userID string) (string, time.Time, error)
	VerifyAccess(token string) (*jwt.Claims, error)
	VerifyRefresh(token string) (*jwt.Claims, error)
}

// EventRecorder counts auth events (metrics)
type EventRecorder interface {
	AuthEvent(event string)
}

type nopRecorder struct{}

func (nopRecorder) AuthEvent(string) {}

// Store is the part of the persistence layer the token authority needs
type Store interface {
	storage.UserStorage
	storage.TokenStorage
}

// Service implements the session operations
type Service struct {
	logger *slog.Logger
	store  Store
	issuer TokenIssuer
	events EventRecorder
	now    func() time.Time
}

// NewService создает сервис сессий. events может быть nil.
func NewService(logger *slog.Logger, store Store, issuer TokenIssuer, events EventRecorder) *Service {
	if events == nil {
		events = nopRecorder{}
	}
	return &Service{
		logger: logger,
		store:  store,
		issuer: issuer,
		events: events,
		now:    time.Now,
	}
}

// RegisterInput contains registration fields
type RegisterInput struct {
	Username string
	Email    string
	Password string
}

// TokenPair is the result of a successful login
type TokenPair struct {
	UserID           string
	AccessToken      string
	AccessExpiresAt  time.Time
	RefreshToken     string
	RefreshExpiresAt time.Time
}

// Register creates a principal with an empty refresh token set
func (s *Service) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	username := strings.TrimSpace(in.Username)
	email := validation.NormalizeEmail(in.Email)

	if username == "" || email == "" || in.Password == "" {
		return nil, apperr.New(apperr.ErrValidation, "username, email and password are required")
	}
	if err := validation.ValidateUsername(username); err != nil {
		return nil, apperr.New(apperr.ErrValidation, "%s", err.Error())
	}
	if err := validation.ValidateEmail(email); err != nil {
		return nil, apperr.New(apperr.ErrValidation, "%s", err.Error())
	}
	if err := validation.ValidatePassword(in.Password); err != nil {
		return nil, apperr.New(apperr.ErrValidation, "%s", err.Error())
	}

	hash, err := crypto.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := s.now().UTC()
	user := &models.User{
		ID:           uuid.NewString(),
		Email:        email,
		Username:     username,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, storage.ErrUserAlreadyExists) {
			return nil, apperr.New(apperr.ErrConflict, "email or username already registered")
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.events.AuthEvent(EventRegister)
	s.logger.InfoContext(ctx, "user registered",
		slog.String("user_id", user.ID),
		slog.String("username", user.Username))

	return user, nil
}

// Login checks credentials and issues an access/refresh pair.
// The refresh token is added to the user's set before the pair is returned.
func (s *Service) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	email = validation.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, apperr.New(apperr.ErrValidation, "email and password are required")
	}

	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			s.events.AuthEvent(EventLoginFailed)
			return nil, apperr.New(apperr.ErrNotFound, "user not found")
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	if err := crypto.VerifyPassword(password, user.PasswordHash); err != nil {
		if errors.Is(err, crypto.ErrPasswordMismatch) {
			s.events.AuthEvent(EventLoginFailed)
			s.logger.WarnContext(ctx, "login failed: wrong password", slog.String("user_id", user.ID))
			return nil, apperr.New(apperr.ErrInvalidCredentials, "invalid credentials")
		}
		return nil, fmt.Errorf("verify password: %w", err)
	}

	access, accessExp, err := s.issuer.IssueAccess(user.ID)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}

	refresh, refreshExp, err := s.issuer.IssueRefresh(user.ID)
	if err != nil {
		return nil, fmt.Errorf("issue refresh token: %w", err)
	}

	if err := s.store.AddRefreshToken(ctx, user.ID, refresh); err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}

	s.events.AuthEvent(EventLogin)
	s.logger.InfoContext(ctx, "user logged in", slog.String("user_id", user.ID))

	return &TokenPair{
		UserID:           user.ID,
		AccessToken:      access,
		AccessExpiresAt:  accessExp,
		RefreshToken:     refresh,
		RefreshExpiresAt: refreshExp,
	}, nil
}

// Refresh exchanges a registered refresh token for a new access token.
// A token that verifies but is not in the owner's set revokes every session
// of that owner. The refresh token itself is not rotated.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (string, time.Time, error) {
	user, err := s.principalFromRefresh(ctx, refreshToken)
	if err != nil {
		return "", time.Time{}, err
	}

	member, err := s.store.CheckRefreshToken(ctx, user.ID, refreshToken)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("check refresh token: %w", err)
	}
	if !member {
		s.events.AuthEvent(EventRefreshReuse)
		s.logger.WarnContext(ctx, "refresh token reuse detected, all sessions revoked",
			slog.String("user_id", user.ID))
		return "", time.Time{}, apperr.ErrRefreshReuse
	}

	access, exp, err := s.issuer.IssueAccess(user.ID)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("issue access token: %w", err)
	}

	s.events.AuthEvent(EventRefresh)
	return access, exp, nil
}

// Logout clears the refresh token set of the token's owner
func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	user, err := s.principalFromRefresh(ctx, refreshToken)
	if err != nil {
		return err
	}

	n, err := s.store.ClearRefreshTokens(ctx, user.ID)
	if err != nil {
		return fmt.Errorf("clear refresh tokens: %w", err)
	}

	s.events.AuthEvent(EventLogout)
	s.logger.InfoContext(ctx, "user logged out",
		slog.String("user_id", user.ID),
		slog.Int("revoked_tokens", n))

	return nil
}

// principalFromRefresh проходит общие шаги refresh и logout:
// нет токена -> ErrUnauthenticated, невалидный -> ErrInvalidToken,
// владелец не найден -> ErrNotFound
func (s *Service) principalFromRefresh(ctx context.Context, refreshToken string) (*models.User, error) {
	if refreshToken == "" {
		return nil, apperr.New(apperr.ErrUnauthenticated, "refresh token is required")
	}

	claims, err := s.issuer.VerifyRefresh(refreshToken)
	if err != nil {
		s.logger.DebugContext(ctx, "refresh token rejected", slog.Any("error", err))
		return nil, apperr.New(apperr.ErrInvalidToken, "invalid refresh token")
	}

	user, err := s.store.GetUserByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return nil, apperr.New(apperr.ErrNotFound, "user not found")
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	return user, nil
}

// Authenticate verifies an access token and returns the principal ID.
// Purely cryptographic: the store is never consulted.
func (s *Service) Authenticate(accessToken string) (string, error) {
	if accessToken == "" {
		return "", apperr.New(apperr.ErrUnauthenticated, "authorization token is required")
	}

	claims, err := s.issuer.VerifyAccess(accessToken)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", apperr.New(apperr.ErrInvalidToken, "access token expired")
		}
		return "", apperr.New(apperr.ErrInvalidToken, "invalid access token")
	}

	return claims.UserID, nil
}

// ChangePassword replaces the password hash and revokes every refresh token
func (s *Service) ChangePassword(ctx context.Context, userID, current, next string) error {
	if current == "" || next == "" {
		return apperr.New(apperr.ErrValidation, "currentPassword and newPassword are required")
	}
	if err := validation.ValidatePassword(next); err != nil {
		return apperr.New(apperr.ErrValidation, "%s", err.Error())
	}

	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return apperr.New(apperr.ErrNotFound, "user not found")
		}
		return fmt.Errorf("get user: %w", err)
	}

	if err := crypto.VerifyPassword(current, user.PasswordHash); err != nil {
		if errors.Is(err, crypto.ErrPasswordMismatch) {
			return apperr.New(apperr.ErrInvalidCredentials, "current password is incorrect")
		}
		return fmt.Errorf("verify password: %w", err)
	}

	hash, err := crypto.HashPassword(next)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	// хеш и очистка набора токенов в одной транзакции: либо оба, либо ничего
	n, err := s.store.ReplacePassword(ctx, userID, hash, s.now().UTC())
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return apperr.New(apperr.ErrNotFound, "user not found")
		}
		return fmt.Errorf("replace password: %w", err)
	}

	s.events.AuthEvent(EventPasswordChange)
	s.logger.InfoContext(ctx, "password changed, sessions revoked",
		slog.String("user_id", userID),
		slog.Int("revoked_tokens", n))

	return nil
}

// ActiveSessions returns the size of the user's refresh token set
func (s *Service) ActiveSessions(ctx context.Context, userID string) (int, error) {
	tokens, err := s.store.ListRefreshTokens(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("list refresh tokens: %w", err)
	}
	return len(tokens), nil
}
