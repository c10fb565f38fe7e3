package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/iudanet/readshare/internal/client/api"
	"github.com/iudanet/readshare/internal/client/storage"
	"github.com/iudanet/readshare/internal/validation"
	pkgapi "github.com/iudanet/readshare/pkg/api"
)

var (
	// ErrNotLoggedIn возвращается, когда локальной сессии нет
	ErrNotLoggedIn = errors.New("not logged in, run 'readshare login' first")

	// ErrSessionRevoked означает, что сервер больше не принимает refresh token; сессия забыта
	ErrSessionRevoked = errors.New("session is no longer valid, please log in again")
)

// Client is the subset of the API client used for authentication
type Client interface {
	Register(ctx context.Context, req pkgapi.RegisterRequest) (*pkgapi.RegisterResponse, error)
	Login(ctx context.Context, req pkgapi.LoginRequest) (*pkgapi.LoginResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*pkgapi.RefreshResponse, error)
	Logout(ctx context.Context, refreshToken string) error
}

// Service управляет локальной сессией и обменом токенов с сервером
type Service struct {
	client Client
	store  storage.SessionStorage
	logger *slog.Logger
	now    func() time.Time
}

// NewService создает новый сервис авторизации
func NewService(client Client, store storage.SessionStorage, logger *slog.Logger) *Service {
	return &Service{
		client: client,
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

var _ api.TokenSource = (*Service)(nil)

// Register регистрирует нового пользователя. Вход не выполняется.
func (s *Service) Register(ctx context.Context, username, email, password string) (*pkgapi.User, error) {
	email = validation.NormalizeEmail(email)

	if err := validation.ValidateUsername(username); err != nil {
		return nil, fmt.Errorf("invalid username: %w", err)
	}
	if err := validation.ValidateEmail(email); err != nil {
		return nil, fmt.Errorf("invalid email: %w", err)
	}
	if err := validation.ValidatePassword(password); err != nil {
		return nil, fmt.Errorf("invalid password: %w", err)
	}

	resp, err := s.client.Register(ctx, pkgapi.RegisterRequest{
		Username: username,
		Email:    email,
		Password: password,
	})
	if err != nil {
		return nil, err
	}

	return &resp.User, nil
}

// Login аутентифицирует пользователя и сохраняет сессию локально
func (s *Service) Login(ctx context.Context, email, password string) (*storage.Session, error) {
	email = validation.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, fmt.Errorf("email and password are required")
	}

	resp, err := s.client.Login(ctx, pkgapi.LoginRequest{Email: email, Password: password})
	if err != nil {
		return nil, err
	}

	session := &storage.Session{
		UserID:           resp.UserID,
		Email:            email,
		AccessToken:      resp.AccessToken,
		RefreshToken:     resp.RefreshToken,
		AccessExpiresAt:  resp.AccessExpiresAt,
		RefreshExpiresAt: resp.RefreshExpiresAt,
	}
	if err := s.store.SaveSession(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	return session, nil
}

// Logout отзывает refresh token на сервере и всегда удаляет локальную сессию
func (s *Service) Logout(ctx context.Context) error {
	session, err := s.Session(ctx)
	if err != nil {
		return err
	}

	if err := s.client.Logout(ctx, session.RefreshToken); err != nil {
		// сервер мог уже забыть токен, локальная сессия удаляется в любом случае
		s.logger.WarnContext(ctx, "server logout failed", slog.Any("error", err))
	}

	if err := s.store.DeleteSession(ctx); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// Session возвращает сохраненную сессию или ErrNotLoggedIn
func (s *Service) Session(ctx context.Context) (*storage.Session, error) {
	session, err := s.store.GetSession(ctx)
	if errors.Is(err, storage.ErrSessionNotFound) {
		return nil, ErrNotLoggedIn
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	return session, nil
}

// AccessToken возвращает access token, заранее обновляя его если он истек
func (s *Service) AccessToken(ctx context.Context) (string, error) {
	session, err := s.Session(ctx)
	if err != nil {
		return "", err
	}

	if session.AccessExpired(s.now()) {
		return s.refresh(ctx, session)
	}
	return session.AccessToken, nil
}

// Refresh получает новый access token по сохраненному refresh token
func (s *Service) Refresh(ctx context.Context) (string, error) {
	session, err := s.Session(ctx)
	if err != nil {
		return "", err
	}
	return s.refresh(ctx, session)
}

func (s *Service) refresh(ctx context.Context, session *storage.Session) (string, error) {
	if session.RefreshExpired(s.now()) {
		return "", s.forget(ctx)
	}

	resp, err := s.client.Refresh(ctx, session.RefreshToken)
	if err != nil {
		switch api.StatusCode(err) {
		case http.StatusForbidden, http.StatusNotFound:
			return "", s.forget(ctx)
		}
		return "", err
	}

	session.AccessToken = resp.AccessToken
	session.AccessExpiresAt = resp.AccessExpiresAt
	if err := s.store.SaveSession(ctx, session); err != nil {
		return "", fmt.Errorf("failed to save session: %w", err)
	}

	return session.AccessToken, nil
}

// forget удаляет сессию, которую сервер больше не принимает
func (s *Service) forget(ctx context.Context) error {
	if err := s.store.DeleteSession(ctx); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	s.logger.InfoContext(ctx, "stored session discarded")
	return ErrSessionRevoked
}
