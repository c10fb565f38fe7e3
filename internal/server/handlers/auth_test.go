package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/readshare/internal/apperr"
	"github.com/iudanet/readshare/internal/models"
	"github.com/iudanet/readshare/internal/server/session"
	"github.com/iudanet/readshare/pkg/api"
)

// setupTestLogger creates a logger for testing
func setupTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// mockAuthService is a mock implementation of AuthService for testing
type mockAuthService struct {
	registerFn func(ctx context.Context, in session.RegisterInput) (*models.User, error)
	loginFn    func(ctx context.Context, email, password string) (*session.TokenPair, error)
	refreshFn  func(ctx context.Context, token string) (string, time.Time, error)
	logoutFn   func(ctx context.Context, token string) error

	lastToken string
}

func (m *mockAuthService) Register(ctx context.Context, in session.RegisterInput) (*models.User, error) {
	return m.registerFn(ctx, in)
}

func (m *mockAuthService) Login(ctx context.Context, email, password string) (*session.TokenPair, error) {
	return m.loginFn(ctx, email, password)
}

func (m *mockAuthService) Refresh(ctx context.Context, token string) (string, time.Time, error) {
	m.lastToken = token
	return m.refreshFn(ctx, token)
}

func (m *mockAuthService) Logout(ctx context.Context, token string) error {
	m.lastToken = token
	return m.logoutFn(ctx, token)
}

func jsonBody(t *testing.T, v any) *bytes.Reader {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewReader(b)
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) api.ErrorResponse {
	t.Helper()
	var resp api.ErrorResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	return resp
}

func TestAuthHandler_Register(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	tests := []struct {
		name       string
		body       io.Reader
		serviceErr error
		wantStatus int
	}{
		{
			name:       "success",
			body:       jsonBody(t, api.RegisterRequest{Username: "reader", Email: "r@example.com", Password: "password123"}),
			wantStatus: http.StatusCreated,
		},
		{
			name:       "invalid json",
			body:       bytes.NewReader([]byte("{")),
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "empty body",
			body:       bytes.NewReader(nil),
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "duplicate email",
			body:       jsonBody(t, api.RegisterRequest{Username: "reader", Email: "r@example.com", Password: "password123"}),
			serviceErr: apperr.New(apperr.ErrConflict, "email already registered"),
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "storage failure",
			body:       jsonBody(t, api.RegisterRequest{Username: "reader", Email: "r@example.com", Password: "password123"}),
			serviceErr: errors.New("disk I/O error"),
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockAuthService{
				registerFn: func(_ context.Context, in session.RegisterInput) (*models.User, error) {
					if tt.serviceErr != nil {
						return nil, tt.serviceErr
					}
					return &models.User{
						ID: "u1", Email: in.Email, Username: in.Username,
						PasswordHash: "$2a$secret", CreatedAt: now, UpdatedAt: now,
					}, nil
				},
			}
			handler := NewAuthHandler(setupTestLogger(), svc, []string{"Bearer"})

			req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", tt.body)
			rr := httptest.NewRecorder()
			handler.Register(rr, req)

			assert.Equal(t, tt.wantStatus, rr.Code)
			assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

			if tt.wantStatus == http.StatusCreated {
				assert.NotContains(t, rr.Body.String(), "secret")
				var resp api.RegisterResponse
				require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
				assert.Equal(t, "u1", resp.User.ID)
				assert.Equal(t, "r@example.com", resp.User.Email)
				return
			}

			errResp := decodeError(t, rr)
			assert.Equal(t, http.StatusText(tt.wantStatus), errResp.Error)
			if tt.wantStatus == http.StatusInternalServerError {
				assert.Equal(t, "internal server error", errResp.Message)
			}
		})
	}
}

func TestAuthHandler_Login(t *testing.T) {
	exp := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	tests := []struct {
		name       string
		serviceErr error
		wantStatus int
	}{
		{"success", nil, http.StatusOK},
		{"unknown email", apperr.New(apperr.ErrNotFound, "user not found"), http.StatusNotFound},
		{"wrong password", apperr.ErrInvalidCredentials, http.StatusBadRequest},
		{"missing fields", apperr.New(apperr.ErrValidation, "email and password are required"), http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockAuthService{
				loginFn: func(_ context.Context, email, password string) (*session.TokenPair, error) {
					assert.Equal(t, "r@example.com", email)
					assert.Equal(t, "password123", password)
					if tt.serviceErr != nil {
						return nil, tt.serviceErr
					}
					return &session.TokenPair{
						UserID: "u1", AccessToken: "access", AccessExpiresAt: exp,
						RefreshToken: "refresh", RefreshExpiresAt: exp.Add(time.Hour),
					}, nil
				},
			}
			handler := NewAuthHandler(setupTestLogger(), svc, []string{"Bearer"})

			body := jsonBody(t, api.LoginRequest{Email: "r@example.com", Password: "password123"})
			req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", body)
			rr := httptest.NewRecorder()
			handler.Login(rr, req)

			require.Equal(t, tt.wantStatus, rr.Code)
			if tt.serviceErr != nil {
				return
			}

			var resp api.LoginResponse
			require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
			assert.Equal(t, "access", resp.AccessToken)
			assert.Equal(t, "refresh", resp.RefreshToken)
			assert.Equal(t, "u1", resp.UserID)
			assert.True(t, exp.Equal(resp.AccessExpiresAt))
		})
	}
}

func TestAuthHandler_Refresh(t *testing.T) {
	exp := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	tests := []struct {
		name       string
		header     string
		serviceErr error
		wantStatus int
		wantToken  string
	}{
		{"success", "Bearer rt", nil, http.StatusOK, "rt"},
		{"scheme is case-insensitive", "bearer rt", nil, http.StatusOK, "rt"},
		{"no header", "", apperr.New(apperr.ErrUnauthenticated, "refresh token is required"), http.StatusUnauthorized, ""},
		{"invalid token", "Bearer bad", apperr.New(apperr.ErrInvalidToken, "invalid refresh token"), http.StatusForbidden, "bad"},
		{"reuse detected", "Bearer old", apperr.ErrRefreshReuse, http.StatusForbidden, "old"},
		{"owner gone", "Bearer rt", apperr.New(apperr.ErrNotFound, "user not found"), http.StatusNotFound, "rt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockAuthService{
				refreshFn: func(context.Context, string) (string, time.Time, error) {
					if tt.serviceErr != nil {
						return "", time.Time{}, tt.serviceErr
					}
					return "new-access", exp, nil
				},
			}
			handler := NewAuthHandler(setupTestLogger(), svc, []string{"Bearer"})

			req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/refresh", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rr := httptest.NewRecorder()
			handler.Refresh(rr, req)

			assert.Equal(t, tt.wantStatus, rr.Code)
			assert.Equal(t, tt.wantToken, svc.lastToken)

			if tt.wantStatus == http.StatusOK {
				var resp api.RefreshResponse
				require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
				assert.Equal(t, "new-access", resp.AccessToken)
			}
		})
	}
}

func TestAuthHandler_Logout(t *testing.T) {
	tests := []struct {
		name       string
		serviceErr error
		wantStatus int
	}{
		{"success", nil, http.StatusOK},
		{"invalid token", apperr.New(apperr.ErrInvalidToken, "invalid refresh token"), http.StatusForbidden},
		{"no token", apperr.New(apperr.ErrUnauthenticated, "refresh token is required"), http.StatusUnauthorized},
		{"owner gone", apperr.New(apperr.ErrNotFound, "user not found"), http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockAuthService{
				logoutFn: func(context.Context, string) error { return tt.serviceErr },
			}
			handler := NewAuthHandler(setupTestLogger(), svc, []string{"Token"})

			req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil)
			req.Header.Set("Authorization", "Token rt")
			rr := httptest.NewRecorder()
			handler.Logout(rr, req)

			assert.Equal(t, tt.wantStatus, rr.Code)
			assert.Equal(t, "rt", svc.lastToken)
		})
	}
}
