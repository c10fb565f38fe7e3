package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/iudanet/readshare/internal/apperr"
	"github.com/iudanet/readshare/internal/models"
	"github.com/iudanet/readshare/internal/server/session"
	"github.com/iudanet/readshare/pkg/api"
)

// AuthService is the session authority used by AuthHandler
type AuthService interface {
	Register(ctx context.Context, in session.RegisterInput) (*models.User, error)
	Login(ctx context.Context, email, password string) (*session.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (string, time.Time, error)
	Logout(ctx context.Context, refreshToken string) error
}

// AuthHandler обрабатывает запросы авторизации
type AuthHandler struct {
	responder
	auth    AuthService
	schemes []string
}

// NewAuthHandler создает новый handler для авторизации.
// schemes задает допустимые префиксы заголовка Authorization.
func NewAuthHandler(logger *slog.Logger, auth AuthService, schemes []string) *AuthHandler {
	return &AuthHandler{
		responder: responder{logger: logger},
		auth:      auth,
		schemes:   schemes,
	}
}

// Register обрабатывает POST /api/v1/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req api.RegisterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.sendAppError(w, r, err)
		return
	}

	user, err := h.auth.Register(r.Context(), session.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		h.sendAppError(w, r, err)
		return
	}

	h.sendJSON(w, api.RegisterResponse{User: toAPIUser(user, true)}, http.StatusCreated)
}

// Login обрабатывает POST /api/v1/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req api.LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.sendAppError(w, r, err)
		return
	}

	pair, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.sendAppError(w, r, err)
		return
	}

	h.sendJSON(w, api.LoginResponse{
		AccessToken:      pair.AccessToken,
		RefreshToken:     pair.RefreshToken,
		UserID:           pair.UserID,
		AccessExpiresAt:  pair.AccessExpiresAt,
		RefreshExpiresAt: pair.RefreshExpiresAt,
	}, http.StatusOK)
}

// Refresh обрабатывает POST /api/v1/auth/refresh.
// Refresh token передается в заголовке Authorization.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	access, exp, err := h.auth.Refresh(r.Context(), ExtractToken(r, h.schemes))
	if err != nil {
		h.sendTokenError(w, r, err)
		return
	}

	h.sendJSON(w, api.RefreshResponse{
		AccessToken:     access,
		AccessExpiresAt: exp,
	}, http.StatusOK)
}

// Logout обрабатывает POST /api/v1/auth/logout.
// Отзывает все refresh токены владельца предъявленного токена.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.auth.Logout(r.Context(), ExtractToken(r, h.schemes)); err != nil {
		h.sendTokenError(w, r, err)
		return
	}

	h.sendJSON(w, api.MessageResponse{Message: "logged out"}, http.StatusOK)
}

// sendTokenError: на refresh и logout невалидный токен означает 403, а не 401
func (h *AuthHandler) sendTokenError(w http.ResponseWriter, r *http.Request, err error) {
	status := apperr.StatusFor(err)
	if errors.Is(err, apperr.ErrInvalidToken) {
		status = http.StatusForbidden
	}
	h.sendAppErrorStatus(w, r, err, status)
}
