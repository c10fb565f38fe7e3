package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/iudanet/readshare/internal/models"
	"github.com/iudanet/readshare/internal/server/profile"
	"github.com/iudanet/readshare/pkg/api"
)

// ProfileService manages user profiles
type ProfileService interface {
	Get(ctx context.Context, userID string) (*models.User, error)
	Update(ctx context.Context, userID string, upd profile.Update) (*models.User, error)
	Delete(ctx context.Context, userID string) error
}

// CredentialService covers the session operations exposed on /users/me
type CredentialService interface {
	ChangePassword(ctx context.Context, userID, current, next string) error
	ActiveSessions(ctx context.Context, userID string) (int, error)
}

// UserHandler обрабатывает запросы профиля
type UserHandler struct {
	responder
	profiles    ProfileService
	credentials CredentialService
}

// NewUserHandler создает handler профилей
func NewUserHandler(logger *slog.Logger, profiles ProfileService, credentials CredentialService) *UserHandler {
	return &UserHandler{
		responder:   responder{logger: logger},
		profiles:    profiles,
		credentials: credentials,
	}
}

// Me обрабатывает GET /api/v1/users/me
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	user, err := h.profiles.Get(r.Context(), userID)
	if err != nil {
		h.sendAppError(w, r, err)
		return
	}

	sessions, err := h.credentials.ActiveSessions(r.Context(), userID)
	if err != nil {
		h.sendAppError(w, r, err)
		return
	}

	h.sendJSON(w, api.MeResponse{User: toAPIUser(user, true), ActiveSessions: sessions}, http.StatusOK)
}

// UpdateMe обрабатывает PATCH /api/v1/users/me
func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	var req api.UpdateProfileRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.sendAppError(w, r, err)
		return
	}

	user, err := h.profiles.Update(r.Context(), userID, profile.Update{
		Username:    req.Username,
		DisplayName: req.DisplayName,
		AvatarURL:   req.AvatarURL,
	})
	if err != nil {
		h.sendAppError(w, r, err)
		return
	}

	h.sendJSON(w, toAPIUser(user, true), http.StatusOK)
}

// ChangePassword обрабатывает POST /api/v1/users/me/password
func (h *UserHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	var req api.ChangePasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.sendAppError(w, r, err)
		return
	}

	if err := h.credentials.ChangePassword(r.Context(), userID, req.CurrentPassword, req.NewPassword); err != nil {
		h.sendAppError(w, r, err)
		return
	}

	h.sendJSON(w, api.MessageResponse{Message: "password changed, all sessions revoked"}, http.StatusOK)
}

// DeleteMe обрабатывает DELETE /api/v1/users/me
func (h *UserHandler) DeleteMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	if err := h.profiles.Delete(r.Context(), userID); err != nil {
		h.sendAppError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GetUser обрабатывает GET /api/v1/users/{id}
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.profiles.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		h.sendAppError(w, r, err)
		return
	}

	h.sendJSON(w, toAPIUser(user, false), http.StatusOK)
}
