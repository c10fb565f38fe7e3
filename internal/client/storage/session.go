package storage

import (
	"context"
	"errors"
	"time"
)

// ErrSessionNotFound indicates that no session is stored
var ErrSessionNotFound = errors.New("session not found")

// Session is the locally cached login state
type Session struct {
	UserID           string    `json:"user_id"`
	Email            string    `json:"email"`
	AccessToken      string    `json:"access_token"`
	RefreshToken     string    `json:"refresh_token"`
	AccessExpiresAt  time.Time `json:"access_expires_at"`
	RefreshExpiresAt time.Time `json:"refresh_expires_at"`
}

// AccessExpired reports whether the access token is expired at now
func (s *Session) AccessExpired(now time.Time) bool {
	return !now.Before(s.AccessExpiresAt)
}

// RefreshExpired reports whether the refresh token is expired at now
func (s *Session) RefreshExpired(now time.Time) bool {
	return !now.Before(s.RefreshExpiresAt)
}

// SessionStorage defines interface for storing the session on the client
type SessionStorage interface {
	// SaveSession replaces the stored session
	SaveSession(ctx context.Context, s *Session) error

	// GetSession returns ErrSessionNotFound if nothing is stored
	GetSession(ctx context.Context) (*Session, error)

	// DeleteSession removes the stored session; deleting nothing is not an error
	DeleteSession(ctx context.Context) error
}
