package storage

import (
	"context"

	"github.com/iudanet/readshare/internal/models"
)

// TokenStorage defines interface for the per-user refresh token set.
// Every mutation is a single statement, so concurrent login and logout
// for the same user never lose updates.
type TokenStorage interface {
	// AddRefreshToken appends a token to the user's set
	// Returns ErrUserNotFound if the user doesn't exist
	AddRefreshToken(ctx context.Context, userID, token string) error

	// HasRefreshToken reports whether the token is in the user's set
	HasRefreshToken(ctx context.Context, userID, token string) (bool, error)

	// ListRefreshTokens returns the user's set, newest first
	// Returns empty slice if no tokens found
	ListRefreshTokens(ctx context.Context, userID string) ([]*models.RefreshToken, error)

	// ClearRefreshTokens empties the user's set
	// Returns number of deleted tokens
	ClearRefreshTokens(ctx context.Context, userID string) (int, error)

	// CheckRefreshToken checks membership and, if the token is absent,
	// clears the whole set in the same transaction.
	// Returns true if the token was a member (nothing is cleared then).
	CheckRefreshToken(ctx context.Context, userID, token string) (bool, error)
}
