package storage

import (
	"context"
	"time"

	"github.com/iudanet/readshare/internal/models"
)

// UserStorage defines interface for user data persistence
type UserStorage interface {
	// CreateUser creates a new user in the storage
	// Returns ErrUserAlreadyExists if email or username is taken
	CreateUser(ctx context.Context, user *models.User) error

	// GetUserByEmail retrieves user by (normalized) email
	// Returns ErrUserNotFound if user doesn't exist
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)

	// GetUserByID retrieves user by ID
	// Returns ErrUserNotFound if user doesn't exist
	GetUserByID(ctx context.Context, userID string) (*models.User, error)

	// UpdateUser updates profile fields (username, display name, avatar).
	// The password hash is never written here.
	// Returns ErrUserNotFound if user doesn't exist,
	// ErrUserAlreadyExists if the new username is taken
	UpdateUser(ctx context.Context, user *models.User) error

	// ReplacePassword sets the password hash and clears the user's refresh
	// token set in one transaction. Returns the number of revoked tokens.
	// Returns ErrUserNotFound if user doesn't exist
	ReplacePassword(ctx context.Context, userID, passwordHash string, updatedAt time.Time) (int, error)

	// DeleteUser deletes user by ID together with tokens, posts, likes and comments
	// Returns ErrUserNotFound if user doesn't exist
	DeleteUser(ctx context.Context, userID string) error
}
