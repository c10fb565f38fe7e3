package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/iudanet/readshare/internal/models"
	"github.com/iudanet/readshare/internal/server/storage"
)

const userColumns = `id, email, username, password_hash, display_name, avatar_url, created_at, updated_at`

// CreateUser creates a new user in the storage
func (s *Storage) CreateUser(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, s.q(query),
		user.ID,
		user.Email,
		user.Username,
		user.PasswordHash,
		nullString(user.DisplayName),
		nullString(user.AvatarURL),
		user.CreatedAt.UTC(),
		user.UpdatedAt.UTC(),
	)

	if err != nil {
		// Проверяем на duplicate email/username
		if isUniqueViolation(err) {
			return storage.ErrUserAlreadyExists
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}

	return nil
}

// GetUserByEmail retrieves user by email
func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = ?`
	return s.getUser(ctx, query, email)
}

// GetUserByID retrieves user by ID
func (s *Storage) GetUserByID(ctx context.Context, userID string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = ?`
	return s.getUser(ctx, query, userID)
}

func (s *Storage) getUser(ctx context.Context, query string, arg string) (*models.User, error) {
	user := &models.User{}
	var displayName, avatarURL sql.NullString

	err := s.db.QueryRowContext(ctx, s.q(query), arg).Scan(
		&user.ID,
		&user.Email,
		&user.Username,
		&user.PasswordHash,
		&displayName,
		&avatarURL,
		&user.CreatedAt,
		&user.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	user.DisplayName = stringPtr(displayName)
	user.AvatarURL = stringPtr(avatarURL)

	return user, nil
}

// UpdateUser updates profile fields; password_hash is left untouched
func (s *Storage) UpdateUser(ctx context.Context, user *models.User) error {
	query := `
		UPDATE users
		SET username = ?, display_name = ?, avatar_url = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := s.db.ExecContext(ctx, s.q(query),
		user.Username,
		nullString(user.DisplayName),
		nullString(user.AvatarURL),
		user.UpdatedAt.UTC(),
		user.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrUserAlreadyExists
		}
		return fmt.Errorf("failed to update user: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return storage.ErrUserNotFound
	}

	return nil
}

// ReplacePassword sets password_hash and clears the refresh token set in one transaction
func (s *Storage) ReplacePassword(ctx context.Context, userID, passwordHash string, updatedAt time.Time) (int, error) {
	var revoked int

	err := s.withTx(ctx, func(tx dbtx) error {
		query := `UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?`
		result, err := tx.ExecContext(ctx, s.q(query), passwordHash, updatedAt.UTC(), userID)
		if err != nil {
			return fmt.Errorf("failed to update password: %w", err)
		}

		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get affected rows: %w", err)
		}
		if rows == 0 {
			return storage.ErrUserNotFound
		}

		revoked, err = clearRefreshTokens(ctx, tx, s.q, userID)
		return err
	})
	if err != nil {
		return 0, err
	}

	return revoked, nil
}

// DeleteUser deletes user by ID; tokens, posts, likes and comments go by cascade
func (s *Storage) DeleteUser(ctx context.Context, userID string) error {
	result, err := s.db.ExecContext(ctx, s.q(`DELETE FROM users WHERE id = ?`), userID)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return storage.ErrUserNotFound
	}

	return nil
}
