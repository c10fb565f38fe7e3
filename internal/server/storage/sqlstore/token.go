package sqlstore

import (
	"context"
	"fmt"
	"time"

	"github.com/iudanet/readshare/internal/models"
	"github.com/iudanet/readshare/internal/server/storage"
)

// AddRefreshToken appends a token to the user's set
func (s *Storage) AddRefreshToken(ctx context.Context, userID, token string) error {
	query := `INSERT INTO refresh_tokens (token, user_id, created_at) VALUES (?, ?, ?)`

	_, err := s.db.ExecContext(ctx, s.q(query), token, userID, time.Now().UTC())
	if err != nil {
		if isForeignKeyViolation(err) {
			return storage.ErrUserNotFound
		}
		return fmt.Errorf("failed to add refresh token: %w", err)
	}

	return nil
}

// HasRefreshToken reports whether the token is in the user's set
func (s *Storage) HasRefreshToken(ctx context.Context, userID, token string) (bool, error) {
	return hasRefreshToken(ctx, s.db, s.q, userID, token)
}

func hasRefreshToken(ctx context.Context, db dbtx, q func(string) string, userID, token string) (bool, error) {
	query := `SELECT COUNT(*) FROM refresh_tokens WHERE user_id = ? AND token = ?`

	var n int
	if err := db.QueryRowContext(ctx, q(query), userID, token).Scan(&n); err != nil {
		return false, fmt.Errorf("failed to check refresh token: %w", err)
	}

	return n > 0, nil
}

// ListRefreshTokens returns the user's set, newest first
func (s *Storage) ListRefreshTokens(ctx context.Context, userID string) ([]*models.RefreshToken, error) {
	query := `
		SELECT token, user_id, created_at
		FROM refresh_tokens
		WHERE user_id = ?
		ORDER BY created_at DESC
	`

	rows, err := s.db.QueryContext(ctx, s.q(query), userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query user tokens: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	tokens := make([]*models.RefreshToken, 0)
	for rows.Next() {
		t := &models.RefreshToken{}
		if err := rows.Scan(&t.Token, &t.UserID, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan refresh token: %w", err)
		}
		tokens = append(tokens, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tokens: %w", err)
	}

	return tokens, nil
}

// ClearRefreshTokens empties the user's set
func (s *Storage) ClearRefreshTokens(ctx context.Context, userID string) (int, error) {
	return clearRefreshTokens(ctx, s.db, s.q, userID)
}

func clearRefreshTokens(ctx context.Context, db dbtx, q func(string) string, userID string) (int, error) {
	result, err := db.ExecContext(ctx, q(`DELETE FROM refresh_tokens WHERE user_id = ?`), userID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete user tokens: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}

	return int(rows), nil
}

// CheckRefreshToken checks membership; an absent token clears the whole set
// in the same transaction
func (s *Storage) CheckRefreshToken(ctx context.Context, userID, token string) (bool, error) {
	var member bool

	err := s.withTx(ctx, func(tx dbtx) error {
		ok, err := hasRefreshToken(ctx, tx, s.q, userID, token)
		if err != nil {
			return err
		}
		member = ok
		if ok {
			return nil
		}

		_, err = clearRefreshTokens(ctx, tx, s.q, userID)
		return err
	})
	if err != nil {
		return false, err
	}

	return member, nil
}
