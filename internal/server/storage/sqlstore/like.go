package sqlstore

import (
	"context"
	"fmt"
	"time"

	"github.com/iudanet/readshare/internal/server/storage"
)

// AddLike records a like and returns the new likes count
func (s *Storage) AddLike(ctx context.Context, postID, userID string) (int, error) {
	var count int

	err := s.withTx(ctx, func(tx dbtx) error {
		query := `INSERT INTO likes (post_id, user_id, created_at) VALUES (?, ?, ?)`
		if _, err := tx.ExecContext(ctx, s.q(query), postID, userID, time.Now().UTC()); err != nil {
			switch {
			case isUniqueViolation(err):
				return storage.ErrAlreadyLiked
			case isForeignKeyViolation(err):
				return storage.ErrPostNotFound
			}
			return fmt.Errorf("failed to insert like: %w", err)
		}

		var err error
		count, err = countLikes(ctx, tx, s.q, postID)
		return err
	})
	if err != nil {
		return 0, err
	}

	return count, nil
}

// RemoveLike removes a like and returns the new likes count
func (s *Storage) RemoveLike(ctx context.Context, postID, userID string) (int, error) {
	var count int

	err := s.withTx(ctx, func(tx dbtx) error {
		query := `DELETE FROM likes WHERE post_id = ? AND user_id = ?`
		result, err := tx.ExecContext(ctx, s.q(query), postID, userID)
		if err != nil {
			return fmt.Errorf("failed to delete like: %w", err)
		}
		if err := expectOneRow(result, storage.ErrLikeNotFound); err != nil {
			return err
		}

		count, err = countLikes(ctx, tx, s.q, postID)
		return err
	})
	if err != nil {
		return 0, err
	}

	return count, nil
}

func countLikes(ctx context.Context, db dbtx, q func(string) string, postID string) (int, error) {
	var n int
	if err := db.QueryRowContext(ctx, q(`SELECT COUNT(*) FROM likes WHERE post_id = ?`), postID).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count likes: %w", err)
	}
	return n, nil
}
