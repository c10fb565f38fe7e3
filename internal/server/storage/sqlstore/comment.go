package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/iudanet/readshare/internal/models"
	"github.com/iudanet/readshare/internal/server/storage"
)

const commentSelect = `
	SELECT c.id, c.post_id, c.user_id, c.content, c.created_at,
		u.username, u.display_name, u.avatar_url
	FROM comments c
	JOIN users u ON u.id = c.user_id
`

func scanComment(row rowScanner) (*models.Comment, error) {
	c := &models.Comment{}
	var displayName, avatarURL sql.NullString

	err := row.Scan(
		&c.ID,
		&c.PostID,
		&c.UserID,
		&c.Content,
		&c.CreatedAt,
		&c.User.Username,
		&displayName,
		&avatarURL,
	)
	if err != nil {
		return nil, err
	}

	c.User.ID = c.UserID
	c.User.DisplayName = stringPtr(displayName)
	c.User.AvatarURL = stringPtr(avatarURL)

	return c, nil
}

// CreateComment stores a new comment
func (s *Storage) CreateComment(ctx context.Context, comment *models.Comment) error {
	query := `
		INSERT INTO comments (id, post_id, user_id, content, created_at)
		VALUES (?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, s.q(query),
		comment.ID,
		comment.PostID,
		comment.UserID,
		comment.Content,
		comment.CreatedAt.UTC(),
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return storage.ErrPostNotFound
		}
		return fmt.Errorf("failed to insert comment: %w", err)
	}

	return nil
}

// GetComment retrieves comment by ID
func (s *Storage) GetComment(ctx context.Context, commentID string) (*models.Comment, error) {
	query := commentSelect + ` WHERE c.id = ?`

	comment, err := scanComment(s.db.QueryRowContext(ctx, s.q(query), commentID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrCommentNotFound
		}
		return nil, fmt.Errorf("failed to get comment: %w", err)
	}

	return comment, nil
}

// ListComments returns a page of the post's comments, oldest first
func (s *Storage) ListComments(ctx context.Context, postID string, page models.Page) ([]*models.Comment, int, error) {
	var total int
	countQuery := `SELECT COUNT(*) FROM comments WHERE post_id = ?`
	if err := s.db.QueryRowContext(ctx, s.q(countQuery), postID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count comments: %w", err)
	}

	query := commentSelect + ` WHERE c.post_id = ? ORDER BY c.id ASC LIMIT ? OFFSET ?`
	rows, err := s.db.QueryContext(ctx, s.q(query), postID, page.Limit, page.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query comments: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	comments := make([]*models.Comment, 0, page.Limit)
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan comment: %w", err)
		}
		comments = append(comments, c)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating comments: %w", err)
	}

	return comments, total, nil
}

// DeleteComment deletes comment by ID
func (s *Storage) DeleteComment(ctx context.Context, commentID string) error {
	result, err := s.db.ExecContext(ctx, s.q(`DELETE FROM comments WHERE id = ?`), commentID)
	if err != nil {
		return fmt.Errorf("failed to delete comment: %w", err)
	}

	return expectOneRow(result, storage.ErrCommentNotFound)
}
