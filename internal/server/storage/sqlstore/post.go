package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/iudanet/readshare/internal/models"
	"github.com/iudanet/readshare/internal/server/storage"
)

// postSelect выбирает пост вместе с автором, счетчиками и флагом likedByMe.
// Первый плейсхолдер - ID просматривающего пользователя.
const postSelect = `
	SELECT p.id, p.user_id, p.title, p.author, p.cover_url, p.progress, p.content,
		p.created_at, p.updated_at,
		u.username, u.display_name, u.avatar_url,
		(SELECT COUNT(*) FROM likes l WHERE l.post_id = p.id) AS likes_count,
		(SELECT COUNT(*) FROM comments c WHERE c.post_id = p.id) AS comments_count,
		EXISTS (SELECT 1 FROM likes l WHERE l.post_id = p.id AND l.user_id = ?) AS liked_by_me
	FROM posts p
	JOIN users u ON u.id = p.user_id
`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPost(row rowScanner) (*models.Post, error) {
	p := &models.Post{}
	var coverURL, displayName, avatarURL sql.NullString

	err := row.Scan(
		&p.ID,
		&p.UserID,
		&p.Title,
		&p.Author,
		&coverURL,
		&p.Progress,
		&p.Content,
		&p.CreatedAt,
		&p.UpdatedAt,
		&p.User.Username,
		&displayName,
		&avatarURL,
		&p.LikesCount,
		&p.CommentsCount,
		&p.LikedByMe,
	)
	if err != nil {
		return nil, err
	}

	p.CoverURL = stringPtr(coverURL)
	p.User.ID = p.UserID
	p.User.DisplayName = stringPtr(displayName)
	p.User.AvatarURL = stringPtr(avatarURL)

	return p, nil
}

// CreatePost stores a new post
func (s *Storage) CreatePost(ctx context.Context, post *models.Post) error {
	query := `
		INSERT INTO posts (id, user_id, title, author, cover_url, progress, content, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, s.q(query),
		post.ID,
		post.UserID,
		post.Title,
		post.Author,
		nullString(post.CoverURL),
		post.Progress,
		post.Content,
		post.CreatedAt.UTC(),
		post.UpdatedAt.UTC(),
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return storage.ErrUserNotFound
		}
		return fmt.Errorf("failed to insert post: %w", err)
	}

	return nil
}

// GetPost retrieves post by ID
func (s *Storage) GetPost(ctx context.Context, postID, viewerID string) (*models.Post, error) {
	query := postSelect + ` WHERE p.id = ?`

	post, err := scanPost(s.db.QueryRowContext(ctx, s.q(query), viewerID, postID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrPostNotFound
		}
		return nil, fmt.Errorf("failed to get post: %w", err)
	}

	return post, nil
}

// ListPosts returns a page of posts, newest first.
// ULID IDs sort by creation time, so ordering by id is chronological.
func (s *Storage) ListPosts(ctx context.Context, filter storage.PostFilter, page models.Page) ([]*models.Post, int, error) {
	where := ``
	countArgs := []any{}
	if filter.AuthorID != "" {
		where = ` WHERE p.user_id = ?`
		countArgs = append(countArgs, filter.AuthorID)
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM posts p` + where
	if err := s.db.QueryRowContext(ctx, s.q(countQuery), countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count posts: %w", err)
	}

	query := postSelect + where + ` ORDER BY p.id DESC LIMIT ? OFFSET ?`
	args := append([]any{filter.ViewerID}, countArgs...)
	args = append(args, page.Limit, page.Offset())

	rows, err := s.db.QueryContext(ctx, s.q(query), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query posts: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	posts := make([]*models.Post, 0, page.Limit)
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan post: %w", err)
		}
		posts = append(posts, p)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating posts: %w", err)
	}

	return posts, total, nil
}

// UpdatePost updates post fields
func (s *Storage) UpdatePost(ctx context.Context, post *models.Post) error {
	query := `
		UPDATE posts
		SET title = ?, author = ?, cover_url = ?, progress = ?, content = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := s.db.ExecContext(ctx, s.q(query),
		post.Title,
		post.Author,
		nullString(post.CoverURL),
		post.Progress,
		post.Content,
		post.UpdatedAt.UTC(),
		post.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update post: %w", err)
	}

	return expectOneRow(result, storage.ErrPostNotFound)
}

// DeletePost deletes post by ID; likes and comments go by cascade
func (s *Storage) DeletePost(ctx context.Context, postID string) error {
	result, err := s.db.ExecContext(ctx, s.q(`DELETE FROM posts WHERE id = ?`), postID)
	if err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}

	return expectOneRow(result, storage.ErrPostNotFound)
}

func expectOneRow(result sql.Result, notFound error) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return notFound
	}
	return nil
}
