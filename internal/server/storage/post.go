package storage

import (
	"context"

	"github.com/iudanet/readshare/internal/models"
)

// PostFilter narrows a post listing
type PostFilter struct {
	AuthorID string // пусто - вся лента
	ViewerID string // для вычисления likedByMe
}

// PostStorage defines interface for post persistence
type PostStorage interface {
	// CreatePost stores a new post
	// Returns ErrUserNotFound if the author doesn't exist
	CreatePost(ctx context.Context, post *models.Post) error

	// GetPost retrieves post with counters and author summary
	// viewerID is used for LikedByMe and may be empty
	// Returns ErrPostNotFound if post doesn't exist
	GetPost(ctx context.Context, postID, viewerID string) (*models.Post, error)

	// ListPosts returns a page of posts, newest first, and the total count
	ListPosts(ctx context.Context, filter PostFilter, page models.Page) ([]*models.Post, int, error)

	// UpdatePost updates title, author, cover, progress and content
	// Returns ErrPostNotFound if post doesn't exist
	UpdatePost(ctx context.Context, post *models.Post) error

	// DeletePost deletes post with its likes and comments
	// Returns ErrPostNotFound if post doesn't exist
	DeletePost(ctx context.Context, postID string) error
}

// LikeStorage defines interface for post likes
type LikeStorage interface {
	// AddLike records that the user liked the post and returns the new count
	// Returns ErrAlreadyLiked on a repeated like, ErrPostNotFound for unknown post
	AddLike(ctx context.Context, postID, userID string) (int, error)

	// RemoveLike removes the like and returns the new count
	// Returns ErrLikeNotFound if the user has not liked the post
	RemoveLike(ctx context.Context, postID, userID string) (int, error)
}

// CommentStorage defines interface for post comments
type CommentStorage interface {
	// CreateComment stores a new comment
	// Returns ErrPostNotFound if the post doesn't exist
	CreateComment(ctx context.Context, comment *models.Comment) error

	// GetComment retrieves comment by ID
	// Returns ErrCommentNotFound if comment doesn't exist
	GetComment(ctx context.Context, commentID string) (*models.Comment, error)

	// ListComments returns a page of the post's comments, oldest first, and the total count
	ListComments(ctx context.Context, postID string, page models.Page) ([]*models.Comment, int, error)

	// DeleteComment deletes comment by ID
	// Returns ErrCommentNotFound if comment doesn't exist
	DeleteComment(ctx context.Context, commentID string) error
}
