// Package feed implements posts about books, likes and comments.
package feed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/iudanet/readshare/internal/apperr"
	"github.com/iudanet/readshare/internal/models"
	"github.com/iudanet/readshare/internal/server/storage"
	"github.com/iudanet/readshare/internal/validation"
)

// Параметры пагинации
const (
	DefaultLimit = 10
	MaxLimit     = 50
)

// Store is the part of the persistence layer the feed needs
type Store interface {
	GetUserByID(ctx context.Context, userID string) (*models.User, error)
	storage.PostStorage
	storage.LikeStorage
	storage.CommentStorage
}

// Service implements feed operations
type Service struct {
	logger *slog.Logger
	store  Store
	now    func() time.Time
}

// NewService создает сервис ленты
func NewService(logger *slog.Logger, store Store) *Service {
	return &Service{logger: logger, store: store, now: time.Now}
}

// PostInput contains fields of a new post
type PostInput struct {
	Title    string
	Author   string
	CoverURL *string
	Progress int
	Content  string
}

// PostPatch contains changed post fields; nil means unchanged
type PostPatch struct {
	Title    *string
	Author   *string
	CoverURL *string
	Progress *int
	Content  *string
}

// PostPage is one page of the feed
type PostPage struct {
	Posts   []*models.Post
	Page    int
	Limit   int
	Total   int
	HasMore bool
}

// CommentPage is one page of a post's comments
type CommentPage struct {
	Comments []*models.Comment
	Page     int
	Limit    int
	Total    int
	HasMore  bool
}

// NormalizePage applies defaults and bounds to page/limit query values
func NormalizePage(page, limit int) models.Page {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return models.Page{Number: page, Limit: limit}
}

func hasMore(p models.Page, total int) bool {
	return p.Offset()+p.Limit < total
}

// CreatePost publishes a post on behalf of userID
func (s *Service) CreatePost(ctx context.Context, userID string, in PostInput) (*models.Post, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Author = strings.TrimSpace(in.Author)

	if err := validation.ValidateBook(in.Title, in.Author); err != nil {
		return nil, apperr.New(apperr.ErrValidation, "%s", err.Error())
	}
	if err := validation.ValidateProgress(in.Progress); err != nil {
		return nil, apperr.New(apperr.ErrValidation, "%s", err.Error())
	}
	if err := validation.ValidateContent(in.Content, true); err != nil {
		return nil, apperr.New(apperr.ErrValidation, "%s", err.Error())
	}

	now := s.now().UTC()
	post := &models.Post{
		ID:        ulid.Make().String(),
		UserID:    userID,
		Title:     in.Title,
		Author:    in.Author,
		CoverURL:  trimOptional(in.CoverURL),
		Progress:  in.Progress,
		Content:   in.Content,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.store.CreatePost(ctx, post); err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return nil, apperr.New(apperr.ErrNotFound, "user not found")
		}
		return nil, fmt.Errorf("create post: %w", err)
	}

	s.logger.InfoContext(ctx, "post created",
		slog.String("user_id", userID),
		slog.String("post_id", post.ID))

	return s.GetPost(ctx, post.ID, userID)
}

// GetPost returns a post as seen by viewerID
func (s *Service) GetPost(ctx context.Context, postID, viewerID string) (*models.Post, error) {
	post, err := s.store.GetPost(ctx, postID, viewerID)
	if err != nil {
		if errors.Is(err, storage.ErrPostNotFound) {
			return nil, apperr.New(apperr.ErrNotFound, "post not found")
		}
		return nil, fmt.Errorf("get post: %w", err)
	}
	return post, nil
}

// ListPosts returns a page of the feed, newest first.
// A non-empty authorID restricts the feed to that user's posts.
func (s *Service) ListPosts(ctx context.Context, viewerID, authorID string, page, limit int) (*PostPage, error) {
	if authorID != "" {
		if _, err := s.store.GetUserByID(ctx, authorID); err != nil {
			if errors.Is(err, storage.ErrUserNotFound) {
				return nil, apperr.New(apperr.ErrNotFound, "user not found")
			}
			return nil, fmt.Errorf("get user: %w", err)
		}
	}

	p := NormalizePage(page, limit)
	posts, total, err := s.store.ListPosts(ctx, storage.PostFilter{AuthorID: authorID, ViewerID: viewerID}, p)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}

	return &PostPage{
		Posts:   posts,
		Page:    p.Number,
		Limit:   p.Limit,
		Total:   total,
		HasMore: hasMore(p, total),
	}, nil
}

// UpdatePost applies a patch; only the owner may edit
func (s *Service) UpdatePost(ctx context.Context, userID, postID string, patch PostPatch) (*models.Post, error) {
	post, err := s.GetPost(ctx, postID, userID)
	if err != nil {
		return nil, err
	}
	if post.UserID != userID {
		return nil, apperr.New(apperr.ErrForbiddenAction, "only the author can edit this post")
	}

	if patch.Title != nil {
		post.Title = strings.TrimSpace(*patch.Title)
	}
	if patch.Author != nil {
		post.Author = strings.TrimSpace(*patch.Author)
	}
	if patch.CoverURL != nil {
		post.CoverURL = trimOptional(patch.CoverURL)
	}
	if patch.Progress != nil {
		post.Progress = *patch.Progress
	}
	if patch.Content != nil {
		post.Content = *patch.Content
	}

	if err := validation.ValidateBook(post.Title, post.Author); err != nil {
		return nil, apperr.New(apperr.ErrValidation, "%s", err.Error())
	}
	if err := validation.ValidateProgress(post.Progress); err != nil {
		return nil, apperr.New(apperr.ErrValidation, "%s", err.Error())
	}
	if err := validation.ValidateContent(post.Content, true); err != nil {
		return nil, apperr.New(apperr.ErrValidation, "%s", err.Error())
	}

	post.UpdatedAt = s.now().UTC()
	if err := s.store.UpdatePost(ctx, post); err != nil {
		if errors.Is(err, storage.ErrPostNotFound) {
			return nil, apperr.New(apperr.ErrNotFound, "post not found")
		}
		return nil, fmt.Errorf("update post: %w", err)
	}

	return post, nil
}

// DeletePost removes a post; only the owner may delete
func (s *Service) DeletePost(ctx context.Context, userID, postID string) error {
	post, err := s.GetPost(ctx, postID, userID)
	if err != nil {
		return err
	}
	if post.UserID != userID {
		return apperr.New(apperr.ErrForbiddenAction, "only the author can delete this post")
	}

	if err := s.store.DeletePost(ctx, postID); err != nil {
		if errors.Is(err, storage.ErrPostNotFound) {
			return apperr.New(apperr.ErrNotFound, "post not found")
		}
		return fmt.Errorf("delete post: %w", err)
	}

	s.logger.InfoContext(ctx, "post deleted",
		slog.String("user_id", userID),
		slog.String("post_id", postID))
	return nil
}

func trimOptional(v *string) *string {
	if v == nil {
		return nil
	}
	t := strings.TrimSpace(*v)
	if t == "" {
		return nil
	}
	return &t
}
