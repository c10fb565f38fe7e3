package feed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/oklog/ulid/v2"

	"github.com/iudanet/readshare/internal/apperr"
	"github.com/iudanet/readshare/internal/models"
	"github.com/iudanet/readshare/internal/server/storage"
	"github.com/iudanet/readshare/internal/validation"
)

// AddComment adds a comment to a post
func (s *Service) AddComment(ctx context.Context, userID, postID, content string) (*models.Comment, error) {
	content = strings.TrimSpace(content)
	if err := validation.ValidateContent(content, false); err != nil {
		return nil, apperr.New(apperr.ErrValidation, "%s", err.Error())
	}

	comment := &models.Comment{
		ID:        ulid.Make().String(),
		PostID:    postID,
		UserID:    userID,
		Content:   content,
		CreatedAt: s.now().UTC(),
	}

	if err := s.store.CreateComment(ctx, comment); err != nil {
		if errors.Is(err, storage.ErrPostNotFound) {
			return nil, apperr.New(apperr.ErrNotFound, "post not found")
		}
		return nil, fmt.Errorf("create comment: %w", err)
	}

	return s.getComment(ctx, comment.ID)
}

// ListComments returns a page of a post's comments, oldest first
func (s *Service) ListComments(ctx context.Context, postID string, page, limit int) (*CommentPage, error) {
	if _, err := s.GetPost(ctx, postID, ""); err != nil {
		return nil, err
	}

	p := NormalizePage(page, limit)
	comments, total, err := s.store.ListComments(ctx, postID, p)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}

	return &CommentPage{
		Comments: comments,
		Page:     p.Number,
		Limit:    p.Limit,
		Total:    total,
		HasMore:  hasMore(p, total),
	}, nil
}

// DeleteComment removes a comment. Allowed for the comment author and the post owner.
func (s *Service) DeleteComment(ctx context.Context, userID, commentID string) error {
	comment, err := s.getComment(ctx, commentID)
	if err != nil {
		return err
	}

	if comment.UserID != userID {
		post, err := s.GetPost(ctx, comment.PostID, userID)
		if err != nil {
			return err
		}
		if post.UserID != userID {
			return apperr.New(apperr.ErrForbiddenAction, "only the comment author or post owner can delete it")
		}
	}

	if err := s.store.DeleteComment(ctx, commentID); err != nil {
		if errors.Is(err, storage.ErrCommentNotFound) {
			return apperr.New(apperr.ErrNotFound, "comment not found")
		}
		return fmt.Errorf("delete comment: %w", err)
	}

	s.logger.InfoContext(ctx, "comment deleted",
		slog.String("user_id", userID),
		slog.String("comment_id", commentID))
	return nil
}

func (s *Service) getComment(ctx context.Context, commentID string) (*models.Comment, error) {
	comment, err := s.store.GetComment(ctx, commentID)
	if err != nil {
		if errors.Is(err, storage.ErrCommentNotFound) {
			return nil, apperr.New(apperr.ErrNotFound, "comment not found")
		}
		return nil, fmt.Errorf("get comment: %w", err)
	}
	return comment, nil
}
