package feed

import (
	"context"
	"errors"
	"fmt"

	"github.com/iudanet/readshare/internal/apperr"
	"github.com/iudanet/readshare/internal/server/storage"
)

// Like records userID's like on a post and returns the new likes count.
// Liking one's own post or liking twice is rejected.
func (s *Service) Like(ctx context.Context, userID, postID string) (int, error) {
	post, err := s.GetPost(ctx, postID, userID)
	if err != nil {
		return 0, err
	}
	if post.UserID == userID {
		return 0, apperr.New(apperr.ErrForbiddenAction, "you cannot like your own post")
	}

	count, err := s.store.AddLike(ctx, postID, userID)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrAlreadyLiked):
			return 0, apperr.New(apperr.ErrConflict, "post already liked")
		case errors.Is(err, storage.ErrPostNotFound):
			return 0, apperr.New(apperr.ErrNotFound, "post not found")
		}
		return 0, fmt.Errorf("add like: %w", err)
	}

	return count, nil
}

// Unlike removes userID's like and returns the new likes count
func (s *Service) Unlike(ctx context.Context, userID, postID string) (int, error) {
	if _, err := s.GetPost(ctx, postID, userID); err != nil {
		return 0, err
	}

	count, err := s.store.RemoveLike(ctx, postID, userID)
	if err != nil {
		if errors.Is(err, storage.ErrLikeNotFound) {
			return 0, apperr.New(apperr.ErrConflict, "post is not liked")
		}
		return 0, fmt.Errorf("remove like: %w", err)
	}

	return count, nil
}
