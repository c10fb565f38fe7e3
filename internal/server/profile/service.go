package profile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/iudanet/readshare/internal/apperr"
	"github.com/iudanet/readshare/internal/models"
	"github.com/iudanet/readshare/internal/server/storage"
	"github.com/iudanet/readshare/internal/validation"
)

// Update содержит изменяемые поля профиля; nil означает "не менять".
// Пустая строка для DisplayName и AvatarURL очищает поле.
type Update struct {
	Username    *string
	DisplayName *string
	AvatarURL   *string
}

// Service manages user profiles
type Service struct {
	logger *slog.Logger
	users  storage.UserStorage
	now    func() time.Time
}

// NewService создает сервис профилей
func NewService(logger *slog.Logger, users storage.UserStorage) *Service {
	return &Service{logger: logger, users: users, now: time.Now}
}

// Get returns the user by ID
func (s *Service) Get(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return nil, apperr.New(apperr.ErrNotFound, "user not found")
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

// Update applies a partial profile update
func (s *Service) Update(ctx context.Context, userID string, upd Update) (*models.User, error) {
	user, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	if upd.Username != nil {
		username := strings.TrimSpace(*upd.Username)
		if err := validation.ValidateUsername(username); err != nil {
			return nil, apperr.New(apperr.ErrValidation, "%s", err.Error())
		}
		user.Username = username
	}

	if upd.DisplayName != nil {
		name := strings.TrimSpace(*upd.DisplayName)
		if err := validation.ValidateDisplayName(name); err != nil {
			return nil, apperr.New(apperr.ErrValidation, "%s", err.Error())
		}
		user.DisplayName = optional(name)
	}

	if upd.AvatarURL != nil {
		user.AvatarURL = optional(strings.TrimSpace(*upd.AvatarURL))
	}

	user.UpdatedAt = s.now().UTC()
	if err := s.users.UpdateUser(ctx, user); err != nil {
		switch {
		case errors.Is(err, storage.ErrUserAlreadyExists):
			return nil, apperr.New(apperr.ErrConflict, "username already taken")
		case errors.Is(err, storage.ErrUserNotFound):
			return nil, apperr.New(apperr.ErrNotFound, "user not found")
		}
		return nil, fmt.Errorf("update user: %w", err)
	}

	s.logger.InfoContext(ctx, "profile updated", slog.String("user_id", userID))
	return user, nil
}

// Delete destroys the user together with its tokens, posts, likes and comments
func (s *Service) Delete(ctx context.Context, userID string) error {
	if err := s.users.DeleteUser(ctx, userID); err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return apperr.New(apperr.ErrNotFound, "user not found")
		}
		return fmt.Errorf("delete user: %w", err)
	}

	s.logger.InfoContext(ctx, "account deleted", slog.String("user_id", userID))
	return nil
}

func optional(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
