package models

import "time"

// User представляет пользователя (principal) в системе
type User struct {
	ID           string    `json:"id"`                    // UUID пользователя
	Email        string    `json:"email"`                 // уникальный email, используется как логин
	Username     string    `json:"username"`              // отображаемый handle
	PasswordHash string    `json:"-"`                     // bcrypt хеш пароля, наружу не отдается
	DisplayName  *string   `json:"displayName,omitempty"` // опциональное имя
	AvatarURL    *string   `json:"avatarUrl,omitempty"`   // ссылка на аватар
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Summary возвращает публичную выжимку профиля для встраивания в посты и комментарии
func (u *User) Summary() UserSummary {
	return UserSummary{
		ID:          u.ID,
		Username:    u.Username,
		DisplayName: u.DisplayName,
		AvatarURL:   u.AvatarURL,
	}
}

// UserSummary is the author block embedded into posts and comments.
type UserSummary struct {
	ID          string  `json:"id"`
	Username    string  `json:"username"`
	DisplayName *string `json:"displayName,omitempty"`
	AvatarURL   *string `json:"avatarUrl,omitempty"`
}

// RefreshToken is one member of a user's refresh-token set.
// The token string itself is the key: it belongs to at most one user.
type RefreshToken struct {
	Token     string    `json:"token"`
	UserID    string    `json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
}
