package api

import "time"

// User is the public representation of a principal. The password hash never leaves the server.
type User struct {
	ID          string    `json:"id"`
	Email       string    `json:"email,omitempty"` // only in responses about the caller
	Username    string    `json:"username"`
	DisplayName *string   `json:"displayName,omitempty"`
	AvatarURL   *string   `json:"avatarUrl,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// MeResponse is the caller's own profile
type MeResponse struct {
	User           User `json:"user"`
	ActiveSessions int  `json:"activeSessions"`
}

// UpdateProfileRequest содержит изменяемые поля профиля (все опциональны)
type UpdateProfileRequest struct {
	Username    *string `json:"username,omitempty"`
	DisplayName *string `json:"displayName,omitempty"`
	AvatarURL   *string `json:"avatarUrl,omitempty"`
}

// ChangePasswordRequest представляет запрос на смену пароля
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// UserSummary is the author block embedded into posts and comments
type UserSummary struct {
	ID          string  `json:"id"`
	Username    string  `json:"username"`
	DisplayName *string `json:"displayName,omitempty"`
	AvatarURL   *string `json:"avatarUrl,omitempty"`
}
