package models

import "time"

// Границы прогресса чтения в процентах
const (
	MinProgress = 0
	MaxProgress = 100
)

// Post представляет запись о книге в ленте
type Post struct {
	ID            string      `json:"id"`     // ULID, сортируется по времени создания
	UserID        string      `json:"userId"` // автор поста
	Title         string      `json:"title"`  // название книги
	Author        string      `json:"author"` // автор книги
	CoverURL      *string     `json:"coverUrl,omitempty"`
	Progress      int         `json:"progress"` // прогресс чтения, 0..100
	Content       string      `json:"content"`
	LikesCount    int         `json:"likesCount"`
	CommentsCount int         `json:"commentsCount"`
	LikedByMe     bool        `json:"likedByMe"`
	User          UserSummary `json:"user"`
	CreatedAt     time.Time   `json:"createdAt"`
	UpdatedAt     time.Time   `json:"updatedAt"`
}

// Comment представляет комментарий к посту
type Comment struct {
	ID        string      `json:"id"` // ULID
	PostID    string      `json:"postId"`
	UserID    string      `json:"userId"`
	Content   string      `json:"content"`
	User      UserSummary `json:"user"`
	CreatedAt time.Time   `json:"createdAt"`
}

// Page describes a slice of an ordered listing.
type Page struct {
	Number int // 1-based
	Limit  int
}

// Offset returns the number of rows to skip for this page.
func (p Page) Offset() int {
	if p.Number < 1 {
		return 0
	}
	return (p.Number - 1) * p.Limit
}
