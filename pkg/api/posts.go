package api

import "time"

// Post представляет пост о книге
type Post struct {
	ID            string      `json:"id"`
	UserID        string      `json:"userId"`
	Title         string      `json:"title"`
	Author        string      `json:"author"`
	CoverURL      *string     `json:"coverUrl,omitempty"`
	Progress      int         `json:"progress"`
	Content       string      `json:"content"`
	LikesCount    int         `json:"likesCount"`
	CommentsCount int         `json:"commentsCount"`
	LikedByMe     bool        `json:"likedByMe"`
	User          UserSummary `json:"user"`
	CreatedAt     time.Time   `json:"createdAt"`
	UpdatedAt     time.Time   `json:"updatedAt"`
}

// CreatePostRequest представляет запрос на создание поста
type CreatePostRequest struct {
	Title    string  `json:"title"`
	Author   string  `json:"author"`
	CoverURL *string `json:"coverUrl,omitempty"`
	Progress int     `json:"progress"`
	Content  string  `json:"content"`
}

// UpdatePostRequest содержит изменяемые поля поста (все опциональны)
type UpdatePostRequest struct {
	Title    *string `json:"title,omitempty"`
	Author   *string `json:"author,omitempty"`
	CoverURL *string `json:"coverUrl,omitempty"`
	Progress *int    `json:"progress,omitempty"`
	Content  *string `json:"content,omitempty"`
}

// PostListResponse is one page of the feed
type PostListResponse struct {
	Posts   []Post `json:"posts"`
	Page    int    `json:"page"`
	Limit   int    `json:"limit"`
	Total   int    `json:"total"`
	HasMore bool   `json:"hasMore"`
}

// LikeResponse returns the likes count after a like or unlike
type LikeResponse struct {
	LikesCount int `json:"likesCount"`
}

// Comment представляет комментарий к посту
type Comment struct {
	ID        string      `json:"id"`
	PostID    string      `json:"postId"`
	UserID    string      `json:"userId"`
	Content   string      `json:"content"`
	User      UserSummary `json:"user"`
	CreatedAt time.Time   `json:"createdAt"`
}

// CreateCommentRequest представляет запрос на добавление комментария
type CreateCommentRequest struct {
	Content string `json:"content"`
}

// CommentListResponse is one page of a post's comments
type CommentListResponse struct {
	Comments []Comment `json:"comments"`
	Page     int       `json:"page"`
	Limit    int       `json:"limit"`
	Total    int       `json:"total"`
	HasMore  bool      `json:"hasMore"`
}

// MediaResponse returns the public URL of an uploaded file
type MediaResponse struct {
	URL string `json:"url"`
}

// HealthResponse представляет ответ health check
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
}
