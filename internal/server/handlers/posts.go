package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/iudanet/readshare/internal/models"
	"github.com/iudanet/readshare/internal/server/feed"
	"github.com/iudanet/readshare/pkg/api"
)

// FeedService covers posts, likes and comments
type FeedService interface {
	CreatePost(ctx context.Context, userID string, in feed.PostInput) (*models.Post, error)
	GetPost(ctx context.Context, postID, viewerID string) (*models.Post, error)
	ListPosts(ctx context.Context, viewerID, authorID string, page, limit int) (*feed.PostPage, error)
	UpdatePost(ctx context.Context, userID, postID string, patch feed.PostPatch) (*models.Post, error)
	DeletePost(ctx context.Context, userID, postID string) error

	Like(ctx context.Context, userID, postID string) (int, error)
	Unlike(ctx context.Context, userID, postID string) (int, error)

	AddComment(ctx context.Context, userID, postID, content string) (*models.Comment, error)
	ListComments(ctx context.Context, postID string, page, limit int) (*feed.CommentPage, error)
	DeleteComment(ctx context.Context, userID, commentID string) error
}

// PostHandler обрабатывает запросы ленты
type PostHandler struct {
	responder
	feed FeedService
}

// NewPostHandler создает handler ленты
func NewPostHandler(logger *slog.Logger, feed FeedService) *PostHandler {
	return &PostHandler{
		responder: responder{logger: logger},
		feed:      feed,
	}
}

// pageParams читает ?page=&limit=; некорректные значения заменяются значениями по умолчанию
func pageParams(r *http.Request) (int, int) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	return page, limit
}

// CreatePost обрабатывает POST /api/v1/posts
func (h *PostHandler) CreatePost(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	var req api.CreatePostRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.sendAppError(w, r, err)
		return
	}

	post, err := h.feed.CreatePost(r.Context(), userID, feed.PostInput{
		Title:    req.Title,
		Author:   req.Author,
		CoverURL: req.CoverURL,
		Progress: req.Progress,
		Content:  req.Content,
	})
	if err != nil {
		h.sendAppError(w, r, err)
		return
	}

	h.sendJSON(w, toAPIPost(post), http.StatusCreated)
}

// ListPosts обрабатывает GET /api/v1/posts
func (h *PostHandler) ListPosts(w http.ResponseWriter, r *http.Request) {
	h.listPosts(w, r, "")
}

// ListUserPosts обрабатывает GET /api/v1/users/{id}/posts
func (h *PostHandler) ListUserPosts(w http.ResponseWriter, r *http.Request) {
	h.listPosts(w, r, r.PathValue("id"))
}

func (h *PostHandler) listPosts(w http.ResponseWriter, r *http.Request, authorID string) {
	userID, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	page, limit := pageParams(r)
	result, err := h.feed.ListPosts(r.Context(), userID, authorID, page, limit)
	if err != nil {
		h.sendAppError(w, r, err)
		return
	}

	h.sendJSON(w, api.PostListResponse{
		Posts:   toAPIPosts(result.Posts),
		Page:    result.Page,
		Limit:   result.Limit,
		Total:   result.Total,
		HasMore: result.HasMore,
	}, http.StatusOK)
}

// GetPost обрабатывает GET /api/v1/posts/{id}
func (h *PostHandler) GetPost(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	post, err := h.feed.GetPost(r.Context(), r.PathValue("id"), userID)
	if err != nil {
		h.sendAppError(w, r, err)
		return
	}

	h.sendJSON(w, toAPIPost(post), http.StatusOK)
}

// UpdatePost обрабатывает PATCH /api/v1/posts/{id}
func (h *PostHandler) UpdatePost(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	var req api.UpdatePostRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.sendAppError(w, r, err)
		return
	}

	post, err := h.feed.UpdatePost(r.Context(), userID, r.PathValue("id"), feed.PostPatch{
		Title:    req.Title,
		Author:   req.Author,
		CoverURL: req.CoverURL,
		Progress: req.Progress,
		Content:  req.Content,
	})
	if err != nil {
		h.sendAppError(w, r, err)
		return
	}

	h.sendJSON(w, toAPIPost(post), http.StatusOK)
}

// DeletePost обрабатывает DELETE /api/v1/posts/{id}
func (h *PostHandler) DeletePost(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	if err := h.feed.DeletePost(r.Context(), userID, r.PathValue("id")); err != nil {
		h.sendAppError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Like обрабатывает POST /api/v1/posts/{id}/like
func (h *PostHandler) Like(w http.ResponseWriter, r *http.Request) {
	h.toggleLike(w, r, h.feed.Like)
}

// Unlike обрабатывает DELETE /api/v1/posts/{id}/like
func (h *PostHandler) Unlike(w http.ResponseWriter, r *http.Request) {
	h.toggleLike(w, r, h.feed.Unlike)
}

func (h *PostHandler) toggleLike(w http.ResponseWriter, r *http.Request,
	op func(ctx context.Context, userID, postID string) (int, error),
) {
	userID, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	count, err := op(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		h.sendAppError(w, r, err)
		return
	}

	h.sendJSON(w, api.LikeResponse{LikesCount: count}, http.StatusOK)
}

// AddComment обрабатывает POST /api/v1/posts/{id}/comments
func (h *PostHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	var req api.CreateCommentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.sendAppError(w, r, err)
		return
	}

	comment, err := h.feed.AddComment(r.Context(), userID, r.PathValue("id"), req.Content)
	if err != nil {
		h.sendAppError(w, r, err)
		return
	}

	h.sendJSON(w, toAPIComment(comment), http.StatusCreated)
}

// ListComments обрабатывает GET /api/v1/posts/{id}/comments
func (h *PostHandler) ListComments(w http.ResponseWriter, r *http.Request) {
	page, limit := pageParams(r)
	result, err := h.feed.ListComments(r.Context(), r.PathValue("id"), page, limit)
	if err != nil {
		h.sendAppError(w, r, err)
		return
	}

	h.sendJSON(w, api.CommentListResponse{
		Comments: toAPIComments(result.Comments),
		Page:     result.Page,
		Limit:    result.Limit,
		Total:    result.Total,
		HasMore:  result.HasMore,
	}, http.StatusOK)
}

// DeleteComment обрабатывает DELETE /api/v1/comments/{id}
func (h *PostHandler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	if err := h.feed.DeleteComment(r.Context(), userID, r.PathValue("id")); err != nil {
		h.sendAppError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
