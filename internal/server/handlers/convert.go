package handlers

import (
	"github.com/iudanet/readshare/internal/models"
	"github.com/iudanet/readshare/pkg/api"
)

// toAPIUser конвертирует модель в DTO; email отдается только владельцу
func toAPIUser(u *models.User, withEmail bool) api.User {
	out := api.User{
		ID:          u.ID,
		Username:    u.Username,
		DisplayName: u.DisplayName,
		AvatarURL:   u.AvatarURL,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
	if withEmail {
		out.Email = u.Email
	}
	return out
}

func toAPISummary(s models.UserSummary) api.UserSummary {
	return api.UserSummary{
		ID:          s.ID,
		Username:    s.Username,
		DisplayName: s.DisplayName,
		AvatarURL:   s.AvatarURL,
	}
}

func toAPIPost(p *models.Post) api.Post {
	return api.Post{
		ID:            p.ID,
		UserID:        p.UserID,
		Title:         p.Title,
		Author:        p.Author,
		CoverURL:      p.CoverURL,
		Progress:      p.Progress,
		Content:       p.Content,
		LikesCount:    p.LikesCount,
		CommentsCount: p.CommentsCount,
		LikedByMe:     p.LikedByMe,
		User:          toAPISummary(p.User),
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

func toAPIPosts(posts []*models.Post) []api.Post {
	out := make([]api.Post, 0, len(posts))
	for _, p := range posts {
		out = append(out, toAPIPost(p))
	}
	return out
}

func toAPIComment(c *models.Comment) api.Comment {
	return api.Comment{
		ID:        c.ID,
		PostID:    c.PostID,
		UserID:    c.UserID,
		Content:   c.Content,
		User:      toAPISummary(c.User),
		CreatedAt: c.CreatedAt,
	}
}

func toAPIComments(comments []*models.Comment) []api.Comment {
	out := make([]api.Comment, 0, len(comments))
	for _, c := range comments {
		out = append(out, toAPIComment(c))
	}
	return out
}
