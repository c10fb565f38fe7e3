package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/iudanet/readshare/internal/validation"
	"github.com/iudanet/readshare/pkg/api"
)

func (c *Cli) runFeed(ctx context.Context, args []string) error {
	page := 1
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 1 {
			return fmt.Errorf("invalid page: %s", args[0])
		}
		page = n
	}

	resp, err := c.feed.ListPosts(ctx, page, c.pageSize)
	if err != nil {
		return err
	}

	if len(resp.Posts) == 0 {
		c.io.Println("No posts yet.")
		return nil
	}

	for _, p := range resp.Posts {
		c.printPost(p)
	}

	c.io.Printf("Page %d, %d post(s) total\n", resp.Page, resp.Total)
	if resp.HasMore {
		c.io.Printf("Next: readshare feed %d\n", resp.Page+1)
	}
	return nil
}

func (c *Cli) printPost(p api.Post) {
	liked := ""
	if p.LikedByMe {
		liked = " (liked)"
	}

	c.io.Printf("[%s] @%s is reading %q by %s (%d%%)\n", p.ID, p.User.Username, p.Title, p.Author, p.Progress)
	if p.Content != "" {
		c.io.Printf("  %s\n", p.Content)
	}
	c.io.Printf("  ♥ %d%s  💬 %d  %s\n\n", p.LikesCount, liked, p.CommentsCount, p.CreatedAt.Format("2006-01-02 15:04"))
}

func (c *Cli) runPost(ctx context.Context) error {
	c.io.Println("=== New post ===")

	title, err := c.io.ReadInput("Book title: ")
	if err != nil {
		return fmt.Errorf("failed to read title: %w", err)
	}
	author, err := c.io.ReadInput("Book author: ")
	if err != nil {
		return fmt.Errorf("failed to read author: %w", err)
	}
	if err := validation.ValidateBook(title, author); err != nil {
		return err
	}

	progressStr, err := c.io.ReadInput("Progress, % (default 0): ")
	if err != nil {
		return fmt.Errorf("failed to read progress: %w", err)
	}
	progress := 0
	if progressStr != "" {
		progress, err = strconv.Atoi(strings.TrimSuffix(progressStr, "%"))
		if err != nil {
			return fmt.Errorf("invalid progress: %s", progressStr)
		}
	}
	if err := validation.ValidateProgress(progress); err != nil {
		return err
	}

	content, err := c.io.ReadInput("Thoughts (optional): ")
	if err != nil {
		return fmt.Errorf("failed to read content: %w", err)
	}
	cover, err := c.io.ReadInput("Cover URL (optional): ")
	if err != nil {
		return fmt.Errorf("failed to read cover url: %w", err)
	}

	req := api.CreatePostRequest{
		Title:    title,
		Author:   author,
		Progress: progress,
		Content:  content,
	}
	if cover != "" {
		req.CoverURL = &cover
	}

	post, err := c.feed.CreatePost(ctx, req)
	if err != nil {
		return fmt.Errorf("failed to create post: %w", err)
	}

	c.io.Printf("✓ Posted! ID: %s\n", post.ID)
	return nil
}

func (c *Cli) runLike(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: readshare like <post-id>")
	}

	resp, err := c.feed.Like(ctx, args[0])
	if err != nil {
		return err
	}

	c.io.Printf("♥ Liked! %d like(s) now.\n", resp.LikesCount)
	return nil
}

func (c *Cli) runComment(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: readshare comment <post-id> <text>")
	}

	text := strings.Join(args[1:], " ")
	if err := validation.ValidateContent(text, false); err != nil {
		return err
	}

	comment, err := c.feed.AddComment(ctx, args[0], text)
	if err != nil {
		return err
	}

	c.io.Printf("✓ Comment added. ID: %s\n", comment.ID)
	return nil
}
