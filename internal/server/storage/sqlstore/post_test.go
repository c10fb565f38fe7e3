package sqlstore

import (
	"context"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/readshare/internal/models"
	"github.com/iudanet/readshare/internal/server/storage"
)

func TestPostStorage_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	userID := createTestUser(t, ctx, s)
	now := time.Now()
	post := &models.Post{
		ID:        ulid.Make().String(),
		UserID:    userID,
		Title:     "The Hobbit",
		Author:    "J. R. R. Tolkien",
		CoverURL:  strPtr("/media/hobbit.jpg"),
		Progress:  42,
		Content:   "Second breakfast",
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, s.CreatePost(ctx, post))

	got, err := s.GetPost(ctx, post.ID, "")
	require.NoError(t, err)
	assert.Equal(t, post.Title, got.Title)
	assert.Equal(t, post.Author, got.Author)
	assert.Equal(t, 42, got.Progress)
	require.NotNil(t, got.CoverURL)
	assert.Equal(t, "/media/hobbit.jpg", *got.CoverURL)
	assert.Equal(t, userID, got.User.ID)
	assert.NotEmpty(t, got.User.Username)
	assert.Zero(t, got.LikesCount)
	assert.Zero(t, got.CommentsCount)
	assert.False(t, got.LikedByMe)

	_, err = s.GetPost(ctx, ulid.Make().String(), "")
	assert.ErrorIs(t, err, storage.ErrPostNotFound)
}

func TestPostStorage_CreatePost_UnknownAuthor(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	post := &models.Post{ID: ulid.Make().String(), UserID: "ghost", Title: "T", Author: "A"}
	assert.ErrorIs(t, s.CreatePost(ctx, post), storage.ErrUserNotFound)
}

func TestPostStorage_Counters(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	owner := createTestUser(t, ctx, s)
	reader := createTestUser(t, ctx, s)
	postID := createTestPost(t, ctx, s, owner)

	count, err := s.AddLike(ctx, postID, reader)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	require.NoError(t, s.CreateComment(ctx, &models.Comment{
		ID: ulid.Make().String(), PostID: postID, UserID: reader, Content: "nice", CreatedAt: time.Now(),
	}))

	asReader, err := s.GetPost(ctx, postID, reader)
	require.NoError(t, err)
	assert.Equal(t, 1, asReader.LikesCount)
	assert.Equal(t, 1, asReader.CommentsCount)
	assert.True(t, asReader.LikedByMe)

	asOwner, err := s.GetPost(ctx, postID, owner)
	require.NoError(t, err)
	assert.False(t, asOwner.LikedByMe)
}

func TestPostStorage_ListPosts(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	alice := createTestUser(t, ctx, s)
	bob := createTestUser(t, ctx, s)

	var ids []string
	for i := 0; i < 5; i++ {
		ids = append(ids, createTestPost(t, ctx, s, alice))
		time.Sleep(2 * time.Millisecond)
	}
	bobPost := createTestPost(t, ctx, s, bob)

	t.Run("feed newest first", func(t *testing.T) {
		posts, total, err := s.ListPosts(ctx, storage.PostFilter{}, models.Page{Number: 1, Limit: 4})
		require.NoError(t, err)
		assert.Equal(t, 6, total)
		require.Len(t, posts, 4)
		assert.Equal(t, bobPost, posts[0].ID)
		assert.Equal(t, ids[4], posts[1].ID)
	})

	t.Run("second page", func(t *testing.T) {
		posts, total, err := s.ListPosts(ctx, storage.PostFilter{}, models.Page{Number: 2, Limit: 4})
		require.NoError(t, err)
		assert.Equal(t, 6, total)
		require.Len(t, posts, 2)
		assert.Equal(t, ids[0], posts[1].ID)
	})

	t.Run("filtered by author", func(t *testing.T) {
		posts, total, err := s.ListPosts(ctx, storage.PostFilter{AuthorID: bob}, models.Page{Number: 1, Limit: 10})
		require.NoError(t, err)
		assert.Equal(t, 1, total)
		require.Len(t, posts, 1)
		assert.Equal(t, bobPost, posts[0].ID)
	})

	t.Run("page past the end", func(t *testing.T) {
		posts, total, err := s.ListPosts(ctx, storage.PostFilter{}, models.Page{Number: 10, Limit: 10})
		require.NoError(t, err)
		assert.Equal(t, 6, total)
		assert.Empty(t, posts)
	})
}

func TestPostStorage_UpdateAndDelete(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	owner := createTestUser(t, ctx, s)
	postID := createTestPost(t, ctx, s, owner)

	post, err := s.GetPost(ctx, postID, "")
	require.NoError(t, err)
	post.Progress = 100
	post.Content = "finished"
	post.UpdatedAt = time.Now().Add(time.Minute)
	require.NoError(t, s.UpdatePost(ctx, post))

	got, err := s.GetPost(ctx, postID, "")
	require.NoError(t, err)
	assert.Equal(t, 100, got.Progress)
	assert.Equal(t, "finished", got.Content)

	require.NoError(t, s.DeletePost(ctx, postID))
	assert.ErrorIs(t, s.DeletePost(ctx, postID), storage.ErrPostNotFound)
	assert.ErrorIs(t, s.UpdatePost(ctx, post), storage.ErrPostNotFound)
}
