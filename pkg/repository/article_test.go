package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/readkeep/readkeep/pkg/domain"
)

func TestArticleRepository_CRUD(t *testing.T) {
	repos, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	article := &domain.Article{
		FeedID:      "feed-1",
		Title:       "Understanding Goroutines",
		Author:      "Jane Dev",
		PublishDate: 1700000000000,
		Content:     "# Understanding Goroutines\n\nconcurrency is not parallelism",
		URL:         "https://example.com/goroutines",
		Tags:        []string{"go", "concurrency"},
	}
	require.NoError(t, repos.Article.CreateArticle(ctx, article))
	assert.NotEmpty(t, article.ID)
	assert.NotZero(t, article.CreatedAt)

	t.Run("round trip keeps tags", func(t *testing.T) {
		got, err := repos.Article.GetArticle(ctx, article.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{"go", "concurrency"}, got.Tags)
		assert.Equal(t, article.Content, got.Content)
		assert.False(t, got.IsRead)
		assert.False(t, got.IsFavorite)
	})

	t.Run("read and favorite flags", func(t *testing.T) {
		require.NoError(t, repos.Article.SetRead(ctx, article.ID, true))
		require.NoError(t, repos.Article.SetFavorite(ctx, article.ID, true))

		got, err := repos.Article.GetArticle(ctx, article.ID)
		require.NoError(t, err)
		assert.True(t, got.IsRead)
		assert.True(t, got.IsFavorite)

		require.ErrorIs(t, repos.Article.SetRead(ctx, "no-such-id", true), ErrNotFound)
		require.ErrorIs(t, repos.Article.SetFavorite(ctx, "no-such-id", true), ErrNotFound)
	})

	t.Run("update", func(t *testing.T) {
		article.Summary = "a short summary"
		article.Tags = []string{"go"}
		require.NoError(t, repos.Article.UpdateArticle(ctx, article))

		got, err := repos.Article.GetArticle(ctx, article.ID)
		require.NoError(t, err)
		assert.Equal(t, "a short summary", got.Summary)
		assert.Equal(t, []string{"go"}, got.Tags)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, repos.Article.DeleteArticle(ctx, article.ID))
		_, err := repos.Article.GetArticle(ctx, article.ID)
		require.ErrorIs(t, err, ErrNotFound)
	})
}

func TestArticleRepository_BulkAndFilters(t *testing.T) {
	repos, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	articles := []*domain.Article{
		{FeedID: "feed-a", Title: "Old Post", PublishDate: 1000, URL: "https://a.example.com/old"},
		{FeedID: "feed-a", Title: "New Post", PublishDate: 3000, URL: "https://a.example.com/new"},
		{FeedID: "feed-b", Title: "Other Feed", PublishDate: 2000, URL: "https://b.example.com/post", IsRead: true},
	}
	require.NoError(t, repos.Article.CreateArticles(ctx, articles))

	t.Run("empty batch is a no-op", func(t *testing.T) {
		require.NoError(t, repos.Article.CreateArticles(ctx, nil))
	})

	t.Run("newest first", func(t *testing.T) {
		got, err := repos.Article.GetArticles(ctx, ArticleFilter{})
		require.NoError(t, err)
		require.Len(t, got, 3)
		assert.Equal(t, "New Post", got[0].Title)
		assert.Equal(t, "Other Feed", got[1].Title)
		assert.Equal(t, "Old Post", got[2].Title)
	})

	t.Run("feed filter", func(t *testing.T) {
		got, err := repos.Article.GetArticles(ctx, ArticleFilter{FeedID: "feed-a"})
		require.NoError(t, err)
		assert.Len(t, got, 2)
	})

	t.Run("unread filter", func(t *testing.T) {
		got, err := repos.Article.GetArticles(ctx, ArticleFilter{UnreadOnly: true})
		require.NoError(t, err)
		assert.Len(t, got, 2)

		count, err := repos.Article.CountUnread(ctx, "")
		require.NoError(t, err)
		assert.Equal(t, 2, count)

		count, err = repos.Article.CountUnread(ctx, "feed-b")
		require.NoError(t, err)
		assert.Equal(t, 0, count)
	})

	t.Run("favorite filter", func(t *testing.T) {
		got, err := repos.Article.GetArticles(ctx, ArticleFilter{FavoriteOnly: true})
		require.NoError(t, err)
		assert.Empty(t, got)

		all, err := repos.Article.GetArticles(ctx, ArticleFilter{FeedID: "feed-b"})
		require.NoError(t, err)
		require.Len(t, all, 1)
		require.NoError(t, repos.Article.SetFavorite(ctx, all[0].ID, true))

		got, err = repos.Article.GetArticles(ctx, ArticleFilter{FavoriteOnly: true})
		require.NoError(t, err)
		assert.Len(t, got, 1)
	})

	t.Run("limit and offset", func(t *testing.T) {
		got, err := repos.Article.GetArticles(ctx, ArticleFilter{Limit: 2})
		require.NoError(t, err)
		assert.Len(t, got, 2)

		got, err = repos.Article.GetArticles(ctx, ArticleFilter{Limit: 2, Offset: 2})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "Old Post", got[0].Title)
	})

	t.Run("urls by feed", func(t *testing.T) {
		urls, err := repos.Article.ArticleURLsByFeed(ctx, "feed-a")
		require.NoError(t, err)
		assert.Len(t, urls, 2)
		_, ok := urls["https://a.example.com/old"]
		assert.True(t, ok)
	})
}

func TestArticleRepository_Search(t *testing.T) {
	repos, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	articles := []*domain.Article{
		{FeedID: "f", Title: "Kubernetes Networking", Content: "pods and services", URL: "https://e.com/1"},
		{FeedID: "f", Title: "Plain Title", Content: "deep dive into KUBERNETES internals", URL: "https://e.com/2"},
		{FeedID: "f", Title: "Unrelated", Summary: "mentions kubernetes once", URL: "https://e.com/3"},
		{FeedID: "f", Title: "Tagged Only", Tags: []string{"kubernetes"}, URL: "https://e.com/4"},
		{FeedID: "f", Title: "Nothing Here", Content: "gardening tips", URL: "https://e.com/5"},
	}
	require.NoError(t, repos.Article.CreateArticles(ctx, articles))

	t.Run("case insensitive over all fields", func(t *testing.T) {
		got, err := repos.Article.SearchArticles(ctx, "KuBeRnEtEs")
		require.NoError(t, err)
		assert.Len(t, got, 4)
	})

	t.Run("no matches", func(t *testing.T) {
		got, err := repos.Article.SearchArticles(ctx, "blockchain")
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("blank query returns nothing", func(t *testing.T) {
		got, err := repos.Article.SearchArticles(ctx, "   ")
		require.NoError(t, err)
		assert.Nil(t, got)
	})
}
