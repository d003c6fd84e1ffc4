package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/readkeep/readkeep/pkg/domain"
)

func TestFeedRepository_CRUD(t *testing.T) {
	repos, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	feed := &domain.Feed{
		URL:            "https://blog.example.com/rss",
		Title:          "Example Blog",
		Description:    "a blog about examples",
		UpdateInterval: 60,
		IsActive:       true,
	}
	require.NoError(t, repos.Feed.CreateFeed(ctx, feed))
	assert.NotEmpty(t, feed.ID, "id assigned on create")
	assert.Equal(t, "uncategorized", feed.Category, "empty category falls back to default")

	t.Run("get by id and url", func(t *testing.T) {
		got, err := repos.Feed.GetFeed(ctx, feed.ID)
		require.NoError(t, err)
		assert.Equal(t, feed.URL, got.URL)
		assert.Equal(t, feed.Title, got.Title)

		byURL, err := repos.Feed.GetFeedByURL(ctx, feed.URL)
		require.NoError(t, err)
		assert.Equal(t, feed.ID, byURL.ID)
	})

	t.Run("not found", func(t *testing.T) {
		_, err := repos.Feed.GetFeed(ctx, "no-such-id")
		require.ErrorIs(t, err, ErrNotFound)

		_, err = repos.Feed.GetFeedByURL(ctx, "https://nowhere.example.com")
		require.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("duplicate url rejected", func(t *testing.T) {
		dup := &domain.Feed{URL: feed.URL, Title: "Duplicate"}
		require.Error(t, repos.Feed.CreateFeed(ctx, dup))
	})

	t.Run("update", func(t *testing.T) {
		feed.Title = "Renamed Blog"
		feed.Category = "tech"
		require.NoError(t, repos.Feed.UpdateFeed(ctx, feed))

		got, err := repos.Feed.GetFeed(ctx, feed.ID)
		require.NoError(t, err)
		assert.Equal(t, "Renamed Blog", got.Title)
		assert.Equal(t, "tech", got.Category)

		missing := &domain.Feed{ID: "no-such-id", URL: "https://x.example.com"}
		require.ErrorIs(t, repos.Feed.UpdateFeed(ctx, missing), ErrNotFound)
	})

	t.Run("update refreshed", func(t *testing.T) {
		require.NoError(t, repos.Feed.UpdateFeedRefreshed(ctx, feed.ID, "Fresh Title", "fresh desc", 1700000000000))

		got, err := repos.Feed.GetFeed(ctx, feed.ID)
		require.NoError(t, err)
		assert.Equal(t, "Fresh Title", got.Title)
		assert.Equal(t, "fresh desc", got.Description)
		assert.Equal(t, int64(1700000000000), got.LastUpdated)
	})

	t.Run("active filter", func(t *testing.T) {
		inactive := &domain.Feed{URL: "https://quiet.example.com/rss", Title: "Quiet", IsActive: false}
		require.NoError(t, repos.Feed.CreateFeed(ctx, inactive))

		all, err := repos.Feed.GetFeeds(ctx, false)
		require.NoError(t, err)
		assert.Len(t, all, 2)

		active, err := repos.Feed.GetFeeds(ctx, true)
		require.NoError(t, err)
		require.Len(t, active, 1)
		assert.Equal(t, feed.ID, active[0].ID)

		require.NoError(t, repos.Feed.SetFeedActive(ctx, inactive.ID, true))
		active, err = repos.Feed.GetFeeds(ctx, true)
		require.NoError(t, err)
		assert.Len(t, active, 2)
	})
}

func TestFeedRepository_DeleteRemovesArticles(t *testing.T) {
	repos, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	feed := &domain.Feed{URL: "https://gone.example.com/rss", Title: "Doomed"}
	require.NoError(t, repos.Feed.CreateFeed(ctx, feed))

	keeper := &domain.Feed{URL: "https://keeper.example.com/rss", Title: "Keeper"}
	require.NoError(t, repos.Feed.CreateFeed(ctx, keeper))

	for _, f := range []*domain.Feed{feed, keeper} {
		article := &domain.Article{FeedID: f.ID, Title: "post", URL: "https://" + f.ID + ".example.com/post"}
		require.NoError(t, repos.Article.CreateArticle(ctx, article))
	}

	require.NoError(t, repos.Feed.DeleteFeed(ctx, feed.ID))

	_, err := repos.Feed.GetFeed(ctx, feed.ID)
	require.ErrorIs(t, err, ErrNotFound)

	orphans, err := repos.Article.GetArticles(ctx, ArticleFilter{FeedID: feed.ID})
	require.NoError(t, err)
	assert.Empty(t, orphans, "feed articles deleted with the feed")

	kept, err := repos.Article.GetArticles(ctx, ArticleFilter{FeedID: keeper.ID})
	require.NoError(t, err)
	assert.Len(t, kept, 1, "other feeds untouched")
}
