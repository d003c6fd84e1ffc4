// Package scheduler orchestrates feed ingestion: subscribing to new feeds,
// periodic refreshes and on-demand refreshes of a single feed. Persistence
// and parsing are consumed through narrow interfaces.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-pkgz/lgr"
	"github.com/microcosm-cc/bluemonday"

	"github.com/readkeep/readkeep/pkg/domain"
)

//go:generate moq -out mocks/feed_store.go -pkg mocks -skip-ensure -fmt goimports . FeedStore
//go:generate moq -out mocks/article_store.go -pkg mocks -skip-ensure -fmt goimports . ArticleStore
//go:generate moq -out mocks/parser.go -pkg mocks -skip-ensure -fmt goimports . Parser

// FeedStore is the feed persistence surface the scheduler needs
type FeedStore interface {
	GetFeed(ctx context.Context, id string) (*domain.Feed, error)
	GetFeeds(ctx context.Context, activeOnly bool) ([]*domain.Feed, error)
	CreateFeed(ctx context.Context, feed *domain.Feed) error
	UpdateFeedRefreshed(ctx context.Context, feedID, title, description string, lastUpdated int64) error
}

// ArticleStore is the article persistence surface the scheduler needs
type ArticleStore interface {
	CreateArticles(ctx context.Context, articles []*domain.Article) error
	ArticleURLsByFeed(ctx context.Context, feedID string) (map[string]struct{}, error)
}

// Parser fetches and normalizes a feed document
type Parser interface {
	Parse(ctx context.Context, url string) (*domain.ParsedFeed, error)
}

// Params holds scheduler dependencies and configuration
type Params struct {
	Feeds    FeedStore
	Articles ArticleStore
	Parser   Parser

	UpdateInterval time.Duration // how often RefreshAll runs, 0 means 30 minutes
}

// Scheduler runs feed refreshes. Refreshes are strictly sequential: one feed
// at a time, a failing feed never blocks the rest of the run.
type Scheduler struct {
	feeds    FeedStore
	articles ArticleStore
	parser   Parser

	updateInterval time.Duration
	sanitize       *bluemonday.Policy // article bodies keep safe markup
	strip          *bluemonday.Policy // summaries are plain text

	refreshing sync.Mutex // held for the duration of a refresh run
	wg         sync.WaitGroup
	cancel     context.CancelFunc
	now        func() time.Time
}

// NewScheduler creates a scheduler instance
func NewScheduler(params Params) *Scheduler {
	if params.UpdateInterval == 0 {
		params.UpdateInterval = 30 * time.Minute
	}
	return &Scheduler{
		feeds:          params.Feeds,
		articles:       params.Articles,
		parser:         params.Parser,
		updateInterval: params.UpdateInterval,
		sanitize:       bluemonday.UGCPolicy(),
		strip:          bluemonday.StrictPolicy(),
		now:            time.Now,
	}
}

// Start begins periodic refreshes, running one immediately
func (s *Scheduler) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.updateInterval)
		defer ticker.Stop()

		s.RefreshAll(ctx)

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.RefreshAll(ctx)
			}
		}
	}()

	lgr.Printf("[INFO] scheduler started, refresh interval %v", s.updateInterval)
}

// Stop gracefully stops the scheduler
func (s *Scheduler) Stop() {
	lgr.Printf("[INFO] stopping scheduler...")
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
	lgr.Printf("[INFO] scheduler stopped")
}

// AddFeed subscribes to a feed URL: parses it once, stores the feed and its
// current articles. The returned feed carries the parsed title/description.
func (s *Scheduler) AddFeed(ctx context.Context, url, category string) (*domain.Feed, error) {
	parsed, err := s.parser.Parse(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("add feed %s: %w", url, err)
	}

	feed := &domain.Feed{
		URL:            url,
		Title:          parsed.Title,
		Description:    parsed.Description,
		Category:       category,
		LastUpdated:    s.now().UnixMilli(),
		UpdateInterval: int(s.updateInterval / time.Minute),
		IsActive:       true,
	}
	if err := s.feeds.CreateFeed(ctx, feed); err != nil {
		return nil, fmt.Errorf("store feed %s: %w", url, err)
	}

	articles := s.articlesFromItems(feed.ID, parsed.Items, nil)
	if err := s.articles.CreateArticles(ctx, articles); err != nil {
		return nil, fmt.Errorf("store articles for %s: %w", url, err)
	}

	lgr.Printf("[INFO] subscribed to %s (%q), %d articles", url, feed.Title, len(articles))
	return feed, nil
}

// RefreshAll refreshes every active feed sequentially. When a refresh run is
// already in flight the call returns immediately instead of queueing another.
func (s *Scheduler) RefreshAll(ctx context.Context) {
	if !s.refreshing.TryLock() {
		lgr.Printf("[DEBUG] refresh already in progress, skipping")
		return
	}
	defer s.refreshing.Unlock()

	feeds, err := s.feeds.GetFeeds(ctx, true)
	if err != nil {
		lgr.Printf("[ERROR] failed to get active feeds: %v", err)
		return
	}

	lgr.Printf("[INFO] refreshing %d feeds", len(feeds))
	for _, feed := range feeds {
		if ctx.Err() != nil {
			return
		}
		if err := s.refreshFeed(ctx, feed); err != nil {
			lgr.Printf("[ERROR] refresh feed %s: %v", feed.URL, err)
		}
	}
	lgr.Printf("[INFO] refresh completed")
}

// RefreshFeedNow refreshes a single feed by id, regardless of its schedule
func (s *Scheduler) RefreshFeedNow(ctx context.Context, feedID string) error {
	feed, err := s.feeds.GetFeed(ctx, feedID)
	if err != nil {
		return fmt.Errorf("refresh feed %s: %w", feedID, err)
	}
	return s.refreshFeed(ctx, feed)
}

// refreshFeed parses one feed and stores the articles it doesn't have yet.
// Feed title, description and last_updated are refreshed on every run.
func (s *Scheduler) refreshFeed(ctx context.Context, feed *domain.Feed) error {
	parsed, err := s.parser.Parse(ctx, feed.URL)
	if err != nil {
		return fmt.Errorf("parse: %w", err)
	}

	existing, err := s.articles.ArticleURLsByFeed(ctx, feed.ID)
	if err != nil {
		return fmt.Errorf("load existing urls: %w", err)
	}

	fresh := s.articlesFromItems(feed.ID, parsed.Items, existing)
	if len(fresh) > 0 {
		if err := s.articles.CreateArticles(ctx, fresh); err != nil {
			return fmt.Errorf("store articles: %w", err)
		}
		lgr.Printf("[INFO] feed %s: %d new articles", feed.URL, len(fresh))
	}

	if err := s.feeds.UpdateFeedRefreshed(ctx, feed.ID, parsed.Title, parsed.Description, s.now().UnixMilli()); err != nil {
		return fmt.Errorf("update feed: %w", err)
	}
	return nil
}

// articlesFromItems maps parsed items to articles, sanitizing markup and
// skipping items whose link is already stored
func (s *Scheduler) articlesFromItems(feedID string, items []domain.ParsedItem, existing map[string]struct{}) []*domain.Article {
	articles := make([]*domain.Article, 0, len(items))
	for _, item := range items {
		if _, ok := existing[item.Link]; ok {
			continue
		}

		content := item.Content
		if content == "" {
			content = item.Description
		}

		articles = append(articles, &domain.Article{
			FeedID:      feedID,
			Title:       item.Title,
			Author:      item.Author,
			PublishDate: item.Published,
			Content:     s.sanitize.Sanitize(content),
			Summary:     s.strip.Sanitize(item.Description),
			URL:         item.Link,
			Tags:        []string{},
			CreatedAt:   s.now().UnixMilli(),
		})
	}
	return articles
}
