package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-pkgz/repeater/v2"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/readkeep/readkeep/pkg/domain"
)

// feedSQL mirrors the feeds table
type feedSQL struct {
	ID             string `db:"id"`
	URL            string `db:"url"`
	Title          string `db:"title"`
	Description    string `db:"description"`
	Category       string `db:"category"`
	LastUpdated    int64  `db:"last_updated"`
	UpdateInterval int    `db:"update_interval"`
	Favicon        string `db:"favicon"`
	IsActive       bool   `db:"is_active"`
}

func (f *feedSQL) toDomain() *domain.Feed {
	return &domain.Feed{
		ID:             f.ID,
		URL:            f.URL,
		Title:          f.Title,
		Description:    f.Description,
		Category:       f.Category,
		LastUpdated:    f.LastUpdated,
		UpdateInterval: f.UpdateInterval,
		Favicon:        f.Favicon,
		IsActive:       f.IsActive,
	}
}

func feedFromDomain(feed *domain.Feed) *feedSQL {
	return &feedSQL{
		ID:             feed.ID,
		URL:            feed.URL,
		Title:          feed.Title,
		Description:    feed.Description,
		Category:       feed.Category,
		LastUpdated:    feed.LastUpdated,
		UpdateInterval: feed.UpdateInterval,
		Favicon:        feed.Favicon,
		IsActive:       feed.IsActive,
	}
}

// ErrNotFound reports a lookup for an id that has no row
var ErrNotFound = errors.New("not found")

// FeedRepository handles feed-related database operations
type FeedRepository struct {
	db *sqlx.DB
}

// NewFeedRepository creates a new feed repository
func NewFeedRepository(db *sqlx.DB) *FeedRepository {
	return &FeedRepository{db: db}
}

// CreateFeed inserts a new feed, assigning an id when the caller left it empty
func (r *FeedRepository) CreateFeed(ctx context.Context, feed *domain.Feed) error {
	if feed.ID == "" {
		feed.ID = uuid.NewString()
	}
	if feed.Category == "" {
		feed.Category = "uncategorized"
	}

	query := `
		INSERT INTO feeds (id, url, title, description, category, last_updated, update_interval, favicon, is_active)
		VALUES (:id, :url, :title, :description, :category, :last_updated, :update_interval, :favicon, :is_active)
	`
	if _, err := r.db.NamedExecContext(ctx, query, feedFromDomain(feed)); err != nil {
		return fmt.Errorf("create feed: %w", err)
	}
	return nil
}

// GetFeed retrieves a feed by ID
func (r *FeedRepository) GetFeed(ctx context.Context, id string) (*domain.Feed, error) {
	var dbFeed feedSQL
	err := r.db.GetContext(ctx, &dbFeed, "SELECT * FROM feeds WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("feed %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get feed: %w", err)
	}
	return dbFeed.toDomain(), nil
}

// GetFeedByURL retrieves a feed by its subscription URL
func (r *FeedRepository) GetFeedByURL(ctx context.Context, url string) (*domain.Feed, error) {
	var dbFeed feedSQL
	err := r.db.GetContext(ctx, &dbFeed, "SELECT * FROM feeds WHERE url = ?", url)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("feed url %s: %w", url, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get feed by url: %w", err)
	}
	return dbFeed.toDomain(), nil
}

// GetFeeds retrieves feeds with optional filtering
func (r *FeedRepository) GetFeeds(ctx context.Context, activeOnly bool) ([]*domain.Feed, error) {
	query := "SELECT * FROM feeds"
	if activeOnly {
		query += " WHERE is_active = 1"
	}
	query += " ORDER BY title"

	var dbFeeds []feedSQL
	if err := r.db.SelectContext(ctx, &dbFeeds, query); err != nil {
		return nil, fmt.Errorf("get feeds: %w", err)
	}

	feeds := make([]*domain.Feed, len(dbFeeds))
	for i, f := range dbFeeds {
		feeds[i] = f.toDomain()
	}
	return feeds, nil
}

// UpdateFeed replaces all mutable feed fields
func (r *FeedRepository) UpdateFeed(ctx context.Context, feed *domain.Feed) error {
	query := `
		UPDATE feeds
		SET url = :url, title = :title, description = :description, category = :category,
		    last_updated = :last_updated, update_interval = :update_interval,
		    favicon = :favicon, is_active = :is_active
		WHERE id = :id
	`
	result, err := r.db.NamedExecContext(ctx, query, feedFromDomain(feed))
	if err != nil {
		return fmt.Errorf("update feed: %w", err)
	}
	if rows, err := result.RowsAffected(); err == nil && rows == 0 {
		return fmt.Errorf("feed %s: %w", feed.ID, ErrNotFound)
	}
	return nil
}

// UpdateFeedRefreshed records the result of a successful refresh. Runs under
// a retrying backoff because refreshes race with readers on the same file.
func (r *FeedRepository) UpdateFeedRefreshed(ctx context.Context, feedID, title, description string, lastUpdated int64) error {
	retrier := repeater.NewBackoff(5, 50*time.Millisecond, repeater.WithMaxDelay(2*time.Second))

	return retrier.Do(ctx, func() error {
		query := `
			UPDATE feeds
			SET title = ?, description = ?, last_updated = ?
			WHERE id = ?
		`
		_, err := r.db.ExecContext(ctx, query, title, description, lastUpdated, feedID)
		if err != nil {
			if isLockError(err) {
				return err // retry
			}
			return &criticalError{err: fmt.Errorf("update feed refreshed: %w", err)}
		}
		return nil
	})
}

// SetFeedActive enables or disables a feed
func (r *FeedRepository) SetFeedActive(ctx context.Context, feedID string, active bool) error {
	_, err := r.db.ExecContext(ctx, "UPDATE feeds SET is_active = ? WHERE id = ?", active, feedID)
	if err != nil {
		return fmt.Errorf("set feed active: %w", err)
	}
	return nil
}

// DeleteFeed removes a feed and all its articles in one transaction.
// Articles reference feeds by plain string so the cleanup is explicit here.
func (r *FeedRepository) DeleteFeed(ctx context.Context, id string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	if _, err := tx.ExecContext(ctx, "DELETE FROM articles WHERE feed_id = ?", id); err != nil {
		return fmt.Errorf("delete feed articles: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM feeds WHERE id = ?", id); err != nil {
		return fmt.Errorf("delete feed: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete feed: %w", err)
	}
	return nil
}
