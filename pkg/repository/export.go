package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/readkeep/readkeep/pkg/domain"
)

// ExportVersion is stamped into every export snapshot
const ExportVersion = "1.0.0"

// Snapshot is a complete dump of the database, used for backup files
type Snapshot struct {
	Feeds      []*domain.Feed         `json:"feeds"`
	Articles   []*domain.Article      `json:"articles"`
	Notes      []*domain.Note         `json:"notes"`
	Highlights []*domain.Highlight    `json:"highlights"`
	Categories []*domain.FeedCategory `json:"categories"`
	Settings   []domain.Setting       `json:"settings"`
	ExportDate string                 `json:"exportDate"` // RFC3339
	Version    string                 `json:"version"`
}

// ExportRepository assembles and restores full-database snapshots
type ExportRepository struct {
	repos *Repositories
}

// NewExportRepository creates an export repository over the shared repositories
func NewExportRepository(repos *Repositories) *ExportRepository {
	return &ExportRepository{repos: repos}
}

// Export collects everything into a snapshot
func (r *ExportRepository) Export(ctx context.Context) (*Snapshot, error) {
	feeds, err := r.repos.Feed.GetFeeds(ctx, false)
	if err != nil {
		return nil, fmt.Errorf("export feeds: %w", err)
	}
	articles, err := r.repos.Article.GetArticles(ctx, ArticleFilter{})
	if err != nil {
		return nil, fmt.Errorf("export articles: %w", err)
	}
	notes, err := r.repos.Note.GetNotes(ctx)
	if err != nil {
		return nil, fmt.Errorf("export notes: %w", err)
	}
	highlights, err := r.allHighlights(ctx)
	if err != nil {
		return nil, fmt.Errorf("export highlights: %w", err)
	}
	categories, err := r.repos.Category.GetCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("export categories: %w", err)
	}
	settings, err := r.repos.Setting.AllSettings(ctx)
	if err != nil {
		return nil, fmt.Errorf("export settings: %w", err)
	}

	return &Snapshot{
		Feeds:      feeds,
		Articles:   articles,
		Notes:      notes,
		Highlights: highlights,
		Categories: categories,
		Settings:   settings,
		ExportDate: time.Now().UTC().Format(time.RFC3339),
		Version:    ExportVersion,
	}, nil
}

func (r *ExportRepository) allHighlights(ctx context.Context) ([]*domain.Highlight, error) {
	var dbHighlights []highlightSQL
	err := r.repos.DB.SelectContext(ctx, &dbHighlights, "SELECT * FROM highlights ORDER BY created_at")
	if err != nil {
		return nil, err
	}

	highlights := make([]*domain.Highlight, len(dbHighlights))
	for i, h := range dbHighlights {
		highlights[i] = h.toDomain()
	}
	return highlights, nil
}

// Import merges a snapshot into the database, upserting each record by id.
// Existing records with matching ids are overwritten, everything else stays.
func (r *ExportRepository) Import(ctx context.Context, snapshot *Snapshot) error {
	tx, err := r.repos.DB.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	for _, feed := range snapshot.Feeds {
		query := `
			INSERT INTO feeds (id, url, title, description, category, last_updated, update_interval, favicon, is_active)
			VALUES (:id, :url, :title, :description, :category, :last_updated, :update_interval, :favicon, :is_active)
			ON CONFLICT(id) DO UPDATE SET
				url = excluded.url, title = excluded.title, description = excluded.description,
				category = excluded.category, last_updated = excluded.last_updated,
				update_interval = excluded.update_interval, favicon = excluded.favicon,
				is_active = excluded.is_active
		`
		if _, err := tx.NamedExecContext(ctx, query, feedFromDomain(feed)); err != nil {
			return fmt.Errorf("import feed %s: %w", feed.ID, err)
		}
	}

	for _, article := range snapshot.Articles {
		query := `
			INSERT INTO articles (id, feed_id, title, author, publish_date, content, summary, url, is_read, is_favorite, tags, created_at)
			VALUES (:id, :feed_id, :title, :author, :publish_date, :content, :summary, :url, :is_read, :is_favorite, :tags, :created_at)
			ON CONFLICT(id) DO UPDATE SET
				feed_id = excluded.feed_id, title = excluded.title, author = excluded.author,
				publish_date = excluded.publish_date, content = excluded.content,
				summary = excluded.summary, url = excluded.url, is_read = excluded.is_read,
				is_favorite = excluded.is_favorite, tags = excluded.tags, created_at = excluded.created_at
		`
		if _, err := tx.NamedExecContext(ctx, query, articleFromDomain(article)); err != nil {
			return fmt.Errorf("import article %s: %w", article.ID, err)
		}
	}

	for _, note := range snapshot.Notes {
		query := `
			INSERT INTO notes (id, article_id, content, created_at, updated_at, tags)
			VALUES (:id, :article_id, :content, :created_at, :updated_at, :tags)
			ON CONFLICT(id) DO UPDATE SET
				article_id = excluded.article_id, content = excluded.content,
				created_at = excluded.created_at, updated_at = excluded.updated_at, tags = excluded.tags
		`
		dbNote := &noteSQL{ID: note.ID, ArticleID: note.ArticleID, Content: note.Content,
			CreatedAt: note.CreatedAt, UpdatedAt: note.UpdatedAt, Tags: note.Tags}
		if _, err := tx.NamedExecContext(ctx, query, dbNote); err != nil {
			return fmt.Errorf("import note %s: %w", note.ID, err)
		}
	}

	for _, highlight := range snapshot.Highlights {
		query := `
			INSERT INTO highlights (id, article_id, note_id, text, color, pos_start, pos_end, created_at)
			VALUES (:id, :article_id, :note_id, :text, :color, :pos_start, :pos_end, :created_at)
			ON CONFLICT(id) DO UPDATE SET
				article_id = excluded.article_id, note_id = excluded.note_id, text = excluded.text,
				color = excluded.color, pos_start = excluded.pos_start, pos_end = excluded.pos_end,
				created_at = excluded.created_at
		`
		dbHighlight := &highlightSQL{ID: highlight.ID, ArticleID: highlight.ArticleID, NoteID: highlight.NoteID,
			Text: highlight.Text, Color: highlight.Color, PosStart: highlight.PosStart,
			PosEnd: highlight.PosEnd, CreatedAt: highlight.CreatedAt}
		if _, err := tx.NamedExecContext(ctx, query, dbHighlight); err != nil {
			return fmt.Errorf("import highlight %s: %w", highlight.ID, err)
		}
	}

	for _, category := range snapshot.Categories {
		query := `
			INSERT INTO categories (id, name, color, feed_ids)
			VALUES (:id, :name, :color, :feed_ids)
			ON CONFLICT(id) DO UPDATE SET
				name = excluded.name, color = excluded.color, feed_ids = excluded.feed_ids
		`
		dbCategory := &categorySQL{ID: category.ID, Name: category.Name,
			Color: category.Color, FeedIDs: category.FeedIDs}
		if _, err := tx.NamedExecContext(ctx, query, dbCategory); err != nil {
			return fmt.Errorf("import category %s: %w", category.ID, err)
		}
	}

	for _, setting := range snapshot.Settings {
		query := `
			INSERT INTO settings (key, value) VALUES (:key, :value)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value
		`
		if _, err := tx.NamedExecContext(ctx, query, setting); err != nil {
			return fmt.Errorf("import setting %s: %w", setting.Key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit import: %w", err)
	}
	return nil
}

// ClearAll wipes every table, used before a destructive restore
func (r *ExportRepository) ClearAll(ctx context.Context) error {
	tx, err := r.repos.DB.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	// articles go first so note/highlight cascades don't fire row by row
	for _, table := range []string{"highlights", "notes", "articles", "feeds", "categories", "settings"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit clear: %w", err)
	}

	// the fallback category must survive a wipe
	if err := r.repos.Category.EnsureDefault(ctx); err != nil {
		return fmt.Errorf("restore default category: %w", err)
	}
	return nil
}
