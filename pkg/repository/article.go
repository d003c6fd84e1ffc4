package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-pkgz/repeater/v2"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/readkeep/readkeep/pkg/domain"
)

// articleSQL mirrors the articles table
type articleSQL struct {
	ID          string      `db:"id"`
	FeedID      string      `db:"feed_id"`
	Title       string      `db:"title"`
	Author      string      `db:"author"`
	PublishDate int64       `db:"publish_date"`
	Content     string      `db:"content"`
	Summary     string      `db:"summary"`
	URL         string      `db:"url"`
	IsRead      bool        `db:"is_read"`
	IsFavorite  bool        `db:"is_favorite"`
	Tags        stringsJSON `db:"tags"`
	CreatedAt   int64       `db:"created_at"`
}

func (a *articleSQL) toDomain() *domain.Article {
	return &domain.Article{
		ID:          a.ID,
		FeedID:      a.FeedID,
		Title:       a.Title,
		Author:      a.Author,
		PublishDate: a.PublishDate,
		Content:     a.Content,
		Summary:     a.Summary,
		URL:         a.URL,
		IsRead:      a.IsRead,
		IsFavorite:  a.IsFavorite,
		Tags:        a.Tags,
		CreatedAt:   a.CreatedAt,
	}
}

func articleFromDomain(article *domain.Article) *articleSQL {
	return &articleSQL{
		ID:          article.ID,
		FeedID:      article.FeedID,
		Title:       article.Title,
		Author:      article.Author,
		PublishDate: article.PublishDate,
		Content:     article.Content,
		Summary:     article.Summary,
		URL:         article.URL,
		IsRead:      article.IsRead,
		IsFavorite:  article.IsFavorite,
		Tags:        article.Tags,
		CreatedAt:   article.CreatedAt,
	}
}

// ArticleFilter narrows GetArticles results. Zero value means no filtering.
type ArticleFilter struct {
	FeedID       string
	UnreadOnly   bool
	FavoriteOnly bool
	Limit        int
	Offset       int
}

// ArticleRepository handles article-related database operations
type ArticleRepository struct {
	db *sqlx.DB
}

// NewArticleRepository creates a new article repository
func NewArticleRepository(db *sqlx.DB) *ArticleRepository {
	return &ArticleRepository{db: db}
}

const insertArticleQuery = `
	INSERT INTO articles (id, feed_id, title, author, publish_date, content, summary, url, is_read, is_favorite, tags, created_at)
	VALUES (:id, :feed_id, :title, :author, :publish_date, :content, :summary, :url, :is_read, :is_favorite, :tags, :created_at)
`

// CreateArticle inserts a single article, assigning id and created_at when unset
func (r *ArticleRepository) CreateArticle(ctx context.Context, article *domain.Article) error {
	if article.ID == "" {
		article.ID = uuid.NewString()
	}
	if article.CreatedAt == 0 {
		article.CreatedAt = time.Now().UnixMilli()
	}
	if _, err := r.db.NamedExecContext(ctx, insertArticleQuery, articleFromDomain(article)); err != nil {
		return fmt.Errorf("create article: %w", err)
	}
	return nil
}

// CreateArticles bulk-inserts articles in one transaction. Refreshes write
// whole batches while readers hold the file, so inserts retry on lock.
func (r *ArticleRepository) CreateArticles(ctx context.Context, articles []*domain.Article) error {
	if len(articles) == 0 {
		return nil
	}

	retrier := repeater.NewBackoff(5, 50*time.Millisecond, repeater.WithMaxDelay(2*time.Second))

	return retrier.Do(ctx, func() error {
		tx, err := r.db.BeginTxx(ctx, nil)
		if err != nil {
			if isLockError(err) {
				return err // retry
			}
			return &criticalError{err: fmt.Errorf("begin transaction: %w", err)}
		}
		defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

		for _, article := range articles {
			if article.ID == "" {
				article.ID = uuid.NewString()
			}
			if article.CreatedAt == 0 {
				article.CreatedAt = time.Now().UnixMilli()
			}
			if _, err := tx.NamedExecContext(ctx, insertArticleQuery, articleFromDomain(article)); err != nil {
				if isLockError(err) {
					return err // retry the whole batch
				}
				return &criticalError{err: fmt.Errorf("insert article %s: %w", article.URL, err)}
			}
		}

		if err := tx.Commit(); err != nil {
			if isLockError(err) {
				return err // retry
			}
			return &criticalError{err: fmt.Errorf("commit articles: %w", err)}
		}
		return nil
	})
}

// GetArticle retrieves an article by ID
func (r *ArticleRepository) GetArticle(ctx context.Context, id string) (*domain.Article, error) {
	var dbArticle articleSQL
	err := r.db.GetContext(ctx, &dbArticle, "SELECT * FROM articles WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("article %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get article: %w", err)
	}
	return dbArticle.toDomain(), nil
}

// GetArticles retrieves articles matching the filter, newest first
func (r *ArticleRepository) GetArticles(ctx context.Context, filter ArticleFilter) ([]*domain.Article, error) {
	query := "SELECT * FROM articles WHERE 1=1"
	args := []interface{}{}

	if filter.FeedID != "" {
		query += " AND feed_id = ?"
		args = append(args, filter.FeedID)
	}
	if filter.UnreadOnly {
		query += " AND is_read = 0"
	}
	if filter.FavoriteOnly {
		query += " AND is_favorite = 1"
	}
	query += " ORDER BY publish_date DESC, created_at DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
		if filter.Offset > 0 {
			query += " OFFSET ?"
			args = append(args, filter.Offset)
		}
	}

	var dbArticles []articleSQL
	if err := r.db.SelectContext(ctx, &dbArticles, query, args...); err != nil {
		return nil, fmt.Errorf("get articles: %w", err)
	}

	articles := make([]*domain.Article, len(dbArticles))
	for i, a := range dbArticles {
		articles[i] = a.toDomain()
	}
	return articles, nil
}

// ArticleURLsByFeed returns the set of article URLs already stored for a
// feed, used for refresh deduplication
func (r *ArticleRepository) ArticleURLsByFeed(ctx context.Context, feedID string) (map[string]struct{}, error) {
	var urls []string
	err := r.db.SelectContext(ctx, &urls, "SELECT url FROM articles WHERE feed_id = ?", feedID)
	if err != nil {
		return nil, fmt.Errorf("get article urls: %w", err)
	}

	set := make(map[string]struct{}, len(urls))
	for _, u := range urls {
		set[u] = struct{}{}
	}
	return set, nil
}

// SearchArticles finds articles whose title, content, summary or tags
// contain the query, case-insensitively
func (r *ArticleRepository) SearchArticles(ctx context.Context, query string) ([]*domain.Article, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	pattern := "%" + strings.ToLower(query) + "%"

	sqlQuery := `
		SELECT * FROM articles
		WHERE LOWER(title) LIKE ?
		   OR LOWER(content) LIKE ?
		   OR LOWER(summary) LIKE ?
		   OR LOWER(tags) LIKE ?
		ORDER BY publish_date DESC
	`
	var dbArticles []articleSQL
	if err := r.db.SelectContext(ctx, &dbArticles, sqlQuery, pattern, pattern, pattern, pattern); err != nil {
		return nil, fmt.Errorf("search articles: %w", err)
	}

	articles := make([]*domain.Article, len(dbArticles))
	for i, a := range dbArticles {
		articles[i] = a.toDomain()
	}
	return articles, nil
}

// SetRead marks an article read or unread
func (r *ArticleRepository) SetRead(ctx context.Context, id string, read bool) error {
	result, err := r.db.ExecContext(ctx, "UPDATE articles SET is_read = ? WHERE id = ?", read, id)
	if err != nil {
		return fmt.Errorf("set read: %w", err)
	}
	if rows, err := result.RowsAffected(); err == nil && rows == 0 {
		return fmt.Errorf("article %s: %w", id, ErrNotFound)
	}
	return nil
}

// SetFavorite marks an article as favorite or clears the mark
func (r *ArticleRepository) SetFavorite(ctx context.Context, id string, favorite bool) error {
	result, err := r.db.ExecContext(ctx, "UPDATE articles SET is_favorite = ? WHERE id = ?", favorite, id)
	if err != nil {
		return fmt.Errorf("set favorite: %w", err)
	}
	if rows, err := result.RowsAffected(); err == nil && rows == 0 {
		return fmt.Errorf("article %s: %w", id, ErrNotFound)
	}
	return nil
}

// UpdateArticle replaces all mutable article fields
func (r *ArticleRepository) UpdateArticle(ctx context.Context, article *domain.Article) error {
	query := `
		UPDATE articles
		SET feed_id = :feed_id, title = :title, author = :author, publish_date = :publish_date,
		    content = :content, summary = :summary, url = :url,
		    is_read = :is_read, is_favorite = :is_favorite, tags = :tags
		WHERE id = :id
	`
	result, err := r.db.NamedExecContext(ctx, query, articleFromDomain(article))
	if err != nil {
		return fmt.Errorf("update article: %w", err)
	}
	if rows, err := result.RowsAffected(); err == nil && rows == 0 {
		return fmt.Errorf("article %s: %w", article.ID, ErrNotFound)
	}
	return nil
}

// DeleteArticle removes an article; its notes and highlights cascade
func (r *ArticleRepository) DeleteArticle(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM articles WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete article: %w", err)
	}
	return nil
}

// CountUnread returns the number of unread articles, optionally per feed
func (r *ArticleRepository) CountUnread(ctx context.Context, feedID string) (int, error) {
	query := "SELECT COUNT(*) FROM articles WHERE is_read = 0"
	args := []interface{}{}
	if feedID != "" {
		query += " AND feed_id = ?"
		args = append(args, feedID)
	}

	var count int
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		return 0, fmt.Errorf("count unread: %w", err)
	}
	return count, nil
}
