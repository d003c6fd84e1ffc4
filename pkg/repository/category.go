package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/readkeep/readkeep/pkg/domain"
)

// DefaultCategoryName is the fallback bucket feeds land in when no category
// is chosen. It always exists and cannot be deleted.
const DefaultCategoryName = "uncategorized"

// categorySQL mirrors the categories table
type categorySQL struct {
	ID      string      `db:"id"`
	Name    string      `db:"name"`
	Color   string      `db:"color"`
	FeedIDs stringsJSON `db:"feed_ids"`
}

func (c *categorySQL) toDomain() *domain.FeedCategory {
	return &domain.FeedCategory{
		ID:      c.ID,
		Name:    c.Name,
		Color:   c.Color,
		FeedIDs: c.FeedIDs,
	}
}

// CategoryRepository handles feed category database operations
type CategoryRepository struct {
	db *sqlx.DB
}

// NewCategoryRepository creates a new category repository
func NewCategoryRepository(db *sqlx.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

// EnsureDefault inserts the fallback category if it is missing
func (r *CategoryRepository) EnsureDefault(ctx context.Context) error {
	query := `
		INSERT INTO categories (id, name, color, feed_ids)
		VALUES (?, ?, '', '[]')
		ON CONFLICT(name) DO NOTHING
	`
	if _, err := r.db.ExecContext(ctx, query, DefaultCategoryName, DefaultCategoryName); err != nil {
		return fmt.Errorf("ensure default category: %w", err)
	}
	return nil
}

// CreateCategory inserts a new category
func (r *CategoryRepository) CreateCategory(ctx context.Context, category *domain.FeedCategory) error {
	if category.ID == "" {
		category.ID = uuid.NewString()
	}

	query := `
		INSERT INTO categories (id, name, color, feed_ids)
		VALUES (:id, :name, :color, :feed_ids)
	`
	dbCategory := &categorySQL{
		ID:      category.ID,
		Name:    category.Name,
		Color:   category.Color,
		FeedIDs: category.FeedIDs,
	}
	if _, err := r.db.NamedExecContext(ctx, query, dbCategory); err != nil {
		return fmt.Errorf("create category: %w", err)
	}
	return nil
}

// GetCategory retrieves a category by ID
func (r *CategoryRepository) GetCategory(ctx context.Context, id string) (*domain.FeedCategory, error) {
	var dbCategory categorySQL
	err := r.db.GetContext(ctx, &dbCategory, "SELECT * FROM categories WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("category %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get category: %w", err)
	}
	return dbCategory.toDomain(), nil
}

// GetCategories retrieves all categories ordered by name
func (r *CategoryRepository) GetCategories(ctx context.Context) ([]*domain.FeedCategory, error) {
	var dbCategories []categorySQL
	if err := r.db.SelectContext(ctx, &dbCategories, "SELECT * FROM categories ORDER BY name"); err != nil {
		return nil, fmt.Errorf("get categories: %w", err)
	}

	categories := make([]*domain.FeedCategory, len(dbCategories))
	for i, c := range dbCategories {
		categories[i] = c.toDomain()
	}
	return categories, nil
}

// UpdateCategory replaces a category's name, color and feed list
func (r *CategoryRepository) UpdateCategory(ctx context.Context, category *domain.FeedCategory) error {
	query := "UPDATE categories SET name = :name, color = :color, feed_ids = :feed_ids WHERE id = :id"
	dbCategory := &categorySQL{
		ID:      category.ID,
		Name:    category.Name,
		Color:   category.Color,
		FeedIDs: category.FeedIDs,
	}
	result, err := r.db.NamedExecContext(ctx, query, dbCategory)
	if err != nil {
		return fmt.Errorf("update category: %w", err)
	}
	if rows, err := result.RowsAffected(); err == nil && rows == 0 {
		return fmt.Errorf("category %s: %w", category.ID, ErrNotFound)
	}
	return nil
}

// DeleteCategory removes a category and moves its feeds back to the default
// bucket. The default category itself is not deletable.
func (r *CategoryRepository) DeleteCategory(ctx context.Context, id string) error {
	category, err := r.GetCategory(ctx, id)
	if err != nil {
		return err
	}
	if category.Name == DefaultCategoryName {
		return fmt.Errorf("category %s is not deletable", DefaultCategoryName)
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	if _, err := tx.ExecContext(ctx, "UPDATE feeds SET category = ? WHERE category = ?",
		DefaultCategoryName, category.Name); err != nil {
		return fmt.Errorf("reassign feeds: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM categories WHERE id = ?", id); err != nil {
		return fmt.Errorf("delete category: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete category: %w", err)
	}
	return nil
}
