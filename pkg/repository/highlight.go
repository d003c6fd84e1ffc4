package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/readkeep/readkeep/pkg/domain"
)

// highlightSQL mirrors the highlights table
type highlightSQL struct {
	ID        string `db:"id"`
	ArticleID string `db:"article_id"`
	NoteID    string `db:"note_id"`
	Text      string `db:"text"`
	Color     string `db:"color"`
	PosStart  int    `db:"pos_start"`
	PosEnd    int    `db:"pos_end"`
	CreatedAt int64  `db:"created_at"`
}

func (h *highlightSQL) toDomain() *domain.Highlight {
	return &domain.Highlight{
		ID:        h.ID,
		ArticleID: h.ArticleID,
		NoteID:    h.NoteID,
		Text:      h.Text,
		Color:     h.Color,
		PosStart:  h.PosStart,
		PosEnd:    h.PosEnd,
		CreatedAt: h.CreatedAt,
	}
}

// HighlightRepository handles highlight-related database operations
type HighlightRepository struct {
	db *sqlx.DB
}

// NewHighlightRepository creates a new highlight repository
func NewHighlightRepository(db *sqlx.DB) *HighlightRepository {
	return &HighlightRepository{db: db}
}

// CreateHighlight inserts a new highlight for an article
func (r *HighlightRepository) CreateHighlight(ctx context.Context, highlight *domain.Highlight) error {
	if highlight.ID == "" {
		highlight.ID = uuid.NewString()
	}
	if highlight.CreatedAt == 0 {
		highlight.CreatedAt = time.Now().UnixMilli()
	}
	if highlight.Color == "" {
		highlight.Color = "yellow"
	}

	query := `
		INSERT INTO highlights (id, article_id, note_id, text, color, pos_start, pos_end, created_at)
		VALUES (:id, :article_id, :note_id, :text, :color, :pos_start, :pos_end, :created_at)
	`
	dbHighlight := &highlightSQL{
		ID:        highlight.ID,
		ArticleID: highlight.ArticleID,
		NoteID:    highlight.NoteID,
		Text:      highlight.Text,
		Color:     highlight.Color,
		PosStart:  highlight.PosStart,
		PosEnd:    highlight.PosEnd,
		CreatedAt: highlight.CreatedAt,
	}
	if _, err := r.db.NamedExecContext(ctx, query, dbHighlight); err != nil {
		return fmt.Errorf("create highlight: %w", err)
	}
	return nil
}

// GetHighlight retrieves a highlight by ID
func (r *HighlightRepository) GetHighlight(ctx context.Context, id string) (*domain.Highlight, error) {
	var dbHighlight highlightSQL
	err := r.db.GetContext(ctx, &dbHighlight, "SELECT * FROM highlights WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("highlight %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get highlight: %w", err)
	}
	return dbHighlight.toDomain(), nil
}

// GetHighlightsByArticle retrieves all highlights for one article in text order
func (r *HighlightRepository) GetHighlightsByArticle(ctx context.Context, articleID string) ([]*domain.Highlight, error) {
	var dbHighlights []highlightSQL
	err := r.db.SelectContext(ctx, &dbHighlights,
		"SELECT * FROM highlights WHERE article_id = ? ORDER BY pos_start", articleID)
	if err != nil {
		return nil, fmt.Errorf("get highlights by article: %w", err)
	}

	highlights := make([]*domain.Highlight, len(dbHighlights))
	for i, h := range dbHighlights {
		highlights[i] = h.toDomain()
	}
	return highlights, nil
}

// SetHighlightColor changes a highlight's color
func (r *HighlightRepository) SetHighlightColor(ctx context.Context, id, color string) error {
	result, err := r.db.ExecContext(ctx, "UPDATE highlights SET color = ? WHERE id = ?", color, id)
	if err != nil {
		return fmt.Errorf("set highlight color: %w", err)
	}
	if rows, err := result.RowsAffected(); err == nil && rows == 0 {
		return fmt.Errorf("highlight %s: %w", id, ErrNotFound)
	}
	return nil
}

// DeleteHighlight removes a highlight
func (r *HighlightRepository) DeleteHighlight(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM highlights WHERE id = ?", id); err != nil {
		return fmt.Errorf("delete highlight: %w", err)
	}
	return nil
}
