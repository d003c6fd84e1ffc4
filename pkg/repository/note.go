package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/readkeep/readkeep/pkg/domain"
)

// noteSQL mirrors the notes table
type noteSQL struct {
	ID        string      `db:"id"`
	ArticleID string      `db:"article_id"`
	Content   string      `db:"content"`
	CreatedAt int64       `db:"created_at"`
	UpdatedAt int64       `db:"updated_at"`
	Tags      stringsJSON `db:"tags"`
}

func (n *noteSQL) toDomain() *domain.Note {
	return &domain.Note{
		ID:        n.ID,
		ArticleID: n.ArticleID,
		Content:   n.Content,
		CreatedAt: n.CreatedAt,
		UpdatedAt: n.UpdatedAt,
		Tags:      n.Tags,
	}
}

// NoteRepository handles note-related database operations
type NoteRepository struct {
	db *sqlx.DB
}

// NewNoteRepository creates a new note repository
func NewNoteRepository(db *sqlx.DB) *NoteRepository {
	return &NoteRepository{db: db}
}

// CreateNote inserts a new note for an article
func (r *NoteRepository) CreateNote(ctx context.Context, note *domain.Note) error {
	if note.ID == "" {
		note.ID = uuid.NewString()
	}
	now := time.Now().UnixMilli()
	if note.CreatedAt == 0 {
		note.CreatedAt = now
	}
	if note.UpdatedAt == 0 {
		note.UpdatedAt = note.CreatedAt
	}

	query := `
		INSERT INTO notes (id, article_id, content, created_at, updated_at, tags)
		VALUES (:id, :article_id, :content, :created_at, :updated_at, :tags)
	`
	dbNote := &noteSQL{
		ID:        note.ID,
		ArticleID: note.ArticleID,
		Content:   note.Content,
		CreatedAt: note.CreatedAt,
		UpdatedAt: note.UpdatedAt,
		Tags:      note.Tags,
	}
	if _, err := r.db.NamedExecContext(ctx, query, dbNote); err != nil {
		return fmt.Errorf("create note: %w", err)
	}
	return nil
}

// GetNote retrieves a note by ID
func (r *NoteRepository) GetNote(ctx context.Context, id string) (*domain.Note, error) {
	var dbNote noteSQL
	err := r.db.GetContext(ctx, &dbNote, "SELECT * FROM notes WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("note %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get note: %w", err)
	}
	return dbNote.toDomain(), nil
}

// GetNotesByArticle retrieves all notes for one article, newest first
func (r *NoteRepository) GetNotesByArticle(ctx context.Context, articleID string) ([]*domain.Note, error) {
	var dbNotes []noteSQL
	err := r.db.SelectContext(ctx, &dbNotes,
		"SELECT * FROM notes WHERE article_id = ? ORDER BY created_at DESC", articleID)
	if err != nil {
		return nil, fmt.Errorf("get notes by article: %w", err)
	}

	notes := make([]*domain.Note, len(dbNotes))
	for i, n := range dbNotes {
		notes[i] = n.toDomain()
	}
	return notes, nil
}

// GetNotes retrieves all notes, newest first
func (r *NoteRepository) GetNotes(ctx context.Context) ([]*domain.Note, error) {
	var dbNotes []noteSQL
	if err := r.db.SelectContext(ctx, &dbNotes, "SELECT * FROM notes ORDER BY created_at DESC"); err != nil {
		return nil, fmt.Errorf("get notes: %w", err)
	}

	notes := make([]*domain.Note, len(dbNotes))
	for i, n := range dbNotes {
		notes[i] = n.toDomain()
	}
	return notes, nil
}

// SearchNotes finds notes whose content or tags contain the query,
// case-insensitive. Blank query returns nil.
func (r *NoteRepository) SearchNotes(ctx context.Context, query string) ([]*domain.Note, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	pattern := "%" + strings.ToLower(query) + "%"

	var dbNotes []noteSQL
	err := r.db.SelectContext(ctx, &dbNotes, `
		SELECT * FROM notes
		WHERE LOWER(content) LIKE ? OR LOWER(tags) LIKE ?
		ORDER BY created_at DESC`, pattern, pattern)
	if err != nil {
		return nil, fmt.Errorf("search notes: %w", err)
	}

	notes := make([]*domain.Note, len(dbNotes))
	for i, n := range dbNotes {
		notes[i] = n.toDomain()
	}
	return notes, nil
}

// UpdateNote changes a note's content and tags, stamping updated_at
func (r *NoteRepository) UpdateNote(ctx context.Context, id, content string, tags []string) error {
	query := "UPDATE notes SET content = ?, tags = ?, updated_at = ? WHERE id = ?"
	result, err := r.db.ExecContext(ctx, query, content, stringsJSON(tags), time.Now().UnixMilli(), id)
	if err != nil {
		return fmt.Errorf("update note: %w", err)
	}
	if rows, err := result.RowsAffected(); err == nil && rows == 0 {
		return fmt.Errorf("note %s: %w", id, ErrNotFound)
	}
	return nil
}

// DeleteNote removes a note
func (r *NoteRepository) DeleteNote(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM notes WHERE id = ?", id); err != nil {
		return fmt.Errorf("delete note: %w", err)
	}
	return nil
}
