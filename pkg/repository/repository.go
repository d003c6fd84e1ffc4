// Package repository provides SQLite-backed persistence for feeds, articles,
// notes, highlights, categories and settings. Each entity gets its own
// repository type sharing one sqlx connection.
package repository

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"embed"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // pure Go SQLite driver
)

//go:embed schema.sql
var schemaFS embed.FS

// Config represents database configuration
type Config struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// Repositories contains all repository instances
type Repositories struct {
	Feed      *FeedRepository
	Article   *ArticleRepository
	Note      *NoteRepository
	Highlight *HighlightRepository
	Category  *CategoryRepository
	Setting   *SettingRepository
	Export    *ExportRepository
	DB        *sqlx.DB
}

// NewRepositories creates all repositories with a shared database connection
func NewRepositories(ctx context.Context, cfg Config) (*Repositories, error) {
	if cfg.DSN == "" {
		cfg.DSN = "file:readkeep.db?cache=shared&mode=rwc&_txlock=immediate"
	}

	db, err := sqlx.Open("sqlite", withPragmas(cfg.DSN))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// configure connection pool
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	// initialize schema
	if err := initSchema(ctx, db); err != nil {
		return nil, fmt.Errorf("init schema: %w", err)
	}

	repos := &Repositories{
		Feed:      NewFeedRepository(db),
		Article:   NewArticleRepository(db),
		Note:      NewNoteRepository(db),
		Highlight: NewHighlightRepository(db),
		Category:  NewCategoryRepository(db),
		Setting:   NewSettingRepository(db),
		DB:        db,
	}
	repos.Export = NewExportRepository(repos)

	// categories always contain at least the fallback bucket
	if err := repos.Category.EnsureDefault(ctx); err != nil {
		return nil, fmt.Errorf("ensure default category: %w", err)
	}

	return repos, nil
}

// defaultPragmas applied to every connection. SQLite pragmas are
// per-connection, so they ride the DSN rather than a one-off Exec that would
// only cover whichever pooled connection ran it. foreign_keys in particular
// drives the note/highlight cascade on article delete.
var defaultPragmas = []string{
	"foreign_keys(1)",
	"busy_timeout(5000)", // 5 second timeout for locks
	"journal_mode(WAL)",
	"synchronous(NORMAL)",
	"cache_size(-64000)", // 64MB cache
	"temp_store(MEMORY)",
}

// withPragmas appends the default pragmas to a DSN, keeping any the caller
// already set
func withPragmas(dsn string) string {
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}

	var b strings.Builder
	b.WriteString(dsn)
	for _, p := range defaultPragmas {
		name := p[:strings.Index(p, "(")]
		if strings.Contains(dsn, "_pragma="+name) {
			continue
		}
		b.WriteString(sep)
		b.WriteString("_pragma=")
		b.WriteString(p)
		sep = "&"
	}
	return b.String()
}

// Close closes the database connection
func (r *Repositories) Close() error {
	return r.DB.Close()
}

// Ping verifies the database connection
func (r *Repositories) Ping(ctx context.Context) error {
	return r.DB.PingContext(ctx)
}

// initSchema creates tables if they don't exist
func initSchema(ctx context.Context, db *sqlx.DB) error {
	schema, err := schemaFS.ReadFile("schema.sql")
	if err != nil {
		return fmt.Errorf("read schema: %w", err)
	}

	if _, err := db.ExecContext(ctx, string(schema)); err != nil {
		return fmt.Errorf("execute schema: %w", err)
	}

	return nil
}

// criticalError wraps an error to signal repeater to stop retrying
type criticalError struct {
	err error
}

func (e *criticalError) Error() string {
	return e.err.Error()
}

// isLockError checks if an error is a SQLite lock/busy error
func isLockError(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "SQLITE_BUSY") ||
		strings.Contains(errStr, "database is locked") ||
		strings.Contains(errStr, "database table is locked")
}

// stringsJSON stores a []string as a JSON array in a TEXT column
type stringsJSON []string

// Value implements driver.Valuer
func (s stringsJSON) Value() (driver.Value, error) {
	if len(s) == 0 {
		return "[]", nil
	}
	data, err := json.Marshal([]string(s))
	if err != nil {
		return nil, fmt.Errorf("marshal strings: %w", err)
	}
	return string(data), nil
}

// Scan implements sql.Scanner
func (s *stringsJSON) Scan(value interface{}) error {
	if value == nil {
		*s = nil
		return nil
	}

	var data []byte
	switch v := value.(type) {
	case string:
		data = []byte(v)
	case []byte:
		data = v
	default:
		return fmt.Errorf("unsupported type for strings: %T", value)
	}

	if len(data) == 0 {
		*s = nil
		return nil
	}
	if err := json.Unmarshal(data, (*[]string)(s)); err != nil {
		return fmt.Errorf("unmarshal strings: %w", err)
	}
	return nil
}

var _ sql.Scanner = (*stringsJSON)(nil)
