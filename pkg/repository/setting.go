package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/readkeep/readkeep/pkg/domain"
)

// settings table keys for the JSON blobs
const (
	appSettingsKey = "app_settings"
	promptsKey     = "summarizer_prompts"
)

// SettingRepository handles setting-related database operations. Application
// settings and saved prompts are stored as JSON blobs in a flat key/value
// table rather than their own tables.
type SettingRepository struct {
	db *sqlx.DB
}

// NewSettingRepository creates a new setting repository
func NewSettingRepository(db *sqlx.DB) *SettingRepository {
	return &SettingRepository{db: db}
}

// GetSetting retrieves a setting value, empty string when unset
func (r *SettingRepository) GetSetting(ctx context.Context, key string) (string, error) {
	var value string
	err := r.db.GetContext(ctx, &value, "SELECT value FROM settings WHERE key = ?", key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get setting: %w", err)
	}
	return value, nil
}

// SetSetting stores a setting value
func (r *SettingRepository) SetSetting(ctx context.Context, key, value string) error {
	query := `
		INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`
	if _, err := r.db.ExecContext(ctx, query, key, value); err != nil {
		return fmt.Errorf("set setting: %w", err)
	}
	return nil
}

// AllSettings returns every raw settings row, ordered by key. Backups carry
// the rows as-is so saved prompts travel with the application settings.
func (r *SettingRepository) AllSettings(ctx context.Context) ([]domain.Setting, error) {
	var settings []domain.Setting
	if err := r.db.SelectContext(ctx, &settings, "SELECT key, value FROM settings ORDER BY key"); err != nil {
		return nil, fmt.Errorf("all settings: %w", err)
	}
	return settings, nil
}

// GetAppSettings loads the application settings, falling back to defaults
// when nothing was saved yet
func (r *SettingRepository) GetAppSettings(ctx context.Context) (domain.AppSettings, error) {
	value, err := r.GetSetting(ctx, appSettingsKey)
	if err != nil {
		return domain.AppSettings{}, err
	}
	if value == "" {
		return domain.DefaultAppSettings(), nil
	}

	settings := domain.DefaultAppSettings() // missing fields keep defaults
	if err := json.Unmarshal([]byte(value), &settings); err != nil {
		return domain.AppSettings{}, fmt.Errorf("unmarshal app settings: %w", err)
	}
	return settings, nil
}

// SaveAppSettings persists the application settings
func (r *SettingRepository) SaveAppSettings(ctx context.Context, settings domain.AppSettings) error {
	data, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("marshal app settings: %w", err)
	}
	return r.SetSetting(ctx, appSettingsKey, string(data))
}

// LoadPrompts returns the saved summarization prompts, nil when unset
func (r *SettingRepository) LoadPrompts(ctx context.Context) ([]domain.SavedPrompt, error) {
	value, err := r.GetSetting(ctx, promptsKey)
	if err != nil {
		return nil, err
	}
	if value == "" {
		return nil, nil
	}

	var prompts []domain.SavedPrompt
	if err := json.Unmarshal([]byte(value), &prompts); err != nil {
		return nil, fmt.Errorf("unmarshal prompts: %w", err)
	}
	return prompts, nil
}

// SavePrompts persists the full prompt list
func (r *SettingRepository) SavePrompts(ctx context.Context, prompts []domain.SavedPrompt) error {
	data, err := json.Marshal(prompts)
	if err != nil {
		return fmt.Errorf("marshal prompts: %w", err)
	}
	return r.SetSetting(ctx, promptsKey, string(data))
}
