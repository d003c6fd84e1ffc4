package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/readkeep/readkeep/pkg/domain"
)

func TestSettingRepository_KeyValue(t *testing.T) {
	repos, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	value, err := repos.Setting.GetSetting(ctx, "missing")
	require.NoError(t, err)
	assert.Empty(t, value, "unset key reads as empty, not an error")

	require.NoError(t, repos.Setting.SetSetting(ctx, "greeting", "hello"))
	value, err = repos.Setting.GetSetting(ctx, "greeting")
	require.NoError(t, err)
	assert.Equal(t, "hello", value)

	// upsert overwrites
	require.NoError(t, repos.Setting.SetSetting(ctx, "greeting", "bonjour"))
	value, err = repos.Setting.GetSetting(ctx, "greeting")
	require.NoError(t, err)
	assert.Equal(t, "bonjour", value)
}

func TestSettingRepository_AppSettings(t *testing.T) {
	repos, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	t.Run("defaults before first save", func(t *testing.T) {
		settings, err := repos.Setting.GetAppSettings(ctx)
		require.NoError(t, err)
		assert.Equal(t, domain.DefaultAppSettings(), settings)
		assert.Equal(t, "system", settings.Theme)
		assert.Equal(t, 30, settings.UpdateInterval)
	})

	t.Run("round trip", func(t *testing.T) {
		settings := domain.AppSettings{
			Theme:             "dark",
			UpdateInterval:    15,
			DefaultCategory:   "tech",
			ExportFormat:      "json",
			KeyboardShortcuts: false,
		}
		require.NoError(t, repos.Setting.SaveAppSettings(ctx, settings))

		got, err := repos.Setting.GetAppSettings(ctx)
		require.NoError(t, err)
		assert.Equal(t, settings, got)
	})
}

func TestSettingRepository_Prompts(t *testing.T) {
	repos, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	prompts, err := repos.Setting.LoadPrompts(ctx)
	require.NoError(t, err)
	assert.Nil(t, prompts, "nothing saved yet")

	saved := []domain.SavedPrompt{
		{ID: "default", Name: "Default", Content: "summarize:", IsDefault: true, CreatedAt: 1},
		{ID: "short", Name: "Short", Content: "tl;dr:", CreatedAt: 2},
	}
	require.NoError(t, repos.Setting.SavePrompts(ctx, saved))

	got, err := repos.Setting.LoadPrompts(ctx)
	require.NoError(t, err)
	assert.Equal(t, saved, got)
}
