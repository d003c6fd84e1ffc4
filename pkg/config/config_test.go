package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("valid config", func(t *testing.T) {
		configContent := `
server:
  listen: ":9090"
  timeout: 45s

database:
  dsn: "file:test.db?mode=memory"
  max_open_conns: 2

schedule:
  update_interval: 15

proxy:
  base_url: https://proxy.example.com/get
  user_agent: TestAgent/2.0
  timeout: 10s

extraction:
  min_text_length: 200
`
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "test-config.yml")
		err := os.WriteFile(configPath, []byte(configContent), 0o644)
		require.NoError(t, err)

		cfg, err := Load(configPath)
		require.NoError(t, err)
		require.NotNil(t, cfg)

		assert.Equal(t, ":9090", cfg.Server.Listen)
		assert.Equal(t, 45*time.Second, cfg.Server.Timeout)
		assert.Equal(t, "file:test.db?mode=memory", cfg.Database.DSN)
		assert.Equal(t, 2, cfg.Database.MaxOpenConns)
		assert.Equal(t, 15, cfg.Schedule.UpdateInterval)
		assert.Equal(t, "https://proxy.example.com/get", cfg.Proxy.BaseURL)
		assert.Equal(t, "TestAgent/2.0", cfg.Proxy.UserAgent)
		assert.Equal(t, 10*time.Second, cfg.Proxy.Timeout)
		assert.Equal(t, 200, cfg.Extraction.MinTextLength)
	})

	t.Run("defaults", func(t *testing.T) {
		configContent := `
server:
  listen: ":9999"
`
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "test-config.yml")
		err := os.WriteFile(configPath, []byte(configContent), 0o644)
		require.NoError(t, err)

		cfg, err := Load(configPath)
		require.NoError(t, err)
		require.NotNil(t, cfg)

		assert.Equal(t, ":9999", cfg.Server.Listen)
		assert.Equal(t, 30*time.Second, cfg.Server.Timeout)
		assert.Equal(t, "file:readkeep.db?cache=shared&mode=rwc&_txlock=immediate", cfg.Database.DSN)
		assert.Equal(t, 10, cfg.Database.MaxOpenConns)
		assert.Equal(t, 5, cfg.Database.MaxIdleConns)
		assert.Equal(t, 3600, cfg.Database.ConnMaxLifetime)
		assert.Equal(t, 30, cfg.Schedule.UpdateInterval)
		assert.Equal(t, "https://api.allorigins.win/get", cfg.Proxy.BaseURL)
		assert.Equal(t, "ReadKeep/1.0", cfg.Proxy.UserAgent)
		assert.Equal(t, "https://openrouter.ai/api/v1", cfg.Summarizer.OpenRouterEndpoint)
		assert.Equal(t, "https://generativelanguage.googleapis.com/v1beta", cfg.Summarizer.GeminiEndpoint)
		assert.Equal(t, 60*time.Second, cfg.Summarizer.Timeout)
		assert.Equal(t, 30*time.Second, cfg.Extraction.Timeout)
		assert.Equal(t, 100, cfg.Extraction.MinTextLength)
	})

	t.Run("env expansion", func(t *testing.T) {
		t.Setenv("TEST_LISTEN_ADDR", ":7070")
		configContent := `
server:
  listen: "${TEST_LISTEN_ADDR}"
`
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "test-config.yml")
		err := os.WriteFile(configPath, []byte(configContent), 0o644)
		require.NoError(t, err)

		cfg, err := Load(configPath)
		require.NoError(t, err)
		assert.Equal(t, ":7070", cfg.Server.Listen)
	})

	t.Run("file not found", func(t *testing.T) {
		cfg, err := Load("/non/existent/file.yml")
		require.Error(t, err)
		assert.Nil(t, cfg)
		assert.Contains(t, err.Error(), "read config file")
	})

	t.Run("invalid yaml", func(t *testing.T) {
		configContent := `
invalid yaml content
  with bad indentation
    and no structure
`
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "invalid.yml")
		err := os.WriteFile(configPath, []byte(configContent), 0o644)
		require.NoError(t, err)

		cfg, err := Load(configPath)
		require.Error(t, err)
		assert.Nil(t, cfg)
		assert.Contains(t, err.Error(), "parse config")
	})

	t.Run("invalid values rejected", func(t *testing.T) {
		configContent := `
server:
  timeout: 100ms
`
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "bad.yml")
		err := os.WriteFile(configPath, []byte(configContent), 0o644)
		require.NoError(t, err)

		cfg, err := Load(configPath)
		require.Error(t, err)
		assert.Nil(t, cfg)
		assert.Contains(t, err.Error(), "server timeout must be at least 1 second")
	})
}

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NotNil(t, cfg)
	assert.Equal(t, ":8080", cfg.Server.Listen)
	assert.Equal(t, 30, cfg.Schedule.UpdateInterval)
	assert.NoError(t, validate(cfg))
}
