package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifyAgainstEmbeddedSchema(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(cfg *Config)
		wantErr bool
		errMsg  string
	}{
		{
			name:    "valid config",
			mutate:  func(*Config) {},
			wantErr: false,
		},
		{
			name:    "missing server listen",
			mutate:  func(cfg *Config) { cfg.Server.Listen = "" },
			wantErr: true,
			errMsg:  "server.listen is required",
		},
		{
			name:    "missing server timeout",
			mutate:  func(cfg *Config) { cfg.Server.Timeout = 0 },
			wantErr: true,
			errMsg:  "server.timeout is required",
		},
		{
			name:    "missing database dsn",
			mutate:  func(cfg *Config) { cfg.Database.DSN = "" },
			wantErr: true,
			errMsg:  "database.dsn is required",
		},
		{
			name:    "missing proxy base url",
			mutate:  func(cfg *Config) { cfg.Proxy.BaseURL = "" },
			wantErr: true,
			errMsg:  "proxy.base_url is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := VerifyAgainstEmbeddedSchema(cfg)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestGenerateSchema(t *testing.T) {
	schema, err := GenerateSchema()
	require.NoError(t, err)
	require.NotNil(t, schema)

	def, ok := schema.Definitions["Config"]
	require.True(t, ok, "schema must define Config")

	for _, prop := range []string{"server", "database", "schedule", "proxy", "summarizer", "extraction"} {
		_, ok := def.Properties.Get(prop)
		assert.True(t, ok, "config schema must include %s", prop)
	}
}

func TestEmbeddedSchemaIsValidJSON(t *testing.T) {
	assert.NotEmpty(t, embeddedSchema)
	err := VerifyAgainstEmbeddedSchema(Default())
	require.NoError(t, err)
}
