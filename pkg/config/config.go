// Package config loads and validates the application configuration from a
// YAML file with environment variable expansion.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

//go:generate go run ../../cmd/schema/main.go schema.json

// Config holds the application configuration
type Config struct {
	Server struct {
		Listen  string        `yaml:"listen" json:"listen" jsonschema:"default=:8080,description=HTTP server listen address"`
		Timeout time.Duration `yaml:"timeout" json:"timeout" jsonschema:"default=30s,description=HTTP server timeout"`
	} `yaml:"server" json:"server" jsonschema:"description=Server configuration"`

	Database struct {
		DSN             string `yaml:"dsn" json:"dsn" jsonschema:"default=file:readkeep.db?cache=shared&mode=rwc,description=Database connection string"`
		MaxOpenConns    int    `yaml:"max_open_conns" json:"max_open_conns" jsonschema:"default=10,description=Maximum number of open connections"`
		MaxIdleConns    int    `yaml:"max_idle_conns" json:"max_idle_conns" jsonschema:"default=5,description=Maximum number of idle connections"`
		ConnMaxLifetime int    `yaml:"conn_max_lifetime" json:"conn_max_lifetime" jsonschema:"default=3600,description=Connection maximum lifetime in seconds"`
	} `yaml:"database" json:"database" jsonschema:"description=Database configuration"`

	Schedule struct {
		UpdateInterval int `yaml:"update_interval" json:"update_interval" jsonschema:"default=30,description=Feed refresh interval in minutes"`
	} `yaml:"schedule" json:"schedule" jsonschema:"description=Scheduler configuration"`

	Proxy ProxyConfig `yaml:"proxy" json:"proxy" jsonschema:"description=CORS proxy used to fetch feeds and pages"`

	Summarizer SummarizerConfig `yaml:"summarizer" json:"summarizer" jsonschema:"description=LLM summarization configuration"`

	Extraction ExtractionConfig `yaml:"extraction" json:"extraction" jsonschema:"description=Content extraction configuration"`
}

// ProxyConfig holds settings for the fetch proxy
type ProxyConfig struct {
	BaseURL   string        `yaml:"base_url" json:"base_url" jsonschema:"default=https://api.allorigins.win/get,description=Proxy endpoint wrapping target URLs"`
	UserAgent string        `yaml:"user_agent" json:"user_agent" jsonschema:"default=ReadKeep/1.0,description=User agent for outgoing requests"`
	Timeout   time.Duration `yaml:"timeout" json:"timeout" jsonschema:"default=30s,description=Fetch timeout per request"`
}

// SummarizerConfig holds summarization endpoints, normally left at defaults
type SummarizerConfig struct {
	OpenRouterEndpoint string        `yaml:"openrouter_endpoint" json:"openrouter_endpoint" jsonschema:"default=https://openrouter.ai/api/v1,description=OpenRouter API base URL"`
	GeminiEndpoint     string        `yaml:"gemini_endpoint" json:"gemini_endpoint" jsonschema:"default=https://generativelanguage.googleapis.com/v1beta,description=Google Gemini API base URL"`
	Timeout            time.Duration `yaml:"timeout" json:"timeout" jsonschema:"default=60s,description=Summarization request timeout"`
}

// ExtractionConfig holds content extraction settings
type ExtractionConfig struct {
	Timeout       time.Duration `yaml:"timeout" json:"timeout" jsonschema:"default=30s,description=Extraction timeout per page"`
	MinTextLength int           `yaml:"min_text_length" json:"min_text_length" jsonschema:"default=100,description=Minimum text length for a container to count as main content"`
}

// Load reads configuration from a YAML file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // file path comes from CLI flag
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	// expand environment variables
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.setDefaults()

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	// verify against embedded schema
	if err := VerifyAgainstEmbeddedSchema(&cfg); err != nil {
		// log warning but don't fail - schema validation is supplementary
		fmt.Printf("warning: schema validation failed: %v\n", err)
	}

	return &cfg, nil
}

// Default returns the configuration used when no config file is given
func Default() *Config {
	cfg := &Config{}
	cfg.setDefaults()
	return cfg
}

func (c *Config) setDefaults() {
	if c.Server.Listen == "" {
		c.Server.Listen = ":8080"
	}
	if c.Server.Timeout == 0 {
		c.Server.Timeout = 30 * time.Second
	}

	if c.Database.DSN == "" {
		c.Database.DSN = "file:readkeep.db?cache=shared&mode=rwc&_txlock=immediate"
	}
	if c.Database.MaxOpenConns == 0 {
		c.Database.MaxOpenConns = 10
	}
	if c.Database.MaxIdleConns == 0 {
		c.Database.MaxIdleConns = 5
	}
	if c.Database.ConnMaxLifetime == 0 {
		c.Database.ConnMaxLifetime = 3600
	}

	if c.Schedule.UpdateInterval == 0 {
		c.Schedule.UpdateInterval = 30
	}

	if c.Proxy.BaseURL == "" {
		c.Proxy.BaseURL = "https://api.allorigins.win/get"
	}
	if c.Proxy.UserAgent == "" {
		c.Proxy.UserAgent = "ReadKeep/1.0"
	}
	if c.Proxy.Timeout == 0 {
		c.Proxy.Timeout = 30 * time.Second
	}

	if c.Summarizer.OpenRouterEndpoint == "" {
		c.Summarizer.OpenRouterEndpoint = "https://openrouter.ai/api/v1"
	}
	if c.Summarizer.GeminiEndpoint == "" {
		c.Summarizer.GeminiEndpoint = "https://generativelanguage.googleapis.com/v1beta"
	}
	if c.Summarizer.Timeout == 0 {
		c.Summarizer.Timeout = 60 * time.Second
	}

	if c.Extraction.Timeout == 0 {
		c.Extraction.Timeout = 30 * time.Second
	}
	if c.Extraction.MinTextLength == 0 {
		c.Extraction.MinTextLength = 100
	}
}

// validate checks configuration for correctness
func validate(cfg *Config) error {
	if cfg.Server.Timeout < time.Second {
		return fmt.Errorf("server timeout must be at least 1 second")
	}
	if cfg.Schedule.UpdateInterval < 1 {
		return fmt.Errorf("schedule.update_interval must be at least 1 minute")
	}
	if cfg.Proxy.Timeout < time.Second {
		return fmt.Errorf("proxy timeout must be at least 1 second")
	}
	if cfg.Extraction.MinTextLength < 0 {
		return fmt.Errorf("extraction min_text_length must be non-negative")
	}
	return nil
}
