// Package summarizer sends article text to a third-party language-model API
// and normalizes the heterogeneous provider responses into one result type.
// Each provider is handled by its own adapter behind a common dispatch.
package summarizer

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// request precondition failures, distinguishable with errors.Is
var (
	ErrMissingCredential = errors.New("api key is required")
	ErrInvalidCredential = errors.New("api key does not match provider format")
	ErrEmptyContent      = errors.New("content is required for summarization")
	ErrEmptyResponse     = errors.New("no summary generated")
)

// ProviderError is a non-success response from a summarization endpoint,
// carrying the provider's own message when one was present
type ProviderError struct {
	Provider   string
	StatusCode int
	Message    string
}

func (e *ProviderError) Error() string { return e.Message }

// DefaultPrompt is used when a request carries no prompt
const DefaultPrompt = `Please provide a concise and comprehensive summary of the following article. Focus on the main points, key insights, and important details. Structure the summary in a clear and readable format:

Article content:
`

const (
	maxSummaryTokens   = 1000
	summaryTemperature = 0.3
)

// Request holds everything needed for one summarization call
type Request struct {
	Content  string `json:"content"`
	Prompt   string `json:"prompt,omitempty"`
	Model    string `json:"model"`
	Provider string `json:"provider"`
	APIKey   string `json:"apiKey"`
}

// Result is the normalized summarization outcome
type Result struct {
	Summary    string `json:"summary"`
	Model      string `json:"model"`
	Provider   string `json:"provider"`
	TokensUsed int    `json:"tokensUsed,omitempty"`
}

// Config holds summarizer endpoints, overridable for tests
type Config struct {
	OpenRouterEndpoint string // base URL of the OpenAI-compatible API
	GeminiEndpoint     string // base URL of the generative language API
	Timeout            time.Duration
}

// Service dispatches summarization requests to provider adapters
type Service struct {
	openRouterURL string
	geminiURL     string
	client        *http.Client
}

// NewService creates a summarizer service with default provider endpoints
func NewService(cfg Config) *Service {
	if cfg.OpenRouterEndpoint == "" {
		cfg.OpenRouterEndpoint = "https://openrouter.ai/api/v1"
	}
	if cfg.GeminiEndpoint == "" {
		cfg.GeminiEndpoint = "https://generativelanguage.googleapis.com/v1beta"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	return &Service{
		openRouterURL: cfg.OpenRouterEndpoint,
		geminiURL:     cfg.GeminiEndpoint,
		client:        &http.Client{Timeout: cfg.Timeout},
	}
}

// Summarize checks request preconditions and dispatches to the provider
// adapter. Callers are expected to run ValidateAPIKey first; Summarize only
// re-checks that a key is present at all.
func (s *Service) Summarize(ctx context.Context, req Request) (*Result, error) {
	if req.APIKey == "" {
		return nil, fmt.Errorf("%w for provider %s", ErrMissingCredential, req.Provider)
	}
	if strings.TrimSpace(req.Content) == "" {
		return nil, ErrEmptyContent
	}
	if req.Prompt == "" {
		req.Prompt = DefaultPrompt
	}

	switch req.Provider {
	case ProviderOpenRouter:
		return s.summarizeOpenRouter(ctx, req)
	case ProviderGemini:
		return s.summarizeGemini(ctx, req)
	default:
		return nil, fmt.Errorf("unknown provider %q", req.Provider)
	}
}
