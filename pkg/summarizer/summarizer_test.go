package summarizer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestService_Summarize_OpenRouter(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-or-test123", r.Header.Get("Authorization"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "openai/gpt-4o-mini", body["model"])
		assert.InDelta(t, 0.3, body["temperature"], 0.001)
		assert.EqualValues(t, 1000, body["max_tokens"])

		messages := body["messages"].([]any)
		require.Len(t, messages, 1)
		content := messages[0].(map[string]any)["content"].(string)
		assert.True(t, strings.HasPrefix(content, "My prompt\n\n"), "prompt goes first, blank line, then article")
		assert.True(t, strings.HasSuffix(content, "article text"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"Summary text"}}],"usage":{"total_tokens":42}}`))
	}))
	defer srv.Close()

	svc := NewService(Config{OpenRouterEndpoint: srv.URL + "/v1"})
	result, err := svc.Summarize(context.Background(), Request{
		Content:  "article text",
		Prompt:   "My prompt",
		Model:    "openai/gpt-4o-mini",
		Provider: ProviderOpenRouter,
		APIKey:   "sk-or-test123",
	})
	require.NoError(t, err)

	assert.Equal(t, "Summary text", result.Summary)
	assert.Equal(t, "openai/gpt-4o-mini", result.Model)
	assert.Equal(t, "openrouter", result.Provider)
	assert.Equal(t, 42, result.TokensUsed)
}

func TestService_Summarize_OpenRouter_ProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"message":"rate limited","type":"rate_limit"}}`))
	}))
	defer srv.Close()

	svc := NewService(Config{OpenRouterEndpoint: srv.URL + "/v1"})
	_, err := svc.Summarize(context.Background(), Request{
		Content:  "article text",
		Model:    "openai/gpt-4o-mini",
		Provider: ProviderOpenRouter,
		APIKey:   "sk-or-test123",
	})
	require.Error(t, err)

	var provErr *ProviderError
	require.ErrorAs(t, err, &provErr)
	assert.Equal(t, "rate limited", provErr.Message)
	assert.Equal(t, "rate limited", provErr.Error())
	assert.Equal(t, http.StatusTooManyRequests, provErr.StatusCode)
}

func TestService_Summarize_Gemini(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models/gemini-1.5-flash:generateContent", r.URL.Path)
		assert.Equal(t, "AIzaTestKey", r.URL.Query().Get("key"), "gemini authenticates via query string")
		assert.Empty(t, r.Header.Get("Authorization"))

		var body geminiRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Len(t, body.Contents, 1)
		require.Len(t, body.Contents[0].Parts, 1)
		assert.Contains(t, body.Contents[0].Parts[0].Text, "article text")
		assert.InDelta(t, 0.3, body.GenerationConfig.Temperature, 0.001)
		assert.Equal(t, 1000, body.GenerationConfig.MaxOutputTokens)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"  Gemini summary  "}]}}],"usageMetadata":{"totalTokenCount":17}}`))
	}))
	defer srv.Close()

	svc := NewService(Config{GeminiEndpoint: srv.URL})
	result, err := svc.Summarize(context.Background(), Request{
		Content:  "article text",
		Model:    "gemini-1.5-flash",
		Provider: ProviderGemini,
		APIKey:   "AIzaTestKey",
	})
	require.NoError(t, err)

	assert.Equal(t, "Gemini summary", result.Summary, "summary should be trimmed")
	assert.Equal(t, "gemini", result.Provider)
	assert.Equal(t, 17, result.TokensUsed)
}

func TestService_Summarize_Gemini_Errors(t *testing.T) {
	t.Run("provider message", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error":{"message":"API key not valid"}}`))
		}))
		defer srv.Close()

		svc := NewService(Config{GeminiEndpoint: srv.URL})
		_, err := svc.Summarize(context.Background(), Request{
			Content: "text", Model: "gemini-pro", Provider: ProviderGemini, APIKey: "AIzaBad",
		})
		var provErr *ProviderError
		require.ErrorAs(t, err, &provErr)
		assert.Equal(t, "API key not valid", provErr.Message)
	})

	t.Run("generic status fallback", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer srv.Close()

		svc := NewService(Config{GeminiEndpoint: srv.URL})
		_, err := svc.Summarize(context.Background(), Request{
			Content: "text", Model: "gemini-pro", Provider: ProviderGemini, APIKey: "AIzaKey",
		})
		var provErr *ProviderError
		require.ErrorAs(t, err, &provErr)
		assert.Contains(t, provErr.Message, "503")
	})

	t.Run("empty candidates", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"candidates":[]}`))
		}))
		defer srv.Close()

		svc := NewService(Config{GeminiEndpoint: srv.URL})
		_, err := svc.Summarize(context.Background(), Request{
			Content: "text", Model: "gemini-pro", Provider: ProviderGemini, APIKey: "AIzaKey",
		})
		require.ErrorIs(t, err, ErrEmptyResponse)
	})
}

func TestService_Summarize_Preconditions(t *testing.T) {
	svc := NewService(Config{})

	t.Run("missing api key", func(t *testing.T) {
		_, err := svc.Summarize(context.Background(), Request{
			Content: "text", Model: "m", Provider: ProviderOpenRouter,
		})
		require.ErrorIs(t, err, ErrMissingCredential)
	})

	t.Run("empty content", func(t *testing.T) {
		_, err := svc.Summarize(context.Background(), Request{
			Content: "   \n\t ", Model: "m", Provider: ProviderOpenRouter, APIKey: "sk-or-x",
		})
		require.ErrorIs(t, err, ErrEmptyContent)
	})

	t.Run("unknown provider", func(t *testing.T) {
		_, err := svc.Summarize(context.Background(), Request{
			Content: "text", Model: "m", Provider: "cohere", APIKey: "key",
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown provider")
	})
}

func TestValidateAPIKey(t *testing.T) {
	tests := []struct {
		apiKey   string
		provider string
		want     bool
	}{
		{"sk-or-abc123", "openrouter", true},
		{"AIzaXYZ", "openrouter", false},
		{"AIzaXYZ", "gemini", true},
		{"sk-or-abc123", "gemini", false},
		{"", "openrouter", false},
		{"   ", "gemini", false},
		{"sk-or-abc123", "unknown", false},
	}

	for _, tt := range tests {
		t.Run(tt.apiKey+"/"+tt.provider, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidateAPIKey(tt.apiKey, tt.provider))
		})
	}
}

func TestCatalog(t *testing.T) {
	provs := Providers()
	require.Len(t, provs, 2)
	assert.Equal(t, "openrouter", provs[0].ID)
	assert.Equal(t, "gemini", provs[1].ID)

	models := ModelsByProvider("openrouter")
	assert.Len(t, models, 10)

	assert.Len(t, ModelsByProvider("gemini"), 4)
	assert.Nil(t, ModelsByProvider("nope"))
}
