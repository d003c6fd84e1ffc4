package summarizer

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// summarizeOpenRouter sends the request to OpenRouter's OpenAI-compatible
// chat-completions endpoint with bearer auth
func (s *Service) summarizeOpenRouter(ctx context.Context, req Request) (*Result, error) {
	clientConfig := openai.DefaultConfig(req.APIKey)
	clientConfig.BaseURL = s.openRouterURL
	clientConfig.HTTPClient = s.client
	client := openai.NewClientWithConfig(clientConfig)

	resp, err := client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       req.Model,
		MaxTokens:   maxSummaryTokens,
		Temperature: summaryTemperature,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: req.Prompt + "\n\n" + req.Content,
			},
		},
	})
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			msg := apiErr.Message
			if msg == "" {
				msg = fmt.Sprintf("OpenRouter API error: %d %s", apiErr.HTTPStatusCode, http.StatusText(apiErr.HTTPStatusCode))
			}
			return nil, &ProviderError{Provider: ProviderOpenRouter, StatusCode: apiErr.HTTPStatusCode, Message: msg}
		}
		return nil, fmt.Errorf("openrouter request: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, ErrEmptyResponse
	}
	summary := strings.TrimSpace(resp.Choices[0].Message.Content)
	if summary == "" {
		return nil, ErrEmptyResponse
	}

	return &Result{
		Summary:    summary,
		Model:      req.Model,
		Provider:   ProviderOpenRouter,
		TokensUsed: resp.Usage.TotalTokens,
	}, nil
}
