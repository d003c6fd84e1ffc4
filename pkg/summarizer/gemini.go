package summarizer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// gemini request/response wire shapes
type geminiRequest struct {
	Contents         []geminiContent `json:"contents"`
	GenerationConfig geminiGenConfig `json:"generationConfig"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiGenConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	UsageMetadata struct {
		TotalTokenCount int `json:"totalTokenCount"`
	} `json:"usageMetadata"`
}

type geminiError struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// summarizeGemini sends the request to the generative language API, which
// authenticates with a query-string key instead of a header
func (s *Service) summarizeGemini(ctx context.Context, req Request) (*Result, error) {
	endpoint := fmt.Sprintf("%s/models/%s:generateContent?key=%s",
		s.geminiURL, req.Model, url.QueryEscape(req.APIKey))

	body, err := json.Marshal(geminiRequest{
		Contents: []geminiContent{
			{Parts: []geminiPart{{Text: req.Prompt + "\n\n" + req.Content}}},
		},
		GenerationConfig: geminiGenConfig{
			Temperature:     summaryTemperature,
			MaxOutputTokens: maxSummaryTokens,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal gemini request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create gemini request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("gemini request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr geminiError
		msg := ""
		if decodeErr := json.NewDecoder(resp.Body).Decode(&apiErr); decodeErr == nil {
			msg = apiErr.Error.Message
		}
		if msg == "" {
			msg = fmt.Sprintf("Google Gemini API error: %d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
		}
		return nil, &ProviderError{Provider: ProviderGemini, StatusCode: resp.StatusCode, Message: msg}
	}

	var result geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode gemini response: %w", err)
	}

	if len(result.Candidates) == 0 || len(result.Candidates[0].Content.Parts) == 0 {
		return nil, ErrEmptyResponse
	}
	summary := strings.TrimSpace(result.Candidates[0].Content.Parts[0].Text)
	if summary == "" {
		return nil, ErrEmptyResponse
	}

	return &Result{
		Summary:    summary,
		Model:      req.Model,
		Provider:   ProviderGemini,
		TokensUsed: result.UsageMetadata.TotalTokenCount,
	}, nil
}
