package summarizer

import "strings"

// supported provider ids
const (
	ProviderOpenRouter = "openrouter"
	ProviderGemini     = "gemini"
)

// Provider describes one supported summarization vendor
type Provider struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	APIKeyPrefix string  `json:"apiKeyPrefix"`
	Models       []Model `json:"models"`
}

// Model describes one selectable model within a provider
type Model struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Provider    string `json:"provider"`
	Description string `json:"description,omitempty"`
}

// providers is the static model/provider catalog
var providers = []Provider{
	{
		ID:           ProviderOpenRouter,
		Name:         "OpenRouter",
		APIKeyPrefix: "sk-or-",
		Models: []Model{
			{ID: "anthropic/claude-3-haiku", Name: "Claude 3 Haiku", Provider: "Anthropic", Description: "Fast and efficient"},
			{ID: "anthropic/claude-3-sonnet", Name: "Claude 3 Sonnet", Provider: "Anthropic", Description: "Balanced performance"},
			{ID: "anthropic/claude-3-opus", Name: "Claude 3 Opus", Provider: "Anthropic", Description: "Most capable"},
			{ID: "openai/gpt-4o", Name: "GPT-4o", Provider: "OpenAI", Description: "Latest GPT-4 model"},
			{ID: "openai/gpt-4o-mini", Name: "GPT-4o Mini", Provider: "OpenAI", Description: "Faster and cheaper"},
			{ID: "openai/gpt-3.5-turbo", Name: "GPT-3.5 Turbo", Provider: "OpenAI", Description: "Fast and affordable"},
			{ID: "meta-llama/llama-3.1-8b-instruct:free", Name: "Llama 3.1 8B (Free)", Provider: "Meta", Description: "Free tier model"},
			{ID: "meta-llama/llama-3.1-70b-instruct", Name: "Llama 3.1 70B", Provider: "Meta", Description: "High performance"},
			{ID: "google/gemini-flash-1.5", Name: "Gemini Flash 1.5", Provider: "Google", Description: "Fast responses"},
			{ID: "google/gemini-pro-1.5", Name: "Gemini Pro 1.5", Provider: "Google", Description: "Advanced reasoning"},
		},
	},
	{
		ID:           ProviderGemini,
		Name:         "Google Gemini",
		APIKeyPrefix: "AIza",
		Models: []Model{
			{ID: "gemini-1.5-pro", Name: "Gemini 1.5 Pro", Provider: "Google", Description: "Most capable model"},
			{ID: "gemini-1.5-flash", Name: "Gemini 1.5 Flash", Provider: "Google", Description: "Fast and efficient"},
			{ID: "gemini-pro", Name: "Gemini Pro", Provider: "Google", Description: "Balanced performance"},
			{ID: "gemini-pro-vision", Name: "Gemini Pro Vision", Provider: "Google", Description: "Multimodal capabilities"},
		},
	},
}

// Providers returns the static provider catalog
func Providers() []Provider {
	return providers
}

// ModelsByProvider returns the models for a provider id, nil when unknown
func ModelsByProvider(providerID string) []Model {
	for _, p := range providers {
		if p.ID == providerID {
			return p.Models
		}
	}
	return nil
}

// ValidateAPIKey checks a key against the provider's expected prefix
func ValidateAPIKey(apiKey, providerID string) bool {
	if strings.TrimSpace(apiKey) == "" {
		return false
	}
	for _, p := range providers {
		if p.ID == providerID {
			return strings.HasPrefix(apiKey, p.APIKeyPrefix)
		}
	}
	return false
}
