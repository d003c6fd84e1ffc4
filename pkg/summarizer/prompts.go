package summarizer

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/readkeep/readkeep/pkg/domain"
)

// PromptStore persists the saved prompt list as one flat blob, separate
// from the main entity tables
type PromptStore interface {
	LoadPrompts(ctx context.Context) ([]domain.SavedPrompt, error)
	SavePrompts(ctx context.Context, prompts []domain.SavedPrompt) error
}

// Prompts manages named summarization prompt templates. The default prompt
// always exists and cannot be deleted.
type Prompts struct {
	store PromptStore
}

// NewPrompts creates a prompt manager over the given store
func NewPrompts(store PromptStore) *Prompts {
	return &Prompts{store: store}
}

// defaultPrompts seed the store on first use
func defaultPrompts() []domain.SavedPrompt {
	now := time.Now().UnixMilli()
	return []domain.SavedPrompt{
		{
			ID:        "default",
			Name:      "Default Summary",
			Content:   DefaultPrompt,
			IsDefault: true,
			CreatedAt: now,
		},
		{
			ID:        "bullet-points",
			Name:      "Bullet Points",
			Content:   "Please summarize the following article in bullet points, highlighting the key takeaways and main arguments:\n\nArticle content:",
			CreatedAt: now,
		},
		{
			ID:        "executive-summary",
			Name:      "Executive Summary",
			Content:   "Create an executive summary of the following article, focusing on business implications and actionable insights:\n\nArticle content:",
			CreatedAt: now,
		},
	}
}

// List returns all saved prompts, seeding the defaults on first use
func (p *Prompts) List(ctx context.Context) ([]domain.SavedPrompt, error) {
	prompts, err := p.store.LoadPrompts(ctx)
	if err != nil {
		return nil, fmt.Errorf("load prompts: %w", err)
	}
	if len(prompts) == 0 {
		prompts = defaultPrompts()
		if err := p.store.SavePrompts(ctx, prompts); err != nil {
			return nil, fmt.Errorf("seed default prompts: %w", err)
		}
	}
	return prompts, nil
}

// Create saves a new named prompt and returns it with its assigned id
func (p *Prompts) Create(ctx context.Context, name, content string) (*domain.SavedPrompt, error) {
	prompts, err := p.List(ctx)
	if err != nil {
		return nil, err
	}

	prompt := domain.SavedPrompt{
		ID:        uuid.NewString(),
		Name:      name,
		Content:   content,
		CreatedAt: time.Now().UnixMilli(),
	}
	prompts = append(prompts, prompt)

	if err := p.store.SavePrompts(ctx, prompts); err != nil {
		return nil, fmt.Errorf("save prompts: %w", err)
	}
	return &prompt, nil
}

// Update replaces the name/content of an existing prompt
func (p *Prompts) Update(ctx context.Context, id, name, content string) error {
	prompts, err := p.List(ctx)
	if err != nil {
		return err
	}

	for i := range prompts {
		if prompts[i].ID != id {
			continue
		}
		if name != "" {
			prompts[i].Name = name
		}
		if content != "" {
			prompts[i].Content = content
		}
		if err := p.store.SavePrompts(ctx, prompts); err != nil {
			return fmt.Errorf("save prompts: %w", err)
		}
		return nil
	}
	return fmt.Errorf("prompt %s not found", id)
}

// Delete removes a prompt by id. The default prompt cannot be deleted.
func (p *Prompts) Delete(ctx context.Context, id string) error {
	prompts, err := p.List(ctx)
	if err != nil {
		return err
	}

	filtered := make([]domain.SavedPrompt, 0, len(prompts))
	found := false
	for _, prompt := range prompts {
		if prompt.ID == id {
			found = true
			if prompt.IsDefault {
				return fmt.Errorf("prompt %s is the default and cannot be deleted", id)
			}
			continue
		}
		filtered = append(filtered, prompt)
	}
	if !found {
		return fmt.Errorf("prompt %s not found", id)
	}

	if err := p.store.SavePrompts(ctx, filtered); err != nil {
		return fmt.Errorf("save prompts: %w", err)
	}
	return nil
}
