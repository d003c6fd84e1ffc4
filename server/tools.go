package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/go-pkgz/lgr"

	"github.com/readkeep/readkeep/pkg/domain"
	"github.com/readkeep/readkeep/pkg/repository"
	"github.com/readkeep/readkeep/pkg/summarizer"
)

// convertHandler converts a URL to a markdown article, optionally saving it
// under the manual feed
func (s *Server) convertHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		URL  string `json:"url"`
		Save bool   `json:"save"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		renderError(w, r, fmt.Errorf("invalid request body"), http.StatusBadRequest)
		return
	}
	if req.URL == "" {
		renderError(w, r, fmt.Errorf("url is required"), http.StatusBadRequest)
		return
	}

	result, err := s.extractor.Extract(r.Context(), req.URL)
	if err != nil {
		lgr.Printf("[ERROR] failed to convert %s: %v", req.URL, err)
		renderError(w, r, err, http.StatusUnprocessableEntity)
		return
	}

	if !req.Save {
		renderJSON(w, r, http.StatusOK, result)
		return
	}

	article := &domain.Article{
		FeedID:      domain.FeedIDManual,
		Title:       result.Title,
		Author:      result.Author,
		PublishDate: parseDate(result.PublishDate),
		Content:     result.Content,
		Summary:     result.Summary,
		URL:         req.URL,
		Tags:        []string{},
	}
	if err := s.store.CreateArticle(r.Context(), article); err != nil {
		lgr.Printf("[ERROR] failed to save converted article: %v", err)
		renderError(w, r, err, http.StatusInternalServerError)
		return
	}
	renderJSON(w, r, http.StatusCreated, article)
}

// parseDate turns loosely formatted page dates into epoch milliseconds,
// falling back to now when the value is absent or unparseable
func parseDate(value string) int64 {
	if value == "" {
		return time.Now().UnixMilli()
	}
	parsed, err := dateparse.ParseAny(value)
	if err != nil {
		return time.Now().UnixMilli()
	}
	return parsed.UnixMilli()
}

// summarizeHandler generates a summary for raw content or a stored article.
// With articleId the summary lands on the article; with save it is also kept
// as a standalone article under the ai-summary feed.
func (s *Server) summarizeHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Content   string `json:"content"`
		ArticleID string `json:"articleId"`
		Prompt    string `json:"prompt"`
		Model     string `json:"model"`
		Provider  string `json:"provider"`
		APIKey    string `json:"apiKey"`
		Save      bool   `json:"save"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		renderError(w, r, fmt.Errorf("invalid request body"), http.StatusBadRequest)
		return
	}

	if !summarizer.ValidateAPIKey(req.APIKey, req.Provider) {
		renderError(w, r, fmt.Errorf("api key does not match provider %s", req.Provider), http.StatusBadRequest)
		return
	}

	var article *domain.Article
	content := req.Content
	if req.ArticleID != "" {
		var err error
		article, err = s.store.GetArticle(r.Context(), req.ArticleID)
		if err != nil {
			renderError(w, r, err, errorCode(err))
			return
		}
		content = article.Content
	}

	result, err := s.summarizer.Summarize(r.Context(), summarizer.Request{
		Content:  content,
		Prompt:   req.Prompt,
		Model:    req.Model,
		Provider: req.Provider,
		APIKey:   req.APIKey,
	})
	if err != nil {
		var provErr *summarizer.ProviderError
		if errors.As(err, &provErr) {
			renderError(w, r, provErr, http.StatusBadGateway)
			return
		}
		renderError(w, r, err, http.StatusUnprocessableEntity)
		return
	}

	if article != nil {
		article.Summary = result.Summary
		if err := s.store.UpdateArticle(r.Context(), article); err != nil {
			lgr.Printf("[ERROR] failed to store summary on article: %v", err)
			renderError(w, r, err, http.StatusInternalServerError)
			return
		}
	}

	if req.Save {
		title := "Summary"
		sourceURL := ""
		if article != nil {
			title = "Summary: " + article.Title
			sourceURL = article.URL
		}
		saved := &domain.Article{
			FeedID:  domain.FeedIDAISummary,
			Title:   title,
			Content: result.Summary,
			URL:     sourceURL,
			Tags:    []string{},
		}
		if err := s.store.CreateArticle(r.Context(), saved); err != nil {
			lgr.Printf("[ERROR] failed to save summary article: %v", err)
			renderError(w, r, err, http.StatusInternalServerError)
			return
		}
	}

	renderJSON(w, r, http.StatusOK, result)
}

// metadataHandler returns social-card metadata for a URL
func (s *Server) metadataHandler(w http.ResponseWriter, r *http.Request) {
	url := strings.TrimSpace(r.URL.Query().Get("url"))
	if url == "" {
		renderError(w, r, fmt.Errorf("url is required"), http.StatusBadRequest)
		return
	}
	renderJSON(w, r, http.StatusOK, s.extractor.Metadata(r.Context(), url))
}

// listPromptsHandler returns saved summarization prompts
func (s *Server) listPromptsHandler(w http.ResponseWriter, r *http.Request) {
	prompts, err := s.prompts.List(r.Context())
	if err != nil {
		renderError(w, r, err, http.StatusInternalServerError)
		return
	}
	renderJSON(w, r, http.StatusOK, prompts)
}

// createPromptHandler saves a new named prompt
func (s *Server) createPromptHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name    string `json:"name"`
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		renderError(w, r, fmt.Errorf("invalid request body"), http.StatusBadRequest)
		return
	}
	if req.Name == "" || req.Content == "" {
		renderError(w, r, fmt.Errorf("name and content are required"), http.StatusBadRequest)
		return
	}

	created, err := s.prompts.Create(r.Context(), req.Name, req.Content)
	if err != nil {
		renderError(w, r, err, http.StatusInternalServerError)
		return
	}
	renderJSON(w, r, http.StatusCreated, created)
}

// updatePromptHandler changes a saved prompt
func (s *Server) updatePromptHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name    string `json:"name"`
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		renderError(w, r, fmt.Errorf("invalid request body"), http.StatusBadRequest)
		return
	}

	if err := s.prompts.Update(r.Context(), r.PathValue("id"), req.Name, req.Content); err != nil {
		renderError(w, r, err, http.StatusInternalServerError)
		return
	}
	renderJSON(w, r, http.StatusOK, map[string]string{"status": "updated"})
}

// deletePromptHandler removes a saved prompt
func (s *Server) deletePromptHandler(w http.ResponseWriter, r *http.Request) {
	if err := s.prompts.Delete(r.Context(), r.PathValue("id")); err != nil {
		renderError(w, r, err, http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// providersHandler returns the static provider/model catalog
func (s *Server) providersHandler(w http.ResponseWriter, r *http.Request) {
	renderJSON(w, r, http.StatusOK, summarizer.Providers())
}

// exportHandler streams a full backup snapshot
func (s *Server) exportHandler(w http.ResponseWriter, r *http.Request) {
	snapshot, err := s.store.Export(r.Context())
	if err != nil {
		lgr.Printf("[ERROR] export failed: %v", err)
		renderError(w, r, err, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Disposition", `attachment; filename="readkeep-backup.json"`)
	renderJSON(w, r, http.StatusOK, snapshot)
}

// importHandler restores a backup snapshot. With replace=true the database
// is wiped first, otherwise records merge by id.
func (s *Server) importHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Snapshot *repository.Snapshot `json:"snapshot"`
		Replace  bool                 `json:"replace"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		renderError(w, r, fmt.Errorf("invalid request body"), http.StatusBadRequest)
		return
	}
	if req.Snapshot == nil {
		renderError(w, r, fmt.Errorf("snapshot is required"), http.StatusBadRequest)
		return
	}

	if req.Replace {
		if err := s.store.ClearAll(r.Context()); err != nil {
			lgr.Printf("[ERROR] clear before import failed: %v", err)
			renderError(w, r, err, http.StatusInternalServerError)
			return
		}
	}

	if err := s.store.Import(r.Context(), req.Snapshot); err != nil {
		lgr.Printf("[ERROR] import failed: %v", err)
		renderError(w, r, err, http.StatusInternalServerError)
		return
	}
	renderJSON(w, r, http.StatusOK, map[string]string{"status": "imported"})
}
