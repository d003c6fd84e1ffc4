// Package server exposes the REST API: feed subscriptions, articles,
// annotations, settings, URL conversion, summarization and backup.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-pkgz/lgr"
	"github.com/go-pkgz/rest"
	"github.com/go-pkgz/rest/logger"
	"github.com/go-pkgz/routegroup"

	"github.com/readkeep/readkeep/pkg/content"
	"github.com/readkeep/readkeep/pkg/domain"
	"github.com/readkeep/readkeep/pkg/repository"
	"github.com/readkeep/readkeep/pkg/summarizer"
)

//go:generate moq -out mocks/store.go -pkg mocks -skip-ensure -fmt goimports . Store
//go:generate moq -out mocks/scheduler.go -pkg mocks -skip-ensure -fmt goimports . Scheduler
//go:generate moq -out mocks/extractor.go -pkg mocks -skip-ensure -fmt goimports . Extractor
//go:generate moq -out mocks/summarizer.go -pkg mocks -skip-ensure -fmt goimports . Summarizer

// Store is the persistence surface the handlers need
type Store interface {
	GetFeed(ctx context.Context, id string) (*domain.Feed, error)
	GetFeeds(ctx context.Context, activeOnly bool) ([]*domain.Feed, error)
	UpdateFeed(ctx context.Context, feed *domain.Feed) error
	SetFeedActive(ctx context.Context, id string, active bool) error
	DeleteFeed(ctx context.Context, id string) error

	GetArticle(ctx context.Context, id string) (*domain.Article, error)
	GetArticles(ctx context.Context, filter repository.ArticleFilter) ([]*domain.Article, error)
	SearchArticles(ctx context.Context, query string) ([]*domain.Article, error)
	CreateArticle(ctx context.Context, article *domain.Article) error
	UpdateArticle(ctx context.Context, article *domain.Article) error
	SetRead(ctx context.Context, id string, read bool) error
	SetFavorite(ctx context.Context, id string, favorite bool) error
	DeleteArticle(ctx context.Context, id string) error
	CountUnread(ctx context.Context, feedID string) (int, error)

	GetNote(ctx context.Context, id string) (*domain.Note, error)
	GetNotes(ctx context.Context) ([]*domain.Note, error)
	GetNotesByArticle(ctx context.Context, articleID string) ([]*domain.Note, error)
	SearchNotes(ctx context.Context, query string) ([]*domain.Note, error)
	CreateNote(ctx context.Context, note *domain.Note) error
	UpdateNote(ctx context.Context, id, content string, tags []string) error
	DeleteNote(ctx context.Context, id string) error

	GetHighlightsByArticle(ctx context.Context, articleID string) ([]*domain.Highlight, error)
	CreateHighlight(ctx context.Context, highlight *domain.Highlight) error
	SetHighlightColor(ctx context.Context, id, color string) error
	DeleteHighlight(ctx context.Context, id string) error

	GetCategories(ctx context.Context) ([]*domain.FeedCategory, error)
	CreateCategory(ctx context.Context, category *domain.FeedCategory) error
	UpdateCategory(ctx context.Context, category *domain.FeedCategory) error
	DeleteCategory(ctx context.Context, id string) error

	GetAppSettings(ctx context.Context) (domain.AppSettings, error)
	SaveAppSettings(ctx context.Context, settings domain.AppSettings) error

	Export(ctx context.Context) (*repository.Snapshot, error)
	Import(ctx context.Context, snapshot *repository.Snapshot) error
	ClearAll(ctx context.Context) error
}

// Scheduler triggers feed ingestion on demand
type Scheduler interface {
	AddFeed(ctx context.Context, url, category string) (*domain.Feed, error)
	RefreshAll(ctx context.Context)
	RefreshFeedNow(ctx context.Context, feedID string) error
}

// Extractor converts a web page to readable markdown
type Extractor interface {
	Extract(ctx context.Context, url string) (*content.Result, error)
	Metadata(ctx context.Context, url string) *content.Metadata
}

// FeedValidator checks candidate subscription URLs and discovers advertised
// feeds on regular web pages
type FeedValidator interface {
	ValidateFeedURL(ctx context.Context, url string) bool
	DiscoverFeedURLs(ctx context.Context, websiteURL string) []string
}

// Summarizer produces article summaries via external LLM providers
type Summarizer interface {
	Summarize(ctx context.Context, req summarizer.Request) (*summarizer.Result, error)
}

// PromptManager maintains saved summarization prompts
type PromptManager interface {
	List(ctx context.Context) ([]domain.SavedPrompt, error)
	Create(ctx context.Context, name, content string) (*domain.SavedPrompt, error)
	Update(ctx context.Context, id, name, content string) error
	Delete(ctx context.Context, id string) error
}

// Config holds server parameters
type Config struct {
	Listen  string
	Timeout time.Duration
	Version string
	Debug   bool
}

// Server represents HTTP server instance
type Server struct {
	store      Store
	scheduler  Scheduler
	extractor  Extractor
	summarizer Summarizer
	prompts    PromptManager
	validator  FeedValidator
	config     Config

	lock       sync.Mutex
	httpServer *http.Server
	router     *routegroup.Bundle
}

// New initializes a new server instance
func New(cfg Config, store Store, scheduler Scheduler, extractor Extractor, sum Summarizer, prompts PromptManager, validator FeedValidator) *Server {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	s := &Server{
		store:      store,
		scheduler:  scheduler,
		extractor:  extractor,
		summarizer: sum,
		prompts:    prompts,
		validator:  validator,
		config:     cfg,
		router:     routegroup.New(http.NewServeMux()),
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// Run starts the HTTP server and handles graceful shutdown
func (s *Server) Run(ctx context.Context) error {
	lgr.Printf("[INFO] starting server on %s", s.config.Listen)

	s.lock.Lock()
	s.httpServer = &http.Server{
		Addr:         s.config.Listen,
		Handler:      s.router,
		ReadTimeout:  s.config.Timeout,
		WriteTimeout: s.config.Timeout,
	}
	s.lock.Unlock()

	go func() {
		<-ctx.Done()
		lgr.Printf("[INFO] shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			lgr.Printf("[WARN] server shutdown error: %v", err)
		}
	}()

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server error: %w", err)
	}

	return nil
}

// setupMiddleware configures standard middleware for the server
func (s *Server) setupMiddleware() {
	s.router.Use(rest.AppInfo("readkeep", "readkeep", s.config.Version))
	s.router.Use(rest.Ping)

	if s.config.Debug {
		s.router.Use(logger.New(logger.Log(lgr.Default()), logger.Prefix("[DEBUG]")).Handler)
	}

	s.router.Use(rest.Recoverer(lgr.Default()))
	s.router.Use(rest.Throttle(100))
	s.router.Use(rest.SizeLimit(10 * 1024 * 1024)) // imports carry whole backups
}

// setupRoutes configures application routes
func (s *Server) setupRoutes() {
	s.router.Mount("/api/v1").Route(func(r *routegroup.Bundle) {
		r.HandleFunc("GET /status", s.statusHandler)

		r.HandleFunc("GET /feeds", s.listFeedsHandler)
		r.HandleFunc("POST /feeds", s.addFeedHandler)
		r.HandleFunc("POST /feeds/validate", s.validateFeedHandler)
		r.HandleFunc("POST /feeds/refresh", s.refreshAllHandler)
		r.HandleFunc("GET /feeds/{id}", s.getFeedHandler)
		r.HandleFunc("PUT /feeds/{id}", s.updateFeedHandler)
		r.HandleFunc("DELETE /feeds/{id}", s.deleteFeedHandler)
		r.HandleFunc("POST /feeds/{id}/refresh", s.refreshFeedHandler)

		r.HandleFunc("GET /articles", s.listArticlesHandler)
		r.HandleFunc("POST /articles", s.createArticleHandler)
		r.HandleFunc("GET /articles/unread-count", s.unreadCountHandler)
		r.HandleFunc("GET /articles/{id}", s.getArticleHandler)
		r.HandleFunc("PUT /articles/{id}", s.updateArticleHandler)
		r.HandleFunc("DELETE /articles/{id}", s.deleteArticleHandler)
		r.HandleFunc("PUT /articles/{id}/read", s.setReadHandler)
		r.HandleFunc("PUT /articles/{id}/favorite", s.setFavoriteHandler)
		r.HandleFunc("GET /articles/{id}/notes", s.articleNotesHandler)
		r.HandleFunc("GET /articles/{id}/highlights", s.articleHighlightsHandler)

		r.HandleFunc("GET /notes", s.listNotesHandler)
		r.HandleFunc("POST /notes", s.createNoteHandler)
		r.HandleFunc("PUT /notes/{id}", s.updateNoteHandler)
		r.HandleFunc("DELETE /notes/{id}", s.deleteNoteHandler)

		r.HandleFunc("POST /highlights", s.createHighlightHandler)
		r.HandleFunc("PUT /highlights/{id}/color", s.setHighlightColorHandler)
		r.HandleFunc("DELETE /highlights/{id}", s.deleteHighlightHandler)

		r.HandleFunc("GET /categories", s.listCategoriesHandler)
		r.HandleFunc("POST /categories", s.createCategoryHandler)
		r.HandleFunc("PUT /categories/{id}", s.updateCategoryHandler)
		r.HandleFunc("DELETE /categories/{id}", s.deleteCategoryHandler)

		r.HandleFunc("GET /settings", s.getSettingsHandler)
		r.HandleFunc("PUT /settings", s.saveSettingsHandler)

		r.HandleFunc("GET /prompts", s.listPromptsHandler)
		r.HandleFunc("POST /prompts", s.createPromptHandler)
		r.HandleFunc("PUT /prompts/{id}", s.updatePromptHandler)
		r.HandleFunc("DELETE /prompts/{id}", s.deletePromptHandler)
		r.HandleFunc("GET /providers", s.providersHandler)

		r.HandleFunc("POST /convert", s.convertHandler)
		r.HandleFunc("POST /summarize", s.summarizeHandler)
		r.HandleFunc("GET /metadata", s.metadataHandler)

		r.HandleFunc("GET /export", s.exportHandler)
		r.HandleFunc("POST /import", s.importHandler)
	})
}

// statusHandler returns server status
func (s *Server) statusHandler(w http.ResponseWriter, r *http.Request) {
	status := map[string]interface{}{
		"status":  "ok",
		"version": s.config.Version,
		"time":    time.Now().UTC(),
	}
	renderJSON(w, r, http.StatusOK, status)
}

// renderJSON sends JSON response
func renderJSON(w http.ResponseWriter, _ *http.Request, code int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			lgr.Printf("[ERROR] can't encode response to JSON: %v", err)
		}
	}
}

// renderError sends error response as JSON
func renderError(w http.ResponseWriter, r *http.Request, err error, code int) {
	errMsg := "unknown error"
	if err != nil {
		errMsg = err.Error()
	}
	renderJSON(w, r, code, map[string]string{"error": errMsg})
}

// errorCode maps persistence errors to HTTP statuses
func errorCode(err error) int {
	if errors.Is(err, repository.ErrNotFound) {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}
