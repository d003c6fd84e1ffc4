package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-pkgz/lgr"

	"github.com/readkeep/readkeep/pkg/domain"
	"github.com/readkeep/readkeep/pkg/repository"
)

// listFeedsHandler returns all feeds, optionally only active ones
func (s *Server) listFeedsHandler(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("active") == "true"
	feeds, err := s.store.GetFeeds(r.Context(), activeOnly)
	if err != nil {
		lgr.Printf("[ERROR] failed to get feeds: %v", err)
		renderError(w, r, err, http.StatusInternalServerError)
		return
	}
	renderJSON(w, r, http.StatusOK, feeds)
}

// addFeedHandler subscribes to a new feed URL
func (s *Server) addFeedHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		URL      string `json:"url"`
		Category string `json:"category"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		renderError(w, r, fmt.Errorf("invalid request body"), http.StatusBadRequest)
		return
	}
	if req.URL == "" {
		renderError(w, r, fmt.Errorf("url is required"), http.StatusBadRequest)
		return
	}

	created, err := s.scheduler.AddFeed(r.Context(), req.URL, req.Category)
	if err != nil {
		lgr.Printf("[ERROR] failed to add feed %s: %v", req.URL, err)
		renderError(w, r, err, http.StatusUnprocessableEntity)
		return
	}
	renderJSON(w, r, http.StatusCreated, created)
}

// validateFeedHandler checks a URL and suggests discovered feed links for
// pages that are not feeds themselves
func (s *Server) validateFeedHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		renderError(w, r, fmt.Errorf("invalid request body"), http.StatusBadRequest)
		return
	}

	if req.URL == "" {
		renderError(w, r, fmt.Errorf("url is required"), http.StatusBadRequest)
		return
	}

	if s.validator.ValidateFeedURL(r.Context(), req.URL) {
		renderJSON(w, r, http.StatusOK, map[string]interface{}{"valid": true})
		return
	}

	// not a feed itself, maybe a page advertising one
	discovered := s.validator.DiscoverFeedURLs(r.Context(), req.URL)
	renderJSON(w, r, http.StatusOK, map[string]interface{}{"valid": false, "discovered": discovered})
}

// getFeedHandler returns one feed by id
func (s *Server) getFeedHandler(w http.ResponseWriter, r *http.Request) {
	got, err := s.store.GetFeed(r.Context(), r.PathValue("id"))
	if err != nil {
		renderError(w, r, err, errorCode(err))
		return
	}
	renderJSON(w, r, http.StatusOK, got)
}

// updateFeedHandler replaces feed fields
func (s *Server) updateFeedHandler(w http.ResponseWriter, r *http.Request) {
	var req domain.Feed
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		renderError(w, r, fmt.Errorf("invalid request body"), http.StatusBadRequest)
		return
	}
	req.ID = r.PathValue("id")

	if err := s.store.UpdateFeed(r.Context(), &req); err != nil {
		renderError(w, r, err, errorCode(err))
		return
	}
	renderJSON(w, r, http.StatusOK, &req)
}

// deleteFeedHandler removes a feed and its articles
func (s *Server) deleteFeedHandler(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteFeed(r.Context(), r.PathValue("id")); err != nil {
		lgr.Printf("[ERROR] failed to delete feed: %v", err)
		renderError(w, r, err, http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// refreshFeedHandler refreshes one feed immediately
func (s *Server) refreshFeedHandler(w http.ResponseWriter, r *http.Request) {
	if err := s.scheduler.RefreshFeedNow(r.Context(), r.PathValue("id")); err != nil {
		lgr.Printf("[ERROR] failed to refresh feed: %v", err)
		renderError(w, r, err, http.StatusInternalServerError)
		return
	}
	renderJSON(w, r, http.StatusOK, map[string]string{"status": "refreshed"})
}

// refreshAllHandler kicks off a full refresh in the background. A run already
// in flight absorbs the request.
func (s *Server) refreshAllHandler(w http.ResponseWriter, r *http.Request) {
	go s.scheduler.RefreshAll(context.WithoutCancel(r.Context()))
	renderJSON(w, r, http.StatusAccepted, map[string]string{"status": "refresh started"})
}

// listArticlesHandler returns articles with optional filters. A q parameter
// switches to search mode and ignores the other filters.
func (s *Server) listArticlesHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	if query := q.Get("q"); query != "" {
		articles, err := s.store.SearchArticles(r.Context(), query)
		if err != nil {
			lgr.Printf("[ERROR] search failed: %v", err)
			renderError(w, r, err, http.StatusInternalServerError)
			return
		}
		renderJSON(w, r, http.StatusOK, articles)
		return
	}

	filter := repository.ArticleFilter{
		FeedID:       q.Get("feed"),
		UnreadOnly:   q.Get("unread") == "true",
		FavoriteOnly: q.Get("favorites") == "true",
	}
	if limit, err := strconv.Atoi(q.Get("limit")); err == nil && limit > 0 {
		filter.Limit = limit
	}
	if offset, err := strconv.Atoi(q.Get("offset")); err == nil && offset > 0 {
		filter.Offset = offset
	}

	articles, err := s.store.GetArticles(r.Context(), filter)
	if err != nil {
		lgr.Printf("[ERROR] failed to get articles: %v", err)
		renderError(w, r, err, http.StatusInternalServerError)
		return
	}
	renderJSON(w, r, http.StatusOK, articles)
}

// createArticleHandler stores a manually added article
func (s *Server) createArticleHandler(w http.ResponseWriter, r *http.Request) {
	var req domain.Article
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		renderError(w, r, fmt.Errorf("invalid request body"), http.StatusBadRequest)
		return
	}
	if req.FeedID == "" {
		req.FeedID = domain.FeedIDManual
	}
	if req.Tags == nil {
		req.Tags = []string{}
	}

	if err := s.store.CreateArticle(r.Context(), &req); err != nil {
		lgr.Printf("[ERROR] failed to create article: %v", err)
		renderError(w, r, err, http.StatusInternalServerError)
		return
	}
	renderJSON(w, r, http.StatusCreated, &req)
}

// unreadCountHandler returns the number of unread articles
func (s *Server) unreadCountHandler(w http.ResponseWriter, r *http.Request) {
	count, err := s.store.CountUnread(r.Context(), r.URL.Query().Get("feed"))
	if err != nil {
		renderError(w, r, err, http.StatusInternalServerError)
		return
	}
	renderJSON(w, r, http.StatusOK, map[string]int{"count": count})
}

// getArticleHandler returns one article by id
func (s *Server) getArticleHandler(w http.ResponseWriter, r *http.Request) {
	got, err := s.store.GetArticle(r.Context(), r.PathValue("id"))
	if err != nil {
		renderError(w, r, err, errorCode(err))
		return
	}
	renderJSON(w, r, http.StatusOK, got)
}

// updateArticleHandler replaces article fields
func (s *Server) updateArticleHandler(w http.ResponseWriter, r *http.Request) {
	var req domain.Article
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		renderError(w, r, fmt.Errorf("invalid request body"), http.StatusBadRequest)
		return
	}
	req.ID = r.PathValue("id")

	if err := s.store.UpdateArticle(r.Context(), &req); err != nil {
		renderError(w, r, err, errorCode(err))
		return
	}
	renderJSON(w, r, http.StatusOK, &req)
}

// deleteArticleHandler removes an article with its notes and highlights
func (s *Server) deleteArticleHandler(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteArticle(r.Context(), r.PathValue("id")); err != nil {
		lgr.Printf("[ERROR] failed to delete article: %v", err)
		renderError(w, r, err, http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// setReadHandler marks an article read or unread
func (s *Server) setReadHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Read bool `json:"read"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		renderError(w, r, fmt.Errorf("invalid request body"), http.StatusBadRequest)
		return
	}

	if err := s.store.SetRead(r.Context(), r.PathValue("id"), req.Read); err != nil {
		renderError(w, r, err, errorCode(err))
		return
	}
	renderJSON(w, r, http.StatusOK, map[string]bool{"read": req.Read})
}

// setFavoriteHandler marks an article as favorite or clears the mark
func (s *Server) setFavoriteHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Favorite bool `json:"favorite"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		renderError(w, r, fmt.Errorf("invalid request body"), http.StatusBadRequest)
		return
	}

	if err := s.store.SetFavorite(r.Context(), r.PathValue("id"), req.Favorite); err != nil {
		renderError(w, r, err, errorCode(err))
		return
	}
	renderJSON(w, r, http.StatusOK, map[string]bool{"favorite": req.Favorite})
}
