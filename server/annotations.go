package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-pkgz/lgr"

	"github.com/readkeep/readkeep/pkg/domain"
)

// articleNotesHandler returns all notes for one article
func (s *Server) articleNotesHandler(w http.ResponseWriter, r *http.Request) {
	notes, err := s.store.GetNotesByArticle(r.Context(), r.PathValue("id"))
	if err != nil {
		renderError(w, r, err, http.StatusInternalServerError)
		return
	}
	renderJSON(w, r, http.StatusOK, notes)
}

// listNotesHandler returns every note, or a search result when q is given
func (s *Server) listNotesHandler(w http.ResponseWriter, r *http.Request) {
	var notes []*domain.Note
	var err error
	if q := r.URL.Query().Get("q"); q != "" {
		notes, err = s.store.SearchNotes(r.Context(), q)
	} else {
		notes, err = s.store.GetNotes(r.Context())
	}
	if err != nil {
		renderError(w, r, err, http.StatusInternalServerError)
		return
	}
	renderJSON(w, r, http.StatusOK, notes)
}

// createNoteHandler attaches a note to an article
func (s *Server) createNoteHandler(w http.ResponseWriter, r *http.Request) {
	var req domain.Note
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		renderError(w, r, fmt.Errorf("invalid request body"), http.StatusBadRequest)
		return
	}
	if req.ArticleID == "" {
		renderError(w, r, fmt.Errorf("articleId is required"), http.StatusBadRequest)
		return
	}

	if err := s.store.CreateNote(r.Context(), &req); err != nil {
		lgr.Printf("[ERROR] failed to create note: %v", err)
		renderError(w, r, err, http.StatusInternalServerError)
		return
	}
	renderJSON(w, r, http.StatusCreated, &req)
}

// updateNoteHandler changes a note's content and tags
func (s *Server) updateNoteHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Content string   `json:"content"`
		Tags    []string `json:"tags"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		renderError(w, r, fmt.Errorf("invalid request body"), http.StatusBadRequest)
		return
	}

	id := r.PathValue("id")
	if err := s.store.UpdateNote(r.Context(), id, req.Content, req.Tags); err != nil {
		renderError(w, r, err, errorCode(err))
		return
	}

	updated, err := s.store.GetNote(r.Context(), id)
	if err != nil {
		renderError(w, r, err, errorCode(err))
		return
	}
	renderJSON(w, r, http.StatusOK, updated)
}

// deleteNoteHandler removes a note
func (s *Server) deleteNoteHandler(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteNote(r.Context(), r.PathValue("id")); err != nil {
		renderError(w, r, err, http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// articleHighlightsHandler returns all highlights for one article
func (s *Server) articleHighlightsHandler(w http.ResponseWriter, r *http.Request) {
	highlights, err := s.store.GetHighlightsByArticle(r.Context(), r.PathValue("id"))
	if err != nil {
		renderError(w, r, err, http.StatusInternalServerError)
		return
	}
	renderJSON(w, r, http.StatusOK, highlights)
}

// createHighlightHandler stores a new highlight
func (s *Server) createHighlightHandler(w http.ResponseWriter, r *http.Request) {
	var req domain.Highlight
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		renderError(w, r, fmt.Errorf("invalid request body"), http.StatusBadRequest)
		return
	}
	if req.ArticleID == "" {
		renderError(w, r, fmt.Errorf("articleId is required"), http.StatusBadRequest)
		return
	}

	if err := s.store.CreateHighlight(r.Context(), &req); err != nil {
		lgr.Printf("[ERROR] failed to create highlight: %v", err)
		renderError(w, r, err, http.StatusInternalServerError)
		return
	}
	renderJSON(w, r, http.StatusCreated, &req)
}

// setHighlightColorHandler recolors a highlight
func (s *Server) setHighlightColorHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Color string `json:"color"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		renderError(w, r, fmt.Errorf("invalid request body"), http.StatusBadRequest)
		return
	}

	if err := s.store.SetHighlightColor(r.Context(), r.PathValue("id"), req.Color); err != nil {
		renderError(w, r, err, errorCode(err))
		return
	}
	renderJSON(w, r, http.StatusOK, map[string]string{"color": req.Color})
}

// deleteHighlightHandler removes a highlight
func (s *Server) deleteHighlightHandler(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteHighlight(r.Context(), r.PathValue("id")); err != nil {
		renderError(w, r, err, http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// listCategoriesHandler returns all feed categories
func (s *Server) listCategoriesHandler(w http.ResponseWriter, r *http.Request) {
	categories, err := s.store.GetCategories(r.Context())
	if err != nil {
		renderError(w, r, err, http.StatusInternalServerError)
		return
	}
	renderJSON(w, r, http.StatusOK, categories)
}

// createCategoryHandler stores a new feed category
func (s *Server) createCategoryHandler(w http.ResponseWriter, r *http.Request) {
	var req domain.FeedCategory
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		renderError(w, r, fmt.Errorf("invalid request body"), http.StatusBadRequest)
		return
	}
	if req.Name == "" {
		renderError(w, r, fmt.Errorf("name is required"), http.StatusBadRequest)
		return
	}

	if err := s.store.CreateCategory(r.Context(), &req); err != nil {
		lgr.Printf("[ERROR] failed to create category: %v", err)
		renderError(w, r, err, http.StatusInternalServerError)
		return
	}
	renderJSON(w, r, http.StatusCreated, &req)
}

// updateCategoryHandler replaces category fields
func (s *Server) updateCategoryHandler(w http.ResponseWriter, r *http.Request) {
	var req domain.FeedCategory
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		renderError(w, r, fmt.Errorf("invalid request body"), http.StatusBadRequest)
		return
	}
	req.ID = r.PathValue("id")

	if err := s.store.UpdateCategory(r.Context(), &req); err != nil {
		renderError(w, r, err, errorCode(err))
		return
	}
	renderJSON(w, r, http.StatusOK, &req)
}

// deleteCategoryHandler removes a category, feeds fall back to the default
func (s *Server) deleteCategoryHandler(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteCategory(r.Context(), r.PathValue("id")); err != nil {
		renderError(w, r, err, errorCode(err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// getSettingsHandler returns application settings
func (s *Server) getSettingsHandler(w http.ResponseWriter, r *http.Request) {
	settings, err := s.store.GetAppSettings(r.Context())
	if err != nil {
		renderError(w, r, err, http.StatusInternalServerError)
		return
	}
	renderJSON(w, r, http.StatusOK, settings)
}

// saveSettingsHandler persists application settings
func (s *Server) saveSettingsHandler(w http.ResponseWriter, r *http.Request) {
	var req domain.AppSettings
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		renderError(w, r, fmt.Errorf("invalid request body"), http.StatusBadRequest)
		return
	}

	if err := s.store.SaveAppSettings(r.Context(), req); err != nil {
		lgr.Printf("[ERROR] failed to save settings: %v", err)
		renderError(w, r, err, http.StatusInternalServerError)
		return
	}
	renderJSON(w, r, http.StatusOK, req)
}
