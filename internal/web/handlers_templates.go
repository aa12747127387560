package web

import (
	"net/http"

	"github.com/JonMunkholm/qrforge/internal/store"
)

// handleListTemplates returns all style templates, the default first.
func (s *Server) handleListTemplates(w http.ResponseWriter, r *http.Request) {
	templates, err := s.service.ListTemplates(r.Context())
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	writeJSON(w, templates)
}

// handleGetTemplate returns a single template by ID.
func (s *Server) handleGetTemplate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	t, err := s.service.GetTemplate(r.Context(), id)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	writeJSON(w, t)
}

// handleCreateTemplate creates a new template.
func (s *Server) handleCreateTemplate(w http.ResponseWriter, r *http.Request) {
	var req store.NewTemplate
	if err := decodeJSON(w, r, s.cfg.Batch.MaxRequestSize, &req); err != nil {
		respondServiceError(w, r, err)
		return
	}

	id, err := s.service.SaveTemplate(r.Context(), req)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, map[string]int64{"id": id})
}

// handleUpdateTemplate replaces an existing template.
func (s *Server) handleUpdateTemplate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	var req store.NewTemplate
	if err := decodeJSON(w, r, s.cfg.Batch.MaxRequestSize, &req); err != nil {
		respondServiceError(w, r, err)
		return
	}

	ok, err := s.service.UpdateTemplate(r.Context(), id, req)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	if !ok {
		respondServiceError(w, r, store.ErrNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleDeleteTemplate deletes a template.
func (s *Server) handleDeleteTemplate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	ok, err := s.service.DeleteTemplate(r.Context(), id)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	if !ok {
		respondServiceError(w, r, store.ErrNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleSetDefaultTemplate makes a template the only default.
func (s *Server) handleSetDefaultTemplate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	ok, err := s.service.SetDefaultTemplate(r.Context(), id)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	if !ok {
		respondServiceError(w, r, store.ErrNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
