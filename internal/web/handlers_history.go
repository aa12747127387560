package web

import (
	"net/http"

	"github.com/JonMunkholm/qrforge/internal/store"
)

// handleListHistory returns a page of history. Query: limit, offset, search.
func (s *Server) handleListHistory(w http.ResponseWriter, r *http.Request) {
	q := store.HistoryQuery{
		Limit:  queryInt(r, "limit", store.DefaultHistoryLimit),
		Offset: queryInt(r, "offset", 0),
		Search: r.URL.Query().Get("search"),
	}

	page, err := s.service.ListHistory(r.Context(), q)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	writeJSON(w, page)
}

func (s *Server) handleSaveHistory(w http.ResponseWriter, r *http.Request) {
	var item store.NewHistoryItem
	if err := decodeJSON(w, r, s.cfg.Batch.MaxRequestSize, &item); err != nil {
		respondServiceError(w, r, err)
		return
	}

	id, err := s.service.SaveHistory(r.Context(), item)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, map[string]int64{"id": id})
}

func (s *Server) handleDeleteHistory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	ok, err := s.service.DeleteHistory(r.Context(), id)
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

func (s *Server) handleClearHistory(w http.ResponseWriter, r *http.Request) {
	n, err := s.service.ClearHistory(r.Context())
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	writeJSON(w, map[string]int64{"removed": n})
}
