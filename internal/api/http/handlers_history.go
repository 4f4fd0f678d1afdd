package apihttp

import (
	"encoding/json"
	"net/http"
	"strings"

	"teleplay/internal/domain"
	"teleplay/internal/metrics"
)

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeError(w, http.StatusNotImplemented, "not_configured", "watch history not configured")
		return
	}

	switch r.Method {
	case http.MethodGet:
		entries := s.history.List(r.Context())
		metrics.HistoryEntries.Set(float64(len(entries)))
		writeJSON(w, http.StatusOK, entries)

	case http.MethodPost:
		var item domain.MediaItem
		if err := json.NewDecoder(r.Body).Decode(&item); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", "invalid json")
			return
		}
		s.history.Record(r.Context(), item)
		w.WriteHeader(http.StatusNoContent)

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleHistoryByID(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeError(w, http.StatusNotImplemented, "not_configured", "watch history not configured")
		return
	}
	if r.Method != http.MethodDelete {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	// Synthesized identities may contain slashes (magnet links), so the whole
	// tail is the id.
	id := strings.TrimPrefix(r.URL.Path, "/history/")
	if id == "" {
		http.NotFound(w, r)
		return
	}

	if err := s.history.Remove(r.Context(), domain.MediaID(id)); err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to remove history entry")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
