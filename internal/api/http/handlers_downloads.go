package apihttp

import (
	"encoding/json"
	"net/http"
	"strings"

	"teleplay/internal/metrics"
)

type startDownloadRequest struct {
	Source string `json:"source"`
	Title  string `json:"title"`
}

func (s *Server) handleDownloads(w http.ResponseWriter, r *http.Request) {
	if s.downloads == nil {
		writeError(w, http.StatusNotImplemented, "not_configured", "downloads not configured")
		return
	}

	switch r.Method {
	case http.MethodGet:
		records, err := s.downloads.ListAll(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", "failed to list downloads")
			return
		}
		metrics.DownloadsIndexed.Set(float64(len(records)))
		writeJSON(w, http.StatusOK, records)

	case http.MethodPost:
		s.handleDownloadStart(w, r)

	case http.MethodDelete:
		location := strings.TrimSpace(r.URL.Query().Get("uri"))
		if location == "" {
			writeError(w, http.StatusBadRequest, "invalid_request", "uri query parameter is required")
			return
		}
		if err := s.downloads.Delete(r.Context(), location); err != nil {
			writeError(w, http.StatusInternalServerError, "delete_failed", "failed to delete download")
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleDownloadStart(w http.ResponseWriter, r *http.Request) {
	if s.transfers == nil {
		writeError(w, http.StatusNotImplemented, "not_configured", "transfers not configured")
		return
	}

	var body startDownloadRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid json")
		return
	}
	if strings.TrimSpace(body.Source) == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "source is required")
		return
	}

	state, err := s.transfers.Start(r.Context(), body.Source, body.Title, nil)
	if err != nil {
		writeTransferError(w, err)
		return
	}
	metrics.TransfersStartedTotal.Inc()
	writeJSON(w, http.StatusAccepted, state)
}

func (s *Server) handleDownloadCancel(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if s.transfers == nil {
		writeError(w, http.StatusNotImplemented, "not_configured", "transfers not configured")
		return
	}

	if err := s.transfers.Cancel(); err != nil {
		writeTransferError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDownloadActive(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if s.transfers == nil {
		writeError(w, http.StatusNotImplemented, "not_configured", "transfers not configured")
		return
	}

	writeJSON(w, http.StatusOK, s.transfers.State())
}
