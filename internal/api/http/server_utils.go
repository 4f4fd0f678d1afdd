package apihttp

import (
	"encoding/json"
	"errors"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"teleplay/internal/remote"
	"teleplay/internal/transfer"
	"teleplay/internal/usecase"
)

type errorEnvelope struct {
	Error errorPayload `json:"error"`
}

type errorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeTransferError(w http.ResponseWriter, err error) {
	if errors.Is(err, transfer.ErrBusy) {
		writeError(w, http.StatusConflict, "transfer_busy", "a download is already in progress")
		return
	}
	if errors.Is(err, transfer.ErrNoActiveTransfer) {
		writeError(w, http.StatusConflict, "no_active_transfer", "no download in progress")
		return
	}
	if errors.Is(err, transfer.ErrInvalidSource) {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid download source")
		return
	}

	writeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
}

func writeCatalogError(w http.ResponseWriter, err error) {
	var statusErr *remote.StatusError
	if errors.As(err, &statusErr) {
		switch {
		case statusErr.Code == http.StatusNotFound:
			writeError(w, http.StatusNotFound, "not_found", "not found")
		case statusErr.Code == http.StatusUnauthorized || statusErr.Code == http.StatusForbidden:
			writeError(w, http.StatusUnauthorized, "unauthorized", "backend rejected credentials")
		case statusErr.Code == http.StatusConflict:
			writeError(w, http.StatusConflict, "conflict", "already subscribed")
		default:
			writeError(w, http.StatusBadGateway, "backend_error", "backend request failed")
		}
		return
	}
	if errors.Is(err, remote.ErrUnavailable) {
		writeError(w, http.StatusBadGateway, "backend_unavailable", "backend unreachable")
		return
	}

	writeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
}

func writeOpenMediaError(w http.ResponseWriter, err error) {
	if errors.Is(err, usecase.ErrNoPlayableSource) {
		writeError(w, http.StatusNotFound, "no_playable_source", "no playable source for item")
		return
	}
	if errors.Is(err, usecase.ErrRemote) {
		writeCatalogError(w, err)
		return
	}

	writeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorEnvelope{Error: errorPayload{Code: code, Message: message}})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func resolveDataFilePath(dataDir, filePath string) (string, error) {
	base := strings.TrimSpace(dataDir)
	if base == "" {
		return "", errors.New("data dir is required")
	}
	base = filepath.Clean(base)
	if abs, err := filepath.Abs(base); err == nil {
		base = abs
	}

	joined := filepath.Join(base, filepath.FromSlash(filePath))
	joined = filepath.Clean(joined)
	if abs, err := filepath.Abs(joined); err == nil {
		joined = abs
	}

	if joined != base && !strings.HasPrefix(joined, base+string(filepath.Separator)) {
		return "", errors.New("path escapes data dir")
	}
	return joined, nil
}

func parseIDPath(path, prefix string) (int64, string, bool) {
	tail := strings.TrimPrefix(path, prefix)
	if tail == path || tail == "" {
		return 0, "", false
	}
	idPart := tail
	rest := ""
	if idx := strings.Index(tail, "/"); idx >= 0 {
		idPart = tail[:idx]
		rest = tail[idx+1:]
	}
	id, err := strconv.ParseInt(idPart, 10, 64)
	if err != nil || id <= 0 {
		return 0, "", false
	}
	return id, rest, true
}
