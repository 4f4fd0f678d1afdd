package apihttp

import (
	"encoding/json"
	"net/http"
	"strings"

	"teleplay/internal/domain"
	"teleplay/internal/remote"
	"teleplay/internal/usecase"
)

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if s.catalog == nil {
		writeError(w, http.StatusNotImplemented, "not_configured", "catalog not configured")
		return
	}

	results, err := s.catalog.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeCatalogError(w, err)
		return
	}
	if results == nil {
		results = []remote.SearchResult{}
	}
	writeJSON(w, http.StatusOK, results)
}

func (s *Server) handleVideoByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if s.catalog == nil {
		writeError(w, http.StatusNotImplemented, "not_configured", "catalog not configured")
		return
	}

	id, rest, ok := parseIDPath(r.URL.Path, "/videos/")
	if !ok || rest != "" {
		http.NotFound(w, r)
		return
	}

	details, err := s.catalog.Video(r.Context(), id)
	if err != nil {
		writeCatalogError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, details)
}

func (s *Server) handleChannels(w http.ResponseWriter, r *http.Request) {
	if s.catalog == nil {
		writeError(w, http.StatusNotImplemented, "not_configured", "catalog not configured")
		return
	}

	id, rest, ok := parseIDPath(r.URL.Path, "/channels/")
	if !ok {
		http.NotFound(w, r)
		return
	}

	switch rest {
	case "":
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		channel, err := s.catalog.Channel(r.Context(), id)
		if err != nil {
			writeCatalogError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, channel)

	case "content":
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		content, err := s.catalog.ChannelContent(r.Context(), id)
		if err != nil {
			writeCatalogError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, content)

	case "subscribe":
		s.handleSubscribe(w, r, id)

	default:
		http.NotFound(w, r)
	}
}

// handleSubscribe adds the channel to the signed-in user's subscriptions.
// The backend has no unsubscribe endpoint, so neither do we; a 409 from it
// means the subscription already exists.
func (s *Server) handleSubscribe(w http.ResponseWriter, r *http.Request, channelID int64) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	userID, ok := s.requireUser(w, r)
	if !ok {
		return
	}

	if err := s.catalog.Subscribe(r.Context(), userID, channelID); err != nil {
		writeCatalogError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSubscriptions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if s.catalog == nil {
		writeError(w, http.StatusNotImplemented, "not_configured", "catalog not configured")
		return
	}

	userID, ok := s.requireUser(w, r)
	if !ok {
		return
	}

	channels, err := s.catalog.Subscriptions(r.Context(), userID)
	if err != nil {
		writeCatalogError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, channels)
}

// handleStream resolves a catalog item to a playable URL. A completed local
// download wins over the network; the watch event lands in history either way.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if s.openMedia == nil {
		writeError(w, http.StatusNotImplemented, "not_configured", "streaming not configured")
		return
	}

	var item domain.MediaItem
	if err := json.NewDecoder(r.Body).Decode(&item); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid json")
		return
	}
	if strings.TrimSpace(string(item.ID)) == "" && strings.TrimSpace(item.Link) == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "id or link is required")
		return
	}

	result, err := s.openMedia.Execute(r.Context(), usecase.OpenMediaInput{Item: item})
	if err != nil {
		writeOpenMediaError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
