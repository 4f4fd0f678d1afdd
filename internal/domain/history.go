package domain

import "time"

// HistoryEntry is a record of a previously opened media item. The watch log
// keeps at most one entry per identity, newest first, capped at
// HistoryCapacity entries.
type HistoryEntry struct {
	ID        MediaID        `json:"id"`
	Title     string         `json:"title"`
	Link      string         `json:"link,omitempty"`
	Extra     map[string]any `json:"extra,omitempty"`
	WatchedAt time.Time      `json:"watchedAt"`
}

// HistoryCapacity bounds the persisted watch log. Recording beyond the cap
// evicts the oldest entry.
const HistoryCapacity = 20
