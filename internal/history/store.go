// Package history maintains the bounded, deduplicated watch log. Recording is
// best-effort: a failed storage write never surfaces to the caller, the prior
// persisted list stays intact.
package history

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"teleplay/internal/domain"
	"teleplay/internal/domain/ports"
)

const storageKey = "watchHistory"

type Store struct {
	kv     ports.KeyValue
	logger *slog.Logger

	// Now is overridable for tests.
	Now func() time.Time

	mu sync.Mutex
}

func NewStore(kv ports.KeyValue, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{kv: kv, logger: logger, Now: time.Now}
}

// Record inserts item at the front of the watch log, removing any prior entry
// with the same identity and truncating to domain.HistoryCapacity. Storage
// failures are logged and swallowed.
func (s *Store) Record(ctx context.Context, item domain.MediaItem) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.load(ctx)
	id := resolveIdentity(item, len(entries))

	kept := entries[:0]
	for _, entry := range entries {
		if entry.ID != id {
			kept = append(kept, entry)
		}
	}

	next := make([]domain.HistoryEntry, 0, len(kept)+1)
	next = append(next, domain.HistoryEntry{
		ID:        id,
		Title:     item.DisplayTitle(),
		Link:      item.Link,
		Extra:     item.Extra,
		WatchedAt: s.Now(),
	})
	next = append(next, kept...)
	if len(next) > domain.HistoryCapacity {
		next = next[:domain.HistoryCapacity]
	}

	if err := s.persist(ctx, next); err != nil {
		s.logger.Warn("history record not persisted",
			slog.String("id", string(id)),
			slog.String("error", err.Error()),
		)
	}
}

// List returns the watch log newest first. A missing or unreadable blob reads
// as an empty log.
func (s *Store) List(ctx context.Context) []domain.HistoryEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

// Remove deletes the entry with the given identity. Removing an absent id is
// a no-op.
func (s *Store) Remove(ctx context.Context, id domain.MediaID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.load(ctx)
	kept := make([]domain.HistoryEntry, 0, len(entries))
	for _, entry := range entries {
		if entry.ID != id {
			kept = append(kept, entry)
		}
	}
	if len(kept) == len(entries) {
		return nil
	}
	return s.persist(ctx, kept)
}

func (s *Store) load(ctx context.Context) []domain.HistoryEntry {
	raw, ok, err := s.kv.Get(ctx, storageKey)
	if err != nil {
		s.logger.Warn("history read failed", slog.String("error", err.Error()))
		return nil
	}
	if !ok {
		return nil
	}
	var entries []domain.HistoryEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		// Corrupt local cache reads as empty rather than crashing the app.
		s.logger.Warn("history blob corrupt, treating as empty", slog.String("error", err.Error()))
		return nil
	}
	return entries
}

func (s *Store) persist(ctx context.Context, entries []domain.HistoryEntry) error {
	raw, err := json.Marshal(entries)
	if err != nil {
		return err
	}
	return s.kv.Set(ctx, storageKey, raw)
}

// resolveIdentity picks the backend id when present, falls back to the item
// link, and synthesizes a positional key as a last resort so that id-less
// items still dedupe against themselves instead of colliding.
func resolveIdentity(item domain.MediaItem, position int) domain.MediaID {
	if item.ID != "" {
		return item.ID
	}
	if item.Link != "" {
		return domain.MediaID("link:" + item.Link)
	}
	return domain.MediaID(fmt.Sprintf("%s#%d", item.DisplayTitle(), position))
}
