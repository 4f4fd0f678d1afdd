// Package downloads maintains the index of completed transfers: title →
// local file. The playback chooser and the downloads screen read it; the
// transfer controller appends to it.
package downloads

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"sync"

	"teleplay/internal/domain"
	"teleplay/internal/domain/ports"
)

const storageKey = "downloads"

type Index struct {
	kv     ports.KeyValue
	logger *slog.Logger

	// RemoveFile is overridable for tests; defaults to os.Remove.
	RemoveFile func(path string) error

	mu sync.Mutex
}

func NewIndex(kv ports.KeyValue, logger *slog.Logger) *Index {
	if logger == nil {
		logger = slog.Default()
	}
	return &Index{kv: kv, logger: logger, RemoveFile: os.Remove}
}

// AddCompleted appends a record for a finished transfer and persists the full
// list.
func (i *Index) AddCompleted(ctx context.Context, title, location string) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	records := i.load(ctx)
	records = append(records, domain.DownloadRecord{Title: title, Location: location})
	if err := i.persist(ctx, records); err != nil {
		return fmt.Errorf("persist download index: %w", err)
	}
	return nil
}

// ListAll returns every completed download record.
func (i *Index) ListAll(ctx context.Context) ([]domain.DownloadRecord, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.load(ctx), nil
}

// Lookup returns the record for a title, if one exists. The newest record
// wins when a title was downloaded more than once.
func (i *Index) Lookup(ctx context.Context, title string) (domain.DownloadRecord, bool) {
	i.mu.Lock()
	defer i.mu.Unlock()

	records := i.load(ctx)
	for n := len(records) - 1; n >= 0; n-- {
		if records[n].Title == title {
			return records[n], true
		}
	}
	return domain.DownloadRecord{}, false
}

// Delete removes the stored file first, then the index entry. A file that is
// already gone is not an error; a file that cannot be removed keeps its index
// entry so the UI never loses track of bytes still on disk.
func (i *Index) Delete(ctx context.Context, location string) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if err := i.RemoveFile(location); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove file: %w", err)
	}

	records := i.load(ctx)
	kept := make([]domain.DownloadRecord, 0, len(records))
	for _, record := range records {
		if record.Location != location {
			kept = append(kept, record)
		}
	}
	if len(kept) == len(records) {
		return nil
	}
	if err := i.persist(ctx, kept); err != nil {
		// The file is gone but the entry stayed behind: a dangling index
		// entry is detectable, an orphaned file would not be.
		return fmt.Errorf("persist download index: %w", err)
	}
	return nil
}

func (i *Index) load(ctx context.Context) []domain.DownloadRecord {
	raw, ok, err := i.kv.Get(ctx, storageKey)
	if err != nil {
		i.logger.Warn("download index read failed", slog.String("error", err.Error()))
		return nil
	}
	if !ok {
		return nil
	}
	var records []domain.DownloadRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		i.logger.Warn("download index blob corrupt, treating as empty", slog.String("error", err.Error()))
		return nil
	}
	return records
}

func (i *Index) persist(ctx context.Context, records []domain.DownloadRecord) error {
	raw, err := json.Marshal(records)
	if err != nil {
		return err
	}
	return i.kv.Set(ctx, storageKey, raw)
}
