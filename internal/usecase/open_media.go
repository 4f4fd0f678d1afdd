package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"teleplay/internal/domain"
	"teleplay/internal/remote"
)

var ErrNoPlayableSource = errors.New("no playable source")

// ErrRemote marks backend failures so the HTTP layer can map the whole class.
var ErrRemote = errors.New("backend error")

func wrapRemote(err error) error {
	return fmt.Errorf("%w: %w", ErrRemote, err)
}

type CatalogResolver interface {
	Video(ctx context.Context, id int64) (remote.VideoDetails, error)
	ResolveStream(ctx context.Context, link string) (string, error)
}

type LocalChooser interface {
	Lookup(ctx context.Context, title string) (domain.DownloadRecord, bool)
}

type HistoryRecorder interface {
	Record(ctx context.Context, item domain.MediaItem)
}

// OpenMedia turns an "open item" action into a playable URL. A completed
// local download wins over the network; otherwise the backend resolves the
// item (by catalog id or magnet-style link). The watch event is recorded
// either way — best-effort, it never fails the open.
type OpenMedia struct {
	Catalog   CatalogResolver
	Downloads LocalChooser
	History   HistoryRecorder
	Logger    *slog.Logger
}

type OpenMediaInput struct {
	Item domain.MediaItem
}

type OpenMediaResult struct {
	URL   string `json:"url"`
	Title string `json:"title"`
	Local bool   `json:"local"`
}

func (uc OpenMedia) Execute(ctx context.Context, input OpenMediaInput) (OpenMediaResult, error) {
	item := input.Item
	title := item.DisplayTitle()

	result, err := uc.resolve(ctx, item, title)
	if err != nil {
		return OpenMediaResult{}, err
	}

	if uc.History != nil {
		uc.History.Record(ctx, item)
		uc.logger().Debug("watch recorded",
			slog.String("id", string(item.ID)),
			slog.String("title", title),
			slog.Bool("local", result.Local),
		)
	}
	return result, nil
}

func (uc OpenMedia) logger() *slog.Logger {
	if uc.Logger != nil {
		return uc.Logger
	}
	return slog.Default()
}

func (uc OpenMedia) resolve(ctx context.Context, item domain.MediaItem, title string) (OpenMediaResult, error) {
	if uc.Downloads != nil {
		if record, ok := uc.Downloads.Lookup(ctx, title); ok {
			return OpenMediaResult{URL: record.Location, Title: record.Title, Local: true}, nil
		}
	}

	if id, ok := numericID(item.ID); ok {
		details, err := uc.Catalog.Video(ctx, id)
		if err != nil {
			return OpenMediaResult{}, wrapRemote(err)
		}
		if strings.TrimSpace(details.VideoURL) == "" {
			return OpenMediaResult{}, ErrNoPlayableSource
		}
		resolvedTitle := details.Title
		if resolvedTitle == "" {
			resolvedTitle = title
		}
		return OpenMediaResult{URL: details.VideoURL, Title: resolvedTitle}, nil
	}

	if strings.TrimSpace(item.Link) != "" {
		streamURL, err := uc.Catalog.ResolveStream(ctx, item.Link)
		if err != nil {
			if errors.Is(err, remote.ErrNoStream) {
				return OpenMediaResult{}, ErrNoPlayableSource
			}
			return OpenMediaResult{}, wrapRemote(err)
		}
		return OpenMediaResult{URL: streamURL, Title: title}, nil
	}

	return OpenMediaResult{}, ErrNoPlayableSource
}

func numericID(id domain.MediaID) (int64, bool) {
	parsed, err := strconv.ParseInt(string(id), 10, 64)
	if err != nil {
		return 0, false
	}
	return parsed, true
}
