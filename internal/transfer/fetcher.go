package transfer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"teleplay/internal/domain/ports"
)

const progressChunkSize = 128 * 1024

// HTTPFetcher is the resumable transfer primitive over plain HTTP. A partial
// destination file triggers a Range request from its current size; servers
// that ignore the range restart the file from zero.
type HTTPFetcher struct {
	client *http.Client
}

func NewHTTPFetcher(client *http.Client) *HTTPFetcher {
	if client == nil {
		client = &http.Client{Timeout: 0}
	}
	return &HTTPFetcher{client: client}
}

var _ ports.Fetcher = (*HTTPFetcher)(nil)

func (f *HTTPFetcher) Fetch(ctx context.Context, source, destination string, progress ports.ProgressFunc) error {
	if err := os.MkdirAll(filepath.Dir(destination), 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	var offset int64
	if info, err := os.Stat(destination); err == nil {
		offset = info.Size()
	}

	resp, err := f.requestFrom(ctx, source, offset)
	if err != nil {
		return err
	}
	if resp.StatusCode == http.StatusRequestedRangeNotSatisfiable && offset > 0 {
		// The range starts at or past the end of the server's copy: the
		// destination is already complete, or the server's copy shrank.
		total := contentRangeTotal(resp.Header.Get("Content-Range"))
		resp.Body.Close()
		if total > 0 && offset == total {
			if progress != nil {
				progress(total, total)
			}
			return nil
		}
		offset = 0
		resp, err = f.requestFrom(ctx, source, 0)
		if err != nil {
			return err
		}
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		// Full body: the server ignored the range (or none was sent).
		offset = 0
	case http.StatusPartialContent:
	default:
		return fmt.Errorf("unexpected status %d from source", resp.StatusCode)
	}

	flags := os.O_CREATE | os.O_WRONLY
	if offset > 0 {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}
	out, err := os.OpenFile(destination, flags, 0o644)
	if err != nil {
		return err
	}
	defer out.Close()

	expected := offset
	if resp.ContentLength > 0 {
		expected = offset + resp.ContentLength
	}

	written := offset
	if progress != nil {
		progress(written, expected)
	}

	buf := make([]byte, progressChunkSize)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			if _, writeErr := out.Write(buf[:n]); writeErr != nil {
				return writeErr
			}
			written += int64(n)
			if progress != nil {
				progress(written, expected)
			}
		}
		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				break
			}
			// Body reads during cancellation report the context error.
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			return readErr
		}
	}

	if err := out.Sync(); err != nil {
		return err
	}
	return nil
}

func (f *HTTPFetcher) requestFrom(ctx context.Context, source string, offset int64) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, err
	}
	if offset > 0 {
		req.Header.Set("Range", fmt.Sprintf("bytes=%d-", offset))
	}
	return f.client.Do(req)
}

// contentRangeTotal extracts the complete length from a "bytes */N"
// Content-Range header. Returns 0 when absent or unknown ("*").
func contentRangeTotal(value string) int64 {
	rest, ok := strings.CutPrefix(value, "bytes ")
	if !ok {
		return 0
	}
	if i := strings.IndexByte(rest, '/'); i >= 0 {
		rest = rest[i+1:]
	}
	total, err := strconv.ParseInt(strings.TrimSpace(rest), 10, 64)
	if err != nil {
		return 0
	}
	return total
}

// DefaultClient builds the fetcher's HTTP client: no overall timeout (large
// files), but bounded dial and header waits.
func DefaultClient() *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			ResponseHeaderTimeout: 30 * time.Second,
			IdleConnTimeout:       90 * time.Second,
		},
	}
}
