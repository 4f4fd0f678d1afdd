package ports

import "context"

// ProgressFunc receives byte counts as a transfer advances. expected may be
// zero when the remote side does not announce a length.
type ProgressFunc func(written, expected int64)

// Fetcher is the resumable transfer primitive: it moves the bytes behind
// source into destination, reporting progress along the way. A partial
// destination file is picked up where it left off. Cancellation goes through
// ctx; the partial file is left behind for a later resume.
type Fetcher interface {
	Fetch(ctx context.Context, source, destination string, progress ProgressFunc) error
}
