package remote

import (
	"errors"
	"fmt"
)

// ErrUnavailable marks transport-level failures reaching the backend.
var ErrUnavailable = errors.New("backend unavailable")

// ErrNoStream is returned when the backend resolves a link to zero stream
// URLs.
var ErrNoStream = errors.New("no streamable link received")

// StatusError is a non-2xx backend response.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("backend returned status %d", e.Code)
}

// Retryable reports whether the status indicates a transient condition.
func (e *StatusError) Retryable() bool {
	return e.Code == 429 || e.Code >= 500
}
