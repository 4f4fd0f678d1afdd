// Package transfer drives one resumable download at a time: fetch bytes with
// progress callbacks, hand the finished file to the download index, surface
// cancellation and failure as distinct outcomes.
package transfer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"teleplay/internal/domain"
	"teleplay/internal/domain/ports"
)

var ErrBusy = errors.New("transfer already in progress")
var ErrNoActiveTransfer = errors.New("no active transfer")
var ErrInvalidSource = errors.New("invalid transfer source")

// ErrTransfer marks any failed transfer so callers can match the whole class
// with errors.Is.
var ErrTransfer = errors.New("transfer failed")

func wrapTransfer(err error) error {
	return fmt.Errorf("%w: %w", ErrTransfer, err)
}

// Completer receives the finished file. Satisfied by downloads.Index.
type Completer interface {
	AddCompleted(ctx context.Context, title, location string) error
}

// ProgressFunc receives the fraction complete in [0,1]. Values are monotonic
// non-decreasing within a session; 1.0 is reported exactly once, on success.
type ProgressFunc func(fraction float64)

type Controller struct {
	fetcher ports.Fetcher
	index   Completer
	dataDir string
	logger  *slog.Logger

	// Now is overridable for tests.
	Now func() time.Time

	// OnState, when set, observes every session state change. Calls arrive
	// sequentially in emission order. The companion uses it to broadcast
	// transfer state over WebSocket and update gauges.
	OnState func(domain.TransferState)

	mu      sync.Mutex
	current *activeSession
	last    domain.TransferState
}

type activeSession struct {
	state      domain.TransferState
	cancel     context.CancelFunc
	cancelled  bool
	onProgress ProgressFunc
	done       chan struct{}
}

func NewController(fetcher ports.Fetcher, index Completer, dataDir string, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		fetcher: fetcher,
		index:   index,
		dataDir: dataDir,
		logger:  logger,
		Now:     time.Now,
		last:    domain.TransferState{Status: domain.TransferIdle},
	}
}

// Start begins a transfer from source to a destination derived from title and
// returns the initial session snapshot. The transfer runs until completion,
// cancellation or failure; onProgress may be nil. Starting while a session is
// active is a caller error.
func (c *Controller) Start(ctx context.Context, source, title string, onProgress ProgressFunc) (domain.TransferState, error) {
	if strings.TrimSpace(source) == "" {
		return domain.TransferState{}, ErrInvalidSource
	}

	c.mu.Lock()

	if c.current != nil {
		c.mu.Unlock()
		return domain.TransferState{}, ErrBusy
	}

	display := title
	if strings.TrimSpace(display) == "" {
		display = "Untitled"
	}
	now := c.Now()
	state := domain.TransferState{
		ID:          uuid.NewString(),
		Title:       display,
		Source:      source,
		Destination: DestinationPath(c.dataDir, display),
		Status:      domain.TransferActive,
		StartedAt:   now,
		UpdatedAt:   now,
	}

	// The session outlives the request that started it.
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	session := &activeSession{
		state:      state,
		cancel:     cancel,
		onProgress: onProgress,
		done:       make(chan struct{}),
	}
	c.current = session
	c.mu.Unlock()

	c.notify(state)
	go c.run(runCtx, session)

	return state, nil
}

// Cancel aborts the in-flight transfer. The partial destination file is left
// on disk; a later Start of the same title resumes from it.
func (c *Controller) Cancel() error {
	c.mu.Lock()
	session := c.current
	if session == nil {
		c.mu.Unlock()
		return ErrNoActiveTransfer
	}
	session.cancelled = true
	c.mu.Unlock()

	session.cancel()
	return nil
}

// State returns the active session snapshot, or the last terminal state when
// the controller is idle.
func (c *Controller) State() domain.TransferState {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current != nil {
		return c.current.state
	}
	return c.last
}

// Wait blocks until the current session (if any) reaches a terminal state.
// Test and shutdown helper.
func (c *Controller) Wait() {
	c.mu.Lock()
	session := c.current
	c.mu.Unlock()
	if session != nil {
		<-session.done
	}
}

func (c *Controller) run(ctx context.Context, session *activeSession) {
	defer close(session.done)

	err := c.fetcher.Fetch(ctx, session.state.Source, session.state.Destination, c.progressFunc(session))

	c.mu.Lock()

	state := session.state
	state.UpdatedAt = c.Now()

	switch {
	case session.cancelled || errors.Is(err, context.Canceled):
		state.Status = domain.TransferCancelled
	case err != nil:
		state.Status = domain.TransferFailed
		state.Error = wrapTransfer(err).Error()
		c.logger.Warn("transfer failed",
			slog.String("id", state.ID),
			slog.String("title", state.Title),
			slog.String("error", err.Error()),
		)
	default:
		if indexErr := c.index.AddCompleted(ctx, state.Title, state.Destination); indexErr != nil {
			state.Status = domain.TransferFailed
			state.Error = wrapTransfer(indexErr).Error()
			c.logger.Error("completed transfer not indexed",
				slog.String("id", state.ID),
				slog.String("location", state.Destination),
				slog.String("error", indexErr.Error()),
			)
		} else {
			state.Status = domain.TransferCompleted
			state.Progress = 1
		}
	}

	session.state = state
	c.last = state
	c.mu.Unlock()

	if state.Status == domain.TransferCompleted && session.onProgress != nil {
		session.onProgress(1)
	}
	c.notify(state)

	// Release the slot only after the terminal snapshot went out, so a
	// session started next never notifies ahead of this one.
	c.mu.Lock()
	c.current = nil
	c.mu.Unlock()
}

// progressFunc adapts byte counts to a monotonic fraction and suppresses
// callbacks once the session was cancelled.
func (c *Controller) progressFunc(session *activeSession) ports.ProgressFunc {
	return func(written, expected int64) {
		c.mu.Lock()
		if session.cancelled || session.state.Status != domain.TransferActive {
			c.mu.Unlock()
			return
		}
		fraction := progressFraction(written, expected)
		if fraction < session.state.Progress {
			fraction = session.state.Progress
		}
		// Hold 1.0 back for the completion path.
		if fraction >= 1 {
			fraction = 0.99
		}
		session.state.Progress = fraction
		session.state.UpdatedAt = c.Now()
		state := session.state
		onProgress := session.onProgress
		c.mu.Unlock()

		c.notify(state)
		if onProgress != nil {
			onProgress(fraction)
		}
	}
}

// notify delivers a snapshot to OnState synchronously, never under c.mu, so
// observers see states in emission order and may call back into the
// controller.
func (c *Controller) notify(state domain.TransferState) {
	if c.OnState != nil {
		c.OnState(state)
	}
}

func progressFraction(written, expected int64) float64 {
	if expected <= 0 {
		return 0
	}
	fraction := float64(written) / float64(expected)
	if fraction < 0 {
		return 0
	}
	if fraction > 1 {
		return 1
	}
	return fraction
}

// DestinationPath derives the local file path for a title: whitespace runs
// collapse to underscores, path separators are stripped, ".mp4" is appended.
func DestinationPath(dataDir, title string) string {
	return filepath.Join(dataDir, SanitizeTitle(title)+".mp4")
}

func SanitizeTitle(title string) string {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', 0:
			return -1
		}
		return r
	}, title)
	fields := strings.Fields(cleaned)
	if len(fields) == 0 {
		return "Untitled"
	}
	return strings.Join(fields, "_")
}
