package domain

import (
	"errors"
	"time"
)

type TransferStatus string

const (
	TransferIdle      TransferStatus = "idle"
	TransferActive    TransferStatus = "active"
	TransferCompleted TransferStatus = "completed"
	TransferCancelled TransferStatus = "cancelled"
	TransferFailed    TransferStatus = "failed"
)

// Terminal reports whether the status ends a transfer session.
func (s TransferStatus) Terminal() bool {
	switch s {
	case TransferCompleted, TransferCancelled, TransferFailed:
		return true
	default:
		return false
	}
}

// TransferState is a snapshot of one transfer session. Progress is a fraction
// in [0,1], monotonically non-decreasing over the session's lifetime and 1.0
// exactly when the transfer completed.
type TransferState struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Source      string         `json:"source"`
	Destination string         `json:"destination"`
	Status      TransferStatus `json:"status"`
	Progress    float64        `json:"progress"`
	StartedAt   time.Time      `json:"startedAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
	Error       string         `json:"error,omitempty"`
}

// Validate checks domain invariants for TransferState.
func (t TransferState) Validate() error {
	if t.Progress < 0 || t.Progress > 1 {
		return errors.New("progress must be in [0,1]")
	}
	switch t.Status {
	case TransferIdle, TransferActive, TransferCompleted, TransferCancelled, TransferFailed:
	case "":
		return errors.New("status is required")
	default:
		return errors.New("invalid status: " + string(t.Status))
	}
	if t.Status == TransferCompleted && t.Progress != 1 {
		return errors.New("completed transfer must report progress 1.0")
	}
	return nil
}
