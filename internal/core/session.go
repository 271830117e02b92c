package core

import (
	"context"
	"time"
)

// Session is one user's working list. Records accumulate across uploads
// until the session is reset or expires.
type Session struct {
	ID        string        `json:"id"`
	Records   []EmailRecord `json:"records"`
	RunCount  int           `json:"runCount"`
	LastRun   *RunSummary   `json:"lastRun,omitempty"`
	CreatedAt time.Time     `json:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt"`
}

// RunSummary is the part of a RunResult kept on the session.
type RunSummary struct {
	RunID        string          `json:"runId"`
	FileName     string          `json:"fileName"`
	Stats        ProcessingStats `json:"stats"`
	MergeDropped int             `json:"mergeDropped"`
	FinishedAt   time.Time       `json:"finishedAt"`
}

// SessionStore persists sessions. Load returns an error wrapping
// ErrSessionNotFound for unknown or expired ids. Implementations must be
// safe for concurrent use.
type SessionStore interface {
	Load(ctx context.Context, id string) (*Session, error)
	Save(ctx context.Context, s *Session) error
	Delete(ctx context.Context, id string) error
}

// RunObserver receives the outcome of every run and export. The metrics
// package implements it.
type RunObserver interface {
	ObserveRun(result *RunResult, err error, elapsed time.Duration)
	ObserveExport(format ExportFormat, records int)
}

type nopObserver struct{}

func (nopObserver) ObserveRun(*RunResult, error, time.Duration) {}
func (nopObserver) ObserveExport(ExportFormat, int)             {}
