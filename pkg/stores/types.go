// Package stores persists plan execution history: one row per run plus
// per-recipe events, in SQLite. History is optional; the engine itself
// never depends on it.
package stores

import (
	"context"
	"time"
)

// RunStatus is the lifecycle state of a recorded execution run.
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// Run is one recorded plan execution.
type Run struct {
	ID          string     `json:"id"`
	PlanID      string     `json:"plan_id"`
	Mode        string     `json:"mode"`
	Requested   string     `json:"requested"`
	Status      RunStatus  `json:"status"`
	Error       *string    `json:"error,omitempty"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// Event is one per-recipe record within a run.
type Event struct {
	ID       int64     `json:"id"`
	RunID    string    `json:"run_id"`
	Recipe   string    `json:"recipe"`
	Variable string    `json:"variable"`
	Message  string    `json:"message"`
	Level    string    `json:"level"`
	At       time.Time `json:"at"`
}

// Store is the run-history contract.
type Store interface {
	Init(ctx context.Context) error
	Migrate(ctx context.Context) error
	Close() error

	CreateRun(ctx context.Context, run *Run) error
	CompleteRun(ctx context.Context, runID string, status RunStatus, execErr error) error
	GetRun(ctx context.Context, runID string) (*Run, error)
	ListRuns(ctx context.Context, limit int) ([]*Run, error)

	AppendEvent(ctx context.Context, event *Event) error
	ListEvents(ctx context.Context, runID string) ([]*Event, error)
}
