// Package model holds the task and run records shared by the runner, the
// store and the status API.
package model

import (
	"time"

	"github.com/sells-group/mangroves/internal/summary"
)

// Task identifies one tile-year to classify. The JSON keys match the task
// lists consumed by external schedulers.
type Task struct {
	TileID  string `json:"tile-id"`
	Year    string `json:"year"`
	Version string `json:"version"`
}

// RunStatus is the lifecycle state of a run.
type RunStatus string

const (
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusEmpty    RunStatus = "empty"   // No input composite for the tile-year.
	RunStatusSkipped  RunStatus = "skipped" // Output already present.
	RunStatusFailed   RunStatus = "failed"
)

// Terminal reports whether s is a final state.
func (s RunStatus) Terminal() bool {
	switch s {
	case RunStatusComplete, RunStatusEmpty, RunStatusSkipped, RunStatusFailed:
		return true
	}
	return false
}

// Valid reports whether s is a known status.
func (s RunStatus) Valid() bool {
	return s == RunStatusRunning || s.Terminal()
}

// Run records one execution of a task.
type Run struct {
	ID        string           `json:"id"`
	Task      Task             `json:"task"`
	Status    RunStatus        `json:"status"`
	Output    string           `json:"output,omitempty"`
	Summary   *summary.Summary `json:"summary,omitempty"`
	Error     string           `json:"error,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// RunResult is the outcome written when a run finishes.
type RunResult struct {
	Status  RunStatus        `json:"status"`
	Output  string           `json:"output,omitempty"`
	Summary *summary.Summary `json:"summary,omitempty"`
	Error   string           `json:"error,omitempty"`
}
