// Package store persists run records.
package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/mangroves/internal/model"
)

// ErrNotFound is returned when a run does not exist.
var ErrNotFound = eris.New("store: run not found")

// DefaultListLimit caps ListRuns when no limit is given.
const DefaultListLimit = 100

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	Status model.RunStatus `json:"status,omitempty"`
	TileID string          `json:"tile_id,omitempty"`
	Year   string          `json:"year,omitempty"`
	Limit  int             `json:"limit,omitempty"`
	Offset int             `json:"offset,omitempty"`
}

func (f RunFilter) limit() int {
	if f.Limit <= 0 {
		return DefaultListLimit
	}
	return f.Limit
}

// Store defines the persistence interface for classification runs.
type Store interface {
	CreateRun(ctx context.Context, task model.Task) (*model.Run, error)
	FinishRun(ctx context.Context, runID string, result model.RunResult) error
	GetRun(ctx context.Context, runID string) (*model.Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error)

	Migrate(ctx context.Context) error
	Close() error
}

func validateResult(result model.RunResult) error {
	if !result.Status.Terminal() {
		return eris.Errorf("store: %q is not a final status", result.Status)
	}
	return nil
}
