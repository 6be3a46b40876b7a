// Package state persists validation runs, per-rule results, and issues
// to an embedded SQLite database. Workers write through Session handles
// so each worker owns its own connection and transaction.
package state

import (
	"github.com/KshitijBharambe/hygiene/pkg/core"
)

// Store is the persistence interface for validation runs.
type Store interface {
	// Open opens the database at path (":memory:" supported) and
	// applies the schema.
	Open(path string) error
	Close() error

	// CreateRun records the start of a validation run.
	CreateRun(datasetName, mode string) (*core.Run, error)

	// CompleteRun finalizes a run with its terminal status.
	CompleteRun(id string, status core.RunStatus, errMsg string) error

	// GetRun retrieves a run by ID.
	GetRun(id string) (*core.Run, error)

	// ListRuns returns runs most recent first, up to limit.
	ListRuns(limit int) ([]*core.Run, error)

	// ResultsForRun returns the per-rule results of a run, issues included.
	ResultsForRun(runID string) ([]*core.RuleExecutionResult, error)

	// Sessions returns a factory producing per-worker write handles
	// bound to the given run.
	Sessions(runID string) core.ResourceFactory
}
