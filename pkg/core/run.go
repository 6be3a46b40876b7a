package core

import "time"

// RunStatus is the lifecycle state of a validation run.
type RunStatus string

// Run statuses.
const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// Run is one persisted execution of a rule batch against a dataset.
type Run struct {
	ID          string
	DatasetName string
	Mode        string
	Status      RunStatus
	Error       string
	StartedAt   time.Time
	CompletedAt *time.Time
}
