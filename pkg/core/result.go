package core

import "time"

// RuleExecutionResult records the outcome of one rule in one execution.
// It is created when the rule starts, finalized exactly once on
// completion or failure, and immutable afterward.
type RuleExecutionResult struct {
	RuleID string

	// Issues found by the validator. Empty when the rule failed.
	Issues []ValidationIssue

	// RowsFlagged is the number of distinct row indexes across Issues,
	// excluding the column-level sentinel. Computed over this rule's
	// issues only.
	RowsFlagged int

	// ColsFlagged is the number of distinct column names across Issues.
	ColsFlagged int

	// Success is false when the rule itself failed (unknown kind, bad
	// params, validator error). A rule that runs cleanly and finds
	// issues is still a success.
	Success bool

	// ErrorMessage holds the failure reason when Success is false.
	ErrorMessage string

	// ExecutionTime is the wall-clock duration of the validator call.
	ExecutionTime time.Duration

	// MemoryDelta is the heap growth observed across the validator
	// call, in bytes. May be negative after a GC cycle.
	MemoryDelta int64
}

// ExecutionStats aggregates a whole batch after all groups complete.
type ExecutionStats struct {
	TotalRules      int
	SuccessfulRules int
	FailedRules     int
	TotalIssues     int

	// PeakMemoryDelta is the largest per-rule MemoryDelta observed.
	PeakMemoryDelta int64

	// WallClock is the end-to-end batch duration.
	WallClock time.Duration

	// ParallelEfficiency is the sum of per-rule execution times divided
	// by WallClock. Values above 1 indicate speedup from parallelism.
	ParallelEfficiency float64

	// Mode is the execution mode actually used ("sequential",
	// "parallel", "adaptive").
	Mode string

	// Groups is the number of dependency groups executed.
	Groups int

	// MaxDependencyDepth is the deepest dependency level in the batch.
	MaxDependencyDepth int
}
