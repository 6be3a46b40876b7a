package executor

import (
	"context"
	"runtime"
	"time"

	"github.com/KshitijBharambe/hygiene/pkg/core"
	"github.com/KshitijBharambe/hygiene/pkg/rules"
	"github.com/KshitijBharambe/hygiene/pkg/table"
)

// resultSaver is implemented by resources that can persist results,
// such as state.Session. Resources without it are still flushed and
// rolled back on the same schedule.
type resultSaver interface {
	SaveResult(*core.RuleExecutionResult) error
}

// runRule is the per-rule wrapper shared by the sequential and parallel
// paths: time the validator, measure heap growth across it, then flush
// or roll back the worker's resource depending on the outcome.
func (e *Executor) runRule(ctx context.Context, rule core.Rule, dataset *table.Table, res core.Resource) *core.RuleExecutionResult {
	var before runtime.MemStats
	runtime.ReadMemStats(&before)
	start := time.Now()

	result := rules.Run(ctx, &rules.Context{
		Rule:           rule,
		Dataset:        dataset,
		Resource:       res,
		Sandbox:        e.sandbox,
		Logger:         e.logger.With("rule", rule.ID),
		ChunkThreshold: e.cfg.ChunkThreshold,
		ChunkSize:      e.cfg.ChunkSize,
	})

	result.ExecutionTime = time.Since(start)
	var after runtime.MemStats
	runtime.ReadMemStats(&after)
	result.MemoryDelta = int64(after.HeapAlloc) - int64(before.HeapAlloc)

	if !result.Success {
		e.logger.Warn("rule failed", "rule", rule.ID, "error", result.ErrorMessage)
	}
	e.persist(result, res)
	return result
}

// persist writes the result through the worker's resource. A failed
// rule first rolls back whatever the validator may have written, then
// the result row itself is saved so failures are queryable too.
func (e *Executor) persist(result *core.RuleExecutionResult, res core.Resource) {
	if res == nil {
		return
	}

	if !result.Success {
		if err := res.Rollback(); err != nil {
			e.logger.Warn("rollback failed", "rule", result.RuleID, "error", err)
			return
		}
	}
	if saver, ok := res.(resultSaver); ok {
		if err := saver.SaveResult(result); err != nil {
			e.logger.Warn("saving result failed", "rule", result.RuleID, "error", err)
			return
		}
	}
	if err := res.Flush(); err != nil {
		e.logger.Warn("flush failed", "rule", result.RuleID, "error", err)
	}
}
