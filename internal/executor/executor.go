// Package executor runs a validated execution plan against a dataset.
// It owns the sequential/parallel/adaptive mode decision, the bounded
// worker pool, and per-worker resource handles; validator semantics
// live in pkg/rules.
package executor

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"strings"
	"time"

	"github.com/KshitijBharambe/hygiene/internal/dag"
	"github.com/KshitijBharambe/hygiene/internal/sandbox"
	"github.com/KshitijBharambe/hygiene/pkg/core"
	"github.com/KshitijBharambe/hygiene/pkg/table"
)

// Mode selects the execution strategy.
type Mode string

// Execution modes.
const (
	// ModeSequential runs every rule inline, one at a time.
	ModeSequential Mode = "sequential"

	// ModeParallel ignores dependency groups and dispatches every rule
	// to the pool at once. Only safe when the caller has already proven
	// the rules independent.
	ModeParallel Mode = "parallel"

	// ModeAdaptive honors dependency groups and decides per batch
	// whether parallelism is worth the coordination overhead.
	ModeAdaptive Mode = "adaptive"
)

// ParseMode converts a string to a Mode.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeSequential:
		return ModeSequential, nil
	case ModeParallel:
		return ModeParallel, nil
	case ModeAdaptive, Mode(""):
		return ModeAdaptive, nil
	default:
		return "", fmt.Errorf("unknown execution mode %q", s)
	}
}

// Adaptive gate defaults: parallelism only pays off for batches of at
// least MinRulesForParallel rules over at least MinRowsForParallel rows
// while heap usage stays under the ceiling.
const (
	MinRulesForParallel  = 3
	MinRowsForParallel   = 1000
	DefaultMemoryCeiling = 1000 // MB
)

// Config tunes the executor.
type Config struct {
	Mode Mode

	// Workers bounds the pool size. Zero means min(4, NumCPU+1).
	Workers int

	// MemoryCeilingMB disables adaptive parallelism when current heap
	// usage exceeds it. Zero means DefaultMemoryCeiling.
	MemoryCeilingMB int

	// Chunking overrides passed through to the rule framework.
	// Zero values keep the framework defaults.
	ChunkThreshold int
	ChunkSize      int
}

func (c Config) workers() int {
	if c.Workers > 0 {
		return c.Workers
	}
	if n := runtime.NumCPU() + 1; n < 4 {
		return n
	}
	return 4
}

func (c Config) memoryCeilingMB() int {
	if c.MemoryCeilingMB > 0 {
		return c.MemoryCeilingMB
	}
	return DefaultMemoryCeiling
}

// Executor runs plans. It is safe to reuse across runs.
type Executor struct {
	cfg     Config
	sandbox *sandbox.Evaluator
	factory core.ResourceFactory
	logger  *slog.Logger
}

// New creates an executor. factory may be nil when results are not
// persisted; logger may be nil to discard output.
func New(cfg Config, sb *sandbox.Evaluator, factory core.ResourceFactory, logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Executor{cfg: cfg, sandbox: sb, factory: factory, logger: logger}
}

// Execute runs every rule in the plan against the dataset. Per-rule
// failures are absorbed into their results; the returned error is
// reserved for executor-level failures such as context cancellation
// before work starts. Every rule in the plan appears exactly once in
// the returned results.
func (e *Executor) Execute(ctx context.Context, plan *dag.Plan, dataset *table.Table) ([]*core.RuleExecutionResult, *core.ExecutionStats, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	start := time.Now()
	mode := e.effectiveMode(plan, dataset)
	e.logger.Info("executing plan",
		"rules", plan.TotalRules(),
		"groups", len(plan.Groups),
		"mode", string(mode),
		"rows", dataset.NumRows())

	var results []*core.RuleExecutionResult
	switch mode {
	case ModeSequential:
		results = e.runSequential(ctx, plan, dataset)
	case ModeParallel:
		results = e.runParallel(ctx, plan, dataset)
	default:
		results = e.runAdaptive(ctx, plan, dataset)
	}

	stats := buildStats(results, plan, mode, time.Since(start))
	e.logger.Info("plan complete",
		"succeeded", stats.SuccessfulRules,
		"failed", stats.FailedRules,
		"issues", stats.TotalIssues,
		"wall_clock", stats.WallClock)
	return results, stats, nil
}

// effectiveMode resolves the adaptive gate: small or memory-pressured
// batches fall back to sequential regardless of grouping.
func (e *Executor) effectiveMode(plan *dag.Plan, dataset *table.Table) Mode {
	mode := e.cfg.Mode
	if mode == "" {
		mode = ModeAdaptive
	}
	if mode != ModeAdaptive {
		return mode
	}

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	heapMB := int(mem.HeapAlloc / (1 << 20))

	if plan.TotalRules() < MinRulesForParallel ||
		dataset.NumRows() < MinRowsForParallel ||
		heapMB >= e.cfg.memoryCeilingMB() {
		e.logger.Debug("adaptive gate chose sequential",
			"rules", plan.TotalRules(),
			"rows", dataset.NumRows(),
			"heap_mb", heapMB)
		return ModeSequential
	}
	return ModeAdaptive
}

func buildStats(results []*core.RuleExecutionResult, plan *dag.Plan, mode Mode, wallClock time.Duration) *core.ExecutionStats {
	stats := &core.ExecutionStats{
		TotalRules:         len(results),
		Mode:               string(mode),
		Groups:             len(plan.Groups),
		MaxDependencyDepth: plan.MaxDepth,
		WallClock:          wallClock,
	}

	var busy time.Duration
	for _, r := range results {
		if r.Success {
			stats.SuccessfulRules++
		} else {
			stats.FailedRules++
		}
		stats.TotalIssues += len(r.Issues)
		if r.MemoryDelta > stats.PeakMemoryDelta {
			stats.PeakMemoryDelta = r.MemoryDelta
		}
		busy += r.ExecutionTime
	}
	if wallClock > 0 {
		stats.ParallelEfficiency = busy.Seconds() / wallClock.Seconds()
	}
	return stats
}
