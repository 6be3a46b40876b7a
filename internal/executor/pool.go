package executor

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/KshitijBharambe/hygiene/internal/dag"
	"github.com/KshitijBharambe/hygiene/pkg/core"
	"github.com/KshitijBharambe/hygiene/pkg/table"
)

// task is one rule dispatched to the pool. Each task owns its slot in
// the shared results slice, so workers never contend on writes.
type task struct {
	rule  core.Rule
	index int
	wg    *sync.WaitGroup
}

// runSequential executes every group's rules inline, in plan order,
// reusing a single resource handle.
func (e *Executor) runSequential(ctx context.Context, plan *dag.Plan, dataset *table.Table) []*core.RuleExecutionResult {
	res := e.acquire(ctx, 0)
	defer e.release(res, 0)

	results := make([]*core.RuleExecutionResult, 0, plan.TotalRules())
	for _, group := range plan.Groups {
		for _, rule := range group {
			results = append(results, e.runRule(ctx, rule, dataset, res))
		}
	}
	return results
}

// runParallel fires every rule at the pool at once, ignoring groups.
func (e *Executor) runParallel(ctx context.Context, plan *dag.Plan, dataset *table.Table) []*core.RuleExecutionResult {
	results := make([]*core.RuleExecutionResult, plan.TotalRules())
	tasks, wait := e.startPool(ctx, dataset, results)

	var wg sync.WaitGroup
	index := 0
	for _, group := range plan.Groups {
		for _, rule := range group {
			wg.Add(1)
			tasks <- task{rule: rule, index: index, wg: &wg}
			index++
		}
	}
	wg.Wait()
	close(tasks)
	wait()
	return results
}

// runAdaptive executes groups strictly in sequence. Size-1 groups run
// inline in the coordinating goroutine; larger groups are dispatched to
// the pool and barriered before the next group starts.
func (e *Executor) runAdaptive(ctx context.Context, plan *dag.Plan, dataset *table.Table) []*core.RuleExecutionResult {
	results := make([]*core.RuleExecutionResult, plan.TotalRules())
	tasks, wait := e.startPool(ctx, dataset, results)

	// The inline path keeps its own resource under a worker ID beyond
	// the pool's range.
	inlineID := e.cfg.workers()
	var inlineRes core.Resource
	inlineAcquired := false

	index := 0
	for _, group := range plan.Groups {
		if len(group) == 1 {
			if !inlineAcquired {
				inlineRes = e.acquire(ctx, inlineID)
				inlineAcquired = true
			}
			results[index] = e.runRule(ctx, group[0], dataset, inlineRes)
			index++
			continue
		}

		var wg sync.WaitGroup
		for _, rule := range group {
			wg.Add(1)
			tasks <- task{rule: rule, index: index, wg: &wg}
			index++
		}
		wg.Wait()
	}

	close(tasks)
	wait()
	e.release(inlineRes, inlineID)
	return results
}

// startPool launches the worker goroutines. The returned wait function
// blocks until every worker has drained the task channel and released
// its resource.
func (e *Executor) startPool(ctx context.Context, dataset *table.Table, results []*core.RuleExecutionResult) (chan<- task, func()) {
	tasks := make(chan task)
	var g errgroup.Group
	for id := 0; id < e.cfg.workers(); id++ {
		g.Go(func() error {
			e.worker(ctx, id, tasks, dataset, results)
			return nil
		})
	}
	return tasks, func() {
		if err := g.Wait(); err != nil {
			e.logger.Warn("worker pool teardown", "error", err)
		}
	}
}

// worker drains the task channel. Its resource handle is acquired
// lazily on the first task that needs it and closed only when the
// channel is exhausted.
func (e *Executor) worker(ctx context.Context, id int, tasks <-chan task, dataset *table.Table, results []*core.RuleExecutionResult) {
	var res core.Resource
	defer func() { e.release(res, id) }()

	for t := range tasks {
		if res == nil {
			res = e.acquire(ctx, id)
		}
		results[t.index] = e.runRule(ctx, t.rule, dataset, res)
		t.wg.Done()
	}
}

// acquire returns a worker resource, or nil when there is no factory or
// acquisition fails. A nil resource only disables persistence; the
// rules still run.
func (e *Executor) acquire(ctx context.Context, workerID int) core.Resource {
	if e.factory == nil {
		return nil
	}
	res, err := e.factory.Acquire(ctx, workerID)
	if err != nil {
		e.logger.Warn("resource acquisition failed; results will not be persisted",
			"worker", workerID, "error", err)
		return nil
	}
	return res
}

func (e *Executor) release(res core.Resource, workerID int) {
	if res == nil {
		return
	}
	if err := res.Close(); err != nil {
		e.logger.Warn("closing worker resource failed", "worker", workerID, "error", err)
	}
}
