package dag

import (
	"log/slog"

	"github.com/KshitijBharambe/hygiene/pkg/core"
)

// Plan is the validated execution plan for one batch: the topological
// order, the parallel-safe groups, and the dependency levels. Groups
// execute strictly in sequence; rules within a group have no
// dependencies on each other and may run concurrently.
type Plan struct {
	// Order is the full priority-aware topological order.
	Order []string

	// Groups lists the execution groups in dependency order. Each
	// group holds the full rule definitions, ordered by the same
	// tie-break as the topological sort.
	Groups [][]core.Rule

	// Levels maps every rule to its dependency level.
	Levels map[string]int

	// MaxDepth is the deepest dependency level.
	MaxDepth int
}

// TotalRules returns the number of rules across all groups.
func (p *Plan) TotalRules() int {
	n := 0
	for _, g := range p.Groups {
		n += len(g)
	}
	return n
}

// Planner turns a rule batch into a Plan.
type Planner struct {
	logger *slog.Logger
}

// NewPlanner creates a planner. A nil logger discards output.
func NewPlanner(logger *slog.Logger) *Planner {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Planner{logger: logger}
}

// Plan validates the batch's dependency graph and derives the
// execution plan. Graph violations are fatal and returned as a
// *DependencyError; no partial plan is produced.
func (p *Planner) Plan(rules []core.Rule) (*Plan, error) {
	g := Build(rules)

	if derr := g.Validate(); derr != nil {
		p.logger.Error("dependency validation failed",
			"cycles", len(derr.Cycles),
			"missing", len(derr.Missing),
			"self", len(derr.SelfDeps))
		return nil, derr
	}

	order, err := g.TopologicalSort()
	if err != nil {
		// Unreachable after Validate; treat as an internal invariant
		// violation.
		p.logger.Error("topological sort failed after validation", "error", err)
		return nil, err
	}

	levels := g.Levels()
	plan := &Plan{
		Order:    order,
		Groups:   p.executionGroups(g),
		Levels:   levels,
		MaxDepth: g.MaxDepth(),
	}

	p.logger.Debug("execution plan ready",
		"rules", len(order),
		"groups", len(plan.Groups),
		"max_depth", plan.MaxDepth)
	return plan, nil
}

// executionGroups produces the maximal-parallelism grouping:
// repeatedly emit the set of unprocessed rules whose dependencies are
// all processed. If an iteration cannot make progress (should not
// happen after validation) the remaining rules are dumped into one
// final group and a warning is logged.
func (p *Planner) executionGroups(g *Graph) [][]core.Rule {
	processed := make(map[string]bool, g.NodeCount())
	remaining := g.nodeIDs()
	var groups [][]core.Rule

	for len(remaining) > 0 {
		var readyIDs, still []string
		for _, id := range remaining {
			ready := true
			for _, dep := range g.deps[id] {
				if !processed[dep] {
					ready = false
					break
				}
			}
			if ready {
				readyIDs = append(readyIDs, id)
			} else {
				still = append(still, id)
			}
		}

		if len(readyIDs) == 0 {
			p.logger.Warn("no schedulable rules in grouping pass; forcing remaining rules into one group",
				"remaining", len(still))
			readyIDs = still
			still = nil
		}

		g.sortReady(readyIDs)
		group := make([]core.Rule, len(readyIDs))
		for i, id := range readyIDs {
			group[i] = g.nodes[id]
			processed[id] = true
		}
		groups = append(groups, group)
		remaining = still
	}

	return groups
}
