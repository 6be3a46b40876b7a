package dag

import (
	"fmt"
	"strings"
)

// MissingRef records a dependency edge pointing at a rule that is not
// in the batch.
type MissingRef struct {
	RuleID string
	Target string
}

// DependencyError is the fatal planning error produced when the
// dependency graph is invalid. All three violation classes are
// collected and reported together; no rules execute against an
// invalid graph.
type DependencyError struct {
	Cycles   [][]string
	Missing  []MissingRef
	SelfDeps []string
}

// Error describes every violation class in one message.
func (e *DependencyError) Error() string {
	var parts []string
	if len(e.Cycles) > 0 {
		rendered := make([]string, len(e.Cycles))
		for i, c := range e.Cycles {
			rendered[i] = strings.Join(c, " -> ")
		}
		parts = append(parts, fmt.Sprintf("circular dependencies: %s", strings.Join(rendered, "; ")))
	}
	if len(e.Missing) > 0 {
		rendered := make([]string, len(e.Missing))
		for i, m := range e.Missing {
			rendered[i] = fmt.Sprintf("%s -> %s", m.RuleID, m.Target)
		}
		parts = append(parts, fmt.Sprintf("missing dependencies: %s", strings.Join(rendered, ", ")))
	}
	if len(e.SelfDeps) > 0 {
		parts = append(parts, fmt.Sprintf("self dependencies: %s", strings.Join(e.SelfDeps, ", ")))
	}
	if len(parts) == 0 {
		return "invalid dependency graph"
	}
	return "invalid dependency graph: " + strings.Join(parts, "; ")
}

// Validate checks the graph for circular, missing, and self
// dependencies. All three classes are evaluated together; a non-nil
// result carries everything found.
func (g *Graph) Validate() *DependencyError {
	derr := &DependencyError{}

	for _, id := range g.nodeIDs() {
		for _, dep := range sortedCopy(g.deps[id]) {
			if dep == id {
				derr.SelfDeps = append(derr.SelfDeps, id)
				continue
			}
			if _, known := g.nodes[dep]; !known {
				derr.Missing = append(derr.Missing, MissingRef{RuleID: id, Target: dep})
			}
		}
	}

	derr.Cycles = g.Cycles()

	if len(derr.Cycles) == 0 && len(derr.Missing) == 0 && len(derr.SelfDeps) == 0 {
		return nil
	}
	return derr
}
