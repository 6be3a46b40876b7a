// Package dag builds and analyzes the dependency graph over a batch of
// validation rules. It detects cycles, missing and self dependencies,
// computes a priority-aware topological order, and derives the
// execution groups the parallel executor schedules.
package dag

import (
	"fmt"
	"sort"

	"github.com/KshitijBharambe/hygiene/pkg/core"
)

// Graph is a directed graph over rule IDs. An edge A -> B means
// "A depends on B", i.e. B must run before A. Graphs are built fresh
// per execution batch and discarded after planning.
type Graph struct {
	nodes      map[string]core.Rule
	deps       map[string][]string // rule -> rules it depends on
	dependents map[string][]string // rule -> rules that depend on it
	priorities map[string]int
	groups     map[string]string
}

// Build constructs a graph from the batch's rules. Declared
// dependencies are recorded as-is; referential problems are reported
// by Validate, not here.
func Build(rules []core.Rule) *Graph {
	g := &Graph{
		nodes:      make(map[string]core.Rule, len(rules)),
		deps:       make(map[string][]string, len(rules)),
		dependents: make(map[string][]string),
		priorities: make(map[string]int, len(rules)),
		groups:     make(map[string]string),
	}
	for _, r := range rules {
		g.nodes[r.ID] = r
		g.priorities[r.ID] = r.Priority
		g.groups[r.ID] = r.Group
		for _, dep := range r.DependsOn {
			if !contains(g.deps[r.ID], dep) {
				g.deps[r.ID] = append(g.deps[r.ID], dep)
				g.dependents[dep] = append(g.dependents[dep], r.ID)
			}
		}
	}
	return g
}

// NodeCount returns the number of rules in the graph.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// Rule returns the rule for an ID.
func (g *Graph) Rule(id string) (core.Rule, bool) {
	r, ok := g.nodes[id]
	return r, ok
}

// Dependencies returns the rules id depends on.
func (g *Graph) Dependencies(id string) []string { return g.deps[id] }

// Dependents returns the rules that depend on id.
func (g *Graph) Dependents(id string) []string { return g.dependents[id] }

// nodeIDs returns all rule IDs sorted for deterministic traversal.
func (g *Graph) nodeIDs() []string {
	ids := make([]string, 0, len(g.nodes))
	for id := range g.nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Cycles finds all circular dependency chains reachable in the graph.
// Each cycle is reported as the slice of rule IDs from the first
// occurrence of the repeated node to the closing edge. Multiple
// independent cycles may be reported.
func (g *Graph) Cycles() [][]string {
	visited := make(map[string]bool)
	onStack := make(map[string]bool)
	var stack []string
	var cycles [][]string

	var dfs func(id string)
	dfs = func(id string) {
		visited[id] = true
		onStack[id] = true
		stack = append(stack, id)

		for _, dep := range sortedCopy(g.deps[id]) {
			if dep == id {
				continue // self dependency, reported separately
			}
			if _, known := g.nodes[dep]; !known {
				continue // missing dependency, reported separately
			}
			if !visited[dep] {
				dfs(dep)
			} else if onStack[dep] {
				// Slice the cycle out of the current stack.
				for i, n := range stack {
					if n == dep {
						cycle := append(append([]string(nil), stack[i:]...), dep)
						cycles = append(cycles, cycle)
						break
					}
				}
			}
		}

		onStack[id] = false
		stack = stack[:len(stack)-1]
	}

	for _, id := range g.nodeIDs() {
		if !visited[id] {
			dfs(id)
		}
	}
	return cycles
}

// TopologicalSort returns rule IDs in dependency order using Kahn's
// algorithm. The ready queue is tie-broken by (priority ascending,
// group label ascending, ID ascending), re-applied every time a node
// is enqueued so priority is honored at each step.
//
// The graph must already have passed Validate; a short result here
// means a cycle slipped through and is returned as an internal error.
func (g *Graph) TopologicalSort() ([]string, error) {
	inDegree := make(map[string]int, len(g.nodes))
	for id := range g.nodes {
		inDegree[id] = 0
	}
	for id, deps := range g.deps {
		for _, dep := range deps {
			if _, known := g.nodes[dep]; known {
				inDegree[id]++
			}
		}
	}

	var ready []string
	for _, id := range g.nodeIDs() {
		if inDegree[id] == 0 {
			ready = append(ready, id)
		}
	}

	order := make([]string, 0, len(g.nodes))
	for len(ready) > 0 {
		g.sortReady(ready)
		next := ready[0]
		ready = ready[1:]
		order = append(order, next)

		for _, dependent := range sortedCopy(g.dependents[next]) {
			inDegree[dependent]--
			if inDegree[dependent] == 0 {
				ready = append(ready, dependent)
			}
		}
	}

	if len(order) != len(g.nodes) {
		return nil, fmt.Errorf("internal: topological sort emitted %d of %d rules; undetected cycle", len(order), len(g.nodes))
	}
	return order, nil
}

// sortReady orders the ready queue by priority, then group label,
// then rule ID.
func (g *Graph) sortReady(ready []string) {
	sort.Slice(ready, func(i, j int) bool {
		a, b := ready[i], ready[j]
		if g.priorities[a] != g.priorities[b] {
			return g.priorities[a] < g.priorities[b]
		}
		if g.groups[a] != g.groups[b] {
			return g.groups[a] < g.groups[b]
		}
		return a < b
	})
}

// Levels assigns every rule a dependency level where
// level(r) = 1 + max(level(dep)), converging by fixed-point iteration.
// Roots are level 0.
func (g *Graph) Levels() map[string]int {
	levels := make(map[string]int, len(g.nodes))
	for id := range g.nodes {
		levels[id] = 0
	}

	for changed := true; changed; {
		changed = false
		for id, deps := range g.deps {
			max := -1
			for _, dep := range deps {
				if _, known := g.nodes[dep]; !known {
					continue
				}
				if levels[dep] > max {
					max = levels[dep]
				}
			}
			if max >= 0 && levels[id] != max+1 {
				levels[id] = max + 1
				changed = true
			}
		}
	}
	return levels
}

// MaxDepth returns the deepest dependency level in the graph.
func (g *Graph) MaxDepth() int {
	depth := 0
	for _, l := range g.Levels() {
		if l > depth {
			depth = l
		}
	}
	return depth
}

func contains(xs []string, s string) bool {
	for _, x := range xs {
		if x == s {
			return true
		}
	}
	return false
}

func sortedCopy(xs []string) []string {
	out := append([]string(nil), xs...)
	sort.Strings(out)
	return out
}
