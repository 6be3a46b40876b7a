package dag

import (
	"testing"

	"github.com/KshitijBharambe/hygiene/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rule(id string, deps ...string) core.Rule {
	return core.Rule{ID: id, Kind: core.KindMissingData, DependsOn: deps}
}

func TestValidate_Clean(t *testing.T) {
	g := Build([]core.Rule{rule("a"), rule("b", "a"), rule("c", "a", "b")})
	assert.Nil(t, g.Validate())
}

func TestValidate_Cycle(t *testing.T) {
	g := Build([]core.Rule{rule("a", "c"), rule("b", "a"), rule("c", "b")})
	derr := g.Validate()
	require.NotNil(t, derr)
	require.Len(t, derr.Cycles, 1)

	// The reported chain must be a real cycle: each rule depends on
	// the next, closing on itself.
	cycle := derr.Cycles[0]
	require.GreaterOrEqual(t, len(cycle), 2)
	assert.Equal(t, cycle[0], cycle[len(cycle)-1])
	for i := 0; i+1 < len(cycle); i++ {
		assert.Contains(t, g.Dependencies(cycle[i]), cycle[i+1],
			"edge %s -> %s missing", cycle[i], cycle[i+1])
	}
}

func TestValidate_MultipleCycles(t *testing.T) {
	g := Build([]core.Rule{
		rule("a", "b"), rule("b", "a"),
		rule("x", "y"), rule("y", "x"),
	})
	derr := g.Validate()
	require.NotNil(t, derr)
	assert.Len(t, derr.Cycles, 2)
}

func TestValidate_MissingAndSelf(t *testing.T) {
	g := Build([]core.Rule{rule("a", "ghost"), rule("b", "b")})
	derr := g.Validate()
	require.NotNil(t, derr)
	assert.Equal(t, []MissingRef{{RuleID: "a", Target: "ghost"}}, derr.Missing)
	assert.Equal(t, []string{"b"}, derr.SelfDeps)
	assert.Empty(t, derr.Cycles)

	// All classes appear in a single message.
	msg := derr.Error()
	assert.Contains(t, msg, "missing dependencies")
	assert.Contains(t, msg, "self dependencies")
}

func TestTopologicalSort_Valid(t *testing.T) {
	rules := []core.Rule{
		rule("d", "b", "c"),
		rule("b", "a"),
		rule("c", "a"),
		rule("a"),
	}
	g := Build(rules)
	order, err := g.TopologicalSort()
	require.NoError(t, err)
	require.Len(t, order, 4)

	pos := make(map[string]int, len(order))
	for i, id := range order {
		pos[id] = i
	}
	for _, r := range rules {
		for _, dep := range r.DependsOn {
			assert.Less(t, pos[dep], pos[r.ID], "%s must come after %s", r.ID, dep)
		}
	}
}

func TestTopologicalSort_PriorityTieBreak(t *testing.T) {
	// Three independent roots: priority decides, re-applied at every
	// enqueue. "late" becomes ready only after "first" completes but
	// must still jump ahead of lower-priority ready nodes.
	rules := []core.Rule{
		{ID: "first", Priority: 0},
		{ID: "slow", Priority: 9},
		{ID: "late", Priority: 1, DependsOn: []string{"first"}},
	}
	order, err := Build(rules).TopologicalSort()
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "late", "slow"}, order)
}

func TestTopologicalSort_GroupLabelTieBreak(t *testing.T) {
	rules := []core.Rule{
		{ID: "zz", Priority: 1, Group: "alpha"},
		{ID: "aa", Priority: 1, Group: "beta"},
	}
	order, err := Build(rules).TopologicalSort()
	require.NoError(t, err)
	assert.Equal(t, []string{"zz", "aa"}, order, "group label breaks priority ties")
}

func TestLevels(t *testing.T) {
	g := Build([]core.Rule{
		rule("a"),
		rule("b", "a"),
		rule("c", "a"),
		rule("d", "b", "c"),
	})
	levels := g.Levels()
	assert.Equal(t, 0, levels["a"])
	assert.Equal(t, 1, levels["b"])
	assert.Equal(t, 1, levels["c"])
	assert.Equal(t, 2, levels["d"])
	assert.Equal(t, 2, g.MaxDepth())
}

func TestPlan_Groups(t *testing.T) {
	p := NewPlanner(nil)
	plan, err := p.Plan([]core.Rule{
		rule("a"),
		rule("b", "a"),
		rule("c", "a"),
		rule("d", "b", "c"),
	})
	require.NoError(t, err)

	require.Len(t, plan.Groups, 3)
	assert.Equal(t, []string{"a"}, groupIDs(plan.Groups[0]))
	assert.ElementsMatch(t, []string{"b", "c"}, groupIDs(plan.Groups[1]))
	assert.Equal(t, []string{"d"}, groupIDs(plan.Groups[2]))
	assert.Equal(t, 4, plan.TotalRules())
}

func TestPlan_GroupConcatenationIsTopological(t *testing.T) {
	rules := []core.Rule{
		rule("a"),
		rule("b", "a"),
		rule("c", "b"),
		rule("d", "a"),
		rule("e", "c", "d"),
		rule("f"),
	}
	plan, err := NewPlanner(nil).Plan(rules)
	require.NoError(t, err)

	var flat []string
	for _, g := range plan.Groups {
		flat = append(flat, groupIDs(g)...)
	}
	pos := make(map[string]int)
	for i, id := range flat {
		pos[id] = i
	}
	for _, r := range rules {
		for _, dep := range r.DependsOn {
			assert.Less(t, pos[dep], pos[r.ID])
		}
	}
}

func TestPlan_DependencyErrorIsFatal(t *testing.T) {
	plan, err := NewPlanner(nil).Plan([]core.Rule{rule("a", "b"), rule("b", "a")})
	assert.Nil(t, plan)
	var derr *DependencyError
	require.ErrorAs(t, err, &derr)
	assert.NotEmpty(t, derr.Cycles)
}

func groupIDs(rules []core.Rule) []string {
	ids := make([]string, len(rules))
	for i, r := range rules {
		ids[i] = r.ID
	}
	return ids
}
