package validators_test

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KshitijBharambe/hygiene/internal/sandbox"
	"github.com/KshitijBharambe/hygiene/pkg/core"
	"github.com/KshitijBharambe/hygiene/pkg/rules"
	"github.com/KshitijBharambe/hygiene/pkg/table"
)

func testContext(t *testing.T, rule core.Rule, tbl *table.Table) *rules.Context {
	t.Helper()
	return &rules.Context{
		Rule:    rule,
		Dataset: tbl,
		Sandbox: sandbox.NewEvaluator(sandbox.LevelMedium, nil),
		Logger:  slog.New(slog.DiscardHandler),
	}
}

func mustTable(t *testing.T, columns ...table.Column) *table.Table {
	t.Helper()
	tbl, err := table.New("test", columns...)
	require.NoError(t, err)
	return tbl
}

func run(t *testing.T, rule core.Rule, tbl *table.Table) *core.RuleExecutionResult {
	t.Helper()
	return rules.Run(context.Background(), testContext(t, rule, tbl))
}

type issueKey struct {
	row int
	col string
}

func issueKeys(issues []core.ValidationIssue) []issueKey {
	keys := make([]issueKey, len(issues))
	for i, issue := range issues {
		keys[i] = issueKey{row: issue.RowIndex, col: issue.ColumnName}
	}
	return keys
}

func TestMissingData(t *testing.T) {
	tbl := mustTable(t,
		table.Column{Name: "a", Cells: []any{int64(1), nil}},
		table.Column{Name: "b", Cells: []any{nil, int64(2)}},
	)
	rule := core.Rule{
		ID:            "r1",
		Kind:          core.KindMissingData,
		TargetColumns: []string{"a", "b"},
		Params:        map[string]any{"default_value": "0"},
	}

	result := run(t, rule, tbl)
	require.True(t, result.Success, result.ErrorMessage)
	assert.ElementsMatch(t,
		[]issueKey{{0, "b"}, {1, "a"}},
		issueKeys(result.Issues))
	assert.Equal(t, 2, result.RowsFlagged)
	assert.Equal(t, 2, result.ColsFlagged)
	assert.Equal(t, "0", result.Issues[0].SuggestedValue)
}

func TestMissingData_WhitespaceOnlyIsMissing(t *testing.T) {
	tbl := mustTable(t, table.Column{Name: "a", Cells: []any{"  ", "x"}})
	rule := core.Rule{ID: "r1", Kind: core.KindMissingData, TargetColumns: []string{"a"}}

	result := run(t, rule, tbl)
	require.True(t, result.Success)
	require.Len(t, result.Issues, 1)
	assert.Equal(t, 0, result.Issues[0].RowIndex)
}

func TestMissingData_AbsentColumnSkipped(t *testing.T) {
	tbl := mustTable(t, table.Column{Name: "a", Cells: []any{nil}})
	rule := core.Rule{ID: "r1", Kind: core.KindMissingData, TargetColumns: []string{"a", "gone"}}

	result := run(t, rule, tbl)
	require.True(t, result.Success)
	assert.Len(t, result.Issues, 1)
}

func TestStandardization_Date(t *testing.T) {
	tbl := mustTable(t, table.Column{
		Name:  "d",
		Cells: []any{"2024-01-15", "15/01/2024", "2024-1-5"},
	})
	rule := core.Rule{
		ID:            "r1",
		Kind:          core.KindStandardization,
		TargetColumns: []string{"d"},
		Params:        map[string]any{"type": "date", "format": "2006-01-02"},
	}

	result := run(t, rule, tbl)
	require.True(t, result.Success, result.ErrorMessage)
	assert.ElementsMatch(t, []issueKey{{1, "d"}, {2, "d"}}, issueKeys(result.Issues))
}

func TestStandardization_PhoneAndEmail(t *testing.T) {
	tbl := mustTable(t,
		table.Column{Name: "phone", Cells: []any{"+12025550123", "2025550123", "+1"}},
		table.Column{Name: "email", Cells: []any{"a@b.com", "nodomain", "a@nodot"}},
	)
	rule := core.Rule{
		ID:            "r1",
		Kind:          core.KindStandardization,
		TargetColumns: []string{"phone", "email"},
		Params: map[string]any{
			"column_types": map[string]any{"phone": "phone", "email": "email"},
		},
	}

	result := run(t, rule, tbl)
	require.True(t, result.Success, result.ErrorMessage)
	assert.ElementsMatch(t,
		[]issueKey{{1, "phone"}, {2, "phone"}, {1, "email"}, {2, "email"}},
		issueKeys(result.Issues))
}

func TestValueList(t *testing.T) {
	tbl := mustTable(t, table.Column{Name: "status", Cells: []any{"active", "ACTIVE", "gone", nil}})

	rule := core.Rule{
		ID:            "r1",
		Kind:          core.KindValueList,
		TargetColumns: []string{"status"},
		Params:        map[string]any{"allowed_values": []any{"active", "pending"}},
	}
	result := run(t, rule, tbl)
	require.True(t, result.Success, result.ErrorMessage)
	assert.ElementsMatch(t, []issueKey{{1, "status"}, {2, "status"}}, issueKeys(result.Issues))

	rule.Params["case_sensitive"] = false
	result = run(t, rule, tbl)
	require.True(t, result.Success)
	assert.ElementsMatch(t, []issueKey{{2, "status"}}, issueKeys(result.Issues))
}

func TestLengthRange(t *testing.T) {
	tbl := mustTable(t, table.Column{Name: "code", Cells: []any{"ab", "abcd", "abcdefgh"}})
	rule := core.Rule{
		ID:            "r1",
		Kind:          core.KindLengthRange,
		TargetColumns: []string{"code"},
		Params:        map[string]any{"min_length": 3, "max_length": 6},
	}

	result := run(t, rule, tbl)
	require.True(t, result.Success, result.ErrorMessage)
	require.Len(t, result.Issues, 2)
	assert.Equal(t, 0, result.Issues[0].RowIndex)
	assert.Equal(t, 2, result.Issues[1].RowIndex)
	assert.Equal(t, "abcdef", result.Issues[1].SuggestedValue, "over-max values suggest truncation")
}

func TestCharRestriction(t *testing.T) {
	tbl := mustTable(t, table.Column{Name: "name", Cells: []any{"New York", "R2D2", "abc-def"}})

	rule := core.Rule{
		ID:            "r1",
		Kind:          core.KindCharRestriction,
		TargetColumns: []string{"name"},
		Params:        map[string]any{"restriction": "alphabetic"},
	}
	result := run(t, rule, tbl)
	require.True(t, result.Success, result.ErrorMessage)
	assert.ElementsMatch(t, []issueKey{{1, "name"}, {2, "name"}}, issueKeys(result.Issues),
		"whitespace is tolerated for alphabetic")

	rule.Params["restriction"] = "alphanumeric"
	result = run(t, rule, tbl)
	require.True(t, result.Success)
	assert.ElementsMatch(t, []issueKey{{2, "name"}}, issueKeys(result.Issues))
}

func TestCrossField(t *testing.T) {
	tbl := mustTable(t,
		table.Column{Name: "country", Cells: []any{"US", "US", nil}},
		table.Column{Name: "state", Cells: []any{"CA", nil, nil}},
		table.Column{Name: "net", Cells: []any{float64(90), float64(90), float64(90)}},
		table.Column{Name: "tax", Cells: []any{float64(10), float64(10), float64(10)}},
		table.Column{Name: "total", Cells: []any{float64(100), float64(100.5), float64(100.005)}},
	)
	rule := core.Rule{
		ID:   "r1",
		Kind: core.KindCrossField,
		Params: map[string]any{
			"checks": []any{
				map[string]any{"type": "dependency", "if_field": "country", "then_field": "state"},
				map[string]any{
					"type":         "sum_check",
					"fields":       []any{"net", "tax"},
					"target_field": "total",
				},
			},
		},
	}

	result := run(t, rule, tbl)
	require.True(t, result.Success, result.ErrorMessage)
	assert.ElementsMatch(t,
		[]issueKey{{1, "state"}, {1, "net|tax"}},
		issueKeys(result.Issues),
		"row 2 sum is within tolerance, row 0 is exact")
}

func TestCrossField_MutualExclusionAndConditional(t *testing.T) {
	tbl := mustTable(t,
		table.Column{Name: "cash", Cells: []any{"x", nil, "x"}},
		table.Column{Name: "card", Cells: []any{"y", "y", nil}},
		table.Column{Name: "kind", Cells: []any{"card", "card", "cash"}},
	)
	rule := core.Rule{
		ID:   "r1",
		Kind: core.KindCrossField,
		Params: map[string]any{
			"checks": []any{
				map[string]any{"type": "mutual_exclusion", "fields": []any{"cash", "card"}},
				map[string]any{"type": "conditional", "if_field": "kind", "equals": "card", "then_field": "card"},
			},
		},
	}

	result := run(t, rule, tbl)
	require.True(t, result.Success, result.ErrorMessage)
	assert.ElementsMatch(t, []issueKey{{0, "cash|card"}}, issueKeys(result.Issues))
}

func TestRegex(t *testing.T) {
	tbl := mustTable(t, table.Column{Name: "id", Cells: []any{"123", "12a", "", nil}})
	rule := core.Rule{
		ID:            "r1",
		Kind:          core.KindRegex,
		TargetColumns: []string{"id"},
		Params: map[string]any{
			"patterns": []any{
				map[string]any{"name": "digits", "pattern": "^[0-9]+$", "must_match": true},
			},
		},
	}

	result := run(t, rule, tbl)
	require.True(t, result.Success, result.ErrorMessage)
	assert.ElementsMatch(t, []issueKey{{1, "id"}, {2, "id"}}, issueKeys(result.Issues),
		"empty string flagged, null skipped")
}

func TestRegex_InvalidPatternSkipped(t *testing.T) {
	tbl := mustTable(t, table.Column{Name: "id", Cells: []any{"12a"}})
	rule := core.Rule{
		ID:            "r1",
		Kind:          core.KindRegex,
		TargetColumns: []string{"id"},
		Params: map[string]any{
			"patterns": []any{
				map[string]any{"name": "bad", "pattern": "([", "must_match": true},
				map[string]any{"name": "digits", "pattern": "^[0-9]+$", "must_match": true},
			},
		},
	}

	result := run(t, rule, tbl)
	require.True(t, result.Success, "invalid patterns are skipped, not fatal")
	assert.Len(t, result.Issues, 1)
}

func TestCustom_Expression(t *testing.T) {
	tbl := mustTable(t, table.Column{Name: "age", Cells: []any{int64(30), int64(10), nil}})
	rule := core.Rule{
		ID:            "r1",
		Kind:          core.KindCustom,
		TargetColumns: []string{"age"},
		Params: map[string]any{
			"mode":       "python_expression",
			"expression": "age > 18",
		},
	}

	result := run(t, rule, tbl)
	require.True(t, result.Success, result.ErrorMessage)
	assert.ElementsMatch(t, []issueKey{{1, "age"}}, issueKeys(result.Issues),
		"null comparison errors skip the row")
}

func TestCustom_ExpressionSecurityViolationFailsRule(t *testing.T) {
	tbl := mustTable(t, table.Column{Name: "age", Cells: []any{int64(1)}})
	rule := core.Rule{
		ID:   "r1",
		Kind: core.KindCustom,
		Params: map[string]any{
			"mode":       "python_expression",
			"expression": "__import__('os')",
		},
	}

	result := run(t, rule, tbl)
	assert.False(t, result.Success, "a denied expression fails the rule up front")
	assert.Contains(t, result.ErrorMessage, "__import__")
	assert.Empty(t, result.Issues, "no rows are evaluated once the gate rejects")
}

func TestCustom_LookupTable(t *testing.T) {
	tbl := mustTable(t,
		table.Column{Name: "code", Cells: []any{"US", "FR", "XX"}},
		table.Column{Name: "name", Cells: []any{"United States", "Italy", "Nowhere"}},
	)
	rule := core.Rule{
		ID:   "r1",
		Kind: core.KindCustom,
		Params: map[string]any{
			"mode":          "lookup_table",
			"source_column": "code",
			"target_column": "name",
			"mapping": map[string]any{
				"US": "United States",
				"FR": "France",
			},
		},
	}

	result := run(t, rule, tbl)
	require.True(t, result.Success, result.ErrorMessage)
	require.Len(t, result.Issues, 1)
	assert.Equal(t, 1, result.Issues[0].RowIndex)
	assert.Equal(t, "France", result.Issues[0].SuggestedValue)
}

func TestCustom_FunctionModeUnsupported(t *testing.T) {
	tbl := mustTable(t, table.Column{Name: "a", Cells: []any{int64(1)}})
	rule := core.Rule{
		ID:     "r1",
		Kind:   core.KindCustom,
		Params: map[string]any{"mode": "custom_function"},
	}

	result := run(t, rule, tbl)
	assert.False(t, result.Success)
	assert.Contains(t, result.ErrorMessage, "not supported")
}

func TestOutlier_IQR(t *testing.T) {
	cells := []any{
		float64(10), float64(11), float64(12), float64(11), float64(10),
		float64(12), float64(11), float64(10), float64(12), float64(500),
	}
	tbl := mustTable(t, table.Column{Name: "amount", Cells: cells})
	rule := core.Rule{
		ID:            "r1",
		Kind:          core.KindOutlier,
		TargetColumns: []string{"amount"},
		Params:        map[string]any{"method": "iqr"},
	}

	result := run(t, rule, tbl)
	require.True(t, result.Success, result.ErrorMessage)
	require.Len(t, result.Issues, 1)
	assert.Equal(t, 9, result.Issues[0].RowIndex)
	assert.Equal(t, "outlier_iqr", result.Issues[0].Category)
}

func TestOutlier_TooFewSamplesSkipped(t *testing.T) {
	tbl := mustTable(t, table.Column{Name: "a", Cells: []any{float64(1), float64(2)}})
	rule := core.Rule{
		ID:            "r1",
		Kind:          core.KindOutlier,
		TargetColumns: []string{"a"},
		Params:        map[string]any{"method": "zscore"},
	}

	result := run(t, rule, tbl)
	require.True(t, result.Success)
	assert.Empty(t, result.Issues)
}

func TestDistribution_SkewnessFlagged(t *testing.T) {
	cells := make([]any, 0, 20)
	for i := 0; i < 19; i++ {
		cells = append(cells, float64(i%3))
	}
	cells = append(cells, float64(1000))
	tbl := mustTable(t, table.Column{Name: "v", Cells: cells})
	rule := core.Rule{
		ID:            "r1",
		Kind:          core.KindDistribution,
		TargetColumns: []string{"v"},
		Params:        map[string]any{"checks": []any{"skewness"}, "skew_threshold": 1.0},
	}

	result := run(t, rule, tbl)
	require.True(t, result.Success, result.ErrorMessage)
	require.Len(t, result.Issues, 1)
	assert.Equal(t, core.RowIndexNone, result.Issues[0].RowIndex)
	assert.Equal(t, "distribution_skewness", result.Issues[0].Category)
}

func TestCorrelation_PerfectPairFlagged(t *testing.T) {
	xs := make([]any, 20)
	ys := make([]any, 20)
	zs := make([]any, 20)
	for i := range xs {
		xs[i] = float64(i)
		ys[i] = float64(2 * i)
		zs[i] = float64((i*37 + 11) % 13)
	}
	tbl := mustTable(t,
		table.Column{Name: "x", Cells: xs},
		table.Column{Name: "y", Cells: ys},
		table.Column{Name: "z", Cells: zs},
	)
	rule := core.Rule{
		ID:            "r1",
		Kind:          core.KindCorrelation,
		TargetColumns: []string{"x", "y", "z"},
		Params:        map[string]any{"method": "pearson", "threshold": 0.95},
	}

	result := run(t, rule, tbl)
	require.True(t, result.Success, result.ErrorMessage)
	require.Len(t, result.Issues, 1)
	assert.Equal(t, "x|y", result.Issues[0].ColumnName)
	assert.Equal(t, core.RowIndexNone, result.Issues[0].RowIndex)
}

func TestUnknownKindFailsRule(t *testing.T) {
	tbl := mustTable(t, table.Column{Name: "a", Cells: []any{int64(1)}})
	rule := core.Rule{ID: "r1", Kind: core.RuleKind("nope")}

	result := run(t, rule, tbl)
	assert.False(t, result.Success)
	assert.Contains(t, result.ErrorMessage, "unknown validator kind")
}
