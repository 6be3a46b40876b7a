package validators

import (
	"errors"
	"fmt"

	"github.com/KshitijBharambe/hygiene/pkg/core"
	"github.com/KshitijBharambe/hygiene/pkg/rules"
	"github.com/KshitijBharambe/hygiene/pkg/table"
)

func init() {
	rules.Register(rules.KindDef{
		Kind:        core.KindCustom,
		Description: "Runs sandboxed expressions or lookup-table checks against each row.",
		New:         newCustom,
	})
}

// ErrCustomFunctionUnsupported reports the custom_function extension
// point, which has no registry behind it yet.
var ErrCustomFunctionUnsupported = errors.New("custom_function mode is not supported")

type customParams struct {
	Mode       string `param:"mode"`
	Expression string `param:"expression"`

	// lookup_table mode
	SourceColumn string            `param:"source_column"`
	TargetColumn string            `param:"target_column"`
	Mapping      map[string]string `param:"mapping"`
}

type custom struct {
	ctx    *rules.Context
	params customParams
}

func newCustom(ctx *rules.Context) (rules.Validator, error) {
	var p customParams
	if err := rules.DecodeParams(ctx.Rule, &p); err != nil {
		return nil, err
	}

	switch p.Mode {
	case "python_expression":
		if p.Expression == "" {
			return nil, &rules.ParamError{RuleID: ctx.Rule.ID, Param: "expression", Reason: "must not be empty"}
		}
		if ctx.Sandbox == nil {
			return nil, &rules.ParamError{RuleID: ctx.Rule.ID, Param: "mode", Reason: "no sandbox available for expression evaluation"}
		}
		// An expression that fails the static security gate would fail on
		// every row, so it counts as a malformed rule rather than a
		// stream of skipped rows.
		if err := ctx.Sandbox.Check(p.Expression); err != nil {
			return nil, fmt.Errorf("rule %s: %w", ctx.Rule.ID, err)
		}
	case "lookup_table":
		if p.SourceColumn == "" || p.TargetColumn == "" || len(p.Mapping) == 0 {
			return nil, &rules.ParamError{
				RuleID: ctx.Rule.ID,
				Param:  "mapping",
				Reason: "lookup_table requires source_column, target_column, and a non-empty mapping",
			}
		}
	case "custom_function":
		return nil, ErrCustomFunctionUnsupported
	default:
		return nil, &rules.ParamError{
			RuleID: ctx.Rule.ID,
			Param:  "mode",
			Reason: fmt.Sprintf("unsupported mode %q", p.Mode),
		}
	}

	return &custom{ctx: ctx, params: p}, nil
}

func (v *custom) Validate(start, end int) ([]core.ValidationIssue, error) {
	switch v.params.Mode {
	case "python_expression":
		return v.validateExpression(start, end)
	case "lookup_table":
		return v.validateLookup(start, end)
	}
	return nil, nil
}

// validateExpression flags rows for which the expression is falsy.
// Evaluation errors of any kind skip the row rather than failing the
// rule, so one pathological row cannot abort a batch.
func (v *custom) validateExpression(start, end int) ([]core.ValidationIssue, error) {
	var issues []core.ValidationIssue
	for row := start; row < end; row++ {
		ok, err := v.ctx.Sandbox.EvalRow(v.params.Expression, v.ctx.Dataset.Row(row))
		if err != nil {
			v.ctx.Logger.Debug("expression failed for row, skipping",
				"rule", v.ctx.Rule.ID, "row", row, "error", err)
			continue
		}
		if ok {
			continue
		}
		issues = append(issues, core.ValidationIssue{
			RowIndex:   row,
			ColumnName: firstOr(v.ctx.Rule.TargetColumns, ""),
			Message:    fmt.Sprintf("expression %q is false", v.params.Expression),
			Category:   "custom_expression",
		})
	}
	return issues, nil
}

func (v *custom) validateLookup(start, end int) ([]core.ValidationIssue, error) {
	var issues []core.ValidationIssue
	for row := start; row < end; row++ {
		srcCell, _ := v.ctx.Dataset.Cell(row, v.params.SourceColumn)
		if table.IsMissing(srcCell) {
			continue
		}
		expected, ok := v.params.Mapping[table.AsString(srcCell)]
		if !ok {
			continue
		}
		actualCell, _ := v.ctx.Dataset.Cell(row, v.params.TargetColumn)
		actual := table.AsString(actualCell)
		if actual == expected {
			continue
		}
		issues = append(issues, core.ValidationIssue{
			RowIndex:       row,
			ColumnName:     v.params.TargetColumn,
			CurrentValue:   actual,
			SuggestedValue: expected,
			Message: fmt.Sprintf("%s must be %q when %s is %q",
				v.params.TargetColumn, expected, v.params.SourceColumn, table.AsString(srcCell)),
			Category: "custom_lookup",
		})
	}
	return issues, nil
}

func firstOr(values []string, fallback string) string {
	if len(values) > 0 {
		return values[0]
	}
	return fallback
}
