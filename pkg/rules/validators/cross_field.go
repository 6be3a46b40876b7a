package validators

import (
	"fmt"
	"math"
	"strings"

	"github.com/KshitijBharambe/hygiene/pkg/core"
	"github.com/KshitijBharambe/hygiene/pkg/rules"
	"github.com/KshitijBharambe/hygiene/pkg/table"
)

func init() {
	rules.Register(rules.KindDef{
		Kind:        core.KindCrossField,
		Description: "Evaluates per-row consistency checks across multiple columns.",
		New:         newCrossField,
	})
}

// defaultSumTolerance is the numeric slack allowed by sum_check.
const defaultSumTolerance = 0.01

type crossFieldCheck struct {
	Type string `param:"type"`

	// dependency and conditional
	IfField   string `param:"if_field"`
	ThenField string `param:"then_field"`

	// conditional
	Equals     string `param:"equals"`
	ThenEquals string `param:"then_equals"`

	// mutual_exclusion and sum_check
	Fields []string `param:"fields"`

	// sum_check
	TargetField string  `param:"target_field"`
	TargetValue float64 `param:"target_value"`
	Tolerance   float64 `param:"tolerance"`
}

type crossFieldParams struct {
	Checks []crossFieldCheck `param:"checks"`
}

type crossField struct {
	ctx    *rules.Context
	checks []crossFieldCheck
}

func newCrossField(ctx *rules.Context) (rules.Validator, error) {
	var p crossFieldParams
	if err := rules.DecodeParams(ctx.Rule, &p); err != nil {
		return nil, err
	}
	if len(p.Checks) == 0 {
		return nil, &rules.ParamError{RuleID: ctx.Rule.ID, Param: "checks", Reason: "must not be empty"}
	}
	for i := range p.Checks {
		c := &p.Checks[i]
		switch c.Type {
		case "dependency":
			if c.IfField == "" || c.ThenField == "" {
				return nil, checkParamErr(ctx, i, "dependency requires if_field and then_field")
			}
		case "mutual_exclusion":
			if len(c.Fields) < 2 {
				return nil, checkParamErr(ctx, i, "mutual_exclusion requires at least two fields")
			}
		case "conditional":
			if c.IfField == "" || c.Equals == "" || c.ThenField == "" {
				return nil, checkParamErr(ctx, i, "conditional requires if_field, equals, and then_field")
			}
		case "sum_check":
			if len(c.Fields) == 0 {
				return nil, checkParamErr(ctx, i, "sum_check requires fields")
			}
			if c.Tolerance <= 0 {
				c.Tolerance = defaultSumTolerance
			}
		default:
			return nil, checkParamErr(ctx, i, fmt.Sprintf("unsupported check type %q", c.Type))
		}
	}
	return &crossField{ctx: ctx, checks: p.Checks}, nil
}

func checkParamErr(ctx *rules.Context, index int, reason string) error {
	return &rules.ParamError{
		RuleID: ctx.Rule.ID,
		Param:  fmt.Sprintf("checks[%d]", index),
		Reason: reason,
	}
}

func (v *crossField) Validate(start, end int) ([]core.ValidationIssue, error) {
	var issues []core.ValidationIssue
	for row := start; row < end; row++ {
		for _, check := range v.checks {
			if issue := v.evalCheck(row, check); issue != nil {
				issues = append(issues, *issue)
			}
		}
	}
	return issues, nil
}

func (v *crossField) evalCheck(row int, check crossFieldCheck) *core.ValidationIssue {
	switch check.Type {
	case "dependency":
		return v.evalDependency(row, check)
	case "mutual_exclusion":
		return v.evalMutualExclusion(row, check)
	case "conditional":
		return v.evalConditional(row, check)
	case "sum_check":
		return v.evalSumCheck(row, check)
	}
	return nil
}

func (v *crossField) present(row int, col string) bool {
	cell, ok := v.ctx.Dataset.Cell(row, col)
	return ok && !table.IsMissing(cell)
}

func (v *crossField) value(row int, col string) string {
	cell, _ := v.ctx.Dataset.Cell(row, col)
	return table.AsString(cell)
}

func (v *crossField) evalDependency(row int, check crossFieldCheck) *core.ValidationIssue {
	if !v.present(row, check.IfField) || v.present(row, check.ThenField) {
		return nil
	}
	return &core.ValidationIssue{
		RowIndex:   row,
		ColumnName: check.ThenField,
		Message:    fmt.Sprintf("%s is required when %s is present", check.ThenField, check.IfField),
		Category:   "cross_field_dependency",
	}
}

func (v *crossField) evalMutualExclusion(row int, check crossFieldCheck) *core.ValidationIssue {
	var present []string
	for _, field := range check.Fields {
		if v.present(row, field) {
			present = append(present, field)
		}
	}
	if len(present) <= 1 {
		return nil
	}
	return &core.ValidationIssue{
		RowIndex:   row,
		ColumnName: strings.Join(present, "|"),
		Message:    fmt.Sprintf("at most one of %s may be present", strings.Join(check.Fields, ", ")),
		Category:   "cross_field_mutual_exclusion",
	}
}

func (v *crossField) evalConditional(row int, check crossFieldCheck) *core.ValidationIssue {
	if !v.present(row, check.IfField) || v.value(row, check.IfField) != check.Equals {
		return nil
	}
	if check.ThenEquals == "" {
		// Without an expected value, the then-field just has to be present.
		if v.present(row, check.ThenField) {
			return nil
		}
		return &core.ValidationIssue{
			RowIndex:   row,
			ColumnName: check.ThenField,
			Message:    fmt.Sprintf("%s is required when %s is %q", check.ThenField, check.IfField, check.Equals),
			Category:   "cross_field_conditional",
		}
	}
	if actual := v.value(row, check.ThenField); actual != check.ThenEquals {
		return &core.ValidationIssue{
			RowIndex:       row,
			ColumnName:     check.ThenField,
			CurrentValue:   actual,
			SuggestedValue: check.ThenEquals,
			Message:        fmt.Sprintf("%s must be %q when %s is %q", check.ThenField, check.ThenEquals, check.IfField, check.Equals),
			Category:       "cross_field_conditional",
		}
	}
	return nil
}

func (v *crossField) evalSumCheck(row int, check crossFieldCheck) *core.ValidationIssue {
	var sum float64
	for _, field := range check.Fields {
		cell, _ := v.ctx.Dataset.Cell(row, field)
		f, ok := table.AsFloat(cell)
		if !ok {
			// Non-numeric or missing operand makes the check undecidable
			// for this row, not a violation.
			return nil
		}
		sum += f
	}

	target := check.TargetValue
	if check.TargetField != "" {
		cell, _ := v.ctx.Dataset.Cell(row, check.TargetField)
		f, ok := table.AsFloat(cell)
		if !ok {
			return nil
		}
		target = f
	}

	if math.Abs(sum-target) <= check.Tolerance {
		return nil
	}
	return &core.ValidationIssue{
		RowIndex:       row,
		ColumnName:     strings.Join(check.Fields, "|"),
		CurrentValue:   fmt.Sprintf("%g", sum),
		SuggestedValue: fmt.Sprintf("%g", target),
		Message:        fmt.Sprintf("sum %g differs from target %g by more than %g", sum, target, check.Tolerance),
		Category:       "cross_field_sum_check",
	}
}
