package validators

import (
	"fmt"

	"github.com/KshitijBharambe/hygiene/pkg/core"
	"github.com/KshitijBharambe/hygiene/pkg/rules"
	"github.com/KshitijBharambe/hygiene/pkg/table"
)

func init() {
	rules.Register(rules.KindDef{
		Kind:        core.KindLengthRange,
		Description: "Flags string lengths outside a configured range.",
		New:         newLengthRange,
	})
}

type lengthRangeParams struct {
	MinLength int `param:"min_length"`
	// MaxLength 0 means unbounded above.
	MaxLength int `param:"max_length"`
}

type lengthRange struct {
	ctx     *rules.Context
	columns []string
	params  lengthRangeParams
}

func newLengthRange(ctx *rules.Context) (rules.Validator, error) {
	var p lengthRangeParams
	if err := rules.DecodeParams(ctx.Rule, &p); err != nil {
		return nil, err
	}
	if p.MinLength < 0 {
		return nil, &rules.ParamError{RuleID: ctx.Rule.ID, Param: "min_length", Reason: "must not be negative"}
	}
	if p.MaxLength > 0 && p.MaxLength < p.MinLength {
		return nil, &rules.ParamError{RuleID: ctx.Rule.ID, Param: "max_length", Reason: "must not be below min_length"}
	}
	return &lengthRange{ctx: ctx, columns: ctx.TargetColumns(), params: p}, nil
}

func (v *lengthRange) Validate(start, end int) ([]core.ValidationIssue, error) {
	var issues []core.ValidationIssue
	for row := start; row < end; row++ {
		for _, col := range v.columns {
			cell, _ := v.ctx.Dataset.Cell(row, col)
			if table.IsMissing(cell) {
				continue
			}
			value := table.AsString(cell)
			length := len([]rune(value))
			switch {
			case length < v.params.MinLength:
				issues = append(issues, core.ValidationIssue{
					RowIndex:     row,
					ColumnName:   col,
					CurrentValue: value,
					Message:      fmt.Sprintf("length %d is below the minimum %d", length, v.params.MinLength),
					Category:     "length_range",
				})
			case v.params.MaxLength > 0 && length > v.params.MaxLength:
				issues = append(issues, core.ValidationIssue{
					RowIndex:       row,
					ColumnName:     col,
					CurrentValue:   value,
					SuggestedValue: string([]rune(value)[:v.params.MaxLength]),
					Message:        fmt.Sprintf("length %d exceeds the maximum %d", length, v.params.MaxLength),
					Category:       "length_range",
				})
			}
		}
	}
	return issues, nil
}
