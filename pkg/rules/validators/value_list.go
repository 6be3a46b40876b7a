package validators

import (
	"strings"

	"github.com/KshitijBharambe/hygiene/pkg/core"
	"github.com/KshitijBharambe/hygiene/pkg/rules"
	"github.com/KshitijBharambe/hygiene/pkg/table"
)

func init() {
	rules.Register(rules.KindDef{
		Kind:        core.KindValueList,
		Description: "Flags values outside a configured allowed set.",
		New:         newValueList,
	})
}

type valueListParams struct {
	AllowedValues []string `param:"allowed_values"`
	CaseSensitive bool     `param:"case_sensitive"`
}

type valueList struct {
	ctx     *rules.Context
	columns []string
	allowed map[string]struct{}
	params  valueListParams
}

func newValueList(ctx *rules.Context) (rules.Validator, error) {
	// Matching is strict unless case_sensitive is set to false.
	p := valueListParams{CaseSensitive: true}
	if err := rules.DecodeParams(ctx.Rule, &p); err != nil {
		return nil, err
	}
	if len(p.AllowedValues) == 0 {
		return nil, &rules.ParamError{RuleID: ctx.Rule.ID, Param: "allowed_values", Reason: "must not be empty"}
	}
	allowed := make(map[string]struct{}, len(p.AllowedValues))
	for _, value := range p.AllowedValues {
		allowed[normalizeCase(value, p.CaseSensitive)] = struct{}{}
	}
	return &valueList{ctx: ctx, columns: ctx.TargetColumns(), allowed: allowed, params: p}, nil
}

func normalizeCase(s string, caseSensitive bool) string {
	if caseSensitive {
		return s
	}
	return strings.ToLower(s)
}

func (v *valueList) Validate(start, end int) ([]core.ValidationIssue, error) {
	var issues []core.ValidationIssue
	for row := start; row < end; row++ {
		for _, col := range v.columns {
			cell, _ := v.ctx.Dataset.Cell(row, col)
			if table.IsMissing(cell) {
				continue
			}
			value := table.AsString(cell)
			if _, ok := v.allowed[normalizeCase(value, v.params.CaseSensitive)]; ok {
				continue
			}
			issues = append(issues, core.ValidationIssue{
				RowIndex:     row,
				ColumnName:   col,
				CurrentValue: value,
				Message:      "value is not in the allowed set",
				Category:     "value_list",
			})
		}
	}
	return issues, nil
}
