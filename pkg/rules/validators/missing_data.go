package validators

import (
	"github.com/KshitijBharambe/hygiene/pkg/core"
	"github.com/KshitijBharambe/hygiene/pkg/rules"
	"github.com/KshitijBharambe/hygiene/pkg/table"
)

func init() {
	rules.Register(rules.KindDef{
		Kind:        core.KindMissingData,
		Description: "Flags null or empty cells in target columns.",
		New:         newMissingData,
	})
}

type missingDataParams struct {
	DefaultValue string `param:"default_value"`
}

type missingData struct {
	ctx     *rules.Context
	columns []string
	params  missingDataParams
}

func newMissingData(ctx *rules.Context) (rules.Validator, error) {
	var p missingDataParams
	if err := rules.DecodeParams(ctx.Rule, &p); err != nil {
		return nil, err
	}
	return &missingData{ctx: ctx, columns: ctx.TargetColumns(), params: p}, nil
}

func (v *missingData) Validate(start, end int) ([]core.ValidationIssue, error) {
	var issues []core.ValidationIssue
	for row := start; row < end; row++ {
		for _, col := range v.columns {
			cell, _ := v.ctx.Dataset.Cell(row, col)
			if !table.IsMissing(cell) {
				continue
			}
			issues = append(issues, core.ValidationIssue{
				RowIndex:       row,
				ColumnName:     col,
				CurrentValue:   table.AsString(cell),
				SuggestedValue: v.params.DefaultValue,
				Message:        "value is missing or empty",
				Category:       "missing_data",
			})
		}
	}
	return issues, nil
}
