package validators

import (
	"fmt"
	"math"
	"sort"

	"github.com/KshitijBharambe/hygiene/pkg/core"
	"github.com/KshitijBharambe/hygiene/pkg/rules"
	"github.com/KshitijBharambe/hygiene/pkg/stats"
)

func init() {
	rules.Register(rules.KindDef{
		Kind:        core.KindCorrelation,
		Description: "Flags column pairs with correlation above a threshold, optionally with VIF.",
		WholeColumn: true,
		New:         newCorrelation,
	})
}

type correlationParams struct {
	Method       string  `param:"method"`
	Threshold    float64 `param:"threshold"`
	CheckVIF     bool    `param:"check_vif"`
	VIFThreshold float64 `param:"vif_threshold"`
}

type correlation struct {
	ctx     *rules.Context
	columns []string
	params  correlationParams
}

func newCorrelation(ctx *rules.Context) (rules.Validator, error) {
	p := correlationParams{Method: "pearson", Threshold: 0.9, VIFThreshold: 10}
	if err := rules.DecodeParams(ctx.Rule, &p); err != nil {
		return nil, err
	}
	switch p.Method {
	case "pearson", "spearman", "kendall":
	default:
		return nil, &rules.ParamError{
			RuleID: ctx.Rule.ID,
			Param:  "method",
			Reason: fmt.Sprintf("unsupported method %q", p.Method),
		}
	}
	columns := ctx.TargetColumns()
	if len(columns) == 0 {
		columns = ctx.Dataset.NumericColumnNames()
	}
	return &correlation{ctx: ctx, columns: columns, params: p}, nil
}

type numericColumn struct {
	name  string
	byRow map[int]float64
}

func (v *correlation) Validate(_, _ int) ([]core.ValidationIssue, error) {
	var cols []numericColumn
	for _, name := range v.columns {
		values, rowIdx, ok := v.ctx.Dataset.NumericColumn(name)
		if !ok || len(values) == 0 {
			continue
		}
		byRow := make(map[int]float64, len(values))
		for i, row := range rowIdx {
			byRow[row] = values[i]
		}
		cols = append(cols, numericColumn{name: name, byRow: byRow})
	}
	if len(cols) < 2 {
		v.ctx.Logger.Debug("fewer than two numeric columns, skipping",
			"rule", v.ctx.Rule.ID, "columns", len(cols))
		return nil, nil
	}

	var issues []core.ValidationIssue
	for i := 0; i < len(cols); i++ {
		for j := i + 1; j < len(cols); j++ {
			// Align on rows where both columns are numeric.
			var xs, ys []float64
			for row, x := range cols[i].byRow {
				if y, ok := cols[j].byRow[row]; ok {
					xs = append(xs, x)
					ys = append(ys, y)
				}
			}
			if len(xs) < 2 {
				continue
			}
			r := v.coefficient(xs, ys)
			if math.Abs(r) <= v.params.Threshold {
				continue
			}
			issues = append(issues, core.ValidationIssue{
				RowIndex:     core.RowIndexNone,
				ColumnName:   cols[i].name + "|" + cols[j].name,
				CurrentValue: fmt.Sprintf("%.4f", r),
				Message: fmt.Sprintf("%s correlation %.4f exceeds threshold %g",
					v.params.Method, r, v.params.Threshold),
				Category: "correlation",
			})
		}
	}

	if v.params.CheckVIF {
		issues = append(issues, v.checkVIF(cols)...)
	}
	return issues, nil
}

func (v *correlation) coefficient(xs, ys []float64) float64 {
	switch v.params.Method {
	case "spearman":
		return stats.Spearman(xs, ys)
	case "kendall":
		return stats.KendallTau(xs, ys)
	default:
		return stats.Pearson(xs, ys)
	}
}

// checkVIF computes the variance inflation factor of each column
// against the others. It needs fully aligned rows, so rows missing a
// numeric value in any column are dropped first.
func (v *correlation) checkVIF(cols []numericColumn) []core.ValidationIssue {
	var common []int
	for row := range cols[0].byRow {
		ok := true
		for _, col := range cols[1:] {
			if _, present := col.byRow[row]; !present {
				ok = false
				break
			}
		}
		if ok {
			common = append(common, row)
		}
	}
	if len(common) <= len(cols) {
		return nil
	}
	sort.Ints(common)

	matrix := make([][]float64, len(cols))
	for i, col := range cols {
		matrix[i] = make([]float64, len(common))
		for k, row := range common {
			matrix[i][k] = col.byRow[row]
		}
	}

	var issues []core.ValidationIssue
	for i, col := range cols {
		vif := stats.VIF(matrix, i)
		if vif <= v.params.VIFThreshold {
			continue
		}
		issues = append(issues, core.ValidationIssue{
			RowIndex:     core.RowIndexNone,
			ColumnName:   col.name,
			CurrentValue: fmt.Sprintf("%.2f", vif),
			Message:      fmt.Sprintf("variance inflation factor %.2f exceeds threshold %g", vif, v.params.VIFThreshold),
			Category:     "correlation_vif",
		})
	}
	return issues
}
