package validators

import (
	"fmt"
	"math"

	"github.com/KshitijBharambe/hygiene/pkg/core"
	"github.com/KshitijBharambe/hygiene/pkg/rules"
	"github.com/KshitijBharambe/hygiene/pkg/stats"
)

func init() {
	rules.Register(rules.KindDef{
		Kind:        core.KindOutlier,
		Description: "Detects numeric outliers via IQR, z-score, or isolation scoring.",
		WholeColumn: true,
		New:         newOutlier,
	})
}

// minOutlierSamples is the sample size below which a column is
// silently skipped.
const minOutlierSamples = 3

type outlierParams struct {
	Method        string  `param:"method"`
	Multiplier    float64 `param:"multiplier"`
	Threshold     float64 `param:"threshold"`
	Contamination float64 `param:"contamination"`
}

type outlier struct {
	ctx     *rules.Context
	columns []string
	params  outlierParams
}

func newOutlier(ctx *rules.Context) (rules.Validator, error) {
	p := outlierParams{Method: "iqr", Multiplier: 1.5, Threshold: 3.0, Contamination: 0.1}
	if err := rules.DecodeParams(ctx.Rule, &p); err != nil {
		return nil, err
	}
	switch p.Method {
	case "iqr", "zscore", "isolation_forest", "one_class_svm":
	default:
		return nil, &rules.ParamError{
			RuleID: ctx.Rule.ID,
			Param:  "method",
			Reason: fmt.Sprintf("unsupported method %q", p.Method),
		}
	}
	return &outlier{ctx: ctx, columns: ctx.TargetColumns(), params: p}, nil
}

func (v *outlier) Validate(_, _ int) ([]core.ValidationIssue, error) {
	var issues []core.ValidationIssue
	for _, col := range v.columns {
		values, rowIdx, ok := v.ctx.Dataset.NumericColumn(col)
		if !ok || len(values) < minOutlierSamples {
			v.ctx.Logger.Debug("skipping column with too few numeric samples",
				"rule", v.ctx.Rule.ID, "column", col, "samples", len(values))
			continue
		}
		for _, hit := range v.detect(values) {
			issues = append(issues, core.ValidationIssue{
				RowIndex:     rowIdx[hit.index],
				ColumnName:   col,
				CurrentValue: fmt.Sprintf("%g", values[hit.index]),
				Message:      hit.message,
				Category:     "outlier_" + v.params.Method,
			})
		}
	}
	return issues, nil
}

type outlierHit struct {
	index   int
	message string
}

func (v *outlier) detect(values []float64) []outlierHit {
	switch v.params.Method {
	case "iqr":
		return v.detectIQR(values)
	case "zscore":
		return v.detectZScore(values)
	default:
		// isolation_forest and one_class_svm both rank rows by isolation
		// score and cut at the contamination fraction.
		return v.detectIsolation(values)
	}
}

func (v *outlier) detectIQR(values []float64) []outlierHit {
	lower, upper := stats.IQRBounds(values, v.params.Multiplier)
	var hits []outlierHit
	for i, x := range values {
		if x < lower || x > upper {
			hits = append(hits, outlierHit{
				index:   i,
				message: fmt.Sprintf("value is outside the IQR fence [%g, %g]", lower, upper),
			})
		}
	}
	return hits
}

func (v *outlier) detectZScore(values []float64) []outlierHit {
	var hits []outlierHit
	for i, z := range stats.ZScores(values) {
		if math.Abs(z) > v.params.Threshold {
			hits = append(hits, outlierHit{
				index:   i,
				message: fmt.Sprintf("z-score %.2f exceeds threshold %g", z, v.params.Threshold),
			})
		}
	}
	return hits
}

func (v *outlier) detectIsolation(values []float64) []outlierHit {
	scores := stats.IsolationScores(values)
	cutoff := stats.ContaminationCutoff(scores, v.params.Contamination)
	var hits []outlierHit
	for i, s := range scores {
		if s >= cutoff {
			hits = append(hits, outlierHit{
				index:   i,
				message: fmt.Sprintf("isolation score %.3f is within the top %g fraction", s, v.params.Contamination),
			})
		}
	}
	return hits
}
