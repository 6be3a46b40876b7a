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
		Kind:        core.KindDistribution,
		Description: "Tests numeric columns for normality, uniformity, and excess skew.",
		WholeColumn: true,
		New:         newDistribution,
	})
}

const (
	// minDistributionSamples is the sample size below which a column is
	// silently skipped.
	minDistributionSamples = 8

	// shapiroWilkLimit is the sample size above which normality testing
	// switches from Shapiro-Wilk to Kolmogorov-Smirnov.
	shapiroWilkLimit = 5000
)

type distributionParams struct {
	Checks        []string `param:"checks"`
	Alpha         float64  `param:"alpha"`
	SkewThreshold float64  `param:"skew_threshold"`
}

type distribution struct {
	ctx     *rules.Context
	columns []string
	params  distributionParams
}

func newDistribution(ctx *rules.Context) (rules.Validator, error) {
	p := distributionParams{Checks: []string{"normality"}, Alpha: 0.05, SkewThreshold: 1.0}
	if err := rules.DecodeParams(ctx.Rule, &p); err != nil {
		return nil, err
	}
	for _, check := range p.Checks {
		switch check {
		case "normality", "uniformity", "skewness":
		default:
			return nil, &rules.ParamError{
				RuleID: ctx.Rule.ID,
				Param:  "checks",
				Reason: fmt.Sprintf("unsupported check %q", check),
			}
		}
	}
	return &distribution{ctx: ctx, columns: ctx.TargetColumns(), params: p}, nil
}

func (v *distribution) Validate(_, _ int) ([]core.ValidationIssue, error) {
	var issues []core.ValidationIssue
	for _, col := range v.columns {
		values, _, ok := v.ctx.Dataset.NumericColumn(col)
		if !ok || len(values) < minDistributionSamples {
			v.ctx.Logger.Debug("skipping column with too few numeric samples",
				"rule", v.ctx.Rule.ID, "column", col, "samples", len(values))
			continue
		}
		for _, check := range v.params.Checks {
			if issue := v.runCheck(check, col, values); issue != nil {
				issues = append(issues, *issue)
			}
		}
	}
	return issues, nil
}

func (v *distribution) runCheck(check, col string, values []float64) *core.ValidationIssue {
	switch check {
	case "normality":
		return v.checkNormality(col, values)
	case "uniformity":
		return v.checkUniformity(col, values)
	case "skewness":
		return v.checkSkewness(col, values)
	}
	return nil
}

func (v *distribution) checkNormality(col string, values []float64) *core.ValidationIssue {
	var (
		test string
		p    float64
	)
	if len(values) <= shapiroWilkLimit {
		test = "shapiro-wilk"
		_, p = stats.ShapiroWilk(values)
	} else {
		test = "kolmogorov-smirnov"
		_, p = stats.KSNormal(values)
	}
	if p >= v.params.Alpha {
		return nil
	}
	return &core.ValidationIssue{
		RowIndex:   core.RowIndexNone,
		ColumnName: col,
		Message:    fmt.Sprintf("column fails %s normality test (p=%.4f, alpha=%g)", test, p, v.params.Alpha),
		Category:   "distribution_normality",
	}
}

// checkUniformity rescales values to [0, 1] and tests them against the
// uniform distribution.
func (v *distribution) checkUniformity(col string, values []float64) *core.ValidationIssue {
	lo, hi := values[0], values[0]
	for _, x := range values {
		lo = math.Min(lo, x)
		hi = math.Max(hi, x)
	}
	if hi == lo {
		// A constant column is degenerate for this test.
		return nil
	}
	scaled := make([]float64, len(values))
	for i, x := range values {
		scaled[i] = (x - lo) / (hi - lo)
	}
	_, p := stats.KSUniform(scaled)
	if p >= v.params.Alpha {
		return nil
	}
	return &core.ValidationIssue{
		RowIndex:   core.RowIndexNone,
		ColumnName: col,
		Message:    fmt.Sprintf("column fails uniformity test (p=%.4f, alpha=%g)", p, v.params.Alpha),
		Category:   "distribution_uniformity",
	}
}

func (v *distribution) checkSkewness(col string, values []float64) *core.ValidationIssue {
	skew := stats.Skewness(values)
	if math.Abs(skew) <= v.params.SkewThreshold {
		return nil
	}
	return &core.ValidationIssue{
		RowIndex:   core.RowIndexNone,
		ColumnName: col,
		Message:    fmt.Sprintf("skewness %.2f exceeds threshold %g", skew, v.params.SkewThreshold),
		Category:   "distribution_skewness",
	}
}
