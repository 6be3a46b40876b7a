package validators

import (
	"fmt"
	"regexp"

	"github.com/KshitijBharambe/hygiene/pkg/core"
	"github.com/KshitijBharambe/hygiene/pkg/rules"
	"github.com/KshitijBharambe/hygiene/pkg/table"
)

func init() {
	rules.Register(rules.KindDef{
		Kind:        core.KindRegex,
		Description: "Matches values against named patterns with configurable polarity.",
		New:         newRegexValidator,
	})
}

type regexPattern struct {
	Name      string `param:"name"`
	Pattern   string `param:"pattern"`
	MustMatch bool   `param:"must_match"`
}

type regexParams struct {
	Patterns []regexPattern `param:"patterns"`
}

type compiledPattern struct {
	name      string
	re        *regexp.Regexp
	mustMatch bool
}

type regexValidator struct {
	ctx      *rules.Context
	columns  []string
	patterns []compiledPattern
}

func newRegexValidator(ctx *rules.Context) (rules.Validator, error) {
	var p regexParams
	if err := rules.DecodeParams(ctx.Rule, &p); err != nil {
		return nil, err
	}
	if len(p.Patterns) == 0 {
		return nil, &rules.ParamError{RuleID: ctx.Rule.ID, Param: "patterns", Reason: "must not be empty"}
	}

	// Invalid patterns are skipped, not fatal: one bad pattern in a
	// shared rule file should not disable the valid ones.
	compiled := make([]compiledPattern, 0, len(p.Patterns))
	for _, pat := range p.Patterns {
		re, err := regexp.Compile(pat.Pattern)
		if err != nil {
			ctx.Logger.Warn("skipping invalid pattern",
				"rule", ctx.Rule.ID, "pattern", pat.Name, "error", err)
			continue
		}
		compiled = append(compiled, compiledPattern{name: pat.Name, re: re, mustMatch: pat.MustMatch})
	}

	return &regexValidator{ctx: ctx, columns: ctx.TargetColumns(), patterns: compiled}, nil
}

func (v *regexValidator) Validate(start, end int) ([]core.ValidationIssue, error) {
	var issues []core.ValidationIssue
	for row := start; row < end; row++ {
		for _, col := range v.columns {
			cell, ok := v.ctx.Dataset.Cell(row, col)
			if !ok || cell == nil {
				// Nulls are the missing_data kind's concern.
				continue
			}
			value := table.AsString(cell)
			for _, pat := range v.patterns {
				if pat.re.MatchString(value) == pat.mustMatch {
					continue
				}
				polarity := "must match"
				if !pat.mustMatch {
					polarity = "must not match"
				}
				issues = append(issues, core.ValidationIssue{
					RowIndex:     row,
					ColumnName:   col,
					CurrentValue: value,
					Message:      fmt.Sprintf("value %s pattern %q", polarity, pat.name),
					Category:     "regex",
				})
			}
		}
	}
	return issues, nil
}
