package validators

import (
	"fmt"
	"strings"
	"time"

	"github.com/KshitijBharambe/hygiene/pkg/core"
	"github.com/KshitijBharambe/hygiene/pkg/rules"
	"github.com/KshitijBharambe/hygiene/pkg/table"
)

func init() {
	rules.Register(rules.KindDef{
		Kind:        core.KindStandardization,
		Description: "Checks date, phone, and email values against their canonical form.",
		New:         newStandardization,
	})
}

type standardizationParams struct {
	// Type applies to every target column unless ColumnTypes overrides it.
	Type        string            `param:"type"`
	ColumnTypes map[string]string `param:"column_types"`

	// Format is the reference layout for date columns, e.g. "2006-01-02".
	Format string `param:"format"`
}

type standardization struct {
	ctx     *rules.Context
	columns []string
	params  standardizationParams
}

func newStandardization(ctx *rules.Context) (rules.Validator, error) {
	var p standardizationParams
	if err := rules.DecodeParams(ctx.Rule, &p); err != nil {
		return nil, err
	}
	if p.Format == "" {
		p.Format = "2006-01-02"
	}
	v := &standardization{ctx: ctx, columns: ctx.TargetColumns(), params: p}
	for _, col := range v.columns {
		switch v.columnType(col) {
		case "date", "phone", "email":
		default:
			return nil, &rules.ParamError{
				RuleID: ctx.Rule.ID,
				Param:  "type",
				Reason: fmt.Sprintf("unsupported standardization type %q for column %q", v.columnType(col), col),
			}
		}
	}
	return v, nil
}

func (v *standardization) columnType(col string) string {
	if t, ok := v.params.ColumnTypes[col]; ok {
		return t
	}
	return v.params.Type
}

func (v *standardization) Validate(start, end int) ([]core.ValidationIssue, error) {
	var issues []core.ValidationIssue
	for row := start; row < end; row++ {
		for _, col := range v.columns {
			cell, _ := v.ctx.Dataset.Cell(row, col)
			if table.IsMissing(cell) {
				continue
			}
			value := table.AsString(cell)
			var issue *core.ValidationIssue
			switch v.columnType(col) {
			case "date":
				issue = v.checkDate(value)
			case "phone":
				issue = checkPhone(value)
			case "email":
				issue = checkEmail(value)
			}
			if issue != nil {
				issue.RowIndex = row
				issue.ColumnName = col
				issue.CurrentValue = value
				issue.Category = "standardization"
				issues = append(issues, *issue)
			}
		}
	}
	return issues, nil
}

// checkDate flags values the layout cannot parse, and parseable values
// whose canonical re-render differs from what is stored.
func (v *standardization) checkDate(value string) *core.ValidationIssue {
	trimmed := strings.TrimSpace(value)
	t, err := time.Parse(v.params.Format, trimmed)
	if err != nil {
		return &core.ValidationIssue{
			Message: fmt.Sprintf("date does not match format %q", v.params.Format),
		}
	}
	if canonical := t.Format(v.params.Format); canonical != trimmed {
		return &core.ValidationIssue{
			SuggestedValue: canonical,
			Message:        "date is not in canonical form",
		}
	}
	return nil
}

func checkPhone(value string) *core.ValidationIssue {
	trimmed := strings.TrimSpace(value)
	if !strings.HasPrefix(trimmed, "+") {
		return &core.ValidationIssue{Message: "phone number must start with +"}
	}
	if len(trimmed) < 10 {
		return &core.ValidationIssue{Message: "phone number is shorter than 10 characters"}
	}
	return nil
}

func checkEmail(value string) *core.ValidationIssue {
	trimmed := strings.TrimSpace(value)
	at := strings.Index(trimmed, "@")
	if at < 0 {
		return &core.ValidationIssue{Message: "email is missing @"}
	}
	if !strings.Contains(trimmed[at+1:], ".") {
		return &core.ValidationIssue{Message: "email domain is missing a dot"}
	}
	return nil
}
