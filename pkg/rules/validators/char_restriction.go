package validators

import (
	"fmt"
	"unicode"

	"github.com/KshitijBharambe/hygiene/pkg/core"
	"github.com/KshitijBharambe/hygiene/pkg/rules"
	"github.com/KshitijBharambe/hygiene/pkg/table"
)

func init() {
	rules.Register(rules.KindDef{
		Kind:        core.KindCharRestriction,
		Description: "Flags values violating an alphabetic, numeric, or alphanumeric character class.",
		New:         newCharRestriction,
	})
}

type charRestrictionParams struct {
	Restriction string `param:"restriction"`
}

type charRestriction struct {
	ctx     *rules.Context
	columns []string
	allowed func(rune) bool
	label   string
}

func newCharRestriction(ctx *rules.Context) (rules.Validator, error) {
	var p charRestrictionParams
	if err := rules.DecodeParams(ctx.Rule, &p); err != nil {
		return nil, err
	}

	// Whitespace is tolerated for the letter classes so multi-word
	// values like "New York" pass an alphabetic check.
	var allowed func(rune) bool
	switch p.Restriction {
	case "alphabetic":
		allowed = func(r rune) bool { return unicode.IsLetter(r) || unicode.IsSpace(r) }
	case "numeric":
		allowed = unicode.IsDigit
	case "alphanumeric":
		allowed = func(r rune) bool {
			return unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r)
		}
	default:
		return nil, &rules.ParamError{
			RuleID: ctx.Rule.ID,
			Param:  "restriction",
			Reason: fmt.Sprintf("unsupported restriction %q", p.Restriction),
		}
	}

	return &charRestriction{
		ctx:     ctx,
		columns: ctx.TargetColumns(),
		allowed: allowed,
		label:   p.Restriction,
	}, nil
}

func (v *charRestriction) Validate(start, end int) ([]core.ValidationIssue, error) {
	var issues []core.ValidationIssue
	for row := start; row < end; row++ {
		for _, col := range v.columns {
			cell, _ := v.ctx.Dataset.Cell(row, col)
			if table.IsMissing(cell) {
				continue
			}
			value := table.AsString(cell)
			if allRunes(value, v.allowed) {
				continue
			}
			issues = append(issues, core.ValidationIssue{
				RowIndex:     row,
				ColumnName:   col,
				CurrentValue: value,
				Message:      fmt.Sprintf("value contains characters outside the %s class", v.label),
				Category:     "char_restriction",
			})
		}
	}
	return issues, nil
}

func allRunes(s string, pred func(rune) bool) bool {
	for _, r := range s {
		if !pred(r) {
			return false
		}
	}
	return true
}
