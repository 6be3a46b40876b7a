package rules

import (
	"context"
	"log/slog"
	"strings"

	"github.com/KshitijBharambe/hygiene/pkg/core"
)

// Run executes a single rule against the context's dataset and returns
// its result. Validator failures are captured in the result rather than
// returned, so one broken rule never aborts the rest of a run. Timing
// and memory accounting are filled in by the caller.
func Run(ctx context.Context, c *Context) *core.RuleExecutionResult {
	if c.Logger == nil {
		c.Logger = slog.New(slog.DiscardHandler)
	}
	result := &core.RuleExecutionResult{RuleID: c.Rule.ID, Success: true}

	def, ok := Lookup(c.Rule.Kind)
	if !ok {
		return failed(result, &UnknownKindError{RuleID: c.Rule.ID, Kind: c.Rule.Kind})
	}

	v, err := def.New(c)
	if err != nil {
		return failed(result, err)
	}

	rows := c.Dataset.NumRows()
	for _, span := range spans(c, def, rows) {
		if err := ctx.Err(); err != nil {
			return failed(result, err)
		}
		issues, err := v.Validate(span.start, span.end)
		if err != nil {
			return failed(result, err)
		}
		result.Issues = append(result.Issues, issues...)
	}

	result.RowsFlagged, result.ColsFlagged = flaggedCounts(result.Issues)
	return result
}

type span struct{ start, end int }

// spans returns the row spans to validate. Whole-column kinds and small
// datasets get a single full span; everything else is chunked.
func spans(c *Context, def KindDef, rows int) []span {
	if def.WholeColumn || rows <= c.chunkThreshold() {
		return []span{{0, rows}}
	}
	chunks := c.Dataset.Chunks(c.chunkSize())
	out := make([]span, len(chunks))
	for i, ch := range chunks {
		out[i] = span{ch.Start, ch.End}
	}
	return out
}

func failed(result *core.RuleExecutionResult, err error) *core.RuleExecutionResult {
	result.Success = false
	result.ErrorMessage = err.Error()
	return result
}

// flaggedCounts returns the number of distinct rows and columns touched
// by the issues. Dataset-level issues (RowIndexNone) do not count as
// flagged rows. Column pair labels like "a|b" count both columns.
func flaggedCounts(issues []core.ValidationIssue) (rows, cols int) {
	rowSet := make(map[int]struct{})
	colSet := make(map[string]struct{})
	for _, issue := range issues {
		if issue.RowIndex != core.RowIndexNone {
			rowSet[issue.RowIndex] = struct{}{}
		}
		for _, name := range strings.Split(issue.ColumnName, "|") {
			if name != "" {
				colSet[name] = struct{}{}
			}
		}
	}
	return len(rowSet), len(colSet)
}
