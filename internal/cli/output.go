package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/KshitijBharambe/hygiene/pkg/core"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true)
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	failStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// renderSummary prints the per-rule result table and the aggregate line.
func renderSummary(w io.Writer, results []*core.RuleExecutionResult, stats *core.ExecutionStats) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Rule", "Status", "Issues", "Rows", "Cols", "Time"})

	for _, r := range results {
		status := okStyle.Render("ok")
		if !r.Success {
			status = failStyle.Render("failed")
		}
		t.AppendRow(table.Row{
			r.RuleID, status, len(r.Issues), r.RowsFlagged, r.ColsFlagged,
			r.ExecutionTime.Round(time.Microsecond),
		})
	}
	t.Render()

	line := fmt.Sprintf("%d rules, %d failed, %d issues in %s (mode=%s, groups=%d, efficiency=%.2f)",
		stats.TotalRules, stats.FailedRules, stats.TotalIssues,
		stats.WallClock.Round(time.Millisecond), stats.Mode, stats.Groups, stats.ParallelEfficiency)
	if stats.FailedRules > 0 {
		fmt.Fprintln(w, failStyle.Render(line))
	} else {
		fmt.Fprintln(w, okStyle.Render(line))
	}
}

// renderIssues prints up to limit issues per rule.
func renderIssues(w io.Writer, results []*core.RuleExecutionResult, limit int) {
	for _, r := range results {
		if len(r.Issues) == 0 {
			continue
		}
		fmt.Fprintln(w, headerStyle.Render(r.RuleID))
		shown := r.Issues
		if limit > 0 && len(shown) > limit {
			shown = shown[:limit]
		}
		for _, issue := range shown {
			loc := fmt.Sprintf("row %d, %s", issue.RowIndex, issue.ColumnName)
			if issue.RowIndex == core.RowIndexNone {
				loc = issue.ColumnName
			}
			fmt.Fprintf(w, "  %s: %s", loc, issue.Message)
			if issue.SuggestedValue != "" {
				fmt.Fprintf(w, " %s", dimStyle.Render("(suggest: "+issue.SuggestedValue+")"))
			}
			fmt.Fprintln(w)
		}
		if hidden := len(r.Issues) - len(shown); hidden > 0 {
			fmt.Fprintln(w, dimStyle.Render(fmt.Sprintf("  ... and %d more", hidden)))
		}
	}
}
