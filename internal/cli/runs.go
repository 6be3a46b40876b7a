package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/KshitijBharambe/hygiene/internal/state"
)

func newRunsCommand() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "runs [run-id]",
		Short: "List past validation runs, or show one run's results",
		RunE: func(cmd *cobra.Command, args []string) error {
			store := state.NewSQLiteStore(logger)
			if err := store.Open(cfg.StatePath); err != nil {
				return err
			}
			defer store.Close()

			if len(args) > 0 {
				return showRun(cmd, store, args[0])
			}
			return listRuns(cmd, store, limit)
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum runs to list")
	return cmd
}

func listRuns(cmd *cobra.Command, store state.Store, limit int) error {
	runs, err := store.ListRuns(limit)
	if err != nil {
		return err
	}

	if cfg.Output == "json" {
		return json.NewEncoder(cmd.OutOrStdout()).Encode(runs)
	}

	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"ID", "Dataset", "Mode", "Status", "Started"})
	for _, run := range runs {
		t.AppendRow(table.Row{
			run.ID, run.DatasetName, run.Mode, string(run.Status),
			run.StartedAt.Local().Format(time.DateTime),
		})
	}
	t.Render()
	return nil
}

func showRun(cmd *cobra.Command, store state.Store, runID string) error {
	run, err := store.GetRun(runID)
	if err != nil {
		return err
	}
	results, err := store.ResultsForRun(runID)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if cfg.Output == "json" {
		return json.NewEncoder(out).Encode(map[string]any{"run": run, "results": results})
	}

	fmt.Fprintf(out, "%s  %s (%s, %s)\n",
		headerStyle.Render(run.ID), run.DatasetName, run.Mode, string(run.Status))

	t := table.NewWriter()
	t.SetOutputMirror(out)
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
	return nil
}
