package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/KshitijBharambe/hygiene/internal/dag"
	"github.com/KshitijBharambe/hygiene/internal/loader"
)

func newPlanCommand() *cobra.Command {
	var rulesFile string
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Show the execution plan for a rule batch",
		Long: `Validate a rule batch's dependency graph and print the execution
groups without running anything. Cycles, missing references, and
self-dependencies are reported together.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if rulesFile == "" {
				rulesFile = cfg.RulesFile
			}
			if rulesFile == "" {
				return fmt.Errorf("--rules is required")
			}

			ruleset, err := loader.LoadRules(rulesFile)
			if err != nil {
				return err
			}
			plan, err := dag.NewPlanner(logger).Plan(ruleset)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if cfg.Output == "json" {
				return json.NewEncoder(out).Encode(plan)
			}

			t := table.NewWriter()
			t.SetOutputMirror(out)
			t.SetStyle(table.StyleLight)
			t.AppendHeader(table.Row{"Group", "Rules"})
			for i, group := range plan.Groups {
				ids := make([]string, len(group))
				for j, rule := range group {
					ids[j] = rule.ID
				}
				t.AppendRow(table.Row{i + 1, strings.Join(ids, ", ")})
			}
			t.Render()

			fmt.Fprintf(out, "%d rules in %d groups, max dependency depth %d\n",
				plan.TotalRules(), len(plan.Groups), plan.MaxDepth)
			return nil
		},
	}

	cmd.Flags().StringVarP(&rulesFile, "rules", "r", "", "rule batch YAML file")
	return cmd
}
