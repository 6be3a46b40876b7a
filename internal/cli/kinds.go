package cli

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/KshitijBharambe/hygiene/pkg/rules"
	_ "github.com/KshitijBharambe/hygiene/pkg/rules/validators" // register validator kinds
)

func newKindsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "kinds",
		Short: "List available validator kinds",
		RunE: func(cmd *cobra.Command, _ []string) error {
			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.SetStyle(table.StyleLight)
			t.AppendHeader(table.Row{"Kind", "Scope", "Description"})
			for _, def := range rules.AllKinds() {
				scope := "row"
				if def.WholeColumn {
					scope = "column"
				}
				t.AppendRow(table.Row{string(def.Kind), scope, def.Description})
			}
			t.Render()
			return nil
		},
	}
}
