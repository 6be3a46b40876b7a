package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KshitijBharambe/hygiene/internal/sandbox"
)

func newCheckExprCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "check-expr <expression>",
		Short: "Validate a custom rule expression without running it",
		Long: `Run the sandbox's static security gate against an expression, as used
by custom rules. Useful for authoring feedback before a batch runs.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			evaluator := sandbox.NewEvaluator(sandbox.SecurityLevel(cfg.SecurityLevel), logger)
			if err := evaluator.Check(args[0]); err != nil {
				fmt.Fprintln(cmd.OutOrStdout(), failStyle.Render("rejected: "+err.Error()))
				return fmt.Errorf("expression rejected")
			}
			fmt.Fprintln(cmd.OutOrStdout(), okStyle.Render("ok"))
			return nil
		},
	}
}
