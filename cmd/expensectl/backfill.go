package main

import (
	"github.com/spf13/cobra"

	"expensetracker/internal/cli"
)

func backfillCmd(a *app) *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "backfill-index",
		Short: "Recompute monthKey and the GSI1 keys of every stored expense",
		Long: `Scans every expense, derives monthKey, GSI1PK and GSI1SK from occurredAt
and rewrites the items whose stored values differ. Items with an unparsable
occurredAt are counted as failed and left untouched.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withServices(cmd.Context(), func(svc *cli.Services) error {
				report, err := svc.Expenses.BackfillIndex(cmd.Context(), dryRun)
				if err != nil {
					return err
				}
				return printJSON(cmd, report)
			})
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "report what would change without writing")
	return cmd
}
