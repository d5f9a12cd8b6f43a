package main

import (
	"github.com/spf13/cobra"

	"expensetracker/internal/cli"
	"expensetracker/internal/core"
	"expensetracker/internal/sheets"
	"expensetracker/internal/sheets/google"
)

func exportCmd(a *app) *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "export <YYYY-MM>",
		Short: "Write one month to its Google Sheet tab",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			month := args[0]
			if err := core.ValidateMonth(month); err != nil {
				return err
			}
			return a.withServices(cmd.Context(), func(svc *cli.Services) error {
				if dryRun {
					items, err := svc.Expenses.ListAllByMonth(cmd.Context(), month)
					if err != nil {
						return err
					}
					return printJSON(cmd, sheets.MonthRows(month, items))
				}
				client, err := google.New(cmd.Context(), google.Config{
					SpreadsheetID:   a.cfg.GoogleSpreadsheetID,
					CredentialsJSON: a.cfg.GoogleCredentialsJSON,
					CredentialsFile: a.cfg.GoogleCredentialsFile,
				})
				if err != nil {
					return err
				}
				if err := sheets.NewExporter(svc.Expenses, client).ExportMonth(cmd.Context(), month); err != nil {
					return err
				}
				return printJSON(cmd, map[string]any{"month": month, "exported": true})
			})
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the rows instead of writing them")
	return cmd
}
