package main

import (
	"github.com/spf13/cobra"

	"expensetracker/internal/cli"
	"expensetracker/internal/core"
)

func queryCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query",
		Short: "Print stored expenses as JSON",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "month <userId> <YYYY-MM>",
		Short: "One user's expenses for a month, oldest first",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.printExpenses(cmd, func(svc *cli.Services) ([]core.Expense, error) {
				return svc.Expenses.ListByUserMonth(cmd.Context(), args[0], args[1])
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "day <userId> <YYYY-MM-DD>",
		Short: "One user's expenses whose id starts with the date",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.printExpenses(cmd, func(svc *cli.Services) ([]core.Expense, error) {
				return svc.Expenses.FindByUserDate(cmd.Context(), args[0], args[1])
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "all <YYYY-MM>",
		Short: "Every user's expenses for a month, oldest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.printExpenses(cmd, func(svc *cli.Services) ([]core.Expense, error) {
				return svc.Expenses.ListAllByMonth(cmd.Context(), args[0])
			})
		},
	})
	return cmd
}

func (a *app) printExpenses(cmd *cobra.Command, list func(*cli.Services) ([]core.Expense, error)) error {
	return a.withServices(cmd.Context(), func(svc *cli.Services) error {
		items, err := list(svc)
		if err != nil {
			return err
		}
		if items == nil {
			items = []core.Expense{}
		}
		return printJSON(cmd, map[string]any{"count": len(items), "items": items})
	})
}
