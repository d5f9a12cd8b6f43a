package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"expensetracker/internal/backend"
	"expensetracker/internal/dynamo"
	"expensetracker/internal/log"
	"expensetracker/internal/storage"
)

func migrateCmd(a *app) *cobra.Command {
	var status bool
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply the SQLite schema migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if a.cfg.DataBackend != string(backend.SQLiteBackend) {
				return fmt.Errorf("migrate needs the sqlite backend, got %q", a.cfg.DataBackend)
			}
			path := a.cfg.SQLiteDBPath
			if !status {
				if err := storage.RunMigrations(path); err != nil {
					return err
				}
				a.logger.Info("Migrations applied", log.FieldOperation, log.OpStartup, "path", path)
			}
			version, dirty, err := storage.MigrationVersion(path)
			if err != nil {
				return err
			}
			return printJSON(cmd, map[string]any{"path": path, "version": version, "dirty": dirty})
		},
	}
	cmd.Flags().BoolVar(&status, "status", false, "only report the applied version")
	return cmd
}

func createTablesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "create-tables",
		Short: "Create the DynamoDB tables and indexes if they are missing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if a.cfg.DataBackend != string(backend.DynamoDBBackend) {
				return fmt.Errorf("create-tables needs the dynamodb backend, got %q", a.cfg.DataBackend)
			}
			bcfg, err := backend.FromAppConfig(a.cfg)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			client, err := dynamo.NewClient(ctx, bcfg.DynamoDB())
			if err != nil {
				return err
			}
			if err := dynamo.EnsureTables(ctx, client, bcfg.DynamoDB()); err != nil {
				return err
			}
			return printJSON(cmd, map[string]any{
				"expensesTable": a.cfg.ExpensesTableName,
				"usersTable":    a.cfg.UsersTableName,
			})
		},
	}
}
