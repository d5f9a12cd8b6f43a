// Command expensectl runs maintenance and debugging tasks against the
// configured expense store.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"expensetracker/internal/cli"
	"expensetracker/internal/config"
	"expensetracker/internal/log"
)

// app carries what every subcommand needs once the root has loaded config.
type app struct {
	cfg    *config.Config
	logger *log.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	var backendFlag, logLevel string

	root := &cobra.Command{
		Use:           "expensectl",
		Short:         "Administer the expense tracker store",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cli.LoadEnvFile()
			a.cfg = config.Load()
			if backendFlag != "" {
				a.cfg.DataBackend = backendFlag
			}
			if logLevel != "" {
				a.cfg.LogLevel = logLevel
			}
			a.logger = cli.SetupLoggerTo(cmd.ErrOrStderr(), a.cfg.LogLevel, a.cfg.LogFormat)
			return a.cfg.Validate()
		},
	}
	root.PersistentFlags().StringVar(&backendFlag, "backend", "", "data backend (memory, sqlite, dynamodb); defaults to DATA_BACKEND")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")

	root.AddCommand(migrateCmd(a))
	root.AddCommand(createTablesCmd(a))
	root.AddCommand(backfillCmd(a))
	root.AddCommand(queryCmd(a))
	root.AddCommand(exportCmd(a))
	return root
}

// withServices builds the service graph for one command run.
func (a *app) withServices(ctx context.Context, fn func(*cli.Services) error) error {
	svc, err := cli.BuildServices(ctx, a.cfg, a.logger, cli.ServiceOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			a.logger.Warn("Failed to release resources", log.FieldError, err)
		}
	}()
	return fn(svc)
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
