package main

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"

	"expensetracker/internal/amqp"
	"expensetracker/internal/cli"
	"expensetracker/internal/config"
	"expensetracker/internal/log"
	"expensetracker/internal/sheets"
	"expensetracker/internal/sheets/google"
	"expensetracker/internal/worker"
)

func main() {
	cfg, logger := cli.LoadAndValidateConfig((*config.Config).ValidateWorker)
	cli.Banner(logger, "expense-worker", cfg)

	svc, err := cli.BuildServices(context.Background(), cfg, logger, cli.ServiceOptions{})
	if err != nil {
		cli.Fatal(logger, "Failed to initialize services", err)
	}
	defer svc.Close()

	sheetsClient, err := google.New(context.Background(), google.Config{
		SpreadsheetID:   cfg.GoogleSpreadsheetID,
		CredentialsJSON: cfg.GoogleCredentialsJSON,
		CredentialsFile: cfg.GoogleCredentialsFile,
	})
	if err != nil {
		cli.Fatal(logger, "Failed to initialize Google Sheets client", err)
	}

	consumer, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		cli.Fatal(logger, "Failed to initialize AMQP client", err)
	}
	defer consumer.Close()

	w := worker.NewExportWorker(sheets.NewExporter(svc.Expenses, sheetsClient), cfg.ExportReconcile)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, nil)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return consumer.ConsumeExpenseEvents(gctx, w.HandleEvent)
	})
	g.Go(func() error {
		return w.RunReconcile(gctx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		cli.Fatal(logger.WithComponent(log.ComponentWorker), "Worker stopped", err)
	}
	cli.WaitForShutdown(ctx, done)
	logger.WithComponent(log.ComponentWorker).Info("Worker shutdown complete")
}
