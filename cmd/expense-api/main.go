package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"expensetracker/internal/auth"
	"expensetracker/internal/cli"
	"expensetracker/internal/config"
	"expensetracker/internal/graphql"
	apphttp "expensetracker/internal/http"
	"expensetracker/internal/log"
)

func main() {
	cfg, logger := cli.LoadAndValidateConfig((*config.Config).ValidateAPI)
	cli.Banner(logger, "expense-api", cfg)

	verifier, err := auth.NewVerifier(cfg.AuthJWTSecret, cfg.AuthTrustUpstream)
	if err != nil {
		cli.Fatal(logger, "Failed to configure authentication", err)
	}
	if cfg.AuthJWTSecret == "" {
		logger.WithComponent(log.ComponentAuth).Warn("Bearer tokens are not verified; an upstream gateway must verify them")
	}

	svc, err := cli.BuildServices(context.Background(), cfg, logger, cli.ServiceOptions{Events: true})
	if err != nil {
		cli.Fatal(logger, "Failed to initialize services", err)
	}

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Options{
		GraphQL:            graphql.NewHandler(graphql.NewResolver(svc.Expenses, svc.Profiles)),
		Authenticate:       verifier.Middleware,
		Ready:              svc.Backend.Ping,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		Logger:             logger,
	})

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) error {
		return errors.Join(srv.Shutdown(ctx), svc.Close())
	})

	logger.Info("Listening", "port", cfg.Port)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		cli.Fatal(logger, "Server error", err)
	}
	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
