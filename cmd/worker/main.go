// The worker runs recurring billing on a cron schedule until terminated.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"

	"github.com/felixgeelhaar/payved/internal/app"
	"github.com/felixgeelhaar/payved/pkg/config"
	"github.com/felixgeelhaar/payved/pkg/observability"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	cfg, err := config.Load()
	if err != nil {
		cfg = &config.Config{AppEnv: "development"}
	}

	logger := observability.NewLoggerFor(cfg.AppEnv, cfg.LogLevel)
	logger.Info("starting payved worker", "schedule", cfg.BillingSchedule)

	container, err := app.NewContainer(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize container", "error", err)
		os.Exit(1)
	}
	defer container.Close()

	cronLogger := cron.PrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelInfo))
	c := cron.New(cron.WithChain(cron.Recover(cronLogger)))

	if _, err := c.AddFunc(cfg.BillingSchedule, func() {
		result, err := container.BillingService.RunDueBilling(ctx)
		if err != nil {
			logger.Error("billing run failed", "error", err)
			return
		}
		if result.Attempted > 0 {
			logger.Info("billing run completed",
				"attempted", result.Attempted,
				"charged", result.Processed(),
				"failed", len(result.Failures),
			)
		}
	}); err != nil {
		logger.Error("failed to schedule billing job", "error", err)
		os.Exit(1)
	}

	c.Start()
	logger.Info("billing schedule active")

	sig := <-sigCh
	logger.Info("received shutdown signal", "signal", sig)

	// Let an in-flight billing run finish before tearing anything down.
	<-c.Stop().Done()
	cancel()
	logger.Info("payved worker stopped")
}
