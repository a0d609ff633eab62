package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/felixgeelhaar/payved/adapter/cli"
	cliBilling "github.com/felixgeelhaar/payved/adapter/cli/billing"
	cliPayment "github.com/felixgeelhaar/payved/adapter/cli/payment"
	cliSubscription "github.com/felixgeelhaar/payved/adapter/cli/subscription"
	"github.com/felixgeelhaar/payved/internal/app"
	"github.com/felixgeelhaar/payved/pkg/config"
	"github.com/felixgeelhaar/payved/pkg/observability"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		cancel()
	}()

	cfg, err := config.Load()
	if err != nil {
		cfg = &config.Config{AppEnv: "development"}
	}

	logger := observability.NewLoggerFor(cfg.AppEnv, cfg.LogLevel)
	cli.SetLogger(logger)

	container, err := app.NewContainer(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize container", "error", err)
		os.Exit(1)
	}
	defer container.Close()

	cli.SetApp(cli.NewApp(container.BillingService, container.Invoker))

	cli.AddCommand(cliPayment.Cmd)
	cli.AddCommand(cliSubscription.Cmd)
	cli.AddCommand(cliBilling.Cmd)

	cli.Execute()
}
