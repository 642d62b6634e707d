// cmd/jobsconsole/main.go
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"job-listings/internal/config"
	"job-listings/internal/console"
	"job-listings/internal/events"
	http_infra "job-listings/internal/infra/http"
	"job-listings/internal/logging"
	"job-listings/internal/tracing"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Stdout belongs to the shell; logs and spans go to stderr.
	logger := logging.New(os.Stderr, cfg.LogLevel)

	tracerShutdown, err := tracing.InitTracer("jobs-console", cfg.Tracing.Enabled, os.Stderr)
	if err != nil {
		log.Fatalf("failed to initialize tracer: %v", err)
	}
	defer func() {
		if err := tracerShutdown(context.Background()); err != nil {
			logger.Error("failed to shutdown tracer", "error", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client, err := http_infra.NewJobsClient(http_infra.ClientConfig{
		BaseURL:  cfg.Console.BaseURL,
		BasePath: cfg.Console.BasePath,
		Timeout:  cfg.Console.RequestTimeout,
	}, logger)
	if err != nil {
		log.Fatalf("Failed to create jobs api client: %v", err)
	}

	bus := events.NewBus(logger)
	defer bus.Close()

	shell := console.NewShell(os.Stdin, os.Stdout, logger)
	coordinator, err := console.NewCoordinator(client, bus, console.Options{
		PageSize: cfg.Console.PageSize,
		Confirm:  shell.Confirm,
	}, logger)
	if err != nil {
		log.Fatalf("Failed to start console: %v", err)
	}

	if err := shell.Run(ctx, coordinator); err != nil && ctx.Err() == nil {
		logger.Error("console stopped with error", "error", err)
		os.Exit(1)
	}
}
