package main

import (
	"context"
	"errors"
	"os"

	"golang.org/x/time/rate"

	"farmstead/internal/amqp"
	"farmstead/internal/cli"
	"farmstead/internal/log"
	gsheet "farmstead/internal/sheets/google"
	"farmstead/internal/worker"
)

// Sheets allows 60 write requests per minute per user.
const sheetsWritesPerSecond = 1

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))

	if err := run(logger); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker exited with error", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Worker shutdown complete")
}

func run(logger *log.Logger) error {
	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		return err
	}
	if err := cfg.ValidateExport(); err != nil {
		return err
	}

	ctx, cancel := cli.SignalContext(context.Background(), logger)
	defer cancel()

	sheets, err := gsheet.NewFromConfig(ctx, cfg, logger)
	if err != nil {
		return err
	}
	logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
	if err != nil {
		return err
	}
	defer client.Close()

	w := worker.NewExportWorker(sheets, rate.NewLimiter(rate.Limit(sheetsWritesPerSecond), 5), logger)

	// Catch up on entries recorded while no worker was consuming.
	res, err := cli.OpenBackend(ctx, cfg, logger)
	if err != nil {
		logger.Warn("Skipping startup reconcile, backend unavailable", log.FieldError, err)
	} else {
		n, err := w.Reconcile(ctx, res.Backend)
		if err != nil {
			logger.Error("Startup reconcile failed", log.FieldError, err)
		} else {
			logger.Info("Startup reconcile complete", "exported", n)
		}
		if err := res.Close(); err != nil {
			logger.Warn("Backend cleanup failed", log.FieldError, err)
		}
	}

	logger.Info("Consuming ledger events", "queue", cfg.AMQPQueue)
	return client.ConsumeWithReconnect(ctx, w.Handle)
}
