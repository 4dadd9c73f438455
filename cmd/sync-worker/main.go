package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"spendwise/internal/amqp"
	"spendwise/internal/config"
	applog "spendwise/internal/log"
	"spendwise/internal/sheets"
	sheetsgoogle "spendwise/internal/sheets/google"
	sheetsmemory "spendwise/internal/sheets/memory"
	"spendwise/internal/worker"
)

func main() {
	_ = godotenv.Load()

	logger := applog.New(applog.Config{Component: "sync-worker"})
	applog.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the sync worker")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var appender sheets.ExpenseAppender
	if cfg.GoogleSpreadsheetID != "" {
		client, err := sheetsgoogle.NewFromEnv(ctx)
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", "error", err)
			os.Exit(1)
		}
		appender = client
		logger.Info("Mirroring expenses to Google Sheets", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		appender = sheetsmemory.New()
		logger.Warn("GOOGLE_SPREADSHEET_ID not set, mirroring to in-memory sink")
	}

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer client.Close()

	syncWorker := worker.NewSyncWorker(appender)

	logger.Info("Starting sync worker", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	if err := client.Consume(ctx, syncWorker.HandleEvent); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Consumer stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("Sync worker stopped")
}
