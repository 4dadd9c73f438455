package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"spendwise/internal/config"
	applog "spendwise/internal/log"
	"spendwise/internal/services"
	"spendwise/internal/storage"
)

func main() {
	_ = godotenv.Load()

	logger := applog.New(applog.Config{Component: "recurring-worker"})
	applog.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	processor := services.NewRecurringProcessor(repo)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("Starting recurring worker", "interval", cfg.RecurringInterval)

	// Each pass rolls forward every user that owns recurring definitions.
	// The daily guard makes a pass for an already-served user a no-op.
	run := func() {
		users, err := repo.RecurringUsers(ctx)
		if err != nil {
			logger.Error("Failed to enumerate recurring users", "error", err)
			return
		}
		for _, user := range users {
			result, err := processor.Run(ctx, user, time.Now().UTC())
			if err != nil {
				logger.Error("Recurring run failed",
					"user_id", user, "error", err, "processed", result.Processed)
				continue
			}
			if result.Processed > 0 {
				logger.Info("Recurring run complete",
					"user_id", user, "processed", result.Processed, "message", result.Message)
			}
		}
	}

	run()

	ticker := time.NewTicker(cfg.RecurringInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			run()
		case <-ctx.Done():
			logger.Info("Recurring worker stopped")
			return
		}
	}
}
