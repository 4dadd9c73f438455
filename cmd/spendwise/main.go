package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"spendwise/internal/amqp"
	"spendwise/internal/cache"
	"spendwise/internal/config"
	apphttp "spendwise/internal/http"
	applog "spendwise/internal/log"
	"spendwise/internal/report"
	"spendwise/internal/services"
	"spendwise/internal/storage"
)

func main() {
	// Load .env for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := applog.New(applog.Config{Component: "spendwise"})
	applog.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	// Choose data backend
	var (
		store   services.Store
		cleanup func() error
	)
	switch cfg.DataBackend {
	case "sqlite":
		repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
		if err != nil {
			logger.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
			os.Exit(1)
		}
		store, cleanup = repo, repo.Close
		logger.Info("Initialized SQLite backend", "db_path", cfg.SQLiteDBPath)
	default:
		store, cleanup = storage.NewMemoryStore(), func() error { return nil }
		logger.Info("Initialized memory backend")
	}
	defer cleanup()

	// Report caches: Redis when configured, in-process LRU otherwise.
	var caches services.Caches
	cacheManager := cache.NewManager()
	if cfg.RedisURL != "" {
		client, err := cache.NewRedisClient(cfg.RedisURL)
		if err != nil {
			logger.Warn("Failed to connect to Redis, falling back to in-process cache", "error", err)
		} else {
			defer client.Close()
			caches = services.Caches{
				Monthly:    cache.NewRedis[services.MonthlySummary](client, "report:monthly:", cfg.CacheTTL),
				Comparison: cache.NewRedis[report.Comparison](client, "report:comparison:", cfg.CacheTTL),
				Trend:      cache.NewRedis[[]report.TrendPoint](client, "report:trend:", cfg.CacheTTL),
			}
			logger.Info("Report cache backed by Redis", "url", cfg.RedisURL)
		}
	}
	if caches.Monthly == nil {
		monthly := cache.NewLRU[services.MonthlySummary](cfg.CacheMaxSize, cfg.CacheTTL)
		comparison := cache.NewLRU[report.Comparison](cfg.CacheMaxSize, cfg.CacheTTL)
		trend := cache.NewLRU[[]report.TrendPoint](cfg.CacheMaxSize, cfg.CacheTTL)
		cacheManager.Register(monthly)
		cacheManager.Register(comparison)
		cacheManager.Register(trend)
		cacheManager.StartCleanup(cfg.CacheTTL)
		defer cacheManager.Stop()
		caches = services.Caches{Monthly: monthly, Comparison: comparison, Trend: trend}
		logger.Info("Report cache in-process", "max_size", cfg.CacheMaxSize, "ttl", cfg.CacheTTL)
	}

	// AMQP event bus (optional)
	var events services.EventPublisher
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, continuing without events", "error", err)
		} else {
			defer client.Close()
			events = client
			logger.Info("AMQP event bus initialized", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	}

	reports := services.NewReportService(store, caches)
	expenses := services.NewExpenseService(store, events, reports.Invalidate)
	processor := services.NewRecurringProcessor(store)

	server := apphttp.NewServer(
		apphttp.Options{
			CORSOrigins:        cfg.CORSOrigins,
			RateLimitPerMinute: cfg.RateLimitPerMinute,
		},
		expenses, reports, processor, store,
	)
	defer server.Close()

	srv := &http.Server{
		Addr:           ":" + cfg.Port,
		Handler:        server.Handler(),
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 16,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting spendwise server", "port", cfg.Port, "backend", cfg.DataBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", "error", err)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
