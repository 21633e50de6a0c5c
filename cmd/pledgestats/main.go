package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pledgestats/internal/amqp"
	"pledgestats/internal/config"
	applog "pledgestats/internal/log"
	"pledgestats/internal/records"
	"pledgestats/internal/records/memory"
	"pledgestats/internal/stats"
	"pledgestats/internal/storage"

	"github.com/joho/godotenv"

	statshttp "pledgestats/internal/http"
)

func main() {
	_ = godotenv.Load()

	logger := applog.New(applog.DefaultConfig())
	applog.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	loc, err := cfg.Location()
	if err != nil {
		logger.Error("Failed to load timezone", "error", err)
		os.Exit(1)
	}
	weekStart, err := config.ParseWeekday(cfg.WeekStart)
	if err != nil {
		logger.Error("Failed to parse week start", "error", err)
		os.Exit(1)
	}

	var store records.RecordReader
	switch cfg.DataBackend {
	case "memory":
		store = memory.New()
		logger.Info("Using in-memory pledge store")
	default:
		repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
		if err != nil {
			logger.Error("Failed to open pledge store", "error", err, "path", cfg.SQLiteDBPath)
			os.Exit(1)
		}
		defer repo.Close()
		store = repo
		logger.Info("Using SQLite pledge store", "path", cfg.SQLiteDBPath)
	}

	opts := stats.DefaultOptions(loc)
	opts.WeekStart = weekStart
	opts.TopStates = cfg.TopStates

	engine, err := stats.New(store, opts)
	if err != nil {
		logger.Error("Failed to configure report engine", "error", err)
		os.Exit(1)
	}

	srv := statshttp.NewServer(":"+cfg.Port, engine, loc, cfg.SummaryCacheTTL)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Pledge-created events flush the summary cache so new pledges show up
	// before the TTL expires. The server runs fine without a broker.
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to connect to AMQP, continuing without events", "error", err)
		} else {
			defer client.Close()
			go func() {
				err := client.ConsumePledgeCreated(ctx, func(msg *amqp.PledgeCreatedMessage) error {
					srv.InvalidateReports()
					logger.Info("Invalidated report caches",
						"reference", msg.Reference,
						"pledge_id", msg.ID)
					return nil
				})
				if err != nil && ctx.Err() == nil {
					logger.Error("Event consumer stopped", "error", err)
				}
			}()
		}
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Received shutdown signal", "signal", sig)

		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown failed", "error", err)
		}
	}()

	logger.Info("Starting statistics server",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"timezone", cfg.Timezone)

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server failed", "error", err)
		os.Exit(1)
	}

	logger.Info("Server stopped")
}
