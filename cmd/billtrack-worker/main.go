package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"billtrack/internal/amqp"
	"billtrack/internal/config"
	"billtrack/internal/log"
	gsheet "billtrack/internal/sheets/google"
	"billtrack/internal/storage"
	"billtrack/internal/worker"
)

func main() {
	_ = godotenv.Load()

	logger := log.New(log.Config{})
	log.SetDefault(logger)
	logger.Info("starting billtrack-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("configuration validation failed", "error", err)
		os.Exit(1)
	}
	if cfg.GoogleSpreadsheetID == "" {
		logger.Error("the worker requires the sheets backend; set GOOGLE_SPREADSHEET_ID")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repo, err := storage.NewRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("failed to initialize storage", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	remote, err := gsheet.New(ctx, cfg.GoogleSpreadsheetID, cfg.DefaultSheetName)
	if err != nil {
		logger.Error("failed to initialize sheets client", "error", err)
		os.Exit(1)
	}

	queue, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer queue.Close()

	syncWorker := worker.NewSyncWorker(repo, remote, cfg.SyncBatchSize, logger)

	// Catch up on anything written while the worker was down.
	if err := syncWorker.ProcessPending(ctx); err != nil {
		logger.Error("startup sync check failed", "error", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return queue.Consume(gctx, func(msg *amqp.PaymentSyncMessage) error {
			return syncWorker.HandleMessage(gctx, msg)
		})
	})
	g.Go(func() error {
		return syncWorker.RunPendingSweep(gctx, cfg.SyncInterval)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("worker stopped gracefully")
}
