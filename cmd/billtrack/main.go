package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"billtrack/internal/amqp"
	"billtrack/internal/config"
	apphttp "billtrack/internal/http"
	"billtrack/internal/log"
	"billtrack/internal/services"
	gsheet "billtrack/internal/sheets/google"
	"billtrack/internal/sheets/memory"
	"billtrack/internal/storage"
)

func main() {
	// Load .env for local development; absent in containers.
	_ = godotenv.Load()

	logger := log.New(log.Config{})
	log.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("configuration validation failed", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	snapshots, payments, registry, cleanup, err := buildServices(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize data backend", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	defer cleanup()

	srv := apphttp.NewServer(apphttp.Options{
		Addr:         ":" + cfg.Port,
		Schedule:     cfg.Schedule(),
		Accrual:      cfg.Accrual(),
		CacheTTL:     cfg.CacheTTL,
		CacheEntries: cfg.CacheEntries,
	}, snapshots, payments, registry, logger)

	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown error", "error", err)
		}
		cancel()
	}()

	logger.Info("starting billtrack server", "port", cfg.Port, "backend", cfg.DataBackend)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("server stopped gracefully")
}

// buildServices wires the data backend selected by configuration.
//
//	memory: a single in-process store, no durability, no queue.
//	sqlite: the local repository is authoritative, no queue.
//	sheets: write-behind. Writes land in SQLite and are queued for the
//	        worker; reads come from the sheet with the SQLite copy as
//	        outage fallback.
func buildServices(ctx context.Context, cfg *config.Config, logger *log.Logger) (*services.SnapshotService, *services.PaymentService, *services.RegistryService, func(), error) {
	switch cfg.DataBackend {
	case "sheets":
		repo, err := storage.NewRepository(cfg.SQLiteDBPath)
		if err != nil {
			return nil, nil, nil, nil, err
		}
		remote, err := gsheet.New(ctx, cfg.GoogleSpreadsheetID, cfg.DefaultSheetName)
		if err != nil {
			repo.Close()
			return nil, nil, nil, nil, err
		}
		queue, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			// Writes still land locally; the pending sweep will catch up.
			logger.Warn("AMQP unavailable, relying on the pending sweep", "error", err)
		}
		cleanup := func() {
			if queue != nil {
				queue.Close()
			}
			repo.Close()
		}
		var publisher services.Publisher
		if queue != nil {
			publisher = queue
		}
		return services.NewSnapshotService(remote, repo, repo, logger),
			services.NewPaymentService(repo, repo, publisher, logger),
			services.NewRegistryService(repo, logger),
			cleanup, nil

	case "sqlite":
		repo, err := storage.NewRepository(cfg.SQLiteDBPath)
		if err != nil {
			return nil, nil, nil, nil, err
		}
		return services.NewSnapshotService(repo, nil, repo, logger),
			services.NewPaymentService(repo, repo, nil, logger),
			services.NewRegistryService(repo, logger),
			func() { repo.Close() }, nil

	default:
		store := memory.New()
		return services.NewSnapshotService(store, nil, store, logger),
			services.NewPaymentService(store, store, nil, logger),
			services.NewRegistryService(store, logger),
			func() {}, nil
	}
}
