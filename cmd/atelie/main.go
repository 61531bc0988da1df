package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"atelie/internal/backend"
	"atelie/internal/cli"
	apphttp "atelie/internal/http"
	"atelie/internal/store"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()
	cfg := cli.LoadAndValidateConfig(logger)

	// Snapshot storage for the application state.
	result, err := backend.CreateSnapshotter(logger, backend.Config{
		Type:         backend.BackendType(cfg.DataBackend),
		BoltDBPath:   cfg.BoltDBPath,
		SQLiteDBPath: cfg.SQLiteDBPath,
	})
	if err != nil {
		logger.Error("Failed to initialize snapshot backend", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}

	// AMQP is optional; without it the cash book export is skipped.
	eventsClient := cli.ConnectEvents(logger, cfg)

	var publisher store.Publisher
	if eventsClient != nil {
		publisher = eventsClient
	}

	st, err := store.Open(context.Background(), result.Snapshotter, publisher)
	if err != nil {
		logger.Error("Failed to open application store", "error", err)
		os.Exit(1)
	}

	srv := apphttp.NewServer(":"+cfg.Port, st)
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 25*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		if eventsClient != nil {
			if err := eventsClient.Close(); err != nil {
				logger.Error("AMQP close error", "error", err)
			}
		}
		if result.Cleanup != nil {
			if err := result.Cleanup(); err != nil {
				logger.Error("Backend cleanup error", "error", err)
			}
		}
	})

	logger.Info("Starting atelie server",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"ledger_export", eventsClient != nil)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
