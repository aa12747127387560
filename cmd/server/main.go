package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/JonMunkholm/qrforge/internal/config"
	"github.com/JonMunkholm/qrforge/internal/core"
	"github.com/JonMunkholm/qrforge/internal/logging"
	"github.com/JonMunkholm/qrforge/internal/metrics"
	"github.com/JonMunkholm/qrforge/internal/store"
	"github.com/JonMunkholm/qrforge/internal/web"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("configuration loaded", "config", cfg.String())

	ctx := context.Background()
	st, err := store.Open(ctx, store.Config{
		URL:             cfg.Database.URL,
		MaxConns:        cfg.Database.MaxConns,
		MinConns:        cfg.Database.MinConns,
		MaxConnLifetime: cfg.Database.MaxConnLifetime,
		MaxConnIdleTime: cfg.Database.MaxConnIdleTime,
	})
	if err != nil {
		slog.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer st.Close()

	backend := "sqlite"
	if store.IsPostgres(cfg.Database.URL) {
		backend = "postgres"
	}
	slog.Info("store ready", "backend", backend)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	service, err := core.NewService(st, core.Options{
		ExportDir:        cfg.Batch.ExportDir,
		Workers:          cfg.Batch.Workers,
		CompressionLevel: cfg.Batch.CompressionLevel,
		MaxImagePixels:   cfg.Batch.MaxImagePixels,
		MaxCSVSize:       cfg.Batch.MaxCSVSize,
		MaxConcurrent:    cfg.Batch.MaxConcurrent,
		MaxWaitTime:      cfg.Batch.MaxWaitTime,
		Metrics:          metrics.New(reg),
	})
	if err != nil {
		slog.Error("failed to create service", "error", err)
		os.Exit(1)
	}

	server := web.NewServer(service, cfg, reg)

	jobCtx, cancelJobs := context.WithCancel(context.Background())
	go service.StartExportCleanup(jobCtx, core.CleanupConfig{
		MaxAge:        cfg.Batch.ExportRetention,
		CheckInterval: cfg.Batch.CleanupInterval,
	})

	// Graceful shutdown
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")
		cancelJobs()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		// Let running batches finish writing their archives.
		if status := service.LimiterStatus(); status.Active > 0 {
			slog.Info("waiting for batches to complete", "active", status.Active)
			if err := service.WaitForBatches(shutdownCtx); err != nil {
				slog.Warn("batches did not complete in time", "error", err)
			} else {
				slog.Info("all batches completed")
			}
		}

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	if err := server.Start(cfg.Server.Addr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
	<-stopped
	slog.Info("server stopped")
}
