package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"nhs-dashboard/internal/config"
	"nhs-dashboard/internal/handlers"
	"nhs-dashboard/internal/services"
	"nhs-dashboard/pkg/logging"
	"nhs-dashboard/pkg/metrics"
)

const version = "1.0.0"

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logLevel, ok := logging.ParseLevel(cfg.Logging.Level)
	logger := logging.NewStructuredLogger("nhs-dashboard", version, logLevel)

	ctx := context.Background()
	if !ok {
		logger.Warn(ctx, "[STARTUP] Unknown log level, using info", logging.Fields{
			"level": cfg.Logging.Level,
		})
	}

	logger.Info(ctx, "[STARTUP] Starting NHS appointments dashboard", logging.Fields{
		"version":        version,
		"server_host":    cfg.Server.Host,
		"server_port":    cfg.Server.Port,
		"dataset_source": cfg.Dataset.Source,
		"dataset_path":   cfg.Dataset.Path,
	})

	// Initialize metrics collector
	metricsCollector := metrics.NewCollector("nhs_dashboard", prometheus.DefaultRegisterer)

	// Load and aggregate the dataset once; it is read-only from here on
	loader := services.NewLoaderService(logger, metricsCollector)
	result, err := loader.LoadDataset(ctx, cfg)
	if err != nil {
		logger.Fatal(ctx, "[STARTUP_ERROR] Failed to load dataset", logging.Fields{
			"source": cfg.Dataset.Source,
		}, err)
	}

	aggregator := services.NewAggregationService(logger, metricsCollector)
	agg := aggregator.Aggregate(ctx, result.Records)

	// Initialize handlers
	dashboardService := services.NewDashboardService(agg, logger, metricsCollector)
	dashboardHandler := handlers.NewDashboardHandler(dashboardService, logger, metricsCollector)

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Address(),
		Handler:      handlers.NewRouter(dashboardHandler, logger, metricsCollector, prometheus.DefaultGatherer),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(sigCtx)

	g.Go(func() error {
		logger.Info(ctx, "[SERVER_START] HTTP server listening", logging.Fields{
			"address": server.Addr,
			"records": agg.RecordCount,
		})

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()

		logger.Info(ctx, "[SHUTDOWN] Shutting down server...", logging.Fields{})

		// Graceful shutdown with timeout
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error(ctx, "[SHUTDOWN_ERROR] Server stopped with error", logging.Fields{}, err)
		os.Exit(1)
	}

	logger.Info(ctx, "[SHUTDOWN_COMPLETE] Server stopped", logging.Fields{})
}
