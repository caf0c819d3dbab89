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

	"github.com/astro-analytics/video-tagging-go/internal/config"
	"github.com/astro-analytics/video-tagging-go/internal/handler"
	"github.com/astro-analytics/video-tagging-go/internal/metrics"
	"github.com/astro-analytics/video-tagging-go/internal/middleware"
	"github.com/astro-analytics/video-tagging-go/internal/service"
	"github.com/astro-analytics/video-tagging-go/internal/store"
	"github.com/astro-analytics/video-tagging-go/internal/validation"
	"github.com/astro-analytics/video-tagging-go/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.File); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg); err != nil {
		logger.Log.Error("Server exited with error", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	ctx := context.Background()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(registry)

	backend, err := store.OpenBackend(ctx, cfg.Storage)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	records := store.NewRecordStore(backend, m)
	defer func() {
		if err := records.Close(); err != nil {
			logger.Log.Error("Failed to close store", zap.Error(err))
		}
	}()

	logger.Log.Info("Record store ready", zap.String("backend", cfg.Storage.Backend))

	taggingService := service.NewTaggingService(
		records,
		validation.New(cfg.Vocabulary),
		m,
		service.Settings{
			MaxAgeDays:   cfg.Retention.MaxAgeDays,
			SeekDebounce: cfg.Seek.Debounce,
		},
	)
	defer taggingService.Close()

	if cfg.Retention.SweepOnStartup {
		if result, err := taggingService.Sweep(ctx); err != nil {
			logger.Log.Warn("Startup retention sweep failed", zap.Error(err))
		} else {
			logger.Log.Info("Startup retention sweep finished",
				zap.Int("removed", result.Removed),
				zap.Int("maxAgeDays", result.MaxAgeDays),
			)
		}
	}

	healthHandler := handler.NewHealthHandler(records, nil)
	if cfg.RabbitMQ.Enabled {
		publisher, err := service.NewExportPublisher(&cfg.RabbitMQ)
		if err != nil {
			return fmt.Errorf("connect export publisher: %w", err)
		}
		defer func() { _ = publisher.Close() }()

		taggingService.SetPublisher(publisher)
		healthHandler = handler.NewHealthHandler(records, publisher)
	}

	var auth gin.HandlerFunc
	apiKeyAuth := middleware.NewAPIKeyAuth(cfg.Auth.APIKeys)
	if apiKeyAuth.Enabled() {
		auth = apiKeyAuth.Handler()
	} else {
		logger.Log.Warn("No API keys configured, API authentication is disabled")
	}

	gin.SetMode(cfg.Server.Mode)
	router := handler.NewRouter(handler.Routes{
		Tagging: handler.NewTaggingHandler(taggingService),
		Export:  handler.NewExportHandler(taggingService),
		Health:  healthHandler,
		Metrics: promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}),
	}, auth, middleware.RequestID(), middleware.RequestLogger())

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Log.Info("Server starting",
			zap.Int("port", cfg.Server.Port),
			zap.String("mode", cfg.Server.Mode),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- err
		}
		close(serverErrors)
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err, ok := <-serverErrors:
		if ok {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case sig := <-shutdown:
		logger.Log.Info("Shutdown signal received", zap.String("signal", sig.String()))

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			_ = server.Close()
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}

		logger.Log.Info("Server stopped gracefully")
		return nil
	}
}
