package cli

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/eshaffer321/recurring-finder/internal/adapters/links"
	"github.com/eshaffer321/recurring-finder/internal/api"
	"github.com/eshaffer321/recurring-finder/internal/application/service"
	"github.com/eshaffer321/recurring-finder/internal/infrastructure/config"
	"github.com/eshaffer321/recurring-finder/internal/infrastructure/logging"
	"github.com/eshaffer321/recurring-finder/internal/infrastructure/storage"
	"github.com/eshaffer321/recurring-finder/internal/observability"
)

// RunServe runs the API server until SIGINT or SIGTERM.
func RunServe(cfg *config.Config, flags *ServeFlags) error {
	// Set up logging
	loggingCfg := cfg.Observability.Logging
	if flags.Verbose {
		loggingCfg.Level = "debug"
	}
	logger := logging.NewLoggerWithSystem(loggingCfg, "api")

	// Initialize storage
	store, err := storage.NewStorage(cfg.Storage.DatabasePath)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	resolver, err := links.Load(cfg.Links.File, cfg.Links.SimilarityThreshold, logger.With("system", "links"))
	if err != nil {
		return err
	}

	metrics := observability.NewMetrics()
	svc := service.NewAnalysisService(cfg.Analysis.EngineConfig(), store, resolver, metrics, logger)

	apiCfg := api.Config{
		Port:           cfg.API.Port,
		AllowedOrigins: cfg.API.AllowedOrigins,
	}
	if flags.Port != 0 {
		apiCfg.Port = flags.Port
	}

	server := api.NewServer(apiCfg, svc, metrics, store, logger)

	// Handle graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	done := make(chan struct{})
	go func() {
		defer close(done)
		<-ctx.Done()
		logger.Info("received shutdown signal")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown error", slog.Any("error", err))
		}
	}()

	// Start server (blocks until shutdown)
	if err := server.Start(); err != nil {
		stop()
		<-done
		return err
	}

	<-done
	logger.Info("server stopped")
	return nil
}
