// Package main is the entry point for the valuation service.
// It computes value-creation metrics for a universe of listed companies,
// ranks them, flags opportunities and suggests portfolio allocations.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/modelfleuriet/valuation/internal/config"
	"github.com/modelfleuriet/valuation/internal/di"
	"github.com/modelfleuriet/valuation/internal/server"
	"github.com/modelfleuriet/valuation/pkg/logger"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallbackLog := logger.New(logger.Config{
			Level:  "info",
			Pretty: true,
		})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})
	logger.SetGlobalLogger(log)

	log.Info().
		Str("version", version).
		Str("data_dir", cfg.DataDir).
		Str("schedule", cfg.AnalysisSchedule).
		Msg("Starting valuation service")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	container, err := di.Wire(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to wire dependencies")
	}
	defer func() {
		if err := container.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close database")
		}
	}()

	// Serve the last stored snapshot until the first run completes
	if err := container.AnalysisService.Restore(ctx); err != nil {
		log.Warn().Err(err).Msg("Could not restore previous analysis")
	}

	srv := server.New(server.Config{
		Log:       log,
		Port:      cfg.Port,
		DevMode:   cfg.DevMode,
		Database:  container.DB,
		Valuation: container.Handlers,
		Gatherer:  container.Registry,
		Version:   version,
	})

	go func() {
		if err := srv.Start(); err != nil {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	container.Scheduler.Start()
	go func() {
		if err := container.Scheduler.RunNow(container.AnalysisJob); err != nil {
			log.Error().Err(err).Msg("Initial analysis failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}
