// Command dashboard is the BeatBorders dashboard server.
//
// Usage:
//
//	beatborders-dashboard
//	API_PORT=8080 beatborders-dashboard

// @title BeatBorders Dashboard API
// @version 1.0.0
// @description Country/genre popularity maps and rankings built from the latest snapshot. All responses are served from the immutable startup dataset with ETag support.
// @host localhost:8050
// @BasePath /api/v1
// @schemes http https
// @contact.name BeatBorders
// @license.name MIT
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"

	"github.com/beatborders/beatborders/internal/api"
	"github.com/beatborders/beatborders/internal/cache"
	"github.com/beatborders/beatborders/internal/config"
	"github.com/beatborders/beatborders/internal/dataset"

	_ "github.com/beatborders/beatborders/docs" // swagger docs
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	// Load .env if present
	_ = godotenv.Load(".env")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Context with signal handling
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	// Load the dataset: snapshot, boundaries, precomputed joins. A missing
	// snapshot or an unusable boundary file is fatal; there is nothing to
	// serve without them.
	logger.Info("Loading dataset...",
		"snapshot", cfg.SnapshotPath(),
		"boundaries", cfg.BoundariesPath())
	data, err := dataset.Load(cfg.SnapshotPath(), cfg.BoundariesPath(), logger)
	if err != nil {
		logger.Error("Failed to load dataset", "error", err,
			"hint", "run 'beatborders-refresh snapshot' and 'beatborders-refresh boundaries' first")
		os.Exit(1)
	}

	// Initialize cache
	appCache := cache.New(cfg.CacheEnabled)
	defer appCache.Close()
	logger.Info("Cache initialized", "enabled", cfg.CacheEnabled)

	// Create router
	router := api.NewRouter(data, appCache, cfg)

	// Create HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.APIHost, cfg.APIPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in background
	go func() {
		logger.Info("Starting BeatBorders dashboard",
			"addr", addr,
			"environment", cfg.Environment,
			"docs", fmt.Sprintf("http://localhost:%d/docs/", cfg.APIPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt
	<-ctx.Done()
	logger.Info("Shutting down...")

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Shutdown error", "error", err)
	}
	logger.Info("Server stopped")
}
