// Command engine is the Mama-Care reminder and notification scheduling
// engine.
//
// Usage:
//
//	mamacare-engine
//	API_PORT=8080 mamacare-engine
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/Talent5/Mama-Care/internal/api"
	"github.com/Talent5/Mama-Care/internal/config"
	"github.com/Talent5/Mama-Care/internal/db"
	"github.com/Talent5/Mama-Care/internal/notify"
	"github.com/Talent5/Mama-Care/internal/reminders"
	"github.com/Talent5/Mama-Care/internal/schedule"
	"github.com/Talent5/Mama-Care/internal/store"
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
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Connect to database
	logger.Info("Connecting to database...")
	pool, err := db.New(ctx, cfg)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	logger.Info("Database connected",
		"min_conns", cfg.DBPoolMinConns,
		"max_conns", cfg.DBPoolMaxConns)

	// Wire the dispatch pipeline
	records := store.New(pool.Pool)
	push := notify.NewExpoClient(cfg.ExpoBaseURL, cfg.ExpoAccessToken, cfg.PushRequestsPerMinute, logger)
	dispatcher := notify.NewDispatcher(records, push, cfg.PushBatchSize, logger)
	jobs := reminders.New(records, dispatcher, logger)

	// Register jobs on their cadences. The daily slot runs gestational age
	// recalculation before the milestone job (ordering is load-bearing);
	// cleanup gets the midnight slot.
	runner := schedule.NewRunner(dispatcher, cfg.BootDelay, logger)
	runner.Every(cfg.AppointmentInterval, schedule.NewTrigger("appointments", jobs.Appointments))
	runner.Every(cfg.MedicationInterval, schedule.NewTrigger("medications", jobs.Medications))
	runner.DailyAt(cfg.DailyHour, 0, schedule.NewTrigger("daily", jobs.Daily))
	runner.DailyAt(cfg.DailyHour, 30, schedule.NewTrigger("checkups", jobs.Checkups))
	runner.DailyAt(cfg.CleanupHour, 0, schedule.NewTrigger("cleanup", jobs.Cleanup))
	go runner.Start(ctx)

	// Create router
	router := api.NewRouter(pool, runner, cfg)

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
		logger.Info("Starting Mama-Care reminder engine",
			"addr", addr,
			"environment", cfg.Environment)
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
	logger.Info("Engine stopped")
}
