package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/eshaffer321/billmatch/internal/api"
	"github.com/eshaffer321/billmatch/internal/application/reconcile"
	"github.com/eshaffer321/billmatch/internal/application/scheduler"
	"github.com/eshaffer321/billmatch/internal/infrastructure/config"
	"github.com/eshaffer321/billmatch/internal/infrastructure/storage"
)

// RunServe runs the API server and, when enabled, the reconciliation scheduler.
func RunServe(cfg *config.Config, flags *ServeFlags) error {
	logger := NewLogger(cfg, "api", flags.Verbose)

	// Initialize storage
	store, err := storage.NewStorageWithLogger(cfg.Storage.DatabasePath, logger)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	service := reconcile.NewService(store, cfg.Matching, cfg.Reconcile.LookbackDays, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Scheduler
	var sched *scheduler.Scheduler
	if cfg.Scheduler.Enabled {
		sched = scheduler.NewScheduler(ctx, service, reconcile.RunOptions{}, NewLogger(cfg, "scheduler", flags.Verbose))
		if err := sched.Register(cfg.Scheduler.Cron); err != nil {
			return err
		}
		sched.Start()
		if cfg.Scheduler.RunOnStart {
			go sched.RunNow()
		}
	}

	apiCfg := api.Config{
		Port:           cfg.API.Port,
		AllowedOrigins: cfg.API.AllowedOrigins,
	}
	if flags.Port > 0 {
		apiCfg.Port = flags.Port
	}

	server := api.NewServer(apiCfg, store, service, logger)

	// Handle graceful shutdown
	done := make(chan bool, 1)
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		logger.Info("received shutdown signal")

		// Cancels an in-flight reconciliation
		cancel()
		if sched != nil {
			sched.Stop()
		}

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown error", slog.Any("error", err))
		}
		close(done)
	}()

	// Start server (blocks until shutdown)
	if err := server.Start(); err != nil {
		return err
	}

	<-done
	logger.Info("server stopped")
	return nil
}
