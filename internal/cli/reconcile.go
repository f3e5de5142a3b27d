package cli

import (
	"context"
	"io"

	"github.com/eshaffer321/billmatch/internal/application/reconcile"
	"github.com/eshaffer321/billmatch/internal/infrastructure/config"
	"github.com/eshaffer321/billmatch/internal/infrastructure/storage"
)

// RunReconcile runs a single reconciliation pass and prints the result to w.
func RunReconcile(ctx context.Context, w io.Writer, cfg *config.Config, flags ReconcileFlags) error {
	logger := NewLogger(cfg, "reconcile", flags.Verbose)

	store, err := storage.NewStorageWithLogger(cfg.Storage.DatabasePath, logger)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	service := reconcile.NewService(store, cfg.Matching, cfg.Reconcile.LookbackDays, logger)

	lookback := cfg.Reconcile.LookbackDays
	if flags.LookbackDays > 0 {
		lookback = flags.LookbackDays
	}
	PrintHeader(w, flags.DryRun)
	PrintConfiguration(w, cfg.Matching, lookback)

	result, err := service.Run(ctx, flags.ToRunOptions())
	if err != nil {
		return err
	}

	PrintRunSummary(w, result)
	return nil
}
