package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eshaffer321/billmatch/internal/infrastructure/config"
	"github.com/eshaffer321/billmatch/internal/infrastructure/storage"
)

func TestRunReconcile_EndToEnd(t *testing.T) {
	cfg := config.Defaults()
	cfg.Storage.DatabasePath = filepath.Join(t.TempDir(), "reconcile.db")
	cfg.Reconcile.LookbackDays = 0
	cfg.Observability.Logging.Level = "error"

	// Seed through the importer against the real database
	store, err := storage.NewStorage(cfg.Storage.DatabasePath)
	require.NoError(t, err)
	_, err = NewImporter(store, nil).Import(strings.NewReader(sampleFixture))
	require.NoError(t, err)
	require.NoError(t, store.Close())

	var out bytes.Buffer
	err = RunReconcile(context.Background(), &out, cfg, ReconcileFlags{DryRun: true})

	require.NoError(t, err)
	assert.Contains(t, out.String(), "DRY-RUN")
	assert.Contains(t, out.String(), "Netflix")
	assert.Contains(t, out.String(), "Matches=1")

	// Dry run stored no matches
	store, err = storage.NewStorage(cfg.Storage.DatabasePath)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()
	matches, err := store.ListMatches(storage.MatchFilters{})
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestRunReconcile_Disabled(t *testing.T) {
	cfg := config.Defaults()
	cfg.Storage.DatabasePath = filepath.Join(t.TempDir(), "reconcile.db")
	cfg.Matching.Enabled = false
	cfg.Observability.Logging.Level = "error"

	err := RunReconcile(context.Background(), &bytes.Buffer{}, cfg, ReconcileFlags{})

	assert.Error(t, err)
}
