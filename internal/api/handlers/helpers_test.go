package handlers_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/eshaffer321/billmatch/internal/application/reconcile"
	"github.com/eshaffer321/billmatch/internal/domain/matcher"
	"github.com/eshaffer321/billmatch/internal/infrastructure/storage"
)

// setChiURLParam sets a chi URL parameter in the request context
func setChiURLParam(ctx context.Context, key, value string) context.Context {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return context.WithValue(ctx, chi.RouteCtxKey, rctx)
}

func newService(repo storage.Repository, settings matcher.Settings) *reconcile.Service {
	// Lookback 0 keeps fixture dates in range regardless of today
	return reconcile.NewService(repo, settings, 0, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// seedNetflix stores a bill and a transaction that match with high confidence
func seedNetflix(t *testing.T, repo storage.Repository) {
	t.Helper()
	require.NoError(t, repo.SaveBill(&matcher.Bill{
		ID:       "netflix",
		Name:     "Netflix",
		Category: matcher.Some("Entertainment"),
		Amount:   decimal.RequireFromString("15.99"),
		Interval: matcher.IntervalMonthly,
		DueDate:  matcher.Some(day(2024, 3, 10)),
	}))
	_, err := repo.SaveTransaction(&matcher.Transaction{
		ID:          "tx1",
		Description: "NETFLIX",
		Amount:      decimal.RequireFromString("-15.99"),
		Date:        day(2024, 3, 10),
	})
	require.NoError(t, err)
}
