package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eshaffer321/billmatch/internal/api/dto"
	"github.com/eshaffer321/billmatch/internal/api/handlers"
	"github.com/eshaffer321/billmatch/internal/domain/matcher"
	"github.com/eshaffer321/billmatch/internal/infrastructure/storage"
)

func TestReconcileHandler_Run(t *testing.T) {
	t.Run("runs with an empty body", func(t *testing.T) {
		repo := storage.NewMockRepository()
		seedNetflix(t, repo)
		handler := handlers.NewReconcileHandler(newService(repo, matcher.DefaultSettings()))

		req := httptest.NewRequest(http.MethodPost, "/api/reconcile", nil)
		rec := httptest.NewRecorder()

		handler.Run(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)

		var response dto.ReconcileResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
		assert.NotEmpty(t, response.RunID)
		assert.False(t, response.DryRun)
		assert.Equal(t, 1, response.BillsConsidered)
		require.Len(t, response.Matches, 1)

		m := response.Matches[0]
		assert.NotEmpty(t, m.ID)
		assert.Equal(t, "netflix", m.BillID)
		assert.Equal(t, "Netflix", m.BillName)
		assert.Equal(t, "tx1", m.TransactionID)
		assert.Equal(t, "high", m.Confidence)
		assert.Equal(t, "proposed", m.Status)
		assert.Contains(t, m.Reasons, "Exact name match")
	})

	t.Run("dry run from body", func(t *testing.T) {
		repo := storage.NewMockRepository()
		seedNetflix(t, repo)
		handler := handlers.NewReconcileHandler(newService(repo, matcher.DefaultSettings()))

		req := httptest.NewRequest(http.MethodPost, "/api/reconcile", strings.NewReader(`{"dry_run": true}`))
		rec := httptest.NewRecorder()

		handler.Run(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)

		var response dto.ReconcileResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
		assert.True(t, response.DryRun)
		require.Len(t, response.Matches, 1)
		assert.Empty(t, response.Matches[0].ID)

		stored, err := repo.ListMatches(storage.MatchFilters{})
		require.NoError(t, err)
		assert.Empty(t, stored)
	})

	t.Run("dry run from query", func(t *testing.T) {
		repo := storage.NewMockRepository()
		handler := handlers.NewReconcileHandler(newService(repo, matcher.DefaultSettings()))

		req := httptest.NewRequest(http.MethodPost, "/api/reconcile?dry_run=true", nil)
		rec := httptest.NewRecorder()

		handler.Run(rec, req)

		var response dto.ReconcileResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
		assert.True(t, response.DryRun)
		assert.Empty(t, response.Matches)
	})

	t.Run("rejects malformed body", func(t *testing.T) {
		repo := storage.NewMockRepository()
		handler := handlers.NewReconcileHandler(newService(repo, matcher.DefaultSettings()))

		req := httptest.NewRequest(http.MethodPost, "/api/reconcile", strings.NewReader(`{not json`))
		rec := httptest.NewRecorder()

		handler.Run(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("rejects negative lookback", func(t *testing.T) {
		repo := storage.NewMockRepository()
		handler := handlers.NewReconcileHandler(newService(repo, matcher.DefaultSettings()))

		req := httptest.NewRequest(http.MethodPost, "/api/reconcile", strings.NewReader(`{"lookback_days": -1}`))
		rec := httptest.NewRecorder()

		handler.Run(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)

		var response dto.APIError
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
		assert.Equal(t, dto.ErrCodeValidation, response.Code)
	})

	t.Run("returns 503 when disabled", func(t *testing.T) {
		settings := matcher.DefaultSettings()
		settings.Enabled = false
		handler := handlers.NewReconcileHandler(newService(storage.NewMockRepository(), settings))

		req := httptest.NewRequest(http.MethodPost, "/api/reconcile", nil)
		rec := httptest.NewRecorder()

		handler.Run(rec, req)

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})
}
