package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eshaffer321/billmatch/internal/api/dto"
	"github.com/eshaffer321/billmatch/internal/api/handlers"
	"github.com/eshaffer321/billmatch/internal/domain/matcher"
	"github.com/eshaffer321/billmatch/internal/infrastructure/storage"
)

func TestTransactionsHandler_List(t *testing.T) {
	newRepo := func(t *testing.T) *storage.MockRepository {
		repo := storage.NewMockRepository()
		today := time.Now().UTC()
		for i, offset := range []int{1, 10, 100} {
			_, err := repo.SaveTransaction(&matcher.Transaction{
				ID:          string(rune('a' + i)),
				Description: "Payment",
				Category:    matcher.Some("Bills"),
				Amount:      decimal.RequireFromString("-12.5"),
				Date:        time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, -offset),
				Type:        matcher.TypeExpense,
			})
			require.NoError(t, err)
		}
		return repo
	}

	t.Run("returns all transactions newest first", func(t *testing.T) {
		handler := handlers.NewTransactionsHandler(newRepo(t))

		req := httptest.NewRequest(http.MethodGet, "/api/transactions", nil)
		rec := httptest.NewRecorder()

		handler.List(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)

		var response dto.TransactionListResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
		require.Equal(t, 3, response.Count)
		assert.Equal(t, "a", response.Transactions[0].ID)
		assert.Equal(t, "-12.50", response.Transactions[0].Amount)
		assert.Equal(t, "expense", response.Transactions[0].Type)
		require.NotNil(t, response.Transactions[0].Category)
		assert.Equal(t, "Bills", *response.Transactions[0].Category)
	})

	t.Run("filters by days", func(t *testing.T) {
		handler := handlers.NewTransactionsHandler(newRepo(t))

		req := httptest.NewRequest(http.MethodGet, "/api/transactions?days=30", nil)
		rec := httptest.NewRecorder()

		handler.List(rec, req)

		var response dto.TransactionListResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
		assert.Equal(t, 2, response.Count)
	})

	t.Run("respects limit", func(t *testing.T) {
		handler := handlers.NewTransactionsHandler(newRepo(t))

		req := httptest.NewRequest(http.MethodGet, "/api/transactions?limit=1", nil)
		rec := httptest.NewRecorder()

		handler.List(rec, req)

		var response dto.TransactionListResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
		assert.Equal(t, 1, response.Count)
	})

	t.Run("rejects negative values", func(t *testing.T) {
		handler := handlers.NewTransactionsHandler(newRepo(t))

		req := httptest.NewRequest(http.MethodGet, "/api/transactions?days=-3", nil)
		rec := httptest.NewRecorder()

		handler.List(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
