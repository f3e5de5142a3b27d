package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eshaffer321/billmatch/internal/api/dto"
	"github.com/eshaffer321/billmatch/internal/api/handlers"
	"github.com/eshaffer321/billmatch/internal/application/reconcile"
	"github.com/eshaffer321/billmatch/internal/domain/matcher"
	"github.com/eshaffer321/billmatch/internal/infrastructure/storage"
)

// proposeNetflix runs reconciliation once and returns the proposed match ID
func proposeNetflix(t *testing.T) (*storage.MockRepository, *reconcile.Service, string) {
	t.Helper()
	repo := storage.NewMockRepository()
	seedNetflix(t, repo)
	svc := newService(repo, matcher.DefaultSettings())

	result, err := svc.Run(context.Background(), reconcile.RunOptions{})
	require.NoError(t, err)
	require.Len(t, result.Matches, 1)

	return repo, svc, result.Matches[0].MatchID
}

func TestMatchesHandler_List(t *testing.T) {
	t.Run("lists matches with filters", func(t *testing.T) {
		repo, svc, matchID := proposeNetflix(t)
		handler := handlers.NewMatchesHandler(repo, svc)

		req := httptest.NewRequest(http.MethodGet, "/api/matches?status=proposed", nil)
		rec := httptest.NewRecorder()

		handler.List(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)

		var response dto.MatchListResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
		require.Equal(t, 1, response.Count)
		assert.Equal(t, matchID, response.Matches[0].ID)
		assert.NotEmpty(t, response.Matches[0].CreatedAt)
		assert.Empty(t, response.Matches[0].DecidedAt)
	})

	t.Run("status filter excludes other statuses", func(t *testing.T) {
		repo, svc, _ := proposeNetflix(t)
		handler := handlers.NewMatchesHandler(repo, svc)

		req := httptest.NewRequest(http.MethodGet, "/api/matches?status=confirmed", nil)
		rec := httptest.NewRecorder()

		handler.List(rec, req)

		var response dto.MatchListResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
		assert.Equal(t, 0, response.Count)
		assert.NotNil(t, response.Matches)
	})

	t.Run("rejects unknown status", func(t *testing.T) {
		handler := handlers.NewMatchesHandler(storage.NewMockRepository(), nil)

		req := httptest.NewRequest(http.MethodGet, "/api/matches?status=maybe", nil)
		rec := httptest.NewRecorder()

		handler.List(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestMatchesHandler_Confirm(t *testing.T) {
	t.Run("confirms and returns the paid bill", func(t *testing.T) {
		repo, svc, matchID := proposeNetflix(t)
		handler := handlers.NewMatchesHandler(repo, svc)

		req := httptest.NewRequest(http.MethodPost, "/api/matches/"+matchID+"/confirm", nil)
		req = req.WithContext(setChiURLParam(req.Context(), "id", matchID))
		rec := httptest.NewRecorder()

		handler.Confirm(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)

		var response dto.DecisionResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
		assert.Equal(t, "confirmed", response.Match.Status)
		require.NotNil(t, response.Bill)
		assert.True(t, response.Bill.IsPaid)
		require.NotNil(t, response.Bill.LastPaidDate)
		assert.Equal(t, "2024-03-10", *response.Bill.LastPaidDate)
		require.NotNil(t, response.Bill.DueDate)
		assert.Equal(t, "2024-04-09", *response.Bill.DueDate)
	})

	t.Run("second decision conflicts", func(t *testing.T) {
		repo, svc, matchID := proposeNetflix(t)
		handler := handlers.NewMatchesHandler(repo, svc)

		for i, want := range []int{http.StatusOK, http.StatusConflict} {
			req := httptest.NewRequest(http.MethodPost, "/api/matches/"+matchID+"/confirm", nil)
			req = req.WithContext(setChiURLParam(req.Context(), "id", matchID))
			rec := httptest.NewRecorder()

			handler.Confirm(rec, req)

			assert.Equal(t, want, rec.Code, "attempt %d", i+1)
		}
	})

	t.Run("bill already paid through the transaction date conflicts", func(t *testing.T) {
		repo, svc, matchID := proposeNetflix(t)
		handler := handlers.NewMatchesHandler(repo, svc)

		bill, err := repo.GetBill("netflix")
		require.NoError(t, err)
		bill.IsPaid = true
		bill.LastPaidDate = matcher.Some(day(2024, 3, 10))
		require.NoError(t, repo.SaveBill(bill))

		req := httptest.NewRequest(http.MethodPost, "/api/matches/"+matchID+"/confirm", nil)
		req = req.WithContext(setChiURLParam(req.Context(), "id", matchID))
		rec := httptest.NewRecorder()

		handler.Confirm(rec, req)

		assert.Equal(t, http.StatusConflict, rec.Code)

		var response dto.APIError
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
		assert.Equal(t, dto.ErrCodeConflict, response.Code)
	})

	t.Run("returns 404 for unknown match", func(t *testing.T) {
		repo := storage.NewMockRepository()
		handler := handlers.NewMatchesHandler(repo, newService(repo, matcher.DefaultSettings()))

		req := httptest.NewRequest(http.MethodPost, "/api/matches/nope/confirm", nil)
		req = req.WithContext(setChiURLParam(req.Context(), "id", "nope"))
		rec := httptest.NewRecorder()

		handler.Confirm(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestMatchesHandler_Reject(t *testing.T) {
	repo, svc, matchID := proposeNetflix(t)
	handler := handlers.NewMatchesHandler(repo, svc)

	req := httptest.NewRequest(http.MethodPost, "/api/matches/"+matchID+"/reject", nil)
	req = req.WithContext(setChiURLParam(req.Context(), "id", matchID))
	rec := httptest.NewRecorder()

	handler.Reject(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var response dto.DecisionResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
	assert.Equal(t, "rejected", response.Match.Status)
	assert.Nil(t, response.Bill)

	bill, err := repo.GetBill("netflix")
	require.NoError(t, err)
	assert.False(t, bill.IsPaid)
}
