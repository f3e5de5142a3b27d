package handlers

import (
	"net/http"
	"time"

	"github.com/eshaffer321/billmatch/internal/api/dto"
	"github.com/eshaffer321/billmatch/internal/infrastructure/storage"
)

// TransactionsHandler handles transaction-related HTTP requests.
type TransactionsHandler struct {
	*Base
	now func() time.Time
}

// NewTransactionsHandler creates a new transactions handler.
func NewTransactionsHandler(repo storage.Repository) *TransactionsHandler {
	return &TransactionsHandler{
		Base: NewBase(repo),
		now:  time.Now,
	}
}

// List handles GET /api/transactions - returns stored transactions, newest first.
// Query params: days (only the last N days, 0 = all), limit.
func (h *TransactionsHandler) List(w http.ResponseWriter, r *http.Request) {
	params := dto.DefaultTransactionListParams()
	params.Days = ParseIntParam(r, "days", params.Days)
	params.Limit = ParseIntParam(r, "limit", params.Limit)

	if params.Days < 0 || params.Limit < 0 {
		h.WriteError(w, http.StatusBadRequest, dto.ValidationError("days and limit must not be negative"))
		return
	}

	filters := storage.TransactionFilters{Limit: params.Limit}
	if params.Days > 0 {
		today := h.now().UTC()
		filters.Since = time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC).
			AddDate(0, 0, -params.Days)
	}

	txs, err := h.repo.ListTransactions(filters)
	if err != nil {
		h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
		return
	}

	response := dto.TransactionListResponse{
		Transactions: make([]dto.TransactionResponse, 0, len(txs)),
		Count:        len(txs),
	}
	for _, tx := range txs {
		response.Transactions = append(response.Transactions, toTransactionResponse(tx))
	}

	h.WriteJSON(w, http.StatusOK, response)
}
