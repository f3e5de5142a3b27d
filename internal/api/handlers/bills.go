package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/eshaffer321/billmatch/internal/api/dto"
	"github.com/eshaffer321/billmatch/internal/infrastructure/storage"
)

// BillsHandler handles bill-related HTTP requests.
type BillsHandler struct {
	*Base
}

// NewBillsHandler creates a new bills handler.
func NewBillsHandler(repo storage.Repository) *BillsHandler {
	return &BillsHandler{
		Base: NewBase(repo),
	}
}

// List handles GET /api/bills - returns all bills.
func (h *BillsHandler) List(w http.ResponseWriter, r *http.Request) {
	bills, err := h.repo.ListBills()
	if err != nil {
		h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
		return
	}

	response := dto.BillListResponse{
		Bills: make([]dto.BillResponse, 0, len(bills)),
		Count: len(bills),
	}
	for _, bill := range bills {
		response.Bills = append(response.Bills, toBillResponse(bill))
	}

	h.WriteJSON(w, http.StatusOK, response)
}

// Get handles GET /api/bills/{id} - returns a single bill.
func (h *BillsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		h.WriteError(w, http.StatusBadRequest, dto.BadRequestError("bill ID is required"))
		return
	}

	bill, err := h.repo.GetBill(id)
	if err != nil {
		h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
		return
	}
	if bill == nil {
		h.WriteError(w, http.StatusNotFound, dto.NotFoundError("bill"))
		return
	}

	h.WriteJSON(w, http.StatusOK, toBillResponse(bill))
}
