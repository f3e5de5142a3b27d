package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/eshaffer321/billmatch/internal/api/dto"
	"github.com/eshaffer321/billmatch/internal/application/reconcile"
)

// ReconcileHandler starts reconciliation passes.
type ReconcileHandler struct {
	*Base
	service *reconcile.Service
}

// NewReconcileHandler creates a new reconcile handler.
func NewReconcileHandler(service *reconcile.Service) *ReconcileHandler {
	return &ReconcileHandler{
		Base:    &Base{},
		service: service,
	}
}

// Run handles POST /api/reconcile - runs a pass synchronously and returns its matches.
// An empty body runs with defaults; ?dry_run=true overrides the body.
func (h *ReconcileHandler) Run(w http.ResponseWriter, r *http.Request) {
	var req dto.ReconcileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		h.WriteError(w, http.StatusBadRequest, dto.BadRequestError("invalid request body"))
		return
	}

	req.DryRun = ParseBoolParam(r, "dry_run", req.DryRun)

	if req.LookbackDays < 0 {
		h.WriteError(w, http.StatusBadRequest, dto.ValidationError("lookback_days must not be negative"))
		return
	}

	result, err := h.service.Run(r.Context(), reconcile.RunOptions{
		DryRun:       req.DryRun,
		LookbackDays: req.LookbackDays,
	})
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	response := dto.ReconcileResponse{
		RunID:                  result.RunID,
		DryRun:                 result.DryRun,
		BillsConsidered:        result.BillsConsidered,
		TransactionsConsidered: result.TransactionsConsidered,
		AutoConfirmed:          result.AutoConfirmed,
		Matches:                make([]dto.MatchResponse, 0, len(result.Matches)),
	}
	for _, outcome := range result.Matches {
		response.Matches = append(response.Matches, toOutcomeResponse(result.RunID, outcome))
	}

	h.WriteJSON(w, http.StatusOK, response)
}
