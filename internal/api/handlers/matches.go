package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/eshaffer321/billmatch/internal/api/dto"
	"github.com/eshaffer321/billmatch/internal/application/reconcile"
	"github.com/eshaffer321/billmatch/internal/infrastructure/storage"
)

// MatchesHandler handles match listing and decisions.
type MatchesHandler struct {
	*Base
	service *reconcile.Service
}

// NewMatchesHandler creates a new matches handler.
// service may be nil when only listing is needed.
func NewMatchesHandler(repo storage.Repository, service *reconcile.Service) *MatchesHandler {
	return &MatchesHandler{
		Base:    NewBase(repo),
		service: service,
	}
}

// List handles GET /api/matches - returns matches, newest first.
// Query params: run_id, status (proposed|confirmed|rejected|superseded), limit.
func (h *MatchesHandler) List(w http.ResponseWriter, r *http.Request) {
	params := dto.DefaultMatchListParams()
	params.RunID = r.URL.Query().Get("run_id")
	params.Status = r.URL.Query().Get("status")
	params.Limit = ParseIntParam(r, "limit", params.Limit)

	switch storage.MatchStatus(params.Status) {
	case "", storage.MatchProposed, storage.MatchConfirmed, storage.MatchRejected, storage.MatchSuperseded:
	default:
		h.WriteError(w, http.StatusBadRequest,
			dto.ValidationError("status must be one of proposed, confirmed, rejected, superseded"))
		return
	}

	records, err := h.repo.ListMatches(storage.MatchFilters{
		RunID:  params.RunID,
		Status: storage.MatchStatus(params.Status),
		Limit:  params.Limit,
	})
	if err != nil {
		h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
		return
	}

	response := dto.MatchListResponse{
		Matches: make([]dto.MatchResponse, 0, len(records)),
		Count:   len(records),
	}
	for _, record := range records {
		response.Matches = append(response.Matches, toMatchResponse(record))
	}

	h.WriteJSON(w, http.StatusOK, response)
}

// Confirm handles POST /api/matches/{id}/confirm - marks the bill paid.
func (h *MatchesHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		h.WriteError(w, http.StatusBadRequest, dto.BadRequestError("match ID is required"))
		return
	}

	decision, err := h.service.Confirm(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	bill := toBillResponse(decision.Bill)
	h.WriteJSON(w, http.StatusOK, dto.DecisionResponse{
		Match: toMatchResponse(decision.Match),
		Bill:  &bill,
	})
}

// Reject handles POST /api/matches/{id}/reject - turns a proposal down.
func (h *MatchesHandler) Reject(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		h.WriteError(w, http.StatusBadRequest, dto.BadRequestError("match ID is required"))
		return
	}

	record, err := h.service.Reject(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, dto.DecisionResponse{
		Match: toMatchResponse(record),
	})
}
