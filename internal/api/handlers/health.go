package handlers

import (
	"context"
	"net/http"

	"github.com/eshaffer321/billmatch/internal/api/dto"
)

// HealthCheck reports whether a dependency is reachable.
type HealthCheck func(ctx context.Context) error

// HealthHandler handles health check requests.
type HealthHandler struct {
	*Base
	check HealthCheck
}

// NewHealthHandler creates a new health handler. A nil check always reports ok.
func NewHealthHandler(check HealthCheck) *HealthHandler {
	return &HealthHandler{
		Base:  &Base{},
		check: check,
	}
}

// ServeHTTP handles the health check request.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	response := dto.NewHealthResponse()

	if h.check != nil {
		if err := h.check(r.Context()); err != nil {
			response.Status = "unavailable"
			h.WriteJSON(w, http.StatusServiceUnavailable, response)
			return
		}
	}

	h.WriteJSON(w, http.StatusOK, response)
}
