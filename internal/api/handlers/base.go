package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/eshaffer321/billmatch/internal/api/dto"
	"github.com/eshaffer321/billmatch/internal/application/reconcile"
	"github.com/eshaffer321/billmatch/internal/infrastructure/storage"
)

// Base provides shared functionality for all handlers.
type Base struct {
	repo storage.Repository
}

// NewBase creates a new base handler with the given repository.
func NewBase(repo storage.Repository) *Base {
	return &Base{repo: repo}
}

// WriteJSON writes a JSON response with the given status code.
func (b *Base) WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// WriteError writes an error response with the given status code.
func (b *Base) WriteError(w http.ResponseWriter, status int, err dto.APIError) {
	b.WriteJSON(w, status, err)
}

// writeServiceError maps reconcile errors to HTTP responses.
func (b *Base) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, reconcile.ErrMatchNotFound):
		b.WriteError(w, http.StatusNotFound, dto.NotFoundError("match"))
	case errors.Is(err, reconcile.ErrMatchDecided):
		b.WriteError(w, http.StatusConflict, dto.ConflictError("match has already been decided"))
	case errors.Is(err, reconcile.ErrMatchConflict):
		b.WriteError(w, http.StatusConflict, dto.ConflictError("a payment is already recorded for this bill or transaction"))
	case errors.Is(err, reconcile.ErrRunInProgress):
		b.WriteError(w, http.StatusConflict, dto.ConflictError("a reconciliation run is already in progress"))
	case errors.Is(err, reconcile.ErrDisabled):
		b.WriteError(w, http.StatusServiceUnavailable, dto.UnavailableError("reconciliation is disabled"))
	default:
		b.WriteError(w, http.StatusInternalServerError, dto.InternalError())
	}
}

// ParseIntParam parses an integer query parameter with a default value.
func ParseIntParam(r *http.Request, name string, defaultVal int) int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return parsed
}

// ParseBoolParam parses a boolean query parameter with a default value.
func ParseBoolParam(r *http.Request, name string, defaultVal bool) bool {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	return val == "true" || val == "1"
}
