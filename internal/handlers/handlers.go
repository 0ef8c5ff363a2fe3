package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	apperrors "github.com/merchflow/autopilot/internal/errors"
)

// userIDHeader carries the authenticated tenant. Session authentication is
// handled upstream; this header stands in for the resolved principal.
const userIDHeader = "X-User-ID"

func tenantID(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := r.Header.Get(userIDHeader)
	if userID == "" {
		http.Error(w, "missing "+userIDHeader+" header", http.StatusBadRequest)
		return "", false
	}
	return userID, true
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeServiceError maps the error taxonomy to HTTP statuses. AlreadyReviewed
// is intentionally absent: callers treat it as success before reaching here.
func writeServiceError(w http.ResponseWriter, err error) {
	var validation *apperrors.ErrValidation
	switch {
	case errors.As(err, &validation):
		http.Error(w, validation.Error(), http.StatusBadRequest)
	case errors.Is(err, apperrors.ErrInvalidArgument):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, apperrors.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, apperrors.ErrExecutorUnavailable):
		http.Error(w, err.Error(), http.StatusBadGateway)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
