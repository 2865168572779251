package chi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ferryhook/relay/relay"
)

// errorBody is the envelope every non-2xx response carries
type errorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		json.NewEncoder(w).Encode(v)
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	var body errorBody
	body.Error.Code = code
	body.Error.Message = message
	respondJSON(w, status, body)
}

// respondServiceError maps the relay error taxonomy onto HTTP statuses.
// Anything outside the taxonomy is an infrastructure failure.
func respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, relay.ErrSourceNotFound):
		respondError(w, http.StatusNotFound, "not_found", "source not found")
	case errors.Is(err, relay.ErrEventNotFound):
		respondError(w, http.StatusNotFound, "not_found", "event not found")
	case errors.Is(err, relay.ErrRateLimited):
		respondError(w, http.StatusTooManyRequests, "rate_limited", "rate limit exceeded")
	case errors.Is(err, relay.ErrPlanLimitReached):
		respondError(w, http.StatusTooManyRequests, "plan_limit_reached", "monthly event limit reached")
	case errors.Is(err, relay.ErrValidation):
		respondError(w, http.StatusBadRequest, "validation_failed", err.Error())
	default:
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}
