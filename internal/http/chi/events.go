package chi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ferryhook/relay/event"
)

/* HTTP layer DTOs for the events API
 * Separate from domain entities to avoid leaking internal structure
 */

// eventResponse represents one stored event in the API
type eventResponse struct {
	ID          string     `json:"id"`
	SourceID    string     `json:"source_id"`
	Status      string     `json:"status"`
	ContentType string     `json:"content_type,omitempty"`
	Method      string     `json:"method,omitempty"`
	Body        string     `json:"body"`
	ReceivedAt  time.Time  `json:"received_at"`
	ProcessedAt *time.Time `json:"processed_at,omitempty"`
	DeliveredAt *time.Time `json:"delivered_at,omitempty"`
	ExpiresAt   time.Time  `json:"expires_at"`
}

// attemptResponse represents one delivery attempt in the API
type attemptResponse struct {
	AttemptNumber  int       `json:"attempt_number"`
	ConnectionID   string    `json:"connection_id"`
	DestinationURL string    `json:"destination_url"`
	StatusCode     int       `json:"status_code"`
	ResponseBody   string    `json:"response_body,omitempty"`
	LatencyMs      int64     `json:"latency_ms"`
	Error          string    `json:"error,omitempty"`
	AttemptedAt    time.Time `json:"attempted_at"`
}

func toEventResponse(evt event.Event) eventResponse {
	return eventResponse{
		ID:          evt.ID,
		SourceID:    evt.SourceID,
		Status:      evt.Status.String(),
		ContentType: evt.ContentType,
		Method:      evt.Method,
		Body:        string(evt.Body),
		ReceivedAt:  evt.ReceivedAt,
		ProcessedAt: evt.ProcessedAt,
		DeliveredAt: evt.DeliveredAt,
		ExpiresAt:   evt.ExpiresAt,
	}
}

// getEvent handles GET /v1/events/{id}
func getEvent(events event.Reader) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		evt, err := events.GetEvent(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			respondServiceError(w, err)
			return
		}
		if evt == nil {
			respondError(w, http.StatusNotFound, "not_found", "event not found")
			return
		}

		respondJSON(w, http.StatusOK, toEventResponse(*evt))
	})
}

// getEventAttempts handles GET /v1/events/{id}/attempts
func getEventAttempts(events event.Reader) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		evt, err := events.GetEvent(r.Context(), id)
		if err != nil {
			respondServiceError(w, err)
			return
		}
		if evt == nil {
			respondError(w, http.StatusNotFound, "not_found", "event not found")
			return
		}

		attempts, err := events.ListAttempts(r.Context(), id)
		if err != nil {
			respondServiceError(w, err)
			return
		}

		responses := make([]attemptResponse, 0, len(attempts))
		for _, att := range attempts {
			responses = append(responses, attemptResponse{
				AttemptNumber:  att.AttemptNumber,
				ConnectionID:   att.ConnectionID,
				DestinationURL: att.DestinationURL,
				StatusCode:     att.StatusCode,
				ResponseBody:   att.ResponseBody,
				LatencyMs:      att.LatencyMs,
				Error:          att.Error,
				AttemptedAt:    att.AttemptedAt,
			})
		}

		respondJSON(w, http.StatusOK, responses)
	})
}
