package chi

import (
	"encoding/json"
	"io"
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ferryhook/relay/relay"
)

// ingestResponse is the body returned on an accepted ingest
type ingestResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// replayRequest optionally restricts a replay to named connections
type replayRequest struct {
	ConnectionIDs []string `json:"connection_ids"`
}

// replayResponse reports how many deliveries a replay seeded
type replayResponse struct {
	EventID    string `json:"event_id"`
	Deliveries int    `json:"deliveries"`
}

// maxIngestBody caps inbound payloads at 1 MiB
const maxIngestBody = 1 << 20

// postIngest handles POST /ingest/{source_id}
func postIngest(service IngestService) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sourceID := chi.URLParam(r, "source_id")

		body, err := io.ReadAll(io.LimitReader(r.Body, maxIngestBody+1))
		if err != nil {
			respondError(w, http.StatusBadRequest, "validation_failed", "failed to read request body")
			return
		}
		defer r.Body.Close()
		if len(body) > maxIngestBody {
			respondError(w, http.StatusRequestEntityTooLarge, "payload_too_large", "payload exceeds 1 MiB")
			return
		}

		headers := make(map[string]string, len(r.Header))
		for key, values := range r.Header {
			if len(values) > 0 {
				headers[key] = values[0]
			}
		}

		sourceIP, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			sourceIP = r.RemoteAddr
		}

		res, err := service.Ingest(r.Context(), relay.IngestRequest{
			SourceID:    sourceID,
			Headers:     headers,
			Body:        body,
			SourceIP:    sourceIP,
			ContentType: r.Header.Get("Content-Type"),
			Method:      r.Method,
		})
		if err != nil {
			respondServiceError(w, err)
			return
		}

		respondJSON(w, http.StatusOK, ingestResponse{
			ID:     res.EventID,
			Status: res.Status.String(),
		})
	})
}

// postReplay handles POST /v1/events/{id}/replay
func postReplay(service ReplayService) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		eventID := chi.URLParam(r, "id")

		var req replayRequest
		if r.Body != nil {
			// An empty body means replay to every active connection
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
				respondError(w, http.StatusBadRequest, "validation_failed", "malformed request body")
				return
			}
		}

		n, err := service.Replay(r.Context(), eventID, req.ConnectionIDs)
		if err != nil {
			respondServiceError(w, err)
			return
		}

		respondJSON(w, http.StatusAccepted, replayResponse{
			EventID:    eventID,
			Deliveries: n,
		})
	})
}

// postInvalidateSource handles POST /v1/sources/{id}/invalidate
func postInvalidateSource(invalidator CacheInvalidator) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		invalidator.InvalidateSource(r.Context(), chi.URLParam(r, "id"))
		w.WriteHeader(http.StatusNoContent)
	})
}

// postInvalidateConnections handles POST /v1/sources/{id}/connections/invalidate
func postInvalidateConnections(invalidator CacheInvalidator) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		invalidator.InvalidateConnections(r.Context(), chi.URLParam(r, "id"))
		w.WriteHeader(http.StatusNoContent)
	})
}
