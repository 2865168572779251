package chi

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httplog"

	"github.com/ferryhook/relay/event"
	"github.com/ferryhook/relay/relay"
)

/* Consumer-side service contracts for the HTTP surface, so handler
 * tests can substitute mocks for the pipeline services
 */

// IngestService admits inbound webhooks
type IngestService interface {
	Ingest(ctx context.Context, req relay.IngestRequest) (relay.IngestResult, error)
}

// ReplayService re-delivers stored events on request
type ReplayService interface {
	Replay(ctx context.Context, eventID string, connectionIDs []string) (int, error)
}

// CacheInvalidator drops cached routing records after management writes
type CacheInvalidator interface {
	InvalidateSource(ctx context.Context, id string)
	InvalidateConnections(ctx context.Context, sourceID string)
}

// Handlers sets up the relay API routes
func Handlers(ingest IngestService, events event.Reader, replay ReplayService, invalidator CacheInvalidator, metricsHandler http.Handler) *chi.Mux {
	logger := httplog.NewLogger("ferryhook-relay", httplog.Options{
		JSON: true,
	})

	r := chi.NewRouter()
	r.Use(httplog.RequestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	})

	// Inbound front door, one endpoint per source
	r.Post("/ingest/{source_id}", postIngest(ingest).ServeHTTP)

	r.Route("/v1", func(r chi.Router) {
		r.Get("/events/{id}", getEvent(events).ServeHTTP)
		r.Get("/events/{id}/attempts", getEventAttempts(events).ServeHTTP)
		r.Post("/events/{id}/replay", postReplay(replay).ServeHTTP)

		r.Post("/sources/{id}/invalidate", postInvalidateSource(invalidator).ServeHTTP)
		r.Post("/sources/{id}/connections/invalidate", postInvalidateConnections(invalidator).ServeHTTP)
	})

	if metricsHandler != nil {
		r.Get("/metrics", metricsHandler.ServeHTTP)
	}

	return r
}
