package source

import (
	"context"
	"time"
)

/* Small, focused interfaces written for the pipeline that consumes them
 * The management API owns writes to these records; the relay core only
 * reads them and bumps counters
 */

// Reader provides lookups for routing records
type Reader interface {
	// GetSource returns nil with no error when the source does not exist
	GetSource(ctx context.Context, id string) (*Source, error)
	// ListConnectionsBySource returns every connection regardless of status;
	// callers filter for Active
	ListConnectionsBySource(ctx context.Context, sourceID string) ([]Connection, error)
	GetOwner(ctx context.Context, ownerID string) (*Owner, error)
}

// CounterWriter bumps the usage and delivery counters.
// All of these are best-effort from the pipeline's point of view.
type CounterWriter interface {
	IncrementUsage(ctx context.Context, ownerID string) error
	// RecordSourceEvent bumps the source's event counter and last-event time
	RecordSourceEvent(ctx context.Context, sourceID string, at time.Time) error
	// RecordDeliveryResult bumps a connection's delivery or failure counter
	RecordDeliveryResult(ctx context.Context, connectionID string, delivered bool) error
}

// Store is the full entity store contract
type Store interface {
	Reader
	CounterWriter
	Close(ctx context.Context) error
}
