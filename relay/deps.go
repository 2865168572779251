package relay

import (
	"context"

	"github.com/ferryhook/relay/source"
)

/* Consumer-side interfaces for the pipeline's collaborators
 * Declared here, where they are used, so tests can substitute fakes
 * per test case
 */

// EntityCache is the read-through cache over source records
type EntityCache interface {
	GetSource(ctx context.Context, id string) (*source.Source, error)
	GetConnections(ctx context.Context, sourceID string) ([]source.Connection, error)
}

// RateLimiter is per-key sliding-window admission control
type RateLimiter interface {
	// Allow reports whether one more event may be admitted for the key.
	// Implementations fail open; Allow never returns an error.
	Allow(ctx context.Context, key string, perMinute int) bool
}
