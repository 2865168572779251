// Package cache is the read-through entity cache in front of the durable
// store. Any cache failure degrades to a direct store read; the cache is
// never allowed to fail the pipeline.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ferryhook/relay/signature"
	"github.com/ferryhook/relay/source"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	// SourceTTL bounds how stale a cached source can be
	SourceTTL = 5 * time.Minute
	/* ConnectionsTTL is deliberately shorter: connections change more
	 * often and routing to a paused or edited connection is costlier
	 * than a source lookup miss
	 */
	ConnectionsTTL = 1 * time.Minute

	sourceKeyPrefix      = "cache:src:"
	connectionsKeyPrefix = "cache:conns:"
)

type Cache struct {
	client *redis.Client
	store  source.Reader
	logger zerolog.Logger
}

// New creates an entity cache in front of the given store
func New(client *redis.Client, store source.Reader, logger zerolog.Logger) *Cache {
	return &Cache{
		client: client,
		store:  store,
		logger: logger,
	}
}

// GetSource returns the source from cache, falling back to the store on
// any miss or cache error. Store errors propagate; cache errors never do.
func (c *Cache) GetSource(ctx context.Context, id string) (*source.Source, error) {
	key := sourceKeyPrefix + id

	if cached, err := c.client.Get(ctx, key).Result(); err == nil {
		var record sourceRecord
		if err := json.Unmarshal([]byte(cached), &record); err == nil {
			return record.toSource(), nil
		}
	} else if err != redis.Nil {
		c.logger.Warn().Err(err).Str("source_id", id).
			Msg("source cache read failed, falling back to store")
	}

	src, err := c.store.GetSource(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("loading source: %w", err)
	}

	if src != nil {
		if raw, err := json.Marshal(newSourceRecord(src)); err == nil {
			if err := c.client.SetEx(ctx, key, raw, SourceTTL).Err(); err != nil {
				c.logger.Warn().Err(err).Str("source_id", id).
					Msg("source cache write failed")
			}
		}
	}
	return src, nil
}

// GetConnections returns the source's connections from cache, falling
// back to the store on any miss or cache error.
func (c *Cache) GetConnections(ctx context.Context, sourceID string) ([]source.Connection, error) {
	key := connectionsKeyPrefix + sourceID

	if cached, err := c.client.Get(ctx, key).Result(); err == nil {
		var conns []source.Connection
		if err := json.Unmarshal([]byte(cached), &conns); err == nil {
			return conns, nil
		}
	} else if err != redis.Nil {
		c.logger.Warn().Err(err).Str("source_id", sourceID).
			Msg("connection cache read failed, falling back to store")
	}

	conns, err := c.store.ListConnectionsBySource(ctx, sourceID)
	if err != nil {
		return nil, fmt.Errorf("loading connections: %w", err)
	}

	if raw, err := json.Marshal(conns); err == nil {
		if err := c.client.SetEx(ctx, key, raw, ConnectionsTTL).Err(); err != nil {
			c.logger.Warn().Err(err).Str("source_id", sourceID).
				Msg("connection cache write failed")
		}
	}
	return conns, nil
}

// InvalidateSource drops a cached source. Called synchronously by the
// management API's write paths.
func (c *Cache) InvalidateSource(ctx context.Context, id string) {
	if err := c.client.Del(ctx, sourceKeyPrefix+id).Err(); err != nil {
		c.logger.Warn().Err(err).Str("source_id", id).
			Msg("source cache invalidation failed")
	}
}

// InvalidateConnections drops a source's cached connection list
func (c *Cache) InvalidateConnections(ctx context.Context, sourceID string) {
	if err := c.client.Del(ctx, connectionsKeyPrefix+sourceID).Err(); err != nil {
		c.logger.Warn().Err(err).Str("source_id", sourceID).
			Msg("connection cache invalidation failed")
	}
}

/* sourceRecord keeps the cached JSON stable across enum renumbering:
 * statuses and algorithms round-trip through their string forms
 */
type sourceRecord struct {
	ID               string     `json:"id"`
	OwnerID          string     `json:"owner_id"`
	Name             string     `json:"name"`
	Provider         string     `json:"provider"`
	SigningSecret    string     `json:"signing_secret"`
	SigningAlgorithm string     `json:"signing_algorithm"`
	Status           string     `json:"status"`
	EventCount       int64      `json:"event_count"`
	LastEventAt      *time.Time `json:"last_event_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
}

func newSourceRecord(src *source.Source) sourceRecord {
	return sourceRecord{
		ID:               src.ID,
		OwnerID:          src.OwnerID,
		Name:             src.Name,
		Provider:         src.Provider,
		SigningSecret:    src.SigningSecret,
		SigningAlgorithm: src.SigningAlgorithm.String(),
		Status:           src.Status.String(),
		EventCount:       src.EventCount,
		LastEventAt:      src.LastEventAt,
		CreatedAt:        src.CreatedAt,
	}
}

func (r sourceRecord) toSource() *source.Source {
	return &source.Source{
		ID:               r.ID,
		OwnerID:          r.OwnerID,
		Name:             r.Name,
		Provider:         r.Provider,
		SigningSecret:    r.SigningSecret,
		SigningAlgorithm: signature.NewAlgorithm(r.SigningAlgorithm),
		Status:           source.NewStatus(r.Status),
		EventCount:       r.EventCount,
		LastEventAt:      r.LastEventAt,
		CreatedAt:        r.CreatedAt,
	}
}
