//go:build integration

package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/ferryhook/relay/cache"
	"github.com/ferryhook/relay/signature"
	"github.com/ferryhook/relay/source"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	testcontainersredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

// countingReader tracks how often the durable store is actually hit,
// which is the whole point of the read-through cache.
type countingReader struct {
	sources     map[string]*source.Source
	connections map[string][]source.Connection

	sourceReads     int
	connectionReads int
}

func (r *countingReader) GetSource(ctx context.Context, id string) (*source.Source, error) {
	r.sourceReads++
	return r.sources[id], nil
}

func (r *countingReader) ListConnectionsBySource(ctx context.Context, sourceID string) ([]source.Connection, error) {
	r.connectionReads++
	return r.connections[sourceID], nil
}

func (r *countingReader) GetOwner(ctx context.Context, ownerID string) (*source.Owner, error) {
	return nil, nil
}

func setupCache(t *testing.T, reader source.Reader) *cache.Cache {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainersredis.Run(ctx, "redis:7-alpine")
	require.NoError(t, err, "failed to start Redis container")
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate Redis container: %v", err)
		}
	})

	addr, err := container.ConnectionString(ctx)
	require.NoError(t, err)
	if len(addr) > 8 && addr[:8] == "redis://" {
		addr = addr[8:]
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { client.Close() })

	return cache.New(client, reader, zerolog.Nop())
}

func TestCacheSources(t *testing.T) {
	reader := &countingReader{
		sources: map[string]*source.Source{
			"src_1": {
				ID:               "src_1",
				OwnerID:          "own_1",
				SigningAlgorithm: signature.Stripe,
				Status:           source.Active,
				CreatedAt:        time.Now().Truncate(time.Second),
			},
		},
	}
	c := setupCache(t, reader)
	ctx := context.Background()

	t.Run("second read is served from cache", func(t *testing.T) {
		first, err := c.GetSource(ctx, "src_1")
		require.NoError(t, err)
		require.NotNil(t, first)

		second, err := c.GetSource(ctx, "src_1")
		require.NoError(t, err)
		require.NotNil(t, second)

		assert.Equal(t, 1, reader.sourceReads)
		assert.Equal(t, signature.Stripe, second.SigningAlgorithm)
		assert.Equal(t, source.Active, second.Status)
	})

	t.Run("misses are not cached", func(t *testing.T) {
		before := reader.sourceReads

		got, err := c.GetSource(ctx, "src_missing")
		require.NoError(t, err)
		assert.Nil(t, got)

		got, err = c.GetSource(ctx, "src_missing")
		require.NoError(t, err)
		assert.Nil(t, got)

		assert.Equal(t, before+2, reader.sourceReads)
	})

	t.Run("invalidation forces a store read", func(t *testing.T) {
		before := reader.sourceReads
		c.InvalidateSource(ctx, "src_1")

		got, err := c.GetSource(ctx, "src_1")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, before+1, reader.sourceReads)
	})
}

func TestCacheConnections(t *testing.T) {
	reader := &countingReader{
		connections: map[string][]source.Connection{
			"src_1": {
				{ID: "conn_1", SourceID: "src_1", DestinationURL: "https://a.example.com", Status: source.Active},
				{ID: "conn_2", SourceID: "src_1", DestinationURL: "https://b.example.com", Status: source.Paused},
			},
		},
	}
	c := setupCache(t, reader)
	ctx := context.Background()

	t.Run("second read is served from cache", func(t *testing.T) {
		first, err := c.GetConnections(ctx, "src_1")
		require.NoError(t, err)
		require.Len(t, first, 2)

		second, err := c.GetConnections(ctx, "src_1")
		require.NoError(t, err)
		require.Len(t, second, 2)

		assert.Equal(t, 1, reader.connectionReads)
		assert.Equal(t, source.Paused, second[1].Status)
	})

	t.Run("invalidation forces a store read", func(t *testing.T) {
		before := reader.connectionReads
		c.InvalidateConnections(ctx, "src_1")

		conns, err := c.GetConnections(ctx, "src_1")
		require.NoError(t, err)
		require.Len(t, conns, 2)
		assert.Equal(t, before+1, reader.connectionReads)
	})
}
