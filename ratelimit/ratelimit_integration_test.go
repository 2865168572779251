//go:build integration

package ratelimit_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/ferryhook/relay/ratelimit"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	testcontainersredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

func TestAllowSlidingWindow(t *testing.T) {
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
	defer client.Close()

	limiter := ratelimit.New(client, zerolog.Nop())

	t.Run("admits up to the limit then rejects", func(t *testing.T) {
		const limit = 10
		for i := 0; i < limit; i++ {
			assert.True(t, limiter.Allow(ctx, "src_window", limit), fmt.Sprintf("check %d", i+1))
		}
		// The (N+1)-th check within the window must be rejected
		assert.False(t, limiter.Allow(ctx, "src_window", limit))
	})

	t.Run("keys are independent", func(t *testing.T) {
		assert.False(t, limiter.Allow(ctx, "src_full", 0))
		assert.True(t, limiter.Allow(ctx, "src_other", 1))
	})
}
