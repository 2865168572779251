//go:build integration

package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/ferryhook/relay/event"
	eventredis "github.com/ferryhook/relay/event/redis"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	testcontainersredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

func setupLedger(t *testing.T) *eventredis.Ledger {
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

	return eventredis.NewLedgerWithClient(client)
}

func TestLedgerEvents(t *testing.T) {
	ledger := setupLedger(t)
	ctx := context.Background()

	received := time.Now().Truncate(time.Millisecond)
	evt := event.Event{
		ID:          "evt_1",
		SourceID:    "src_1",
		OwnerID:     "own_1",
		Status:      event.Received,
		Headers:     map[string]string{"X-Test": "yes"},
		Body:        []byte(`{"hello":"world"}`),
		SourceIP:    "203.0.113.9",
		ContentType: "application/json",
		Method:      "POST",
		ReceivedAt:  received,
		ExpiresAt:   received.Add(24 * time.Hour),
	}

	t.Run("stores and retrieves an event", func(t *testing.T) {
		require.NoError(t, ledger.PutEvent(ctx, evt))

		got, err := ledger.GetEvent(ctx, "evt_1")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "src_1", got.SourceID)
		assert.Equal(t, event.Received, got.Status)
		assert.Equal(t, "yes", got.Headers["X-Test"])
		assert.JSONEq(t, `{"hello":"world"}`, string(got.Body))
		assert.Equal(t, "POST", got.Method)
		assert.Equal(t, received.UnixMilli(), got.ReceivedAt.UnixMilli())
		assert.Nil(t, got.ProcessedAt)
	})

	t.Run("returns nil for an unknown id", func(t *testing.T) {
		got, err := ledger.GetEvent(ctx, "evt_missing")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("status update stamps the matching timestamp", func(t *testing.T) {
		require.NoError(t, ledger.UpdateStatus(ctx, "evt_1", event.Processing))
		require.NoError(t, ledger.UpdateStatus(ctx, "evt_1", event.Delivered))

		got, err := ledger.GetEvent(ctx, "evt_1")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, event.Delivered, got.Status)
		assert.NotNil(t, got.ProcessedAt)
		assert.NotNil(t, got.DeliveredAt)
	})

	t.Run("rejects an invalid status", func(t *testing.T) {
		assert.Error(t, ledger.UpdateStatus(ctx, "evt_1", event.Status(99)))
	})
}

func TestLedgerAttempts(t *testing.T) {
	ledger := setupLedger(t)
	ctx := context.Background()

	now := time.Now().Truncate(time.Millisecond)
	require.NoError(t, ledger.PutEvent(ctx, event.Event{
		ID:         "evt_att",
		SourceID:   "src_1",
		Status:     event.Received,
		ReceivedAt: now,
		ExpiresAt:  now.Add(time.Hour),
	}))

	first := event.Attempt{
		EventID:        "evt_att",
		ConnectionID:   "conn_1",
		AttemptNumber:  1,
		DestinationURL: "https://example.com/hook",
		StatusCode:     500,
		ResponseBody:   "oops",
		LatencyMs:      42,
		AttemptedAt:    now,
	}
	second := first
	second.AttemptNumber = 2
	second.StatusCode = 200
	second.ResponseBody = "ok"

	require.NoError(t, ledger.PutAttempt(ctx, second))
	require.NoError(t, ledger.PutAttempt(ctx, first))

	attempts, err := ledger.ListAttempts(ctx, "evt_att")
	require.NoError(t, err)
	require.Len(t, attempts, 2)
	// Ordered by attempt number, not insertion order
	assert.Equal(t, 1, attempts[0].AttemptNumber)
	assert.Equal(t, 500, attempts[0].StatusCode)
	assert.Equal(t, 2, attempts[1].AttemptNumber)
	assert.Equal(t, "ok", attempts[1].ResponseBody)
	assert.Equal(t, now.UnixMilli(), attempts[0].AttemptedAt.UnixMilli())
}

func TestLedgerListBySource(t *testing.T) {
	ledger := setupLedger(t)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour).Truncate(time.Millisecond)
	for i := 0; i < 5; i++ {
		require.NoError(t, ledger.PutEvent(ctx, event.Event{
			ID:         "evt_" + string(rune('a'+i)),
			SourceID:   "src_list",
			Status:     event.Received,
			ReceivedAt: base.Add(time.Duration(i) * time.Minute),
			ExpiresAt:  base.Add(24 * time.Hour),
		}))
	}

	t.Run("pages newest first", func(t *testing.T) {
		page, err := ledger.ListBySource(ctx, "src_list", event.ListOptions{Limit: 2})
		require.NoError(t, err)
		require.Len(t, page.Events, 2)
		assert.True(t, page.HasMore)
		assert.Equal(t, "evt_e", page.Events[0].ID)
		assert.Equal(t, "evt_d", page.Events[1].ID)

		next, err := ledger.ListBySource(ctx, "src_list", event.ListOptions{Limit: 2, Cursor: page.Cursor})
		require.NoError(t, err)
		require.Len(t, next.Events, 2)
		assert.Equal(t, "evt_c", next.Events[0].ID)
	})

	t.Run("filters by status", func(t *testing.T) {
		require.NoError(t, ledger.UpdateStatus(ctx, "evt_c", event.Delivered))

		page, err := ledger.ListBySource(ctx, "src_list", event.ListOptions{Status: event.Delivered})
		require.NoError(t, err)
		require.Len(t, page.Events, 1)
		assert.Equal(t, "evt_c", page.Events[0].ID)
	})
}
