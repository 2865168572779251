package relay_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ferryhook/relay/event"
	eventmocks "github.com/ferryhook/relay/event/mocks"
	"github.com/ferryhook/relay/plan"
	"github.com/ferryhook/relay/queue"
	queuemocks "github.com/ferryhook/relay/queue/mocks"
	"github.com/ferryhook/relay/relay"
	"github.com/ferryhook/relay/relay/mocks"
	"github.com/ferryhook/relay/source"
	sourcemocks "github.com/ferryhook/relay/source/mocks"
)

type ingestFixture struct {
	cache   *mocks.EntityCache
	store   *sourcemocks.Store
	limiter *mocks.RateLimiter
	ledger  *eventmocks.Ledger
	queue   *queuemocks.Queue
	runner  *relay.TaskRunner
	svc     *relay.Ingestor
}

func newIngestFixture(t *testing.T) *ingestFixture {
	t.Helper()
	f := &ingestFixture{
		cache:   mocks.NewEntityCache(t),
		store:   sourcemocks.NewStore(t),
		limiter: mocks.NewRateLimiter(t),
		ledger:  eventmocks.NewLedger(t),
		queue:   queuemocks.NewQueue(t),
		runner:  relay.NewTaskRunner(16, zerolog.Nop()),
	}
	f.svc = relay.NewIngestor(f.cache, f.store, plan.NewTable(), f.limiter, f.ledger, f.queue, f.runner, nil, zerolog.Nop())
	return f
}

func activeSource() *source.Source {
	return &source.Source{
		ID:      "src_1",
		OwnerID: "own_1",
		Status:  source.Active,
	}
}

func TestIngest(t *testing.T) {
	ctx := context.Background()

	t.Run("accepts and enqueues an event", func(t *testing.T) {
		f := newIngestFixture(t)
		body := []byte(`{"type":"payment.succeeded"}`)

		f.cache.On("GetSource", ctx, "src_1").Return(activeSource(), nil)
		f.store.On("GetOwner", ctx, "own_1").Return(&source.Owner{ID: "own_1", Plan: plan.Free}, nil)
		f.limiter.On("Allow", ctx, "rl:src:src_1", 100).Return(true)

		var stored event.Event
		f.ledger.On("PutEvent", ctx, mock.MatchedBy(func(evt event.Event) bool {
			stored = evt
			return evt.SourceID == "src_1" &&
				evt.OwnerID == "own_1" &&
				evt.Status == event.Received &&
				string(evt.Body) == string(body)
		})).Return(nil)
		f.queue.On("Enqueue", ctx, mock.Anything, time.Duration(0)).Return(nil)
		f.store.On("IncrementUsage", mock.Anything, "own_1").Return(nil)
		f.store.On("RecordSourceEvent", mock.Anything, "src_1", mock.Anything).Return(nil)

		res, err := f.svc.Ingest(ctx, relay.IngestRequest{
			SourceID:    "src_1",
			Body:        body,
			ContentType: "application/json",
			Method:      "POST",
		})
		f.runner.Close()

		require.NoError(t, err)
		assert.Equal(t, stored.ID, res.EventID)
		assert.Contains(t, res.EventID, "evt_")
		assert.Equal(t, event.Received, res.Status)

		// Retention window for the free tier
		assert.WithinDuration(t, stored.ReceivedAt.Add(24*time.Hour), stored.ExpiresAt, time.Second)

		ref, err := relay.DecodeProcessRef(f.queue.Calls[0].Arguments.Get(1).([]byte))
		require.NoError(t, err)
		assert.Equal(t, stored.ID, ref.EventID)
		assert.Equal(t, "src_1", ref.SourceID)
	})

	t.Run("unknown source", func(t *testing.T) {
		f := newIngestFixture(t)
		f.cache.On("GetSource", ctx, "src_missing").Return(nil, nil)

		_, err := f.svc.Ingest(ctx, relay.IngestRequest{SourceID: "src_missing"})
		f.runner.Close()

		require.ErrorIs(t, err, relay.ErrSourceNotFound)
	})

	t.Run("paused source answers like a missing one", func(t *testing.T) {
		f := newIngestFixture(t)
		src := activeSource()
		src.Status = source.Paused
		f.cache.On("GetSource", ctx, "src_1").Return(src, nil)

		_, err := f.svc.Ingest(ctx, relay.IngestRequest{SourceID: "src_1"})
		f.runner.Close()

		require.ErrorIs(t, err, relay.ErrSourceNotFound)
	})

	t.Run("empty source id", func(t *testing.T) {
		f := newIngestFixture(t)

		_, err := f.svc.Ingest(ctx, relay.IngestRequest{})
		f.runner.Close()

		require.ErrorIs(t, err, relay.ErrValidation)
	})

	t.Run("rate limited", func(t *testing.T) {
		f := newIngestFixture(t)
		f.cache.On("GetSource", ctx, "src_1").Return(activeSource(), nil)
		f.store.On("GetOwner", ctx, "own_1").Return(&source.Owner{ID: "own_1", Plan: plan.Free}, nil)
		f.limiter.On("Allow", ctx, "rl:src:src_1", 100).Return(false)

		_, err := f.svc.Ingest(ctx, relay.IngestRequest{SourceID: "src_1"})
		f.runner.Close()

		require.ErrorIs(t, err, relay.ErrRateLimited)
	})

	t.Run("free tier monthly cap rejects", func(t *testing.T) {
		f := newIngestFixture(t)
		f.cache.On("GetSource", ctx, "src_1").Return(activeSource(), nil)
		f.store.On("GetOwner", ctx, "own_1").Return(&source.Owner{ID: "own_1", Plan: plan.Free, UsageThisMonth: 5_000}, nil)
		f.limiter.On("Allow", ctx, "rl:src:src_1", 100).Return(true)

		_, err := f.svc.Ingest(ctx, relay.IngestRequest{SourceID: "src_1"})
		f.runner.Close()

		require.ErrorIs(t, err, relay.ErrPlanLimitReached)
	})

	t.Run("paid tier monthly cap accepts as overage", func(t *testing.T) {
		f := newIngestFixture(t)
		f.cache.On("GetSource", ctx, "src_1").Return(activeSource(), nil)
		f.store.On("GetOwner", ctx, "own_1").Return(&source.Owner{ID: "own_1", Plan: plan.Pro, UsageThisMonth: 1_000_000}, nil)
		f.limiter.On("Allow", ctx, "rl:src:src_1", 2_000).Return(true)
		f.ledger.On("PutEvent", ctx, mock.Anything).Return(nil)
		f.queue.On("Enqueue", ctx, mock.Anything, time.Duration(0)).Return(nil)
		f.store.On("IncrementUsage", mock.Anything, "own_1").Return(nil)
		f.store.On("RecordSourceEvent", mock.Anything, "src_1", mock.Anything).Return(nil)

		res, err := f.svc.Ingest(ctx, relay.IngestRequest{SourceID: "src_1"})
		f.runner.Close()

		require.NoError(t, err)
		assert.NotEmpty(t, res.EventID)
	})

	t.Run("enqueue failure fails the ingest", func(t *testing.T) {
		f := newIngestFixture(t)
		f.cache.On("GetSource", ctx, "src_1").Return(activeSource(), nil)
		f.store.On("GetOwner", ctx, "own_1").Return(&source.Owner{ID: "own_1", Plan: plan.Free}, nil)
		f.limiter.On("Allow", ctx, "rl:src:src_1", 100).Return(true)
		f.ledger.On("PutEvent", ctx, mock.Anything).Return(nil)
		f.queue.On("Enqueue", ctx, mock.Anything, time.Duration(0)).Return(errors.New("stream down"))

		_, err := f.svc.Ingest(ctx, relay.IngestRequest{SourceID: "src_1"})
		f.runner.Close()

		require.Error(t, err)
		assert.Contains(t, err.Error(), "enqueueing event")
	})
}

func TestTaskRunner(t *testing.T) {
	t.Run("runs submitted tasks before close returns", func(t *testing.T) {
		runner := relay.NewTaskRunner(4, zerolog.Nop())

		done := make(chan struct{})
		runner.Submit(func(ctx context.Context) { close(done) })
		runner.Close()

		select {
		case <-done:
		default:
			t.Fatal("task did not run")
		}
	})
}

var _ queue.Queue = (*queuemocks.Queue)(nil)
