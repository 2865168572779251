package relay

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ferryhook/relay/event"
	"github.com/ferryhook/relay/metrics"
	"github.com/ferryhook/relay/plan"
	"github.com/ferryhook/relay/queue"
	"github.com/ferryhook/relay/source"
)

/* IngestRequest carries one inbound webhook through admission. Headers
 * hold the full inbound header set so signature verification can read
 * the provider's header later in the pipeline.
 */
type IngestRequest struct {
	SourceID    string
	Headers     map[string]string
	Body        []byte
	SourceIP    string
	ContentType string
	Method      string
}

// IngestResult reports the stored event after a successful admission.
type IngestResult struct {
	EventID string
	Status  event.Status
}

/* Ingestor is the admission path: resolve the source, enforce plan
 * limits and rate limits, persist the event and hand it to the
 * processing queue. The enqueue is synchronous so an accepted request
 * is guaranteed a queued event; counter updates run in the background.
 */
type Ingestor struct {
	cache   EntityCache
	store   source.Store
	plans   *plan.Table
	limiter RateLimiter
	ledger  event.Ledger
	queue   queue.Queue
	runner  *TaskRunner
	metrics *metrics.Pipeline
	logger  zerolog.Logger
}

// NewIngestor creates an admission service over the given dependencies
func NewIngestor(cache EntityCache, store source.Store, plans *plan.Table, limiter RateLimiter, ledger event.Ledger, q queue.Queue, runner *TaskRunner, pipeline *metrics.Pipeline, logger zerolog.Logger) *Ingestor {
	return &Ingestor{
		cache:   cache,
		store:   store,
		plans:   plans,
		limiter: limiter,
		ledger:  ledger,
		queue:   q,
		runner:  runner,
		metrics: pipeline,
		logger:  logger,
	}
}

// Ingest admits one inbound webhook and enqueues it for processing
func (i *Ingestor) Ingest(ctx context.Context, req IngestRequest) (IngestResult, error) {
	if req.SourceID == "" {
		i.metrics.EventRejected(ctx, "validation")
		return IngestResult{}, fmt.Errorf("%w: source id is required", ErrValidation)
	}

	src, err := i.cache.GetSource(ctx, req.SourceID)
	if err != nil {
		return IngestResult{}, fmt.Errorf("looking up source: %w", err)
	}
	// Paused and deleted sources are indistinguishable from missing ones
	if src == nil || !src.Ingestable() {
		i.metrics.EventRejected(ctx, "unknown_source")
		return IngestResult{}, ErrSourceNotFound
	}

	owner, err := i.store.GetOwner(ctx, src.OwnerID)
	if err != nil {
		return IngestResult{}, fmt.Errorf("looking up owner: %w", err)
	}
	if owner == nil {
		i.metrics.EventRejected(ctx, "unknown_owner")
		return IngestResult{}, ErrSourceNotFound
	}

	limits := i.plans.LimitsFor(owner.Plan)

	rateKey := fmt.Sprintf("rl:src:%s", src.ID)
	if !i.limiter.Allow(ctx, rateKey, limits.EventsPerMinute) {
		i.metrics.EventRejected(ctx, "rate_limited")
		return IngestResult{}, ErrRateLimited
	}

	if owner.UsageThisMonth >= limits.EventsPerMonth {
		if !owner.Plan.Paid() {
			i.metrics.EventRejected(ctx, "plan_limit")
			return IngestResult{}, ErrPlanLimitReached
		}
		// Paid plans are soft-capped: accept, bill later
		i.metrics.PlanOverage(ctx, owner.ID)
		i.logger.Warn().
			Str("owner_id", owner.ID).
			Str("plan", owner.Plan.String()).
			Int64("usage", owner.UsageThisMonth).
			Int64("quota", limits.EventsPerMonth).
			Msg("monthly quota exceeded, accepting as overage")
	}

	now := time.Now().UTC()
	evt := event.Event{
		ID:          fmt.Sprintf("evt_%s", uuid.New().String()),
		SourceID:    src.ID,
		OwnerID:     owner.ID,
		Status:      event.Received,
		Headers:     req.Headers,
		Body:        req.Body,
		ContentType: req.ContentType,
		Method:      req.Method,
		SourceIP:    req.SourceIP,
		ReceivedAt:  now,
		ExpiresAt:   now.Add(limits.Retention),
	}

	if err := i.ledger.PutEvent(ctx, evt); err != nil {
		return IngestResult{}, fmt.Errorf("storing event: %w", err)
	}

	body, err := EncodeProcessRef(ProcessRef{EventID: evt.ID, SourceID: src.ID})
	if err != nil {
		return IngestResult{}, fmt.Errorf("encoding process ref: %w", err)
	}
	if err := i.queue.Enqueue(ctx, body, 0); err != nil {
		// The event stays in the ledger as received; the caller sees
		// a failure and the provider will retry the webhook
		return IngestResult{}, fmt.Errorf("enqueueing event: %w", err)
	}

	i.metrics.EventReceived(ctx, src.ID)

	ownerID, sourceID := owner.ID, src.ID
	i.runner.Submit(func(ctx context.Context) {
		if err := i.store.IncrementUsage(ctx, ownerID); err != nil {
			i.logger.Warn().Err(err).Str("owner_id", ownerID).Msg("incrementing usage")
		}
		if err := i.store.RecordSourceEvent(ctx, sourceID, now); err != nil {
			i.logger.Warn().Err(err).Str("source_id", sourceID).Msg("recording source event")
		}
	})

	return IngestResult{EventID: evt.ID, Status: evt.Status}, nil
}
