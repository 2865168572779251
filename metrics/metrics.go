package metrics

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

/* Pipeline holds the synchronous instruments recorded along the
 * ingest -> process -> deliver path. A nil *Pipeline is valid and all
 * recording methods become no-ops, so services can be constructed
 * without metrics in tests.
 */
type Pipeline struct {
	eventsReceived   metric.Int64Counter
	eventsRejected   metric.Int64Counter
	eventsFiltered   metric.Int64Counter
	deliveryAttempts metric.Int64Counter
	deliveryLatency  metric.Float64Histogram
	planOverage      metric.Int64Counter
}

// NewPipeline registers the pipeline instruments on the given meter
func NewPipeline(meter metric.Meter) (*Pipeline, error) {
	p := &Pipeline{}
	var err error

	p.eventsReceived, err = meter.Int64Counter(
		"relay.events.received",
		metric.WithDescription("Events accepted by the ingestion gateway"),
		metric.WithUnit("{events}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating events received counter: %w", err)
	}

	p.eventsRejected, err = meter.Int64Counter(
		"relay.events.rejected",
		metric.WithDescription("Ingest requests rejected before enqueue"),
		metric.WithUnit("{events}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating events rejected counter: %w", err)
	}

	p.eventsFiltered, err = meter.Int64Counter(
		"relay.events.filtered",
		metric.WithDescription("Events dropped by connection filter rules"),
		metric.WithUnit("{events}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating events filtered counter: %w", err)
	}

	p.deliveryAttempts, err = meter.Int64Counter(
		"relay.delivery.attempts",
		metric.WithDescription("Outbound delivery attempts by outcome"),
		metric.WithUnit("{attempts}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating delivery attempts counter: %w", err)
	}

	p.deliveryLatency, err = meter.Float64Histogram(
		"relay.delivery.latency",
		metric.WithDescription("Destination response time"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating delivery latency histogram: %w", err)
	}

	p.planOverage, err = meter.Int64Counter(
		"relay.plan.overage",
		metric.WithDescription("Events accepted past the monthly plan quota"),
		metric.WithUnit("{events}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating plan overage counter: %w", err)
	}

	return p, nil
}

// EventReceived records an accepted ingest
func (p *Pipeline) EventReceived(ctx context.Context, sourceID string) {
	if p == nil {
		return
	}
	p.eventsReceived.Add(ctx, 1, metric.WithAttributes(
		attribute.String("source.id", sourceID),
	))
}

// EventRejected records an ingest rejection with its reason
func (p *Pipeline) EventRejected(ctx context.Context, reason string) {
	if p == nil {
		return
	}
	p.eventsRejected.Add(ctx, 1, metric.WithAttributes(
		attribute.String("reject.reason", reason),
	))
}

// EventFiltered records an event dropped by filter rules
func (p *Pipeline) EventFiltered(ctx context.Context, sourceID string) {
	if p == nil {
		return
	}
	p.eventsFiltered.Add(ctx, 1, metric.WithAttributes(
		attribute.String("source.id", sourceID),
	))
}

// DeliveryAttempt records one outbound attempt and its latency
func (p *Pipeline) DeliveryAttempt(ctx context.Context, outcome string, latency time.Duration) {
	if p == nil {
		return
	}
	p.deliveryAttempts.Add(ctx, 1, metric.WithAttributes(
		attribute.String("delivery.outcome", outcome),
	))
	p.deliveryLatency.Record(ctx, float64(latency.Milliseconds()), metric.WithAttributes(
		attribute.String("delivery.outcome", outcome),
	))
}

// PlanOverage records an event accepted beyond the monthly quota
func (p *Pipeline) PlanOverage(ctx context.Context, ownerID string) {
	if p == nil {
		return
	}
	p.planOverage.Add(ctx, 1, metric.WithAttributes(
		attribute.String("owner.id", ownerID),
	))
}
