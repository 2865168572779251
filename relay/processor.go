package relay

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/ferryhook/relay/event"
	"github.com/ferryhook/relay/filter"
	"github.com/ferryhook/relay/metrics"
	"github.com/ferryhook/relay/queue"
	"github.com/ferryhook/relay/signature"
	"github.com/ferryhook/relay/source"
)

/* Processor turns a stored event into delivery tasks: verify the
 * provider's signature, evaluate each connection's filter rules, apply
 * its transform and fan out one task per matching connection.
 *
 * Handle is idempotent: a redelivered message finds the event in a
 * final status and is acknowledged without side effects. A partial
 * fan-out failure returns an error so the whole message is redelivered;
 * duplicate delivery tasks are acceptable under at-least-once.
 */
type Processor struct {
	ledger   event.Ledger
	cache    EntityCache
	deliverQ queue.Queue
	metrics  *metrics.Pipeline
	logger   zerolog.Logger
}

// NewProcessor creates the processing stage over the given dependencies
func NewProcessor(ledger event.Ledger, cache EntityCache, deliverQ queue.Queue, pipeline *metrics.Pipeline, logger zerolog.Logger) *Processor {
	return &Processor{
		ledger:   ledger,
		cache:    cache,
		deliverQ: deliverQ,
		metrics:  pipeline,
		logger:   logger,
	}
}

// Handle processes one message from the process queue.
// A nil return means the message may be acknowledged.
func (p *Processor) Handle(ctx context.Context, msg queue.Message) error {
	ref, err := DecodeProcessRef(msg.Body)
	if err != nil {
		// A message that never parses will never parse; drop it
		p.logger.Error().Err(err).Str("message_id", msg.ID).Msg("dropping malformed process message")
		return nil
	}

	logger := p.logger.With().Str("event_id", ref.EventID).Str("source_id", ref.SourceID).Logger()

	evt, err := p.ledger.GetEvent(ctx, ref.EventID)
	if err != nil {
		return fmt.Errorf("loading event: %w", err)
	}
	if evt == nil {
		logger.Warn().Msg("event vanished before processing, acknowledging")
		return nil
	}
	if evt.Status.IsFinal() {
		// Redelivery of an already-processed message
		return nil
	}

	if err := p.ledger.UpdateStatus(ctx, evt.ID, event.Processing); err != nil {
		return fmt.Errorf("marking event processing: %w", err)
	}

	src, err := p.cache.GetSource(ctx, evt.SourceID)
	if err != nil {
		return fmt.Errorf("loading source: %w", err)
	}
	if src == nil {
		logger.Warn().Msg("source vanished before processing, acknowledging")
		return nil
	}

	// An unset algorithm means the source has no verification configured.
	// An unrecognized one fails closed: the source asked for verification
	// we cannot perform, so the event must not go out unverified.
	if alg := src.SigningAlgorithm; alg != signature.None {
		if alg.Validate() != nil {
			logger.Warn().Msg("source carries an unrecognized signing algorithm")
			if err := p.ledger.UpdateStatus(ctx, evt.ID, event.SignatureFailed); err != nil {
				return fmt.Errorf("marking event signature_failed: %w", err)
			}
			return nil
		}
		header := headerValue(evt.Headers, alg.InboundHeader())
		if !signature.Verify(alg, evt.Body, header, src.SigningSecret) {
			logger.Warn().Str("algorithm", alg.String()).Msg("inbound signature verification failed")
			if err := p.ledger.UpdateStatus(ctx, evt.ID, event.SignatureFailed); err != nil {
				return fmt.Errorf("marking event signature_failed: %w", err)
			}
			return nil
		}
	}

	conns, err := p.cache.GetConnections(ctx, evt.SourceID)
	if err != nil {
		return fmt.Errorf("loading connections: %w", err)
	}

	var active []source.Connection
	for _, conn := range conns {
		if conn.Status == source.Active {
			active = append(active, conn)
		}
	}
	if len(active) == 0 {
		// Nowhere to go; the event stays visible as processing so the
		// owner can replay it after wiring a connection
		logger.Info().Msg("no active connections for event")
		return nil
	}

	enqueued := 0
	var errs []error
	for _, conn := range active {
		if !filter.Evaluate(evt.Body, conn.Filters) {
			continue
		}
		payload := conn.Transform.Apply(evt.Body)

		task := DeliveryTask{
			EventID:        evt.ID,
			ConnectionID:   conn.ID,
			DestinationURL: conn.DestinationURL,
			Payload:        payload,
			Headers:        forwardedHeaders(evt.ContentType),
			Attempt:        1,
			SigningSecret:  conn.SigningSecret,
		}
		body, err := EncodeDeliveryTask(task)
		if err != nil {
			errs = append(errs, fmt.Errorf("encoding delivery task for connection %s: %w", conn.ID, err))
			continue
		}
		if err := p.deliverQ.Enqueue(ctx, body, 0); err != nil {
			errs = append(errs, fmt.Errorf("enqueueing delivery for connection %s: %w", conn.ID, err))
			continue
		}
		enqueued++
	}
	if len(errs) > 0 {
		// Redelivery retries the whole fan-out; already-enqueued siblings
		// become duplicates, which at-least-once delivery tolerates
		return errors.Join(errs...)
	}

	if enqueued == 0 {
		// Every active connection's rules rejected the event
		p.metrics.EventFiltered(ctx, evt.SourceID)
		if err := p.ledger.UpdateStatus(ctx, evt.ID, event.Filtered); err != nil {
			return fmt.Errorf("marking event filtered: %w", err)
		}
		return nil
	}

	logger.Info().Int("deliveries", enqueued).Msg("event fanned out")
	return nil
}

// headerValue looks up an inbound header tolerating canonicalization
// differences between the stored map and the provider's casing
func headerValue(headers map[string]string, name string) string {
	if v, ok := headers[name]; ok {
		return v
	}
	canonical := http.CanonicalHeaderKey(name)
	if v, ok := headers[canonical]; ok {
		return v
	}
	for k, v := range headers {
		if http.CanonicalHeaderKey(k) == canonical {
			return v
		}
	}
	return ""
}
