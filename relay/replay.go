package relay

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/ferryhook/relay/event"
	"github.com/ferryhook/relay/queue"
	"github.com/ferryhook/relay/source"
)

/* Replayer re-delivers a stored event on operator request.
 * Replay is explicit intent, so filter rules are not re-evaluated and
 * connections are read straight from the store rather than the cache:
 * an operator replaying after fixing a connection must see the fix
 * immediately. Each replayed delivery starts a fresh attempt sequence.
 */
type Replayer struct {
	ledger   event.Ledger
	store    source.Reader
	deliverQ queue.Queue
	logger   zerolog.Logger
}

// NewReplayer creates the replay service over the given dependencies
func NewReplayer(ledger event.Ledger, store source.Reader, deliverQ queue.Queue, logger zerolog.Logger) *Replayer {
	return &Replayer{
		ledger:   ledger,
		store:    store,
		deliverQ: deliverQ,
		logger:   logger,
	}
}

/* Replay enqueues fresh deliveries of the event to its active
 * connections. An empty connectionIDs replays to all of them; a
 * non-empty one restricts the replay to that subset. It returns the
 * number of deliveries enqueued.
 */
func (r *Replayer) Replay(ctx context.Context, eventID string, connectionIDs []string) (int, error) {
	evt, err := r.ledger.GetEvent(ctx, eventID)
	if err != nil {
		return 0, fmt.Errorf("loading event: %w", err)
	}
	if evt == nil {
		return 0, ErrEventNotFound
	}

	conns, err := r.store.ListConnectionsBySource(ctx, evt.SourceID)
	if err != nil {
		return 0, fmt.Errorf("loading connections: %w", err)
	}

	requested := make(map[string]bool, len(connectionIDs))
	for _, id := range connectionIDs {
		requested[id] = true
	}

	var targets []source.Connection
	for _, conn := range conns {
		if conn.Status != source.Active {
			continue
		}
		if len(requested) > 0 && !requested[conn.ID] {
			continue
		}
		targets = append(targets, conn)
	}
	if len(targets) == 0 {
		return 0, fmt.Errorf("%w: no active connections to replay to", ErrValidation)
	}

	for _, conn := range targets {
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
			return 0, fmt.Errorf("encoding replay task: %w", err)
		}
		if err := r.deliverQ.Enqueue(ctx, body, 0); err != nil {
			return 0, fmt.Errorf("enqueueing replay for connection %s: %w", conn.ID, err)
		}
	}

	if err := r.ledger.UpdateStatus(ctx, evt.ID, event.Retrying); err != nil {
		return 0, fmt.Errorf("marking event retrying: %w", err)
	}

	r.logger.Info().Str("event_id", evt.ID).Int("deliveries", len(targets)).Msg("event replayed")
	return len(targets), nil
}
