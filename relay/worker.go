package relay

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/ferryhook/relay/queue"
)

// Handler processes one queue message. A nil return acknowledges the
// message; an error leaves it pending for visibility-timeout redelivery.
type Handler interface {
	Handle(ctx context.Context, msg queue.Message) error
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, msg queue.Message) error

func (f HandlerFunc) Handle(ctx context.Context, msg queue.Message) error {
	return f(ctx, msg)
}

/* Worker pumps a queue into a handler with bounded concurrency.
 * Messages in one consumed batch are handled in parallel; the worker
 * waits for the batch before consuming the next so a slow handler
 * applies backpressure instead of unbounded fan-out.
 */
type Worker struct {
	queue       queue.Queue
	handler     Handler
	concurrency int
	logger      zerolog.Logger
}

// NewWorker creates a worker with the given parallelism per batch
func NewWorker(q queue.Queue, handler Handler, concurrency int, logger zerolog.Logger) *Worker {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Worker{
		queue:       q,
		handler:     handler,
		concurrency: concurrency,
		logger:      logger,
	}
}

// Run consumes until the context is canceled
func (w *Worker) Run(ctx context.Context) error {
	sem := make(chan struct{}, w.concurrency)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		msgs, err := w.queue.Consume(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			w.logger.Error().Err(err).Msg("consuming from queue")
			select {
			case <-time.After(time.Second):
			case <-ctx.Done():
				return ctx.Err()
			}
			continue
		}

		var wg sync.WaitGroup
		for _, msg := range msgs {
			sem <- struct{}{}
			wg.Add(1)
			go func(msg queue.Message) {
				defer wg.Done()
				defer func() { <-sem }()

				if err := w.handler.Handle(ctx, msg); err != nil {
					// Left unacked: the visibility timeout redelivers it
					w.logger.Warn().Err(err).Str("message_id", msg.ID).Msg("handling message")
					return
				}
				if err := w.queue.Ack(ctx, msg); err != nil {
					w.logger.Warn().Err(err).Str("message_id", msg.ID).Msg("acknowledging message")
				}
			}(msg)
		}
		wg.Wait()
	}
}
