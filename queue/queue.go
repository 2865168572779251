// Package queue defines the pull-queue contract the pipeline runs on:
// at-least-once delivery, visibility-timeout redelivery, bounded receive
// count with dead-lettering, and optional delayed enqueue.
package queue

import (
	"context"
	"time"
)

// Message is one queue entry as seen by a consumer
type Message struct {
	// ID identifies the entry for acknowledgment
	ID string
	// Body is the opaque payload handed to Enqueue
	Body []byte
	// Receives counts deliveries of this entry, this one included
	Receives int64
}

/* Queue is a pull queue with visibility-timeout semantics.
 * A consumed message stays invisible to other consumers until it is
 * acknowledged or its visibility window lapses, after which it is
 * redelivered. Consumers must tolerate duplicates and reordering.
 */
type Queue interface {
	/* Enqueue adds a message, optionally delayed. Delays beyond the
	 * queue's maximum are clamped, never rejected.
	 */
	Enqueue(ctx context.Context, body []byte, delay time.Duration) error
	// Consume returns the next batch, blocking briefly when empty
	Consume(ctx context.Context) ([]Message, error)
	// Ack marks a message fully handled; it will not be redelivered
	Ack(ctx context.Context, msg Message) error
	// Len reports the backlog of immediately deliverable messages
	Len(ctx context.Context) (int64, error)
	Close() error
}
