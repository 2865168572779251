package redis

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ferryhook/relay/queue"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

/* Redis Streams implementation of queue.Queue
 * One stream per queue with a single consumer group. Visibility-timeout
 * redelivery rides on XAUTOCLAIM: entries pending longer than the
 * timeout are reclaimed by whichever consumer asks first. Entries whose
 * delivery count exceeds MaxReceives move to a dead-letter stream.
 * Delayed messages wait in a sorted set scored by their ready time and
 * are pumped into the stream by consumers.
 */

// Config tunes one queue instance
type Config struct {
	// Stream is the queue name, e.g. "relay:process"
	Stream string
	// Group is the consumer group; one per queue
	Group string
	// Consumer identifies this worker within the group
	Consumer string
	// VisibilityTimeout before an unacknowledged delivery is reclaimed
	VisibilityTimeout time.Duration
	// MaxReceives before an entry is dead-lettered
	MaxReceives int64
	// MaxDelay clamps Enqueue delays
	MaxDelay time.Duration
	// BatchSize bounds one Consume call
	BatchSize int64
}

func (c *Config) setDefaults() {
	if c.Group == "" {
		c.Group = c.Stream + "-workers"
	}
	if c.Consumer == "" {
		c.Consumer = "worker-" + uuid.NewString()[:8]
	}
	if c.VisibilityTimeout <= 0 {
		c.VisibilityTimeout = 60 * time.Second
	}
	if c.MaxReceives <= 0 {
		c.MaxReceives = 3
	}
	if c.MaxDelay <= 0 {
		c.MaxDelay = 900 * time.Second
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 10
	}
}

type Queue struct {
	client *redis.Client
	cfg    Config
	logger zerolog.Logger

	delayKey string
	dlqKey   string
}

// New creates a Redis Streams queue and its consumer group
func New(ctx context.Context, client *redis.Client, cfg Config, logger zerolog.Logger) (*Queue, error) {
	if cfg.Stream == "" {
		return nil, fmt.Errorf("queue stream name is required")
	}
	cfg.setDefaults()

	q := &Queue{
		client:   client,
		cfg:      cfg,
		logger:   logger,
		delayKey: cfg.Stream + ":delayed",
		dlqKey:   cfg.Stream + ":dlq",
	}

	// BUSYGROUP means another worker created the group first
	err := client.XGroupCreateMkStream(ctx, cfg.Stream, cfg.Group, "0").Err()
	if err != nil && !isBusyGroup(err) {
		return nil, fmt.Errorf("creating consumer group: %w", err)
	}

	return q, nil
}

// Enqueue adds a message, holding it in the delay set when delayed
func (q *Queue) Enqueue(ctx context.Context, body []byte, delay time.Duration) error {
	if delay > q.cfg.MaxDelay {
		delay = q.cfg.MaxDelay
	}

	if delay <= 0 {
		return q.add(ctx, body)
	}

	readyAt := time.Now().Add(delay)
	member := uuid.NewString() + "|" + string(body)
	err := q.client.ZAdd(ctx, q.delayKey, redis.Z{
		Score:  float64(readyAt.UnixMilli()),
		Member: member,
	}).Err()
	if err != nil {
		return fmt.Errorf("scheduling delayed message: %w", err)
	}
	return nil
}

func (q *Queue) add(ctx context.Context, body []byte) error {
	err := q.client.XAdd(ctx, &redis.XAddArgs{
		Stream: q.cfg.Stream,
		Values: map[string]interface{}{"body": body},
	}).Err()
	if err != nil {
		return fmt.Errorf("adding to stream: %w", err)
	}
	return nil
}

/* Consume pumps due delayed messages, reclaims entries whose visibility
 * window lapsed (dead-lettering the ones over their receive budget),
 * then reads new entries. Returns an empty batch when nothing is ready.
 */
func (q *Queue) Consume(ctx context.Context) ([]queue.Message, error) {
	q.pumpDelayed(ctx)

	if msgs, err := q.reclaim(ctx); err != nil {
		return nil, err
	} else if len(msgs) > 0 {
		return msgs, nil
	}

	streams, err := q.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    q.cfg.Group,
		Consumer: q.cfg.Consumer,
		Streams:  []string{q.cfg.Stream, ">"},
		Count:    q.cfg.BatchSize,
		Block:    1 * time.Second,
	}).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading from stream: %w", err)
	}

	var msgs []queue.Message
	for _, stream := range streams {
		for _, m := range stream.Messages {
			msgs = append(msgs, toMessage(m, 1))
		}
	}
	return msgs, nil
}

// pumpDelayed moves due messages from the delay set into the stream.
// Errors are logged and skipped: the next Consume retries.
func (q *Queue) pumpDelayed(ctx context.Context) {
	now := strconv.FormatInt(time.Now().UnixMilli(), 10)

	due, err := q.client.ZRangeByScore(ctx, q.delayKey, &redis.ZRangeBy{
		Min:   "-inf",
		Max:   now,
		Count: q.cfg.BatchSize,
	}).Result()
	if err != nil || len(due) == 0 {
		return
	}

	for _, member := range due {
		/* Remove-then-add: only the consumer that wins the ZRem moves
		 * the message, so concurrent pumps never duplicate it
		 */
		removed, err := q.client.ZRem(ctx, q.delayKey, member).Result()
		if err != nil || removed == 0 {
			continue
		}
		body := member
		if idx := strings.IndexByte(member, '|'); idx >= 0 {
			body = member[idx+1:]
		}
		if err := q.add(ctx, []byte(body)); err != nil {
			q.logger.Error().Err(err).Str("stream", q.cfg.Stream).
				Msg("failed to move delayed message into stream")
		}
	}
}

// reclaim takes over entries pending past the visibility timeout and
// dead-letters the ones already over their receive budget
func (q *Queue) reclaim(ctx context.Context) ([]queue.Message, error) {
	claimed, _, err := q.client.XAutoClaim(ctx, &redis.XAutoClaimArgs{
		Stream:   q.cfg.Stream,
		Group:    q.cfg.Group,
		Consumer: q.cfg.Consumer,
		MinIdle:  q.cfg.VisibilityTimeout,
		Start:    "0-0",
		Count:    q.cfg.BatchSize,
	}).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("reclaiming pending messages: %w", err)
	}
	if len(claimed) == 0 {
		return nil, nil
	}

	ids := make([]string, len(claimed))
	for i, m := range claimed {
		ids[i] = m.ID
	}
	pending, err := q.client.XPendingExt(ctx, &redis.XPendingExtArgs{
		Stream: q.cfg.Stream,
		Group:  q.cfg.Group,
		Start:  ids[0],
		End:    ids[len(ids)-1],
		Count:  int64(len(ids)),
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("inspecting pending messages: %w", err)
	}
	receives := make(map[string]int64, len(pending))
	for _, p := range pending {
		receives[p.ID] = p.RetryCount
	}

	var msgs []queue.Message
	for _, m := range claimed {
		count := receives[m.ID]
		if count > q.cfg.MaxReceives {
			q.deadLetter(ctx, m, count)
			continue
		}
		msgs = append(msgs, toMessage(m, count))
	}
	return msgs, nil
}

func (q *Queue) deadLetter(ctx context.Context, m redis.XMessage, receives int64) {
	err := q.client.XAdd(ctx, &redis.XAddArgs{
		Stream: q.dlqKey,
		Values: map[string]interface{}{
			"body":     m.Values["body"],
			"origin":   q.cfg.Stream,
			"receives": receives,
		},
	}).Err()
	if err != nil {
		q.logger.Error().Err(err).Str("stream", q.cfg.Stream).Str("message_id", m.ID).
			Msg("failed to dead-letter message")
		return
	}

	q.client.XAck(ctx, q.cfg.Stream, q.cfg.Group, m.ID)
	q.logger.Warn().Str("stream", q.cfg.Stream).Str("message_id", m.ID).
		Int64("receives", receives).
		Msg("message dead-lettered")
}

// Ack marks a message handled
func (q *Queue) Ack(ctx context.Context, msg queue.Message) error {
	if err := q.client.XAck(ctx, q.cfg.Stream, q.cfg.Group, msg.ID).Err(); err != nil {
		return fmt.Errorf("acknowledging message: %w", err)
	}
	return nil
}

// Len reports the stream backlog (delayed messages excluded)
func (q *Queue) Len(ctx context.Context) (int64, error) {
	n, err := q.client.XLen(ctx, q.cfg.Stream).Result()
	if err != nil {
		return 0, fmt.Errorf("reading stream length: %w", err)
	}
	return n, nil
}

// Close is a no-op: the shared client is owned by the caller
func (q *Queue) Close() error {
	return nil
}

func toMessage(m redis.XMessage, receives int64) queue.Message {
	var body []byte
	if s, ok := m.Values["body"].(string); ok {
		body = []byte(s)
	}
	if receives < 1 {
		receives = 1
	}
	return queue.Message{ID: m.ID, Body: body, Receives: receives}
}

func isBusyGroup(err error) bool {
	return err != nil && strings.HasPrefix(err.Error(), "BUSYGROUP")
}
