package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/ferryhook/relay/event"
	"github.com/redis/go-redis/v9"
)

/* Redis implementation of event.Ledger
 * Uses a hash per event, a per-source zset scored by receive time for
 * the source+time range scan, and a per-event zset of attempts scored
 * by attempt number. Retention is enforced with EXPIREAT on every key
 * belonging to the event.
 */

const (
	eventPrefix    = "evt"    // evt:{event_id}
	sourceIndex    = "evts"   // evts:{source_id} zset: receivedAt(ms) -> event_id
	attemptsSuffix = "atts"   // evt:{event_id}:atts zset: n -> attempt JSON
)

type Ledger struct {
	client *redis.Client
}

// NewLedger creates a Redis-backed event ledger
func NewLedger(addr, password string, db int) (*Ledger, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connecting to Redis: %w", err)
	}

	return &Ledger{client: client}, nil
}

// NewLedgerWithClient wraps an existing client
func NewLedgerWithClient(client *redis.Client) *Ledger {
	return &Ledger{client: client}
}

// PutEvent stores an event, indexes it under its source and arms the
// retention expiry
func (l *Ledger) PutEvent(ctx context.Context, evt event.Event) error {
	key := fmt.Sprintf("%s:%s", eventPrefix, evt.ID)

	headersJSON, err := json.Marshal(evt.Headers)
	if err != nil {
		return fmt.Errorf("marshaling headers: %w", err)
	}

	fields := map[string]interface{}{
		"id":           evt.ID,
		"source_id":    evt.SourceID,
		"owner_id":     evt.OwnerID,
		"status":       evt.Status.String(),
		"headers":      string(headersJSON),
		"body":         evt.Body,
		"source_ip":    evt.SourceIP,
		"content_type": evt.ContentType,
		"method":       evt.Method,
		"received_at":  evt.ReceivedAt.UnixMilli(),
		"expires_at":   evt.ExpiresAt.Unix(),
	}

	if err := l.client.HSet(ctx, key, fields).Err(); err != nil {
		return fmt.Errorf("storing event: %w", err)
	}
	if err := l.client.ExpireAt(ctx, key, evt.ExpiresAt).Err(); err != nil {
		return fmt.Errorf("setting event expiry: %w", err)
	}

	indexKey := fmt.Sprintf("%s:%s", sourceIndex, evt.SourceID)
	err = l.client.ZAdd(ctx, indexKey, redis.Z{
		Score:  float64(evt.ReceivedAt.UnixMilli()),
		Member: evt.ID,
	}).Err()
	if err != nil {
		return fmt.Errorf("indexing event: %w", err)
	}

	return nil
}

// GetEvent retrieves an event by id; nil when absent or expired
func (l *Ledger) GetEvent(ctx context.Context, id string) (*event.Event, error) {
	key := fmt.Sprintf("%s:%s", eventPrefix, id)

	data, err := l.client.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("getting event: %w", err)
	}
	if len(data) == 0 {
		return nil, nil
	}

	return eventFromHash(data)
}

func eventFromHash(data map[string]string) (*event.Event, error) {
	headers := make(map[string]string)
	if raw := data["headers"]; raw != "" {
		if err := json.Unmarshal([]byte(raw), &headers); err != nil {
			return nil, fmt.Errorf("unmarshaling event headers: %w", err)
		}
	}

	evt := &event.Event{
		ID:          data["id"],
		SourceID:    data["source_id"],
		OwnerID:     data["owner_id"],
		Status:      event.NewStatus(data["status"]),
		Headers:     headers,
		Body:        []byte(data["body"]),
		SourceIP:    data["source_ip"],
		ContentType: data["content_type"],
		Method:      data["method"],
		ReceivedAt:  time.UnixMilli(parseInt64(data["received_at"])),
		ExpiresAt:   time.Unix(parseInt64(data["expires_at"]), 0),
	}
	if ts := parseInt64(data["processed_at"]); ts > 0 {
		at := time.UnixMilli(ts)
		evt.ProcessedAt = &at
	}
	if ts := parseInt64(data["delivered_at"]); ts > 0 {
		at := time.UnixMilli(ts)
		evt.DeliveredAt = &at
	}
	return evt, nil
}

// ListBySource scans a source's events newest first
func (l *Ledger) ListBySource(ctx context.Context, sourceID string, opts event.ListOptions) (event.Page, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}

	max := "+inf"
	if opts.Cursor != "" {
		// The cursor is the receive score of the last returned event
		max = "(" + opts.Cursor
	}

	indexKey := fmt.Sprintf("%s:%s", sourceIndex, sourceID)

	ids, err := l.client.ZRevRangeByScore(ctx, indexKey, &redis.ZRangeBy{
		Min:   "-inf",
		Max:   max,
		Count: int64(limit + 1),
	}).Result()
	if err != nil {
		return event.Page{}, fmt.Errorf("scanning source index: %w", err)
	}

	page := event.Page{Events: make([]event.Event, 0, len(ids))}
	var lastScore string
	for _, id := range ids {
		if len(page.Events) == limit {
			page.HasMore = true
			break
		}
		evt, err := l.GetEvent(ctx, id)
		if err != nil {
			return event.Page{}, err
		}
		if evt == nil {
			// Expired event still in the index; drop the stale entry
			l.client.ZRem(ctx, indexKey, id)
			continue
		}
		lastScore = strconv.FormatInt(evt.ReceivedAt.UnixMilli(), 10)
		if opts.Status != 0 && evt.Status != opts.Status {
			continue
		}
		page.Events = append(page.Events, *evt)
	}
	if page.HasMore {
		page.Cursor = lastScore
	}

	return page, nil
}

// UpdateStatus applies a last-writer-wins status update and stamps the
// matching timestamp
func (l *Ledger) UpdateStatus(ctx context.Context, id string, status event.Status) error {
	if err := status.Validate(); err != nil {
		return fmt.Errorf("validating status: %w", err)
	}

	key := fmt.Sprintf("%s:%s", eventPrefix, id)

	fields := map[string]interface{}{
		"status": status.String(),
	}
	switch status {
	case event.Processing:
		fields["processed_at"] = time.Now().UnixMilli()
	case event.Delivered:
		fields["delivered_at"] = time.Now().UnixMilli()
	}

	if err := l.client.HSet(ctx, key, fields).Err(); err != nil {
		return fmt.Errorf("updating status: %w", err)
	}
	return nil
}

// PutAttempt appends an attempt to the event's delivery history
func (l *Ledger) PutAttempt(ctx context.Context, att event.Attempt) error {
	att.ResponseBody = event.TruncateResponseBody(att.ResponseBody)

	raw, err := json.Marshal(attemptRecord{
		EventID:        att.EventID,
		ConnectionID:   att.ConnectionID,
		AttemptNumber:  att.AttemptNumber,
		DestinationURL: att.DestinationURL,
		StatusCode:     att.StatusCode,
		ResponseBody:   att.ResponseBody,
		LatencyMs:      att.LatencyMs,
		Error:          att.Error,
		AttemptedAt:    att.AttemptedAt.UnixMilli(),
	})
	if err != nil {
		return fmt.Errorf("marshaling attempt: %w", err)
	}

	key := fmt.Sprintf("%s:%s:%s", eventPrefix, att.EventID, attemptsSuffix)

	err = l.client.ZAdd(ctx, key, redis.Z{
		Score:  float64(att.AttemptNumber),
		Member: string(raw),
	}).Err()
	if err != nil {
		return fmt.Errorf("storing attempt: %w", err)
	}

	// Attempts share the event's retention window
	if expiresAt, err := l.client.HGet(ctx, fmt.Sprintf("%s:%s", eventPrefix, att.EventID), "expires_at").Result(); err == nil {
		if ts := parseInt64(expiresAt); ts > 0 {
			l.client.ExpireAt(ctx, key, time.Unix(ts, 0))
		}
	}

	return nil
}

// ListAttempts returns the event's delivery history ordered by attempt number
func (l *Ledger) ListAttempts(ctx context.Context, eventID string) ([]event.Attempt, error) {
	key := fmt.Sprintf("%s:%s:%s", eventPrefix, eventID, attemptsSuffix)

	members, err := l.client.ZRange(ctx, key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("listing attempts: %w", err)
	}

	attempts := make([]event.Attempt, 0, len(members))
	for _, member := range members {
		var rec attemptRecord
		if err := json.Unmarshal([]byte(member), &rec); err != nil {
			return nil, fmt.Errorf("unmarshaling attempt: %w", err)
		}
		attempts = append(attempts, event.Attempt{
			EventID:        rec.EventID,
			ConnectionID:   rec.ConnectionID,
			AttemptNumber:  rec.AttemptNumber,
			DestinationURL: rec.DestinationURL,
			StatusCode:     rec.StatusCode,
			ResponseBody:   rec.ResponseBody,
			LatencyMs:      rec.LatencyMs,
			Error:          rec.Error,
			AttemptedAt:    time.UnixMilli(rec.AttemptedAt),
		})
	}
	return attempts, nil
}

// Close closes the Redis connection
func (l *Ledger) Close(ctx context.Context) error {
	return l.client.Close()
}

type attemptRecord struct {
	EventID        string `json:"event_id"`
	ConnectionID   string `json:"connection_id"`
	AttemptNumber  int    `json:"attempt_number"`
	DestinationURL string `json:"destination_url"`
	StatusCode     int    `json:"status_code"`
	ResponseBody   string `json:"response_body,omitempty"`
	LatencyMs      int64  `json:"latency_ms"`
	Error          string `json:"error,omitempty"`
	AttemptedAt    int64  `json:"attempted_at"`
}

func parseInt64(s string) int64 {
	var result int64
	fmt.Sscanf(s, "%d", &result)
	return result
}
