package relay

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/ferryhook/relay/event"
	"github.com/ferryhook/relay/metrics"
	"github.com/ferryhook/relay/queue"
	"github.com/ferryhook/relay/signature"
	"github.com/ferryhook/relay/source"
	"github.com/ferryhook/relay/ssrf"
)

const (
	// MaxRetryAttempts caps total delivery tries per (event, connection)
	MaxRetryAttempts = 8

	// DeliveryTimeout bounds one outbound request end to end
	DeliveryTimeout = 10 * time.Second

	// maxStoredResponse bounds how much of the destination's response we read
	maxStoredResponse = 64 * 1024
)

// RetrySchedule maps the just-failed attempt number to the delay before
// the next try. Index 0 is unused; the first delivery runs immediately.
var RetrySchedule = []time.Duration{
	0,
	30 * time.Second,
	2 * time.Minute,
	15 * time.Minute,
	1 * time.Hour,
	4 * time.Hour,
	12 * time.Hour,
	24 * time.Hour,
}

/* Deliverer executes delivery tasks: sign the payload, POST it to the
 * destination, record the attempt, and either finish the event or
 * schedule the next try per the backoff schedule. A destination URL is
 * re-checked against the SSRF guard on every attempt because the
 * connection record may have changed since fan-out.
 */
type Deliverer struct {
	ledger   event.Ledger
	store    source.Store
	deliverQ queue.Queue
	client   *http.Client
	guard    URLGuard
	runner   *TaskRunner
	metrics  *metrics.Pipeline
	logger   zerolog.Logger
	now      func() time.Time
}

// URLGuard decides whether a destination URL may be dialed.
type URLGuard func(rawURL string) bool

// NewDeliverer creates the delivery worker over the given dependencies.
// A nil client gets the default timeout; a nil guard gets the SSRF guard.
func NewDeliverer(ledger event.Ledger, store source.Store, deliverQ queue.Queue, client *http.Client, guard URLGuard, runner *TaskRunner, pipeline *metrics.Pipeline, logger zerolog.Logger) *Deliverer {
	if client == nil {
		client = &http.Client{Timeout: DeliveryTimeout}
	}
	if guard == nil {
		guard = ssrf.IsAllowed
	}
	return &Deliverer{
		ledger:   ledger,
		store:    store,
		deliverQ: deliverQ,
		client:   client,
		guard:    guard,
		runner:   runner,
		metrics:  pipeline,
		logger:   logger,
		now:      time.Now,
	}
}

// WithClock replaces the deliverer's time source
func (d *Deliverer) WithClock(now func() time.Time) *Deliverer {
	d.now = now
	return d
}

// Handle executes one message from the deliver queue.
// A nil return means the message may be acknowledged.
func (d *Deliverer) Handle(ctx context.Context, msg queue.Message) error {
	task, err := DecodeDeliveryTask(msg.Body)
	if err != nil {
		d.logger.Error().Err(err).Str("message_id", msg.ID).Msg("dropping malformed delivery message")
		return nil
	}

	logger := d.logger.With().
		Str("event_id", task.EventID).
		Str("connection_id", task.ConnectionID).
		Int("attempt", task.Attempt).
		Logger()

	now := d.now().UTC()

	// Backoffs longer than the queue's maximum delay arrive early;
	// push the task back out with the remaining wait
	if task.NotBefore > now.Unix() {
		remaining := time.Duration(task.NotBefore-now.Unix()) * time.Second
		body, err := EncodeDeliveryTask(task)
		if err != nil {
			return fmt.Errorf("re-encoding delayed task: %w", err)
		}
		if err := d.deliverQ.Enqueue(ctx, body, remaining); err != nil {
			return fmt.Errorf("re-enqueueing delayed task: %w", err)
		}
		return nil
	}

	evt, err := d.ledger.GetEvent(ctx, task.EventID)
	if err != nil {
		return fmt.Errorf("loading event: %w", err)
	}
	if evt == nil {
		logger.Warn().Msg("event expired before delivery, acknowledging")
		return nil
	}

	if !d.guard(task.DestinationURL) {
		logger.Warn().Str("url", task.DestinationURL).Msg("destination blocked by SSRF guard")
		att := event.Attempt{
			EventID:        task.EventID,
			ConnectionID:   task.ConnectionID,
			AttemptNumber:  task.Attempt,
			DestinationURL: task.DestinationURL,
			StatusCode:     0,
			Error:          "SSRF protection: blocked URL",
			AttemptedAt:    now,
		}
		if err := d.ledger.PutAttempt(ctx, att); err != nil {
			return fmt.Errorf("recording blocked attempt: %w", err)
		}
		d.metrics.DeliveryAttempt(ctx, "blocked", 0)
		// Abandoned, not retried: the URL will not become safe by waiting
		return nil
	}

	att := d.attempt(ctx, task, now)
	if err := d.ledger.PutAttempt(ctx, att); err != nil {
		return fmt.Errorf("recording attempt: %w", err)
	}

	delivered := att.StatusCode >= 200 && att.StatusCode < 300

	if delivered {
		d.metrics.DeliveryAttempt(ctx, "delivered", time.Duration(att.LatencyMs)*time.Millisecond)
		if err := d.ledger.UpdateStatus(ctx, task.EventID, event.Delivered); err != nil {
			return fmt.Errorf("marking event delivered: %w", err)
		}
		d.recordResult(task.ConnectionID, true)
		logger.Info().Int("status_code", att.StatusCode).Int64("latency_ms", att.LatencyMs).Msg("delivered")
		return nil
	}

	if task.Attempt >= MaxRetryAttempts {
		d.metrics.DeliveryAttempt(ctx, "failed", time.Duration(att.LatencyMs)*time.Millisecond)
		if err := d.ledger.UpdateStatus(ctx, task.EventID, event.Failed); err != nil {
			return fmt.Errorf("marking event failed: %w", err)
		}
		d.recordResult(task.ConnectionID, false)
		logger.Warn().Int("status_code", att.StatusCode).Str("error", att.Error).Msg("delivery failed, retries exhausted")
		return nil
	}

	d.metrics.DeliveryAttempt(ctx, "retrying", time.Duration(att.LatencyMs)*time.Millisecond)

	delay := RetrySchedule[task.Attempt]
	next := task
	next.Attempt = task.Attempt + 1
	next.NotBefore = now.Add(delay).Unix()
	body, err := EncodeDeliveryTask(next)
	if err != nil {
		return fmt.Errorf("encoding retry task: %w", err)
	}
	if err := d.deliverQ.Enqueue(ctx, body, delay); err != nil {
		return fmt.Errorf("enqueueing retry: %w", err)
	}
	if err := d.ledger.UpdateStatus(ctx, task.EventID, event.Retrying); err != nil {
		return fmt.Errorf("marking event retrying: %w", err)
	}
	d.recordResult(task.ConnectionID, false)
	logger.Info().Int("status_code", att.StatusCode).Dur("delay", delay).Msg("delivery scheduled for retry")
	return nil
}

// attempt performs one signed POST and returns the attempt record
func (d *Deliverer) attempt(ctx context.Context, task DeliveryTask, now time.Time) event.Attempt {
	att := event.Attempt{
		EventID:        task.EventID,
		ConnectionID:   task.ConnectionID,
		AttemptNumber:  task.Attempt,
		DestinationURL: task.DestinationURL,
		AttemptedAt:    now,
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, task.DestinationURL, bytes.NewReader(task.Payload))
	if err != nil {
		att.Error = fmt.Sprintf("building request: %v", err)
		return att
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "Ferryhook/1.0")
	req.Header.Set("X-Ferryhook-Event-Id", task.EventID)
	req.Header.Set("X-Ferryhook-Timestamp", fmt.Sprintf("%d", now.Unix()))
	if task.SigningSecret != "" {
		req.Header.Set("X-Ferryhook-Signature", signature.SignOutbound(task.Payload, task.SigningSecret, now))
	}
	for k, v := range task.Headers {
		req.Header.Set(k, v)
	}

	start := d.now()
	resp, err := d.client.Do(req)
	att.LatencyMs = d.now().Sub(start).Milliseconds()
	if err != nil {
		att.Error = fmt.Sprintf("sending request: %v", err)
		return att
	}
	defer resp.Body.Close()

	att.StatusCode = resp.StatusCode
	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxStoredResponse))
	if err != nil {
		att.Error = fmt.Sprintf("reading response: %v", err)
		return att
	}
	att.ResponseBody = event.TruncateResponseBody(string(respBody))
	return att
}

// recordResult bumps the connection's delivery counters off the hot path
func (d *Deliverer) recordResult(connectionID string, delivered bool) {
	if d.runner == nil {
		return
	}
	d.runner.Submit(func(ctx context.Context) {
		if err := d.store.RecordDeliveryResult(ctx, connectionID, delivered); err != nil {
			d.logger.Warn().Err(err).Str("connection_id", connectionID).Msg("recording delivery result")
		}
	})
}
