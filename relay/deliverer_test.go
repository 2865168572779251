package relay_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ferryhook/relay/event"
	eventmocks "github.com/ferryhook/relay/event/mocks"
	"github.com/ferryhook/relay/queue"
	queuemocks "github.com/ferryhook/relay/queue/mocks"
	"github.com/ferryhook/relay/relay"
	"github.com/ferryhook/relay/signature"
	sourcemocks "github.com/ferryhook/relay/source/mocks"
)

type delivererFixture struct {
	ledger   *eventmocks.Ledger
	store    *sourcemocks.Store
	deliverQ *queuemocks.Queue
	runner   *relay.TaskRunner
	svc      *relay.Deliverer
}

func newDelivererFixture(t *testing.T, guard relay.URLGuard) *delivererFixture {
	t.Helper()
	f := &delivererFixture{
		ledger:   eventmocks.NewLedger(t),
		store:    sourcemocks.NewStore(t),
		deliverQ: queuemocks.NewQueue(t),
		runner:   relay.NewTaskRunner(16, zerolog.Nop()),
	}
	f.svc = relay.NewDeliverer(f.ledger, f.store, f.deliverQ, nil, guard, f.runner, nil, zerolog.Nop())
	return f
}

func allowAll(string) bool { return true }

func deliveryMsg(t *testing.T, task relay.DeliveryTask) queue.Message {
	t.Helper()
	body, err := relay.EncodeDeliveryTask(task)
	require.NoError(t, err)
	return queue.Message{ID: "1-0", Body: body}
}

func baseTask(url string) relay.DeliveryTask {
	return relay.DeliveryTask{
		EventID:        "evt_1",
		ConnectionID:   "conn_1",
		DestinationURL: url,
		Payload:        []byte(`{"hello":"world"}`),
		Attempt:        1,
		SigningSecret:  "whsec_test",
	}
}

func TestDelivererHandle(t *testing.T) {
	ctx := context.Background()

	t.Run("delivers and records a successful attempt", func(t *testing.T) {
		var gotReq *http.Request
		var gotBody []byte
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotReq = r.Clone(context.Background())
			gotBody, _ = io.ReadAll(r.Body)
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`ok`))
		}))
		defer srv.Close()

		f := newDelivererFixture(t, allowAll)
		task := baseTask(srv.URL)

		f.ledger.On("GetEvent", ctx, "evt_1").Return(&event.Event{ID: "evt_1", SourceID: "src_1"}, nil)

		var att event.Attempt
		f.ledger.On("PutAttempt", ctx, mock.MatchedBy(func(a event.Attempt) bool {
			att = a
			return a.EventID == "evt_1" && a.ConnectionID == "conn_1"
		})).Return(nil)
		f.ledger.On("UpdateStatus", ctx, "evt_1", event.Delivered).Return(nil)
		f.store.On("RecordDeliveryResult", mock.Anything, "conn_1", true).Return(nil)

		err := f.svc.Handle(ctx, deliveryMsg(t, task))
		f.runner.Close()

		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, att.StatusCode)
		assert.Equal(t, "ok", att.ResponseBody)
		assert.Equal(t, 1, att.AttemptNumber)

		// Outbound envelope
		assert.Equal(t, `{"hello":"world"}`, string(gotBody))
		assert.Equal(t, "application/json", gotReq.Header.Get("Content-Type"))
		assert.Equal(t, "Ferryhook/1.0", gotReq.Header.Get("User-Agent"))
		assert.Equal(t, "evt_1", gotReq.Header.Get("X-Ferryhook-Event-Id"))
		assert.NotEmpty(t, gotReq.Header.Get("X-Ferryhook-Timestamp"))

		// Receiver-side verification of the outbound signature
		sig := gotReq.Header.Get("X-Ferryhook-Signature")
		assert.True(t, signature.Verify(signature.Stripe, gotBody, sig, "whsec_test"))
	})

	t.Run("forwards the task's content type", func(t *testing.T) {
		var gotContentType string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotContentType = r.Header.Get("Content-Type")
			w.WriteHeader(http.StatusOK)
		}))
		defer srv.Close()

		f := newDelivererFixture(t, allowAll)
		task := baseTask(srv.URL)
		task.Payload = []byte(`amount=100&type=payment.succeeded`)
		task.Headers = map[string]string{"Content-Type": "application/x-www-form-urlencoded"}

		f.ledger.On("GetEvent", ctx, "evt_1").Return(&event.Event{ID: "evt_1", SourceID: "src_1"}, nil)
		f.ledger.On("PutAttempt", ctx, mock.Anything).Return(nil)
		f.ledger.On("UpdateStatus", ctx, "evt_1", event.Delivered).Return(nil)
		f.store.On("RecordDeliveryResult", mock.Anything, "conn_1", true).Return(nil)

		err := f.svc.Handle(ctx, deliveryMsg(t, task))
		f.runner.Close()

		require.NoError(t, err)
		assert.Equal(t, "application/x-www-form-urlencoded", gotContentType)
	})

	t.Run("non-2xx schedules a retry with backoff", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()

		f := newDelivererFixture(t, allowAll)
		task := baseTask(srv.URL)
		task.Attempt = 2

		f.ledger.On("GetEvent", ctx, "evt_1").Return(&event.Event{ID: "evt_1"}, nil)
		f.ledger.On("PutAttempt", ctx, mock.Anything).Return(nil)

		var retryBody []byte
		var retryDelay time.Duration
		f.deliverQ.On("Enqueue", ctx, mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
			retryBody = args.Get(1).([]byte)
			retryDelay = args.Get(2).(time.Duration)
		}).Return(nil)
		f.ledger.On("UpdateStatus", ctx, "evt_1", event.Retrying).Return(nil)
		f.store.On("RecordDeliveryResult", mock.Anything, "conn_1", false).Return(nil)

		err := f.svc.Handle(ctx, deliveryMsg(t, task))
		f.runner.Close()

		require.NoError(t, err)
		assert.Equal(t, 2*time.Minute, retryDelay)

		next, err := relay.DecodeDeliveryTask(retryBody)
		require.NoError(t, err)
		assert.Equal(t, 3, next.Attempt)
		assert.Greater(t, next.NotBefore, time.Now().Unix())
	})

	t.Run("exhausted attempts mark the event failed", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer srv.Close()

		f := newDelivererFixture(t, allowAll)
		task := baseTask(srv.URL)
		task.Attempt = relay.MaxRetryAttempts

		f.ledger.On("GetEvent", ctx, "evt_1").Return(&event.Event{ID: "evt_1"}, nil)
		f.ledger.On("PutAttempt", ctx, mock.Anything).Return(nil)
		f.ledger.On("UpdateStatus", ctx, "evt_1", event.Failed).Return(nil)
		f.store.On("RecordDeliveryResult", mock.Anything, "conn_1", false).Return(nil)

		err := f.svc.Handle(ctx, deliveryMsg(t, task))
		f.runner.Close()

		require.NoError(t, err)
		f.deliverQ.AssertNotCalled(t, "Enqueue", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("transport failure counts as an attempt", func(t *testing.T) {
		f := newDelivererFixture(t, allowAll)
		// A closed server: connection refused
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		url := srv.URL
		srv.Close()

		task := baseTask(url)
		f.ledger.On("GetEvent", ctx, "evt_1").Return(&event.Event{ID: "evt_1"}, nil)

		var att event.Attempt
		f.ledger.On("PutAttempt", ctx, mock.MatchedBy(func(a event.Attempt) bool {
			att = a
			return true
		})).Return(nil)
		f.deliverQ.On("Enqueue", ctx, mock.Anything, 30*time.Second).Return(nil)
		f.ledger.On("UpdateStatus", ctx, "evt_1", event.Retrying).Return(nil)
		f.store.On("RecordDeliveryResult", mock.Anything, "conn_1", false).Return(nil)

		err := f.svc.Handle(ctx, deliveryMsg(t, task))
		f.runner.Close()

		require.NoError(t, err)
		assert.Equal(t, 0, att.StatusCode)
		assert.Contains(t, att.Error, "sending request")
	})

	t.Run("blocked destination is abandoned without retry", func(t *testing.T) {
		f := newDelivererFixture(t, nil) // real SSRF guard
		task := baseTask("http://169.254.169.254/latest/meta-data")

		f.ledger.On("GetEvent", ctx, "evt_1").Return(&event.Event{ID: "evt_1"}, nil)

		var att event.Attempt
		f.ledger.On("PutAttempt", ctx, mock.MatchedBy(func(a event.Attempt) bool {
			att = a
			return true
		})).Return(nil)

		err := f.svc.Handle(ctx, deliveryMsg(t, task))
		f.runner.Close()

		require.NoError(t, err)
		assert.Equal(t, 0, att.StatusCode)
		assert.Equal(t, "SSRF protection: blocked URL", att.Error)
		f.deliverQ.AssertNotCalled(t, "Enqueue", mock.Anything, mock.Anything, mock.Anything)
		f.ledger.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("early receive re-enqueues with the remaining delay", func(t *testing.T) {
		f := newDelivererFixture(t, allowAll)
		task := baseTask("https://example.com/hook")
		task.NotBefore = time.Now().Add(time.Hour).Unix()

		var delay time.Duration
		f.deliverQ.On("Enqueue", ctx, mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
			delay = args.Get(2).(time.Duration)
		}).Return(nil)

		err := f.svc.Handle(ctx, deliveryMsg(t, task))
		f.runner.Close()

		require.NoError(t, err)
		assert.InDelta(t, time.Hour, delay, float64(5*time.Second))
		f.ledger.AssertNotCalled(t, "GetEvent", mock.Anything, mock.Anything)
	})

	t.Run("expired event is acknowledged", func(t *testing.T) {
		f := newDelivererFixture(t, allowAll)
		task := baseTask("https://example.com/hook")

		f.ledger.On("GetEvent", ctx, "evt_1").Return(nil, nil)

		err := f.svc.Handle(ctx, deliveryMsg(t, task))
		f.runner.Close()

		require.NoError(t, err)
	})

	t.Run("truncates long response bodies", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(strings.Repeat("x", 5000)))
		}))
		defer srv.Close()

		f := newDelivererFixture(t, allowAll)
		task := baseTask(srv.URL)

		f.ledger.On("GetEvent", ctx, "evt_1").Return(&event.Event{ID: "evt_1"}, nil)

		var att event.Attempt
		f.ledger.On("PutAttempt", ctx, mock.MatchedBy(func(a event.Attempt) bool {
			att = a
			return true
		})).Return(nil)
		f.deliverQ.On("Enqueue", ctx, mock.Anything, mock.Anything).Return(nil)
		f.ledger.On("UpdateStatus", ctx, "evt_1", event.Retrying).Return(nil)
		f.store.On("RecordDeliveryResult", mock.Anything, "conn_1", false).Return(nil)

		err := f.svc.Handle(ctx, deliveryMsg(t, task))
		f.runner.Close()

		require.NoError(t, err)
		assert.Len(t, att.ResponseBody, event.MaxResponseBodyLen)
	})
}

func TestRetrySchedule(t *testing.T) {
	expected := []time.Duration{
		0,
		30 * time.Second,
		2 * time.Minute,
		15 * time.Minute,
		1 * time.Hour,
		4 * time.Hour,
		12 * time.Hour,
		24 * time.Hour,
	}
	assert.Equal(t, expected, relay.RetrySchedule)
	assert.Len(t, relay.RetrySchedule, relay.MaxRetryAttempts)
}
