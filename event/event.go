// Package event holds the durable records of the relay: events and their
// delivery attempts, plus the ledger interfaces over the keyed store.
package event

import "time"

// MaxResponseBodyLen caps the stored destination response body
const MaxResponseBodyLen = 1000

/* Event is one received webhook occurrence
 * Created once at ingestion; only its status (and the status timestamps)
 * mutate afterwards. Expiry-based deletion enforces the owner's plan
 * retention window.
 */
type Event struct {
	ID          string
	SourceID    string
	OwnerID     string
	Status      Status
	Headers     map[string]string
	Body        []byte
	SourceIP    string
	ContentType string
	Method      string
	ReceivedAt  time.Time
	ProcessedAt *time.Time
	DeliveredAt *time.Time
	ExpiresAt   time.Time
}

/* Attempt is one delivery try for an (event, connection) pair
 * Immutable once created; the ordered sequence of attempts is the
 * event's delivery history. StatusCode 0 means the request never got a
 * response (transport failure or a blocked URL).
 */
type Attempt struct {
	EventID        string
	ConnectionID   string
	AttemptNumber  int
	DestinationURL string
	StatusCode     int
	ResponseBody   string
	LatencyMs      int64
	Error          string
	AttemptedAt    time.Time
}

// TruncateResponseBody enforces the stored-body cap
func TruncateResponseBody(body string) string {
	if len(body) > MaxResponseBodyLen {
		return body[:MaxResponseBodyLen]
	}
	return body
}
