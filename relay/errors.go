package relay

import "errors"

/* Errors surfaced to the HTTP front door. Everything else escaping the
 * pipeline is infrastructure failure and maps to a 500.
 */
var (
	/* ErrSourceNotFound covers missing, paused and deleted sources
	 * alike: the response must not leak existence or state to
	 * unauthenticated senders
	 */
	ErrSourceNotFound = errors.New("source not found")

	ErrEventNotFound = errors.New("event not found")

	// ErrRateLimited means the per-minute window is full; retryable
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrPlanLimitReached means the free-tier monthly cap is hit
	ErrPlanLimitReached = errors.New("monthly event limit reached")

	ErrValidation = errors.New("validation failed")
)
