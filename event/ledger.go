package event

import "context"

// Page is one slice of a time-descending event listing
type Page struct {
	Events  []Event
	Cursor  string
	HasMore bool
}

// ListOptions narrows an event listing
type ListOptions struct {
	Limit  int
	Cursor string
	Status Status // zero value means any
}

// Reader provides read access to the ledger
type Reader interface {
	// GetEvent returns nil with no error when the event does not exist
	GetEvent(ctx context.Context, id string) (*Event, error)
	ListBySource(ctx context.Context, sourceID string, opts ListOptions) (Page, error)
	ListAttempts(ctx context.Context, eventID string) ([]Attempt, error)
}

// Writer provides write access to the ledger
type Writer interface {
	PutEvent(ctx context.Context, evt Event) error
	/* UpdateStatus is a last-writer-wins update scoped to the event's
	 * own record; it stamps processedAt/deliveredAt as a side effect of
	 * the matching transitions
	 */
	UpdateStatus(ctx context.Context, id string, status Status) error
	PutAttempt(ctx context.Context, att Attempt) error
}

// Ledger is the full event store contract
type Ledger interface {
	Reader
	Writer
	Close(ctx context.Context) error
}
