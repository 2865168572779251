package source

import "fmt"

/* Status is shared by sources and connections
 * Records are soft-deleted: deleted is a status, never a physical delete
 */
type Status int

const (
	Active Status = iota + 1
	Paused
	Deleted
)

// String returns the string representation of the status
func (s Status) String() string {
	switch s {
	case Active:
		return "active"
	case Paused:
		return "paused"
	case Deleted:
		return "deleted"
	default:
		return "unknown"
	}
}

// NewStatus creates a Status from a string
func NewStatus(str string) Status {
	switch str {
	case "active":
		return Active
	case "paused":
		return Paused
	case "deleted":
		return Deleted
	default:
		return Paused // default to inert rather than routable
	}
}

// Validate checks if the status is valid
func (s Status) Validate() error {
	if s < Active || s > Deleted {
		return fmt.Errorf("invalid status: %d", s)
	}
	return nil
}
