package event

import "fmt"

/* Status represents the event lifecycle
 * received -> processing -> {filtered | signature_failed | delivered |
 * retrying -> ... | failed}
 * Only the processing stage and delivery worker drive transitions, plus
 * the explicit operator replay which resets to retrying
 */
type Status int

const (
	Received Status = iota + 1
	Processing
	Filtered
	SignatureFailed
	Delivered
	Retrying
	Failed
)

// String returns the string representation of the status
func (s Status) String() string {
	switch s {
	case Received:
		return "received"
	case Processing:
		return "processing"
	case Filtered:
		return "filtered"
	case SignatureFailed:
		return "signature_failed"
	case Delivered:
		return "delivered"
	case Retrying:
		return "retrying"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// NewStatus creates a Status from a string
func NewStatus(str string) Status {
	switch str {
	case "received":
		return Received
	case "processing":
		return Processing
	case "filtered":
		return Filtered
	case "signature_failed":
		return SignatureFailed
	case "delivered":
		return Delivered
	case "retrying":
		return Retrying
	case "failed":
		return Failed
	default:
		return Received
	}
}

// Validate checks if the status is valid
func (s Status) Validate() error {
	if s < Received || s > Failed {
		return fmt.Errorf("invalid status: %d", s)
	}
	return nil
}

// IsFinal returns true if the status is a terminal state
func (s Status) IsFinal() bool {
	switch s {
	case Delivered, Failed, Filtered, SignatureFailed:
		return true
	default:
		return false
	}
}
