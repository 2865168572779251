package relay

import (
	"encoding/json"
	"fmt"
)

// ProcessRef is the process-queue message: a reference to a stored
// event, never the event itself
type ProcessRef struct {
	EventID  string `json:"event_id"`
	SourceID string `json:"source_id"`
}

/* DeliveryTask is the deliver-queue message. Transient and
 * reconstructible from Event + Connection if lost, except the attempt
 * number, carried explicitly to avoid a ledger read on every retry.
 */
type DeliveryTask struct {
	EventID        string            `json:"event_id"`
	ConnectionID   string            `json:"connection_id"`
	DestinationURL string            `json:"destination_url"`
	Payload        []byte            `json:"payload"`
	Headers        map[string]string `json:"headers,omitempty"`
	Attempt        int               `json:"attempt"`
	SigningSecret  string            `json:"signing_secret"`
	// NotBefore is the unix time before which the task must not run.
	// Set for retries whose backoff exceeds the queue's maximum delay;
	// an early receive re-enqueues with the remaining delay.
	NotBefore int64 `json:"not_before,omitempty"`
}

// forwardedHeaders is the minimal header set carried from the inbound
// request to the destination: just the content type, defaulted when the
// provider sent none
func forwardedHeaders(contentType string) map[string]string {
	if contentType == "" {
		contentType = "application/json"
	}
	return map[string]string{"Content-Type": contentType}
}

// EncodeProcessRef serializes a process-queue message
func EncodeProcessRef(ref ProcessRef) ([]byte, error) {
	body, err := json.Marshal(ref)
	if err != nil {
		return nil, fmt.Errorf("encoding process ref: %w", err)
	}
	return body, nil
}

// DecodeProcessRef parses a process-queue message
func DecodeProcessRef(body []byte) (ProcessRef, error) {
	var ref ProcessRef
	if err := json.Unmarshal(body, &ref); err != nil {
		return ProcessRef{}, fmt.Errorf("decoding process ref: %w", err)
	}
	if ref.EventID == "" || ref.SourceID == "" {
		return ProcessRef{}, fmt.Errorf("process ref missing event or source id")
	}
	return ref, nil
}

// EncodeDeliveryTask serializes a deliver-queue message
func EncodeDeliveryTask(task DeliveryTask) ([]byte, error) {
	body, err := json.Marshal(task)
	if err != nil {
		return nil, fmt.Errorf("encoding delivery task: %w", err)
	}
	return body, nil
}

// DecodeDeliveryTask parses a deliver-queue message
func DecodeDeliveryTask(body []byte) (DeliveryTask, error) {
	var task DeliveryTask
	if err := json.Unmarshal(body, &task); err != nil {
		return DeliveryTask{}, fmt.Errorf("decoding delivery task: %w", err)
	}
	if task.EventID == "" || task.ConnectionID == "" {
		return DeliveryTask{}, fmt.Errorf("delivery task missing event or connection id")
	}
	return task, nil
}
