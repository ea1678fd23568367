package payment

import (
	"time"

	"github.com/dmitrymomot/captiveportal/pkg/portalapi"
)

// EventType classifies observer events.
type EventType string

const (
	EventStateChanged EventType = "state_changed"
	EventCountdown    EventType = "countdown"
	// EventTimeout is published once when the countdown reaches zero while pending.
	EventTimeout   EventType = "timeout"
	EventPollError EventType = "poll_error"
	EventConfirmed EventType = "confirmed"
	EventExpired   EventType = "expired"
	EventFailed    EventType = "failed"
	// EventStopped is published when the polling context ends without Cancel
	// or a final status. Remaining carries the frozen countdown.
	EventStopped EventType = "polling_stopped"
)

// Event is published to the observer after the engine lock is released,
// in the order the engine produced it.
type Event struct {
	Type          EventType
	From          State
	To            State
	TransactionID string
	Remaining     time.Duration
	Credentials   *portalapi.WiFiCredentials
	Err           error
	At            time.Time
}
