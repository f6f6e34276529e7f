// Package mqtt publishes lock and lifecycle events with abstraction for testing.
package mqtt

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/sweeney/dumb-door/internal/lock"
)

// Topic is the MQTT topic for lock transitions.
const Topic = "door/lock/events"

// TopicSystem is the MQTT topic for system lifecycle events.
const TopicSystem = "door/lock/system"

// Lifecycle event names.
const (
	EventStartup  = "STARTUP"
	EventReady    = "READY"
	EventShutdown = "SHUTDOWN"
	EventFatal    = "FATAL"
	EventLWT      = "OFFLINE"
)

// Publisher publishes events to MQTT.
type Publisher interface {
	// PublishLock sends a lock transition to the broker.
	// Returns error if publishing fails (should not crash the process).
	PublishLock(event LockEvent) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// LockEvent is one lock transition.
type LockEvent struct {
	ID        string
	Timestamp time.Time
	From      lock.State
	To        lock.State
	Source    string // e.g., "button"
}

// NewLockEvent creates a LockEvent with a fresh id.
func NewLockEvent(ts time.Time, from, to lock.State, source string) LockEvent {
	return LockEvent{
		ID:        uuid.NewString(),
		Timestamp: ts,
		From:      from,
		To:        to,
		Source:    source,
	}
}

// EventName returns LOCK_OPENED or LOCK_LOCKED.
func (e LockEvent) EventName() string {
	if e.To == lock.Open {
		return "LOCK_OPENED"
	}
	return "LOCK_LOCKED"
}

// SystemEvent represents a system lifecycle event (e.g., startup, fatal).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "STARTUP", "READY", "SHUTDOWN", "FATAL"
	Reason     string // e.g., "SIGTERM", or the error kind for FATAL
	Device     string
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool   // Whether the message should be retained by the broker
}

// Payload represents the MQTT message payload for lock events.
type Payload struct {
	Door DoorPayload `json:"door"`
}

// DoorPayload contains the lock event details.
type DoorPayload struct {
	ID        string `json:"id"`
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	From      string `json:"from"`
	To        string `json:"to"`
	Source    string `json:"source,omitempty"`
}

// FormatPayload creates the JSON payload for a lock event.
func FormatPayload(event LockEvent) ([]byte, error) {
	payload := Payload{
		Door: DoorPayload{
			ID:        event.ID,
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.EventName(),
			From:      event.From.String(),
			To:        event.To.String(),
			Source:    event.Source,
		},
	}
	return json.Marshal(payload)
}

// SystemPayload represents the MQTT message payload for system events.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Device    string `json:"device,omitempty"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly.
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	payload := SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Device:    event.Device,
			Reason:    event.Reason,
		},
	}
	return json.Marshal(payload)
}
