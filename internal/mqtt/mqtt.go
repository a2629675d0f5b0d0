// Package mqtt provides MQTT publishing with abstraction for testing.
package mqtt

import (
	"encoding/json"
	"time"

	"github.com/sweeney/rc-indicator/internal/logic"
)

// Topic is the MQTT topic for indicator events.
const Topic = "rc/indicator/events"

// TopicSystem is the MQTT topic for system lifecycle events.
const TopicSystem = "rc/indicator/system"

// System event names.
const (
	EventStartup     = "STARTUP"
	EventShutdown    = "SHUTDOWN"
	EventHeartbeat   = "HEARTBEAT"
	EventFailsafe    = "FAILSAFE"
	EventReconnected = "RECONNECTED"
)

// Publisher publishes events to MQTT.
type Publisher interface {
	// Publish sends an indicator event to the broker.
	// Returns error if publishing fails (should not crash the process).
	Publish(event logic.Event) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// SystemEvent represents a system lifecycle event (e.g., startup, shutdown, heartbeat).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "STARTUP", "SHUTDOWN", "FAILSAFE"
	Reason     string // e.g., "SIGTERM", "JUMPER" (shutdown and failsafe only)
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool   // Whether the message should be retained by the broker
}

// Payload represents the MQTT message payload structure.
type Payload struct {
	Indicator IndicatorPayload `json:"indicator"`
}

// IndicatorPayload contains the indicator event details.
type IndicatorPayload struct {
	Timestamp string       `json:"timestamp"`
	Event     string       `json:"event"`
	Mode      string       `json:"mode"`
	From      ReadingState `json:"from"`
	To        ReadingState `json:"to"`
}

// ReadingState is a single interpreted reading.
type ReadingState struct {
	State   string `json:"state"`
	Percent *int   `json:"percent,omitempty"`
	Signal  bool   `json:"signal"`
}

func readingState(r logic.Reading) ReadingState {
	rs := ReadingState{State: string(r.State), Signal: r.Signal}
	if r.Mode == logic.ModeContinuous && r.Signal {
		p := r.Percent
		rs.Percent = &p
	}
	return rs
}

// FormatPayload creates the JSON payload for an indicator event.
// Percent is only present for continuous readings that carry a signal.
func FormatPayload(event logic.Event) ([]byte, error) {
	payload := Payload{
		Indicator: IndicatorPayload{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     string(event.Type),
			Mode:      string(event.To.Mode),
			From:      readingState(event.From),
			To:        readingState(event.To),
		},
	}
	return json.Marshal(payload)
}

// SystemPayload represents the MQTT message payload for system events.
// Used for simple events (LWT, RECONNECTED) that don't carry a full status snapshot.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly (used for full status snapshots).
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	payload := SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	}
	return json.Marshal(payload)
}
