// Package mqtt provides MQTT publishing with abstraction for testing.
package mqtt

import (
	"encoding/json"
	"time"

	"github.com/sweeney/backlight-controller/internal/logic"
)

// TopicPrefix is the root of every topic this daemon publishes.
const TopicPrefix = "display/backlight"

// EventTopic is the topic for backlight transition events of one unit.
func EventTopic(unit string) string {
	return TopicPrefix + "/" + unit + "/events"
}

// SystemTopic is the topic for lifecycle events of one unit.
func SystemTopic(unit string) string {
	return TopicPrefix + "/" + unit + "/system"
}

// Transition events are at-most-once; lifecycle events are at-least-once.
const (
	EventQoS  byte = 0
	SystemQoS byte = 1
)

// Publisher publishes events to MQTT.
type Publisher interface {
	// Publish sends a backlight event to the broker.
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
	Event      string // e.g., "STARTUP", "SHUTDOWN", "HEARTBEAT"
	Reason     string // e.g., "SIGTERM", "SIGINT" (shutdown only)
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool   // Whether the message should be retained by the broker
}

// Payload represents the MQTT message payload structure.
type Payload struct {
	Backlight BacklightPayload `json:"backlight"`
}

// BacklightPayload contains the backlight event details.
type BacklightPayload struct {
	Timestamp  string `json:"timestamp"`
	Event      string `json:"event"`
	Role       string `json:"role"`
	State      string `json:"state"`
	UptimeMs   uint32 `json:"uptime_ms"`
	DeadlineMs uint32 `json:"deadline_ms,omitempty"`
}

func stateString(on bool) string {
	if on {
		return "ON"
	}
	return "OFF"
}

// FormatPayload creates the JSON payload for a backlight event.
func FormatPayload(event logic.Event) ([]byte, error) {
	payload := Payload{
		Backlight: BacklightPayload{
			Timestamp:  event.Timestamp.UTC().Format(time.RFC3339),
			Event:      string(event.Type),
			Role:       event.Role.String(),
			State:      stateString(event.Backlight),
			UptimeMs:   uint32(event.Uptime),
			DeadlineMs: uint32(event.Deadline),
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
