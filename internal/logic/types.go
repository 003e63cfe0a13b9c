// Package logic contains the pure decision logic for the display backlight pair.
// This package has NO external dependencies (no GPIO, MQTT, OS, or time.Sleep).
// Time is always injectable: control decisions take a Millis value and
// published events take a time.Time.
package logic

import "time"

// Millis is a monotonic millisecond count since boot.
// It is 32 bits wide and wraps after about 49.7 days of uptime; comparisons
// against stored deadlines are plain unsigned comparisons and are not
// wrap-safe. Deployments on mains power must cycle power before then.
type Millis uint32

// Role identifies which unit of the pair this process is driving.
type Role int

const (
	RolePrimary Role = iota
	RoleSecondary
)

func (r Role) String() string {
	switch r {
	case RolePrimary:
		return "PRIMARY"
	case RoleSecondary:
		return "SECONDARY"
	}
	return "UNKNOWN"
}

// Sample is one reading of the logical input signals.
// Polarity has already been normalized: true always means asserted.
type Sample struct {
	Motion  bool // PIR detection pulse (primary)
	ForceOn bool // override button held (primary)
	Mirror  bool // mirrored backlight decision (secondary)
}

// Outputs are the logical output levels decided for one cycle.
// Only the fields owned by the unit's role are driven.
type Outputs struct {
	Backlight bool
	Mirror    bool // primary only
	Indicator bool // primary only
	Reset     bool // secondary only; true = reset asserted
}

// Timing holds the hold and reset-pulse durations.
type Timing struct {
	ShortHold  Millis // re-armed every cycle while force-on is held
	LongHold   Millis // latched by a single motion pulse
	ResetWait  Millis // secondary boot to reset assertion
	ResetPulse Millis // reset assertion width
}

// DefaultTiming returns the timing used by the deployed pair.
func DefaultTiming() Timing {
	return Timing{
		ShortHold:  500,
		LongHold:   20000,
		ResetWait:  7000,
		ResetPulse: 300,
	}
}

// SequencerState is the state of the boot reset sequencer.
type SequencerState string

const (
	SequencerWaiting   SequencerState = "WAITING"
	SequencerAsserting SequencerState = "ASSERTING"
	SequencerDone      SequencerState = "DONE"
)

// Cycle records one decision: what was sampled, what was decided, and the
// role-owned state after the decision.
type Cycle struct {
	Now     Millis
	Role    Role
	Sample  Sample
	Outputs Outputs

	// Deadline is the backlight-off deadline (primary only).
	Deadline Millis

	// Sequencer is the boot reset sequencer state (secondary only).
	Sequencer SequencerState
}

// EventType represents a transition worth publishing.
type EventType string

const (
	EventBacklightOn   EventType = "BACKLIGHT_ON"
	EventBacklightOff  EventType = "BACKLIGHT_OFF"
	EventForceOn       EventType = "FORCE_ON"
	EventForceOff      EventType = "FORCE_OFF"
	EventMotion        EventType = "MOTION"
	EventResetAsserted EventType = "RESET_ASSERTED"
	EventResetReleased EventType = "RESET_RELEASED"
)

// Event represents a transition to be published.
type Event struct {
	Timestamp time.Time
	Type      EventType
	Role      Role
	Uptime    Millis
	Backlight bool
	Deadline  Millis // primary only
}

// EventCounts tracks the number of each event type since startup.
type EventCounts struct {
	BacklightOn  int
	BacklightOff int
	ForceOn      int
	Motion       int
	ResetPulses  int
}

// HeartbeatData contains information for a heartbeat event.
type HeartbeatData struct {
	Timestamp time.Time
	Uptime    time.Duration
	Counts    EventCounts
}
