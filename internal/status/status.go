// Package status provides a thread-safe status tracker for the
// backlight-controller daemon. It is read by the HTTP handlers and used to
// build MQTT lifecycle payloads.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/backlight-controller/internal/logic"
)

// NetworkInfo contains network state. This is a local copy to avoid
// importing internal/mqtt from status.
type NetworkInfo struct {
	Type       string
	IP         string
	Status     string
	Gateway    string
	WifiStatus string
	SSID       string
}

// Config contains daemon configuration for display.
type Config struct {
	PollMs       int64
	ShortHoldMs  int64
	LongHoldMs   int64
	ResetWaitMs  int64
	ResetPulseMs int64
	HeartbeatMs  int64
	Broker       string
	HTTPPort     string
	Backend      string
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type and safe to use after the lock is released.
type Snapshot struct {
	Role          logic.Role
	RoleKnown     bool
	Ready         bool // at least one cycle has completed
	Cycle         logic.Cycle
	Counts        logic.EventCounts
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Network       *NetworkInfo
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Remaining returns how long the primary's backlight stays on without new
// stimulus. Zero once the deadline has passed or on the secondary.
func (s Snapshot) Remaining() logic.Millis {
	if !s.Ready || s.Role != logic.RolePrimary || s.Cycle.Now > s.Cycle.Deadline {
		return 0
	}
	return s.Cycle.Deadline - s.Cycle.Now
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime: startTime,
			Config:    cfg,
		},
	}
}

// SetRole records the role resolved at boot.
func (t *Tracker) SetRole(role logic.Role) {
	t.mu.Lock()
	t.snap.Role = role
	t.snap.RoleKnown = true
	t.mu.Unlock()
}

// Update records the latest cycle and event counts.
// Called from runLoop on every tick.
func (t *Tracker) Update(c logic.Cycle, counts logic.EventCounts) {
	t.mu.Lock()
	t.snap.Cycle = c
	t.snap.Role = c.Role
	t.snap.RoleKnown = true
	t.snap.Ready = true
	t.snap.Counts = counts
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// SetNetwork sets the network info.
func (t *Tracker) SetNetwork(info *NetworkInfo) {
	t.mu.Lock()
	t.snap.Network = info
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}
