package status

import (
	"encoding/json"
	"time"

	"github.com/sweeney/backlight-controller/internal/logic"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string         `json:"event,omitempty"`
	Reason        string         `json:"reason,omitempty"`
	Role          string         `json:"role"`
	Backlight     string         `json:"backlight"`
	Ready         bool           `json:"ready"`
	ClockMs       uint32         `json:"clock_ms"`
	Primary       *PrimaryJSON   `json:"primary,omitempty"`
	Secondary     *SecondaryJSON `json:"secondary,omitempty"`
	UptimeSeconds int64          `json:"uptime_seconds"`
	StartTime     string         `json:"start_time"`
	Timestamp     string         `json:"timestamp"`
	MQTT          MQTTStatus     `json:"mqtt"`
	Counts        CountsJSON     `json:"event_counts"`
	Network       *NetworkJSON   `json:"network,omitempty"`
	Config        ConfigJSON     `json:"config"`
}

// PrimaryJSON carries the primary's inputs and timeout state.
type PrimaryJSON struct {
	Motion      bool   `json:"motion"`
	ForceOn     bool   `json:"force_on"`
	Indicator   bool   `json:"indicator"`
	DeadlineMs  uint32 `json:"deadline_ms"`
	RemainingMs uint32 `json:"remaining_ms"`
}

// SecondaryJSON carries the secondary's mirror input and reset state.
type SecondaryJSON struct {
	Mirror    bool   `json:"mirror"`
	Reset     string `json:"reset"`
	Sequencer string `json:"sequencer"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// CountsJSON is the JSON representation of event counts.
type CountsJSON struct {
	BacklightOn  int `json:"backlight_on"`
	BacklightOff int `json:"backlight_off"`
	ForceOn      int `json:"force_on"`
	Motion       int `json:"motion"`
	ResetPulses  int `json:"reset_pulses"`
}

// NetworkJSON is the JSON representation of network info.
type NetworkJSON struct {
	Type       string `json:"type"`
	IP         string `json:"ip"`
	Status     string `json:"status"`
	Gateway    string `json:"gateway"`
	WifiStatus string `json:"wifi_status"`
	SSID       string `json:"ssid"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	PollMs       int64  `json:"poll_ms"`
	ShortHoldMs  int64  `json:"short_hold_ms"`
	LongHoldMs   int64  `json:"long_hold_ms"`
	ResetWaitMs  int64  `json:"reset_wait_ms"`
	ResetPulseMs int64  `json:"reset_pulse_ms"`
	HeartbeatMs  int64  `json:"heartbeat_ms"`
	Broker       string `json:"broker"`
	HTTPPort     string `json:"http_port"`
	Backend      string `json:"backend"`
}

// OnOff renders a level as ON/OFF.
func OnOff(on bool) string {
	if on {
		return "ON"
	}
	return "OFF"
}

func buildInner(snap Snapshot) StatusInner {
	role := "UNKNOWN"
	if snap.RoleKnown {
		role = snap.Role.String()
	}
	backlight := "UNKNOWN"
	if snap.Ready {
		backlight = OnOff(snap.Cycle.Outputs.Backlight)
	}

	inner := StatusInner{
		Role:          role,
		Backlight:     backlight,
		Ready:         snap.Ready,
		ClockMs:       uint32(snap.Cycle.Now),
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Counts: CountsJSON{
			BacklightOn:  snap.Counts.BacklightOn,
			BacklightOff: snap.Counts.BacklightOff,
			ForceOn:      snap.Counts.ForceOn,
			Motion:       snap.Counts.Motion,
			ResetPulses:  snap.Counts.ResetPulses,
		},
		Config: ConfigJSON{
			PollMs:       snap.Config.PollMs,
			ShortHoldMs:  snap.Config.ShortHoldMs,
			LongHoldMs:   snap.Config.LongHoldMs,
			ResetWaitMs:  snap.Config.ResetWaitMs,
			ResetPulseMs: snap.Config.ResetPulseMs,
			HeartbeatMs:  snap.Config.HeartbeatMs,
			Broker:       snap.Config.Broker,
			HTTPPort:     snap.Config.HTTPPort,
			Backend:      snap.Config.Backend,
		},
	}

	if snap.Ready {
		c := snap.Cycle
		switch c.Role {
		case logic.RolePrimary:
			inner.Primary = &PrimaryJSON{
				Motion:      c.Sample.Motion,
				ForceOn:     c.Sample.ForceOn,
				Indicator:   c.Outputs.Indicator,
				DeadlineMs:  uint32(c.Deadline),
				RemainingMs: uint32(snap.Remaining()),
			}
		case logic.RoleSecondary:
			reset := "RELEASED"
			if c.Outputs.Reset {
				reset = "ASSERTED"
			}
			inner.Secondary = &SecondaryJSON{
				Mirror:    c.Sample.Mirror,
				Reset:     reset,
				Sequencer: string(c.Sequencer),
			}
		}
	}
	return inner
}

func buildNetwork(snap Snapshot, inner *StatusInner) {
	if snap.Network != nil {
		inner.Network = &NetworkJSON{
			Type:       snap.Network.Type,
			IP:         snap.Network.IP,
			Status:     snap.Network.Status,
			Gateway:    snap.Network.Gateway,
			WifiStatus: snap.Network.WifiStatus,
			SSID:       snap.Network.SSID,
		}
	}
}

// Inner renders the snapshot without event or reason.
func Inner(snap Snapshot) StatusInner {
	inner := buildInner(snap)
	buildNetwork(snap, &inner)
	return inner
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(StatusJSON{Status: Inner(snap)}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := Inner(snap)
	inner.Event = event
	inner.Reason = reason

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
