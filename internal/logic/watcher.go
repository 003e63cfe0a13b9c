package logic

import "time"

// Watcher turns successive cycles into transition events.
// The first cycle establishes the baseline and produces no events.
type Watcher struct {
	prev          Cycle
	baselined     bool
	startTime     time.Time
	eventCounts   EventCounts
	lastHeartbeat time.Time
}

// NewWatcher creates a watcher. The startTime is used for calculating uptime
// in heartbeat events.
func NewWatcher(startTime time.Time) *Watcher {
	return &Watcher{
		startTime:     startTime,
		lastHeartbeat: startTime,
	}
}

// Process compares c against the previous cycle and returns the transitions.
// Order within a cycle: stimulus (force-on, motion) first, then reset, then backlight.
func (w *Watcher) Process(c Cycle, now time.Time) []Event {
	if !w.baselined {
		w.prev = c
		w.baselined = true
		return nil
	}
	prev := w.prev
	w.prev = c

	var types []EventType

	if c.Role == RolePrimary {
		if c.Sample.ForceOn != prev.Sample.ForceOn {
			types = append(types, pick(c.Sample.ForceOn, EventForceOn, EventForceOff))
		}
		if c.Sample.Motion && !prev.Sample.Motion {
			types = append(types, EventMotion)
		}
	}

	if c.Role == RoleSecondary && c.Outputs.Reset != prev.Outputs.Reset {
		types = append(types, pick(c.Outputs.Reset, EventResetAsserted, EventResetReleased))
	}

	if c.Outputs.Backlight != prev.Outputs.Backlight {
		types = append(types, pick(c.Outputs.Backlight, EventBacklightOn, EventBacklightOff))
	}

	if len(types) == 0 {
		return nil
	}

	events := make([]Event, 0, len(types))
	for _, t := range types {
		events = append(events, Event{
			Timestamp: now,
			Type:      t,
			Role:      c.Role,
			Uptime:    c.Now,
			Backlight: c.Outputs.Backlight,
			Deadline:  c.Deadline,
		})
		w.count(t)
	}
	return events
}

func (w *Watcher) count(t EventType) {
	switch t {
	case EventBacklightOn:
		w.eventCounts.BacklightOn++
	case EventBacklightOff:
		w.eventCounts.BacklightOff++
	case EventForceOn:
		w.eventCounts.ForceOn++
	case EventMotion:
		w.eventCounts.Motion++
	case EventResetAsserted:
		w.eventCounts.ResetPulses++
	}
}

func pick(on bool, whenOn, whenOff EventType) EventType {
	if on {
		return whenOn
	}
	return whenOff
}

// IsBaselined returns whether the watcher has seen its first cycle.
func (w *Watcher) IsBaselined() bool {
	return w.baselined
}

// Last returns the most recent cycle.
func (w *Watcher) Last() Cycle {
	return w.prev
}

// EventCountsSnapshot returns the event counts since startup.
func (w *Watcher) EventCountsSnapshot() EventCounts {
	return w.eventCounts
}

// CheckHeartbeat returns heartbeat data if the interval has elapsed since the
// last heartbeat (or startup). Returns nil if not yet baselined, if the
// interval has not elapsed, or if interval is <= 0 (disabled).
func (w *Watcher) CheckHeartbeat(now time.Time, interval time.Duration) *HeartbeatData {
	if interval <= 0 {
		return nil
	}

	if !w.baselined {
		return nil
	}

	if now.Sub(w.lastHeartbeat) < interval {
		return nil
	}

	w.lastHeartbeat = now
	return &HeartbeatData{
		Timestamp: now,
		Uptime:    now.Sub(w.startTime),
		Counts:    w.eventCounts,
	}
}
