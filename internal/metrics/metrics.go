// Package metrics exposes the controller state as Prometheus collectors.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sweeney/backlight-controller/internal/logic"
)

const namespace = "display"

// Metrics holds the collectors on a private registry so tests can build as
// many instances as they like.
type Metrics struct {
	registry *prometheus.Registry

	backlightOn    prometheus.Gauge
	forceOn        prometheus.Gauge
	motion         prometheus.Gauge
	deadline       prometheus.Gauge
	resetAsserted  prometheus.Gauge
	sequencerState *prometheus.GaugeVec
	cycles         prometheus.Counter
	cycleErrors    prometheus.Counter
	events         *prometheus.CounterVec
	info           *prometheus.GaugeVec
}

// New creates and registers the collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		backlightOn: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "backlight_on",
			Help:      "1 when the local backlight is lit.",
		}),
		forceOn: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "force_on",
			Help:      "1 while the force-on button is held (primary).",
		}),
		motion: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "motion_detected",
			Help:      "1 while the PIR reports motion (primary).",
		}),
		deadline: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "backlight_off_deadline_ms",
			Help:      "Millisecond clock value at which the backlight goes off (primary).",
		}),
		resetAsserted: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "reset_asserted",
			Help:      "1 while the secondary holds the primary in reset.",
		}),
		sequencerState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "reset_sequencer_state",
			Help:      "Boot reset sequencer state, 1 for the current state (secondary).",
		}, []string{"state"}),
		cycles: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cycles_total",
			Help:      "Completed polling cycles.",
		}),
		cycleErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cycle_errors_total",
			Help:      "Polling cycles that failed to read or write GPIO.",
		}),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_total",
			Help:      "Published transition events by type.",
		}, []string{"type"}),
		info: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "info",
			Help:      "Role of this unit, resolved from the strap at boot.",
		}, []string{"role"}),
	}

	reg.MustRegister(
		m.backlightOn, m.forceOn, m.motion, m.deadline,
		m.resetAsserted, m.sequencerState,
		m.cycles, m.cycleErrors, m.events, m.info,
	)
	return m
}

// SetRole publishes the role on the info gauge.
func (m *Metrics) SetRole(role logic.Role) {
	m.info.Reset()
	m.info.WithLabelValues(role.String()).Set(1)
}

// Observe records one completed cycle. It satisfies device.Observer.
func (m *Metrics) Observe(c logic.Cycle) {
	m.cycles.Inc()
	m.backlightOn.Set(boolGauge(c.Outputs.Backlight))

	switch c.Role {
	case logic.RolePrimary:
		m.forceOn.Set(boolGauge(c.Sample.ForceOn))
		m.motion.Set(boolGauge(c.Sample.Motion))
		m.deadline.Set(float64(c.Deadline))
	case logic.RoleSecondary:
		m.resetAsserted.Set(boolGauge(c.Outputs.Reset))
		for _, s := range []logic.SequencerState{logic.SequencerWaiting, logic.SequencerAsserting, logic.SequencerDone} {
			m.sequencerState.WithLabelValues(string(s)).Set(boolGauge(s == c.Sequencer))
		}
	}
}

// ObserveEvents counts published events by type.
func (m *Metrics) ObserveEvents(events []logic.Event) {
	for _, e := range events {
		m.events.WithLabelValues(string(e.Type)).Inc()
	}
}

// CycleError counts a failed cycle.
func (m *Metrics) CycleError() {
	m.cycleErrors.Inc()
}

// Registry returns the private registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func boolGauge(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
