// Package metrics exposes kiosk counters to Prometheus.
package metrics

import (
	"github.com/gatekeeper/kiosk-backend/internal/checkin"
	"github.com/gatekeeper/kiosk-backend/internal/models"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics implements checkin.Recorder
type Metrics struct {
	outcomes     *prometheus.CounterVec
	clockActions *prometheus.CounterVec
}

var _ checkin.Recorder = (*Metrics)(nil)

// New registers the kiosk collectors on reg
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		outcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "checkin_outcomes_total",
			Help: "number of check-in results by tenant mode and outcome",
		}, []string{"mode", "outcome"}),
		clockActions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "clock_actions_total",
			Help: "number of committed employee clock actions",
		}, []string{"action"}),
	}
}

// ObserveOutcome counts one evaluated or committed check-in
func (m *Metrics) ObserveOutcome(mode models.AppMode, kind checkin.Kind) {
	m.outcomes.WithLabelValues(string(mode), string(kind)).Inc()
}

// ObserveClockAction counts one committed clock action
func (m *Metrics) ObserveClockAction(action models.ClockAction) {
	m.clockActions.WithLabelValues(string(action)).Inc()
}
