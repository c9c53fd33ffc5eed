package contract

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts engine activity. The zero registry case (nil *Metrics) is valid and
// records nothing, so tests and embedders can skip it.
type Metrics struct {
	calls       *prometheus.CounterVec
	callLatency *prometheus.HistogramVec
	events      *prometheus.CounterVec
	effects     *prometheus.CounterVec
}

// NewMetrics registers the engine metrics on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		calls: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "dao",
				Subsystem: "engine",
				Name:      "calls_total",
				Help:      "Engine calls by method and error class",
			},
			[]string{"method", "result"},
		),
		callLatency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "dao",
				Subsystem: "engine",
				Name:      "call_duration_seconds",
				Help:      "Engine call duration including the store commit",
				Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
			},
			[]string{"method"},
		),
		events: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "dao",
				Subsystem: "engine",
				Name:      "events_total",
				Help:      "Committed engine events by name",
			},
			[]string{"event"},
		),
		effects: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "dao",
				Subsystem: "engine",
				Name:      "effects_total",
				Help:      "Collaborator requests by type and outcome",
			},
			[]string{"type", "outcome"},
		),
	}
}

func (m *Metrics) observeCall(method string, err error, started time.Time) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = ClassOf(err).String()
	}
	m.calls.WithLabelValues(method, result).Inc()
	m.callLatency.WithLabelValues(method).Observe(time.Since(started).Seconds())
}

func (m *Metrics) observeEvent(name string) {
	if m == nil {
		return
	}
	m.events.WithLabelValues(name).Inc()
}

func (m *Metrics) observeEffect(typ, outcome string) {
	if m == nil {
		return
	}
	m.effects.WithLabelValues(typ, outcome).Inc()
}
