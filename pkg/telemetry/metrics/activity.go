package metrics

import "github.com/prometheus/client_golang/prometheus"

// ActivityMetrics tracks activity notifications.
//
// Metrics:
//   - custodian_activity_events_total: Events by kind and delivery outcome
type ActivityMetrics struct {
	eventsTotal *prometheus.CounterVec
}

// NewActivityMetrics creates and registers activity metrics.
func NewActivityMetrics(registry *prometheus.Registry) *ActivityMetrics {
	am := &ActivityMetrics{
		eventsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Subsystem: "activity",
				Name:      "events_total",
				Help:      "Total number of activity events by delivery outcome",
			},
			[]string{"kind", "outcome"},
		),
	}

	registry.MustRegister(am.eventsTotal)

	return am
}
