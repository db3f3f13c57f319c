// Package metrics exposes prometheus collectors for routing decisions.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	decisions      *prometheus.CounterVec
	lookupDuration *prometheus.HistogramVec
	failOpen       *prometheus.CounterVec
	auditEvents    *prometheus.CounterVec
}

func New(reg prometheus.Registerer, namespace string) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		decisions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "router",
				Name:      "decisions_total",
				Help:      "Routing decisions by outcome",
			},
			[]string{"outcome"},
		),
		lookupDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "router",
				Name:      "tenant_lookup_duration_seconds",
				Help:      "Tenant lookup latency by result",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"result"},
		),
		failOpen: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "router",
				Name:      "fail_open_total",
				Help:      "Requests passed through after a collaborator failure",
			},
			[]string{"stage"},
		),
		auditEvents: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "router",
				Name:      "security_audit_events_total",
				Help:      "Security audit events by type",
			},
			[]string{"event"},
		),
	}
}

func (m *Metrics) Decision(outcome string) {
	if m == nil {
		return
	}
	m.decisions.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveLookup(result string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.lookupDuration.WithLabelValues(result).Observe(elapsed.Seconds())
}

func (m *Metrics) FailOpen(stage string) {
	if m == nil {
		return
	}
	m.failOpen.WithLabelValues(stage).Inc()
}

func (m *Metrics) AuditEvent(event string) {
	if m == nil {
		return
	}
	m.auditEvents.WithLabelValues(event).Inc()
}
