package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics bundles the Prometheus collectors for the routing core. They are
// registered on a private registry so tests can create isolated instances.
type Metrics struct {
	Registry *prometheus.Registry

	Assignments   prometheus.Counter
	Reassignments prometheus.Counter
	SLABreaches   prometheus.Counter
	Escalations   prometheus.Counter
	QueueDepth    prometheus.Gauge
	TickDuration  prometheus.Histogram

	RequestCount *prometheus.CounterVec
	ErrorCount   *prometheus.CounterVec
}

// NewMetrics initializes collectors on a fresh registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		Registry: registry,
		Assignments: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "routing",
			Name:      "assignments_total",
			Help:      "Number of items assigned to agents",
		}),
		Reassignments: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "routing",
			Name:      "reassignments_total",
			Help:      "Number of items returned to the queue after disconnect or escalation",
		}),
		SLABreaches: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "routing",
			Name:      "sla_breaches_total",
			Help:      "Number of newly detected SLA breaches",
		}),
		Escalations: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "routing",
			Name:      "escalations_total",
			Help:      "Number of escalation rule activations",
		}),
		QueueDepth: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "routing",
			Name:      "queue_depth",
			Help:      "Current number of items awaiting assignment",
		}),
		TickDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "routing",
			Name:      "tick_duration_seconds",
			Help:      "Duration of routing tick passes",
			Buckets:   prometheus.DefBuckets,
		}),
		RequestCount: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "routing",
			Name:      "http_requests_total",
			Help:      "HTTP requests by path, method and status",
		}, []string{"path", "method", "status"}),
		ErrorCount: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "routing",
			Name:      "http_errors_total",
			Help:      "HTTP errors by path, method and error code",
		}, []string{"path", "method", "code"}),
	}
}
