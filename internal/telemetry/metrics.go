package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// NotificationsTotal counts radio-manager notifications dispatched,
	// by iface and method.
	NotificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "dawn",
		Name:      "notifications_total",
		Help:      "Total radio-manager notifications dispatched by iface and method.",
	}, []string{"iface", "method"})

	// DecisionsTotal counts decide() verdicts, by request kind and
	// outcome (allow/deny).
	DecisionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "dawn",
		Name:      "decisions_total",
		Help:      "Total decision engine verdicts by request kind and outcome.",
	}, []string{"kind", "outcome"})

	// KicksTotal counts BTM steering hints issued by the kick sweep.
	KicksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "dawn",
		Name:      "kicks_total",
		Help:      "Total clients steered by the kick sweep.",
	})

	// ReplicationErrorsTotal counts failed peer broadcasts, by
	// transport.
	ReplicationErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "dawn",
		Name:      "replication_broadcast_errors_total",
		Help:      "Total peer broadcast failures by transport.",
	}, []string{"transport"})
)
