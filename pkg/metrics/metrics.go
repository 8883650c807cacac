// Package metrics defines the Prometheus collectors every service registers
// and the chi-routed HTTP server that exposes them on --metrics-addr.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Registry holds the collectors common to every protocol engine. These are
// the only collectors registered; the service packages add none of their
// own.
type Registry struct {
	Registerer prometheus.Registerer

	ConnectionsAccepted prometheus.Counter
	ActiveConnections   prometheus.Gauge
	ConnectionErrors    *prometheus.CounterVec
	ProtocolOps         *prometheus.CounterVec
	OpDuration          *prometheus.HistogramVec
}

// NewRegistry constructs and registers the common collectors under the
// given service name, using a fresh prometheus.Registry so that tests and
// multiple in-process services never collide on the default global
// registerer.
func NewRegistry(service string) *Registry {
	reg := prometheus.NewRegistry()

	r := &Registry{
		Registerer: reg,
		ConnectionsAccepted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "protohackers",
			Subsystem: service,
			Name:      "connections_accepted_total",
			Help:      "Connections accepted since process start.",
		}),
		ActiveConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "protohackers",
			Subsystem: service,
			Name:      "active_connections",
			Help:      "Connections currently open.",
		}),
		ConnectionErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "protohackers",
			Subsystem: service,
			Name:      "connection_errors_total",
			Help:      "Connection-terminating errors, labeled by kind.",
		}, []string{"kind"}),
		ProtocolOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "protohackers",
			Subsystem: service,
			Name:      "protocol_ops_total",
			Help:      "Protocol operations handled, labeled by operation.",
		}, []string{"op"}),
		OpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "protohackers",
			Subsystem: service,
			Name:      "op_duration_seconds",
			Help:      "Operation handling latency, labeled by operation.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op"}),
	}

	reg.MustRegister(r.ConnectionsAccepted, r.ActiveConnections, r.ConnectionErrors, r.ProtocolOps, r.OpDuration)
	return r
}

// Gatherer returns the underlying prometheus.Registerer as a
// prometheus.Gatherer for the metrics HTTP handler.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.Registerer.(prometheus.Gatherer)
}
