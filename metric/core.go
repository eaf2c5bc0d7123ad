package metric

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Namespace prefixes every flowkit metric
const Namespace = "flowkit"

// Metrics contains the platform-level metrics shared by sinks and clients.
// Stage, loader and engine metrics are registered by their own packages.
type Metrics struct {
	// Event sink metrics
	EventsPublished *prometheus.CounterVec
	EventsDropped   *prometheus.CounterVec

	// Module index
	ModulesIndexed prometheus.Gauge

	// NATS metrics
	NATSConnected      prometheus.Gauge
	NATSReconnects     prometheus.Counter
	NATSCircuitBreaker prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with all platform metrics
func NewMetrics() *Metrics {
	return &Metrics{
		EventsPublished: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Subsystem: "events",
				Name:      "published_total",
				Help:      "Total number of lifecycle events written to a sink",
			},
			[]string{"sink", "type"},
		),

		EventsDropped: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Subsystem: "events",
				Name:      "dropped_total",
				Help:      "Total number of lifecycle events a sink failed to write",
			},
			[]string{"sink"},
		),

		ModulesIndexed: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: Namespace,
				Subsystem: "modules",
				Name:      "indexed",
				Help:      "Number of module descriptors known to the manager",
			},
		),

		NATSConnected: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: Namespace,
				Subsystem: "nats",
				Name:      "connected",
				Help:      "NATS connection status (0=disconnected, 1=connected)",
			},
		),

		NATSReconnects: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Subsystem: "nats",
				Name:      "reconnects_total",
				Help:      "Total number of NATS reconnections",
			},
		),

		NATSCircuitBreaker: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: Namespace,
				Subsystem: "nats",
				Name:      "circuit_breaker",
				Help:      "NATS circuit breaker status (0=closed, 1=open, 2=half-open)",
			},
		),
	}
}

func (c *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		c.EventsPublished,
		c.EventsDropped,
		c.ModulesIndexed,
		c.NATSConnected,
		c.NATSReconnects,
		c.NATSCircuitBreaker,
	}
}

// RecordEventPublished increments the published counter of a sink
func (c *Metrics) RecordEventPublished(sink, eventType string) {
	if c == nil {
		return
	}
	c.EventsPublished.WithLabelValues(sink, eventType).Inc()
}

// RecordEventDropped increments the dropped counter of a sink
func (c *Metrics) RecordEventDropped(sink string) {
	if c == nil {
		return
	}
	c.EventsDropped.WithLabelValues(sink).Inc()
}

// RecordModulesIndexed sets the number of indexed descriptors
func (c *Metrics) RecordModulesIndexed(n int) {
	if c == nil {
		return
	}
	c.ModulesIndexed.Set(float64(n))
}

// RecordNATSStatus updates NATS connection status
func (c *Metrics) RecordNATSStatus(connected bool) {
	if c == nil {
		return
	}
	value := 0.0
	if connected {
		value = 1.0
	}
	c.NATSConnected.Set(value)
}

// RecordNATSReconnect increments reconnection counter
func (c *Metrics) RecordNATSReconnect() {
	if c == nil {
		return
	}
	c.NATSReconnects.Inc()
}

// RecordCircuitBreakerState updates circuit breaker status
func (c *Metrics) RecordCircuitBreakerState(state int) {
	if c == nil {
		return
	}
	c.NATSCircuitBreaker.Set(float64(state))
}
