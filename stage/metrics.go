package stage

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/c360/flowkit/metric"
)

// Metrics holds the Prometheus metrics shared by every stage of a runtime
type Metrics struct {
	processed *prometheus.CounterVec   // By unit and status (success/failure)
	duration  *prometheus.HistogramVec // By unit
}

// NewMetrics creates and registers stage metrics with the provided registry.
// It returns nil when registry is nil, which disables recording.
func NewMetrics(registry metric.MetricsRegistrar) (*Metrics, error) {
	if registry == nil {
		return nil, nil
	}

	m := &Metrics{
		processed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metric.Namespace,
			Subsystem: "stage",
			Name:      "containers_processed_total",
			Help:      "Total number of containers processed by stages",
		}, []string{"unit", "status"}),

		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metric.Namespace,
			Subsystem: "stage",
			Name:      "process_duration_seconds",
			Help:      "Time spent in a processor per container",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}, []string{"unit"}),
	}

	if err := registry.RegisterCounterVec("stage", "containers_processed", m.processed); err != nil {
		return nil, err
	}
	if err := registry.RegisterHistogramVec("stage", "process_duration", m.duration); err != nil {
		return nil, err
	}

	return m, nil
}

func (m *Metrics) record(unit string, elapsed time.Duration, err error) {
	if m == nil {
		return
	}

	status := "success"
	if err != nil {
		status = "failure"
	}

	m.processed.WithLabelValues(unit, status).Inc()
	m.duration.WithLabelValues(unit).Observe(elapsed.Seconds())
}
