package engine

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/c360/flowkit/metric"
)

// runMetrics holds Prometheus metrics for workflow runs
type runMetrics struct {
	runs     *prometheus.CounterVec   // By workflow and status (success/failure)
	duration *prometheus.HistogramVec // By workflow
	active   prometheus.Gauge         // Runs in progress
}

// newRunMetrics creates and registers run metrics with the provided registry
func newRunMetrics(registry metric.MetricsRegistrar) (*runMetrics, error) {
	if registry == nil {
		return nil, nil // Metrics disabled
	}

	m := &runMetrics{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metric.Namespace,
			Subsystem: "workflow",
			Name:      "runs_total",
			Help:      "Total number of workflow runs",
		}, []string{"workflow", "status"}),

		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metric.Namespace,
			Subsystem: "workflow",
			Name:      "run_duration_seconds",
			Help:      "Workflow run duration in seconds",
			Buckets:   []float64{0.001, 0.01, 0.1, 0.5, 1.0, 5.0, 30.0},
		}, []string{"workflow"}),

		active: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metric.Namespace,
			Subsystem: "workflow",
			Name:      "active_runs",
			Help:      "Current number of running workflows",
		}),
	}

	if err := registry.RegisterCounterVec("workflow", "runs", m.runs); err != nil {
		return nil, err
	}
	if err := registry.RegisterHistogramVec("workflow", "run_duration", m.duration); err != nil {
		return nil, err
	}
	if err := registry.RegisterGauge("workflow", "active_runs", m.active); err != nil {
		return nil, err
	}

	return m, nil
}

func (m *runMetrics) started() {
	if m != nil {
		m.active.Inc()
	}
}

func (m *runMetrics) finished(workflow string, elapsed time.Duration, err error) {
	if m == nil {
		return
	}

	status := "success"
	if err != nil {
		status = "failure"
	}

	m.active.Dec()
	m.runs.WithLabelValues(workflow, status).Inc()
	m.duration.WithLabelValues(workflow).Observe(elapsed.Seconds())
}
