package metric

import (
	stderrors "errors"
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/c360/flowkit/errors"
)

// MetricsRegistrar is what packages outside metric need to publish their own
// collectors. Registrations are keyed by subsystem and metric name.
type MetricsRegistrar interface {
	RegisterCounter(subsystem, name string, counter prometheus.Counter) error
	RegisterGauge(subsystem, name string, gauge prometheus.Gauge) error
	RegisterCounterVec(subsystem, name string, counterVec *prometheus.CounterVec) error
	RegisterHistogramVec(subsystem, name string, histogramVec *prometheus.HistogramVec) error
	Unregister(subsystem, name string) bool
}

// MetricsRegistry owns the prometheus registry behind a flowkit runtime
type MetricsRegistry struct {
	prometheusRegistry *prometheus.Registry
	Metrics            *Metrics
	registeredMetrics  map[string]prometheus.Collector
	mu                 sync.RWMutex
}

// NewMetricsRegistry creates a registry carrying the core metrics and the Go
// runtime and process collectors
func NewMetricsRegistry() *MetricsRegistry {
	prometheusRegistry := prometheus.NewRegistry()

	registry := &MetricsRegistry{
		prometheusRegistry: prometheusRegistry,
		registeredMetrics:  make(map[string]prometheus.Collector),
	}

	registry.Metrics = NewMetrics()
	registry.prometheusRegistry.MustRegister(registry.Metrics.collectors()...)
	registry.prometheusRegistry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return registry
}

// PrometheusRegistry returns the underlying Prometheus registry
func (r *MetricsRegistry) PrometheusRegistry() *prometheus.Registry {
	return r.prometheusRegistry
}

// CoreMetrics returns the sink, module index and NATS metrics
func (r *MetricsRegistry) CoreMetrics() *Metrics {
	return r.Metrics
}

func registryKey(subsystem, name string) string { return subsystem + "." + name }

// register adds collector under subsystem.name. A second registration with the
// same key, or one prometheus rejects as a duplicate descriptor, is invalid.
func (r *MetricsRegistry) register(op, subsystem, name string, collector prometheus.Collector) error {
	key := registryKey(subsystem, name)

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.registeredMetrics[key]; taken {
		return errors.WrapInvalid(
			fmt.Errorf("metric %s already registered by %s", name, subsystem),
			"MetricsRegistry", op, "duplicate metric registration")
	}

	if err := r.prometheusRegistry.Register(collector); err != nil {
		var dup prometheus.AlreadyRegisteredError
		if stderrors.As(err, &dup) {
			return errors.WrapInvalid(err, "MetricsRegistry", op,
				fmt.Sprintf("prometheus conflict for metric %s", name))
		}
		return errors.WrapFatal(err, "MetricsRegistry", op, "prometheus registration")
	}

	r.registeredMetrics[key] = collector
	return nil
}

// RegisterCounter registers a counter under subsystem
func (r *MetricsRegistry) RegisterCounter(subsystem, name string, counter prometheus.Counter) error {
	return r.register("RegisterCounter", subsystem, name, counter)
}

// RegisterGauge registers a gauge under subsystem
func (r *MetricsRegistry) RegisterGauge(subsystem, name string, gauge prometheus.Gauge) error {
	return r.register("RegisterGauge", subsystem, name, gauge)
}

// RegisterCounterVec registers a counter vector under subsystem
func (r *MetricsRegistry) RegisterCounterVec(subsystem, name string, counterVec *prometheus.CounterVec) error {
	return r.register("RegisterCounterVec", subsystem, name, counterVec)
}

// RegisterHistogramVec registers a histogram vector under subsystem
func (r *MetricsRegistry) RegisterHistogramVec(subsystem, name string, histogramVec *prometheus.HistogramVec) error {
	return r.register("RegisterHistogramVec", subsystem, name, histogramVec)
}

// Unregister removes subsystem.name; false when nothing was registered there
func (r *MetricsRegistry) Unregister(subsystem, name string) bool {
	key := registryKey(subsystem, name)

	r.mu.Lock()
	defer r.mu.Unlock()

	collector, ok := r.registeredMetrics[key]
	if !ok || !r.prometheusRegistry.Unregister(collector) {
		return false
	}
	delete(r.registeredMetrics, key)
	return true
}
