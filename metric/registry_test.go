package metric

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/flowkit/errors"
	"github.com/c360/flowkit/health"
)

func family(t *testing.T, registry *MetricsRegistry, name string) *dto.MetricFamily {
	t.Helper()
	families, err := registry.PrometheusRegistry().Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func gathered(t *testing.T, registry *MetricsRegistry, name string) bool {
	t.Helper()
	return family(t, registry, name) != nil
}

func TestNewMetricsRegistry(t *testing.T) {
	registry := NewMetricsRegistry()

	require.NotNil(t, registry)
	require.NotNil(t, registry.CoreMetrics())

	registry.CoreMetrics().RecordModulesIndexed(3)
	mf := family(t, registry, "flowkit_modules_indexed")
	require.NotNil(t, mf)
	assert.Equal(t, dto.MetricType_GAUGE, mf.GetType())
	require.Len(t, mf.GetMetric(), 1)
	assert.Equal(t, 3.0, mf.GetMetric()[0].GetGauge().GetValue())
	assert.Equal(t, 3.0, testutil.ToFloat64(registry.CoreMetrics().ModulesIndexed))
}

func TestMetricsRegistry_Register(t *testing.T) {
	tests := []struct {
		name     string
		register func(r *MetricsRegistry) error
		family   string
	}{
		{
			name: "counter",
			register: func(r *MetricsRegistry) error {
				c := prometheus.NewCounter(prometheus.CounterOpts{Name: "t_counter", Help: "h"})
				c.Inc()
				return r.RegisterCounter("svc", "t_counter", c)
			},
			family: "t_counter",
		},
		{
			name: "gauge",
			register: func(r *MetricsRegistry) error {
				return r.RegisterGauge("svc", "t_gauge", prometheus.NewGauge(prometheus.GaugeOpts{Name: "t_gauge", Help: "h"}))
			},
			family: "t_gauge",
		},
		{
			name: "counter vec",
			register: func(r *MetricsRegistry) error {
				v := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "t_vec", Help: "h"}, []string{"l"})
				v.WithLabelValues("x").Inc()
				return r.RegisterCounterVec("svc", "t_vec", v)
			},
			family: "t_vec",
		},
		{
			name: "histogram vec",
			register: func(r *MetricsRegistry) error {
				v := prometheus.NewHistogramVec(prometheus.HistogramOpts{Name: "t_hist", Help: "h"}, []string{"l"})
				v.WithLabelValues("x").Observe(1)
				return r.RegisterHistogramVec("svc", "t_hist", v)
			},
			family: "t_hist",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			registry := NewMetricsRegistry()
			require.NoError(t, tt.register(registry))
			assert.True(t, gathered(t, registry, tt.family))

			err := tt.register(registry)
			require.Error(t, err)
			assert.True(t, errors.IsInvalid(err))
		})
	}
}

func TestMetricsRegistry_PrometheusConflict(t *testing.T) {
	registry := NewMetricsRegistry()
	opts := prometheus.CounterOpts{Name: "same_name", Help: "h"}

	require.NoError(t, registry.RegisterCounter("a", "x", prometheus.NewCounter(opts)))
	err := registry.RegisterCounter("b", "x", prometheus.NewCounter(opts))
	require.Error(t, err)
	assert.True(t, errors.IsInvalid(err))
}

func TestMetricsRegistry_Unregister(t *testing.T) {
	registry := NewMetricsRegistry()
	gauge := prometheus.NewGauge(prometheus.GaugeOpts{Name: "gone", Help: "h"})
	require.NoError(t, registry.RegisterGauge("svc", "gone", gauge))

	assert.True(t, registry.Unregister("svc", "gone"))
	assert.False(t, registry.Unregister("svc", "gone"))
	require.NoError(t, registry.RegisterGauge("svc", "gone", gauge), "re-register after unregister")
}

func TestMetricsRegistry_ConcurrentRegistration(t *testing.T) {
	registry := NewMetricsRegistry()
	var wg sync.WaitGroup
	errs := make(chan error, 10)

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- registry.RegisterGauge("svc", "racy",
				prometheus.NewGauge(prometheus.GaugeOpts{Name: "racy", Help: "h"}))
		}()
	}
	wg.Wait()
	close(errs)

	succeeded := 0
	for err := range errs {
		if err == nil {
			succeeded++
		}
	}
	assert.Equal(t, 1, succeeded)
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordEventPublished("nats", "start")
		m.RecordEventDropped("nats")
		m.RecordModulesIndexed(1)
		m.RecordNATSStatus(true)
		m.RecordNATSReconnect()
		m.RecordCircuitBreakerState(1)
	})
}

func TestServer_Handler(t *testing.T) {
	registry := NewMetricsRegistry()
	registry.CoreMetrics().RecordEventPublished("journal", "start")
	server := NewServer(0, "", registry)

	assert.Equal(t, "http://localhost:9090/metrics", server.Address())

	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "flowkit_events_published_total"))

	rec = httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, "OK", rec.Body.String())
}

func TestServer_HealthReporter(t *testing.T) {
	server := NewServer(0, "", NewMetricsRegistry())
	status := health.NewDegraded("runtime", "nats reconnecting")
	server.SetHealth(func() health.Status { return status })

	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), `"status":"degraded"`)

	status = health.NewUnhealthy("runtime", "journal closed")
	rec = httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestServer_StartWithoutRegistry(t *testing.T) {
	server := NewServer(0, "", nil)
	err := server.Start()
	require.Error(t, err)
	assert.True(t, errors.IsFatal(err))
	assert.NoError(t, server.Stop())
}
