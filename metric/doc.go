// Package metric provides the Prometheus metrics registry and HTTP server
// used across flowkit.
//
// A MetricsRegistry owns a private prometheus.Registry carrying the platform
// metrics (event sinks, module index, NATS health) together with the Go
// runtime and process collectors. Packages that need their own metrics
// (stages, the module loader, the engine) build them with the prometheus
// constructors and register them through the MetricsRegistrar methods, keyed
// by "<subsystem>.<metric>" so a duplicate registration is reported instead of
// panicking.
//
//	registry := metric.NewMetricsRegistry()
//	server := metric.NewServer(9090, "/metrics", registry)
//
//	go func() {
//	    if err := server.Start(); err != nil {
//	        logger.Error("metrics server failed", "error", err)
//	    }
//	}()
//	defer server.Stop()
//
// Every Record method on Metrics is nil-safe, so callers can pass a nil
// *Metrics when metrics are disabled.
package metric
