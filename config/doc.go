// Package config loads the flowkit host configuration.
//
// Configuration is built in layers: the defaults, then every JSON file added
// with AddLayer deep-merged in order, then FLOWKIT_* environment overrides.
// The result is validated unless validation is disabled.
//
//	loader := config.NewLoader()
//	loader.AddLayer("flowkit.json")
//	loader.AddLayer("flowkit.local.json") // overrides flowkit.json
//
//	cfg, err := loader.Load()
//	if err != nil {
//		return err
//	}
//
// Only keys present in a layer override the layer below, so a file that
// sets just {"metrics": {"enabled": true}} keeps the default port and path.
//
// # Environment
//
//	FLOWKIT_LOG_LEVEL            log.level
//	FLOWKIT_LOG_FORMAT           log.format
//	FLOWKIT_SCAN_PATHS           modules.scan_paths, comma separated
//	FLOWKIT_NATS_ENABLED         nats.enabled
//	FLOWKIT_NATS_URL             nats.url
//	FLOWKIT_NATS_SUBJECT_PREFIX  nats.subject_prefix
//	FLOWKIT_JOURNAL_ENABLED      journal.enabled
//	FLOWKIT_JOURNAL_PATH         journal.path
//	FLOWKIT_METRICS_ENABLED      metrics.enabled
//	FLOWKIT_METRICS_PORT         metrics.port
//	FLOWKIT_METRICS_PATH         metrics.path
//	FLOWKIT_TRACING_ENABLED      tracing.enabled
//
// SafeConfig wraps a Config for concurrent readers; Get returns a copy.
package config
