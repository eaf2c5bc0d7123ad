package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/c360/flowkit/errors"
)

// EnvPrefix prefixes every environment override
const EnvPrefix = "FLOWKIT"

// Config represents the complete host configuration
type Config struct {
	Version string        `json:"version,omitempty"`
	Log     LogConfig     `json:"log"`
	Modules ModulesConfig `json:"modules"`
	NATS    NATSConfig    `json:"nats"`
	Journal JournalConfig `json:"journal"`
	Metrics MetricsConfig `json:"metrics"`
	Tracing TracingConfig `json:"tracing"`
}

// LogConfig selects the slog handler
type LogConfig struct {
	Level  string `json:"level"`  // debug, info, warn, error
	Format string `json:"format"` // json or text
}

// ModulesConfig lists the external scan roots
type ModulesConfig struct {
	ScanPaths []string `json:"scan_paths,omitempty"`
}

// NATSConfig defines the event bridge connection
type NATSConfig struct {
	Enabled       bool          `json:"enabled"`
	URL           string        `json:"url,omitempty"`
	SubjectPrefix string        `json:"subject_prefix,omitempty"`
	MaxReconnects int           `json:"max_reconnects,omitempty"`
	ReconnectWait time.Duration `json:"reconnect_wait,omitempty"`
}

// JournalConfig defines the SQLite event journal
type JournalConfig struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path,omitempty"`
}

// MetricsConfig defines the Prometheus endpoint
type MetricsConfig struct {
	Enabled bool   `json:"enabled"`
	Port    int    `json:"port,omitempty"`
	Path    string `json:"path,omitempty"`
}

// TracingConfig toggles stage spans
type TracingConfig struct {
	Enabled bool `json:"enabled"`
}

// SafeConfig provides thread-safe access to configuration
type SafeConfig struct {
	mu     sync.RWMutex
	config *Config
}

// NewSafeConfig creates a new thread-safe config wrapper
func NewSafeConfig(cfg *Config) *SafeConfig {
	if cfg == nil {
		cfg = Defaults()
	}
	return &SafeConfig{config: cfg}
}

// Get returns a deep copy of the current configuration
func (sc *SafeConfig) Get() *Config {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.config.Clone()
}

// Update atomically replaces the configuration after validation
func (sc *SafeConfig) Update(cfg *Config) error {
	if cfg == nil {
		return errors.WrapInvalid(errors.ErrMissingConfig, "SafeConfig", "Update", "config validation")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.config = cfg
	return nil
}

// Clone creates a deep copy of the configuration
func (c *Config) Clone() *Config {
	if c == nil {
		return Defaults()
	}
	clone := *c
	clone.Modules.ScanPaths = append([]string(nil), c.Modules.ScanPaths...)
	return &clone
}

// Defaults returns the configuration used before any layer is applied
func Defaults() *Config {
	return &Config{
		Log: LogConfig{Level: "info", Format: "text"},
		NATS: NATSConfig{
			URL:           "nats://localhost:4222",
			SubjectPrefix: "flowkit.events",
			MaxReconnects: -1,
			ReconnectWait: 2 * time.Second,
		},
		Journal: JournalConfig{Path: "flowkit-journal.db"},
		Metrics: MetricsConfig{Port: 9090, Path: "/metrics"},
	}
}

var (
	logLevels  = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	logFormats = map[string]bool{"json": true, "text": true}
)

// Validate checks the configuration and normalizes case-insensitive fields
func (c *Config) Validate() error {
	c.Log.Level = strings.ToLower(c.Log.Level)
	c.Log.Format = strings.ToLower(c.Log.Format)
	if !logLevels[c.Log.Level] {
		return invalid("log.level %q is not one of debug, info, warn, error", c.Log.Level)
	}
	if !logFormats[c.Log.Format] {
		return invalid("log.format %q is not json or text", c.Log.Format)
	}

	for i, p := range c.Modules.ScanPaths {
		if strings.TrimSpace(p) == "" {
			return invalid("modules.scan_paths[%d] is empty", i)
		}
	}

	if c.NATS.Enabled {
		if c.NATS.URL == "" {
			return invalid("nats.url is required when nats is enabled")
		}
		for _, part := range strings.Split(c.NATS.SubjectPrefix, ".") {
			if !isValidNATSSubjectPart(part) {
				return invalid("nats.subject_prefix %q is not valid for NATS subjects", c.NATS.SubjectPrefix)
			}
		}
	}

	if c.Journal.Enabled && c.Journal.Path == "" {
		return invalid("journal.path is required when the journal is enabled")
	}

	if c.Metrics.Enabled {
		if c.Metrics.Port < 1 || c.Metrics.Port > 65535 {
			return invalid("metrics.port %d is out of range", c.Metrics.Port)
		}
		if !strings.HasPrefix(c.Metrics.Path, "/") {
			return invalid("metrics.path %q must start with /", c.Metrics.Path)
		}
	}
	return nil
}

func invalid(format string, args ...any) error {
	return errors.WrapInvalid(
		fmt.Errorf(format+": %w", append(args, errors.ErrInvalidConfig)...), "Config", "Validate", "configuration check")
}

// isValidNATSSubjectPart checks if a string is valid for use in NATS subjects.
// Valid characters are alphanumeric, dashes and underscores.
func isValidNATSSubjectPart(s string) bool {
	if len(s) == 0 {
		return false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '-' && r != '_' {
			return false
		}
	}
	return true
}

// Loader handles configuration loading with layers and overrides
type Loader struct {
	layers     []string
	validation bool
	envPrefix  string
}

// NewLoader creates a new configuration loader
func NewLoader() *Loader {
	return &Loader{
		validation: true,
		envPrefix:  EnvPrefix,
	}
}

// AddLayer adds a configuration file layer. Later layers win.
func (l *Loader) AddLayer(path string) {
	l.layers = append(l.layers, path)
}

// EnableValidation enables or disables configuration validation
func (l *Loader) EnableValidation(enable bool) {
	l.validation = enable
}

// LoadFile loads configuration from a single file
func (l *Loader) LoadFile(path string) (*Config, error) {
	l.layers = []string{path}
	return l.Load()
}

// Load merges defaults, every layer and the environment, then validates
func (l *Loader) Load() (*Config, error) {
	cfg := Defaults()

	for _, path := range l.layers {
		raw, err := l.loadRawJSON(path)
		if err != nil {
			return nil, errors.WrapInvalid(
				fmt.Errorf("%s: %w: %w", path, errors.ErrInvalidConfig, err), "Loader", "Load", "layer load")
		}
		merged, err := mergeFromMap(cfg, raw)
		if err != nil {
			return nil, errors.WrapInvalid(
				fmt.Errorf("%s: %w: %w", path, errors.ErrInvalidConfig, err), "Loader", "Load", "layer merge")
		}
		cfg = merged
	}

	if err := l.applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	if l.validation {
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// loadRawJSON loads a layer as a map so absent keys keep their base value
func (l *Loader) loadRawJSON(path string) (map[string]any, error) {
	data, err := safeReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := validateJSONDepth(data); err != nil {
		return nil, fmt.Errorf("invalid JSON structure: %w", err)
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	if err := parseDurations(raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// parseDurations converts duration strings to nanoseconds for json unmarshaling
func parseDurations(data map[string]any) error {
	nats, ok := data["nats"].(map[string]any)
	if !ok {
		return nil
	}
	wait, ok := nats["reconnect_wait"].(string)
	if !ok {
		return nil
	}
	d, err := time.ParseDuration(wait)
	if err != nil {
		return fmt.Errorf("nats.reconnect_wait: %w", err)
	}
	nats["reconnect_wait"] = d.Nanoseconds()
	return nil
}

// mergeFromMap overrides only the fields present in override
func mergeFromMap(base *Config, override map[string]any) (*Config, error) {
	baseJSON, err := json.Marshal(base)
	if err != nil {
		return nil, err
	}
	var baseMap map[string]any
	if err := json.Unmarshal(baseJSON, &baseMap); err != nil {
		return nil, err
	}

	mergedJSON, err := json.Marshal(deepMergeMaps(baseMap, override))
	if err != nil {
		return nil, err
	}
	var merged Config
	if err := json.Unmarshal(mergedJSON, &merged); err != nil {
		return nil, err
	}
	return &merged, nil
}

// deepMergeMaps recursively merges two maps, with override taking precedence
func deepMergeMaps(base, override map[string]any) map[string]any {
	result := make(map[string]any, len(base))
	for k, v := range base {
		result[k] = v
	}

	for k, v := range override {
		if v == nil {
			continue
		}
		if baseMap, ok := base[k].(map[string]any); ok {
			if overrideMap, ok := v.(map[string]any); ok {
				result[k] = deepMergeMaps(baseMap, overrideMap)
				continue
			}
		}
		result[k] = v
	}
	return result
}

// applyEnvOverrides applies PREFIX_* environment variables
func (l *Loader) applyEnvOverrides(cfg *Config) error {
	var firstErr error
	str := func(key string, dst *string) {
		if val := l.env(key, &firstErr); val != "" {
			*dst = val
		}
	}
	boolean := func(key string, dst *bool) {
		val := l.env(key, &firstErr)
		if val == "" {
			return
		}
		b, err := strconv.ParseBool(val)
		if err != nil {
			l.fail(&firstErr, key, err)
			return
		}
		*dst = b
	}
	integer := func(key string, dst *int) {
		val := l.env(key, &firstErr)
		if val == "" {
			return
		}
		n, err := strconv.Atoi(val)
		if err != nil {
			l.fail(&firstErr, key, err)
			return
		}
		*dst = n
	}

	str("LOG_LEVEL", &cfg.Log.Level)
	str("LOG_FORMAT", &cfg.Log.Format)
	if val := l.env("SCAN_PATHS", &firstErr); val != "" {
		cfg.Modules.ScanPaths = splitList(val)
	}

	boolean("NATS_ENABLED", &cfg.NATS.Enabled)
	str("NATS_URL", &cfg.NATS.URL)
	str("NATS_SUBJECT_PREFIX", &cfg.NATS.SubjectPrefix)

	boolean("JOURNAL_ENABLED", &cfg.Journal.Enabled)
	str("JOURNAL_PATH", &cfg.Journal.Path)

	boolean("METRICS_ENABLED", &cfg.Metrics.Enabled)
	integer("METRICS_PORT", &cfg.Metrics.Port)
	str("METRICS_PATH", &cfg.Metrics.Path)

	boolean("TRACING_ENABLED", &cfg.Tracing.Enabled)

	return firstErr
}

func (l *Loader) env(key string, firstErr *error) string {
	name := l.envPrefix + "_" + key
	val := os.Getenv(name)
	if err := validateEnvVar(name, val); err != nil {
		l.fail(firstErr, key, err)
		return ""
	}
	return val
}

func (l *Loader) fail(firstErr *error, key string, err error) {
	if *firstErr != nil {
		return
	}
	*firstErr = errors.WrapInvalid(
		fmt.Errorf("%s_%s: %w: %w", l.envPrefix, key, errors.ErrInvalidConfig, err), "Loader", "Load", "environment override")
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// SaveToFile saves the configuration to a JSON file
func (c *Config) SaveToFile(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return safeWriteFile(path, data)
}

// String returns a JSON representation of the config
func (c *Config) String() string {
	data, _ := json.MarshalIndent(c, "", "  ")
	return string(data)
}
