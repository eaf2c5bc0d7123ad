package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/flowkit/errors"
)

func writeLayer(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoader_Defaults(t *testing.T) {
	cfg, err := NewLoader().Load()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.False(t, cfg.NATS.Enabled)
	assert.Equal(t, "flowkit.events", cfg.NATS.SubjectPrefix)
	assert.Equal(t, 9090, cfg.Metrics.Port)
	assert.Equal(t, "/metrics", cfg.Metrics.Path)
	assert.Equal(t, 2*time.Second, cfg.NATS.ReconnectWait)
}

func TestLoader_LayersDeepMerge(t *testing.T) {
	dir := t.TempDir()
	base := writeLayer(t, dir, "base.json", `{
		"log": {"level": "debug"},
		"modules": {"scan_paths": ["/opt/flowkit/modules"]},
		"nats": {"enabled": true, "url": "nats://bus:4222", "reconnect_wait": "500ms"}
	}`)
	local := writeLayer(t, dir, "local.json", `{
		"log": {"format": "JSON"},
		"metrics": {"enabled": true}
	}`)

	loader := NewLoader()
	loader.AddLayer(base)
	loader.AddLayer(local)
	cfg, err := loader.Load()
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level, "kept from base layer")
	assert.Equal(t, "json", cfg.Log.Format, "normalized by validation")
	assert.Equal(t, []string{"/opt/flowkit/modules"}, cfg.Modules.ScanPaths)
	assert.Equal(t, "nats://bus:4222", cfg.NATS.URL)
	assert.Equal(t, "flowkit.events", cfg.NATS.SubjectPrefix, "default survives partial section")
	assert.Equal(t, 500*time.Millisecond, cfg.NATS.ReconnectWait)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, 9090, cfg.Metrics.Port)
}

func TestLoader_EnvOverrides(t *testing.T) {
	dir := t.TempDir()
	layer := writeLayer(t, dir, "flowkit.json", `{"journal": {"enabled": true, "path": "from-file.db"}}`)

	t.Setenv("FLOWKIT_LOG_LEVEL", "warn")
	t.Setenv("FLOWKIT_SCAN_PATHS", " /a , /b ,")
	t.Setenv("FLOWKIT_JOURNAL_PATH", "from-env.db")
	t.Setenv("FLOWKIT_METRICS_ENABLED", "true")
	t.Setenv("FLOWKIT_METRICS_PORT", "9191")
	t.Setenv("FLOWKIT_TRACING_ENABLED", "1")

	cfg, err := NewLoader().LoadFile(layer)
	require.NoError(t, err)

	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, []string{"/a", "/b"}, cfg.Modules.ScanPaths)
	assert.Equal(t, "from-env.db", cfg.Journal.Path)
	assert.True(t, cfg.Journal.Enabled)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, 9191, cfg.Metrics.Port)
	assert.True(t, cfg.Tracing.Enabled)
}

func TestLoader_BadEnvValue(t *testing.T) {
	t.Setenv("FLOWKIT_METRICS_PORT", "ninety")

	_, err := NewLoader().Load()
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrInvalidConfig)
	assert.Contains(t, err.Error(), "FLOWKIT_METRICS_PORT")
}

func TestLoader_LayerErrors(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name string
		path string
	}{
		{"missing file", filepath.Join(dir, "missing.json")},
		{"not json extension", writeLayer(t, dir, "flowkit.yaml", `{}`)},
		{"malformed", writeLayer(t, dir, "bad.json", `{"log": `)},
		{"too deep", writeLayer(t, dir, "deep.json", strings.Repeat("[", maxJSONDepth+1)+strings.Repeat("]", maxJSONDepth+1))},
		{"bad duration", writeLayer(t, dir, "wait.json", `{"nats": {"reconnect_wait": "soon"}}`)},
		{"escaping relative path", "../../outside.json"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewLoader().LoadFile(tt.path)
			assert.ErrorIs(t, err, errors.ErrInvalidConfig)
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"upper case level", func(c *Config) { c.Log.Level = "DEBUG" }, ""},
		{"unknown level", func(c *Config) { c.Log.Level = "trace" }, "log.level"},
		{"unknown format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
		{"blank scan path", func(c *Config) { c.Modules.ScanPaths = []string{"/a", " "} }, "scan_paths[1]"},
		{"nats without url", func(c *Config) { c.NATS.Enabled = true; c.NATS.URL = "" }, "nats.url"},
		{"nats bad prefix", func(c *Config) { c.NATS.Enabled = true; c.NATS.SubjectPrefix = "flowkit.*" }, "subject_prefix"},
		{"nats empty token", func(c *Config) { c.NATS.Enabled = true; c.NATS.SubjectPrefix = "a..b" }, "subject_prefix"},
		{"bad prefix ignored when disabled", func(c *Config) { c.NATS.SubjectPrefix = "" }, ""},
		{"journal without path", func(c *Config) { c.Journal.Enabled = true; c.Journal.Path = "" }, "journal.path"},
		{"metrics port", func(c *Config) { c.Metrics.Enabled = true; c.Metrics.Port = 70000 }, "metrics.port"},
		{"metrics path", func(c *Config) { c.Metrics.Enabled = true; c.Metrics.Path = "metrics" }, "metrics.path"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, errors.ErrInvalidConfig)
			assert.True(t, errors.IsInvalid(err))
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestSafeConfig(t *testing.T) {
	sc := NewSafeConfig(nil)

	got := sc.Get()
	got.Modules.ScanPaths = append(got.Modules.ScanPaths, "/mutated")
	assert.Empty(t, sc.Get().Modules.ScanPaths, "Get returns a copy")

	bad := Defaults()
	bad.Log.Level = "loud"
	assert.ErrorIs(t, sc.Update(bad), errors.ErrInvalidConfig)
	assert.ErrorIs(t, sc.Update(nil), errors.ErrMissingConfig)

	good := Defaults()
	good.Tracing.Enabled = true
	require.NoError(t, sc.Update(good))
	assert.True(t, sc.Get().Tracing.Enabled)
}

func TestSaveToFile_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "saved.json")

	cfg := Defaults()
	cfg.Journal.Enabled = true
	cfg.Modules.ScanPaths = []string{"/srv/modules"}
	require.NoError(t, cfg.SaveToFile(path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	loaded, err := NewLoader().LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}
