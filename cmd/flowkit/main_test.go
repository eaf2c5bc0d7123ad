package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/flowkit/errors"
)

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestVersion(t *testing.T) {
	out, _, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "flowkit version "+Version)
}

func TestModules(t *testing.T) {
	out, _, err := execute(t, "modules")
	require.NoError(t, err)
	for _, want := range []string{"NAME", "text.upper", "flowkit/text.upper", "lines", "flowkit/data.lines", "internal"} {
		assert.Contains(t, out, want)
	}
}

func TestModules_KindFilter(t *testing.T) {
	out, _, err := execute(t, "modules", "--kind", "data")
	require.NoError(t, err)
	assert.Contains(t, out, "flowkit/data.bytes")
	assert.NotContains(t, out, "flowkit/text.grep")

	_, _, err = execute(t, "modules", "--kind", "plugin")
	assert.Error(t, err)
}

func TestModules_MissingScanRoot(t *testing.T) {
	_, _, err := execute(t, "modules", "--scan", filepath.Join(t.TempDir(), "nowhere"))
	assert.ErrorIs(t, err, errors.ErrArchiveNotFound)
}

func TestRun(t *testing.T) {
	out, _, err := execute(t, "run",
		"--chain", "text.lines, text.grep ,text.upper,text.collect",
		"--set", "text.grep.pattern=^[ab]",
		"--args", "alpha\nbeta\ngamma")
	require.NoError(t, err)
	assert.Equal(t, "ALPHA\nBETA\n", out)
}

func TestRun_ElementSetting(t *testing.T) {
	out, _, err := execute(t, "run",
		"--chain", "text.lines,text.collect",
		"--set", "1.text.lines.separator=|",
		"--args", "x|y")
	require.NoError(t, err)
	assert.Equal(t, "x\ny\n", out)
}

func TestRun_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		is   error
	}{
		{"unknown module", []string{"run", "--chain", "text.lines,text.shout"}, errors.ErrModuleNotFound},
		{"unknown parameter", []string{"run", "--chain", "text.lines", "--set", "text.lines.volume=11"}, errors.ErrUnknownParameter},
		{"data root", []string{"run", "--chain", "lines"}, errors.ErrNotAlgorithm},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := execute(t, tt.args...)
			assert.ErrorIs(t, err, tt.is)
		})
	}

	_, _, err := execute(t, "run")
	assert.Error(t, err, "--chain is required")

	_, _, err = execute(t, "run", "--chain", " , ")
	assert.Error(t, err)
}

func TestRun_JournalFromConfigFile(t *testing.T) {
	dir := t.TempDir()
	journalPath := filepath.Join(dir, "events.db")
	cfgPath := filepath.Join(dir, "flowkit.json")
	require.NoError(t, os.WriteFile(cfgPath,
		[]byte(`{"log":{"level":"debug","format":"json"},"journal":{"enabled":true,"path":"`+journalPath+`"}}`), 0o600))

	out, stderr, err := execute(t, "--config", cfgPath, "run", "--chain", "text.lines,text.collect", "--args", "hi")
	require.NoError(t, err)
	assert.Equal(t, "hi\n", out)
	assert.Contains(t, stderr, `"service":"flowkit"`)
	assert.FileExists(t, journalPath)
}

func TestGlobalFlags_Validation(t *testing.T) {
	_, _, err := execute(t, "--log-level", "loud", "modules")
	assert.ErrorContains(t, err, "invalid log level")

	_, _, err = execute(t, "--log-format", "xml", "modules")
	assert.ErrorContains(t, err, "invalid log format")

	_, _, err = execute(t, "--config", filepath.Join(t.TempDir(), "absent.json"), "modules")
	assert.ErrorContains(t, err, "config file not found")
}

func TestParseSettings(t *testing.T) {
	tests := []struct {
		name    string
		pairs   []string
		want    map[string]map[string]string
		wantErr bool
	}{
		{
			name:  "module and element targets",
			pairs: []string{"text.grep.pattern=a=b", "2.text.grep.invert=yes", "text.grep.pattern=^x"},
			want: map[string]map[string]string{
				"text.grep":   {"pattern": "^x"},
				"2.text.grep": {"invert": "yes"},
			},
		},
		{name: "empty value", pairs: []string{"a.b="}, want: map[string]map[string]string{"a": {"b": ""}}},
		{name: "no equals", pairs: []string{"a.b"}, wantErr: true},
		{name: "no target", pairs: []string{"pattern=x"}, wantErr: true},
		{name: "no parameter", pairs: []string{"text.=x"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseSettings(tt.pairs)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSplitChain(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, splitChain(" a,, b ,"))
	assert.Nil(t, splitChain(""))
}
