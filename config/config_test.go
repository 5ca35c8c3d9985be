package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
context: orders
handlers:
  - type: console
    name: out
    level: info
    formatter: json
  - type: "null"
    level: debug
`

func TestLoadBytes(t *testing.T) {
	cfg, err := LoadBytes([]byte(sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, "orders", cfg.Context)
	require.Len(t, cfg.Handlers, 2)
	assert.Equal(t, "console", cfg.Handlers[0].Type)
	assert.Equal(t, "out", cfg.Handlers[0].Name)
	assert.Equal(t, "json", cfg.Handlers[0].Formatter)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fanlog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleYAML), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "orders", cfg.Context)
}

func TestLoadFileMissing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadMap(t *testing.T) {
	cfg, err := LoadMap(map[string]any{
		"context": "orders",
		"handlers": []any{
			map[string]any{"type": "console", "level": "warning"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "orders", cfg.Context)
	require.Len(t, cfg.Handlers, 1)
	assert.Equal(t, "warning", cfg.Handlers[0].Level)
}

func TestEnvironmentOverridesContext(t *testing.T) {
	t.Setenv("FANLOG_CONTEXT", "from-env")

	cfg, err := LoadBytes([]byte(sampleYAML))
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Context)
}

func TestValidationFailures(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{name: "missing_context", yaml: "handlers:\n  - type: console\n"},
		{name: "no_handlers", yaml: "context: app\nhandlers: []\n"},
		{name: "unknown_type", yaml: "context: app\nhandlers:\n  - type: carrier-pigeon\n"},
		{name: "unknown_formatter", yaml: "context: app\nhandlers:\n  - type: console\n    formatter: xml\n"},
		{name: "excess_retries", yaml: "context: app\nhandlers:\n  - type: webhook\n    url: https://example.com\n    transport:\n      retries: 99\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadBytes([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestBuild(t *testing.T) {
	dir := t.TempDir()
	cfg, err := LoadMap(map[string]any{
		"context": "orders",
		"handlers": []any{
			map[string]any{
				"type":  "file",
				"name":  "app",
				"path":  filepath.Join(dir, "app.log"),
				"level": "debug",
			},
			map[string]any{
				"type":      "null",
				"name":      "sink",
				"level":     "error",
				"formatter": "json",
			},
		},
	})
	require.NoError(t, err)

	log, err := cfg.Build()
	require.NoError(t, err)
	defer log.Close()

	assert.Equal(t, "orders", log.Context())
	assert.Len(t, log.Handlers(), 2)

	named, ok := log.Handler("app")
	require.True(t, ok)
	assert.Equal(t, "file", named.Kind())

	_, ok = log.Handler("sink")
	assert.True(t, ok)
}

func TestBuildBadLevel(t *testing.T) {
	cfg := &Config{
		Context:  "app",
		Handlers: []HandlerConfig{{Type: "console", Level: "loud"}},
	}
	_, err := cfg.Build()
	assert.Error(t, err)
}

func TestBuildFileWithoutPath(t *testing.T) {
	cfg := &Config{
		Context:  "app",
		Handlers: []HandlerConfig{{Type: "file"}},
	}
	_, err := cfg.Build()
	assert.Error(t, err)
}
