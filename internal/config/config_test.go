package config

import (
	"flag"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lokiship/lokiship/internal/formatter"
)

// clearEnv blanks the variables Load reads so host environment cannot
// leak into the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"LOKI_URL", "LOKI_USERNAME", "LOKI_PASSWORD", "LABEL_NAMES",
		"STATIC_LABELS", "PRESERVE_TIMESTAMPS", "BATCH_SIZE",
		"FLUSH_INTERVAL", "VERBOSE",
	} {
		t.Setenv(key, "")
	}
}

func newFlagSet() *flag.FlagSet {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func TestLoadFromFlags(t *testing.T) {
	cfg, err := Load(newFlagSet(), []string{
		"-loki-url", "http://loki:3100",
		"-loki-username", "tenant",
		"-loki-password", "secret",
		"-labels", "level,app",
		"-static-labels", "env=prod, region=eu",
		"-preserve-timestamps=false",
		"-batch-size", "50",
		"-flush-interval", "1s",
	})
	require.NoError(t, err)

	assert.Equal(t, "http://loki:3100", cfg.LokiURL)
	assert.Equal(t, "tenant", cfg.Username)
	assert.Equal(t, "secret", cfg.Password)
	assert.Equal(t, []string{"level", "app"}, cfg.LabelNames)
	assert.Equal(t, []formatter.Label{
		{Name: "env", Value: "prod"},
		{Name: "region", Value: "eu"},
	}, cfg.StaticLabels)
	assert.False(t, cfg.PreserveTimestamps)
	assert.Equal(t, 50, cfg.BatchSize)
	assert.Equal(t, time.Second, cfg.FlushInterval)
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(newFlagSet(), []string{"-loki-url", "http://loki:3100"})
	require.NoError(t, err)

	assert.Equal(t, []string{formatter.SeverityLabel}, cfg.LabelNames)
	assert.Empty(t, cfg.StaticLabels)
	assert.True(t, cfg.PreserveTimestamps)
	assert.Equal(t, 500, cfg.BatchSize)
	assert.Equal(t, 200*time.Millisecond, cfg.FlushInterval)
}

func TestLoadEnvDefaults(t *testing.T) {
	t.Setenv("LOKI_URL", "http://env-loki:3100")
	t.Setenv("BATCH_SIZE", "42")
	t.Setenv("STATIC_LABELS", "env=staging")

	cfg, err := Load(newFlagSet(), nil)
	require.NoError(t, err)
	assert.Equal(t, "http://env-loki:3100", cfg.LokiURL)
	assert.Equal(t, 42, cfg.BatchSize)
	assert.Equal(t, []formatter.Label{{Name: "env", Value: "staging"}}, cfg.StaticLabels)
}

func TestLoadFlagOverridesEnv(t *testing.T) {
	t.Setenv("LOKI_URL", "http://env-loki:3100")

	cfg, err := Load(newFlagSet(), []string{"-loki-url", "http://flag-loki:3100"})
	require.NoError(t, err)
	assert.Equal(t, "http://flag-loki:3100", cfg.LokiURL)
}

func TestLoadValidation(t *testing.T) {
	clearEnv(t)
	_, err := Load(newFlagSet(), nil)
	assert.ErrorContains(t, err, "loki URL is required")

	_, err = Load(newFlagSet(), []string{"-loki-url", "http://x", "-static-labels", "nodelimiter"})
	assert.ErrorContains(t, err, "invalid static label")

	_, err = Load(newFlagSet(), []string{"-loki-url", "http://x", "-batch-size", "0"})
	assert.ErrorContains(t, err, "batch size")

	_, err = Load(newFlagSet(), []string{"-loki-url", "http://x", "-flush-interval", "0s"})
	assert.ErrorContains(t, err, "flush interval")
}
