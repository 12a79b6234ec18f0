package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, int32(10), cfg.Store.MaxConns)
	assert.Equal(t, 200, cfg.Backfill.BatchSize)
	assert.Equal(t, 50, cfg.Backfill.MaxBatches)
	assert.Equal(t, 2.0, cfg.Relay.RatePerSec)
	assert.Equal(t, int64(2048), cfg.Anthropic.MaxTokens)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("WAREHOUSE_SERVER_PORT", "9090")
	t.Setenv("WAREHOUSE_LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestInitLoggerBadLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "nope", Format: "json"})
	assert.Error(t, err)
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "warn", Format: "console"})
	assert.NoError(t, err)
}
