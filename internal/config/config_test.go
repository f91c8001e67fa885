package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	// No config file in the test working dir: every key falls back.
	t.Setenv("CONFIG_ENV", "test-does-not-exist")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "release", cfg.Mode)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, int64(32768), cfg.ReadLimit)
	assert.Equal(t, 54*time.Second, cfg.PingPeriod)
	assert.Equal(t, "tutor", cfg.PrivilegedRole)
	assert.Equal(t, 5, cfg.JoinRateLimit)
	assert.Equal(t, 10*time.Second, cfg.JoinRateInterval)
}
