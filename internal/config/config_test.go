package config

import (
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	seed := make([]byte, 32)
	for i := range seed {
		seed[i] = byte(i)
	}
	t.Setenv("ILP_ADDRESS", "g.connector")
	t.Setenv("ILP_SECRET_SEED", hex.EncodeToString(seed))
}

func TestFromEnv_MissingAddressErrors(t *testing.T) {
	t.Setenv("ILP_ADDRESS", "")
	t.Setenv("ILP_SECRET_SEED", "")
	_, err := FromEnv("")
	assert.Error(t, err)
}

func TestFromEnv_InvalidSeedLengthErrors(t *testing.T) {
	t.Setenv("ILP_ADDRESS", "g.connector")
	t.Setenv("ILP_SECRET_SEED", hex.EncodeToString([]byte("too-short")))
	_, err := FromEnv("")
	assert.Error(t, err)
}

func TestFromEnv_AppliesDefaults(t *testing.T) {
	setRequiredEnv(t)
	cfg, err := FromEnv("")
	require.NoError(t, err)
	assert.Equal(t, defaultHTTPBindAddress, cfg.HTTPBindAddress)
	assert.Equal(t, defaultBTPBindAddress, cfg.BTPBindAddress)
	assert.Equal(t, "coincap", cfg.ExchangeRate.Provider)
	assert.Equal(t, defaultPollInterval, cfg.ExchangeRate.PollInterval)
}

func TestFromEnv_ParsesPollIntervalDuration(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("ILP_EXCHANGE_RATE__POLL_INTERVAL", "15s")
	cfg, err := FromEnv("")
	require.NoError(t, err)
	assert.Equal(t, 15*time.Second, cfg.ExchangeRate.PollInterval)
}

func TestFromEnv_OverlayFileSuppliesRateLimitTuning(t *testing.T) {
	setRequiredEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "overlay.yaml")
	require.NoError(t, os.WriteFile(path, []byte("ratelimit:\n  capacity: 500\n  refill_rate: 50\nbtp:\n  backoff_ceiling: 1m\n  backoff_spread: 0.25\n"), 0o600))

	cfg, err := FromEnv(path)
	require.NoError(t, err)
	assert.Equal(t, float64(500), cfg.RateLimit.Capacity)
	assert.Equal(t, float64(50), cfg.RateLimit.RefillRate)
	assert.Equal(t, time.Minute, cfg.BTP.BackoffCeiling)
	assert.Equal(t, 0.25, cfg.BTP.BackoffSpread)
}
