// Package config loads the connector's configuration from environment
// variables, with an optional YAML file supplying values the environment
// does not name (rate-limiter capacities, BTP backoff tuning).
package config

import (
	"encoding/hex"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the connector node.
type Config struct {
	Address          string        `yaml:"-"`
	SecretSeed       []byte        `yaml:"-"`
	AdminAuthToken   string        `yaml:"-"`
	DatabaseURL      string        `yaml:"-"`
	HTTPBindAddress  string        `yaml:"-"`
	BTPBindAddress   string        `yaml:"-"`
	ExchangeRate     ExchangeRateConfig `yaml:"-"`

	RateLimit RateLimitConfig `yaml:"ratelimit"`
	BTP       BTPConfig       `yaml:"btp"`
}

// ExchangeRateConfig configures which rate poller runs and how often.
type ExchangeRateConfig struct {
	Provider     string        `yaml:"-"`
	PollInterval time.Duration `yaml:"-"`
}

// RateLimitConfig holds per-account token-bucket tuning, not named by any
// environment variable, so it only ever comes from the YAML overlay.
type RateLimitConfig struct {
	Capacity   float64 `yaml:"capacity"`
	RefillRate float64 `yaml:"refill_rate"`
}

// BTPConfig tunes the outgoing BTP client's reconnect behavior.
type BTPConfig struct {
	BackoffCeiling time.Duration `yaml:"backoff_ceiling"`
	BackoffSpread  float64       `yaml:"backoff_spread"`
}

const (
	defaultHTTPBindAddress = ":7770"
	defaultBTPBindAddress  = ":7768"
	defaultPollInterval    = 60 * time.Second
	defaultExchangeRate    = "coincap"
	defaultBackoffCeiling  = 30 * time.Second
	defaultBackoffSpread   = 0.5
	defaultRateCapacity    = 100
	defaultRateRefillRate  = 10
)

// FromEnv populates a Config from ILP_* environment variables, then layers
// an optional YAML file (overlayPath, skipped if empty) on top for the
// values the environment does not carry.
func FromEnv(overlayPath string) (*Config, error) {
	cfg := &Config{
		HTTPBindAddress: envOr("ILP_HTTP_BIND_ADDRESS", defaultHTTPBindAddress),
		BTPBindAddress:  envOr("ILP_BTP_BIND_ADDRESS", defaultBTPBindAddress),
		AdminAuthToken:  os.Getenv("ILP_ADMIN_AUTH_TOKEN"),
		DatabaseURL:     os.Getenv("ILP_DATABASE_URL"),
		ExchangeRate: ExchangeRateConfig{
			Provider:     envOr("ILP_EXCHANGE_RATE__PROVIDER", defaultExchangeRate),
			PollInterval: defaultPollInterval,
		},
		RateLimit: RateLimitConfig{Capacity: defaultRateCapacity, RefillRate: defaultRateRefillRate},
		BTP:       BTPConfig{BackoffCeiling: defaultBackoffCeiling, BackoffSpread: defaultBackoffSpread},
	}

	cfg.Address = os.Getenv("ILP_ADDRESS")
	if cfg.Address == "" {
		return nil, fmt.Errorf("config: ILP_ADDRESS is required")
	}

	seedHex := os.Getenv("ILP_SECRET_SEED")
	if seedHex == "" {
		return nil, fmt.Errorf("config: ILP_SECRET_SEED is required")
	}
	seed, err := hex.DecodeString(seedHex)
	if err != nil {
		return nil, fmt.Errorf("config: ILP_SECRET_SEED is not valid hex: %w", err)
	}
	if len(seed) != 32 {
		return nil, fmt.Errorf("config: ILP_SECRET_SEED must decode to 32 bytes, got %d", len(seed))
	}
	cfg.SecretSeed = seed

	if raw := os.Getenv("ILP_EXCHANGE_RATE__POLL_INTERVAL"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			if secs, err2 := strconv.Atoi(raw); err2 == nil {
				d = time.Duration(secs) * time.Second
			} else {
				return nil, fmt.Errorf("config: ILP_EXCHANGE_RATE__POLL_INTERVAL: %w", err)
			}
		}
		cfg.ExchangeRate.PollInterval = d
	}

	if overlayPath != "" {
		if err := cfg.applyOverlay(overlayPath); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

func (c *Config) applyOverlay(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: reading overlay %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("config: parsing overlay %s: %w", path, err)
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
