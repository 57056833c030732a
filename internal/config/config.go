// Package config provides runtime configuration for the dropgate service.
package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/alpha-markets/dropgate/pkg/network"
	"github.com/alpha-markets/dropgate/pkg/types"
)

// Config holds the application configuration. Every value the gateway needs
// is carried explicitly; nothing is read from the environment after startup.
type Config struct {
	Host        string `default:"0.0.0.0"`
	Port        string `default:"8080"`
	Environment string `default:"development"`

	// Payment gating
	FacilitatorURL    string `split_words:"true" default:"https://x402.org/facilitator"`
	Network           string `default:"base-sepolia"`
	MaxTimeoutSeconds int    `split_words:"true" default:"300"`

	// Storage. An empty DatabaseURL selects the in-memory store.
	DatabaseURL       string `split_words:"true"`
	RedisURL          string `split_words:"true"`
	StatsCacheTTLSecs int    `envconfig:"STATS_CACHE_TTL_SECS" default:"60"`

	// Operational limits
	RateLimitPerMinute int   `split_words:"true" default:"120"`
	RateLimitBurst     int   `split_words:"true" default:"30"`
	MaxRequestBytes    int64 `split_words:"true" default:"1048576"`

	ShutdownTimeoutSecs int `envconfig:"SHUTDOWN_TIMEOUT_SECS" default:"30"`
}

// Load reads configuration from the environment, after loading a .env file
// when one is present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment: %w", err)
	}

	if _, err := network.GetNetworkInfo(types.Network(cfg.Network)); err != nil {
		return nil, fmt.Errorf("invalid network %q: %w", cfg.Network, err)
	}
	if cfg.FacilitatorURL == "" {
		return nil, fmt.Errorf("facilitator URL must not be empty")
	}

	return &cfg, nil
}

// SettlementNetwork returns the configured settlement network.
func (c *Config) SettlementNetwork() types.Network {
	return types.Network(c.Network)
}

// Addr returns the listen address for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// StatsCacheTTL returns the seller-stats cache TTL as a duration.
func (c *Config) StatsCacheTTL() time.Duration {
	return time.Duration(c.StatsCacheTTLSecs) * time.Second
}

// ShutdownTimeout returns the graceful-shutdown window as a duration.
func (c *Config) ShutdownTimeout() time.Duration {
	return time.Duration(c.ShutdownTimeoutSecs) * time.Second
}
