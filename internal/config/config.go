// Package config handles configuration for the fuelwatch CLI, including
// defaults, JSON overlay, and command-line flags.
package config

import "time"

// Config holds runtime settings for the fuelwatch CLI.
//
// Fields:
//   - APIBaseURL: root of the remote fuel-price API (e.g. http://localhost:8000/api/v1).
//   - RequestTimeout: per-request HTTP timeout.
//   - DatabasePath: path of the local sqlite session database.
//   - StaleTime: how long a cached station listing is served without refetching.
//   - GCTime: how long an unused cache entry survives before eviction.
//   - PageSize: stations shown per page.
//   - Debug: enables debug-level logging.
type Config struct {
	APIBaseURL     string
	RequestTimeout time.Duration
	DatabasePath   string
	StaleTime      time.Duration
	GCTime         time.Duration
	PageSize       int
	Debug          bool
}

// LoadDefaults populates c with sensible defaults. StaleTime and GCTime
// mirror the dashboard's 5/10 minute windows.
func (c *Config) LoadDefaults() {
	c.APIBaseURL = "http://localhost:8000/api/v1"
	c.RequestTimeout = 15 * time.Second
	c.DatabasePath = "fuelwatch.db"
	c.StaleTime = 5 * time.Minute
	c.GCTime = 10 * time.Minute
	c.PageSize = 12
	c.Debug = false
}

// LoadConfig constructs a Config, applies defaults, then overlays values
// from JSON (if present) and command-line flags (if present). Later sources
// take precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
