// Package cli implements the picstore command-line client: it submits a
// local project folder for validation or upload and fetches committed
// pictures back.
package cli

import "time"

// Config holds runtime settings for the picstore CLI.
//
// Fields:
//   - ServerURL: base URL of the picstore HTTP API.
//   - Token: bearer token naming the owner.
//   - Timeout: per-request timeout.
type Config struct {
	ServerURL string
	Token     string
	Timeout   time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerURL = "http://127.0.0.1:8080"
	c.Timeout = 60 * time.Second
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
