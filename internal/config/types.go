package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/lydakis/dockrest/internal/paths"
)

// Config is the top-level dockrest configuration.
type Config struct {
	Socket     string            `toml:"socket"`
	APIVersion string            `toml:"api_version,omitempty"`
	Timeout    string            `toml:"timeout,omitempty"`
	Color      string            `toml:"color,omitempty"`
	LogLevel   string            `toml:"log_level,omitempty"`
	Headers    map[string]string `toml:"headers,omitempty"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Socket:   paths.DefaultSocketPath,
		Color:    "auto",
		LogLevel: "info",
	}
}

// TimeoutDuration parses Timeout. Empty means no timeout.
func (c *Config) TimeoutDuration() (time.Duration, error) {
	raw := strings.TrimSpace(c.Timeout)
	if raw == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", c.Timeout, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("must be > 0, got %q", c.Timeout)
	}
	return d, nil
}
