package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cast"
)

const (
	EnvLogLevel   = "DOCKREST_LOG_LEVEL"
	EnvLogNoColor = "DOCKREST_LOG_NOCOLOR"
	EnvDebug      = "DOCKER_DEBUG"
)

// Config is the resolved logger setup.
type Config struct {
	Level   zerolog.Level
	NoColor bool
	Out     io.Writer
}

// DefaultConfig logs at info level to stderr.
func DefaultConfig() Config {
	return Config{Level: zerolog.InfoLevel, Out: os.Stderr}
}

// Resolve builds a Config from the configured level name and the
// environment overrides. An unparseable configLevel keeps the default.
func Resolve(configLevel string) Config {
	cfg := DefaultConfig()
	if lvl, ok := ParseLevel(configLevel); ok {
		cfg.Level = lvl
	}
	applyEnvOverrides(&cfg)
	return cfg
}

// New returns a console logger for cfg.
func New(cfg Config) zerolog.Logger {
	out := cfg.Out
	if out == nil {
		out = os.Stderr
	}
	w := zerolog.ConsoleWriter{Out: out, NoColor: cfg.NoColor, TimeFormat: time.TimeOnly}
	return zerolog.New(w).Level(cfg.Level).With().Timestamp().Logger()
}

func applyEnvOverrides(cfg *Config) {
	if lvl, ok := ParseLevel(os.Getenv(EnvLogLevel)); ok {
		cfg.Level = lvl
	}
	if v, ok := parseBool(os.Getenv(EnvLogNoColor)); ok {
		cfg.NoColor = v
	}
	if debugRequested(os.Getenv(EnvDebug)) {
		cfg.Level = zerolog.DebugLevel
	}
}

// ParseLevel accepts zerolog level names plus a few common aliases.
func ParseLevel(raw string) (zerolog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "":
		return zerolog.InfoLevel, false
	case "trace":
		return zerolog.TraceLevel, true
	case "debug":
		return zerolog.DebugLevel, true
	case "info":
		return zerolog.InfoLevel, true
	case "warn", "warning":
		return zerolog.WarnLevel, true
	case "error":
		return zerolog.ErrorLevel, true
	case "disabled", "off", "none":
		return zerolog.Disabled, true
	default:
		return zerolog.InfoLevel, false
	}
}

// debugRequested treats any non-empty value as on, except explicit false.
func debugRequested(raw string) bool {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return false
	}
	if v, ok := parseBool(raw); ok {
		return v
	}
	return true
}

func parseBool(raw string) (bool, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return false, false
	}
	v, err := cast.ToBoolE(raw)
	if err != nil {
		return false, false
	}
	return v, true
}
