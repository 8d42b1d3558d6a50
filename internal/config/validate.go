package config

import (
	"errors"
	"fmt"
	"maps"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/lydakis/dockrest/internal/httpheaders"
	"github.com/lydakis/dockrest/internal/logging"
)

var apiVersionRe = regexp.MustCompile(`^v?\d+\.\d+$`)

// Validate checks configuration invariants and returns actionable errors.
func Validate(cfg *Config) error {
	if cfg == nil {
		return nil
	}

	var errs []error
	if strings.TrimSpace(cfg.Socket) == "" {
		errs = append(errs, errors.New("socket: must not be empty"))
	} else if !filepath.IsAbs(cfg.Socket) {
		errs = append(errs, fmt.Errorf("socket: must be an absolute path, got %q", cfg.Socket))
	}

	if cfg.APIVersion != "" && !apiVersionRe.MatchString(cfg.APIVersion) {
		errs = append(errs, fmt.Errorf("api_version: want vMAJOR.MINOR (e.g. v1.43), got %q", cfg.APIVersion))
	}

	if _, err := cfg.TimeoutDuration(); err != nil {
		errs = append(errs, fmt.Errorf("timeout: %w", err))
	}

	switch strings.ToLower(strings.TrimSpace(cfg.Color)) {
	case "", "auto", "always", "never":
	default:
		errs = append(errs, fmt.Errorf("color: want auto, always or never, got %q", cfg.Color))
	}

	if cfg.LogLevel != "" {
		if _, ok := logging.ParseLevel(cfg.LogLevel); !ok {
			errs = append(errs, fmt.Errorf("log_level: unknown level %q", cfg.LogLevel))
		}
	}

	for _, name := range httpheaders.SortedKeys(cfg.Headers) {
		if strings.ContainsAny(name, " :\r\n") || name == "" {
			errs = append(errs, fmt.Errorf("headers.%q: invalid header name", name))
		}
		if strings.ContainsAny(cfg.Headers[name], "\r\n") {
			errs = append(errs, fmt.Errorf("headers.%s: value must not contain CR or LF", name))
		}
	}

	return errors.Join(errs...)
}

// ValidateForCurrentEnv checks config invariants after expanding ${ENV_VAR}
// placeholders against the current process environment.
func ValidateForCurrentEnv(cfg *Config) error {
	if cfg == nil {
		return nil
	}

	expanded := cloneConfig(cfg)
	expandConfigEnvVars(expanded)
	return Validate(expanded)
}

func cloneConfig(cfg *Config) *Config {
	if cfg == nil {
		return nil
	}
	cloned := *cfg
	cloned.Headers = maps.Clone(cfg.Headers)
	return &cloned
}
