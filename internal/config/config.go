package config

import (
	"fmt"
	"os"
	"regexp"

	"github.com/BurntSushi/toml"
	"github.com/lydakis/dockrest/internal/paths"
)

// EnvDockerHost overrides the configured socket when it holds a unix:// address.
const EnvDockerHost = "DOCKER_HOST"

var envVarRe = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Load reads the config file and returns the parsed Config.
// If the config file does not exist, it returns the defaults (no error).
func Load() (*Config, error) {
	return LoadFrom(paths.ConfigFile())
}

// LoadFrom reads and parses a config file at the given path, expands
// ${ENV_VAR} placeholders, and applies DOCKER_HOST.
func LoadFrom(path string) (*Config, error) {
	return loadFrom(path, true)
}

// LoadForEditFrom reads a config file for rewriting. Placeholders stay raw
// and DOCKER_HOST is ignored so a save does not bake in the environment.
func LoadForEditFrom(path string) (*Config, error) {
	return loadFrom(path, false)
}

func loadFrom(path string, resolve bool) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	if err == nil {
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}
	if resolve {
		expandConfigEnvVars(cfg)
		applyDockerHost(cfg)
	}
	return cfg, nil
}

// ExampleConfigPath returns the default config file path (for help messages).
func ExampleConfigPath() string {
	return paths.ConfigFile()
}

func applyDockerHost(cfg *Config) {
	if socket, ok := paths.SocketFromDockerHost(os.Getenv(EnvDockerHost)); ok {
		cfg.Socket = socket
	}
}

func expandConfigEnvVars(cfg *Config) {
	if cfg == nil {
		return
	}
	cfg.Socket = paths.ExpandHome(expandEnvVars(cfg.Socket))
	cfg.APIVersion = expandEnvVars(cfg.APIVersion)
	cfg.Timeout = expandEnvVars(cfg.Timeout)
	cfg.Color = expandEnvVars(cfg.Color)
	cfg.LogLevel = expandEnvVars(cfg.LogLevel)
	for k, v := range cfg.Headers {
		cfg.Headers[k] = expandEnvVars(v)
	}
}

// expandEnvVars replaces ${VAR_NAME} with the value of the environment variable.
func expandEnvVars(s string) string {
	return envVarRe.ReplaceAllStringFunc(s, func(match string) string {
		name := envVarRe.FindStringSubmatch(match)[1]
		if val, ok := os.LookupEnv(name); ok {
			return val
		}
		return match // leave unresolved vars as-is
	})
}
