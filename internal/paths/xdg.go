package paths

import (
	"os"
	"path/filepath"
	"strings"
)

// DefaultSocketPath is where the daemon listens unless configured otherwise.
const DefaultSocketPath = "/var/run/docker.sock"

func homeDir() string {
	if h := os.Getenv("HOME"); h != "" {
		return h
	}
	h, _ := os.UserHomeDir()
	return h
}

func xdgDir(envVar, fallbackSuffix string) string {
	if v := os.Getenv(envVar); v != "" {
		return filepath.Join(v, "dockrest")
	}
	return filepath.Join(homeDir(), fallbackSuffix, "dockrest")
}

// ConfigDir returns the dockrest config directory ($XDG_CONFIG_HOME/dockrest).
func ConfigDir() string {
	return xdgDir("XDG_CONFIG_HOME", ".config")
}

// ConfigFile returns the path to config.toml.
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.toml")
}

// SocketFromDockerHost extracts the socket path from a DOCKER_HOST style
// value. Only unix:// addresses are usable; anything else reports false.
func SocketFromDockerHost(host string) (string, bool) {
	host = strings.TrimSpace(host)
	path, ok := strings.CutPrefix(host, "unix://")
	if !ok || path == "" {
		return "", false
	}
	return path, true
}

// ExpandHome replaces a leading ~ with the user's home directory.
func ExpandHome(path string) string {
	if path == "~" {
		return homeDir()
	}
	if rest, ok := strings.CutPrefix(path, "~/"); ok {
		return filepath.Join(homeDir(), rest)
	}
	return path
}

// EnsureDir creates a directory and parents if needed.
func EnsureDir(dir string) error {
	return os.MkdirAll(dir, 0700)
}
