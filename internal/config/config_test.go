package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/lydakis/dockrest/internal/paths"
)

func writeConfig(t *testing.T, raw string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(raw), 0o600); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func TestLoadFromMissingFileReturnsDefaults(t *testing.T) {
	t.Setenv(EnvDockerHost, "")
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	if cfg.Socket != paths.DefaultSocketPath || cfg.Color != "auto" || cfg.LogLevel != "info" {
		t.Fatalf("LoadFrom() = %+v, want defaults", cfg)
	}
}

func TestLoadFromKeepsDefaultsForUnsetKeys(t *testing.T) {
	t.Setenv(EnvDockerHost, "")
	cfg, err := LoadFrom(writeConfig(t, `timeout = "5s"`))
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	if cfg.Socket != paths.DefaultSocketPath {
		t.Fatalf("socket = %q, want default", cfg.Socket)
	}
	d, err := cfg.TimeoutDuration()
	if err != nil || d != 5*time.Second {
		t.Fatalf("TimeoutDuration() = %s, %v; want 5s", d, err)
	}
}

func TestLoadFromExpandsEnvValuesAfterParsing(t *testing.T) {
	t.Setenv(EnvDockerHost, "")
	t.Setenv("API_TOKEN", `abc"def`)
	t.Setenv("RUNTIME_DIR", "/run/user/1000")

	cfg, err := LoadFrom(writeConfig(t, `
socket = "${RUNTIME_DIR}/docker.sock"
[headers]
Authorization = "Bearer ${API_TOKEN}"
X-Unset = "${DOCKREST_NOT_SET}"
`))
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}

	if got, want := cfg.Headers["Authorization"], `Bearer abc"def`; got != want {
		t.Fatalf("Authorization header = %q, want %q", got, want)
	}
	if got := cfg.Headers["X-Unset"]; got != "${DOCKREST_NOT_SET}" {
		t.Fatalf("unresolved placeholder = %q, want it left as-is", got)
	}
	if cfg.Socket != "/run/user/1000/docker.sock" {
		t.Fatalf("socket = %q", cfg.Socket)
	}
}

func TestLoadFromDockerHostOverridesSocket(t *testing.T) {
	t.Setenv(EnvDockerHost, "unix:///tmp/other.sock")
	cfg, err := LoadFrom(writeConfig(t, `socket = "/var/run/docker.sock"`))
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	if cfg.Socket != "/tmp/other.sock" {
		t.Fatalf("socket = %q, want DOCKER_HOST path", cfg.Socket)
	}

	t.Setenv(EnvDockerHost, "tcp://127.0.0.1:2375")
	cfg, err = LoadFrom(writeConfig(t, `socket = "/var/run/docker.sock"`))
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	if cfg.Socket != "/var/run/docker.sock" {
		t.Fatalf("socket = %q, want tcp DOCKER_HOST ignored", cfg.Socket)
	}
}

func TestLoadForEditFromPreservesEnvPlaceholders(t *testing.T) {
	t.Setenv("API_TOKEN", "secret-value")
	t.Setenv(EnvDockerHost, "unix:///tmp/other.sock")

	cfg, err := LoadForEditFrom(writeConfig(t, `
[headers]
Authorization = "Bearer ${API_TOKEN}"
`))
	if err != nil {
		t.Fatalf("LoadForEditFrom() error = %v", err)
	}
	if got, want := cfg.Headers["Authorization"], "Bearer ${API_TOKEN}"; got != want {
		t.Fatalf("Authorization header = %q, want %q", got, want)
	}
	if cfg.Socket != paths.DefaultSocketPath {
		t.Fatalf("socket = %q, want DOCKER_HOST ignored for edits", cfg.Socket)
	}
}

func TestLoadFromRejectsBadTOML(t *testing.T) {
	if _, err := LoadFrom(writeConfig(t, `socket = `)); err == nil {
		t.Fatal("LoadFrom() error = nil, want parse error")
	}
}

func TestSaveToWritesConfigAndCreatesParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	cfg := Default()
	cfg.APIVersion = "v1.43"
	cfg.Headers = map[string]string{"X-Token": "${TOKEN}"}

	if err := SaveTo(path, cfg); err != nil {
		t.Fatalf("SaveTo() error = %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Fatalf("perm = %o, want 600", perm)
	}

	t.Setenv(EnvDockerHost, "")
	loaded, err := LoadForEditFrom(path)
	if err != nil {
		t.Fatalf("LoadForEditFrom() error = %v", err)
	}
	if loaded.APIVersion != "v1.43" || loaded.Headers["X-Token"] != "${TOKEN}" || loaded.Socket != cfg.Socket {
		t.Fatalf("reloaded = %+v", loaded)
	}
}
