package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

type mockFS struct {
	files map[string]bool
}

func (m *mockFS) Exists(path string) bool   { return m.files[path] }
func (m *mockFS) LoadEnv(path string) error { return nil }

func TestLoad_FromYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")
	yaml := `
name: chat-edge
environment: staging
backend:
  base_url: http://backend:9000
  idle_read_timeout: 45s
retry:
  max_attempts: 3
gateway:
  port: 9090
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(WithConfigFile(path))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Name != "chat-edge" || cfg.Environment != "staging" {
		t.Errorf("base = %+v", cfg)
	}
	if cfg.Backend.BaseURL != "http://backend:9000" {
		t.Errorf("backend.base_url = %q", cfg.Backend.BaseURL)
	}
	if cfg.Backend.IdleReadTimeout != 45*time.Second {
		t.Errorf("backend.idle_read_timeout = %v", cfg.Backend.IdleReadTimeout)
	}
	if cfg.Retry.MaxAttempts != 3 {
		t.Errorf("retry.max_attempts = %d", cfg.Retry.MaxAttempts)
	}
	if cfg.Gateway.Port != 9090 {
		t.Errorf("gateway.port = %d", cfg.Gateway.Port)
	}
	// Untouched sections still get defaults.
	if cfg.Backend.Timeout != 30*time.Second {
		t.Errorf("backend.timeout default = %v", cfg.Backend.Timeout)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("logging.level default = %q", cfg.Logging.Level)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")
	yaml := `
backend:
  base_url: http://from-file:9000
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CHATKIT_BACKEND_BASE_URL", "http://from-env:9000")
	t.Setenv("CHATKIT_GATEWAY_PORT", "7070")
	t.Setenv("CHATKIT_DEBUG", "true")

	cfg, err := Load(WithConfigFile(path))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Backend.BaseURL != "http://from-env:9000" {
		t.Errorf("backend.base_url = %q, env must win over file", cfg.Backend.BaseURL)
	}
	if cfg.Gateway.Port != 7070 {
		t.Errorf("gateway.port = %d", cfg.Gateway.Port)
	}
	if !cfg.Debug {
		t.Error("debug env flag not applied")
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	t.Setenv("CHATKIT_BACKEND_BASE_URL", "http://backend:9000")

	cfg, err := Load(WithFileSystem(&mockFS{files: map[string]bool{}}))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Name != "chatkit" {
		t.Errorf("name default = %q", cfg.Name)
	}
	if cfg.Environment != "development" || !cfg.Debug {
		t.Errorf("environment defaults = %q debug=%v", cfg.Environment, cfg.Debug)
	}
	if cfg.Gateway.Port != 8080 {
		t.Errorf("gateway.port default = %d", cfg.Gateway.Port)
	}
}

func TestLoad_RejectsInvalidEnvironment(t *testing.T) {
	t.Setenv("CHATKIT_ENVIRONMENT", "qa")
	t.Setenv("CHATKIT_BACKEND_BASE_URL", "http://backend:9000")

	if _, err := Load(WithFileSystem(&mockFS{files: map[string]bool{}})); err == nil {
		t.Fatal("expected validation error for unknown environment")
	}
}

func TestLoad_RequiresBackendBaseURL(t *testing.T) {
	os.Unsetenv("CHATKIT_BACKEND_BASE_URL")
	if _, err := Load(WithFileSystem(&mockFS{files: map[string]bool{}})); err == nil {
		t.Fatal("expected validation error for missing backend.base_url")
	}
}

func TestLoad_TelemetryInheritsServiceIdentity(t *testing.T) {
	t.Setenv("CHATKIT_BACKEND_BASE_URL", "http://backend:9000")
	t.Setenv("CHATKIT_NAME", "chat-edge")
	t.Setenv("CHATKIT_VERSION", "2.1.0")

	cfg, err := Load(WithFileSystem(&mockFS{files: map[string]bool{}}))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Telemetry.ServiceName != "chat-edge" {
		t.Errorf("telemetry.service_name = %q", cfg.Telemetry.ServiceName)
	}
	if cfg.Telemetry.ServiceVersion != "2.1.0" {
		t.Errorf("telemetry.service_version = %q", cfg.Telemetry.ServiceVersion)
	}
}
