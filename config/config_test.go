package config

import (
	"os"
	"testing"
	"time"
)

// writeTempConfig creates a minimal configuration file required for LoadConfig
// and returns its path.
func writeTempConfig(t *testing.T) string {
	t.Helper()
	content := `whaleflow:
  name: "TestApp"
  version: "1.0"
gateway:
  base_url: "https://api.example.com/info"
  max_inflight: 2
  batch_size: 10
`
	f, err := os.CreateTemp("", "cfg-*.yml")
	if err != nil {
		t.Fatalf("create temp file: %v", err)
	}
	if _, err := f.WriteString(content); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close temp file: %v", err)
	}
	return f.Name()
}

func TestLoadConfig(t *testing.T) {
	path := writeTempConfig(t)
	defer os.Remove(path)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Whaleflow.Name != "TestApp" {
		t.Errorf("unexpected name: %s", cfg.Whaleflow.Name)
	}
	if cfg.Gateway.MaxInflight != 2 {
		t.Errorf("unexpected max inflight: %d", cfg.Gateway.MaxInflight)
	}
	// Fields absent from the file keep their defaults.
	if cfg.Gateway.Retry.MaxAttempts != 3 {
		t.Errorf("unexpected retry attempts: %d", cfg.Gateway.Retry.MaxAttempts)
	}
	if cfg.Gateway.CacheTTL() != time.Minute {
		t.Errorf("unexpected cache ttl: %v", cfg.Gateway.CacheTTL())
	}
}

func TestLoadConfigMissingName(t *testing.T) {
	content := `gateway:
  base_url: "https://api.example.com/info"
`
	f, err := os.CreateTemp("", "cfg-*.yml")
	if err != nil {
		t.Fatalf("create temp file: %v", err)
	}
	if _, err := f.WriteString(content); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close temp file: %v", err)
	}
	defer os.Remove(f.Name())

	if _, err := LoadConfig(f.Name()); err == nil {
		t.Fatalf("expected validation error for missing name")
	}
}

func TestIsValidEndpointURL(t *testing.T) {
	cases := []struct {
		url   string
		valid bool
	}{
		{"https://api.hyperliquid.xyz/info", true},
		{"http://localhost:8080/info", true},
		{"ftp://api.example.com", false},
		{"not-a-url", false},
	}
	for _, c := range cases {
		if got := isValidEndpointURL(c.url); got != c.valid {
			t.Errorf("isValidEndpointURL(%q) = %v, want %v", c.url, got, c.valid)
		}
	}
}

func TestAppEnvironmentAliases(t *testing.T) {
	t.Setenv(appEnvVar, "prod")
	if env := AppEnvironment(); env != EnvironmentProduction {
		t.Errorf("unexpected environment: %s", env)
	}
	if !IsProductionLike(EnvironmentStaging) {
		t.Errorf("staging should be production-like")
	}
	if IsProductionLike(EnvironmentDevelopment) {
		t.Errorf("development should not be production-like")
	}
}
