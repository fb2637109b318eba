package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, "database:\n  path: test.db\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Deploy.KeepReleases != 3 {
		t.Errorf("expected default keep_releases 3, got %d", cfg.Deploy.KeepReleases)
	}
	if cfg.Generation.Workers != 5 {
		t.Errorf("expected default workers 5, got %d", cfg.Generation.Workers)
	}
	if cfg.Daemon.SweepInterval != 15*time.Minute {
		t.Errorf("expected default sweep interval, got %s", cfg.Daemon.SweepInterval)
	}
	if cfg.Deploy.Port != 22 {
		t.Errorf("expected ssh port default 22, got %d", cfg.Deploy.Port)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestLoadEnvExpansion(t *testing.T) {
	t.Setenv("AFFGEN_TEST_HOST", "web1.internal")
	path := writeConfig(t, "deploy:\n  host: ${AFFGEN_TEST_HOST}\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Deploy.Host != "web1.internal" {
		t.Errorf("env var not expanded: %q", cfg.Deploy.Host)
	}
}

func TestValidateNATSRequiresURL(t *testing.T) {
	path := writeConfig(t, "daemon:\n  nats:\n    enabled: true\n")
	if _, err := Load(path); err == nil {
		t.Fatal("expected validation error for nats without url")
	}
}

func TestInitRefusesOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := Init(path, false); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if err := Init(path, false); err == nil {
		t.Fatal("expected error overwriting without force")
	}
	if err := Init(path, true); err != nil {
		t.Fatalf("Init --force: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("starter config should load: %v", err)
	}
	if cfg.Generation.Model == "" {
		t.Error("starter config should set a model")
	}
}
