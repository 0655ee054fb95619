package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

type testConfig struct {
	Name string `yaml:"name"`
	Port int    `yaml:"port"`
}

type validatedConfig struct {
	Port int `yaml:"port"`
}

var errBadPort = errors.New("port out of range")

func (c *validatedConfig) Validate() error {
	if c.Port <= 0 {
		return errBadPort
	}
	return nil
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, "name: perth\nport: 8080\n")
	var cfg testConfig
	if err := Load(path, &cfg); err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Name != "perth" || cfg.Port != 8080 {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestLoadExpandsEnv(t *testing.T) {
	t.Setenv("TEST_CONFIG_NAME", "expanded")
	path := writeConfig(t, "name: ${TEST_CONFIG_NAME}\nport: 1\n")
	var cfg testConfig
	if err := Load(path, &cfg); err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Name != "expanded" {
		t.Errorf("Name = %q, want env-expanded value", cfg.Name)
	}
}

func TestLoadRunsValidator(t *testing.T) {
	path := writeConfig(t, "port: 0\n")
	var cfg validatedConfig
	err := Load(path, &cfg)
	if !errors.Is(err, errBadPort) {
		t.Fatalf("err = %v, want validation failure", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	var cfg testConfig
	if err := Load(filepath.Join(t.TempDir(), "absent.yaml"), &cfg); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadWithDefaults(t *testing.T) {
	fallback := writeConfig(t, "name: fallback\nport: 2\n")
	var cfg testConfig
	if err := LoadWithDefaults(filepath.Join(t.TempDir(), "absent.yaml"), fallback, &cfg); err != nil {
		t.Fatalf("LoadWithDefaults() error: %v", err)
	}
	if cfg.Name != "fallback" {
		t.Errorf("Name = %q, want fallback config loaded", cfg.Name)
	}

	if err := LoadWithDefaults(filepath.Join(t.TempDir(), "absent.yaml"), "", &cfg); err == nil {
		t.Error("expected error when neither file exists")
	}
}
