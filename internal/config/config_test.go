package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.yaml.in/yaml/v4"
)

func TestLoad_MissingConfig(t *testing.T) {
	t.Setenv("HABITS_CONFIG", "nonexistent.yaml")
	_, err := Load("")
	if err == nil {
		t.Fatal("expected error for missing config file, got nil")
	}
}

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	t.Setenv("HABITS_CONFIG", "")
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Storage.Backend != "bolt" || cfg.ListenAddr != ":8080" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}

func TestLoad_CustomConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configFile := filepath.Join(tmpDir, "config.yaml")
	t.Setenv("HABITS_CONFIG", configFile)

	c := Config{
		APIBaseURL: "http://habits.example:9000",
		Storage:    StorageConfig{Backend: "json", Path: "data/habits.json"},
		Nudge:      NudgeConfig{Window: 30 * time.Minute},
	}
	d, err := yaml.Marshal(&c)
	if err != nil {
		t.Fatalf("failed to marshal config: %v", err)
	}
	if err := os.WriteFile(configFile, d, 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	cfg, err := Load("")
	if err != nil {
		t.Fatal("error opening config:", err)
	}
	if cfg.APIBaseURL != "http://habits.example:9000" {
		t.Errorf("got api base %q", cfg.APIBaseURL)
	}
	if cfg.Storage.Backend != "json" {
		t.Errorf("got backend %q", cfg.Storage.Backend)
	}
	if cfg.Nudge.Window != 30*time.Minute {
		t.Errorf("got nudge window %v", cfg.Nudge.Window)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	configFile := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configFile, []byte("storage:\n  backend: bolt\n  path: a.db\n"), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("HABITS_STORAGE_BACKEND", "sqlite")
	t.Setenv("HABITS_NUDGE_WINDOW", "2h")

	cfg, err := Load(configFile)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Storage.Backend != "sqlite" || cfg.Storage.Path != "a.db" {
		t.Fatalf("unexpected storage config: %+v", cfg.Storage)
	}
	if cfg.Nudge.Window != 2*time.Hour {
		t.Fatalf("got window %v, want 2h", cfg.Nudge.Window)
	}

	t.Setenv("HABITS_NUDGE_WINDOW", "soon")
	if _, err := Load(configFile); err == nil {
		t.Fatal("expected error for bad duration")
	}
}

func TestValidate(t *testing.T) {
	cfg := defaults()
	cfg.Storage.Backend = "mongo"
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for unknown backend")
	}

	cfg = defaults()
	cfg.AuthEnabled = true
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for auth without providers")
	}

	cfg.OIDCProviders = []OIDCProviderConfig{{Id: "google", IssuerURL: "https://accounts.google.com", ClientID: "x"}}
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestValidateNudge(t *testing.T) {
	cfg := defaults()
	if err := cfg.ValidateNudge(); err == nil {
		t.Fatal("expected error without resend key")
	}
	cfg.Nudge.ResendAPIKey = "re_123"
	cfg.Nudge.Email = "me@example.com"
	if err := cfg.ValidateNudge(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
