package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"go.yaml.in/yaml/v4"
)

const DefaultPath = "config.yaml"

type Config struct {
	ListenAddr    string               `yaml:"listen_addr"`
	APIBaseURL    string               `yaml:"api_base_url"`
	AuthToken     string               `yaml:"auth_token"`
	AuthEnabled   bool                 `yaml:"auth_enabled"`
	OIDCProviders []OIDCProviderConfig `yaml:"oidc_providers"`
	Storage       StorageConfig        `yaml:"storage"`
	Log           LogConfig            `yaml:"log"`
	Nudge         NudgeConfig          `yaml:"nudge"`
}

type OIDCProviderConfig struct {
	Id           string   `yaml:"id"`
	Name         string   `yaml:"name"`
	ClientID     string   `yaml:"client_id"`
	ClientSecret string   `yaml:"client_secret"`
	IssuerURL    string   `yaml:"issuer_url"`
	RedirectURL  string   `yaml:"redirect_url"`
	Scopes       []string `yaml:"scopes"`
}

type StorageConfig struct {
	// Backend is one of bolt, sqlite or json.
	Backend string `yaml:"backend"`
	Path    string `yaml:"path"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type NudgeConfig struct {
	ResendAPIKey string        `yaml:"resend_api_key"`
	Email        string        `yaml:"email"`
	From         string        `yaml:"from"`
	Window       time.Duration `yaml:"window"`
}

func defaults() Config {
	return Config{
		ListenAddr: ":8080",
		APIBaseURL: "http://localhost:8080",
		Storage:    StorageConfig{Backend: "bolt", Path: "habits.db"},
		Log:        LogConfig{Level: "info", Format: "auto"},
		Nudge:      NudgeConfig{From: "onboarding@resend.dev", Window: time.Hour},
	}
}

// Load reads the YAML config at path, falling back to $HABITS_CONFIG and then
// DefaultPath. A file named explicitly (by argument or env) must exist; the
// default file is optional. Environment variables override file values.
func Load(path string) (*Config, error) {
	explicit := true
	if path == "" {
		path = os.Getenv("HABITS_CONFIG")
	}
	if path == "" {
		path = DefaultPath
		explicit = false
	}

	cfg := defaults()
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv() error {
	setenv(&c.ListenAddr, "HABITS_LISTEN_ADDR")
	setenv(&c.APIBaseURL, "HABITS_API_BASE")
	setenv(&c.AuthToken, "HABITS_AUTH_TOKEN")
	setenv(&c.Storage.Backend, "HABITS_STORAGE_BACKEND")
	setenv(&c.Storage.Path, "HABITS_STORAGE_PATH")
	setenv(&c.Log.Level, "HABITS_LOG_LEVEL")
	setenv(&c.Nudge.ResendAPIKey, "HABITS_RESEND_API_KEY")
	setenv(&c.Nudge.Email, "HABITS_NOTIFY_EMAIL")
	if v := os.Getenv("HABITS_NUDGE_WINDOW"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("HABITS_NUDGE_WINDOW must be a duration: %v", err)
		}
		c.Nudge.Window = d
	}
	return nil
}

func setenv(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// Validate checks the settings the server needs.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case "bolt", "sqlite", "json":
	default:
		return fmt.Errorf("storage.backend must be bolt, sqlite or json, got %q", c.Storage.Backend)
	}
	if c.Storage.Path == "" {
		return errors.New("storage.path is required")
	}
	if !c.AuthEnabled {
		return nil
	}
	if len(c.OIDCProviders) == 0 {
		return errors.New("auth_enabled requires at least one oidc provider")
	}
	for i, p := range c.OIDCProviders {
		if p.Id == "" || p.IssuerURL == "" || p.ClientID == "" {
			return fmt.Errorf("oidc_providers[%d]: id, issuer_url and client_id are required", i)
		}
	}
	return nil
}

// ValidateNudge checks the settings the nudge command needs.
func (c *Config) ValidateNudge() error {
	if c.Nudge.ResendAPIKey == "" {
		return errors.New("nudge.resend_api_key (or HABITS_RESEND_API_KEY) is not set")
	}
	if c.Nudge.Email == "" {
		return errors.New("nudge.email (or HABITS_NOTIFY_EMAIL) is not set")
	}
	if c.Nudge.Window <= 0 {
		return errors.New("nudge.window must be positive")
	}
	return nil
}
