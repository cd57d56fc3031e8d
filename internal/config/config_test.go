package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/phishlens/internal/domain"
)

func TestFromViper_Defaults(t *testing.T) {
	cfg, err := FromViper(NewViper())
	if err != nil {
		t.Fatalf("FromViper() error = %v", err)
	}

	if cfg.Server.Port != "8080" {
		t.Errorf("Port = %q, want 8080", cfg.Server.Port)
	}
	if cfg.Server.ReadTimeout != 30*time.Second {
		t.Errorf("ReadTimeout = %v, want 30s", cfg.Server.ReadTimeout)
	}
	if cfg.Backend.BaseURL != "http://localhost:8000" {
		t.Errorf("BaseURL = %q", cfg.Backend.BaseURL)
	}
	if cfg.Backend.Timeout != 0 {
		t.Errorf("Timeout = %v, want 0", cfg.Backend.Timeout)
	}
	if cfg.Dashboard.DefaultMode != domain.ModeFullEmail {
		t.Errorf("DefaultMode = %q", cfg.Dashboard.DefaultMode)
	}
}

func TestFromViper_Env(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("BACKEND_URL", "https://predict.internal:8443/")
	t.Setenv("PHISHLENS_BACKEND_TIMEOUT", "15")
	t.Setenv("PHISHLENS_DASHBOARD_DEFAULT_MODE", "url_only")

	cfg, err := FromViper(NewViper())
	if err != nil {
		t.Fatalf("FromViper() error = %v", err)
	}

	if cfg.Server.Port != "9090" {
		t.Errorf("Port = %q, want 9090", cfg.Server.Port)
	}
	if cfg.Backend.BaseURL != "https://predict.internal:8443" {
		t.Errorf("BaseURL = %q, want trailing slash trimmed", cfg.Backend.BaseURL)
	}
	if cfg.Backend.Timeout != 15*time.Second {
		t.Errorf("Timeout = %v, want 15s", cfg.Backend.Timeout)
	}
	if cfg.Dashboard.DefaultMode != domain.ModeURLOnly {
		t.Errorf("DefaultMode = %q, want url-only", cfg.Dashboard.DefaultMode)
	}
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "phishlens.yaml")
	content := []byte("backend:\n  base_url: http://10.0.0.5:8000\n  mock_mode: true\nlogging:\n  level: debug\n")
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Backend.BaseURL != "http://10.0.0.5:8000" {
		t.Errorf("BaseURL = %q", cfg.Backend.BaseURL)
	}
	if !cfg.Backend.MockMode {
		t.Error("MockMode should be true")
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Level = %q", cfg.Logging.Level)
	}
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if !errors.Is(err, domain.ErrInvalidConfig) {
		t.Errorf("Load() error = %v, want ErrInvalidConfig", err)
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Server:    ServerConfig{Port: "8080", RateLimitRPS: 5, RateLimitBurst: 10},
			Backend:   BackendConfig{BaseURL: "http://localhost:8000"},
			Dashboard: DashboardConfig{DefaultMode: domain.ModeFullEmail},
			Logging:   LoggingConfig{Level: "info"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "empty port", mutate: func(c *Config) { c.Server.Port = "" }, wantErr: true},
		{name: "negative rps", mutate: func(c *Config) { c.Server.RateLimitRPS = -1 }, wantErr: true},
		{name: "zero burst with rps", mutate: func(c *Config) { c.Server.RateLimitBurst = 0 }, wantErr: true},
		{name: "rate limit disabled", mutate: func(c *Config) { c.Server.RateLimitRPS = 0; c.Server.RateLimitBurst = 0 }},
		{name: "negative timeout", mutate: func(c *Config) { c.Backend.Timeout = -time.Second }, wantErr: true},
		{name: "bad url", mutate: func(c *Config) { c.Backend.BaseURL = "localhost:8000" }, wantErr: true},
		{name: "bad url in mock mode", mutate: func(c *Config) { c.Backend.BaseURL = ""; c.Backend.MockMode = true }},
		{name: "bad log level", mutate: func(c *Config) { c.Logging.Level = "loud" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, domain.ErrInvalidConfig) {
				t.Errorf("error should wrap ErrInvalidConfig")
			}
		})
	}
}
