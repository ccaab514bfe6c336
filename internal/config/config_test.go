package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("ENV", "development")
	t.Setenv("MODERATION_THRESHOLD", "")
	t.Setenv("MODERATION_MODE", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Moderation.Threshold != 0.45 {
		t.Errorf("Threshold = %v, want 0.45", cfg.Moderation.Threshold)
	}
	if cfg.Moderation.Mode != "inline" {
		t.Errorf("Mode = %q, want inline", cfg.Moderation.Mode)
	}
	if !cfg.Moderation.TrustProviderSafe {
		t.Error("TrustProviderSafe should default to true")
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("MODERATION_THRESHOLD", "0.6")
	t.Setenv("MODERATION_STAGE_TIMEOUT", "3s")
	t.Setenv("MODERATION_MODE", "NATS")
	t.Setenv("WORDLE_TIMEZONE", "Asia/Kolkata")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Moderation.Threshold != 0.6 {
		t.Errorf("Threshold = %v, want 0.6", cfg.Moderation.Threshold)
	}
	if cfg.Moderation.StageTimeout != 3*time.Second {
		t.Errorf("StageTimeout = %v, want 3s", cfg.Moderation.StageTimeout)
	}
	if cfg.Moderation.Mode != "nats" {
		t.Errorf("Mode = %q, want nats", cfg.Moderation.Mode)
	}
	if cfg.Location().String() != "Asia/Kolkata" {
		t.Errorf("Location() = %s", cfg.Location())
	}
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			Server:     ServerConfig{Env: "development"},
			JWT:        JWTConfig{Secret: defaultJWTSecret},
			Moderation: ModerationConfig{Mode: "inline", Threshold: 0.45},
			Wordle:     WordleConfig{Timezone: "UTC"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(*Config) {}, false},
		{"default secret in production", func(c *Config) { c.Server.Env = "production" }, true},
		{"zero threshold", func(c *Config) { c.Moderation.Threshold = 0 }, true},
		{"threshold above one", func(c *Config) { c.Moderation.Threshold = 1.5 }, true},
		{"unknown mode", func(c *Config) { c.Moderation.Mode = "grpc" }, true},
		{"bad timezone", func(c *Config) { c.Wordle.Timezone = "Mars/Olympus" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
