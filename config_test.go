package inkwell

import (
	"errors"
	"testing"
	"time"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name      string
		cfg       Config
		wantField string
	}{
		{
			name:      "missing local path",
			cfg:       Config{},
			wantField: "LocalPath",
		},
		{
			name:      "server without api key",
			cfg:       Config{LocalPath: "/tmp/notes.db", ServerURL: "https://example.com"},
			wantField: "APIKey",
		},
		{
			name:      "negative probe interval",
			cfg:       Config{LocalPath: "/tmp/notes.db", ProbeInterval: -time.Second},
			wantField: "ProbeInterval",
		},
		{
			name: "valid offline",
			cfg:  Config{LocalPath: "/tmp/notes.db"},
		},
		{
			name: "valid online",
			cfg:  Config{LocalPath: "/tmp/notes.db", ServerURL: "https://example.com", APIKey: "k"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantField == "" {
				if err != nil {
					t.Errorf("Validate: %v", err)
				}
				return
			}
			var vErr *ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("expected *ValidationError, got %T: %v", err, err)
			}
			if vErr.Field != tt.wantField {
				t.Errorf("Field = %q, want %q", vErr.Field, tt.wantField)
			}
		})
	}
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("INKWELL_DB_PATH", "/tmp/env.db")
	t.Setenv("INKWELL_SERVER_URL", "https://notes.example.com")
	t.Setenv("INKWELL_API_KEY", "secret")
	t.Setenv("INKWELL_SOURCE_ID", "workstation")
	t.Setenv("INKWELL_PROBE_INTERVAL", "30s")
	t.Setenv("INKWELL_DEBUG", "1")

	cfg := ConfigFromEnv()
	if cfg.LocalPath != "/tmp/env.db" {
		t.Errorf("LocalPath = %q", cfg.LocalPath)
	}
	if cfg.ServerURL != "https://notes.example.com" {
		t.Errorf("ServerURL = %q", cfg.ServerURL)
	}
	if cfg.APIKey != "secret" {
		t.Errorf("APIKey = %q", cfg.APIKey)
	}
	if cfg.SourceID != "workstation" {
		t.Errorf("SourceID = %q", cfg.SourceID)
	}
	if cfg.ProbeInterval != 30*time.Second {
		t.Errorf("ProbeInterval = %v", cfg.ProbeInterval)
	}
	if !cfg.Debug {
		t.Error("Debug not enabled")
	}
	if !cfg.AutoSync {
		t.Error("AutoSync should default to true")
	}
}

func TestConfigFromEnvAutoSyncToggle(t *testing.T) {
	t.Setenv("INKWELL_AUTO_SYNC", "false")
	if ConfigFromEnv().AutoSync {
		t.Error("INKWELL_AUTO_SYNC=false should disable auto sync")
	}

	t.Setenv("INKWELL_AUTO_SYNC", "1")
	if !ConfigFromEnv().AutoSync {
		t.Error("INKWELL_AUTO_SYNC=1 should enable auto sync")
	}

	// Unparsable values keep the default.
	t.Setenv("INKWELL_AUTO_SYNC", "maybe")
	if !ConfigFromEnv().AutoSync {
		t.Error("unparsable INKWELL_AUTO_SYNC should keep the default")
	}
}

func TestConfigWithDefaults(t *testing.T) {
	cfg := Config{}.WithDefaults()
	if cfg.LocalPath == "" {
		t.Error("LocalPath not defaulted")
	}
	if cfg.ProbeInterval != 15*time.Second {
		t.Errorf("ProbeInterval = %v", cfg.ProbeInterval)
	}
	if cfg.SourceID == "" {
		t.Error("SourceID not defaulted")
	}

	// Explicit values are left alone.
	cfg = Config{LocalPath: "/custom.db", ProbeInterval: time.Minute, SourceID: "me"}.WithDefaults()
	if cfg.LocalPath != "/custom.db" || cfg.ProbeInterval != time.Minute || cfg.SourceID != "me" {
		t.Errorf("defaults overwrote explicit values: %+v", cfg)
	}
}

func TestConfigIsOffline(t *testing.T) {
	cfg := Config{LocalPath: "/tmp/notes.db"}
	if !cfg.IsOffline() {
		t.Error("empty ServerURL should mean offline")
	}
	cfg.ServerURL = "https://example.com"
	if cfg.IsOffline() {
		t.Error("set ServerURL should mean online")
	}
}
