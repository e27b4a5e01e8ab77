package config

import (
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestNew_Defaults(t *testing.T) {
	for _, name := range []string{EnvPort, EnvLogLevel, EnvHeadless, EnvSaveTimeout, EnvProbeTimeout, EnvBackend, EnvRemoteURL} {
		t.Setenv(name, "")
	}
	t.Setenv(EnvDataDir, "/tmp/framecut-test")

	cfg, err := New()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port() != DefaultPort {
		t.Errorf("Port = %d, want %d", cfg.Port(), DefaultPort)
	}
	if cfg.LogLevel() != "info" {
		t.Errorf("LogLevel = %q, want info", cfg.LogLevel())
	}
	if cfg.Headless() {
		t.Error("Headless should default to false")
	}
	if cfg.SaveTimeout() != time.Hour {
		t.Errorf("SaveTimeout = %v, want 1h", cfg.SaveTimeout())
	}
	if cfg.ProbeTimeout() != 30*time.Second {
		t.Errorf("ProbeTimeout = %v, want 30s", cfg.ProbeTimeout())
	}
	if cfg.Backend() != BackendLocal {
		t.Errorf("Backend = %q, want local", cfg.Backend())
	}
	if cfg.DBPath() != filepath.Join("/tmp/framecut-test", "framecut.db") {
		t.Errorf("DBPath = %q", cfg.DBPath())
	}
	if cfg.SettingsPath() != filepath.Join("/tmp/framecut-test", "settings.toml") {
		t.Errorf("SettingsPath = %q", cfg.SettingsPath())
	}
}

func TestNew_Overrides(t *testing.T) {
	t.Setenv(EnvPort, "9000")
	t.Setenv(EnvHeadless, "true")
	t.Setenv(EnvFFmpegPath, "/opt/ffmpeg/bin/ffmpeg")
	t.Setenv(EnvSaveTimeout, "120")
	t.Setenv(EnvBackend, "REMOTE")
	t.Setenv(EnvRemoteURL, "https://render.example.com/")
	t.Setenv(EnvRemoteToken, "secret")

	cfg, err := New()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port() != 9000 {
		t.Errorf("Port = %d, want 9000", cfg.Port())
	}
	if !cfg.Headless() {
		t.Error("Headless = false, want true")
	}
	if cfg.FFmpegPath() != "/opt/ffmpeg/bin/ffmpeg" {
		t.Errorf("FFmpegPath = %q", cfg.FFmpegPath())
	}
	if cfg.SaveTimeout() != 2*time.Minute {
		t.Errorf("SaveTimeout = %v, want 2m", cfg.SaveTimeout())
	}
	if cfg.Backend() != BackendRemote {
		t.Errorf("Backend = %q, want remote", cfg.Backend())
	}
	if cfg.RemoteURL() != "https://render.example.com" {
		t.Errorf("RemoteURL = %q, trailing slash should be trimmed", cfg.RemoteURL())
	}
	if cfg.RemoteToken() != "secret" {
		t.Errorf("RemoteToken = %q", cfg.RemoteToken())
	}
}

func TestNew_InvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		env   string
		value string
	}{
		{"port not a number", EnvPort, "abc"},
		{"port out of range", EnvPort, "70000"},
		{"headless not a bool", EnvHeadless, "maybe"},
		{"save timeout zero", EnvSaveTimeout, "0"},
		{"probe timeout garbage", EnvProbeTimeout, "30s"},
		{"unknown backend", EnvBackend, "cloud"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.env, tt.value)
			_, err := New()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.env) {
				t.Errorf("error %q should name %s", err, tt.env)
			}
		})
	}
}

func TestNew_RemoteRequiresURL(t *testing.T) {
	t.Setenv(EnvBackend, BackendRemote)
	t.Setenv(EnvRemoteURL, "")

	if _, err := New(); err == nil {
		t.Fatal("expected error when remote backend has no URL")
	}
}
