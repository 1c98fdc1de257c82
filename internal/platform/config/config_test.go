package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, name := range []string{
		"EVENT_HUB_FEATURE_TOGGLE", "CHAT_API_TOGGLE", "ARCHIVE_COMPRESSION",
		"CALLRECORD_TOPIC", "LEASE_HOURS", "RENEWAL_HOURS", "TOKEN_URL", "TENANT_ID",
		"CONFIG_FILE",
	} {
		t.Setenv(name, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.StreamToggle {
		t.Fatalf("stream toggle must default to archival")
	}
	if cfg.ChatAPIEnabled {
		t.Fatalf("chat api must default to disabled")
	}
	if cfg.CallRecordTopic != "callrecords-topic" {
		t.Fatalf("unexpected default topic %q", cfg.CallRecordTopic)
	}
	if cfg.CallRecordContainer != "callrecords-container" {
		t.Fatalf("unexpected default container %q", cfg.CallRecordContainer)
	}
	if cfg.LeaseWindow != 48*time.Hour {
		t.Fatalf("unexpected default lease %v", cfg.LeaseWindow)
	}
	if cfg.RenewalInterval != 24*time.Hour {
		t.Fatalf("unexpected default renewal interval %v", cfg.RenewalInterval)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("EVENT_HUB_FEATURE_TOGGLE", "true")
	t.Setenv("CHAT_API_TOGGLE", "1")
	t.Setenv("LEASE_HOURS", "24")
	t.Setenv("CALLRECORD_TOPIC", "calls-v2")
	t.Setenv("TOKEN_URL", "")
	t.Setenv("TENANT_ID", "tenant-1")
	t.Setenv("CONFIG_FILE", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if !cfg.StreamToggle {
		t.Fatalf("expected stream toggle enabled")
	}
	if !cfg.ChatAPIEnabled {
		t.Fatalf("expected chat api enabled")
	}
	if cfg.LeaseWindow != 24*time.Hour {
		t.Fatalf("expected 24h lease, got %v", cfg.LeaseWindow)
	}
	if cfg.CallRecordTopic != "calls-v2" {
		t.Fatalf("expected topic override, got %q", cfg.CallRecordTopic)
	}
	if cfg.TokenURL != "https://login.microsoftonline.com/tenant-1/oauth2/v2.0/token" {
		t.Fatalf("expected token url derived from tenant, got %q", cfg.TokenURL)
	}
}

func TestLoadWithFileOverlay(t *testing.T) {
	t.Setenv("EVENT_HUB_FEATURE_TOGGLE", "")
	t.Setenv("HTTP_PORT", "8080")
	t.Setenv("SERVICE_NAME", "")

	path := filepath.Join(t.TempDir(), "config.yaml")
	overlay := "http_port: \"9999\"\nstream_toggle: true\nlease_hours: 12\n"
	if err := os.WriteFile(path, []byte(overlay), 0o600); err != nil {
		t.Fatalf("write overlay failed: %v", err)
	}

	cfg, err := LoadWithFile(path)
	if err != nil {
		t.Fatalf("load with file failed: %v", err)
	}
	if cfg.HTTPPort != "9999" {
		t.Fatalf("expected file to override port, got %q", cfg.HTTPPort)
	}
	if !cfg.StreamToggle {
		t.Fatalf("expected file to enable stream toggle")
	}
	if cfg.LeaseWindow != 12*time.Hour {
		t.Fatalf("expected 12h lease from file, got %v", cfg.LeaseWindow)
	}
	if cfg.ServiceName != "graphrelay" {
		t.Fatalf("fields absent from the file must keep env values, got %q", cfg.ServiceName)
	}

	if _, err := LoadWithFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing config file")
	}
}
