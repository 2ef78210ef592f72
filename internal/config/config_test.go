package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoad_AppliesDefaults(t *testing.T) {
	t.Setenv("WORKFORCE_ROOT_ADMIN_PASSWORD", "s3cret-pass")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.HTTPPort != 8080 {
		t.Fatalf("expected default port 8080, got %d", cfg.HTTPPort)
	}
	if cfg.SessionTTL != 12*time.Hour {
		t.Fatalf("expected default session TTL 12h, got %s", cfg.SessionTTL)
	}
	if cfg.LogFormat != "json" {
		t.Fatalf("expected default JSON log format, got %q", cfg.LogFormat)
	}
	if !strings.Contains(cfg.SQLiteDSN, "workforce.db") {
		t.Fatalf("unexpected default DSN %q", cfg.SQLiteDSN)
	}
}

func TestLoad_ReadsOverrides(t *testing.T) {
	t.Setenv("WORKFORCE_ROOT_ADMIN_PASSWORD", "s3cret-pass")
	t.Setenv("WORKFORCE_HTTP_PORT", "9090")
	t.Setenv("WORKFORCE_SESSION_TTL", "30m")
	t.Setenv("WORKFORCE_SQLITE_DSN", "file::memory:?cache=shared")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.HTTPPort != 9090 {
		t.Fatalf("expected port 9090, got %d", cfg.HTTPPort)
	}
	if cfg.SessionTTL != 30*time.Minute {
		t.Fatalf("expected 30m TTL, got %s", cfg.SessionTTL)
	}
	if cfg.SQLiteDSN != "file::memory:?cache=shared" {
		t.Fatalf("unexpected DSN %q", cfg.SQLiteDSN)
	}
}

func TestLoad_RequiresRootAdminPassword(t *testing.T) {
	t.Setenv("WORKFORCE_ROOT_ADMIN_PASSWORD", "")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error for missing root admin password")
	}
}

func TestLoad_RejectsInvalidValues(t *testing.T) {
	t.Setenv("WORKFORCE_ROOT_ADMIN_PASSWORD", "s3cret-pass")
	t.Setenv("WORKFORCE_HTTP_PORT", "70000")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error for out-of-range port")
	}
}
