package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "test-token")
	t.Setenv("STORE_BACKEND", "")
	t.Setenv("SCAN_INTERVAL", "")
	t.Setenv("DUE_WINDOW", "")
	t.Setenv("TIMEZONE", "UTC")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.StoreBackend != "sqlite" {
		t.Fatalf("default backend: %s", cfg.StoreBackend)
	}
	if cfg.ScanInterval != 30*time.Second {
		t.Fatalf("default scan interval: %s", cfg.ScanInterval)
	}
	if cfg.DueWindow != 45*time.Second {
		t.Fatalf("default due window: %s", cfg.DueWindow)
	}
	if cfg.LedgerRetention != 48*time.Hour {
		t.Fatalf("default retention: %s", cfg.LedgerRetention)
	}
	if cfg.SessionTTL != 15*time.Minute {
		t.Fatalf("default session ttl: %s", cfg.SessionTTL)
	}
}

func TestLoadRejectsMissingToken(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "")
	if _, err := Load(); err == nil {
		t.Fatalf("missing token must fail")
	}
}

func TestLoadRejectsUnknownBackend(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "test-token")
	t.Setenv("STORE_BACKEND", "postgres")
	if _, err := Load(); err == nil {
		t.Fatalf("unknown backend must fail")
	}
}

func TestLoadRejectsBadDuration(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "test-token")
	t.Setenv("STORE_BACKEND", "sqlite")
	t.Setenv("SCAN_INTERVAL", "soon")
	if _, err := Load(); err == nil {
		t.Fatalf("bad duration must fail")
	}
}
