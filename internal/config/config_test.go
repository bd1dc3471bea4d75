package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()
	if cfg.Port != "8080" {
		t.Fatalf("port = %q", cfg.Port)
	}
	if cfg.SQLiteDBPath != "./data/loopledger.db" {
		t.Fatalf("db path = %q", cfg.SQLiteDBPath)
	}
	if cfg.AuthBaseURL != "" || cfg.PlacesAPIKey != "" {
		t.Fatalf("collaborators should default unconfigured")
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults invalid: %v", err)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("AUTH_BASE_URL", "https://auth.example.test")
	t.Setenv("AUTH_API_KEY", "anon")
	t.Setenv("SUMMARY_CACHE_TTL", "30s")

	cfg := Load()
	if cfg.Port != "9090" {
		t.Fatalf("port = %q", cfg.Port)
	}
	if cfg.AuthBaseURL != "https://auth.example.test" || cfg.AuthAPIKey != "anon" {
		t.Fatalf("auth config = %q, %q", cfg.AuthBaseURL, cfg.AuthAPIKey)
	}
	if cfg.SummaryCacheTTL != 30*time.Second {
		t.Fatalf("ttl = %v", cfg.SummaryCacheTTL)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestValidateAggregatesProblems(t *testing.T) {
	cfg := &Config{
		Port:           "not-a-port",
		SQLiteDBPath:   "",
		AuthBaseURL:    "ftp://auth",
		ToastRetention: time.Minute,
	}
	err := cfg.Validate()
	if err == nil {
		t.Fatalf("expected error")
	}
	msg := err.Error()
	for _, want := range []string{"invalid port", "database path", "auth base URL", "auth API key"} {
		if !strings.Contains(msg, want) {
			t.Fatalf("error missing %q: %s", want, msg)
		}
	}
}

func TestValidatePortRange(t *testing.T) {
	cfg := Load()
	cfg.Port = "70000"
	if err := cfg.Validate(); err == nil {
		t.Fatalf("port 70000 accepted")
	}
}

func TestValidateBadDurationFallsBack(t *testing.T) {
	t.Setenv("TOAST_RETENTION", "bogus")
	cfg := Load()
	if cfg.ToastRetention != time.Minute {
		t.Fatalf("retention = %v", cfg.ToastRetention)
	}
}
