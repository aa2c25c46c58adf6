package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Port != "8080" {
		t.Fatalf("default port: %s", cfg.Port)
	}
	if !cfg.IsDevelopment() {
		t.Fatal("default env should be development")
	}
	if cfg.PresenceTimeout != DefaultPresenceTimeout {
		t.Fatalf("default presence timeout: %s", cfg.PresenceTimeout)
	}
	if cfg.RedisURL == "" {
		t.Fatal("development should get a redis default")
	}
}

func TestPresenceTimeoutOverride(t *testing.T) {
	t.Setenv("PRESENCE_TIMEOUT_MINUTES", "5")

	cfg := Load()
	if cfg.PresenceTimeout != 5*time.Minute {
		t.Fatalf("timeout override ignored: %s", cfg.PresenceTimeout)
	}
}

func TestPresenceTimeoutRejectsGarbage(t *testing.T) {
	for _, v := range []string{"abc", "-3", "0"} {
		t.Setenv("PRESENCE_TIMEOUT_MINUTES", v)
		cfg := Load()
		if cfg.PresenceTimeout != DefaultPresenceTimeout {
			t.Fatalf("garbage %q accepted: %s", v, cfg.PresenceTimeout)
		}
	}
}

func TestRateLimitWhitelist(t *testing.T) {
	t.Setenv("RATE_LIMIT_WHITELIST", "10.0.0.1, 192.168.0.0/16 ,")

	cfg := Load()
	if len(cfg.RateLimitWhitelist) != 2 {
		t.Fatalf("whitelist parse: %v", cfg.RateLimitWhitelist)
	}
	if cfg.RateLimitWhitelist[0] != "10.0.0.1" || cfg.RateLimitWhitelist[1] != "192.168.0.0/16" {
		t.Fatalf("whitelist entries: %v", cfg.RateLimitWhitelist)
	}
}
