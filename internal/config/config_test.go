package config

import (
	"testing"
	"time"
)

func TestParseDefaults(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("STORE_DRIVER", "sqlite")
	cfg, err := parseFrom(map[string]string{})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Port != "5175" || cfg.StoreDriver != StoreMemory {
		t.Errorf("defaults = %+v", cfg)
	}
	if cfg.SessionTTL != 2*time.Hour {
		t.Errorf("SessionTTL = %v, want 2h", cfg.SessionTTL)
	}
	if cfg.RevealCorrect != 350*time.Millisecond || cfg.RevealExhausted != 500*time.Millisecond {
		t.Errorf("reveal delays = %v/%v", cfg.RevealCorrect, cfg.RevealExhausted)
	}
}

func TestParseOverrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("STORE_DRIVER", "sqlite")
	t.Setenv("SESSION_TTL", "15m")
	t.Setenv("GUESS_SEED", "demo")
	cfg, err := Parse()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Port != "9000" || cfg.StoreDriver != StoreSQLite || cfg.SessionTTL != 15*time.Minute || cfg.Seed != "demo" {
		t.Errorf("overrides not applied: %+v", cfg)
	}
}

func TestParseRejectsBadValues(t *testing.T) {
	tests := map[string]string{
		"STORE_DRIVER":     "redis",
		"SESSION_TTL":      "0s",
		"RATE_LIMIT_RPS":   "0",
		"RATE_LIMIT_BURST": "nope",
	}
	for k, v := range tests {
		t.Run(k, func(t *testing.T) {
			t.Setenv(k, v)
			if _, err := Parse(); err == nil {
				t.Fatalf("%s=%s: expected error", k, v)
			}
		})
	}
}
