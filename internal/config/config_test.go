package config

import (
	"testing"
	"time"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Chdir(t.TempDir()) // no .env
	t.Setenv("APP_ENV", "development")
	t.Setenv("AUTH_SECRET", "0123456789abcdef0123456789abcdef")
	for _, key := range []string{"STORAGE_DRIVER", "RATE_LIMIT_REQUESTS", "RATE_LIMIT_WINDOW", "MAX_UPLOAD_SIZE"} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)
	t.Setenv("TRUST_PROXY", "")

	cfg := Load()

	if cfg.TrustProxy {
		t.Fatal("forwarded headers must not be trusted by default")
	}
	if cfg.RateLimitRequests != 100 || cfg.RateLimitWindow != 15*time.Minute {
		t.Fatalf("unexpected rate limit %d per %s", cfg.RateLimitRequests, cfg.RateLimitWindow)
	}
	if cfg.MaxUploadSize != 50<<20 {
		t.Fatalf("unexpected upload cap %d", cfg.MaxUploadSize)
	}
}

func TestLoadTrustProxy(t *testing.T) {
	setRequired(t)
	t.Setenv("TRUST_PROXY", "true")

	if cfg := Load(); !cfg.TrustProxy {
		t.Fatal("expected TRUST_PROXY=true to be honored")
	}
}
