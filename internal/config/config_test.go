package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("ENV", "")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("GEMINI_MODEL_ID", "")
	cfg := Load()
	if cfg.Port != "8080" {
		t.Fatalf("expected default port, got %s", cfg.Port)
	}
	if cfg.Env != "development" {
		t.Fatalf("expected default env, got %s", cfg.Env)
	}
	if cfg.GeminiModelID != "gemini-2.5-flash" {
		t.Fatalf("expected default gemini model, got %s", cfg.GeminiModelID)
	}
	if cfg.GenMaxRetries != 3 {
		t.Fatalf("expected default retry bound, got %d", cfg.GenMaxRetries)
	}
	if cfg.GenBaseDelay != 2*time.Second {
		t.Fatalf("expected default base delay, got %s", cfg.GenBaseDelay)
	}
	if cfg.OrderDedupWindow != 5*time.Minute {
		t.Fatalf("expected default dedup window, got %s", cfg.OrderDedupWindow)
	}
	if cfg.SessionCapacity != 15 {
		t.Fatalf("expected default session capacity, got %d", cfg.SessionCapacity)
	}
	if !cfg.UseMemoryQueue {
		t.Fatal("expected memory queue enabled by default")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("ENV", "production")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("DATABASE_URL", "postgres://user@host/db")
	t.Setenv("GEN_MAX_RETRIES", "5")
	t.Setenv("GEN_BASE_DELAY", "500ms")
	t.Setenv("GEN_TEMPERATURE", "0.3")
	t.Setenv("ORDER_DEDUP_WINDOW", "10m")
	t.Setenv("USE_MEMORY_QUEUE", "false")
	t.Setenv("USE_REDIS_SESSIONS", "true")
	cfg := Load()
	if cfg.Port != "9090" {
		t.Fatalf("expected override port, got %s", cfg.Port)
	}
	if cfg.DatabaseURL != "postgres://user@host/db" {
		t.Fatalf("expected db override, got %s", cfg.DatabaseURL)
	}
	if cfg.GenMaxRetries != 5 {
		t.Fatalf("expected retry override, got %d", cfg.GenMaxRetries)
	}
	if cfg.GenBaseDelay != 500*time.Millisecond {
		t.Fatalf("expected base delay override, got %s", cfg.GenBaseDelay)
	}
	if cfg.GenTemperature != 0.3 {
		t.Fatalf("expected temperature override, got %f", cfg.GenTemperature)
	}
	if cfg.OrderDedupWindow != 10*time.Minute {
		t.Fatalf("expected dedup window override, got %s", cfg.OrderDedupWindow)
	}
	if cfg.UseMemoryQueue {
		t.Fatal("expected memory queue disabled")
	}
	if !cfg.UseRedisSess {
		t.Fatal("expected redis sessions enabled")
	}
}

func TestInvalidValuesFallBack(t *testing.T) {
	t.Setenv("GEN_MAX_RETRIES", "not-a-number")
	t.Setenv("GEN_BASE_DELAY", "soon")
	t.Setenv("USE_MEMORY_QUEUE", "sometimes")
	cfg := Load()
	if cfg.GenMaxRetries != 3 {
		t.Fatalf("expected fallback retry bound, got %d", cfg.GenMaxRetries)
	}
	if cfg.GenBaseDelay != 2*time.Second {
		t.Fatalf("expected fallback base delay, got %s", cfg.GenBaseDelay)
	}
	if !cfg.UseMemoryQueue {
		t.Fatal("expected fallback memory queue setting")
	}
}
