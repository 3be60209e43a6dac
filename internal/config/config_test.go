package config

import (
	"testing"
	"time"
)

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("SEAMFLOW_API_ADDR", ":9999")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("MINIO_USE_SSL", "true")
	t.Setenv("RATE_LIMIT_WINDOW", "30s")
	t.Setenv("OTEL_TRACES_SAMPLE_RATIO", "0.25")
	t.Setenv("CARVE_MAX_SEAMS", "12")
	t.Setenv("CARVE_MAX_SOURCE_BYTES", "1048576")

	cfg := Load()
	if cfg.API.Addr != ":9999" {
		t.Fatalf("expected api addr :9999, got %s", cfg.API.Addr)
	}
	if cfg.Queue.RedisDB != 3 {
		t.Fatalf("expected redis db 3, got %d", cfg.Queue.RedisDB)
	}
	if !cfg.Storage.UseSSL {
		t.Fatal("expected minio ssl enabled")
	}
	if cfg.RateLimit.Window != 30*time.Second {
		t.Fatalf("expected 30s window, got %s", cfg.RateLimit.Window)
	}
	if cfg.Telemetry.SampleRatio != 0.25 {
		t.Fatalf("expected sample ratio 0.25, got %v", cfg.Telemetry.SampleRatio)
	}
	if cfg.Carve.MaxSeams != 12 {
		t.Fatalf("expected max seams 12, got %d", cfg.Carve.MaxSeams)
	}
	if cfg.Carve.MaxSourceBytes != 1<<20 {
		t.Fatalf("expected max source bytes 1MiB, got %d", cfg.Carve.MaxSourceBytes)
	}
}

func TestLoadFallsBackOnBadValues(t *testing.T) {
	t.Setenv("REDIS_DB", "three")
	t.Setenv("RATE_LIMIT_WINDOW", "soon")
	t.Setenv("MINIO_USE_SSL", "maybe")

	cfg := Load()
	if cfg.Queue.RedisDB != 0 {
		t.Fatalf("expected fallback redis db 0, got %d", cfg.Queue.RedisDB)
	}
	if cfg.RateLimit.Window != time.Minute {
		t.Fatalf("expected fallback window 1m, got %s", cfg.RateLimit.Window)
	}
	if cfg.Storage.UseSSL {
		t.Fatal("expected fallback ssl=false")
	}
	if opts := cfg.Queue.RedisOptions(); opts.Addr != cfg.Queue.RedisAddr {
		t.Fatalf("expected redis options to follow queue addr, got %s", opts.Addr)
	}
}

func TestLoadCarveDefaultsFitTaskTimeout(t *testing.T) {
	cfg := Load()
	if cfg.Carve.MaxSourcePixels != 4_000_000 {
		t.Fatalf("expected 4MP source limit, got %d", cfg.Carve.MaxSourcePixels)
	}
	if cfg.Carve.MaxSeams != 1024 {
		t.Fatalf("expected 1024 seam limit, got %d", cfg.Carve.MaxSeams)
	}
}
