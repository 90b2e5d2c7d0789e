package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("APP_NAME", "jobboard")
	t.Setenv("APP_ENV", "test")
	t.Setenv("HTTP_PORT", "8080")
	t.Setenv("DB_HOST", "localhost")
	t.Setenv("DB_NAME", "jobboard")
	t.Setenv("DB_USER", "jobboard")
	t.Setenv("JWT_ACCESS_SECRET", "secret")
	t.Setenv("CONFIG_FILE", "")
}

func TestLoad_MissingRequired(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("JWT_ACCESS_SECRET", "")
	t.Setenv("DB_HOST", "")

	_, err := Load()
	if !errors.Is(err, errMissingRequiredEnv) {
		t.Fatalf("expected errMissingRequiredEnv, got %v", err)
	}
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("DB_PORT", "")
	t.Setenv("RABBITMQ_URL", "")
	t.Setenv("APPLICATIONS_DEFAULT_PAGE_SIZE", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if cfg.Database.DBPort != "5432" {
		t.Fatalf("expected default db port, got %q", cfg.Database.DBPort)
	}
	if cfg.Applications.DefaultPageSize != 15 {
		t.Fatalf("expected default page size 15, got %d", cfg.Applications.DefaultPageSize)
	}
	if cfg.RabbitMQ.URL != "" || cfg.RabbitMQ.Exchange != "application_events" {
		t.Fatalf("unexpected rabbitmq config: %+v", cfg.RabbitMQ)
	}
}

func TestLoad_InvalidNumber(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("RATE_LIMIT_BURST", "lots")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error for invalid RATE_LIMIT_BURST")
	}
}

func TestLoad_YAMLOverlay(t *testing.T) {
	setRequiredEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := []byte("applications:\n  max_page_size: 100\n  submit_lock_ttl: 30s\nrate_limit:\n  burst: 3\n")
	if err := os.WriteFile(path, body, 0o600); err != nil {
		t.Fatalf("write overlay: %v", err)
	}
	t.Setenv("CONFIG_FILE", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if cfg.Applications.MaxPageSize != 100 {
		t.Fatalf("expected overlay max page size 100, got %d", cfg.Applications.MaxPageSize)
	}
	if cfg.Applications.SubmitLockTTL != 30*time.Second {
		t.Fatalf("expected overlay lock ttl 30s, got %s", cfg.Applications.SubmitLockTTL)
	}
	if cfg.RateLimit.Burst != 3 {
		t.Fatalf("expected overlay burst 3, got %d", cfg.RateLimit.Burst)
	}
	if cfg.Applications.DefaultPageSize != 15 {
		t.Fatalf("untouched keys must keep env value, got %d", cfg.Applications.DefaultPageSize)
	}
}

func TestOverlay_MissingFileIgnored(t *testing.T) {
	cfg := Config{}
	if err := Overlay(&cfg, filepath.Join(t.TempDir(), "nope.yaml")); err != nil {
		t.Fatalf("expected missing overlay to be ignored, got %v", err)
	}
}
