package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"DATABASE_URL", "PG_DSN", "HTTP_ADDR", "AUTH_JWT_SECRET", "JWT_SECRET", "TIMEZONE", "GYM_NAME"} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HTTPAddr != ":8080" || cfg.TimeZone != DefaultTimeZone || cfg.Location == nil {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if !errors.Is(cfg.RequireDatabase(), ErrMissingDatabaseURL) {
		t.Fatalf("expected missing database error")
	}
	if !errors.Is(cfg.RequireAuth(), ErrMissingJWTSecret) {
		t.Fatalf("expected missing secret error")
	}
}

func TestLoad_FallbackKeys(t *testing.T) {
	clearEnv(t)
	t.Setenv("PG_DSN", "postgres://localhost/sensei")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("TIMEZONE", "UTC")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DatabaseURL != "postgres://localhost/sensei" || cfg.JWTSecret != "s3cret" || cfg.Location.String() != "UTC" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if cfg.RequireDatabase() != nil || cfg.RequireAuth() != nil {
		t.Fatalf("expected requirements to pass")
	}
}

func TestLoad_InvalidTimeZone(t *testing.T) {
	clearEnv(t)
	t.Setenv("TIMEZONE", "Mars/Olympus")
	if _, err := Load(); err == nil {
		t.Fatalf("expected time zone error")
	}
}

func TestLoadDotEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("GYM_NAME=Dojo Central\nHTTP_ADDR=:9090\n"), 0o600); err != nil {
		t.Fatalf("write env: %v", err)
	}
	// An empty value set by t.Setenv still counts as present for godotenv.
	if err := os.Unsetenv("GYM_NAME"); err != nil {
		t.Fatalf("unset: %v", err)
	}
	if err := os.Unsetenv("HTTP_ADDR"); err != nil {
		t.Fatalf("unset: %v", err)
	}
	if err := LoadDotEnv(path, filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Fatalf("load dotenv: %v", err)
	}
	t.Cleanup(func() {
		_ = os.Unsetenv("GYM_NAME")
		_ = os.Unsetenv("HTTP_ADDR")
	})
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.GymName != "Dojo Central" || cfg.HTTPAddr != ":9090" {
		t.Fatalf("dotenv values not applied: %+v", cfg)
	}
}
