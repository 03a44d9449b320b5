package application

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	billing "sensei-backoffice/internal/billing/domain"
	"sensei-backoffice/internal/messaging/evolution"
)

func clearBillingEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"EVOLUTION_API_URL", "EVOLUTION_API_KEY", "EVOLUTION_INSTANCE", "BILLING_COUNTRY_CODE",
		"BILLING_SEND_DELAY", "BILLING_LOOKBACK_MONTHS", "GYM_NAME", "BILLING_DAILY_AT", "BILLING_CONFIG",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	clearBillingEnv(t)
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Gateway.Configured() {
		t.Fatalf("gateway should not be configured: %+v", cfg.Gateway)
	}
	if cfg.Gateway.Instance != evolution.DefaultInstance || cfg.Gateway.CountryCode != "55" {
		t.Fatalf("unexpected gateway defaults: %+v", cfg.Gateway)
	}
	if cfg.SendDelay != DefaultSendDelay || cfg.LookbackMonths != 0 || cfg.Reminder.DailyAt != "" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestLoadConfig_EnvAndFile(t *testing.T) {
	clearBillingEnv(t)
	t.Setenv("EVOLUTION_API_URL", "http://evolution:8080")
	t.Setenv("EVOLUTION_API_KEY", "secret")
	t.Setenv("BILLING_SEND_DELAY", "2s")

	path := filepath.Join(t.TempDir(), "billing.yaml")
	body := []byte(`
gateway:
  instance: dojo
lookback_months: 2
gym_name: Dojo Central
messages:
  overdue: "{{.Name}} deve {{.Value}}"
reminder:
  daily_at: "09:30"
  dry_run: true
`)
	if err := os.WriteFile(path, body, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("BILLING_CONFIG", path)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if !cfg.Gateway.Configured() || cfg.Gateway.Instance != "dojo" {
		t.Fatalf("unexpected gateway: %+v", cfg.Gateway)
	}
	if cfg.SendDelay != 2*time.Second || cfg.LookbackMonths != 2 || cfg.GymName != "Dojo Central" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if cfg.Messages.Overdue == "" || cfg.Reminder.DailyAt != "09:30" || !cfg.Reminder.DryRun {
		t.Fatalf("unexpected file values: %+v", cfg)
	}
}

func TestLoadConfig_InvalidDailyAt(t *testing.T) {
	clearBillingEnv(t)
	t.Setenv("BILLING_DAILY_AT", "9h")
	if _, err := LoadConfig(); !errors.Is(err, billing.ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
}
