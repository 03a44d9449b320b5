package application

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	billing "sensei-backoffice/internal/billing/domain"
	"sensei-backoffice/internal/messaging/evolution"
)

// DefaultSendDelay paces batch sends.
const DefaultSendDelay = 1500 * time.Millisecond

// GatewayConfig points at the WhatsApp gateway.
type GatewayConfig struct {
	BaseURL     string `yaml:"base_url"`
	APIKey      string `yaml:"api_key"`
	Instance    string `yaml:"instance"`
	CountryCode string `yaml:"country_code"`
}

// Configured reports whether messages can be sent.
func (g GatewayConfig) Configured() bool {
	return g.BaseURL != "" && g.APIKey != ""
}

// MessagesConfig holds text/template overrides for outbound messages.
type MessagesConfig struct {
	Preventive string `yaml:"preventive"`
	Overdue    string `yaml:"overdue"`
	Reminder   string `yaml:"reminder"`
}

// ReminderConfig schedules the due-day reminder run.
type ReminderConfig struct {
	DailyAt string `yaml:"daily_at"`
	DryRun  bool   `yaml:"dry_run"`
}

// Config defines billing automation settings.
type Config struct {
	Gateway        GatewayConfig  `yaml:"gateway"`
	SendDelay      time.Duration  `yaml:"send_delay"`
	LookbackMonths int            `yaml:"lookback_months"`
	GymName        string         `yaml:"gym_name"`
	Messages       MessagesConfig `yaml:"messages"`
	Reminder       ReminderConfig `yaml:"reminder"`
}

// LoadConfig loads config from env, then the yaml file named by
// BILLING_CONFIG, then fills blanks from env again.
func LoadConfig() (Config, error) {
	cfg := Config{
		Gateway: GatewayConfig{
			BaseURL:     os.Getenv("EVOLUTION_API_URL"),
			APIKey:      os.Getenv("EVOLUTION_API_KEY"),
			Instance:    getenvDefault("EVOLUTION_INSTANCE", evolution.DefaultInstance),
			CountryCode: getenvDefault("BILLING_COUNTRY_CODE", evolution.DefaultCountryCode),
		},
		SendDelay:      getenvDurationDefault("BILLING_SEND_DELAY", DefaultSendDelay),
		LookbackMonths: getenvIntDefault("BILLING_LOOKBACK_MONTHS", 0),
		GymName:        os.Getenv("GYM_NAME"),
	}

	if path := os.Getenv("BILLING_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, err
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, err
		}
	}

	if cfg.Gateway.BaseURL == "" {
		cfg.Gateway.BaseURL = os.Getenv("EVOLUTION_API_URL")
	}
	if cfg.Gateway.APIKey == "" {
		cfg.Gateway.APIKey = os.Getenv("EVOLUTION_API_KEY")
	}
	if cfg.Gateway.Instance == "" {
		cfg.Gateway.Instance = evolution.DefaultInstance
	}
	if cfg.Gateway.CountryCode == "" {
		cfg.Gateway.CountryCode = evolution.DefaultCountryCode
	}
	if cfg.Reminder.DailyAt == "" {
		cfg.Reminder.DailyAt = os.Getenv("BILLING_DAILY_AT")
	}
	return cfg, cfg.Validate()
}

// Validate checks values that cannot be defaulted.
func (c Config) Validate() error {
	if c.SendDelay < 0 {
		return fmt.Errorf("%w: send_delay must not be negative", billing.ErrInvalidConfig)
	}
	if c.LookbackMonths < 0 {
		return fmt.Errorf("%w: lookback_months must not be negative", billing.ErrInvalidConfig)
	}
	if c.Reminder.DailyAt != "" {
		if _, err := time.Parse("15:04", c.Reminder.DailyAt); err != nil {
			return fmt.Errorf("%w: reminder.daily_at %q must be HH:MM", billing.ErrInvalidConfig, c.Reminder.DailyAt)
		}
	}
	return nil
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvIntDefault(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvDurationDefault(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}
