package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DefaultTimeZone is where due dates and "today" are computed.
const DefaultTimeZone = "America/Sao_Paulo"

var (
	ErrMissingDatabaseURL = errors.New("config: DATABASE_URL or PG_DSN is required")
	ErrMissingJWTSecret   = errors.New("config: AUTH_JWT_SECRET is required")
)

// Config is the process configuration read from the environment.
type Config struct {
	DatabaseURL string
	HTTPAddr    string
	JWTSecret   string
	TimeZone    string
	GymName     string
	Location    *time.Location
}

// LoadDotEnv loads KEY=VALUE files into the environment without overriding
// variables already set. Missing files are ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, path := range paths {
		if err := godotenv.Load(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("config: load %s: %w", path, err)
		}
	}
	return nil
}

// Load reads the environment. Only the time zone is validated here; callers
// check the fields they need with RequireDatabase and RequireAuth.
func Load() (Config, error) {
	cfg := Config{
		DatabaseURL: getenvDefault("DATABASE_URL", getenvDefault("PG_DSN", "")),
		HTTPAddr:    getenvDefault("HTTP_ADDR", ":8080"),
		JWTSecret:   getenvDefault("AUTH_JWT_SECRET", getenvDefault("JWT_SECRET", "")),
		TimeZone:    getenvDefault("TIMEZONE", DefaultTimeZone),
		GymName:     strings.TrimSpace(os.Getenv("GYM_NAME")),
	}
	loc, err := time.LoadLocation(cfg.TimeZone)
	if err != nil {
		return cfg, fmt.Errorf("config: TIMEZONE %q: %w", cfg.TimeZone, err)
	}
	cfg.Location = loc
	return cfg, nil
}

// RequireDatabase fails when no DSN is configured.
func (c Config) RequireDatabase() error {
	if c.DatabaseURL == "" {
		return ErrMissingDatabaseURL
	}
	return nil
}

// RequireAuth fails when tokens cannot be signed or verified.
func (c Config) RequireAuth() error {
	if c.JWTSecret == "" {
		return ErrMissingJWTSecret
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
