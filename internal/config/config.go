package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config holds the application configuration.
type Config struct {
	ServerPort       int      `toml:"port"`
	DatabasePath     string   `toml:"database_path"`
	SecretKeyBase    string   `toml:"secret_key_base"` // Signs remember_token cookies
	Env              string   `toml:"env"`
	LogLevel         string   `toml:"log_level"`
	AllowedOrigins   []string `toml:"allowed_origins"`
	SignInRate       float64  `toml:"signin_rate"` // Sign-in attempts per second per client
	SignInBurst      int      `toml:"signin_burst"`
	SessionTTL       string   `toml:"session_ttl"`
	SessionSweepCron string   `toml:"session_sweep_cron"`
}

// Default returns the configuration used when nothing else is set.
func Default() Config {
	return Config{
		ServerPort:       8080,
		DatabasePath:     "./sample_app.db",
		Env:              "development",
		LogLevel:         "info",
		AllowedOrigins:   []string{"http://localhost:3000"},
		SignInRate:       1,
		SignInBurst:      5,
		SessionTTL:       "336h",
		SessionSweepCron: "@hourly",
	}
}

// Load builds the configuration from defaults, an optional TOML file and
// environment variables, in that order of precedence (env wins).
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		file, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		if err := toml.NewDecoder(file).Decode(&cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv() error {
	if portStr, ok := os.LookupEnv("PORT"); ok {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return fmt.Errorf("invalid PORT: %w", err)
		}
		c.ServerPort = port
	}
	if rateStr, ok := os.LookupEnv("SIGNIN_RATE"); ok {
		rate, err := strconv.ParseFloat(rateStr, 64)
		if err != nil {
			return fmt.Errorf("invalid SIGNIN_RATE: %w", err)
		}
		c.SignInRate = rate
	}
	if burstStr, ok := os.LookupEnv("SIGNIN_BURST"); ok {
		burst, err := strconv.Atoi(burstStr)
		if err != nil {
			return fmt.Errorf("invalid SIGNIN_BURST: %w", err)
		}
		c.SignInBurst = burst
	}
	if origins, ok := os.LookupEnv("ALLOWED_ORIGINS"); ok {
		c.AllowedOrigins = splitList(origins)
	}

	c.DatabasePath = getEnv("DATABASE_PATH", c.DatabasePath)
	c.SecretKeyBase = getEnv("SECRET_KEY_BASE", c.SecretKeyBase)
	c.Env = getEnv("APP_ENV", c.Env)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.SessionTTL = getEnv("SESSION_TTL", c.SessionTTL)
	c.SessionSweepCron = getEnv("SESSION_SWEEP_CRON", c.SessionSweepCron)
	return nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.ServerPort <= 0 || c.ServerPort > 65535 {
		return fmt.Errorf("port %d out of range", c.ServerPort)
	}
	if c.DatabasePath == "" {
		return errors.New("database path is required")
	}
	if c.SecretKeyBase == "" {
		if c.IsProduction() {
			return errors.New("SECRET_KEY_BASE is required in production")
		}
		c.SecretKeyBase = "development-secret-key-base"
	}
	if c.SignInRate <= 0 || c.SignInBurst <= 0 {
		return errors.New("sign-in rate and burst must be positive")
	}
	if _, err := c.SessionLifetime(); err != nil {
		return err
	}
	return nil
}

// SessionLifetime parses SessionTTL.
func (c *Config) SessionLifetime() (time.Duration, error) {
	ttl, err := time.ParseDuration(c.SessionTTL)
	if err != nil {
		return 0, fmt.Errorf("invalid session ttl %q: %w", c.SessionTTL, err)
	}
	if ttl <= 0 {
		return 0, fmt.Errorf("session ttl must be positive, got %s", ttl)
	}
	return ttl, nil
}

// IsProduction reports whether the app runs with production settings.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Helper to get an environment variable with a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
