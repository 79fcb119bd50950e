// Package common provides shared utilities for corebank
package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/shopspring/decimal"
)

// Config holds all configuration for corebank
type Config struct {
	Environment string         `toml:"environment"`
	Server      ServerConfig   `toml:"server"`
	Storage     StorageConfig  `toml:"storage"`
	Auth        AuthConfig     `toml:"auth"`
	Logging     LoggingConfig  `toml:"logging"`
	NEFT        NEFTConfig     `toml:"neft"`
	RTGS        RTGSConfig     `toml:"rtgs"`
	Accounts    AccountsConfig `toml:"accounts"`
	External    ExternalConfig `toml:"external"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// StorageConfig holds database configuration.
type StorageConfig struct {
	Path string `toml:"path"`
}

// AuthConfig holds JWT session configuration.
type AuthConfig struct {
	JWTSecret   string `toml:"jwt_secret"`
	TokenExpiry string `toml:"token_expiry"` // duration string, default "24h"
}

// GetTokenExpiry parses and returns the token expiry duration.
func (c *AuthConfig) GetTokenExpiry() time.Duration {
	d, err := time.ParseDuration(c.TokenExpiry)
	if err != nil {
		return 24 * time.Hour
	}
	return d
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// TariffBand is one row of a charge table: amounts up to and including
// UpTo pay Charge. An empty UpTo marks the open-ended top band.
type TariffBand struct {
	UpTo   string `toml:"up_to"`
	Charge string `toml:"charge"`
}

// NEFTConfig holds the deferred-settlement engine configuration.
// Batches run at the top of every hour from WindowStartHour to
// WindowEndHour inclusive, local time.
type NEFTConfig struct {
	WindowStartHour int          `toml:"window_start_hour"`
	WindowEndHour   int          `toml:"window_end_hour"`
	SettlementDelay string       `toml:"settlement_delay"` // estimated completion offset from batch time
	Tariff          []TariffBand `toml:"tariff"`
}

// GetSettlementDelay parses the estimated settlement delay, default 30m.
func (c *NEFTConfig) GetSettlementDelay() time.Duration {
	d, err := time.ParseDuration(c.SettlementDelay)
	if err != nil {
		return 30 * time.Minute
	}
	return d
}

// RTGSConfig holds the real-time settlement engine configuration.
// The window applies Monday through Friday.
type RTGSConfig struct {
	WindowStart   string       `toml:"window_start"` // "09:00"
	WindowEnd     string       `toml:"window_end"`   // "16:30"
	MinimumAmount string       `toml:"minimum_amount"`
	Tariff        []TariffBand `toml:"tariff"`
}

// GetMinimumAmount parses the RTGS amount floor.
func (c *RTGSConfig) GetMinimumAmount() decimal.Decimal {
	d, err := decimal.NewFromString(c.MinimumAmount)
	if err != nil {
		return decimal.NewFromInt(200000)
	}
	return d
}

// AccountsConfig holds per-account-type rules.
type AccountsConfig struct {
	DefaultCurrency string            `toml:"default_currency"`
	MinimumBalances map[string]string `toml:"minimum_balances"` // account type -> minimum balance
}

// MinimumBalanceFor returns the configured minimum balance for an
// account type, or zero when none is configured.
func (c *AccountsConfig) MinimumBalanceFor(accountType string) decimal.Decimal {
	if v, ok := c.MinimumBalances[accountType]; ok {
		if d, err := decimal.NewFromString(v); err == nil {
			return d
		}
	}
	return decimal.Zero
}

// ExternalConfig holds settings for the external settlement adapter.
type ExternalConfig struct {
	FailureRate float64 `toml:"failure_rate"` // simulator only; probability of a failed leg
	Timeout     string  `toml:"timeout"`
}

// GetTimeout parses and returns the external call timeout
func (c *ExternalConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 10 * time.Second
	}
	return d
}

// NewDefaultConfig returns a Config with sensible defaults
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Storage: StorageConfig{
			Path: "data/corebank.db",
		},
		Auth: AuthConfig{
			JWTSecret:   "dev-jwt-secret-change-in-production",
			TokenExpiry: "24h",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		NEFT: NEFTConfig{
			WindowStartHour: 8,
			WindowEndHour:   19,
			SettlementDelay: "30m",
			Tariff: []TariffBand{
				{UpTo: "10000", Charge: "2.50"},
				{UpTo: "100000", Charge: "5.00"},
				{UpTo: "200000", Charge: "15.00"},
				{UpTo: "", Charge: "25.00"},
			},
		},
		RTGS: RTGSConfig{
			WindowStart:   "09:00",
			WindowEnd:     "16:30",
			MinimumAmount: "200000",
			Tariff: []TariffBand{
				{UpTo: "500000", Charge: "30.00"},
				{UpTo: "", Charge: "55.00"},
			},
		},
		Accounts: AccountsConfig{
			DefaultCurrency: "INR",
			MinimumBalances: map[string]string{
				"SAVINGS": "1000",
				"CURRENT": "5000",
			},
		},
		External: ExternalConfig{
			FailureRate: 0.05,
			Timeout:     "10s",
		},
	}
}

// LoadConfig loads configuration from files with environment overrides
func LoadConfig(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	// Load and merge each config file in order (later files override earlier)
	for _, path := range paths {
		if path == "" {
			continue
		}

		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue // Skip missing files
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)

	if err := validateConfig(config); err != nil {
		return nil, err
	}

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("COREBANK_ENV"); env != "" {
		config.Environment = env
	}

	if host := os.Getenv("COREBANK_HOST"); host != "" {
		config.Server.Host = host
	}

	if port := os.Getenv("COREBANK_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}

	if path := os.Getenv("COREBANK_DB_PATH"); path != "" {
		config.Storage.Path = path
	}

	if level := os.Getenv("COREBANK_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}

	if v := os.Getenv("COREBANK_JWT_SECRET"); v != "" {
		config.Auth.JWTSecret = v
	}
	if v := os.Getenv("COREBANK_TOKEN_EXPIRY"); v != "" {
		config.Auth.TokenExpiry = v
	}

	if v := os.Getenv("COREBANK_EXTERNAL_FAILURE_RATE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f >= 0 && f <= 1 {
			config.External.FailureRate = f
		}
	}
}

// validateConfig rejects window configurations the engines cannot run with.
func validateConfig(config *Config) error {
	n := config.NEFT
	if n.WindowStartHour < 0 || n.WindowEndHour > 23 || n.WindowStartHour > n.WindowEndHour {
		return fmt.Errorf("invalid NEFT window: %d-%d", n.WindowStartHour, n.WindowEndHour)
	}
	if _, err := parseClockTime(config.RTGS.WindowStart); err != nil {
		return fmt.Errorf("invalid RTGS window start %q: %w", config.RTGS.WindowStart, err)
	}
	if _, err := parseClockTime(config.RTGS.WindowEnd); err != nil {
		return fmt.Errorf("invalid RTGS window end %q: %w", config.RTGS.WindowEnd, err)
	}
	for _, band := range append(append([]TariffBand{}, n.Tariff...), config.RTGS.Tariff...) {
		if _, err := decimal.NewFromString(band.Charge); err != nil {
			return fmt.Errorf("invalid tariff charge %q: %w", band.Charge, err)
		}
		if band.UpTo != "" {
			if _, err := decimal.NewFromString(band.UpTo); err != nil {
				return fmt.Errorf("invalid tariff band %q: %w", band.UpTo, err)
			}
		}
	}
	return nil
}

// parseClockTime parses an "HH:MM" string into minutes since midnight.
func parseClockTime(s string) (int, error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("expected HH:MM")
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("invalid hour")
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid minute")
	}
	return h*60 + m, nil
}

// MinutesOfDay exposes parseClockTime for window checks in the engines.
func MinutesOfDay(s string) (int, error) {
	return parseClockTime(s)
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}
