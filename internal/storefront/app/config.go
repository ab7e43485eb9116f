package app

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/aussiebroadwan/storefront/pkg/httpx"
	"gopkg.in/yaml.v3"
)

type Config struct {
	APIURL      string        `yaml:"api_url"`      // Storefront API base URL (default: http://localhost:3000/api)
	TokenDB     string        `yaml:"token_db"`     // SQLite file holding the credential; empty keeps it in memory (default: storefront.db)
	TokenSlot   string        `yaml:"token_slot"`   // Slot the credential is stored under (default: token)
	TokenSecret string        `yaml:"token_secret"` // Optional: seals the stored credential
	Timeout     time.Duration `yaml:"timeout"`      // Per-request timeout (default: 10s)
	RefreshSkew time.Duration `yaml:"refresh_skew"` // Renew a JWT this long before it expires; negative disables (default: 30s)
	PageSize    int           `yaml:"page_size"`    // Catalog page size (default: 10)

	Env       string `yaml:"env"`        // Environment (dev, staging, prod) (default: dev)
	LogLevel  string `yaml:"log_level"`  // Log level (debug, info, warn, error) (default: warn)
	LogFormat string `yaml:"log_format"` // Log format (json, text) (default: text)

	FakeAPIAddr         string        `yaml:"fake_api_addr"`         // Listen address of `storefront fake-api` (default: :3000)
	ShutdownGracePeriod time.Duration `yaml:"shutdown_grace_period"` // Graceful shutdown timeout (default: 10s)

	RateLimit httpx.RateLimitConfig `yaml:"-"`
}

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() Config {
	return Config{
		APIURL:              "http://localhost:3000/api",
		TokenDB:             "storefront.db",
		TokenSlot:           "token",
		Timeout:             10 * time.Second,
		RefreshSkew:         30 * time.Second,
		PageSize:            10,
		Env:                 "dev",
		LogLevel:            "warn",
		LogFormat:           "text",
		FakeAPIAddr:         ":3000",
		ShutdownGracePeriod: 10 * time.Second,
		RateLimit:           httpx.APILimit,
	}
}

// LoadConfig starts from DefaultConfig, applies the YAML file named by
// STOREFRONT_CONFIG when set, and then the environment on top.
func LoadConfig() (Config, error) {
	cfg := DefaultConfig()

	if path := os.Getenv("STOREFRONT_CONFIG"); path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	cfg.APIURL = getEnvOrDefault("STOREFRONT_API_URL", cfg.APIURL)
	cfg.TokenDB = getEnvOrDefault("STOREFRONT_TOKEN_DB", cfg.TokenDB)
	cfg.TokenSlot = getEnvOrDefault("STOREFRONT_TOKEN_KEY", cfg.TokenSlot)
	cfg.TokenSecret = getEnvOrDefault("STOREFRONT_TOKEN_SECRET", cfg.TokenSecret)
	cfg.Timeout = getEnvDurationOrDefault("STOREFRONT_TIMEOUT", cfg.Timeout)
	cfg.RefreshSkew = getEnvDurationOrDefault("STOREFRONT_REFRESH_SKEW", cfg.RefreshSkew)
	cfg.PageSize = getEnvIntOrDefault("STOREFRONT_PAGE_SIZE", cfg.PageSize)
	cfg.Env = getEnvOrDefault("ENV", cfg.Env)
	cfg.LogLevel = getEnvOrDefault("LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = getEnvOrDefault("LOG_FORMAT", cfg.LogFormat)
	cfg.FakeAPIAddr = getEnvOrDefault("STOREFRONT_FAKE_API_ADDR", cfg.FakeAPIAddr)
	cfg.ShutdownGracePeriod = getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", cfg.ShutdownGracePeriod)
	cfg.RateLimit = httpx.ParseRateLimitFromEnv("API", cfg.RateLimit)

	if cfg.PageSize < 1 {
		cfg.PageSize = 10
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Try parsing as duration (e.g., "1h", "30m", "90s")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Bare integers are seconds
	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second
	}

	return defaultValue
}
