// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	DataDir     string // Base directory for the SQLite database and sector files (always absolute)
	DatabaseURL string // postgres:// URL or SQLite path
	LogLevel    string
	Port        int
	DevMode     bool

	TaxRate           float64
	MarketRiskPremium float64
	RiskFreeRatePct   *float64 // Overrides the stored policy rate when set

	AnalysisSchedule string // cron spec for the valuation worker
	SectorsFile      string // Optional YAML sector map
	DefaultProfile   string
	MaxSlowRun       time.Duration
	KeepRuns         int // Stored analysis runs to retain; 0 keeps all
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	dataDir := getEnv("VALUATION_DATA_DIR", "./data")

	// Always resolve to absolute path
	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}

	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:           absDataDir,
		DatabaseURL:       getEnv("DATABASE_URL", filepath.Join(absDataDir, "valuation.db")),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		Port:              getEnvAsInt("GO_PORT", 8001),
		DevMode:           getEnvAsBool("DEV_MODE", false),
		TaxRate:           getEnvAsFloat("TAX_RATE", 0.34),
		MarketRiskPremium: getEnvAsFloat("MARKET_RISK_PREMIUM", 0.06),
		RiskFreeRatePct:   getEnvAsOptionalFloat("RISK_FREE_RATE_PCT"),
		AnalysisSchedule:  getEnv("ANALYSIS_SCHEDULE", "@every 6h"),
		SectorsFile:       getEnv("SECTORS_FILE", ""),
		DefaultProfile:    strings.ToLower(getEnv("DEFAULT_PROFILE", "moderate")),
		MaxSlowRun:        time.Duration(getEnvAsInt("MAX_SLOW_RUN_SECONDS", 30)) * time.Second,
		KeepRuns:          getEnvAsInt("KEEP_RUNS", 50),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that the configured values are usable
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid GO_PORT %d", c.Port)
	}
	if c.TaxRate < 0 || c.TaxRate >= 1 {
		return fmt.Errorf("TAX_RATE must be in [0, 1), got %v", c.TaxRate)
	}
	if c.MarketRiskPremium < 0 {
		return fmt.Errorf("MARKET_RISK_PREMIUM must not be negative, got %v", c.MarketRiskPremium)
	}
	if c.RiskFreeRatePct != nil && *c.RiskFreeRatePct < 0 {
		return fmt.Errorf("RISK_FREE_RATE_PCT must not be negative, got %v", *c.RiskFreeRatePct)
	}
	if strings.TrimSpace(c.AnalysisSchedule) == "" {
		return fmt.Errorf("ANALYSIS_SCHEDULE is empty")
	}
	if c.MaxSlowRun <= 0 {
		return fmt.Errorf("MAX_SLOW_RUN_SECONDS must be positive")
	}
	if c.KeepRuns < 0 {
		return fmt.Errorf("KEEP_RUNS must not be negative, got %d", c.KeepRuns)
	}
	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if v := getEnvAsOptionalFloat(key); v != nil {
		return *v
	}
	return defaultValue
}

// getEnvAsOptionalFloat returns nil when the variable is unset or not a number.
func getEnvAsOptionalFloat(key string) *float64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil
	}
	return &f
}
