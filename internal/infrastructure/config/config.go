// Package config provides centralized configuration management.
//
// Configuration can be loaded from:
//  1. YAML file (config.yaml)
//  2. Environment variables (fallback)
//
// Example usage:
//
//	cfg := config.LoadOrEnv()
//	dbPath := cfg.Storage.DatabasePath
//	settings := cfg.Matching
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/eshaffer321/billmatch/internal/domain/matcher"
)

// Config represents the entire application configuration
type Config struct {
	Storage       StorageConfig       `yaml:"storage"`
	Matching      matcher.Settings    `yaml:"matching"`
	Reconcile     ReconcileConfig     `yaml:"reconcile"`
	Scheduler     SchedulerConfig     `yaml:"scheduler"`
	API           APIConfig           `yaml:"api"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// StorageConfig holds database configuration
type StorageConfig struct {
	DatabasePath string `yaml:"database_path"`
}

// ReconcileConfig holds settings for a reconciliation pass
type ReconcileConfig struct {
	LookbackDays int `yaml:"lookback_days"` // 0 = all transactions
}

// SchedulerConfig controls periodic reconciliation
type SchedulerConfig struct {
	Enabled    bool   `yaml:"enabled"`
	Cron       string `yaml:"cron"` // Standard 5-field cron expression
	RunOnStart bool   `yaml:"run_on_start"`
}

// APIConfig holds HTTP server settings
type APIConfig struct {
	Port           int      `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	Logging LoggingConfig `yaml:"logging"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Defaults returns the configuration used when nothing overrides it
func Defaults() *Config {
	return &Config{
		Storage: StorageConfig{
			DatabasePath: "billmatch.db",
		},
		Matching: matcher.DefaultSettings(),
		Reconcile: ReconcileConfig{
			LookbackDays: 45,
		},
		Scheduler: SchedulerConfig{
			Enabled: false,
			Cron:    "0 6 * * *",
		},
		API: APIConfig{
			Port:           8080,
			AllowedOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
		},
		Observability: ObservabilityConfig{
			Logging: LoggingConfig{
				Level:  "info",
				Format: "text",
			},
		},
	}
}

// Load reads and parses the config file.
// Keys missing from the file keep their default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Expand environment variables (e.g., ${BILLMATCH_DB_PATH})
	expanded := os.ExpandEnv(string(data))

	cfg := Defaults()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, err
	}

	if err := cfg.Matching.Validate(); err != nil {
		return nil, fmt.Errorf("invalid matching settings: %w", err)
	}

	return cfg, nil
}

// LoadFromEnv loads configuration from environment variables only
func LoadFromEnv() *Config {
	defaults := Defaults()

	matching := defaults.Matching
	matching.Enabled = getEnvBool("BILLMATCH_ENABLED", matching.Enabled)
	matching.AutoMatchHighConfidence = getEnvBool("BILLMATCH_AUTO_MATCH", matching.AutoMatchHighConfidence)
	matching.RequireConfirmation = getEnvBool("BILLMATCH_REQUIRE_CONFIRMATION", matching.RequireConfirmation)
	matching.AmountTolerance = getEnvFloat("BILLMATCH_AMOUNT_TOLERANCE", matching.AmountTolerance)
	matching.DateToleranceDays = getEnvInt("BILLMATCH_DATE_TOLERANCE_DAYS", matching.DateToleranceDays)
	matching.MinMatchScore = getEnvInt("BILLMATCH_MIN_MATCH_SCORE", matching.MinMatchScore)
	if matching.Validate() != nil {
		matching = defaults.Matching
	}

	return &Config{
		Storage: StorageConfig{
			DatabasePath: getEnv("BILLMATCH_DB_PATH", defaults.Storage.DatabasePath),
		},
		Matching: matching,
		Reconcile: ReconcileConfig{
			LookbackDays: getEnvInt("BILLMATCH_LOOKBACK_DAYS", defaults.Reconcile.LookbackDays),
		},
		Scheduler: SchedulerConfig{
			Enabled:    getEnvBool("BILLMATCH_SCHEDULER_ENABLED", defaults.Scheduler.Enabled),
			Cron:       getEnv("BILLMATCH_SCHEDULE", defaults.Scheduler.Cron),
			RunOnStart: getEnvBool("BILLMATCH_RUN_ON_START", defaults.Scheduler.RunOnStart),
		},
		API: APIConfig{
			Port:           getEnvInt("BILLMATCH_PORT", defaults.API.Port),
			AllowedOrigins: defaults.API.AllowedOrigins,
		},
		Observability: ObservabilityConfig{
			Logging: LoggingConfig{
				Level:  getEnv("LOG_LEVEL", defaults.Observability.Logging.Level),
				Format: getEnv("LOG_FORMAT", defaults.Observability.Logging.Format),
			},
		},
	}
}

// LoadOrEnv tries to load from config.yaml, falls back to environment variables
func LoadOrEnv() *Config {
	return LoadOrEnvWithPath("config.yaml")
}

// LoadOrEnvWithPath tries to load from specified path, falls back to environment variables
func LoadOrEnvWithPath(path string) *Config {
	if cfg, err := Load(path); err == nil {
		return cfg
	}
	return LoadFromEnv()
}

// getEnv retrieves an environment variable with a fallback default
func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

// getEnvInt retrieves an integer environment variable with a fallback default
func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if result, err := strconv.Atoi(val); err == nil {
			return result
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if val := os.Getenv(key); val != "" {
		if result, err := strconv.ParseFloat(val, 64); err == nil {
			return result
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if result, err := strconv.ParseBool(val); err == nil {
			return result
		}
	}
	return fallback
}
