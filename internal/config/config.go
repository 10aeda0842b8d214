package config

import (
	"os"
	"strconv"
	"time"

	"ruletree/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Oracle OracleConfig
	Merge  MergeConfig
	Paths  PathConfig
}

// OracleConfig holds language model provider settings
type OracleConfig struct {
	APIKey      string
	Model       string
	BaseURL     string
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration
}

// MergeConfig holds rule merge and repair settings
type MergeConfig struct {
	MaxRepairIterations int
}

// PathConfig holds file system paths
type PathConfig struct {
	TasksDir string
}

// Load reads configuration from environment variables and validates it.
// The oracle API key is deliberately not required here; commands that
// never call the oracle stay usable without one.
func Load() (*Config, error) {
	config := &Config{
		Oracle: OracleConfig{
			APIKey:      os.Getenv("OPENAI_API_KEY"),
			Model:       getEnvOrDefault("LLM_MODEL", "gpt-4o-mini"),
			BaseURL:     getEnvOrDefault("OPENAI_BASE_URL", ""),
			MaxTokens:   getEnvIntOrDefault("MAX_TOKENS", 4000),
			Temperature: getEnvFloatOrDefault("TEMPERATURE", 0.1),
			Timeout:     getEnvDurationOrDefault("ORACLE_TIMEOUT", 60*time.Second),
		},
		Merge: MergeConfig{
			MaxRepairIterations: getEnvIntOrDefault("MAX_REPAIR_ITERATIONS", 3),
		},
		Paths: PathConfig{
			TasksDir: getEnvOrDefault("TASKS_DIR", "./tasks"),
		},
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

// Validate checks the settings a live oracle call needs
func (c OracleConfig) Validate() error {
	if c.APIKey == "" {
		return errors.ConfigInvalid("OPENAI_API_KEY is required")
	}
	if c.Model == "" {
		return errors.ConfigInvalid("LLM_MODEL must not be empty")
	}
	return nil
}

func validateConfig(config *Config) error {
	if config.Merge.MaxRepairIterations < 1 {
		return errors.ConfigInvalid("MAX_REPAIR_ITERATIONS must be at least 1")
	}
	if config.Oracle.Temperature < 0 || config.Oracle.Temperature > 2 {
		return errors.ConfigInvalid("TEMPERATURE must be between 0 and 2")
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
