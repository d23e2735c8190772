package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds application configuration for the simulation runtime.
type Config struct {
	// Persistence
	DatabasePath string

	// Executor defaults
	MaxWorkers  int
	SampleSize  int
	BaseSeed    int64
	NumReplicas int

	// Logging
	LogLevel string
	DevMode  bool
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		DatabasePath: getEnv("DATABASE_PATH", "./data/glp-resilience.db"),
		MaxWorkers:   getEnvAsInt("MAX_WORKERS", 10),
		SampleSize:   getEnvAsInt("SAMPLE_SIZE", 50),
		BaseSeed:     getEnvAsInt64("BASE_SEED", 42),
		NumReplicas:  getEnvAsInt("NUM_REPLICAS", 1000),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		DevMode:      getEnvAsBool("DEV_MODE", false),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	if c.DatabasePath == "" {
		return fmt.Errorf("DATABASE_PATH is required")
	}
	if c.MaxWorkers <= 0 {
		return fmt.Errorf("MAX_WORKERS must be positive")
	}
	if c.SampleSize <= 0 {
		return fmt.Errorf("SAMPLE_SIZE must be positive")
	}
	if c.NumReplicas <= 0 {
		return fmt.Errorf("NUM_REPLICAS must be positive")
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

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
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
