package config

import (
	"fmt"
	"os"
	"strconv"
	"sync"
)

// Config holds all application configuration
type Config struct {
	// Database configuration
	DatabaseURL string

	// Ledger configuration
	LockTimeoutMillis int // Bounded wait for a ledger row lock before giving up

	// OpenTelemetry configuration
	OTelEnabled      bool
	OTelExporterType string // "console" or "otlp"
	OTelEndpoint     string
	OTelServiceName  string

	// Environment
	Environment string // "development", "production" or "test"
}

var (
	instance *Config
	once     sync.Once
)

// Get returns the global configuration instance
func Get() *Config {
	once.Do(func() {
		var err error
		instance, err = load()
		if err != nil {
			panic(fmt.Sprintf("failed to load config: %v", err))
		}
	})
	return instance
}

// load loads configuration from environment variables
func load() (*Config, error) {
	config := &Config{
		// Database
		DatabaseURL: os.Getenv("DATABASE_URL"),

		// Ledger settings with defaults
		LockTimeoutMillis: 3000,

		// OpenTelemetry
		OTelEnabled:      os.Getenv("OTEL_ENABLED") == "true",
		OTelExporterType: os.Getenv("OTEL_EXPORTER_TYPE"),
		OTelEndpoint:     os.Getenv("OTEL_ENDPOINT"),
		OTelServiceName:  os.Getenv("OTEL_SERVICE_NAME"),

		// Environment
		Environment: os.Getenv("ENVIRONMENT"),
	}

	// Override defaults if environment variables are set
	if timeout := os.Getenv("LOCK_TIMEOUT_MS"); timeout != "" {
		if parsedTimeout, err := strconv.Atoi(timeout); err == nil && parsedTimeout > 0 {
			config.LockTimeoutMillis = parsedTimeout
		}
	}

	// Set default environment if not specified
	if config.Environment == "" {
		config.Environment = "development"
	}

	if config.OTelExporterType == "" {
		config.OTelExporterType = "console"
	}
	if config.OTelServiceName == "" {
		config.OTelServiceName = "creditmeter"
	}

	if config.Environment != "test" {
		// Validate required configuration
		if config.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required")
		}
	}

	return config, nil
}
