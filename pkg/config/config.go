package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	// Log configuration
	Log LogConfig `mapstructure:"log"`

	// Server configuration
	Server ServerConfig `mapstructure:"server"`

	// Embedding configuration
	Embedding EmbeddingConfig `mapstructure:"embedding"`

	// Vector index configuration
	Vector VectorConfig `mapstructure:"vector"`

	// Store configuration
	Store StoreConfig `mapstructure:"store"`

	// Materializer configuration
	Materializer MaterializerConfig `mapstructure:"materializer"`

	// Telemetry configuration
	Telemetry TelemetryConfig `mapstructure:"telemetry"`

	// Alert configuration
	Alert AlertConfig `mapstructure:"alert"`

	// CircuitBreaker configuration
	CircuitBreaker CircuitBreakerConfig `mapstructure:"circuit_breaker"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // gin mode: debug, release, test
}

// EmbeddingConfig holds embedding configuration
type EmbeddingConfig struct {
	Provider  string `mapstructure:"provider"` // openai, embedeverything
	Model     string `mapstructure:"model"`
	APIKey    string `mapstructure:"api_key"`
	BaseURL   string `mapstructure:"base_url"`
	BatchSize int    `mapstructure:"batch_size"`
}

// VectorConfig holds vector index configuration
type VectorConfig struct {
	Provider string `mapstructure:"provider"` // qdrant, memory
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	// Dimensions of the embedding vectors stored in the index
	Dimensions int `mapstructure:"dimensions"`
}

// StoreConfig holds aggregation store configuration
type StoreConfig struct {
	Backend string `mapstructure:"backend"` // badger, memory
	Path    string `mapstructure:"path"`    // badger data directory
}

// MaterializerConfig holds materialization configuration
type MaterializerConfig struct {
	// Cadence is the scheduled interval between materialization runs.
	Cadence time.Duration `mapstructure:"cadence"`
	// FreshnessWindow is the maximum fact age before the planner treats it
	// as stale. Must be positive and finite; zero would force a full scan
	// for every query and defeat the cache.
	FreshnessWindow time.Duration `mapstructure:"freshness_window"`
	// ScanTimeout bounds a single full-scan aggregation.
	ScanTimeout time.Duration `mapstructure:"scan_timeout"`
}

// TelemetryConfig holds telemetry configuration
type TelemetryConfig struct {
	ParquetPath string `mapstructure:"parquet_path"`
}

// AlertConfig holds configuration for alerting
type AlertConfig struct {
	Enabled  bool     `mapstructure:"enabled"`
	SMTPHost string   `mapstructure:"smtp_host"`
	SMTPPort int      `mapstructure:"smtp_port"`
	Username string   `mapstructure:"username"`
	Password string   `mapstructure:"password"`
	From     string   `mapstructure:"from"`
	To       []string `mapstructure:"to"`
}

// CircuitBreakerConfig holds configuration for circuit breaking
type CircuitBreakerConfig struct {
	Enabled          bool    `mapstructure:"enabled"`
	MaxRequests      uint32  `mapstructure:"max_requests"`
	Interval         int     `mapstructure:"interval"` // in seconds
	Timeout          int     `mapstructure:"timeout"`  // in seconds
	ReadyToTripRatio float64 `mapstructure:"ready_to_trip_ratio"`
}

// Load loads configuration from file and environment variables
func Load() (*Config, error) {
	setDefaults()

	config := &Config{}
	if err := viper.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	overrideWithEnv(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks invariants that cannot be expressed as defaults.
func (c *Config) Validate() error {
	if c.Materializer.FreshnessWindow <= 0 {
		return fmt.Errorf("materializer.freshness_window must be positive, got %s", c.Materializer.FreshnessWindow)
	}
	if c.Materializer.Cadence <= 0 {
		return fmt.Errorf("materializer.cadence must be positive, got %s", c.Materializer.Cadence)
	}
	return nil
}

// setDefaults sets default configuration values
func setDefaults() {
	// Log defaults
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "text")

	// Server defaults
	viper.SetDefault("server.host", "localhost")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.mode", "debug")

	// Embedding defaults
	viper.SetDefault("embedding.provider", "openai")
	viper.SetDefault("embedding.model", "text-embedding-3-small")
	viper.SetDefault("embedding.batch_size", 50)

	// Vector index defaults
	viper.SetDefault("vector.provider", "qdrant")
	viper.SetDefault("vector.host", "localhost")
	viper.SetDefault("vector.port", 6333)
	viper.SetDefault("vector.dimensions", 1536)

	// Store defaults
	viper.SetDefault("store.backend", "badger")
	viper.SetDefault("store.path", "./aggrego_db")

	// Materializer defaults: freshness window is twice the cadence so a
	// single missed run does not immediately force full scans.
	viper.SetDefault("materializer.cadence", time.Hour)
	viper.SetDefault("materializer.freshness_window", 2*time.Hour)
	viper.SetDefault("materializer.scan_timeout", 30*time.Second)

	// Telemetry defaults
	home, err := os.UserHomeDir()
	if err == nil {
		viper.SetDefault("telemetry.parquet_path", fmt.Sprintf("%s/.aggrego/telemetry", home))
	}
}

// overrideWithEnv overrides config with environment variables
func overrideWithEnv(config *Config) {
	if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" {
		config.Embedding.APIKey = apiKey
	}
	if baseURL := os.Getenv("OPENAI_BASE_URL"); baseURL != "" {
		config.Embedding.BaseURL = baseURL
	}

	if host := os.Getenv("QDRANT_HOST"); host != "" {
		config.Vector.Host = host
	}
	if port := os.Getenv("QDRANT_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Vector.Port = p
		}
	}

	if backend := os.Getenv("STORE_BACKEND"); backend != "" {
		config.Store.Backend = backend
	}
	if path := os.Getenv("STORE_PATH"); path != "" {
		config.Store.Path = path
	}

	if host := os.Getenv("SERVER_HOST"); host != "" {
		config.Server.Host = host
	}
	if port := os.Getenv("SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}

	if path := os.Getenv("TELEMETRY_PARQUET_PATH"); path != "" {
		config.Telemetry.ParquetPath = path
	}
}
