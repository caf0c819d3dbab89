// Package config provides configuration management for the application.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/astro-analytics/video-tagging-go/internal/models"
	"github.com/spf13/viper"
)

// Storage backend names.
const (
	BackendMemory   = "memory"
	BackendFile     = "file"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

// Config holds all configuration for the application.
//
//nolint:govet // fieldalignment: Accept minor memory overhead for better readability
type Config struct {
	Server     ServerConfig
	Storage    StorageConfig
	Retention  RetentionConfig
	Vocabulary models.Vocabulary
	Export     ExportConfig
	Seek       SeekConfig
	RabbitMQ   RabbitMQConfig
	Auth       AuthConfig
	Logging    LoggingConfig
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Mode            string
	Port            int
	ShutdownTimeout time.Duration
}

// StorageConfig selects and configures the record backend.
//
//nolint:govet // fieldalignment: Accept minor memory overhead for better readability
type StorageConfig struct {
	Backend  string
	FileDir  string
	RedisURL string
	Postgres PostgresConfig
}

// PostgresConfig contains database connection configuration.
type PostgresConfig struct {
	DSN            string
	MaxConnections int32
	MinConnections int32
	MaxIdleTime    time.Duration
	MaxLifetime    time.Duration
}

// RetentionConfig controls the age-based eviction sweep.
type RetentionConfig struct {
	MaxAgeDays     int
	SweepOnStartup bool
}

// ExportConfig controls export behaviour.
type ExportConfig struct {
	OutputDir string
}

// SeekConfig controls the one-shot seek pulse.
type SeekConfig struct {
	Debounce time.Duration
}

// RabbitMQConfig contains RabbitMQ connection and exchange configuration.
//
//nolint:govet // fieldalignment: Accept minor memory overhead for better readability
type RabbitMQConfig struct {
	Enabled    bool
	Host       string
	User       string
	Password   string
	Exchange   string
	Queue      string
	RoutingKey string
	Port       int
}

// AuthConfig lists accepted API keys. An empty list disables auth.
type AuthConfig struct {
	APIKeys []string
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level string
	File  string
}

// Load loads configuration from file and environment variables.
func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	setDefaults()

	viper.SetEnvPrefix("APP")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found, use defaults and env vars
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate rejects configurations the service cannot start with.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case BackendMemory, BackendFile, BackendRedis, BackendPostgres:
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}
	if c.Storage.Backend == BackendFile && c.Storage.FileDir == "" {
		return fmt.Errorf("storage.filedir is required for the file backend")
	}
	if c.Storage.Backend == BackendRedis && c.Storage.RedisURL == "" {
		return fmt.Errorf("storage.redisurl is required for the redis backend")
	}
	if c.Storage.Backend == BackendPostgres && c.Storage.Postgres.DSN == "" {
		return fmt.Errorf("storage.postgres.dsn is required for the postgres backend")
	}
	if c.Retention.MaxAgeDays <= 0 {
		return fmt.Errorf("retention.maxagedays must be positive, got %d", c.Retention.MaxAgeDays)
	}
	if c.RabbitMQ.Enabled && (c.RabbitMQ.Host == "" || c.RabbitMQ.Exchange == "") {
		return fmt.Errorf("rabbitmq.host and rabbitmq.exchange are required when rabbitmq is enabled")
	}
	return nil
}

func setDefaults() {
	// Server
	viper.SetDefault("server.mode", "release")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.shutdowntimeout", 30*time.Second)

	// Storage
	viper.SetDefault("storage.backend", BackendFile)
	viper.SetDefault("storage.filedir", "./data/records")
	viper.SetDefault("storage.redisurl", "")
	viper.SetDefault("storage.postgres.dsn", "")
	viper.SetDefault("storage.postgres.maxconnections", 10)
	viper.SetDefault("storage.postgres.minconnections", 2)
	viper.SetDefault("storage.postgres.maxidletime", 10*time.Minute)
	viper.SetDefault("storage.postgres.maxlifetime", 1*time.Hour)

	// Retention
	viper.SetDefault("retention.maxagedays", 7)
	viper.SetDefault("retention.sweeponstartup", true)

	// Vocabulary
	viper.SetDefault("vocabulary.eventtypes", []string{"serve", "pass", "set", "spike", "block", "dig"})
	viper.SetDefault("vocabulary.players", []string{"Player 1", "Player 2", "Player 3", "Player 4", "Player 5", "Player 6"})
	viper.SetDefault("vocabulary.outcomes", []string{"Success", "Error", "Neutral"})

	// Export
	viper.SetDefault("export.outputdir", ".")

	// Seek
	viper.SetDefault("seek.debounce", 100*time.Millisecond)

	// RabbitMQ
	viper.SetDefault("rabbitmq.enabled", false)
	viper.SetDefault("rabbitmq.host", "localhost")
	viper.SetDefault("rabbitmq.port", 5672)
	viper.SetDefault("rabbitmq.user", "guest")
	viper.SetDefault("rabbitmq.password", "guest")
	viper.SetDefault("rabbitmq.exchange", "video.tagging")
	viper.SetDefault("rabbitmq.queue", "video.tagging.ml-exports")
	viper.SetDefault("rabbitmq.routingkey", "export.ml.created")

	// Auth
	viper.SetDefault("auth.apikeys", []string{})

	// Logging
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.file", "")
}
