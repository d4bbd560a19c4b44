// Package config loads recurra settings from the environment, an optional
// .env file and an optional YAML file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/felixgeelhaar/recurra/internal/shared/infrastructure/security"
	"github.com/felixgeelhaar/recurra/pkg/observability"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultUserID acts for every request until authentication exists.
const DefaultUserID = "00000000-0000-0000-0000-000000000001"

// Config holds application configuration.
type Config struct {
	// Application
	AppEnv    string `yaml:"app_env"`
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
	UserID    string `yaml:"user_id"`

	// Database
	DatabaseDriver string `yaml:"database_driver"`
	DatabaseURL    string `yaml:"database_url"`
	SQLitePath     string `yaml:"sqlite_path"`

	// Redis
	RedisURL        string        `yaml:"redis_url"`
	PreviewCacheTTL time.Duration `yaml:"preview_cache_ttl"`

	// RabbitMQ
	RabbitMQURL   string `yaml:"rabbitmq_url"`
	EventsEnabled bool   `yaml:"events_enabled"`

	// Outbox
	OutboxPollInterval     time.Duration `yaml:"outbox_poll_interval"`
	OutboxBatchSize        int           `yaml:"outbox_batch_size"`
	OutboxMaxRetries       int           `yaml:"outbox_max_retries"`
	OutboxRetentionDays    int           `yaml:"outbox_retention_days"`
	OutboxCleanupSchedule  string        `yaml:"outbox_cleanup_schedule"`
	OutboxProcessorEnabled bool          `yaml:"outbox_processor_enabled"`

	// Materialization
	MaterializeSchedule    string `yaml:"materialize_schedule"`
	MaterializeHorizonDays int    `yaml:"materialize_horizon_days"`
	MaterializeCount       int    `yaml:"materialize_count"`
	MaterializeOnStart     bool   `yaml:"materialize_on_start"`

	// Servers
	APIAddr          string `yaml:"api_addr"`
	WorkerHealthAddr string `yaml:"worker_health_addr"`
	MCPAddr          string `yaml:"mcp_addr"`
	MCPAuthToken     string `yaml:"mcp_auth_token"`
}

// Defaults returns the configuration used when nothing is set.
func Defaults() *Config {
	return &Config{
		AppEnv:    "development",
		LogLevel:  "info",
		LogFormat: "text",
		UserID:    DefaultUserID,

		PreviewCacheTTL: 15 * time.Minute,
		EventsEnabled:   true,

		OutboxPollInterval:     time.Second,
		OutboxBatchSize:        100,
		OutboxMaxRetries:       5,
		OutboxRetentionDays:    14,
		OutboxCleanupSchedule:  "30 3 * * *",
		OutboxProcessorEnabled: true,

		MaterializeSchedule:    "5 0 * * *",
		MaterializeHorizonDays: 60,
		MaterializeCount:       30,

		APIAddr:          "127.0.0.1:8080",
		WorkerHealthAddr: "0.0.0.0:8081",
		MCPAddr:          "127.0.0.1:8082",
	}
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	return LoadFile("")
}

// LoadFile applies, in order, the defaults, the YAML file at path (skipped
// when path is empty) and the environment. Environment variables win.
func LoadFile(path string) (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	cfg := Defaults()
	if path != "" {
		data, err := security.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}
	cfg.applyEnv()

	if cfg.DatabaseDriver == "" {
		cfg.DatabaseDriver = "sqlite"
		if cfg.DatabaseURL != "" {
			cfg.DatabaseDriver = "postgres"
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.AppEnv = getEnv("APP_ENV", c.AppEnv)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.LogFormat = getEnv("LOG_FORMAT", c.LogFormat)
	c.UserID = getEnv("RECURRA_USER_ID", c.UserID)

	c.DatabaseDriver = getEnv("DATABASE_DRIVER", c.DatabaseDriver)
	c.DatabaseURL = getEnv("DATABASE_URL", c.DatabaseURL)
	c.SQLitePath = getEnv("SQLITE_PATH", c.SQLitePath)

	c.RedisURL = getEnv("REDIS_URL", c.RedisURL)
	c.PreviewCacheTTL = getDurationEnv("PREVIEW_CACHE_TTL", c.PreviewCacheTTL)

	c.RabbitMQURL = getEnv("RABBITMQ_URL", c.RabbitMQURL)
	c.EventsEnabled = getBoolEnv("EVENTS_ENABLED", c.EventsEnabled)

	c.OutboxPollInterval = getDurationEnv("OUTBOX_POLL_INTERVAL", c.OutboxPollInterval)
	c.OutboxBatchSize = getIntEnv("OUTBOX_BATCH_SIZE", c.OutboxBatchSize)
	c.OutboxMaxRetries = getIntEnv("OUTBOX_MAX_RETRIES", c.OutboxMaxRetries)
	c.OutboxRetentionDays = getIntEnv("OUTBOX_RETENTION_DAYS", c.OutboxRetentionDays)
	c.OutboxCleanupSchedule = getEnv("OUTBOX_CLEANUP_SCHEDULE", c.OutboxCleanupSchedule)
	c.OutboxProcessorEnabled = getBoolEnv("OUTBOX_PROCESSOR_ENABLED", c.OutboxProcessorEnabled)

	c.MaterializeSchedule = getEnv("MATERIALIZE_SCHEDULE", c.MaterializeSchedule)
	c.MaterializeHorizonDays = getIntEnv("MATERIALIZE_HORIZON_DAYS", c.MaterializeHorizonDays)
	c.MaterializeCount = getIntEnv("MATERIALIZE_COUNT", c.MaterializeCount)
	c.MaterializeOnStart = getBoolEnv("MATERIALIZE_ON_START", c.MaterializeOnStart)

	c.APIAddr = getEnv("API_ADDR", c.APIAddr)
	c.WorkerHealthAddr = getEnv("WORKER_HEALTH_ADDR", c.WorkerHealthAddr)
	c.MCPAddr = getEnv("MCP_ADDR", c.MCPAddr)
	c.MCPAuthToken = getEnv("MCP_AUTH_TOKEN", c.MCPAuthToken)
}

// Validate rejects settings the services cannot start with.
func (c *Config) Validate() error {
	if _, err := uuid.Parse(c.UserID); err != nil {
		return fmt.Errorf("invalid RECURRA_USER_ID %q: %w", c.UserID, err)
	}
	if !c.IsSQLite() && !c.IsPostgres() {
		return fmt.Errorf("unsupported DATABASE_DRIVER %q", c.DatabaseDriver)
	}
	if c.MaterializeHorizonDays < 1 {
		return fmt.Errorf("MATERIALIZE_HORIZON_DAYS must be positive, got %d", c.MaterializeHorizonDays)
	}
	if c.MaterializeCount < 1 {
		return fmt.Errorf("MATERIALIZE_COUNT must be positive, got %d", c.MaterializeCount)
	}
	return nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func (c *Config) IsSQLite() bool   { return c.DatabaseDriver == "sqlite" }
func (c *Config) IsPostgres() bool { return c.DatabaseDriver == "postgres" }

// ActingUserID returns the parsed RECURRA_USER_ID.
func (c *Config) ActingUserID() uuid.UUID {
	id, err := uuid.Parse(c.UserID)
	if err != nil {
		return uuid.MustParse(DefaultUserID)
	}
	return id
}

// Logging returns the logger settings for one binary. Development always
// logs at debug level.
func (c *Config) Logging(service, version string) observability.LogConfig {
	cfg := observability.DefaultLogConfig()
	cfg.Level = observability.LogLevel(c.LogLevel)
	cfg.Format = observability.LogFormat(c.LogFormat)
	cfg.ServiceName = service
	cfg.ServiceVersion = version
	if c.IsDevelopment() {
		cfg.Level = observability.LogLevelDebug
	}
	return cfg
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
