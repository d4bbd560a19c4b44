package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/felixgeelhaar/recurra/pkg/observability"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envKeys = []string{
	"APP_ENV", "LOG_LEVEL", "LOG_FORMAT", "RECURRA_USER_ID",
	"DATABASE_DRIVER", "DATABASE_URL", "SQLITE_PATH",
	"REDIS_URL", "PREVIEW_CACHE_TTL", "RABBITMQ_URL", "EVENTS_ENABLED",
	"OUTBOX_POLL_INTERVAL", "OUTBOX_BATCH_SIZE", "OUTBOX_MAX_RETRIES",
	"OUTBOX_RETENTION_DAYS", "OUTBOX_CLEANUP_SCHEDULE", "OUTBOX_PROCESSOR_ENABLED",
	"MATERIALIZE_SCHEDULE", "MATERIALIZE_HORIZON_DAYS", "MATERIALIZE_COUNT", "MATERIALIZE_ON_START",
	"API_ADDR", "WORKER_HEALTH_ADDR", "MCP_ADDR", "MCP_AUTH_TOKEN",
}

// clearEnv blanks every recurra variable for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
}

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "recurra.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_DefaultValues(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.AppEnv)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, DefaultUserID, cfg.UserID)

	// SQLite is selected when no DATABASE_URL is set
	assert.Equal(t, "sqlite", cfg.DatabaseDriver)
	assert.True(t, cfg.IsSQLite())

	assert.Equal(t, 15*time.Minute, cfg.PreviewCacheTTL)
	assert.True(t, cfg.EventsEnabled)

	assert.Equal(t, time.Second, cfg.OutboxPollInterval)
	assert.Equal(t, 100, cfg.OutboxBatchSize)
	assert.Equal(t, 5, cfg.OutboxMaxRetries)
	assert.Equal(t, 14, cfg.OutboxRetentionDays)
	assert.True(t, cfg.OutboxProcessorEnabled)

	assert.Equal(t, "5 0 * * *", cfg.MaterializeSchedule)
	assert.Equal(t, 60, cfg.MaterializeHorizonDays)
	assert.Equal(t, 30, cfg.MaterializeCount)
	assert.False(t, cfg.MaterializeOnStart)

	assert.Equal(t, "127.0.0.1:8080", cfg.APIAddr)
	assert.Equal(t, "0.0.0.0:8081", cfg.WorkerHealthAddr)
	assert.Equal(t, "127.0.0.1:8082", cfg.MCPAddr)
}

func TestLoad_WithCustomEnvVars(t *testing.T) {
	clearEnv(t)
	t.Setenv("APP_ENV", "production")
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("RECURRA_USER_ID", "9f8c5b8e-6d3a-4c53-9b38-7c1f2e4d5a61")
	t.Setenv("PREVIEW_CACHE_TTL", "1m")
	t.Setenv("MATERIALIZE_HORIZON_DAYS", "90")
	t.Setenv("MATERIALIZE_ON_START", "true")
	t.Setenv("EVENTS_ENABLED", "false")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, uuid.MustParse("9f8c5b8e-6d3a-4c53-9b38-7c1f2e4d5a61"), cfg.ActingUserID())
	assert.Equal(t, time.Minute, cfg.PreviewCacheTTL)
	assert.Equal(t, 90, cfg.MaterializeHorizonDays)
	assert.True(t, cfg.MaterializeOnStart)
	assert.False(t, cfg.EventsEnabled)
}

func TestLoad_DatabaseDriver(t *testing.T) {
	tests := []struct {
		name   string
		url    string
		driver string
		want   string
	}{
		{"url selects postgres", "postgres://localhost/recurra", "", "postgres"},
		{"explicit sqlite wins over url", "postgres://localhost/recurra", "sqlite", "sqlite"},
		{"no url selects sqlite", "", "", "sqlite"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("DATABASE_URL", tt.url)
			t.Setenv("DATABASE_DRIVER", tt.driver)

			cfg, err := Load()
			require.NoError(t, err)
			assert.Equal(t, tt.want, cfg.DatabaseDriver)
		})
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"user id", "RECURRA_USER_ID", "alice"},
		{"driver", "DATABASE_DRIVER", "mysql"},
		{"horizon", "MATERIALIZE_HORIZON_DAYS", "0"},
		{"count", "MATERIALIZE_COUNT", "-3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.val)

			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoadFile(t *testing.T) {
	t.Run("file overrides defaults", func(t *testing.T) {
		clearEnv(t)
		path := writeFile(t, `
log_level: debug
preview_cache_ttl: 2m
materialize_schedule: "0 1 * * *"
materialize_count: 10
api_addr: ":9000"
`)
		cfg, err := LoadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "debug", cfg.LogLevel)
		assert.Equal(t, 2*time.Minute, cfg.PreviewCacheTTL)
		assert.Equal(t, "0 1 * * *", cfg.MaterializeSchedule)
		assert.Equal(t, 10, cfg.MaterializeCount)
		assert.Equal(t, ":9000", cfg.APIAddr)
		assert.Equal(t, 60, cfg.MaterializeHorizonDays)
	})

	t.Run("environment overrides file", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("LOG_LEVEL", "warn")
		path := writeFile(t, "log_level: debug\n")

		cfg, err := LoadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "warn", cfg.LogLevel)
	})

	t.Run("missing file", func(t *testing.T) {
		clearEnv(t)
		_, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})

	t.Run("malformed file", func(t *testing.T) {
		clearEnv(t)
		_, err := LoadFile(writeFile(t, "materialize_count: [1, 2\n"))
		assert.Error(t, err)
	})
}

func TestGetIntEnv(t *testing.T) {
	assert.Equal(t, 42, getIntEnv("RECURRA_TEST_MISSING_INT", 42))

	t.Setenv("RECURRA_TEST_INT", "100")
	assert.Equal(t, 100, getIntEnv("RECURRA_TEST_INT", 42))

	t.Setenv("RECURRA_TEST_INT", "not-a-number")
	assert.Equal(t, 42, getIntEnv("RECURRA_TEST_INT", 42))
}

func TestGetDurationEnv(t *testing.T) {
	assert.Equal(t, 5*time.Second, getDurationEnv("RECURRA_TEST_MISSING_DUR", 5*time.Second))

	t.Setenv("RECURRA_TEST_DUR", "10m")
	assert.Equal(t, 10*time.Minute, getDurationEnv("RECURRA_TEST_DUR", 5*time.Second))

	t.Setenv("RECURRA_TEST_DUR", "soon")
	assert.Equal(t, 5*time.Second, getDurationEnv("RECURRA_TEST_DUR", 5*time.Second))
}

func TestGetBoolEnv(t *testing.T) {
	assert.True(t, getBoolEnv("RECURRA_TEST_MISSING_BOOL", true))

	for _, v := range []string{"true", "1", "TRUE"} {
		t.Setenv("RECURRA_TEST_BOOL", v)
		assert.True(t, getBoolEnv("RECURRA_TEST_BOOL", false), v)
	}
	for _, v := range []string{"false", "0", "False"} {
		t.Setenv("RECURRA_TEST_BOOL", v)
		assert.False(t, getBoolEnv("RECURRA_TEST_BOOL", true), v)
	}

	t.Setenv("RECURRA_TEST_BOOL", "maybe")
	assert.True(t, getBoolEnv("RECURRA_TEST_BOOL", true))
}

func TestConfig_Logging(t *testing.T) {
	cfg := Defaults()
	cfg.AppEnv = "production"
	cfg.LogLevel = "warn"
	cfg.LogFormat = "json"

	logCfg := cfg.Logging("recurra-worker", "1.2.0")
	assert.Equal(t, observability.LogLevelWarn, logCfg.Level)
	assert.Equal(t, observability.LogFormatJSON, logCfg.Format)
	assert.Equal(t, "recurra-worker", logCfg.ServiceName)
	assert.Equal(t, "1.2.0", logCfg.ServiceVersion)

	cfg.AppEnv = "development"
	assert.Equal(t, observability.LogLevelDebug, cfg.Logging("recurra", "dev").Level)
}
