package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
)

// Config holds runtime settings for the tidesync daemon and admin CLI.
type Config struct {
	Environment string
	Postgres    PostgresConfig
	ClickHouse  ClickHouseConfig
	Sync        SyncConfig
	Cursor      CursorConfig
	Telemetry   TelemetryConfig
}

type PostgresConfig struct {
	DSN   string `validate:"required"`
	Table string `validate:"required"`
}

type ClickHouseConfig struct {
	DSN   string `validate:"required"`
	Table string `validate:"required"`
}

type SyncConfig struct {
	Channel        string        `validate:"required"`
	DebounceWindow time.Duration `validate:"gt=0"`
	BackoffBase    time.Duration `validate:"gt=0"`
	BackoffCap     time.Duration `validate:"gt=0"`
	MaxRetries     int           `validate:"gt=0"`
}

type CursorConfig struct {
	Path string
}

type TelemetryConfig struct {
	ServiceName string
}

// Load loads config from environment. Flag overrides are layered on by the
// binaries after loading.
func Load() *Config {
	return &Config{
		Environment: getenv("TIDESYNC_ENV", "dev"),
		Postgres: PostgresConfig{
			DSN:   getenv("TIDESYNC_POSTGRES_DSN", ""),
			Table: getenv("TIDESYNC_POSTGRES_TABLE", "project_investments"),
		},
		ClickHouse: ClickHouseConfig{
			DSN:   getenv("TIDESYNC_CLICKHOUSE_DSN", ""),
			Table: getenv("TIDESYNC_CLICKHOUSE_TABLE", "project_investments"),
		},
		Sync: SyncConfig{
			Channel:        getenv("TIDESYNC_CHANNEL", "project_changes"),
			DebounceWindow: getenvDuration("TIDESYNC_DEBOUNCE_WINDOW", time.Second),
			BackoffBase:    getenvDuration("TIDESYNC_BACKOFF_BASE", 2*time.Second),
			BackoffCap:     getenvDuration("TIDESYNC_BACKOFF_CAP", 30*time.Second),
			MaxRetries:     getenvInt("TIDESYNC_MAX_RETRIES", 30),
		},
		Cursor: CursorConfig{
			Path: getenv("TIDESYNC_CURSOR_PATH", ""),
		},
		Telemetry: TelemetryConfig{
			ServiceName: getenv("TIDESYNC_OTEL_SERVICE", "tidesync"),
		},
	}
}

// Validate reports missing or out-of-range settings before any connection is
// attempted.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("validate config: %w", err)
	}
	return nil
}

func getenv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		parsed, err := time.ParseDuration(value)
		if err == nil {
			return parsed
		}
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		parsed, err := strconv.Atoi(value)
		if err == nil {
			return parsed
		}
	}
	return fallback
}
