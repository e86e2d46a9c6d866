// Package config provides centralized configuration management for the application.
// It loads configuration from environment variables (optionally layered over a
// YAML file) with sensible defaults and validates all settings on startup to
// fail fast on misconfiguration.
package config

import (
	"strconv"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Ingest   IngestConfig
	Logging  LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" key:"server.host" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" key:"server.port" default:"8080"`

	// ReadTimeout is the maximum duration for reading request body (default: 30s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" key:"server.read_timeout" default:"30s"`

	// WriteTimeout is the maximum duration for writing a response (default: 0, imports can be slow)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" key:"server.write_timeout" default:"0s"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" key:"server.idle_timeout" default:"60s"`

	// ShutdownTimeout bounds graceful shutdown, including draining imports (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" key:"server.shutdown_timeout" default:"30s"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	// Driver selects the storage backend: postgres or sqlite (default: postgres)
	Driver string `env:"DATABASE_DRIVER" key:"database.driver" default:"postgres"`

	// URL is the connection string, or the SQLite file path / DSN (required)
	// Supports both DATABASE_URL and DB_URL env vars for compatibility
	URL string `env:"DATABASE_URL" envAlt:"DB_URL" key:"database.url" required:"true"`

	// MaxConns is the maximum number of pooled connections (default: 20)
	MaxConns int `env:"DB_MAX_CONNS" key:"database.max_conns" default:"20"`

	// MinConns is the minimum number of connections to keep open (default: 2)
	MinConns int `env:"DB_MIN_CONNS" key:"database.min_conns" default:"2"`

	// MaxConnLifetime is the maximum lifetime of a connection (default: 1h)
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" key:"database.max_conn_lifetime" default:"1h"`

	// MaxConnIdleTime is the maximum idle time before a connection is closed (default: 30m)
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" key:"database.max_conn_idle_time" default:"30m"`
}

// IngestConfig holds extract processing settings.
type IngestConfig struct {
	// BatchSize is the preferred rows per INSERT statement (default: 500)
	BatchSize int `env:"INGEST_BATCH_SIZE" key:"ingest.batch_size" default:"500"`

	// ParamCeiling overrides the engine's bound-parameter limit; 0 uses the store's own (default: 0)
	ParamCeiling int `env:"INGEST_PARAM_CEILING" key:"ingest.param_ceiling" default:"0"`

	// MaxFileSize is the maximum accepted extract size in bytes (default: 100MB)
	MaxFileSize int64 `env:"INGEST_MAX_FILE_SIZE" key:"ingest.max_file_size" default:"104857600"`

	// MaxConcurrent is the maximum number of parallel imports (default: 5)
	MaxConcurrent int `env:"INGEST_MAX_CONCURRENT" key:"ingest.max_concurrent" default:"5"`

	// MaxWaitTime is how long to wait for an import slot (default: 30s)
	MaxWaitTime time.Duration `env:"INGEST_MAX_WAIT_TIME" key:"ingest.max_wait_time" default:"30s"`

	// Timeout is the maximum duration for a single import (default: 10m)
	Timeout time.Duration `env:"INGEST_TIMEOUT" key:"ingest.timeout" default:"10m"`

	// MaxPerCategory caps rows per category when reducing; 0 disables reduction (default: 0)
	MaxPerCategory int `env:"INGEST_MAX_PER_CATEGORY" key:"ingest.max_per_category" default:"0"`

	// RejectPartial skips the load entirely when any row fails validation (default: false)
	RejectPartial bool `env:"INGEST_REJECT_PARTIAL" key:"ingest.reject_partial" default:"false"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" key:"logging.level" default:"info"`

	// Format is the log format: text, json or tint (default: text)
	Format string `env:"LOG_FORMAT" key:"logging.format" default:"text"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}
