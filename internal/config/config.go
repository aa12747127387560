// Package config loads application settings from environment variables.
// Every field has a default except where noted, and Load validates the
// whole configuration up front so misconfiguration fails at startup.
package config

import (
	"strconv"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Batch    BatchConfig
	Rate     RateLimitConfig
	Security SecurityConfig
	Logging  LoggingConfig
	Metrics  MetricsConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080"`

	// ReadTimeout is the maximum duration for reading a request (default: 30s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"30s"`

	// WriteTimeout is the maximum duration for writing a response (default: 5m)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"5m"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout bounds graceful shutdown, including batch drain (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 5m)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"5m"`
}

// DatabaseConfig selects the history/template store.
type DatabaseConfig struct {
	// URL is a postgres:// connection string or a SQLite file path
	// (default: data/qrforge.db). DB_URL is accepted as an alternative.
	URL string `env:"DATABASE_URL" envAlt:"DB_URL" default:"data/qrforge.db"`

	// MaxConns is the Postgres pool size (default: 10)
	MaxConns int `env:"DB_MAX_CONNS" default:"10"`

	// MinConns is the number of idle Postgres connections kept open (default: 1)
	MinConns int `env:"DB_MIN_CONNS" default:"1"`

	// MaxConnLifetime is the maximum lifetime of a connection (default: 1h)
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`

	// MaxConnIdleTime closes connections idle longer than this (default: 30m)
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`
}

// BatchConfig holds batch parsing, validation and export settings.
type BatchConfig struct {
	// MaxCSVSize caps an uploaded CSV document in bytes (default: 10MB)
	MaxCSVSize int64 `env:"BATCH_MAX_CSV_SIZE" default:"10485760"`

	// MaxRequestSize caps JSON request bodies carrying images (default: 256MB)
	MaxRequestSize int64 `env:"BATCH_MAX_REQUEST_SIZE" default:"268435456"`

	// MaxConcurrent is the number of batches validated or exported at once (default: 4)
	MaxConcurrent int `env:"BATCH_MAX_CONCURRENT" default:"4"`

	// MaxWaitTime is how long a batch waits for a free slot (default: 30s)
	MaxWaitTime time.Duration `env:"BATCH_MAX_WAIT_TIME" default:"30s"`

	// Workers is the decode parallelism inside one batch (0: GOMAXPROCS)
	Workers int `env:"BATCH_WORKERS" default:"0"`

	// CompressionLevel is the deflate level for archive entries (default: 6)
	CompressionLevel int `env:"BATCH_COMPRESSION_LEVEL" default:"6"`

	// ExportDir is where exported archives are written (default: data/exports)
	ExportDir string `env:"BATCH_EXPORT_DIR" default:"data/exports"`

	// MaxImagePixels rejects larger images before decoding (default: 64Mpx)
	MaxImagePixels int `env:"BATCH_MAX_IMAGE_PIXELS" default:"67108864"`

	// Timeout bounds one batch request (default: 10m)
	Timeout time.Duration `env:"BATCH_TIMEOUT" default:"10m"`

	// ExportRetention is how long exported archives are kept (default: 24h)
	ExportRetention time.Duration `env:"BATCH_EXPORT_RETENTION" default:"24h"`

	// CleanupInterval is how often old exports are swept (default: 1h)
	CleanupInterval time.Duration `env:"BATCH_CLEANUP_INTERVAL" default:"1h"`
}

// RateLimitConfig holds per-IP rate limits.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active (default: true)
	Enabled bool `env:"RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerMinute is the default rate limit per IP (default: 100)
	RequestsPerMinute int `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"100"`

	// BatchLimit is requests per minute for batch endpoints (default: 20)
	BatchLimit int `env:"RATE_LIMIT_BATCH" default:"20"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	// EnableCSP enables Content-Security-Policy headers (default: true)
	EnableCSP bool `env:"SECURITY_ENABLE_CSP" default:"true"`

	// RequireAPIKey rejects /api requests without a valid key (default: false)
	RequireAPIKey bool `env:"REQUIRE_API_KEY" default:"false"`

	// APIKeys is a comma-separated list of accepted keys
	APIKeys []string `env:"API_KEYS"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	// Enabled exposes metrics at Path (default: true)
	Enabled bool `env:"METRICS_ENABLED" default:"true"`

	// Path is the scrape path (default: /metrics)
	Path string `env:"METRICS_PATH" default:"/metrics"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}
