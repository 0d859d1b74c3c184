package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"github.com/platinummonkey/itemservice/pkg/apperror"
	"github.com/platinummonkey/itemservice/pkg/observability"
	"github.com/platinummonkey/itemservice/pkg/storage"
)

const (
	maxPort           = 65535
	maxTimeoutSeconds = 60
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server ServerConfig `yaml:"server"`

	// Storage configuration
	Storage storage.Config `yaml:"storage"`

	// Observability configuration
	Observability ObservabilityConfig `yaml:"observability"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// Addr is the listen address
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	// Logging
	LogLevel string `yaml:"log_level"`

	// Identity, also sent in the service response header
	ServiceName    string `yaml:"service_name"`
	ServiceVersion string `yaml:"service_version"`

	// Metrics
	RuntimeMetricsEnabled bool `yaml:"runtime_metrics_enabled"`

	// Cron schedule for the periodic pool and cache statistics log line; empty disables it
	StatsSchedule string `yaml:"stats_schedule"`

	// OpenTelemetry
	OTelEnabled  bool   `yaml:"otel_enabled"`
	OTelEndpoint string `yaml:"otel_endpoint"`
	OTelInsecure bool   `yaml:"otel_insecure"` // Use insecure gRPC connection
}

// Level parses LogLevel
func (o ObservabilityConfig) Level() observability.LogLevel {
	return observability.ParseLogLevel(o.LogLevel)
}

// OTel converts the settings for observability.InitOTel
func (o ObservabilityConfig) OTel() observability.OTelConfig {
	return observability.OTelConfig{
		Enabled:        o.OTelEnabled,
		Endpoint:       o.OTelEndpoint,
		ServiceName:    o.ServiceName,
		ServiceVersion: o.ServiceVersion,
		Insecure:       o.OTelInsecure,
	}
}

// Default returns the configuration used when nothing is overridden
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		Storage: storage.DefaultConfig(),
		Observability: ObservabilityConfig{
			LogLevel:              "info",
			ServiceName:           observability.DefaultServiceName,
			ServiceVersion:        "1.0.0",
			RuntimeMetricsEnabled: true,
			StatsSchedule:         "@every 5m",
			OTelEnabled:           false,
			OTelEndpoint:          "localhost:4317",
			OTelInsecure:          true,
		},
	}
}

// Load builds the configuration from defaults, the optional YAML file named by
// CONFIG_FILE, and environment variables, in increasing precedence.
// Every failure is an apperror.KindConfiguration error.
func Load() (*Config, error) {
	return LoadFrom(os.Getenv("CONFIG_FILE"))
}

// LoadFrom is Load with an explicit YAML path; an empty path skips the file
func LoadFrom(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return apperror.Configurationf("failed to read config file %s: %v", path, err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return apperror.Configurationf("failed to parse config file %s: %v", path, err)
	}

	return nil
}

// applyEnv overrides c from the environment. Values that fail to parse keep the current setting.
func (c *Config) applyEnv() {
	// Server config
	c.Server.Host = getEnv("HOST", c.Server.Host)
	c.Server.Port = getEnvInt("PORT", c.Server.Port)
	c.Server.ReadTimeout = getEnvDuration("HTTP_READ_TIMEOUT", c.Server.ReadTimeout)
	c.Server.WriteTimeout = getEnvDuration("HTTP_WRITE_TIMEOUT", c.Server.WriteTimeout)
	c.Server.IdleTimeout = getEnvDuration("HTTP_IDLE_TIMEOUT", c.Server.IdleTimeout)
	c.Server.ShutdownTimeout = getEnvDuration("SHUTDOWN_TIMEOUT", c.Server.ShutdownTimeout)

	// PostgreSQL config
	c.Storage.PostgresURL = getEnv("DATABASE_URL", c.Storage.PostgresURL)
	c.Storage.MaxConns = getEnvInt("DB_POOL_MAX_CONNECTIONS", c.Storage.MaxConns)
	c.Storage.MinConns = getEnvInt("DB_POOL_MIN_CONNECTIONS", c.Storage.MinConns)
	c.Storage.ConnectTimeout = getEnvSeconds("DB_CONNECT_TIMEOUT_SECS", c.Storage.ConnectTimeout)
	c.Storage.AcquireTimeout = getEnvSeconds("DB_ACQUIRE_TIMEOUT_SECS", c.Storage.AcquireTimeout)

	// Cache config
	c.Storage.CacheEnabled = getEnvBool("CACHE_ENABLED", c.Storage.CacheEnabled)
	c.Storage.CacheSize = getEnvInt("CACHE_SIZE", c.Storage.CacheSize)
	c.Storage.CacheTTL = getEnvDuration("CACHE_TTL", c.Storage.CacheTTL)
	c.Storage.RedisURL = getEnv("REDIS_URL", c.Storage.RedisURL)

	// Observability config
	c.Observability.LogLevel = getEnv("LOG_LEVEL", c.Observability.LogLevel)
	c.Observability.ServiceName = getEnv("SERVICE_NAME", c.Observability.ServiceName)
	c.Observability.ServiceVersion = getEnv("SERVICE_VERSION", c.Observability.ServiceVersion)
	c.Observability.RuntimeMetricsEnabled = getEnvBool("METRICS_RUNTIME_ENABLED", c.Observability.RuntimeMetricsEnabled)
	c.Observability.StatsSchedule = getEnv("STATS_SCHEDULE", c.Observability.StatsSchedule)
	if strings.EqualFold(c.Observability.StatsSchedule, "off") {
		c.Observability.StatsSchedule = ""
	}
	c.Observability.OTelEnabled = getEnvBool("OTEL_ENABLED", c.Observability.OTelEnabled)
	c.Observability.OTelEndpoint = getEnv("OTEL_ENDPOINT", c.Observability.OTelEndpoint)
	c.Observability.OTelInsecure = getEnvBool("OTEL_INSECURE", c.Observability.OTelInsecure)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	// Validate server config
	if c.Server.Port < 1 || c.Server.Port > maxPort {
		return apperror.Configuration("PORT must be between 1 and 65535")
	}
	if c.Server.ShutdownTimeout <= 0 {
		return apperror.Configuration("SHUTDOWN_TIMEOUT must be positive")
	}

	// Validate storage config
	if err := validateDatabaseURL(c.Storage.PostgresURL); err != nil {
		return err
	}
	if c.Storage.MaxConns < 1 {
		return apperror.Configuration("DB_POOL_MAX_CONNECTIONS must be >= 1")
	}
	if c.Storage.MinConns < 0 || c.Storage.MinConns > c.Storage.MaxConns {
		return apperror.Configuration("DB_POOL_MIN_CONNECTIONS must be <= DB_POOL_MAX_CONNECTIONS")
	}
	if !validTimeout(c.Storage.ConnectTimeout) {
		return apperror.Configuration("DB_CONNECT_TIMEOUT_SECS must be between 1 and 60")
	}
	if !validTimeout(c.Storage.AcquireTimeout) {
		return apperror.Configuration("DB_ACQUIRE_TIMEOUT_SECS must be between 1 and 60")
	}

	// Validate cache config
	if c.Storage.CacheEnabled {
		if c.Storage.CacheSize < 1 {
			return apperror.Configuration("CACHE_SIZE must be >= 1")
		}
		if c.Storage.CacheTTL <= 0 {
			return apperror.Configuration("CACHE_TTL must be positive")
		}
		if c.Storage.RedisURL != "" &&
			!strings.HasPrefix(c.Storage.RedisURL, "redis://") && !strings.HasPrefix(c.Storage.RedisURL, "rediss://") {
			return apperror.Configuration("REDIS_URL must start with redis:// or rediss://")
		}
	}

	// Validate observability config
	if c.Observability.StatsSchedule != "" {
		if _, err := cron.ParseStandard(c.Observability.StatsSchedule); err != nil {
			return apperror.Configurationf("STATS_SCHEDULE is not a valid cron schedule: %v", err)
		}
	}

	// Validate OpenTelemetry config
	if c.Observability.OTelEnabled {
		if c.Observability.OTelEndpoint == "" {
			return apperror.Configuration("OpenTelemetry endpoint is required when OTel is enabled")
		}
		if c.Observability.ServiceName == "" {
			return apperror.Configuration("service name is required when OTel is enabled")
		}
	}

	return nil
}

func validateDatabaseURL(dsn string) error {
	if dsn == "" {
		return apperror.Configuration("Missing env var: DATABASE_URL")
	}
	if !strings.HasPrefix(dsn, "postgres://") && !strings.HasPrefix(dsn, "postgresql://") {
		return apperror.Configuration("DATABASE_URL must start with postgres:// or postgresql://")
	}
	if _, err := pq.ParseURL(dsn); err != nil {
		return apperror.Configuration("DATABASE_URL is not a valid Postgres connection string")
	}
	return nil
}

func validTimeout(d time.Duration) bool {
	return d >= time.Second && d <= maxTimeoutSeconds*time.Second
}

// getEnv returns an environment variable value or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool returns a boolean environment variable or a default
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable or a default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvSeconds reads a whole number of seconds
func getEnvSeconds(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if secs, err := strconv.ParseUint(value, 10, 32); err == nil {
			return time.Duration(secs) * time.Second
		}
	}
	return defaultValue
}

// getEnvDuration returns a duration environment variable or a default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
