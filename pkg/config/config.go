package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/wardenhq/warden/pkg/observability"
	"github.com/wardenhq/warden/pkg/snapshot"
	"github.com/wardenhq/warden/pkg/store"
)

// Config holds all application configuration
type Config struct {
	Server        ServerConfig
	Store         store.Config
	Redis         RedisConfig
	Directory     DirectoryConfig
	Snapshot      SnapshotConfig
	Observability ObservabilityConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	// Health/metrics server (separate port for k8s probes)
	HealthPort string
}

// RedisConfig configures the optional closure cache.
type RedisConfig struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
	CacheTTL time.Duration
}

// DirectoryConfig configures the identity directory.
type DirectoryConfig struct {
	// File is the path to the YAML connections file. Empty disables the
	// file-backed directory; lookups then fall back to name echoing.
	File string

	// LRU cache over directory lookups.
	CacheSize int
	CacheTTL  time.Duration
}

// SnapshotConfig configures periodic snapshot archiving.
type SnapshotConfig struct {
	AutosaveEnabled  bool
	AutosaveSchedule string
	Archive          snapshot.ArchiveConfig
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	LogLevel       logrus.Level
	MetricsEnabled bool
	OTel           observability.OTelConfig
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Server:        loadServerConfig(),
		Store:         loadStoreConfig(),
		Redis:         loadRedisConfig(),
		Directory:     loadDirectoryConfig(),
		Snapshot:      loadSnapshotConfig(),
		Observability: loadObservabilityConfig(),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func loadServerConfig() ServerConfig {
	return ServerConfig{
		Host:            getEnv("WARDEN_HOST", "0.0.0.0"),
		Port:            getEnv("WARDEN_PORT", "8080"),
		ReadTimeout:     getEnvDuration("WARDEN_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:    getEnvDuration("WARDEN_WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:     getEnvDuration("WARDEN_IDLE_TIMEOUT", 60*time.Second),
		ShutdownTimeout: getEnvDuration("WARDEN_SHUTDOWN_TIMEOUT", 30*time.Second),
		HealthPort:      getEnv("WARDEN_HEALTH_PORT", "9090"),
	}
}

func loadStoreConfig() store.Config {
	cfg := store.DefaultConfig()

	if storeType := getEnv("WARDEN_STORE_TYPE", ""); storeType != "" {
		cfg.Type = storeType
	}
	if pgURL := getEnv("WARDEN_POSTGRES_URL", ""); pgURL != "" {
		cfg.PostgresURL = pgURL
	}
	if maxConns := getEnvInt("WARDEN_POSTGRES_MAX_CONNS", 0); maxConns > 0 {
		cfg.PostgresMaxConns = maxConns
	}
	if timeout := getEnvDuration("WARDEN_POSTGRES_TIMEOUT", 0); timeout > 0 {
		cfg.PostgresTimeout = timeout
	}
	if path := getEnv("WARDEN_SQLITE_PATH", ""); path != "" {
		cfg.SQLitePath = path
	}
	return cfg
}

func loadRedisConfig() RedisConfig {
	return RedisConfig{
		Enabled:  getEnvBool("WARDEN_REDIS_ENABLED", false),
		Addr:     getEnv("WARDEN_REDIS_ADDR", "localhost:6379"),
		Password: getEnv("WARDEN_REDIS_PASSWORD", ""),
		DB:       getEnvInt("WARDEN_REDIS_DB", 0),
		CacheTTL: getEnvDuration("WARDEN_REDIS_CACHE_TTL", 5*time.Minute),
	}
}

func loadDirectoryConfig() DirectoryConfig {
	return DirectoryConfig{
		File:      getEnv("WARDEN_DIRECTORY_FILE", ""),
		CacheSize: getEnvInt("WARDEN_DIRECTORY_CACHE_SIZE", 256),
		CacheTTL:  getEnvDuration("WARDEN_DIRECTORY_CACHE_TTL", time.Minute),
	}
}

func loadSnapshotConfig() SnapshotConfig {
	return SnapshotConfig{
		AutosaveEnabled:  getEnvBool("WARDEN_SNAPSHOT_AUTOSAVE_ENABLED", false),
		AutosaveSchedule: getEnv("WARDEN_SNAPSHOT_AUTOSAVE_SCHEDULE", "0 * * * *"),
		Archive: snapshot.ArchiveConfig{
			Bucket:       getEnv("WARDEN_S3_BUCKET", ""),
			Region:       getEnv("WARDEN_S3_REGION", "us-east-1"),
			Endpoint:     getEnv("WARDEN_S3_ENDPOINT", ""),
			AccessKey:    getEnv("WARDEN_S3_ACCESS_KEY", ""),
			SecretKey:    getEnv("WARDEN_S3_SECRET_KEY", ""),
			UsePathStyle: getEnvBool("WARDEN_S3_USE_PATH_STYLE", false),
			Prefix:       getEnv("WARDEN_S3_PREFIX", "snapshots"),
		},
	}
}

func loadObservabilityConfig() ObservabilityConfig {
	return ObservabilityConfig{
		LogLevel:       parseLogLevel(getEnv("WARDEN_LOG_LEVEL", "info")),
		MetricsEnabled: getEnvBool("WARDEN_METRICS_ENABLED", true),
		OTel: observability.OTelConfig{
			Enabled:        getEnvBool("WARDEN_OTEL_ENABLED", false),
			Endpoint:       getEnv("WARDEN_OTEL_ENDPOINT", "localhost:4317"),
			ServiceName:    getEnv("WARDEN_OTEL_SERVICE_NAME", "warden"),
			ServiceVersion: getEnv("WARDEN_OTEL_SERVICE_VERSION", "1.0.0"),
			Insecure:       getEnvBool("WARDEN_OTEL_INSECURE", true),
		},
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if c.Server.HealthPort == "" {
		return fmt.Errorf("health port is required")
	}
	if c.Server.Port == c.Server.HealthPort {
		return fmt.Errorf("server port and health port must be different")
	}

	switch c.Store.Type {
	case "", "memory", "sqlite":
	case "postgres":
		if c.Store.PostgresURL == "" {
			return fmt.Errorf("postgres URL is required for postgres storage")
		}
	default:
		return fmt.Errorf("invalid store type: %s (must be memory, postgres, or sqlite)", c.Store.Type)
	}

	if c.Snapshot.AutosaveEnabled {
		if c.Snapshot.Archive.Bucket == "" {
			return fmt.Errorf("S3 bucket is required when snapshot autosave is enabled")
		}
		if c.Snapshot.AutosaveSchedule == "" {
			return fmt.Errorf("autosave schedule is required when snapshot autosave is enabled")
		}
	}

	if c.Observability.OTel.Enabled {
		if c.Observability.OTel.Endpoint == "" {
			return fmt.Errorf("OpenTelemetry endpoint is required when OTel is enabled")
		}
		if c.Observability.OTel.ServiceName == "" {
			return fmt.Errorf("OpenTelemetry service name is required when OTel is enabled")
		}
	}
	return nil
}

func parseLogLevel(level string) logrus.Level {
	switch strings.ToLower(level) {
	case "debug":
		return logrus.DebugLevel
	case "info":
		return logrus.InfoLevel
	case "warn", "warning":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
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
		return strings.ToLower(value) == "true" || value == "1"
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

// getEnvDuration returns a duration environment variable or a default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
