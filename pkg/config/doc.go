// Package config provides application configuration management from
// environment variables.
//
// # Overview
//
// This package loads and validates configuration from environment variables
// with sensible defaults for all settings.
//
// # Configuration Structure
//
// Server settings:
//
//	WARDEN_HOST="0.0.0.0"
//	WARDEN_PORT="8080"
//	WARDEN_HEALTH_PORT="9090"
//	WARDEN_READ_TIMEOUT="15s"
//	WARDEN_WRITE_TIMEOUT="15s"
//
// Store settings:
//
//	WARDEN_STORE_TYPE="memory"  # memory, postgres, sqlite
//	WARDEN_POSTGRES_URL="postgres://localhost/warden"
//	WARDEN_POSTGRES_MAX_CONNS="10"
//	WARDEN_SQLITE_PATH="warden.db"
//
// Closure cache settings:
//
//	WARDEN_REDIS_ENABLED="true"
//	WARDEN_REDIS_ADDR="localhost:6379"
//	WARDEN_REDIS_CACHE_TTL="5m"
//
// Identity directory settings:
//
//	WARDEN_DIRECTORY_FILE="/etc/warden/connections.yaml"
//	WARDEN_DIRECTORY_CACHE_SIZE="256"
//	WARDEN_DIRECTORY_CACHE_TTL="1m"
//
// Snapshot archive settings:
//
//	WARDEN_SNAPSHOT_AUTOSAVE_ENABLED="true"
//	WARDEN_SNAPSHOT_AUTOSAVE_SCHEDULE="0 * * * *"
//	WARDEN_S3_BUCKET="warden-snapshots"
//	WARDEN_S3_REGION="us-east-1"
//
// Observability settings:
//
//	WARDEN_LOG_LEVEL="info"  # debug, info, warn, error
//	WARDEN_METRICS_ENABLED="true"
//	WARDEN_OTEL_ENABLED="true"
//	WARDEN_OTEL_ENDPOINT="otel-collector:4317"
//
// # Usage Example
//
//	cfg, err := config.LoadConfig()
//	if err != nil {
//		log.Fatal(err)
//	}
//
// # Related Packages
//
//   - pkg/store: uses store configuration
//   - pkg/observability: uses observability configuration
package config
