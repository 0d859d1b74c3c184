// Package config loads and validates the item service configuration.
//
// Defaults are overlaid by an optional YAML file named by CONFIG_FILE, then by
// environment variables:
//
//	DATABASE_URL="postgres://app:secret@db:5432/items"  # required
//	PORT="8080"
//	DB_POOL_MAX_CONNECTIONS="10"
//	DB_POOL_MIN_CONNECTIONS="0"
//	DB_CONNECT_TIMEOUT_SECS="5"   # 1-60
//	DB_ACQUIRE_TIMEOUT_SECS="2"   # 1-60
//	LOG_LEVEL="info"
//	SERVICE_NAME="itemservice"
//	SHUTDOWN_TIMEOUT="30s"
//	OTEL_ENABLED="false"
//	OTEL_ENDPOINT="localhost:4317"
//	CACHE_ENABLED="false"
//	CACHE_SIZE="1024"
//	CACHE_TTL="1m"
//	REDIS_URL="redis://cache:6379/0"
//	STATS_SCHEDULE="@every 5m"    # "off" disables the stats log line
//
// Numbers that fail to parse fall back to the current value. Values that parse
// but are out of range make Load return an apperror.KindConfiguration error,
// which callers treat as fatal.
package config
