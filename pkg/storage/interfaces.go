package storage

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by ItemReader when no row matches the id
var ErrNotFound = errors.New("item not found")

// Item is a row of the items table
type Item struct {
	ID   int32  `json:"id"`
	Name string `json:"name"`
}

// ItemReader looks up items by primary key
type ItemReader interface {
	// GetItem returns ErrNotFound when the id does not exist
	GetItem(ctx context.Context, id int32) (*Item, error)
}

// HealthChecker reports backend reachability
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// ItemStore is the read side used by the HTTP handlers
type ItemStore interface {
	ItemReader
	HealthChecker
	Close() error
}

// Config for the item store and its optional cache
type Config struct {
	// PostgreSQL config
	PostgresURL     string        `yaml:"postgres_url"`
	MaxConns        int           `yaml:"max_connections"`
	MinConns        int           `yaml:"min_connections"`
	ConnectTimeout  time.Duration `yaml:"connect_timeout"`
	AcquireTimeout  time.Duration `yaml:"acquire_timeout"`
	ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`

	// Cache config
	CacheEnabled bool          `yaml:"cache_enabled"`
	CacheSize    int           `yaml:"cache_size"`
	CacheTTL     time.Duration `yaml:"cache_ttl"`
	RedisURL     string        `yaml:"redis_url"`
}

// DefaultConfig returns the pool and cache defaults
func DefaultConfig() Config {
	return Config{
		MaxConns:        10,
		MinConns:        0,
		ConnectTimeout:  5 * time.Second,
		AcquireTimeout:  2 * time.Second,
		ConnMaxIdleTime: 30 * time.Second,
		ConnMaxLifetime: 300 * time.Second,
		CacheEnabled:    false,
		CacheSize:       1024,
		CacheTTL:        time.Minute,
	}
}
