package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/platinummonkey/itemservice/pkg/observability"
	"github.com/platinummonkey/itemservice/pkg/storage"
)

const driverName = "postgres"

// ErrConnectTimeout is returned when the database cannot be reached within ConnectTimeout
var ErrConnectTimeout = errors.New("DB connection timed out while creating pool")

// OpenDB opens a pooled handle, applies the pool limits and verifies connectivity
// within cfg.ConnectTimeout
func OpenDB(ctx context.Context, cfg storage.Config, logger *observability.Logger) (*sql.DB, error) {
	if _, err := pq.ParseURL(cfg.PostgresURL); err != nil {
		return nil, fmt.Errorf("invalid postgres URL: %w", err)
	}

	db, err := sql.Open(driverName, cfg.PostgresURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}

	configurePool(db, cfg)

	if err := connect(ctx, db, cfg); err != nil {
		db.Close()
		return nil, err
	}

	stats := db.Stats()
	logger.WithFields(map[string]interface{}{
		"max_connections":  stats.MaxOpenConnections,
		"open_connections": stats.OpenConnections,
	}).Info("Postgres pool ready")

	return db, nil
}

// configurePool applies the pool bounds. database/sql has no minimum pool size, so
// MinConns is honored by connect opening that many connections up front and the idle
// limit keeping up to MaxConns of them.
func configurePool(db *sql.DB, cfg storage.Config) {
	db.SetMaxOpenConns(cfg.MaxConns)
	db.SetMaxIdleConns(cfg.MaxConns)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
}

// connect pings the database and warms MinConns connections under ConnectTimeout
func connect(ctx context.Context, db *sql.DB, cfg storage.Config) error {
	ctx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	err := db.PingContext(ctx)
	if err == nil {
		err = warm(ctx, db, cfg.MinConns)
	}
	if err == nil {
		return nil
	}

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", ErrConnectTimeout, err)
	}
	return fmt.Errorf("failed to connect to postgres: %w", err)
}

func warm(ctx context.Context, db *sql.DB, n int) error {
	conns := make([]*sql.Conn, 0, n)
	defer func() {
		for _, c := range conns {
			c.Close()
		}
	}()

	for i := 0; i < n; i++ {
		c, err := db.Conn(ctx)
		if err != nil {
			return err
		}
		conns = append(conns, c)
	}
	return nil
}
