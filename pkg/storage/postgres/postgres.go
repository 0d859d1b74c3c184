package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/platinummonkey/itemservice/pkg/apperror"
	"github.com/platinummonkey/itemservice/pkg/observability"
	"github.com/platinummonkey/itemservice/pkg/storage"
)

const (
	getItemQuery = `SELECT id, name FROM items WHERE id = $1`

	tracerName = "github.com/platinummonkey/itemservice/pkg/storage/postgres"
)

// ItemStore implements storage.ItemStore on a pooled *sql.DB
type ItemStore struct {
	db             *sql.DB
	acquireTimeout time.Duration
	metrics        *observability.StoreMetrics
	tracer         trace.Tracer
}

var _ storage.ItemStore = (*ItemStore)(nil)

// Option configures an ItemStore
type Option func(*ItemStore)

// WithMetrics records query counts and latency on m
func WithMetrics(m *observability.StoreMetrics) Option {
	return func(s *ItemStore) {
		s.metrics = m
	}
}

// WithTracerProvider overrides the global tracer provider
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(s *ItemStore) {
		s.tracer = tp.Tracer(tracerName)
	}
}

// NewItemStore wraps an already configured handle
func NewItemStore(db *sql.DB, acquireTimeout time.Duration, opts ...Option) *ItemStore {
	s := &ItemStore{
		db:             db,
		acquireTimeout: acquireTimeout,
		tracer:         otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open connects to cfg.PostgresURL and returns a ready store
func Open(ctx context.Context, cfg storage.Config, logger *observability.Logger, opts ...Option) (*ItemStore, error) {
	db, err := OpenDB(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	return NewItemStore(db, cfg.AcquireTimeout, opts...), nil
}

// GetItem waits at most the acquire timeout for a pooled connection, then runs the
// lookup under the caller's context
func (s *ItemStore) GetItem(ctx context.Context, id int32) (item *storage.Item, err error) {
	ctx, span := s.tracer.Start(ctx, "postgres.get_item",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("db.system", "postgresql"),
			attribute.Int("item.id", int(id)),
		),
	)
	start := time.Now()
	defer func() {
		failure := err
		if errors.Is(err, storage.ErrNotFound) {
			failure = nil
		}
		if failure != nil {
			span.RecordError(failure)
			span.SetStatus(codes.Error, failure.Error())
		}
		span.End()
		if s.metrics != nil {
			s.metrics.RecordDBQuery(ctx, "get_item", time.Since(start), failure)
		}
	}()

	conn, err := s.acquire(ctx)
	if err != nil {
		return nil, apperror.Store(err)
	}
	defer conn.Close()

	var it storage.Item
	err = conn.QueryRowContext(ctx, getItemQuery, id).Scan(&it.ID, &it.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, apperror.Store(err)
	}

	return &it, nil
}

func (s *ItemStore) acquire(ctx context.Context) (*sql.Conn, error) {
	if s.acquireTimeout <= 0 {
		return s.db.Conn(ctx)
	}

	acquireCtx, cancel := context.WithTimeout(ctx, s.acquireTimeout)
	defer cancel()

	conn, err := s.db.Conn(acquireCtx)
	if err != nil {
		if errors.Is(acquireCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, fmt.Errorf("timed out acquiring connection after %s: %w", s.acquireTimeout, err)
		}
		return nil, err
	}
	return conn, nil
}

// HealthCheck pings the database
func (s *ItemStore) HealthCheck(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("postgres unhealthy: %w", err)
	}
	return nil
}

// DB exposes the pool for stats collection and readiness probes
func (s *ItemStore) DB() *sql.DB {
	return s.db
}

// Close closes the pool
func (s *ItemStore) Close() error {
	return s.db.Close()
}
