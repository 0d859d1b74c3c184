package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/platinummonkey/itemservice/pkg/observability"

// StoreMetrics records item store and cache instruments through OpenTelemetry.
// These are exported over OTLP and are separate from the /metrics exposition.
type StoreMetrics struct {
	dbQueriesTotal   metric.Int64Counter
	dbQueryDuration  metric.Float64Histogram
	cacheHitsTotal   metric.Int64Counter
	cacheMissesTotal metric.Int64Counter
	cacheEvictions   metric.Int64Counter
}

// NewStoreMetrics creates the instruments on mp, or on the global provider when mp is nil
func NewStoreMetrics(mp metric.MeterProvider) (*StoreMetrics, error) {
	if mp == nil {
		mp = otel.GetMeterProvider()
	}
	meter := mp.Meter(meterName)

	m := &StoreMetrics{}
	var err error

	m.dbQueriesTotal, err = meter.Int64Counter(
		"db.queries.total",
		metric.WithDescription("Total number of database queries"),
		metric.WithUnit("{query}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create db.queries.total counter: %w", err)
	}

	m.dbQueryDuration, err = meter.Float64Histogram(
		"db.query.duration",
		metric.WithDescription("Database query duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create db.query.duration histogram: %w", err)
	}

	m.cacheHitsTotal, err = meter.Int64Counter(
		"cache.hits.total",
		metric.WithDescription("Total number of item cache hits"),
		metric.WithUnit("{hit}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create cache.hits.total counter: %w", err)
	}

	m.cacheMissesTotal, err = meter.Int64Counter(
		"cache.misses.total",
		metric.WithDescription("Total number of item cache misses"),
		metric.WithUnit("{miss}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create cache.misses.total counter: %w", err)
	}

	m.cacheEvictions, err = meter.Int64Counter(
		"cache.evictions.total",
		metric.WithDescription("Total number of in-process cache evictions"),
		metric.WithUnit("{eviction}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create cache.evictions.total counter: %w", err)
	}

	return m, nil
}

// RecordDBQuery records one database round trip
func (m *StoreMetrics) RecordDBQuery(ctx context.Context, operation string, duration time.Duration, err error) {
	attrs := metric.WithAttributes(
		attribute.String("db.operation", operation),
		attribute.Bool("error", err != nil),
	)

	m.dbQueriesTotal.Add(ctx, 1, attrs)
	m.dbQueryDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordCacheHit records a hit in the given tier ("memory" or "redis")
func (m *StoreMetrics) RecordCacheHit(ctx context.Context, tier string) {
	m.cacheHitsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("cache.tier", tier)))
}

// RecordCacheMiss records a miss in the given tier
func (m *StoreMetrics) RecordCacheMiss(ctx context.Context, tier string) {
	m.cacheMissesTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("cache.tier", tier)))
}

// RecordCacheEviction records an in-process eviction
func (m *StoreMetrics) RecordCacheEviction(ctx context.Context) {
	m.cacheEvictions.Add(ctx, 1)
}
