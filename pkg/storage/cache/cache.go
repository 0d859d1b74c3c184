package cache

import (
	"context"
	"errors"
	"strconv"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"

	"github.com/platinummonkey/itemservice/pkg/observability"
	"github.com/platinummonkey/itemservice/pkg/storage"
)

const (
	tierMemory = "memory"
	tierRedis  = "redis"

	minEntries = 16
)

// Store is a read-through cache in front of another storage.ItemStore.
//
// Lookups try the in-process LRU, then Redis when configured, then the backing store.
// Concurrent misses for the same id share one backing lookup. Errors, including
// storage.ErrNotFound, are never cached. Redis failures are logged and bypassed.
type Store struct {
	next    storage.ItemStore
	memory  *lru.LRU[int32, storage.Item]
	redis   *RedisTier
	group   singleflight.Group
	metrics *observability.StoreMetrics

	hits   atomic.Int64
	misses atomic.Int64
}

var _ storage.ItemStore = (*Store)(nil)

// Option configures a Store
type Option func(*Store)

// WithRedis adds a shared second tier
func WithRedis(tier *RedisTier) Option {
	return func(s *Store) {
		s.redis = tier
	}
}

// WithMetrics records hits, misses and evictions on m
func WithMetrics(m *observability.StoreMetrics) Option {
	return func(s *Store) {
		s.metrics = m
	}
}

// New wraps next with an LRU of size entries expiring after ttl
func New(next storage.ItemStore, size int, ttl time.Duration, opts ...Option) *Store {
	s := &Store{next: next}
	for _, opt := range opts {
		opt(s)
	}

	if size < minEntries {
		size = minEntries
	}
	s.memory = lru.NewLRU[int32, storage.Item](size, s.onEvict, ttl)

	return s
}

func (s *Store) onEvict(int32, storage.Item) {
	if s.metrics != nil {
		s.metrics.RecordCacheEviction(context.Background())
	}
}

// GetItem implements storage.ItemReader
func (s *Store) GetItem(ctx context.Context, id int32) (*storage.Item, error) {
	if item, ok := s.memory.Get(id); ok {
		s.recordHit(ctx, tierMemory)
		return &item, nil
	}
	s.recordMiss(ctx, tierMemory)

	// The shared load outlives any single caller; each caller still honors its own ctx.
	loadCtx := context.WithoutCancel(ctx)
	ch := s.group.DoChan(strconv.FormatInt(int64(id), 10), func() (interface{}, error) {
		return s.load(loadCtx, id)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		item := res.Val.(storage.Item)
		return &item, nil
	}
}

func (s *Store) load(ctx context.Context, id int32) (storage.Item, error) {
	if s.redis != nil {
		item, ok, err := s.redis.Get(ctx, id)
		switch {
		case err != nil:
			observability.FromContext(ctx).WithError(err).Warn("Redis lookup failed, falling back to database")
		case ok:
			s.recordHit(ctx, tierRedis)
			s.memory.Add(id, *item)
			return *item, nil
		default:
			s.recordMiss(ctx, tierRedis)
		}
	}

	item, err := s.next.GetItem(ctx, id)
	if err != nil {
		return storage.Item{}, err
	}

	s.memory.Add(id, *item)
	if s.redis != nil {
		if err := s.redis.Set(ctx, item); err != nil {
			observability.FromContext(ctx).WithError(err).Warn("Redis store failed")
		}
	}

	return *item, nil
}

// Invalidate drops id from both tiers
func (s *Store) Invalidate(ctx context.Context, id int32) error {
	s.memory.Remove(id)
	if s.redis != nil {
		return s.redis.Delete(ctx, id)
	}
	return nil
}

// Stats is a snapshot of in-process cache counters
type Stats struct {
	Hits      int64
	Misses    int64
	ItemCount int
	HitRate   float64
}

// Stats returns the in-process hit and miss counts
func (s *Store) Stats() Stats {
	stats := Stats{
		Hits:      s.hits.Load(),
		Misses:    s.misses.Load(),
		ItemCount: s.memory.Len(),
	}
	if total := stats.Hits + stats.Misses; total > 0 {
		stats.HitRate = float64(stats.Hits) / float64(total)
	}
	return stats
}

// HealthCheck delegates to the backing store; Redis is optional
func (s *Store) HealthCheck(ctx context.Context) error {
	return s.next.HealthCheck(ctx)
}

// Close purges the LRU and closes Redis and the backing store
func (s *Store) Close() error {
	s.memory.Purge()

	var errs []error
	if s.redis != nil {
		errs = append(errs, s.redis.Close())
	}
	errs = append(errs, s.next.Close())
	return errors.Join(errs...)
}

func (s *Store) recordHit(ctx context.Context, tier string) {
	if tier == tierMemory {
		s.hits.Add(1)
	}
	if s.metrics != nil {
		s.metrics.RecordCacheHit(ctx, tier)
	}
}

func (s *Store) recordMiss(ctx context.Context, tier string) {
	if tier == tierMemory {
		s.misses.Add(1)
	}
	if s.metrics != nil {
		s.metrics.RecordCacheMiss(ctx, tier)
	}
}
