package main

import (
	"database/sql"
	"fmt"

	"github.com/robfig/cron/v3"

	"github.com/platinummonkey/itemservice/pkg/observability"
	"github.com/platinummonkey/itemservice/pkg/storage/cache"
)

// startStatsReporter logs pool and cache statistics on schedule. itemCache may be nil.
func startStatsReporter(schedule string, db *sql.DB, itemCache *cache.Store, logger *observability.Logger) (*cron.Cron, error) {
	c := cron.New()

	if _, err := c.AddFunc(schedule, func() {
		reportStats(db, itemCache, logger)
	}); err != nil {
		return nil, fmt.Errorf("invalid stats schedule %q: %w", schedule, err)
	}

	c.Start()
	return c, nil
}

func reportStats(db *sql.DB, itemCache *cache.Store, logger *observability.Logger) {
	defer observability.RecoverPanic(logger, "stats reporter")

	stats := db.Stats()
	fields := map[string]interface{}{
		"db_open":          stats.OpenConnections,
		"db_in_use":        stats.InUse,
		"db_idle":          stats.Idle,
		"db_wait_count":    stats.WaitCount,
		"db_wait_duration": stats.WaitDuration.String(),
	}

	if itemCache != nil {
		cs := itemCache.Stats()
		fields["cache_items"] = cs.ItemCount
		fields["cache_hits"] = cs.Hits
		fields["cache_misses"] = cs.Misses
		fields["cache_hit_rate"] = cs.HitRate
	}

	logger.WithFields(fields).Info("Pool statistics")
}
