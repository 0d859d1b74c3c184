package main

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/itemservice/pkg/observability"
	"github.com/platinummonkey/itemservice/pkg/storage"
	"github.com/platinummonkey/itemservice/pkg/storage/cache"
)

type staticStore struct{}

func (staticStore) GetItem(ctx context.Context, id int32) (*storage.Item, error) {
	return &storage.Item{ID: id, Name: "widget"}, nil
}

func (staticStore) HealthCheck(ctx context.Context) error { return nil }

func (staticStore) Close() error { return nil }

func TestReportStats(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	itemCache := cache.New(staticStore{}, 32, time.Minute)
	_, _ = itemCache.GetItem(context.Background(), 1)
	_, _ = itemCache.GetItem(context.Background(), 1)

	var buf bytes.Buffer
	reportStats(db, itemCache, observability.NewLogger(observability.InfoLevel, &buf))

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "Pool statistics", line["msg"])
	assert.Equal(t, float64(1), line["db_open"], "sqlmock keeps the connection it pinged on open")
	assert.Equal(t, float64(1), line["cache_hits"])
	assert.Equal(t, float64(1), line["cache_items"])
	assert.InDelta(t, 0.5, line["cache_hit_rate"], 0.001)
}

func TestReportStats_WithoutCache(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	var buf bytes.Buffer
	reportStats(db, nil, observability.NewLogger(observability.InfoLevel, &buf))

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.NotContains(t, line, "cache_hits")
	assert.Contains(t, line, "db_in_use")
}

func TestStartStatsReporter(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	logger := observability.NewLogger(observability.InfoLevel, &bytes.Buffer{})

	_, err = startStatsReporter("not a schedule", db, nil, logger)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid stats schedule")

	reporter, err := startStatsReporter("@every 1h", db, nil, logger)
	require.NoError(t, err)
	assert.Len(t, reporter.Entries(), 1)

	select {
	case <-reporter.Stop().Done():
	case <-time.After(time.Second):
		t.Fatal("reporter did not stop")
	}
}
