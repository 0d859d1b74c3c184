//go:build integration

package postgres

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/platinummonkey/itemservice/pkg/observability"
	"github.com/platinummonkey/itemservice/pkg/storage"
)

const itemsSchema = `
CREATE TABLE items (
	id   INTEGER PRIMARY KEY,
	name TEXT NOT NULL
);
INSERT INTO items (id, name) VALUES (1, 'widget'), (2, 'gadget');
`

func setupItemStore(t *testing.T) *ItemStore {
	t.Helper()

	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:15-alpine",
		tcpostgres.WithDatabase("items_test"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
		tcpostgres.BasicWaitStrategies(),
	)
	require.NoError(t, err, "Failed to start PostgreSQL container")
	t.Cleanup(func() {
		cleanupCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := container.Terminate(cleanupCtx); err != nil {
			t.Logf("Warning: Failed to terminate container: %v", err)
		}
	})

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	cfg := storage.DefaultConfig()
	cfg.PostgresURL = connStr
	cfg.MaxConns = 2
	cfg.MinConns = 1

	store, err := Open(ctx, cfg, observability.NewLogger(observability.InfoLevel, &bytes.Buffer{}))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	_, err = store.DB().ExecContext(ctx, itemsSchema)
	require.NoError(t, err)

	return store
}

func TestItemStore_Integration(t *testing.T) {
	store := setupItemStore(t)
	ctx := context.Background()

	item, err := store.GetItem(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, &storage.Item{ID: 1, Name: "widget"}, item)

	_, err = store.GetItem(ctx, 99)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	assert.NoError(t, store.HealthCheck(ctx))
	assert.Equal(t, 2, store.DB().Stats().MaxOpenConnections)
}
