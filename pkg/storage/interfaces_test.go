package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Empty(t, cfg.PostgresURL)
	assert.Equal(t, 10, cfg.MaxConns)
	assert.Equal(t, 0, cfg.MinConns)
	assert.Equal(t, 5*time.Second, cfg.ConnectTimeout)
	assert.Equal(t, 2*time.Second, cfg.AcquireTimeout)
	assert.Equal(t, 30*time.Second, cfg.ConnMaxIdleTime)
	assert.Equal(t, 300*time.Second, cfg.ConnMaxLifetime)

	assert.False(t, cfg.CacheEnabled)
	assert.Equal(t, 1024, cfg.CacheSize)
	assert.Equal(t, time.Minute, cfg.CacheTTL)
	assert.Empty(t, cfg.RedisURL)
}

func TestItem_JSON(t *testing.T) {
	data, err := json.Marshal(Item{ID: 1, Name: "widget"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":1,"name":"widget"}`, string(data))
}

func TestErrNotFound_Wrapped(t *testing.T) {
	err := fmt.Errorf("get item 3: %w", ErrNotFound)
	assert.True(t, errors.Is(err, ErrNotFound))
}
