package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/platinummonkey/itemservice/pkg/storage"
)

const keyPrefix = "item:"

// NewRedisClient parses redisURL and verifies the server answers within 5s
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}

	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = time.Second
	opts.WriteTimeout = time.Second
	opts.PoolTimeout = 2 * time.Second

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return client, nil
}

// RedisTier is the shared second-level cache
type RedisTier struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisTier stores items in client with the given expiry
func NewRedisTier(client *redis.Client, ttl time.Duration) *RedisTier {
	return &RedisTier{client: client, ttl: ttl}
}

func itemKey(id int32) string {
	return keyPrefix + strconv.FormatInt(int64(id), 10)
}

// Get returns (nil, false, nil) on a miss
func (t *RedisTier) Get(ctx context.Context, id int32) (*storage.Item, bool, error) {
	key := itemKey(id)

	data, err := t.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	} else if err != nil {
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}

	var item storage.Item
	if err := json.Unmarshal(data, &item); err != nil {
		t.client.Del(ctx, key)
		return nil, false, fmt.Errorf("failed to unmarshal item %d: %w", id, err)
	}

	return &item, true, nil
}

// Set stores item under its id
func (t *RedisTier) Set(ctx context.Context, item *storage.Item) error {
	data, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("failed to marshal item: %w", err)
	}
	return t.client.Set(ctx, itemKey(item.ID), data, t.ttl).Err()
}

// Delete removes id from the tier
func (t *RedisTier) Delete(ctx context.Context, id int32) error {
	return t.client.Del(ctx, itemKey(id)).Err()
}

// Client exposes the connection for readiness checks
func (t *RedisTier) Client() *redis.Client {
	return t.client
}

// Close closes the connection
func (t *RedisTier) Close() error {
	return t.client.Close()
}
