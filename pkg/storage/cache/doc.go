// Package cache provides a read-through item cache that wraps any storage.ItemStore.
//
// The first tier is an in-process expirable LRU. An optional Redis tier is shared
// between replicas. Only successful lookups are cached.
package cache
