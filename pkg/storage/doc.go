// Package storage defines the item record and the store interfaces used by the API.
//
// Implementations live in subpackages:
//
//   - postgres: connection-pooled PostgreSQL store (lib/pq)
//   - cache: read-through decorator with an in-process LRU and optional Redis tier
//
// Every lookup takes a context so request cancellation and deadlines reach the
// database. A missing row is reported as ErrNotFound, never as a nil item with a
// nil error.
//
//	store, err := postgres.Open(ctx, cfg, logger)
//	if err != nil {
//		return err
//	}
//	defer store.Close()
//
//	item, err := store.GetItem(ctx, 42)
//	if errors.Is(err, storage.ErrNotFound) {
//		...
//	}
package storage
