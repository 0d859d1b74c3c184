package main

import (
	"context"
	"net"
	"net/http"
	"os"

	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/platinummonkey/itemservice/pkg/api"
	"github.com/platinummonkey/itemservice/pkg/apperror"
	"github.com/platinummonkey/itemservice/pkg/config"
	"github.com/platinummonkey/itemservice/pkg/observability"
	"github.com/platinummonkey/itemservice/pkg/storage"
	"github.com/platinummonkey/itemservice/pkg/storage/cache"
	"github.com/platinummonkey/itemservice/pkg/storage/postgres"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		observability.NewLogger(observability.InfoLevel, os.Stderr).Fatalf("Invalid configuration: %v", err)
	}

	logger := observability.NewLogger(cfg.Observability.Level(), os.Stdout).
		WithField("service", cfg.Observability.ServiceName)

	logger.WithFields(map[string]interface{}{
		"port":               cfg.Server.Port,
		"db_pool_max":        cfg.Storage.MaxConns,
		"db_pool_min":        cfg.Storage.MinConns,
		"db_connect_timeout": cfg.Storage.ConnectTimeout.String(),
		"db_acquire_timeout": cfg.Storage.AcquireTimeout.String(),
		"cache_enabled":      cfg.Storage.CacheEnabled,
		"version":            cfg.Observability.ServiceVersion,
	}).Info("Starting item service")

	ctx := context.Background()

	providers, err := observability.InitOTel(ctx, cfg.Observability.OTel(), logger)
	if err != nil {
		logger.Fatalf("Failed to initialize OpenTelemetry: %v", err)
	}

	storeMetrics, err := observability.NewStoreMetrics(nil)
	if err != nil {
		logger.Fatalf("Failed to create store metrics: %v", err)
	}

	pg, err := postgres.Open(ctx, cfg.Storage, logger, postgres.WithMetrics(storeMetrics))
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}

	var (
		store       storage.ItemStore = pg
		itemCache   *cache.Store
		redisClient *redis.Client
	)
	if cfg.Storage.CacheEnabled {
		itemCache, redisClient = newCache(ctx, cfg.Storage, pg, storeMetrics, logger)
		store = itemCache
	}

	registry := observability.NewHTTPRegistry()
	registry.MustRegisterCollector(collectors.NewDBStatsCollector(pg.DB(), "items"))
	if cfg.Observability.RuntimeMetricsEnabled {
		registry.RegisterRuntimeCollectors()
	}

	health := observability.NewHealthChecker(pg.DB(), redisClient, cfg.Observability.ServiceVersion)
	server := api.NewServer(store, registry, health, logger, api.WithServiceName(cfg.Observability.ServiceName))

	httpServer := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      server,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	listener, err := net.Listen("tcp", httpServer.Addr)
	if err != nil {
		logger.Fatalf("Failed to listen: %v", apperror.IO(err))
	}
	logger.WithField("addr", listener.Addr().String()).Info("Listening")

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- httpServer.Serve(listener)
	}()

	shutdown := observability.NewShutdownManager(logger, httpServer, cfg.Server.ShutdownTimeout)

	if cfg.Observability.StatsSchedule != "" {
		reporter, err := startStatsReporter(cfg.Observability.StatsSchedule, pg.DB(), itemCache, logger)
		if err != nil {
			logger.Fatalf("Failed to schedule stats reporter: %v", err)
		}
		shutdown.RegisterShutdownFunc("stats-reporter", func(ctx context.Context) error {
			select {
			case <-reporter.Stop().Done():
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
	}

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		watchCtx, stopWatch := context.WithCancel(ctx)
		go func() {
			defer observability.RecoverPanic(logger, "config watcher")
			err := config.Watch(watchCtx, path, logger, func(c *config.Config) {
				logger.SetLevel(c.Observability.Level())
			})
			if err != nil {
				logger.WithError(err).Warn("Config watcher stopped")
			}
		}()
		shutdown.RegisterShutdownFunc("config-watcher", func(context.Context) error {
			stopWatch()
			return nil
		})
	}

	shutdown.RegisterShutdownFunc("store", func(context.Context) error {
		return store.Close()
	})
	shutdown.RegisterShutdownFunc("otel", func(ctx context.Context) error {
		return observability.ShutdownOTel(ctx, providers, logger)
	})

	if err := shutdown.WaitForShutdown(serverErr); err != nil {
		logger.WithError(err).Error("Shutdown completed with errors")
		os.Exit(1)
	}
}

// newCache wraps db with the read-through cache. An unreachable Redis degrades to
// the in-process tier; the returned client is nil in that case.
func newCache(ctx context.Context, cfg storage.Config, db storage.ItemStore, metrics *observability.StoreMetrics, logger *observability.Logger) (*cache.Store, *redis.Client) {
	opts := []cache.Option{cache.WithMetrics(metrics)}

	var client *redis.Client
	if cfg.RedisURL != "" {
		c, err := cache.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			logger.WithError(err).Warn("Redis unavailable, using in-process cache only")
		} else {
			client = c
			opts = append(opts, cache.WithRedis(cache.NewRedisTier(client, cfg.CacheTTL)))
		}
	}

	logger.WithFields(map[string]interface{}{
		"size":  cfg.CacheSize,
		"ttl":   cfg.CacheTTL.String(),
		"redis": client != nil,
	}).Info("Item cache enabled")

	return cache.New(db, cfg.CacheSize, cfg.CacheTTL, opts...), client
}
