package mainconfig

import (
	"context"
	"crypto/tls"
	"fmt"

	"github.com/redis/go-redis/v9"

	appconfig "github.com/wolfman30/schedule-availability/internal/config"
	"github.com/wolfman30/schedule-availability/internal/observability/metrics"
	"github.com/wolfman30/schedule-availability/internal/schedule"
	"github.com/wolfman30/schedule-availability/internal/source"
	"github.com/wolfman30/schedule-availability/pkg/logging"
)

// Fetcher is the snapshot fetcher shared by the API server and the CLI.
// Close releases the Redis connection when caching is enabled.
type Fetcher struct {
	schedule.Fetcher
	redis *redis.Client
}

// Close releases the Redis client, if any.
func (f *Fetcher) Close() error {
	if f.redis == nil {
		return nil
	}
	return f.redis.Close()
}

// Cached reports whether fetches go through the Redis snapshot cache.
func (f *Fetcher) Cached() bool { return f.redis != nil }

// NewFetcher builds the HTTP source client and, when REDIS_ADDR is set, wraps
// it in the Redis snapshot cache. An unreachable Redis fails startup.
func NewFetcher(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, m *metrics.ScheduleMetrics) (*Fetcher, error) {
	client := source.NewClient(cfg.FetchTimeout, logger, source.WithMetrics(m))
	if !cfg.CacheEnabled() {
		return &Fetcher{Fetcher: client}, nil
	}

	opts := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("mainconfig: ping redis %s: %w", cfg.RedisAddr, err)
	}
	logger.Info("schedule snapshot cache enabled", "redis_addr", cfg.RedisAddr, "ttl", cfg.CacheTTL.String())

	return &Fetcher{
		Fetcher: source.NewCachedFetcher(client, rdb, cfg.CacheTTL, logger, m),
		redis:   rdb,
	}, nil
}
