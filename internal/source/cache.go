package source

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/wolfman30/schedule-availability/internal/observability/metrics"
	"github.com/wolfman30/schedule-availability/internal/schedule"
	"github.com/wolfman30/schedule-availability/pkg/logging"
)

const cacheKeyPrefix = "schedule:snapshot:"

// CachedFetcher keeps raw snapshots in Redis, keyed by source URL, so several
// processes can share one upstream fetch. Redis failures fall through to the
// wrapped fetcher.
type CachedFetcher struct {
	next    schedule.Fetcher
	redis   *redis.Client
	ttl     time.Duration
	logger  *logging.Logger
	metrics *metrics.ScheduleMetrics
	tracer  trace.Tracer
}

// NewCachedFetcher wraps next with a Redis cache. A non-positive ttl stores
// entries without expiry.
func NewCachedFetcher(next schedule.Fetcher, client *redis.Client, ttl time.Duration, logger *logging.Logger, m *metrics.ScheduleMetrics) *CachedFetcher {
	if logger == nil {
		logger = logging.Default()
	}
	if ttl < 0 {
		ttl = 0
	}
	return &CachedFetcher{
		next:    next,
		redis:   client,
		ttl:     ttl,
		logger:  logger,
		metrics: m,
		tracer:  otel.Tracer("schedule.internal.source.cache"),
	}
}

func (c *CachedFetcher) key(sourceURL string) string {
	sum := sha256.Sum256([]byte(sourceURL))
	return cacheKeyPrefix + hex.EncodeToString(sum[:])
}

// Fetch returns the cached snapshot for sourceURL or fetches and stores it.
// Payloads the model would reject are returned uncached so the caller sees
// the error and the next fetch goes upstream again.
func (c *CachedFetcher) Fetch(ctx context.Context, sourceURL string) (*schedule.Snapshot, error) {
	ctx, span := c.tracer.Start(ctx, "source.cache.fetch")
	defer span.End()

	key := c.key(sourceURL)
	if snap, ok := c.lookup(ctx, key); ok {
		span.SetAttributes(attribute.Bool("cache.hit", true))
		c.metrics.ObserveCache(true)
		c.logger.Debug("schedule cache hit", "url", sourceURL)
		return snap, nil
	}
	span.SetAttributes(attribute.Bool("cache.hit", false))
	c.metrics.ObserveCache(false)

	snap, err := c.next.Fetch(ctx, sourceURL)
	if err != nil {
		return nil, err
	}
	if err := schedule.Validate(snap); err != nil {
		span.SetAttributes(attribute.Bool("cache.skipped", true))
		c.logger.Warn("not caching invalid schedule payload", "url", sourceURL, "error", err)
		return snap, nil
	}

	data, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := c.redis.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Warn("schedule cache write failed", "url", sourceURL, "error", err)
	}
	return snap, nil
}

func (c *CachedFetcher) lookup(ctx context.Context, key string) (*schedule.Snapshot, bool) {
	data, err := c.redis.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		c.logger.Warn("schedule cache read failed", "key", key, "error", err)
		return nil, false
	}
	snap, err := Decode(data)
	if err != nil {
		c.logger.Warn("dropping corrupt schedule cache entry", "key", key, "error", err)
		_ = c.redis.Del(ctx, key).Err()
		return nil, false
	}
	return snap, true
}

// Invalidate removes the cached snapshot for sourceURL.
func (c *CachedFetcher) Invalidate(ctx context.Context, sourceURL string) error {
	if err := c.redis.Del(ctx, c.key(sourceURL)).Err(); err != nil {
		return fmt.Errorf("invalidate schedule cache: %w", err)
	}
	return nil
}
