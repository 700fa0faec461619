package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/phrazzld/adaptive-api/internal/domain"
	"github.com/phrazzld/adaptive-api/internal/platform/logger"
	"github.com/phrazzld/adaptive-api/internal/store"
)

// KeyPrefix namespaces every key this package writes.
const KeyPrefix = "adaptive:stats"

// DefaultStatsTTL is used when a non-positive TTL is configured.
const DefaultStatsTTL = 5 * time.Minute

// Cmdable is the subset of redis.UniversalClient the cache uses.
type Cmdable interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// CachedUserStatsStore decorates a store.UserStatsStore with a Redis
// read-through cache. Writes go to the inner store and then evict the key.
type CachedUserStatsStore struct {
	inner  store.UserStatsStore
	client Cmdable
	ttl    time.Duration
	logger *slog.Logger
}

// NewCachedUserStatsStore wraps inner with a cache backed by client.
// If logger is nil, a default logger will be used.
func NewCachedUserStatsStore(
	inner store.UserStatsStore,
	client Cmdable,
	ttl time.Duration,
	logger *slog.Logger,
) *CachedUserStatsStore {
	if inner == nil {
		panic("inner store cannot be nil")
	}
	if client == nil {
		panic("redis client cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if ttl <= 0 {
		ttl = DefaultStatsTTL
	}

	return &CachedUserStatsStore{
		inner:  inner,
		client: client,
		ttl:    ttl,
		logger: logger.With(slog.String("component", "user_stats_cache")),
	}
}

var (
	_ store.UserStatsStore       = (*CachedUserStatsStore)(nil)
	_ store.UserStatsInvalidator = (*CachedUserStatsStore)(nil)
)

// StatsKey returns the cache key for a user and language.
func StatsKey(userID, learningLanguage string) string {
	return fmt.Sprintf("%s:%s:%s", KeyPrefix, userID, learningLanguage)
}

// Get serves from the cache when possible and fills it on a miss.
// Not-found results are not cached.
func (c *CachedUserStatsStore) Get(ctx context.Context, userID, learningLanguage string) (*domain.UserStats, error) {
	log := logger.FromContextOrDefault(ctx, c.logger)
	key := StatsKey(userID, learningLanguage)

	raw, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var stats domain.UserStats
		jsonErr := json.Unmarshal(raw, &stats)
		if jsonErr == nil {
			log.Debug("user stats cache hit", slog.String("key", key))
			return &stats, nil
		}
		log.Warn("discarding undecodable cached stats",
			slog.String("key", key),
			slog.String("error", jsonErr.Error()))
	case errors.Is(err, redis.Nil):
		log.Debug("user stats cache miss", slog.String("key", key))
	default:
		log.Warn("user stats cache read failed",
			slog.String("key", key),
			slog.String("error", err.Error()))
	}

	stats, err := c.inner.Get(ctx, userID, learningLanguage)
	if err != nil {
		return nil, err
	}

	c.fill(ctx, log, key, stats)
	return stats, nil
}

// Upsert writes through to the inner store and evicts the cached entry.
func (c *CachedUserStatsStore) Upsert(ctx context.Context, stats *domain.UserStats) error {
	if err := c.inner.Upsert(ctx, stats); err != nil {
		return err
	}
	c.Invalidate(ctx, stats.UserID, stats.LearningLanguage)
	return nil
}

// IncrementExercisesCompleted writes through to the inner store and evicts the cached entry.
func (c *CachedUserStatsStore) IncrementExercisesCompleted(ctx context.Context, userID, learningLanguage string) error {
	if err := c.inner.IncrementExercisesCompleted(ctx, userID, learningLanguage); err != nil {
		return err
	}
	c.Invalidate(ctx, userID, learningLanguage)
	return nil
}

// WithTx returns the inner store bound to tx, bypassing the cache. Evicting
// inside the transaction would let a concurrent Get refill the key with the
// pre-commit row, so callers call Invalidate after the commit instead.
func (c *CachedUserStatsStore) WithTx(tx *sql.Tx) store.UserStatsStore {
	return c.inner.WithTx(tx)
}

// Invalidate removes the cached stats for a user and language.
// Failures are logged and otherwise ignored.
func (c *CachedUserStatsStore) Invalidate(ctx context.Context, userID, learningLanguage string) {
	key := StatsKey(userID, learningLanguage)
	if err := c.client.Del(ctx, key).Err(); err != nil {
		logger.FromContextOrDefault(ctx, c.logger).Warn("user stats cache eviction failed",
			slog.String("key", key),
			slog.String("error", err.Error()))
	}
}

func (c *CachedUserStatsStore) fill(ctx context.Context, log *slog.Logger, key string, stats *domain.UserStats) {
	data, err := json.Marshal(stats)
	if err != nil {
		log.Warn("failed to encode stats for cache", slog.String("error", err.Error()))
		return
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		log.Warn("user stats cache write failed",
			slog.String("key", key),
			slog.String("error", err.Error()))
	}
}
