package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/alpha-markets/dropgate/internal/model"
	"github.com/alpha-markets/dropgate/pkg/logx"
)

// StatsCache decorates a Store with a Redis cache for seller stats, the one
// read-heavy aggregate in the data layer. The paywall path never goes
// through it; gated requests stay cache-free.
type StatsCache struct {
	Store
	client *redis.Client
	ttl    time.Duration
}

// NewStatsCache wraps inner with a Redis-backed stats cache.
func NewStatsCache(inner Store, client *redis.Client, ttl time.Duration) *StatsCache {
	return &StatsCache{Store: inner, client: client, ttl: ttl}
}

// NewRedisClient connects to Redis and verifies the connection.
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return client, nil
}

// StatsKey builds the cache key for a seller's stats.
func StatsKey(sellerID int64) string {
	return fmt.Sprintf("seller:%d:stats", sellerID)
}

func (c *StatsCache) SellerStats(ctx context.Context, sellerID int64) (*model.SellerStats, error) {
	key := StatsKey(sellerID)

	cached, err := c.client.Get(ctx, key).Result()
	if err == nil {
		var stats model.SellerStats
		if err := json.Unmarshal([]byte(cached), &stats); err == nil {
			return &stats, nil
		}
		// Corrupt entry; fall through and recompute.
	} else if err != redis.Nil {
		logx.Warn().Err(err).Str("key", key).Msg("stats cache read failed")
	}

	stats, err := c.Store.SellerStats(ctx, sellerID)
	if err != nil {
		return nil, err
	}

	if payload, err := json.Marshal(stats); err == nil {
		if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
			logx.Warn().Err(err).Str("key", key).Msg("stats cache write failed")
		}
	}
	return stats, nil
}

// CreatePurchase invalidates the seller's cached stats after recording the
// sale.
func (c *StatsCache) CreatePurchase(ctx context.Context, p NewPurchase) (*model.Purchase, error) {
	purchase, err := c.Store.CreatePurchase(ctx, p)
	if err != nil {
		return nil, err
	}
	if product, perr := c.Store.ProductByID(ctx, purchase.ProductID); perr == nil {
		c.invalidate(ctx, product.SellerID)
	}
	return purchase, nil
}

// CreateRating invalidates the seller's cached stats after the review.
func (c *StatsCache) CreateRating(ctx context.Context, r NewRating) (*model.Rating, error) {
	rating, err := c.Store.CreateRating(ctx, r)
	if err != nil {
		return nil, err
	}
	c.invalidate(ctx, rating.SellerID)
	return rating, nil
}

func (c *StatsCache) invalidate(ctx context.Context, sellerID int64) {
	if err := c.client.Del(ctx, StatsKey(sellerID)).Err(); err != nil {
		logx.Warn().Err(err).Int64("seller_id", sellerID).Msg("stats cache invalidation failed")
	}
}
