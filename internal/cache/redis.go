package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/ikkim/shopcart-backend/internal/app/model"
	"github.com/redis/go-redis/v9"
)

type RedisProductCache struct {
	client  *redis.Client
	baseTTL time.Duration
	jitter  time.Duration
}

func NewRedisProductCache(client *redis.Client, baseTTL, jitter time.Duration) *RedisProductCache {
	if baseTTL <= 0 {
		baseTTL = 10 * time.Minute
	}
	return &RedisProductCache{
		client:  client,
		baseTTL: baseTTL,
		jitter:  jitter,
	}
}

func (r *RedisProductCache) Get(ctx context.Context, productID string) (*model.ProductSummary, error) {
	data, err := r.client.Get(ctx, cacheKey(productID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var summary model.ProductSummary
	if err := json.Unmarshal(data, &summary); err != nil {
		return nil, fmt.Errorf("unmarshal product summary failed: %w", err)
	}
	return &summary, nil
}

func (r *RedisProductCache) Set(ctx context.Context, summary model.ProductSummary) error {
	data, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("marshal product summary failed: %w", err)
	}

	if err := r.client.Set(ctx, cacheKey(summary.ID), data, r.ttl()).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (r *RedisProductCache) Delete(ctx context.Context, productID string) error {
	if err := r.client.Del(ctx, cacheKey(productID)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

// ttl spreads expiry so entries warmed together do not expire together.
func (r *RedisProductCache) ttl() time.Duration {
	if r.jitter <= 0 {
		return r.baseTTL
	}
	return r.baseTTL + time.Duration(rand.Int63n(int64(r.jitter)))
}

func cacheKey(productID string) string {
	return fmt.Sprintf("product:summary:%s", productID)
}
