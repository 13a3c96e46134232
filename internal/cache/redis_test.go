package cache

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/ikkim/shopcart-backend/internal/app/model"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T, baseTTL, jitter time.Duration) (*RedisProductCache, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return NewRedisProductCache(client, baseTTL, jitter), mr
}

func TestRedisProductCache_Get(t *testing.T) {
	cache, mr := setupTestRedis(t, time.Minute, 0)

	data, _ := json.Marshal(model.ProductSummary{ID: "p-1", Name: "Desk Lamp", ImageKey: "products/p-1/lamp.png"})
	mr.Set("product:summary:p-1", string(data))

	summary, err := cache.Get(context.Background(), "p-1")
	require.NoError(t, err)
	assert.Equal(t, "Desk Lamp", summary.Name)
	assert.Equal(t, "products/p-1/lamp.png", summary.ImageKey)
}

func TestRedisProductCache_GetMiss(t *testing.T) {
	cache, _ := setupTestRedis(t, time.Minute, 0)

	summary, err := cache.Get(context.Background(), "p-unknown")
	assert.ErrorIs(t, err, ErrCacheMiss)
	assert.Nil(t, summary)
}

func TestRedisProductCache_GetInvalidJSON(t *testing.T) {
	cache, mr := setupTestRedis(t, time.Minute, 0)
	mr.Set(cacheKey("p-1"), "{not json")

	_, err := cache.Get(context.Background(), "p-1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrCacheMiss)
}

func TestRedisProductCache_SetAppliesJitteredTTL(t *testing.T) {
	cache, mr := setupTestRedis(t, time.Minute, 30*time.Second)

	for _, id := range []string{"p-1", "p-2", "p-3"} {
		require.NoError(t, cache.Set(context.Background(), model.ProductSummary{ID: id, Name: id}))

		ttl := mr.TTL(cacheKey(id))
		assert.GreaterOrEqual(t, ttl, time.Minute)
		assert.Less(t, ttl, 90*time.Second)
	}

	mr.FastForward(91 * time.Second)
	_, err := cache.Get(context.Background(), "p-1")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestRedisProductCache_Delete(t *testing.T) {
	cache, mr := setupTestRedis(t, time.Minute, 0)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, model.ProductSummary{ID: "p-1", Name: "Desk Lamp"}))
	require.True(t, mr.Exists(cacheKey("p-1")))

	require.NoError(t, cache.Delete(ctx, "p-1"))
	assert.False(t, mr.Exists(cacheKey("p-1")))
	require.NoError(t, cache.Delete(ctx, "p-1"))
}

func TestRedisProductCache_ServerDown(t *testing.T) {
	cache, mr := setupTestRedis(t, time.Minute, 0)
	mr.Close()

	_, err := cache.Get(context.Background(), "p-1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrCacheMiss)
}
