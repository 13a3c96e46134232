package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ikkim/shopcart-backend/internal/app/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

type countingSource struct {
	mu       sync.Mutex
	products map[string]model.Product
	loads    atomic.Int32
	delay    time.Duration
}

func (s *countingSource) FindByID(_ context.Context, id string) (*model.Product, error) {
	s.loads.Add(1)
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &p, nil
}

func (s *countingSource) rename(id, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.products[id]
	p.Name = name
	s.products[id] = p
}

func newCountingSource() *countingSource {
	return &countingSource{products: map[string]model.Product{
		"p-1": {ID: "p-1", Name: "Desk Lamp", ImageKey: "products/p-1/lamp.png"},
		"p-2": {ID: "p-2", Name: "Notebook"},
	}}
}

func TestCachedCatalog_ReadThrough(t *testing.T) {
	redisCache, mr := setupTestRedis(t, time.Minute, 0)
	source := newCountingSource()
	catalog := NewCachedCatalog(redisCache, source)
	ctx := context.Background()

	summary, err := catalog.Summary(ctx, "p-1")
	require.NoError(t, err)
	assert.Equal(t, "Desk Lamp", summary.Name)
	assert.True(t, mr.Exists(cacheKey("p-1")))

	_, err = catalog.Summary(ctx, "p-1")
	require.NoError(t, err)
	assert.Equal(t, int32(1), source.loads.Load())
}

func TestCachedCatalog_ConcurrentMissesShareLoad(t *testing.T) {
	redisCache, _ := setupTestRedis(t, time.Minute, 0)
	source := newCountingSource()
	source.delay = 50 * time.Millisecond
	catalog := NewCachedCatalog(redisCache, source)

	g, ctx := errgroup.WithContext(context.Background())
	for i := 0; i < 10; i++ {
		g.Go(func() error {
			_, err := catalog.Summary(ctx, "p-1")
			return err
		})
	}
	require.NoError(t, g.Wait())
	assert.Less(t, source.loads.Load(), int32(10))
}

func TestCachedCatalog_SummariesSkipsUnknown(t *testing.T) {
	redisCache, _ := setupTestRedis(t, time.Minute, 0)
	catalog := NewCachedCatalog(redisCache, newCountingSource())

	summaries := catalog.Summaries(context.Background(), []string{"p-1", "p-missing", "p-2"})
	assert.Len(t, summaries, 2)
	assert.Equal(t, "Desk Lamp", summaries["p-1"].Name)
	assert.Equal(t, "Notebook", summaries["p-2"].Name)
	_, ok := summaries["p-missing"]
	assert.False(t, ok)
}

func TestCachedCatalog_InvalidateAndRefresh(t *testing.T) {
	redisCache, _ := setupTestRedis(t, time.Minute, 0)
	source := newCountingSource()
	catalog := NewCachedCatalog(redisCache, source)
	ctx := context.Background()

	_, err := catalog.Summary(ctx, "p-2")
	require.NoError(t, err)

	source.rename("p-2", "Dotted Notebook")
	cached, err := catalog.Summary(ctx, "p-2")
	require.NoError(t, err)
	assert.Equal(t, "Notebook", cached.Name, "stale until invalidated")

	require.NoError(t, catalog.Invalidate(ctx, "p-2"))
	fresh, err := catalog.Summary(ctx, "p-2")
	require.NoError(t, err)
	assert.Equal(t, "Dotted Notebook", fresh.Name)

	require.NoError(t, catalog.Refresh(ctx, &model.Product{ID: "p-2", Name: "Grid Notebook"}))
	refreshed, err := catalog.Summary(ctx, "p-2")
	require.NoError(t, err)
	assert.Equal(t, "Grid Notebook", refreshed.Name)
	assert.Equal(t, int32(2), source.loads.Load())
}

func TestCachedCatalog_FallsBackWhenRedisDown(t *testing.T) {
	redisCache, mr := setupTestRedis(t, time.Minute, 0)
	catalog := NewCachedCatalog(redisCache, newCountingSource())
	mr.Close()

	summary, err := catalog.Summary(context.Background(), "p-1")
	require.NoError(t, err)
	assert.Equal(t, "Desk Lamp", summary.Name)
}

func TestCachedCatalog_NoopCacheReadsSource(t *testing.T) {
	source := newCountingSource()
	catalog := NewCachedCatalog(NoopProductCache{}, source)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		summary, err := catalog.Summary(ctx, "p-1")
		require.NoError(t, err)
		assert.Equal(t, "Desk Lamp", summary.Name)
		assert.Equal(t, "products/p-1/lamp.png", summary.ImageKey)
	}
	assert.Equal(t, int32(2), source.loads.Load())

	source.rename("p-1", "Floor Lamp")
	summaries := catalog.Summaries(ctx, []string{"p-1", "p-2", "p-missing"})
	assert.Len(t, summaries, 2)
	assert.Equal(t, "Floor Lamp", summaries["p-1"].Name)

	assert.NoError(t, catalog.Invalidate(ctx, "p-1"))
}
