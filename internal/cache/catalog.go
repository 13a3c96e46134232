package cache

import (
	"context"
	"errors"
	"sync"

	"github.com/ikkim/shopcart-backend/internal/app/model"
	"github.com/ikkim/shopcart-backend/pkg/logger"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// ProductSource loads products from the system of record on a cache miss.
type ProductSource interface {
	FindByID(ctx context.Context, id string) (*model.Product, error)
}

const summaryFanOut = 8

// CachedCatalog is a read-through view of product display data.
type CachedCatalog struct {
	cache  ProductCache
	source ProductSource
	group  singleflight.Group
}

func NewCachedCatalog(cache ProductCache, source ProductSource) *CachedCatalog {
	return &CachedCatalog{
		cache:  cache,
		source: source,
	}
}

// Summary returns the display data of one product. Concurrent misses for the
// same id share a single load.
func (c *CachedCatalog) Summary(ctx context.Context, productID string) (*model.ProductSummary, error) {
	summary, err := c.cache.Get(ctx, productID)
	if err == nil {
		return summary, nil
	}
	if !errors.Is(err, ErrCacheMiss) {
		logger.Warn("Product cache read failed, falling back to store", map[string]interface{}{
			"product_id": productID,
			"error":      err.Error(),
		})
	}

	v, err, _ := c.group.Do(productID, func() (interface{}, error) {
		product, err := c.source.FindByID(ctx, productID)
		if err != nil {
			return nil, err
		}
		loaded := product.Summary()
		if err := c.cache.Set(ctx, loaded); err != nil {
			logger.Warn("Failed to populate product cache", map[string]interface{}{
				"product_id": productID,
				"error":      err.Error(),
			})
		}
		return &loaded, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*model.ProductSummary), nil
}

// Summaries resolves display data for ids. Products that cannot be resolved
// are left out of the result and logged.
func (c *CachedCatalog) Summaries(ctx context.Context, ids []string) map[string]model.ProductSummary {
	result := make(map[string]model.ProductSummary, len(ids))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(summaryFanOut)
	for _, id := range ids {
		g.Go(func() error {
			summary, err := c.Summary(gctx, id)
			if err != nil {
				logger.Warn("Product display data unavailable", map[string]interface{}{
					"product_id": id,
					"error":      err.Error(),
				})
				return nil
			}
			mu.Lock()
			result[id] = *summary
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	return result
}

// Refresh overwrites the cached entry with product's current data.
func (c *CachedCatalog) Refresh(ctx context.Context, product *model.Product) error {
	return c.cache.Set(ctx, product.Summary())
}

func (c *CachedCatalog) Invalidate(ctx context.Context, productID string) error {
	c.group.Forget(productID)
	return c.cache.Delete(ctx, productID)
}
