package scheduler

import (
	"context"
	"time"

	"github.com/ikkim/shopcart-backend/internal/app/model"
	"github.com/ikkim/shopcart-backend/internal/app/repository"
	"github.com/ikkim/shopcart-backend/pkg/logger"
	"github.com/robfig/cron/v3"
)

const warmTimeout = time.Minute

// CatalogRefresher rewrites cached display data for a product.
type CatalogRefresher interface {
	Refresh(ctx context.Context, product *model.Product) error
}

// CacheWarmScheduler periodically reloads display data of active products so
// cart reads rarely miss the cache.
type CacheWarmScheduler struct {
	cron        *cron.Cron
	productRepo repository.ProductRepository
	catalog     CatalogRefresher
}

func NewCacheWarmScheduler(productRepo repository.ProductRepository, catalog CatalogRefresher) *CacheWarmScheduler {
	return &CacheWarmScheduler{
		cron:        cron.New(),
		productRepo: productRepo,
		catalog:     catalog,
	}
}

func (s *CacheWarmScheduler) Start(spec string) error {
	_, err := s.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), warmTimeout)
		defer cancel()

		if _, err := s.WarmOnce(ctx); err != nil {
			logger.Error("Scheduled product cache warm failed", err)
		}
	})
	if err != nil {
		logger.Error("Failed to add cron job for product cache warm", err, map[string]interface{}{
			"spec": spec,
		})
		return err
	}

	s.cron.Start()
	logger.Info("Product cache warm scheduler started", map[string]interface{}{
		"spec": spec,
	})
	return nil
}

// WarmOnce refreshes every active product and returns how many entries were
// written.
func (s *CacheWarmScheduler) WarmOnce(ctx context.Context) (int, error) {
	products, err := s.productRepo.FindWithFilter(ctx, repository.ProductFilter{ActiveOnly: true})
	if err != nil {
		return 0, err
	}

	warmed := 0
	for i := range products {
		if err := s.catalog.Refresh(ctx, &products[i]); err != nil {
			logger.Warn("Failed to warm product cache entry", map[string]interface{}{
				"product_id": products[i].ID,
				"error":      err.Error(),
			})
			continue
		}
		warmed++
	}

	logger.Info("Product cache warmed", map[string]interface{}{
		"products": len(products),
		"warmed":   warmed,
	})
	return warmed, nil
}

func (s *CacheWarmScheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	logger.Info("Product cache warm scheduler stopped")
}
