package cache

import (
	"context"
	"errors"

	"github.com/ikkim/shopcart-backend/internal/app/model"
)

var ErrCacheMiss = errors.New("cache miss")

// ProductCache stores read-only product display data. It is never consulted
// for stock or order limits.
type ProductCache interface {
	Get(ctx context.Context, productID string) (*model.ProductSummary, error)
	Set(ctx context.Context, summary model.ProductSummary) error
	Delete(ctx context.Context, productID string) error
}

// NoopProductCache never holds entries. A CachedCatalog built on it reads
// every summary from its source.
type NoopProductCache struct{}

func (NoopProductCache) Get(context.Context, string) (*model.ProductSummary, error) {
	return nil, ErrCacheMiss
}

func (NoopProductCache) Set(context.Context, model.ProductSummary) error {
	return nil
}

func (NoopProductCache) Delete(context.Context, string) error {
	return nil
}
