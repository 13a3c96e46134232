package service

import (
	"context"
	"errors"
	"time"

	"github.com/ikkim/shopcart-backend/internal/app/model"
	"github.com/ikkim/shopcart-backend/internal/app/repository"
	"github.com/ikkim/shopcart-backend/pkg/logger"
	"github.com/sony/gobreaker/v2"
	"gorm.io/gorm"
)

// ProductLookup returns the current authoritative product data used for
// cart validation. Implementations must not serve cached values.
type ProductLookup interface {
	Lookup(ctx context.Context, productID string) (*model.Product, error)
}

type ProductLookupConfig struct {
	Timeout                time.Duration
	MaxConsecutiveFailures uint32
	OpenTimeout            time.Duration
}

type productLookup struct {
	productRepo repository.ProductRepository
	timeout     time.Duration
	breaker     *gobreaker.CircuitBreaker[*model.Product]
}

func NewProductLookup(productRepo repository.ProductRepository, cfg ProductLookupConfig) ProductLookup {
	maxFailures := cfg.MaxConsecutiveFailures
	if maxFailures == 0 {
		maxFailures = 5
	}

	settings := gobreaker.Settings{
		Name:        "product-lookup",
		MaxRequests: 1,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed", map[string]interface{}{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			})
		},
		// A missing product is an answer, not an outage.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, gorm.ErrRecordNotFound)
		},
		IsExcluded: func(err error) bool {
			return errors.Is(err, context.Canceled)
		},
	}

	return &productLookup{
		productRepo: productRepo,
		timeout:     cfg.Timeout,
		breaker:     gobreaker.NewCircuitBreaker[*model.Product](settings),
	}
}

func (l *productLookup) Lookup(ctx context.Context, productID string) (*model.Product, error) {
	product, err := l.breaker.Execute(func() (*model.Product, error) {
		callCtx := ctx
		if l.timeout > 0 {
			var cancel context.CancelFunc
			callCtx, cancel = context.WithTimeout(ctx, l.timeout)
			defer cancel()
		}
		return l.productRepo.FindByID(callCtx, productID)
	})
	if err == nil {
		return product, nil
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, productNotFound(productID)
	}

	logger.Warn("Product lookup unavailable", map[string]interface{}{
		"product_id": productID,
		"error":      err.Error(),
	})
	return nil, dependencyUnavailable(err)
}
