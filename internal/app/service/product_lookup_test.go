package service

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ikkim/shopcart-backend/internal/app/model"
	"github.com/ikkim/shopcart-backend/internal/app/repository"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// stubProductRepo answers FindByID through findFn and counts calls.
type stubProductRepo struct {
	repository.ProductRepository
	calls  atomic.Int32
	findFn func(ctx context.Context, id string) (*model.Product, error)
}

func (r *stubProductRepo) FindByID(ctx context.Context, id string) (*model.Product, error) {
	r.calls.Add(1)
	return r.findFn(ctx, id)
}

func TestProductLookup_ReturnsProduct(t *testing.T) {
	repo := &stubProductRepo{findFn: func(_ context.Context, id string) (*model.Product, error) {
		return &model.Product{ID: id, Name: "Keyboard", Price: decimal.RequireFromString("49.00"), IsActive: true}, nil
	}}
	lookup := NewProductLookup(repo, ProductLookupConfig{Timeout: time.Second})

	product, err := lookup.Lookup(context.Background(), "p-1")
	require.NoError(t, err)
	assert.Equal(t, "Keyboard", product.Name)
}

func TestProductLookup_NotFoundDoesNotTrip(t *testing.T) {
	repo := &stubProductRepo{findFn: func(context.Context, string) (*model.Product, error) {
		return nil, gorm.ErrRecordNotFound
	}}
	lookup := NewProductLookup(repo, ProductLookupConfig{MaxConsecutiveFailures: 2, OpenTimeout: time.Minute})

	for i := 0; i < 5; i++ {
		_, err := lookup.Lookup(context.Background(), "p-missing")
		require.ErrorIs(t, err, ErrProductNotFound)
	}
	assert.Equal(t, int32(5), repo.calls.Load(), "every call must reach the store")
}

func TestProductLookup_OpensAfterConsecutiveFailures(t *testing.T) {
	repo := &stubProductRepo{findFn: func(context.Context, string) (*model.Product, error) {
		return nil, errors.New("connection refused")
	}}
	lookup := NewProductLookup(repo, ProductLookupConfig{MaxConsecutiveFailures: 3, OpenTimeout: time.Minute})

	for i := 0; i < 3; i++ {
		_, err := lookup.Lookup(context.Background(), "p-1")
		require.ErrorIs(t, err, ErrDependencyUnavailable)
	}
	require.Equal(t, int32(3), repo.calls.Load())

	_, err := lookup.Lookup(context.Background(), "p-1")
	var cartErr *CartError
	require.True(t, errors.As(err, &cartErr))
	assert.Equal(t, ErrDependencyUnavailable.Code, cartErr.Code)
	assert.True(t, cartErr.Retryable)
	assert.Equal(t, int32(3), repo.calls.Load(), "open breaker must short-circuit")
}

func TestProductLookup_TimesOutSlowStore(t *testing.T) {
	repo := &stubProductRepo{findFn: func(ctx context.Context, _ string) (*model.Product, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}}
	lookup := NewProductLookup(repo, ProductLookupConfig{Timeout: 20 * time.Millisecond})

	start := time.Now()
	_, err := lookup.Lookup(context.Background(), "p-1")
	require.ErrorIs(t, err, ErrDependencyUnavailable)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)
}
