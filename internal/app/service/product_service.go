package service

import (
	"context"
	"errors"

	"github.com/ikkim/shopcart-backend/internal/app/model"
	"github.com/ikkim/shopcart-backend/internal/app/repository"
	"github.com/ikkim/shopcart-backend/pkg/logger"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var ErrInvalidProductUpdate = errors.New("invalid product update")

type ProductListOptions struct {
	IncludeInactive bool
	Search          string
	Limit           int
	Offset          int
}

// ProductUpdate carries the fields an operator may change. Nil fields are
// left untouched.
type ProductUpdate struct {
	Name             *string
	Description      *string
	Price            *decimal.Decimal
	StockQuantity    *int
	MaxOrderQuantity *int
	IsActive         *bool
	ImageKey         *string
}

type ProductService interface {
	ListProducts(ctx context.Context, opts ProductListOptions) ([]model.Product, error)
	GetProductByID(ctx context.Context, id string) (*model.Product, error)
	UpdateProduct(ctx context.Context, id string, update ProductUpdate) (*model.Product, error)
}

type productService struct {
	productRepo repository.ProductRepository
	catalog     ProductCatalog
}

// NewProductService builds the catalog service. When catalog is non-nil,
// every product write evicts the cached display entry.
func NewProductService(productRepo repository.ProductRepository, catalog ProductCatalog) ProductService {
	return &productService{
		productRepo: productRepo,
		catalog:     catalog,
	}
}

func (s *productService) ListProducts(ctx context.Context, opts ProductListOptions) ([]model.Product, error) {
	logger.Debug("Listing products", map[string]interface{}{
		"include_inactive": opts.IncludeInactive,
		"search":           opts.Search,
		"limit":            opts.Limit,
		"offset":           opts.Offset,
	})

	products, err := s.productRepo.FindWithFilter(ctx, repository.ProductFilter{
		ActiveOnly: !opts.IncludeInactive,
		Search:     opts.Search,
		Limit:      opts.Limit,
		Offset:     opts.Offset,
	})
	if err != nil {
		logger.Error("Failed to list products", err, nil)
		return nil, err
	}
	return products, nil
}

func (s *productService) GetProductByID(ctx context.Context, id string) (*model.Product, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, productNotFound(id)
		}
		logger.Error("Failed to fetch product", err, map[string]interface{}{
			"product_id": id,
		})
		return nil, err
	}
	return product, nil
}

func (s *productService) UpdateProduct(ctx context.Context, id string, update ProductUpdate) (*model.Product, error) {
	logger.Info("Updating product", map[string]interface{}{
		"product_id": id,
	})

	product, err := s.GetProductByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if update.Name != nil {
		if *update.Name == "" {
			return nil, ErrInvalidProductUpdate
		}
		product.Name = *update.Name
	}
	if update.Description != nil {
		product.Description = *update.Description
	}
	if update.Price != nil {
		// Prices are stored as numeric(12,2); finer amounts would be rounded silently.
		if update.Price.IsNegative() || !update.Price.Equal(update.Price.Round(2)) {
			return nil, ErrInvalidProductUpdate
		}
		product.Price = *update.Price
	}
	if update.StockQuantity != nil {
		if *update.StockQuantity < 0 {
			return nil, ErrInvalidProductUpdate
		}
		product.StockQuantity = *update.StockQuantity
	}
	if update.MaxOrderQuantity != nil {
		if *update.MaxOrderQuantity < 0 {
			return nil, ErrInvalidProductUpdate
		}
		product.MaxOrderQuantity = *update.MaxOrderQuantity
	}
	if update.IsActive != nil {
		product.IsActive = *update.IsActive
	}
	if update.ImageKey != nil {
		product.ImageKey = *update.ImageKey
	}

	if err := s.productRepo.Update(ctx, product); err != nil {
		logger.Error("Failed to update product", err, map[string]interface{}{
			"product_id": id,
		})
		return nil, err
	}

	if s.catalog != nil {
		if err := s.catalog.Invalidate(ctx, id); err != nil {
			logger.Warn("Failed to invalidate product cache", map[string]interface{}{
				"product_id": id,
				"error":      err.Error(),
			})
		}
	}

	logger.Info("Product updated", map[string]interface{}{
		"product_id": id,
	})
	return product, nil
}
