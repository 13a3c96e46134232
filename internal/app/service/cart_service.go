package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ikkim/shopcart-backend/internal/app/model"
	"github.com/ikkim/shopcart-backend/internal/app/repository"
	"github.com/ikkim/shopcart-backend/pkg/logger"
	"gorm.io/gorm"
)

type CartService interface {
	GetOrCreateCart(ctx context.Context, userID string) (*model.Cart, error)
	GetCart(ctx context.Context, userID string) (*CartDetail, error)
	Describe(ctx context.Context, cart *model.Cart) *CartDetail
	AddItem(ctx context.Context, userID, productID string, quantity int) (*model.Cart, error)
	UpdateItemQuantity(ctx context.Context, userID, itemID string, quantity int) (*model.Cart, error)
	RemoveItem(ctx context.Context, userID, itemID string) (*model.Cart, error)
	ClearCart(ctx context.Context, userID string) error
}

// ProductCatalog serves cached display data for cart reads.
type ProductCatalog interface {
	Summaries(ctx context.Context, ids []string) map[string]model.ProductSummary
	Invalidate(ctx context.Context, productID string) error
}

// ImageResolver turns a stored image key into a URL a client can fetch.
type ImageResolver interface {
	ResolveURL(ctx context.Context, key string) (string, error)
}

// CartNotifier is told about every committed cart change, with display
// fields resolved.
type CartNotifier interface {
	NotifyCartUpdated(userID string, detail *CartDetail)
}

type CartItemDetail struct {
	model.CartItem
	ProductName string
	ImageURL    string
}

// CartDetail is a cart with display fields resolved for each item.
type CartDetail struct {
	Cart  *model.Cart
	Items []CartItemDetail
}

type CartServiceConfig struct {
	DefaultMaxOrderQuantity int
	LockWait                time.Duration
	MaxSaveRetries          int
}

type CartServiceOption func(*cartService)

func WithProductCatalog(catalog ProductCatalog) CartServiceOption {
	return func(s *cartService) { s.catalog = catalog }
}

func WithImageResolver(images ImageResolver) CartServiceOption {
	return func(s *cartService) { s.images = images }
}

func WithCartNotifier(notifier CartNotifier) CartServiceOption {
	return func(s *cartService) { s.notifier = notifier }
}

type cartService struct {
	cartRepo repository.CartRepository
	lookup   ProductLookup
	catalog  ProductCatalog
	images   ImageResolver
	notifier CartNotifier
	locks    *userLocks
	cfg      CartServiceConfig
}

func NewCartService(
	cartRepo repository.CartRepository,
	lookup ProductLookup,
	cfg CartServiceConfig,
	opts ...CartServiceOption,
) CartService {
	if cfg.DefaultMaxOrderQuantity <= 0 {
		cfg.DefaultMaxOrderQuantity = model.DefaultMaxOrderQuantity
	}
	if cfg.MaxSaveRetries <= 0 {
		cfg.MaxSaveRetries = 3
	}

	s := &cartService{
		cartRepo: cartRepo,
		lookup:   lookup,
		locks:    newUserLocks(),
		cfg:      cfg,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *cartService) GetOrCreateCart(ctx context.Context, userID string) (*model.Cart, error) {
	if userID == "" {
		return nil, ErrInvalidUserID
	}

	release, err := s.lockUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	defer release()

	return s.getOrCreate(ctx, userID)
}

func (s *cartService) GetCart(ctx context.Context, userID string) (*CartDetail, error) {
	logger.Debug("Fetching cart", map[string]interface{}{
		"user_id": userID,
	})

	cart, err := s.GetOrCreateCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	detail := s.Describe(ctx, cart)

	logger.Debug("Cart fetched", map[string]interface{}{
		"user_id": userID,
		"cart_id": cart.ID,
		"items":   len(cart.Items),
	})
	return detail, nil
}

// Describe resolves display fields for cart's items. Missing display data
// leaves the fields empty; it never fails the read.
func (s *cartService) Describe(ctx context.Context, cart *model.Cart) *CartDetail {
	detail := &CartDetail{
		Cart:  cart,
		Items: make([]CartItemDetail, len(cart.Items)),
	}
	if len(cart.Items) == 0 {
		return detail
	}

	ids := make([]string, len(cart.Items))
	for i, item := range cart.Items {
		ids[i] = item.ProductID
	}
	summaries := s.summaries(ctx, ids)

	for i, item := range cart.Items {
		detail.Items[i] = CartItemDetail{CartItem: item}
		summary, ok := summaries[item.ProductID]
		if !ok {
			continue
		}
		detail.Items[i].ProductName = summary.Name
		if s.images != nil && summary.ImageKey != "" {
			url, err := s.images.ResolveURL(ctx, summary.ImageKey)
			if err != nil {
				logger.Warn("Failed to resolve product image URL", map[string]interface{}{
					"product_id": item.ProductID,
					"image_key":  summary.ImageKey,
					"error":      err.Error(),
				})
				continue
			}
			detail.Items[i].ImageURL = url
		}
	}

	return detail
}

func (s *cartService) AddItem(ctx context.Context, userID, productID string, quantity int) (*model.Cart, error) {
	logger.Info("Adding item to cart", map[string]interface{}{
		"user_id":    userID,
		"product_id": productID,
		"quantity":   quantity,
	})

	cart, err := s.mutate(ctx, userID, true, func(cart *model.Cart) error {
		product, err := s.lookup.Lookup(ctx, productID)
		if err != nil {
			return err
		}
		if !product.IsActive {
			return productUnavailable(productID)
		}
		if quantity < 1 {
			return ErrInvalidQuantity
		}

		idx := cart.FindItemByProduct(productID)
		candidate := quantity
		if idx >= 0 {
			candidate += cart.Items[idx].Quantity
		}
		if err := s.checkLimits(product, candidate); err != nil {
			return err
		}

		now := time.Now()
		if idx >= 0 {
			cart.Items[idx].Quantity = candidate
			cart.Items[idx].UpdatedAt = now
			return nil
		}
		cart.AppendItem(model.CartItem{
			ID:        uuid.NewString(),
			ProductID: product.ID,
			Quantity:  quantity,
			Price:     product.Price,
			CreatedAt: now,
			UpdatedAt: now,
		})
		return nil
	})
	if err != nil {
		s.logRejection("Cannot add item to cart", err, map[string]interface{}{
			"user_id":    userID,
			"product_id": productID,
			"quantity":   quantity,
		})
		return nil, err
	}

	logger.Info("Item added to cart", map[string]interface{}{
		"user_id":    userID,
		"product_id": productID,
		"total":      cart.Total.StringFixed(2),
	})
	return cart, nil
}

func (s *cartService) UpdateItemQuantity(ctx context.Context, userID, itemID string, quantity int) (*model.Cart, error) {
	logger.Info("Updating cart item quantity", map[string]interface{}{
		"user_id":  userID,
		"item_id":  itemID,
		"quantity": quantity,
	})

	cart, err := s.mutate(ctx, userID, false, func(cart *model.Cart) error {
		idx := cart.FindItem(itemID)
		if idx < 0 {
			return cartItemNotFound(itemID)
		}
		if quantity < 1 {
			return ErrInvalidQuantity
		}

		product, err := s.lookup.Lookup(ctx, cart.Items[idx].ProductID)
		if err != nil {
			return err
		}
		if err := s.checkLimits(product, quantity); err != nil {
			return err
		}

		cart.Items[idx].Quantity = quantity
		cart.Items[idx].UpdatedAt = time.Now()
		return nil
	})
	if err != nil {
		s.logRejection("Cannot update cart item", err, map[string]interface{}{
			"user_id":  userID,
			"item_id":  itemID,
			"quantity": quantity,
		})
		return nil, err
	}

	logger.Info("Cart item quantity updated", map[string]interface{}{
		"user_id": userID,
		"item_id": itemID,
		"total":   cart.Total.StringFixed(2),
	})
	return cart, nil
}

func (s *cartService) RemoveItem(ctx context.Context, userID, itemID string) (*model.Cart, error) {
	logger.Info("Removing item from cart", map[string]interface{}{
		"user_id": userID,
		"item_id": itemID,
	})

	cart, err := s.mutate(ctx, userID, false, func(cart *model.Cart) error {
		idx := cart.FindItem(itemID)
		if idx < 0 {
			return cartItemNotFound(itemID)
		}
		cart.RemoveItemAt(idx)
		return nil
	})
	if err != nil {
		s.logRejection("Cannot remove cart item", err, map[string]interface{}{
			"user_id": userID,
			"item_id": itemID,
		})
		return nil, err
	}

	logger.Info("Item removed from cart", map[string]interface{}{
		"user_id": userID,
		"item_id": itemID,
		"items":   len(cart.Items),
	})
	return cart, nil
}

func (s *cartService) ClearCart(ctx context.Context, userID string) error {
	logger.Info("Clearing cart", map[string]interface{}{
		"user_id": userID,
	})

	_, err := s.mutate(ctx, userID, false, func(cart *model.Cart) error {
		cart.ClearItems()
		return nil
	})
	if errors.Is(err, ErrCartNotFound) {
		logger.Debug("No cart to clear", map[string]interface{}{
			"user_id": userID,
		})
		return nil
	}
	if err != nil {
		s.logRejection("Cannot clear cart", err, map[string]interface{}{
			"user_id": userID,
		})
		return err
	}

	logger.Info("Cart cleared", map[string]interface{}{
		"user_id": userID,
	})
	return nil
}

// mutate runs apply against a private copy of the user's cart under the
// user's lock and persists the result. When another writer got there first
// the whole read-validate-apply cycle is repeated on fresh state.
// Nothing is written if apply returns an error.
func (s *cartService) mutate(ctx context.Context, userID string, createIfMissing bool, apply func(cart *model.Cart) error) (*model.Cart, error) {
	if userID == "" {
		return nil, ErrInvalidUserID
	}

	release, err := s.lockUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	defer release()

	var lastErr error
	for attempt := 1; attempt <= s.cfg.MaxSaveRetries; attempt++ {
		current, err := s.cartRepo.FindByUserID(ctx, userID)
		isNew := false
		switch {
		case err == nil:
		case errors.Is(err, gorm.ErrRecordNotFound) && createIfMissing:
			current = model.NewCart(uuid.NewString(), userID)
			isNew = true
		case errors.Is(err, gorm.ErrRecordNotFound):
			return nil, ErrCartNotFound
		default:
			return nil, fmt.Errorf("load cart: %w", err)
		}

		working := current.Clone()
		if err := apply(working); err != nil {
			return nil, err
		}
		working.RecalculateTotals()

		if isNew {
			if err := s.cartRepo.Create(ctx, current); err != nil {
				if errors.Is(err, gorm.ErrDuplicatedKey) {
					lastErr = err
					continue
				}
				return nil, fmt.Errorf("create cart: %w", err)
			}
			working.CreatedAt = current.CreatedAt
		}

		err = s.cartRepo.Save(ctx, working)
		if err == nil {
			s.notify(ctx, userID, working)
			return working, nil
		}
		if !errors.Is(err, repository.ErrStaleCart) {
			return nil, fmt.Errorf("save cart: %w", err)
		}

		lastErr = err
		logger.Warn("Cart changed during update, retrying", map[string]interface{}{
			"user_id": userID,
			"attempt": attempt,
		})
	}

	return nil, cartConflict(lastErr)
}

func (s *cartService) getOrCreate(ctx context.Context, userID string) (*model.Cart, error) {
	cart, err := s.cartRepo.FindByUserID(ctx, userID)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("load cart: %w", err)
	}

	cart = model.NewCart(uuid.NewString(), userID)
	if err := s.cartRepo.Create(ctx, cart); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// Another instance created it first.
			return s.cartRepo.FindByUserID(ctx, userID)
		}
		return nil, fmt.Errorf("create cart: %w", err)
	}

	logger.Info("Cart created", map[string]interface{}{
		"user_id": userID,
		"cart_id": cart.ID,
	})
	return cart, nil
}

func (s *cartService) checkLimits(product *model.Product, quantity int) error {
	limit := product.OrderLimit(s.cfg.DefaultMaxOrderQuantity)
	if quantity > limit {
		return maxQuantityExceeded(product.Name, limit, quantity)
	}
	if quantity > product.StockQuantity {
		return insufficientStock(product.Name, product.StockQuantity, quantity)
	}
	return nil
}

func (s *cartService) lockUser(ctx context.Context, userID string) (func(), error) {
	lockCtx := ctx
	if s.cfg.LockWait > 0 {
		var cancel context.CancelFunc
		lockCtx, cancel = context.WithTimeout(ctx, s.cfg.LockWait)
		defer cancel()
	}

	release, err := s.locks.acquire(lockCtx, userID)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		logger.Warn("Timed out waiting for cart lock", map[string]interface{}{
			"user_id": userID,
		})
		return nil, cartConflict(err)
	}
	return release, nil
}

// summaries reads display data through the catalog, or straight through the
// product lookup when no catalog is configured.
func (s *cartService) summaries(ctx context.Context, ids []string) map[string]model.ProductSummary {
	if s.catalog != nil {
		return s.catalog.Summaries(ctx, ids)
	}

	result := make(map[string]model.ProductSummary, len(ids))
	for _, id := range ids {
		product, err := s.lookup.Lookup(ctx, id)
		if err != nil {
			logger.Warn("Product display data unavailable", map[string]interface{}{
				"product_id": id,
				"error":      err.Error(),
			})
			continue
		}
		result[id] = product.Summary()
	}
	return result
}

func (s *cartService) notify(ctx context.Context, userID string, cart *model.Cart) {
	if s.notifier == nil {
		return
	}
	s.notifier.NotifyCartUpdated(userID, s.Describe(ctx, cart.Clone()))
}

func (s *cartService) logRejection(msg string, err error, fields map[string]interface{}) {
	var cartErr *CartError
	if errors.As(err, &cartErr) {
		fields["code"] = cartErr.Code
		fields["reason"] = cartErr.Message
		logger.Warn(msg, fields)
		return
	}
	logger.Error(msg, err, fields)
}
