package repository

import (
	"context"
	"errors"
	"time"

	"github.com/ikkim/shopcart-backend/internal/app/model"
	"github.com/ikkim/shopcart-backend/pkg/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrStaleCart is returned by Save when the stored cart version moved on
// since the cart was loaded.
var ErrStaleCart = errors.New("cart was modified concurrently")

// CartRepository persists whole cart aggregates keyed by user.
// FindByUserID returns gorm.ErrRecordNotFound when the user has no cart and
// Create returns gorm.ErrDuplicatedKey when one already exists.
type CartRepository interface {
	FindByUserID(ctx context.Context, userID string) (*model.Cart, error)
	Create(ctx context.Context, cart *model.Cart) error
	Save(ctx context.Context, cart *model.Cart) error
}

type cartRepository struct {
	db *gorm.DB
}

func NewCartRepository(db *gorm.DB) CartRepository {
	return &cartRepository{db: db}
}

func (r *cartRepository) FindByUserID(ctx context.Context, userID string) (*model.Cart, error) {
	logger.Debug("Finding cart by user ID in database", map[string]interface{}{
		"user_id": userID,
	})

	var cart model.Cart
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Where("user_id = ?", userID).
		First(&cart).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Error("Failed to find cart by user ID in database", err, map[string]interface{}{
				"user_id": userID,
			})
		}
		return nil, err
	}

	if cart.Items == nil {
		cart.Items = []model.CartItem{}
	}
	cart.RecalculateTotals()

	logger.Debug("Cart found by user ID in database", map[string]interface{}{
		"cart_id": cart.ID,
		"user_id": userID,
		"items":   len(cart.Items),
		"version": cart.Version,
	})
	return &cart, nil
}

func (r *cartRepository) Create(ctx context.Context, cart *model.Cart) error {
	logger.Debug("Creating cart in database", map[string]interface{}{
		"cart_id": cart.ID,
		"user_id": cart.UserID,
	})

	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(cart).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			logger.Debug("Cart already exists for user", map[string]interface{}{
				"user_id": cart.UserID,
			})
			return err
		}
		logger.Error("Failed to create cart in database", err, map[string]interface{}{
			"cart_id": cart.ID,
			"user_id": cart.UserID,
		})
		return err
	}

	logger.Debug("Cart created in database", map[string]interface{}{
		"cart_id": cart.ID,
		"user_id": cart.UserID,
	})
	return nil
}

// Save replaces the stored cart and its items with cart in one transaction,
// guarded by the version loaded alongside it. On success cart.Version is
// advanced to the stored value.
func (r *cartRepository) Save(ctx context.Context, cart *model.Cart) error {
	logger.Debug("Saving cart in database", map[string]interface{}{
		"cart_id": cart.ID,
		"user_id": cart.UserID,
		"items":   len(cart.Items),
		"version": cart.Version,
	})

	now := time.Now()
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&model.Cart{}).
			Where("id = ? AND version = ?", cart.ID, cart.Version).
			Updates(map[string]interface{}{
				"subtotal":   cart.Subtotal,
				"total":      cart.Total,
				"version":    cart.Version + 1,
				"updated_at": now,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrStaleCart
		}

		if err := tx.Where("cart_id = ?", cart.ID).Delete(&model.CartItem{}).Error; err != nil {
			return err
		}

		if len(cart.Items) == 0 {
			return nil
		}
		items := make([]model.CartItem, len(cart.Items))
		for i, item := range cart.Items {
			item.CartID = cart.ID
			item.Position = i
			items[i] = item
		}
		return tx.Create(&items).Error
	})
	if err != nil {
		if errors.Is(err, ErrStaleCart) {
			logger.Warn("Cart save rejected: stale version", map[string]interface{}{
				"cart_id": cart.ID,
				"version": cart.Version,
			})
			return err
		}
		logger.Error("Failed to save cart in database", err, map[string]interface{}{
			"cart_id": cart.ID,
			"user_id": cart.UserID,
		})
		return err
	}

	cart.Version++
	cart.UpdatedAt = now
	for i := range cart.Items {
		cart.Items[i].CartID = cart.ID
		cart.Items[i].Position = i
	}

	logger.Debug("Cart saved in database", map[string]interface{}{
		"cart_id": cart.ID,
		"version": cart.Version,
	})
	return nil
}
