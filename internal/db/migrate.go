package db

import (
	"github.com/google/uuid"
	"github.com/ikkim/shopcart-backend/internal/app/model"
	"github.com/ikkim/shopcart-backend/pkg/logger"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func models() []interface{} {
	return []interface{}{
		&model.Product{},
		&model.Cart{},
		&model.CartItem{},
	}
}

// AutoMigrate creates or updates the schema on conn.
func AutoMigrate(conn *gorm.DB) error {
	return conn.AutoMigrate(models()...)
}

// Migrate runs database migrations
func Migrate() error {
	logger.Info("Running database migrations...")

	if err := AutoMigrate(DB); err != nil {
		logger.Error("Failed to run migrations", err)
		return err
	}

	logger.Info("Database migrations completed successfully", map[string]interface{}{
		"models_count": len(models()),
	})
	return nil
}

// Seed adds a demo catalog when the product table is empty.
func Seed() error {
	return SeedProducts(DB)
}

func SeedProducts(conn *gorm.DB) error {
	var count int64
	if err := conn.Model(&model.Product{}).Count(&count).Error; err != nil {
		return err
	}

	if count > 0 {
		logger.Info("Products already seeded, skipping...", map[string]interface{}{
			"existing_count": count,
		})
		return nil
	}

	logger.Info("Seeding demo catalog...")

	products := []model.Product{
		{Name: "Wireless Mouse", Description: "2.4GHz ergonomic mouse", Price: decimal.RequireFromString("29.99"), StockQuantity: 100, MaxOrderQuantity: 10, IsActive: true, ImageKey: "products/wireless-mouse.jpg"},
		{Name: "Mechanical Keyboard", Description: "Hot-swappable, brown switches", Price: decimal.RequireFromString("89.50"), StockQuantity: 40, MaxOrderQuantity: 5, IsActive: true, ImageKey: "products/mechanical-keyboard.jpg"},
		{Name: "USB-C Cable", Description: "1m braided cable", Price: decimal.RequireFromString("9.90"), StockQuantity: 500, MaxOrderQuantity: 20, IsActive: true, ImageKey: "products/usb-c-cable.jpg"},
		{Name: "27\" Monitor", Description: "QHD IPS panel", Price: decimal.RequireFromString("319.00"), StockQuantity: 8, MaxOrderQuantity: 2, IsActive: true, ImageKey: "products/monitor-27.jpg"},
		{Name: "Legacy Webcam", Description: "Discontinued model", Price: decimal.RequireFromString("15.00"), StockQuantity: 3, IsActive: false, ImageKey: "products/legacy-webcam.jpg"},
	}

	for i := range products {
		products[i].ID = uuid.NewString()
		if err := conn.Create(&products[i]).Error; err != nil {
			logger.Error("Failed to create product", err, map[string]interface{}{
				"name": products[i].Name,
			})
			return err
		}
	}

	logger.Info("Demo catalog seeded successfully", map[string]interface{}{
		"total_products": len(products),
	})
	return nil
}
