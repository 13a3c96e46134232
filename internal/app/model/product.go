package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// DefaultMaxOrderQuantity applies when a product carries no explicit limit.
const DefaultMaxOrderQuantity = 10

type Product struct {
	ID               string          `gorm:"type:varchar(36);primaryKey" json:"id"`
	Name             string          `gorm:"not null" json:"name"`
	Description      string          `gorm:"type:text" json:"description"`
	Price            decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"price"`
	StockQuantity    int             `gorm:"not null;default:0" json:"stock_quantity"`
	MaxOrderQuantity int             `gorm:"not null;default:0" json:"max_order_quantity"`
	IsActive         bool            `gorm:"not null;index" json:"is_active"`
	ImageKey         string          `json:"image_key"` // object key in the image bucket
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

func (Product) TableName() string {
	return "products"
}

// OrderLimit resolves the per-line ceiling, falling back to defaultLimit
// (or DefaultMaxOrderQuantity) when the product has none.
func (p *Product) OrderLimit(defaultLimit int) int {
	if p.MaxOrderQuantity > 0 {
		return p.MaxOrderQuantity
	}
	if defaultLimit > 0 {
		return defaultLimit
	}
	return DefaultMaxOrderQuantity
}

// ProductSummary is the read-only display slice of a product.
type ProductSummary struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	ImageKey string `json:"image_key"`
}

func (p *Product) Summary() ProductSummary {
	return ProductSummary{
		ID:       p.ID,
		Name:     p.Name,
		ImageKey: p.ImageKey,
	}
}
