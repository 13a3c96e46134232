package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type Cart struct {
	ID        string          `gorm:"type:varchar(36);primaryKey" json:"id"`
	UserID    string          `gorm:"type:varchar(64);not null;uniqueIndex" json:"user_id"`
	Subtotal  decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"subtotal"`
	Total     decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"total"`
	Version   int             `gorm:"not null;default:1" json:"version"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`

	// Relationships
	Items []CartItem `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE" json:"items"`
}

func (Cart) TableName() string {
	return "carts"
}

type CartItem struct {
	ID        string          `gorm:"type:varchar(36);primaryKey" json:"id"`
	CartID    string          `gorm:"type:varchar(36);not null;uniqueIndex:idx_cart_items_cart_product" json:"cart_id"`
	ProductID string          `gorm:"type:varchar(36);not null;uniqueIndex:idx_cart_items_cart_product" json:"product_id"`
	Quantity  int             `gorm:"not null" json:"quantity"`
	Price     decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"price"` // snapshot taken on first add
	Subtotal  decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"subtotal"`
	Position  int             `gorm:"not null;default:0" json:"-"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func (CartItem) TableName() string {
	return "cart_items"
}

// NewCart returns an empty cart for userID with zeroed totals.
func NewCart(id, userID string) *Cart {
	return &Cart{
		ID:       id,
		UserID:   userID,
		Subtotal: decimal.Zero,
		Total:    decimal.Zero,
		Version:  1,
		Items:    []CartItem{},
	}
}

// RecalculateTotals recomputes every item subtotal and the cart totals from
// scratch. Stored subtotals are never trusted.
func (c *Cart) RecalculateTotals() {
	subtotal := decimal.Zero
	for i := range c.Items {
		item := &c.Items[i]
		item.Subtotal = item.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
		subtotal = subtotal.Add(item.Subtotal)
	}
	c.Subtotal = subtotal
	// Tax, shipping and discounts would compose here.
	c.Total = subtotal
}

// FindItem returns the index of the item with itemID, or -1.
func (c *Cart) FindItem(itemID string) int {
	for i := range c.Items {
		if c.Items[i].ID == itemID {
			return i
		}
	}
	return -1
}

// FindItemByProduct returns the index of the line for productID, or -1.
func (c *Cart) FindItemByProduct(productID string) int {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			return i
		}
	}
	return -1
}

// AppendItem adds a new line at the end of the cart.
func (c *Cart) AppendItem(item CartItem) {
	item.CartID = c.ID
	item.Position = len(c.Items)
	c.Items = append(c.Items, item)
}

// RemoveItemAt deletes the line at index i and renumbers positions.
func (c *Cart) RemoveItemAt(i int) {
	c.Items = append(c.Items[:i], c.Items[i+1:]...)
	for j := range c.Items {
		c.Items[j].Position = j
	}
}

// ClearItems empties the cart and zeroes its totals.
func (c *Cart) ClearItems() {
	c.Items = []CartItem{}
	c.RecalculateTotals()
}

func (c *Cart) ItemCount() int {
	count := 0
	for _, item := range c.Items {
		count += item.Quantity
	}
	return count
}

// Clone returns a deep copy so callers can mutate without touching the original.
func (c *Cart) Clone() *Cart {
	clone := *c
	clone.Items = make([]CartItem, len(c.Items))
	copy(clone.Items, c.Items)
	return &clone
}
