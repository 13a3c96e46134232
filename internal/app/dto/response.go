package dto

import (
	"time"

	"github.com/ikkim/shopcart-backend/internal/app/model"
	"github.com/ikkim/shopcart-backend/internal/app/service"
)

type CartItemResponse struct {
	ID          string `json:"id"`
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
	ImageURL    string `json:"image_url"`
	Quantity    int    `json:"quantity"`
	UnitPrice   string `json:"unit_price"`
	Subtotal    string `json:"subtotal"`
}

// CartResponse is the wire representation of a cart. Money is rendered as
// fixed two-decimal strings.
type CartResponse struct {
	ID        string             `json:"id"`
	UserID    string             `json:"user_id"`
	Items     []CartItemResponse `json:"items"`
	ItemCount int                `json:"item_count"`
	Subtotal  string             `json:"subtotal"`
	Total     string             `json:"total"`
	UpdatedAt time.Time          `json:"updated_at"`
}

func NewCartResponse(detail *service.CartDetail) CartResponse {
	resp := newCartHeader(detail.Cart)
	for _, item := range detail.Items {
		line := newItemResponse(item.CartItem)
		line.ProductName = item.ProductName
		line.ImageURL = item.ImageURL
		resp.Items = append(resp.Items, line)
	}
	return resp
}

func newCartHeader(cart *model.Cart) CartResponse {
	return CartResponse{
		ID:        cart.ID,
		UserID:    cart.UserID,
		Items:     make([]CartItemResponse, 0, len(cart.Items)),
		ItemCount: cart.ItemCount(),
		Subtotal:  cart.Subtotal.StringFixed(2),
		Total:     cart.Total.StringFixed(2),
		UpdatedAt: cart.UpdatedAt,
	}
}

func newItemResponse(item model.CartItem) CartItemResponse {
	return CartItemResponse{
		ID:        item.ID,
		ProductID: item.ProductID,
		Quantity:  item.Quantity,
		UnitPrice: item.Price.StringFixed(2),
		Subtotal:  item.Subtotal.StringFixed(2),
	}
}

type ProductResponse struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	Description      string    `json:"description"`
	Price            string    `json:"price"`
	StockQuantity    int       `json:"stock_quantity"`
	MaxOrderQuantity int       `json:"max_order_quantity"`
	IsActive         bool      `json:"is_active"`
	ImageKey         string    `json:"image_key,omitempty"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// NewProductResponse renders p with its effective order limit.
func NewProductResponse(p *model.Product, defaultLimit int) ProductResponse {
	return ProductResponse{
		ID:               p.ID,
		Name:             p.Name,
		Description:      p.Description,
		Price:            p.Price.StringFixed(2),
		StockQuantity:    p.StockQuantity,
		MaxOrderQuantity: p.OrderLimit(defaultLimit),
		IsActive:         p.IsActive,
		ImageKey:         p.ImageKey,
		UpdatedAt:        p.UpdatedAt,
	}
}
