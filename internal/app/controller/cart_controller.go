package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/ikkim/shopcart-backend/internal/app/dto"
	"github.com/ikkim/shopcart-backend/internal/app/model"
	"github.com/ikkim/shopcart-backend/internal/app/service"
	apperrors "github.com/ikkim/shopcart-backend/internal/errors"
	"github.com/ikkim/shopcart-backend/internal/middleware"
	"github.com/ikkim/shopcart-backend/pkg/logger"
)

// CartSessions accepts live cart subscriptions.
type CartSessions interface {
	Serve(conn *websocket.Conn, userID string)
}

type CartController struct {
	cartService service.CartService
	sessions    CartSessions
	upgrader    websocket.Upgrader
}

func NewCartController(cartService service.CartService, sessions CartSessions, allowedOrigins []string) *CartController {
	return &CartController{
		cartService: cartService,
		sessions:    sessions,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}
}

type AddItemRequest struct {
	ProductID string `json:"product_id" binding:"required"`
	Quantity  *int   `json:"quantity" binding:"required"`
}

type UpdateItemRequest struct {
	Quantity *int `json:"quantity" binding:"required"`
}

// GetCart returns the caller's cart, creating an empty one on first access
// GET /api/v1/cart
func (ctrl *CartController) GetCart(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, ok := requireUser(c, log)
	if !ok {
		return
	}

	detail, err := ctrl.cartService.GetCart(c.Request.Context(), userID)
	if err != nil {
		respondCartError(c, log, err, "fetch cart")
		return
	}

	c.JSON(http.StatusOK, dto.NewCartResponse(detail))
}

// AddItem adds a product to the cart, merging with an existing line
// POST /api/v1/cart/items
func (ctrl *CartController) AddItem(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, ok := requireUser(c, log)
	if !ok {
		return
	}

	var req AddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid add item request", map[string]interface{}{
			"user_id": userID,
			"error":   err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "product_id and quantity are required")
		return
	}

	cart, err := ctrl.cartService.AddItem(c.Request.Context(), userID, req.ProductID, *req.Quantity)
	if err != nil {
		respondCartError(c, log, err, "add cart item")
		return
	}

	ctrl.respondWithCart(c, cart, http.StatusCreated)
}

// UpdateItem sets the quantity of a cart line
// PUT /api/v1/cart/items/:id
func (ctrl *CartController) UpdateItem(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, ok := requireUser(c, log)
	if !ok {
		return
	}

	var req UpdateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid update item request", map[string]interface{}{
			"user_id": userID,
			"error":   err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "quantity is required")
		return
	}

	cart, err := ctrl.cartService.UpdateItemQuantity(c.Request.Context(), userID, c.Param("id"), *req.Quantity)
	if err != nil {
		respondCartError(c, log, err, "update cart item")
		return
	}

	ctrl.respondWithCart(c, cart, http.StatusOK)
}

// RemoveItem deletes a cart line
// DELETE /api/v1/cart/items/:id
func (ctrl *CartController) RemoveItem(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, ok := requireUser(c, log)
	if !ok {
		return
	}

	cart, err := ctrl.cartService.RemoveItem(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		respondCartError(c, log, err, "delete cart item")
		return
	}

	ctrl.respondWithCart(c, cart, http.StatusOK)
}

// ClearCart empties the cart
// DELETE /api/v1/cart
func (ctrl *CartController) ClearCart(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, ok := requireUser(c, log)
	if !ok {
		return
	}

	if err := ctrl.cartService.ClearCart(c.Request.Context(), userID); err != nil {
		respondCartError(c, log, err, "delete cart")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "cart cleared",
	})
}

// Subscribe upgrades to a websocket that receives cart_updated events
// GET /api/v1/cart/ws
func (ctrl *CartController) Subscribe(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, ok := requireUser(c, log)
	if !ok {
		return
	}
	if ctrl.sessions == nil {
		apperrors.RespondWithCode(c, apperrors.DependencyUnavailable, "live updates are disabled", 0)
		return
	}

	conn, err := ctrl.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		log.Warn("WebSocket upgrade failed", map[string]interface{}{
			"user_id": userID,
			"error":   err.Error(),
		})
		return
	}
	ctrl.sessions.Serve(conn, userID)
}

func (ctrl *CartController) respondWithCart(c *gin.Context, cart *model.Cart, status int) {
	c.JSON(status, dto.NewCartResponse(ctrl.cartService.Describe(c.Request.Context(), cart)))
}

func requireUser(c *gin.Context, log *logger.Logger) (string, bool) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		log.Warn("Unauthorized cart access", map[string]interface{}{
			"path": c.Request.URL.Path,
		})
		apperrors.Unauthorized(c, "")
		return "", false
	}
	return userID, true
}

func respondCartError(c *gin.Context, log *logger.Logger, err error, action string) {
	var cartErr *service.CartError
	if errors.As(err, &cartErr) {
		apperrors.RespondWithCode(c, cartErr.Code, cartErr.Message, cartErr.Limit)
		return
	}

	log.Error("Cart request failed", err, map[string]interface{}{
		"action": action,
	})
	apperrors.ParseAndRespond(c, err, action)
}

func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, o := range allowed {
			if o == "*" || o == origin {
				return true
			}
		}
		return false
	}
}
