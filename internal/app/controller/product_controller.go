package controller

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/shopcart-backend/internal/app/dto"
	"github.com/ikkim/shopcart-backend/internal/app/service"
	apperrors "github.com/ikkim/shopcart-backend/internal/errors"
	"github.com/ikkim/shopcart-backend/internal/middleware"
	"github.com/ikkim/shopcart-backend/internal/storage"
	"github.com/shopspring/decimal"
)

const maxPageSize = 100

// ImageUploader issues upload URLs for product images.
type ImageUploader interface {
	PresignUpload(ctx context.Context, productID, filename, contentType string) (*storage.PresignedUpload, error)
}

type ProductController struct {
	productService    service.ProductService
	uploader          ImageUploader
	defaultOrderLimit int
}

func NewProductController(productService service.ProductService, uploader ImageUploader, defaultOrderLimit int) *ProductController {
	return &ProductController{
		productService:    productService,
		uploader:          uploader,
		defaultOrderLimit: defaultOrderLimit,
	}
}

type UpdateProductRequest struct {
	Name             *string          `json:"name"`
	Description      *string          `json:"description"`
	Price            *decimal.Decimal `json:"price"`
	StockQuantity    *int             `json:"stock_quantity"`
	MaxOrderQuantity *int             `json:"max_order_quantity"`
	IsActive         *bool            `json:"is_active"`
	ImageKey         *string          `json:"image_key"`
}

type ImageUploadRequest struct {
	Filename    string `json:"filename" binding:"required"`
	ContentType string `json:"content_type" binding:"required"`
}

// ListProducts returns active products
// GET /api/v1/products?search=&limit=&offset=
func (ctrl *ProductController) ListProducts(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if limit <= 0 || limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}

	products, err := ctrl.productService.ListProducts(c.Request.Context(), service.ProductListOptions{
		Search: c.Query("search"),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		log.Error("Failed to fetch products", err, nil)
		apperrors.ParseAndRespond(c, err, "fetch products")
		return
	}

	resp := make([]dto.ProductResponse, len(products))
	for i := range products {
		resp[i] = dto.NewProductResponse(&products[i], ctrl.defaultOrderLimit)
	}

	c.JSON(http.StatusOK, gin.H{
		"products": resp,
		"count":    len(resp),
	})
}

// GetProduct returns a product by ID
// GET /api/v1/products/:id
func (ctrl *ProductController) GetProduct(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	product, err := ctrl.productService.GetProductByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondCartError(c, log, err, "fetch product")
		return
	}

	c.JSON(http.StatusOK, dto.NewProductResponse(product, ctrl.defaultOrderLimit))
}

// UpdateProduct changes catalog data and evicts the cached display entry
// PUT /api/v1/products/:id (admin)
func (ctrl *ProductController) UpdateProduct(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid update product request", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "invalid request data")
		return
	}

	product, err := ctrl.productService.UpdateProduct(c.Request.Context(), c.Param("id"), service.ProductUpdate{
		Name:             req.Name,
		Description:      req.Description,
		Price:            req.Price,
		StockQuantity:    req.StockQuantity,
		MaxOrderQuantity: req.MaxOrderQuantity,
		IsActive:         req.IsActive,
		ImageKey:         req.ImageKey,
	})
	if err != nil {
		if errors.Is(err, service.ErrInvalidProductUpdate) {
			apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "name must be non-empty and numbers non-negative")
			return
		}
		respondCartError(c, log, err, "update product")
		return
	}

	c.JSON(http.StatusOK, dto.NewProductResponse(product, ctrl.defaultOrderLimit))
}

// CreateImageUploadURL returns a presigned PUT URL for a product image
// POST /api/v1/products/:id/image-upload-url (admin)
func (ctrl *ProductController) CreateImageUploadURL(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	if ctrl.uploader == nil {
		apperrors.RespondWithCode(c, apperrors.DependencyUnavailable, "image storage is not configured", 0)
		return
	}

	var req ImageUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "filename and content_type are required")
		return
	}

	productID := c.Param("id")
	if _, err := ctrl.productService.GetProductByID(c.Request.Context(), productID); err != nil {
		respondCartError(c, log, err, "fetch product")
		return
	}

	upload, err := ctrl.uploader.PresignUpload(c.Request.Context(), productID, req.Filename, req.ContentType)
	if err != nil {
		log.Warn("Failed to presign image upload", map[string]interface{}{
			"product_id": productID,
			"error":      err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, err.Error())
		return
	}

	c.JSON(http.StatusOK, upload)
}
