package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/EgehanKilicarslan/sellerhub/backend-go/internal/database/service"
	"github.com/EgehanKilicarslan/sellerhub/backend-go/internal/validation"
)

// ProductHandler serves the authenticated seller's own catalog
type ProductHandler struct {
	service service.ProductService
	logger  *slog.Logger
}

// NewProductHandler creates a new product handler
func NewProductHandler(service service.ProductService, logger *slog.Logger) *ProductHandler {
	return &ProductHandler{
		service: service,
		logger:  logger,
	}
}

// Create handles POST /api/products
func (h *ProductHandler) Create(c *gin.Context) {
	sellerID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req validation.CreateProductRequest
	if err := validation.BindJSON(c, &req); err != nil {
		h.logger.Warn("⚠️ [ProductHandler] Invalid create request", "error", err)
		respondValidation(c, err)
		return
	}

	product, err := h.service.Create(c.Request.Context(), sellerID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Product created successfully",
		"data":    product,
	})
}

// List handles GET /api/products
func (h *ProductHandler) List(c *gin.Context) {
	sellerID, ok := currentUserID(c)
	if !ok {
		return
	}

	products, err := h.service.ListMine(c.Request.Context(), sellerID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Products retrieved successfully",
		"data":    products,
	})
}

// Get handles GET /api/products/:id
func (h *ProductHandler) Get(c *gin.Context) {
	sellerID, ok := currentUserID(c)
	if !ok {
		return
	}
	productID, ok := h.productID(c)
	if !ok {
		return
	}

	product, err := h.service.Get(c.Request.Context(), sellerID, productID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Product retrieved successfully",
		"data":    product,
	})
}

// Update handles PUT /api/products/:id
func (h *ProductHandler) Update(c *gin.Context) {
	sellerID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req validation.UpdateProductRequest
	if err := validation.BindJSON(c, &req); err != nil {
		h.logger.Warn("⚠️ [ProductHandler] Invalid update request", "error", err)
		respondValidation(c, err)
		return
	}

	productID, ok := h.productID(c)
	if !ok {
		return
	}

	product, err := h.service.Update(c.Request.Context(), sellerID, productID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Product updated successfully",
		"data":    product,
	})
}

// Delete handles DELETE /api/products/:id
func (h *ProductHandler) Delete(c *gin.Context) {
	sellerID, ok := currentUserID(c)
	if !ok {
		return
	}
	productID, ok := h.productID(c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), sellerID, productID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// productID parses the :id path parameter. A malformed id cannot name an
// existing product, so it is reported as not found.
func (h *ProductHandler) productID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "Product not found"})
		return uuid.Nil, false
	}
	return id, true
}

// handleServiceError maps service errors to HTTP responses
func (h *ProductHandler) handleServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrProductNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": "Product not found"})
	default:
		h.logger.Error("❌ [ProductHandler] Internal server error", "error", err)
		respondInternal(c)
	}
}
