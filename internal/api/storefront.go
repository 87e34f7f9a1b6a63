package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lalith-99/storefront/internal/storefront"
	"go.uber.org/zap"
)

// StorefrontHandler serves the public, unauthenticated storefront.
type StorefrontHandler struct {
	catalog *storefront.Catalog
	logger  *zap.Logger
}

func NewStorefrontHandler(catalog *storefront.Catalog, logger *zap.Logger) *StorefrontHandler {
	return &StorefrontHandler{catalog: catalog, logger: logger}
}

// Get handles GET /v1/storefront/:slug
func (h *StorefrontHandler) Get(c *gin.Context) {
	sf, err := h.catalog.BySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		if errors.Is(err, storefront.ErrStoreNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		h.logger.Error("failed to load storefront", zap.String("slug", c.Param("slug")), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load store"})
		return
	}
	c.JSON(http.StatusOK, sf)
}

type orderRequest struct {
	CustomerName string                 `json:"customer_name"`
	Items        []storefront.OrderLine `json:"items" binding:"required,min=1,dive"`
}

// CreateOrder handles POST /v1/storefront/:slug/orders
//
// Records a lead and returns the WhatsApp link that opens the chat with
// the order prefilled.
func (h *StorefrontHandler) CreateOrder(c *gin.Context) {
	var req orderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	order, err := h.catalog.StartOrder(c.Request.Context(), c.Param("slug"), req.Items, req.CustomerName)
	if err != nil {
		switch {
		case errors.Is(err, storefront.ErrStoreNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case errors.Is(err, storefront.ErrEmptyOrder),
			errors.Is(err, storefront.ErrUnknownProduct),
			errors.Is(err, storefront.ErrBadQuantity),
			errors.Is(err, storefront.ErrTooManyLines):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			h.logger.Error("failed to start order", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to start order"})
		}
		return
	}
	c.JSON(http.StatusCreated, order)
}
