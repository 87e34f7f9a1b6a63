package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/lalith-99/storefront/internal/middleware"
	"github.com/lalith-99/storefront/internal/models"
	"github.com/lalith-99/storefront/internal/repository"
	"go.uber.org/zap"
)

// ProductHandler manages the current tenant's catalog. Any member of the
// tenant may use it.
type ProductHandler struct {
	repo   repository.ProductRepository
	logger *zap.Logger
}

func NewProductHandler(repo repository.ProductRepository, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{repo: repo, logger: logger}
}

// productRequest is the body of create and update. Server-owned fields
// (id, tenant, timestamps) are not accepted from the client.
type productRequest struct {
	Name        string   `json:"name" binding:"required"`
	Price       float64  `json:"price" binding:"gte=0"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Images      []string `json:"images"`
	Tags        []string `json:"tags"`
	Active      *bool    `json:"active"`
}

func (r productRequest) apply(p *models.Product) {
	p.Name = strings.TrimSpace(r.Name)
	p.Price = r.Price
	p.Description = r.Description
	p.Category = strings.ToLower(strings.TrimSpace(r.Category))
	p.Images = nonNil(r.Images)
	p.Tags = nonNil(r.Tags)
	p.Active = r.Active == nil || *r.Active
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// List handles GET /v1/products, inactive ones included.
func (h *ProductHandler) List(c *gin.Context) {
	products, err := h.repo.ListByTenant(c.Request.Context(), middleware.GetTenantID(c), false)
	if err != nil {
		h.logger.Error("failed to list products", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list products"})
		return
	}
	c.JSON(http.StatusOK, products)
}

// Create handles POST /v1/products
func (h *ProductHandler) Create(c *gin.Context) {
	var req productRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	p := &models.Product{ID: uuid.NewString(), TenantID: middleware.GetTenantID(c)}
	req.apply(p)

	if err := h.repo.Create(c.Request.Context(), p); err != nil {
		h.logger.Error("failed to create product", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create product"})
		return
	}
	c.JSON(http.StatusCreated, p)
}

// Update handles PUT /v1/products/:id
func (h *ProductHandler) Update(c *gin.Context) {
	var req productRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	tenantID := middleware.GetTenantID(c)

	p, err := h.repo.GetByID(ctx, tenantID, c.Param("id"))
	if err != nil {
		h.logger.Error("failed to get product", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update product"})
		return
	}
	if p == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
		return
	}

	req.apply(p)
	if err := h.repo.Update(ctx, p); err != nil {
		h.logger.Error("failed to update product", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update product"})
		return
	}
	c.JSON(http.StatusOK, p)
}

// Delete handles DELETE /v1/products/:id
func (h *ProductHandler) Delete(c *gin.Context) {
	err := h.repo.Delete(c.Request.Context(), middleware.GetTenantID(c), c.Param("id"))
	if err != nil {
		h.logger.Error("failed to delete product", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete product"})
		return
	}
	c.Status(http.StatusNoContent)
}
