package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/lalith-99/storefront/internal/middleware"
	"github.com/lalith-99/storefront/internal/models"
	"github.com/lalith-99/storefront/internal/repository"
	"go.uber.org/zap"
)

const (
	defaultLeadPage = 50
	maxLeadPage     = 100
)

type LeadHandler struct {
	repo   repository.LeadRepository
	logger *zap.Logger
}

func NewLeadHandler(repo repository.LeadRepository, logger *zap.Logger) *LeadHandler {
	return &LeadHandler{repo: repo, logger: logger}
}

// List handles GET /v1/leads?before=123&limit=50
//
// Cursor pagination, newest first: "before" is a lead id (0 or absent
// starts at the latest), "limit" defaults to 50 and is capped at 100.
func (h *LeadHandler) List(c *gin.Context) {
	var (
		before int64
		err    error
	)
	if b := c.Query("before"); b != "" {
		before, err = strconv.ParseInt(b, 10, 64)
		if err != nil || before < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid 'before' parameter"})
			return
		}
	}

	limit := defaultLeadPage
	if l := c.Query("limit"); l != "" {
		limit, err = strconv.Atoi(l)
		if err != nil || limit < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid 'limit' parameter"})
			return
		}
		limit = min(limit, maxLeadPage)
	}

	leads, err := h.repo.ListByTenant(c.Request.Context(), middleware.GetTenantID(c), before, limit)
	if err != nil {
		h.logger.Error("failed to list leads", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list leads"})
		return
	}
	c.JSON(http.StatusOK, leads)
}

type updateLeadRequest struct {
	Status models.LeadStatus `json:"status" binding:"required"`
	Notes  string            `json:"notes"`
}

// UpdateStatus handles PATCH /v1/leads/:id
func (h *LeadHandler) UpdateStatus(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid lead id"})
		return
	}

	var req updateLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !req.Status.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "status must be new, contacted or closed"})
		return
	}

	lead, err := h.repo.UpdateStatus(c.Request.Context(), middleware.GetTenantID(c), id, req.Status, req.Notes)
	if err != nil {
		h.logger.Error("failed to update lead", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update lead"})
		return
	}
	if lead == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "lead not found"})
		return
	}
	c.JSON(http.StatusOK, lead)
}
