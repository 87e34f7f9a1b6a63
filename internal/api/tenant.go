package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lalith-99/storefront/internal/middleware"
	"github.com/lalith-99/storefront/internal/onboarding"
	"go.uber.org/zap"
)

// TenantHandler creates tenants and edits the current tenant's settings.
type TenantHandler struct {
	service *onboarding.Service
	logger  *zap.Logger
}

func NewTenantHandler(service *onboarding.Service, logger *zap.Logger) *TenantHandler {
	return &TenantHandler{service: service, logger: logger}
}

// Create handles POST /v1/tenants
//
// Platform admins only, checked against the claims as stored now rather
// than when the session started. The new tenant becomes the caller's
// current one.
func (h *TenantHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()
	s := middleware.GetSession(c)
	if err := s.Refresh(ctx); err != nil {
		h.logger.Error("failed to revalidate claims", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "tenant access unavailable"})
		return
	}
	if !s.CanOnboard() {
		c.JSON(http.StatusForbidden, gin.H{"error": onboarding.ErrNotPlatformAdmin.Error()})
		return
	}

	var req onboarding.CreateParams
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	tenant, err := h.service.CreateTenant(ctx, s.Principal(), s.IsPlatformAdmin(), req)
	if err != nil {
		switch {
		case errors.Is(err, onboarding.ErrNotPlatformAdmin):
			c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
		case errors.Is(err, onboarding.ErrNameRequired), errors.Is(err, onboarding.ErrPhoneRequired):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			h.logger.Error("failed to create tenant", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create tenant"})
		}
		return
	}

	if err := s.Refresh(ctx); err != nil {
		h.logger.Warn("failed to refresh session after onboarding", zap.Error(err))
	}
	if _, err := s.Switch(ctx, tenant.ID); err != nil {
		h.logger.Warn("failed to persist tenant selection", zap.Error(err))
	}

	c.JSON(http.StatusCreated, tenant)
}

// UpdateCurrent handles PUT /v1/tenants/current
//
// Routed behind RequireTenant and RequireTeamManager.
func (h *TenantHandler) UpdateCurrent(c *gin.Context) {
	var req onboarding.Settings
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	tenant, err := h.service.UpdateSettings(ctx, middleware.GetTenantID(c), req)
	if err != nil {
		switch {
		case errors.Is(err, onboarding.ErrTenantNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case errors.Is(err, onboarding.ErrNameRequired), errors.Is(err, onboarding.ErrSlugRequired):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			h.logger.Error("failed to update tenant", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save changes"})
		}
		return
	}

	if err := middleware.GetSession(c).Refresh(ctx); err != nil {
		h.logger.Warn("failed to refresh session after settings change", zap.Error(err))
	}
	c.JSON(http.StatusOK, tenant)
}
