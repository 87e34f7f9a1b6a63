package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lalith-99/storefront/internal/middleware"
	"go.uber.org/zap"
)

// SessionHandler exposes the caller's tenancy session: resolved tenants,
// current tenant, grants and capability flags.
type SessionHandler struct {
	logger *zap.Logger
}

func NewSessionHandler(logger *zap.Logger) *SessionHandler {
	return &SessionHandler{logger: logger}
}

// Get handles GET /v1/session
func (h *SessionHandler) Get(c *gin.Context) {
	c.JSON(http.StatusOK, middleware.GetSession(c).Snapshot())
}

type switchRequest struct {
	TenantID string `json:"tenant_id" binding:"required"`
}

// Switch handles POST /v1/session/switch
//
// A tenant outside the resolved set is a 404 and the selection stays as
// it was. Failing to remember the choice is logged; the switch itself
// still applies.
func (h *SessionHandler) Switch(c *gin.Context) {
	var req switchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s := middleware.GetSession(c)
	switched, err := s.Switch(c.Request.Context(), req.TenantID)
	if !switched {
		c.JSON(http.StatusNotFound, gin.H{"error": "tenant not available"})
		return
	}
	if err != nil {
		h.logger.Warn("failed to persist tenant selection",
			zap.String("principal_id", s.Principal().ID),
			zap.String("tenant_id", req.TenantID),
			zap.Error(err),
		)
	}

	c.JSON(http.StatusOK, s.Snapshot())
}

// Refresh handles POST /v1/session/refresh
//
// A resolution failure leaves the session empty and is reported as 503.
func (h *SessionHandler) Refresh(c *gin.Context) {
	s := middleware.GetSession(c)
	if err := s.Refresh(c.Request.Context()); err != nil {
		h.logger.Error("failed to refresh session", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "tenant access unavailable"})
		return
	}
	c.JSON(http.StatusOK, s.Snapshot())
}
