package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lalith-99/storefront/internal/middleware"
	"github.com/lalith-99/storefront/internal/models"
	"go.uber.org/zap"
)

// ProfileHandler serves the caller's own profile.
type ProfileHandler struct {
	profiles middleware.ProfileEnsurer
	logger   *zap.Logger
}

func NewProfileHandler(profiles middleware.ProfileEnsurer, logger *zap.Logger) *ProfileHandler {
	return &ProfileHandler{profiles: profiles, logger: logger}
}

type meResponse struct {
	Principal       models.Principal    `json:"principal"`
	Profile         *models.UserProfile `json:"profile"`
	IsPlatformAdmin bool                `json:"is_platform_admin"`
}

// GetMe handles GET /v1/me
//
// The platform admin flag comes from the session, which reads claims via a
// forced refresh, not from the token the caller presented.
func (h *ProfileHandler) GetMe(c *gin.Context) {
	claims := middleware.GetClaims(c)
	principal := claims.Principal()

	profile, err := h.profiles.Ensure(c.Request.Context(), principal)
	if err != nil {
		h.logger.Error("failed to get profile", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get profile"})
		return
	}

	resp := meResponse{Principal: principal, Profile: profile}
	if s := middleware.GetSession(c); s != nil {
		resp.IsPlatformAdmin = s.IsPlatformAdmin()
	}
	c.JSON(http.StatusOK, resp)
}
