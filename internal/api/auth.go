package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lalith-99/storefront/internal/auth"
	"github.com/lalith-99/storefront/internal/identity"
	"github.com/lalith-99/storefront/internal/middleware"
	"go.uber.org/zap"
)

// IdentityProvider is the part of identity.Provider the HTTP layer uses.
type IdentityProvider interface {
	SignUp(ctx context.Context, email, password, displayName string) (*identity.Issued, error)
	SignIn(ctx context.Context, email, password string) (*identity.Issued, error)
	SignOut(ctx context.Context, claims *auth.Claims) error
	ForceRefresh(ctx context.Context, principalID string) (*identity.Issued, error)
}

// SessionReleaser tears down the session of one token on sign-out.
type SessionReleaser interface {
	Release(sessionID string)
}

// AuthHandler serves sign-up and sign-in, which are public, plus sign-out
// and token refresh, which need a valid token.
type AuthHandler struct {
	provider IdentityProvider
	sessions SessionReleaser
	profiles middleware.ProfileEnsurer
	logger   *zap.Logger
}

func NewAuthHandler(provider IdentityProvider, sessions SessionReleaser, profiles middleware.ProfileEnsurer, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{provider: provider, sessions: sessions, profiles: profiles, logger: logger}
}

type signupRequest struct {
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required,min=8"`
	DisplayName string `json:"display_name"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Signup handles POST /v1/auth/signup
//
// The profile is created here so the new principal can be invited by
// email straight away. A profile failure is logged; the first session
// retries it.
func (h *AuthHandler) Signup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	issued, err := h.provider.SignUp(ctx, req.Email, req.Password, req.DisplayName)
	if err != nil {
		if errors.Is(err, identity.ErrEmailTaken) {
			c.JSON(http.StatusConflict, gin.H{"error": "email already registered"})
			return
		}
		h.logger.Error("failed to sign up", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "signup failed"})
		return
	}

	if _, err := h.profiles.Ensure(ctx, issued.Principal); err != nil {
		h.logger.Error("failed to create profile",
			zap.String("principal_id", issued.Principal.ID),
			zap.Error(err),
		)
	}

	c.JSON(http.StatusCreated, issued)
}

// Login handles POST /v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	issued, err := h.provider.SignIn(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		// Same message for unknown email and wrong password.
		if errors.Is(err, identity.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid email or password"})
			return
		}
		h.logger.Error("failed to sign in", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		return
	}

	c.JSON(http.StatusOK, issued)
}

// Logout handles POST /v1/auth/logout. The presented token stops working
// and its session is torn down. Other devices stay signed in.
func (h *AuthHandler) Logout(c *gin.Context) {
	claims := middleware.GetClaims(c)

	if err := h.provider.SignOut(c.Request.Context(), claims); err != nil {
		h.logger.Error("failed to sign out", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "logout failed"})
		return
	}
	h.sessions.Release(claims.ID)

	c.Status(http.StatusNoContent)
}

// Refresh handles POST /v1/auth/refresh: a new token carrying the current
// custom claims. The new token opens its own session on first use; the
// presented token's session is re-resolved so it agrees in the meantime.
func (h *AuthHandler) Refresh(c *gin.Context) {
	issued, err := h.provider.ForceRefresh(c.Request.Context(), middleware.GetPrincipalID(c))
	if err != nil {
		if errors.Is(err, identity.ErrUnknownPrincipal) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "principal no longer exists"})
			return
		}
		h.logger.Error("failed to refresh token", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "refresh failed"})
		return
	}

	if s := middleware.GetSession(c); s != nil {
		if err := s.Refresh(c.Request.Context()); err != nil {
			h.logger.Warn("failed to refresh session", zap.Error(err))
		}
	}

	c.JSON(http.StatusOK, issued)
}
