package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lalith-99/storefront/internal/auth"
	"github.com/lalith-99/storefront/internal/identity"
	"github.com/lalith-99/storefront/internal/models"
	"github.com/lalith-99/storefront/internal/tenancy"
	"go.uber.org/zap"
)

// Context keys for values stored in gin.Context. Handlers read them via
// the getters below.
const (
	ContextKeyClaims      = "claims"
	ContextKeyPrincipalID = "principal_id"
	ContextKeySession     = "session"
)

// Authenticator resolves a bearer token.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*auth.Claims, error)
}

// SessionRegistry hands out the tenancy session of one token.
type SessionRegistry interface {
	Get(sessionID string) (*tenancy.Session, bool)
	Acquire(ctx context.Context, sessionID string, principal models.Principal, expiresAt time.Time) *tenancy.Session
}

// ProfileEnsurer creates the caller's profile on their first session.
type ProfileEnsurer interface {
	Ensure(ctx context.Context, principal models.Principal) (*models.UserProfile, error)
}

// AuthMiddleware validates the bearer token and stores its claims. A
// missing, malformed, expired or revoked token aborts with 401.
func AuthMiddleware(authn Authenticator, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "missing authorization header",
			})
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "invalid authorization format, expected: Bearer <token>",
			})
			return
		}

		claims, err := authn.Authenticate(c.Request.Context(), parts[1])
		if err != nil {
			if errors.Is(err, identity.ErrTokenRevoked) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "token revoked"})
				return
			}
			logger.Debug("token rejected", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "invalid or expired token",
			})
			return
		}

		c.Set(ContextKeyClaims, claims)
		c.Set(ContextKeyPrincipalID, claims.PrincipalID())
		c.Next()
	}
}

// SessionMiddleware attaches the tenancy session of the caller's token,
// starting one on the first request made with it. Sessions live until the
// token expires or is signed out. A new session also creates the caller's
// profile; a failure there is logged and does not block the request.
func SessionMiddleware(registry SessionRegistry, profiles ProfileEnsurer, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetClaims(c)
		if claims == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
			return
		}
		principal := claims.Principal()
		ctx := c.Request.Context()

		if _, ok := registry.Get(claims.ID); !ok {
			if _, err := profiles.Ensure(ctx, principal); err != nil {
				logger.Error("ensure profile failed",
					zap.String("principal_id", principal.ID),
					zap.Error(err),
				)
			}
		}

		var expiresAt time.Time
		if claims.ExpiresAt != nil {
			expiresAt = claims.ExpiresAt.Time
		}
		c.Set(ContextKeySession, registry.Acquire(ctx, claims.ID, principal, expiresAt))
		c.Next()
	}
}

// RequireTenant re-resolves the caller's grants and aborts with 403 when
// no current tenant remains. A membership removed or a claim revoked since
// the last request takes effect here. Resolution failures abort with 503.
func RequireTenant(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		s := GetSession(c)
		if s == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
			return
		}
		if err := s.Refresh(c.Request.Context()); err != nil {
			logger.Error("revalidate tenant access failed",
				zap.String("principal_id", GetPrincipalID(c)),
				zap.Error(err),
			)
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "tenant access unavailable"})
			return
		}
		if _, ok := s.Current(); !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "no tenant available"})
			return
		}
		c.Next()
	}
}

// RequireTeamManager aborts with 403 unless the caller may manage the
// team of the current tenant. Mount it after RequireTenant so the grant is
// fresh.
func RequireTeamManager() gin.HandlerFunc {
	return func(c *gin.Context) {
		s := GetSession(c)
		if s == nil || !s.CanManageTeam() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "not allowed to manage this tenant"})
			return
		}
		c.Next()
	}
}

// ---------------------------------------------------------------
// Getters. Each returns the zero value when the key is missing.
// ---------------------------------------------------------------

func GetClaims(c *gin.Context) *auth.Claims {
	val, exists := c.Get(ContextKeyClaims)
	if !exists {
		return nil
	}
	claims, ok := val.(*auth.Claims)
	if !ok {
		return nil
	}
	return claims
}

func GetPrincipalID(c *gin.Context) string {
	return c.GetString(ContextKeyPrincipalID)
}

func GetSession(c *gin.Context) *tenancy.Session {
	val, exists := c.Get(ContextKeySession)
	if !exists {
		return nil
	}
	s, ok := val.(*tenancy.Session)
	if !ok {
		return nil
	}
	return s
}

// GetTenantID returns the caller's current tenant id, or "".
func GetTenantID(c *gin.Context) string {
	s := GetSession(c)
	if s == nil {
		return ""
	}
	t, ok := s.Current()
	if !ok {
		return ""
	}
	return t.ID
}
