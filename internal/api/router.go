package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lalith-99/storefront/internal/identity"
	"github.com/lalith-99/storefront/internal/middleware"
	"github.com/lalith-99/storefront/internal/observ"
	"github.com/lalith-99/storefront/internal/onboarding"
	"github.com/lalith-99/storefront/internal/profile"
	"github.com/lalith-99/storefront/internal/repository"
	"github.com/lalith-99/storefront/internal/storefront"
	"github.com/lalith-99/storefront/internal/team"
	"github.com/lalith-99/storefront/internal/tenancy"
	"go.uber.org/zap"
)

// Deps is everything the HTTP layer is built from.
type Deps struct {
	Identity   *identity.Provider
	Registry   *tenancy.Registry
	Profiles   *profile.Accessor
	Team       *team.Manager
	Onboarding *onboarding.Service
	Catalog    *storefront.Catalog
	Products   repository.ProductRepository
	Leads      repository.LeadRepository

	// Health reports backend reachability. Nil means always healthy.
	Health func(ctx context.Context) error

	Logger *zap.Logger
}

// NewRouter builds the gin engine with every /v1 route registered.
func NewRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(observ.RequestLogger(d.Logger), gin.Recovery())

	authH := NewAuthHandler(d.Identity, d.Registry, d.Profiles, d.Logger)
	profileH := NewProfileHandler(d.Profiles, d.Logger)
	sessionH := NewSessionHandler(d.Logger)
	tenantH := NewTenantHandler(d.Onboarding, d.Logger)
	teamH := NewTeamHandler(d.Team, d.Logger)
	productH := NewProductHandler(d.Products, d.Logger)
	leadH := NewLeadHandler(d.Leads, d.Logger)
	storeH := NewStorefrontHandler(d.Catalog, d.Logger)

	v1 := r.Group("/v1")

	// Public.
	v1.GET("/health", healthHandler(d.Health, d.Logger))
	v1.POST("/auth/signup", authH.Signup)
	v1.POST("/auth/login", authH.Login)
	v1.GET("/storefront/:slug", storeH.Get)
	v1.POST("/storefront/:slug/orders", storeH.CreateOrder)

	// Authenticated.
	authed := v1.Group("")
	authed.Use(
		middleware.AuthMiddleware(d.Identity, d.Logger),
		middleware.SessionMiddleware(d.Registry, d.Profiles, d.Logger),
	)
	authed.POST("/auth/logout", authH.Logout)
	authed.POST("/auth/refresh", authH.Refresh)
	authed.GET("/me", profileH.GetMe)
	authed.GET("/session", sessionH.Get)
	authed.POST("/session/switch", sessionH.Switch)
	authed.POST("/session/refresh", sessionH.Refresh)
	authed.POST("/tenants", tenantH.Create)

	// Scoped to the current tenant.
	member := authed.Group("")
	member.Use(middleware.RequireTenant(d.Logger))
	member.GET("/products", productH.List)
	member.POST("/products", productH.Create)
	member.PUT("/products/:id", productH.Update)
	member.DELETE("/products/:id", productH.Delete)
	member.GET("/leads", leadH.List)
	member.PATCH("/leads/:id", leadH.UpdateStatus)

	manager := member.Group("")
	manager.Use(middleware.RequireTeamManager())
	manager.PUT("/tenants/current", tenantH.UpdateCurrent)
	manager.GET("/team", teamH.List)
	manager.POST("/team", teamH.Invite)
	manager.DELETE("/team/:uid", teamH.Remove)

	return r
}

func healthHandler(check func(ctx context.Context) error, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if check != nil {
			if err := check(c.Request.Context()); err != nil {
				logger.Warn("health check failed", zap.Error(err))
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
