package repository

import (
	"context"

	"github.com/lalith-99/storefront/internal/models"
)

// Every method takes ctx first and returns nil, nil for a missing
// document; only backend failures are errors.

// PrincipalRepository is the identity provider's credential store.
type PrincipalRepository interface {
	// Create inserts a principal. The caller supplies the id.
	Create(ctx context.Context, rec *models.PrincipalRecord) error

	GetByID(ctx context.Context, id string) (*models.PrincipalRecord, error)

	GetByEmail(ctx context.Context, email string) (*models.PrincipalRecord, error)

	// SetClaims replaces the principal's custom claims.
	SetClaims(ctx context.Context, id string, claims models.Claims) error
}

// ProfileRepository stores UserProfile documents keyed by principal id.
type ProfileRepository interface {
	GetByID(ctx context.Context, principalID string) (*models.UserProfile, error)

	// GetByEmail returns the first profile with the given email.
	GetByEmail(ctx context.Context, email string) (*models.UserProfile, error)

	Create(ctx context.Context, profile *models.UserProfile) error
}

// TenantRepository stores tenants.
type TenantRepository interface {
	GetByID(ctx context.Context, tenantID string) (*models.Tenant, error)

	// GetBySlug returns the oldest tenant with the given slug.
	GetBySlug(ctx context.Context, slug string) (*models.Tenant, error)

	// ListAll returns every tenant, oldest first.
	ListAll(ctx context.Context) ([]models.Tenant, error)

	// ListByOwner returns tenants whose owner field equals principalID.
	ListByOwner(ctx context.Context, principalID string) ([]models.Tenant, error)

	// CreateWithOwner writes the tenant and its owner membership as one
	// unit: either both exist afterwards or neither does.
	CreateWithOwner(ctx context.Context, tenant *models.Tenant, owner *models.Membership) error

	// Update overwrites the mutable settings of an existing tenant.
	Update(ctx context.Context, tenant *models.Tenant) error
}

// MembershipRepository stores memberships scoped under their tenant.
type MembershipRepository interface {
	// ListByPrincipal is the cross-tenant lookup: every membership, in any
	// tenant, whose principal id equals principalID.
	ListByPrincipal(ctx context.Context, principalID string) ([]models.MembershipRecord, error)

	ListByTenant(ctx context.Context, tenantID string) ([]models.Membership, error)

	// Upsert writes the membership, replacing any existing one for the
	// same (tenant, principal).
	Upsert(ctx context.Context, m *models.Membership) error

	// Delete removes a membership. No-op if absent.
	Delete(ctx context.Context, tenantID, principalID string) error
}

// ProductRepository stores products under their tenant.
type ProductRepository interface {
	Create(ctx context.Context, p *models.Product) error

	GetByID(ctx context.Context, tenantID, productID string) (*models.Product, error)

	// ListByTenant returns products newest first, optionally only active ones.
	// Returns an empty slice, never nil.
	ListByTenant(ctx context.Context, tenantID string, activeOnly bool) ([]models.Product, error)

	Update(ctx context.Context, p *models.Product) error

	Delete(ctx context.Context, tenantID, productID string) error
}

// LeadRepository stores WhatsApp order leads.
type LeadRepository interface {
	// Create persists a lead and fills in ID and timestamps.
	Create(ctx context.Context, lead *models.Lead) error

	// ListByTenant pages newest first: before=0 starts at the latest lead.
	ListByTenant(ctx context.Context, tenantID string, before int64, limit int) ([]models.Lead, error)

	// UpdateStatus sets status and notes. Returns nil, nil if the lead does
	// not exist in the tenant.
	UpdateStatus(ctx context.Context, tenantID string, leadID int64, status models.LeadStatus, notes string) (*models.Lead, error)
}
