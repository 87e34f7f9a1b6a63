package models

import (
	"time"
)

// Principal is an authenticated end user as seen by the identity provider.
// ID is opaque and stable; everything else is informational.
type Principal struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	PhotoURL    string `json:"photo_url,omitempty"`
}

// Claims are the out-of-band flags the identity provider attaches to a
// principal. They are stored as JSON and only observed through a forced
// token refresh; a missing field decodes to false.
type Claims struct {
	PlatformAdmin bool `json:"platformAdmin,omitempty"`
}

// PrincipalRecord is the identity provider's stored view of a principal,
// including the credential hash that never leaves the identity package.
type PrincipalRecord struct {
	Principal
	PasswordHash string
	Claims       Claims
	CreatedAt    time.Time
}

// UserProfile is the application's copy of a principal, created on the
// first authenticated session. Optional fields stay nil when the identity
// provider had nothing for them.
type UserProfile struct {
	ID          string    `json:"id"`
	Email       *string   `json:"email"`
	DisplayName *string   `json:"display_name"`
	PhotoURL    *string   `json:"photo_url"`
	CreatedAt   time.Time `json:"created_at"`
}

type SocialLinks struct {
	Instagram string `json:"instagram,omitempty"`
	Facebook  string `json:"facebook,omitempty"`
	TikTok    string `json:"tiktok,omitempty"`
}

type Branding struct {
	PrimaryColor string `json:"primary_color"`
	LogoURL      string `json:"logo_url,omitempty"`
}

// Tenant is one storefront. ID is opaque; Slug is the public URL segment
// and is not guaranteed unique by the store.
type Tenant struct {
	ID            string      `json:"id"`
	Name          string      `json:"name"`
	Slug          string      `json:"slug"`
	WhatsAppPhone string      `json:"whatsapp_phone"`
	Branding      Branding    `json:"branding"`
	Address       string      `json:"address,omitempty"`
	MapsURL       string      `json:"maps_url,omitempty"`
	SocialLinks   SocialLinks `json:"social_links"`
	OwnerID       string      `json:"owner_id"`
	Active        bool        `json:"active"`
	CreatedAt     time.Time   `json:"created_at"`
}

type Role string

const (
	RoleOwner Role = "owner"
	RoleAdmin Role = "admin"
	RoleStaff Role = "staff"
)

// Valid reports whether r is one of the known membership roles.
func (r Role) Valid() bool {
	switch r {
	case RoleOwner, RoleAdmin, RoleStaff:
		return true
	}
	return false
}

// Membership grants a principal a role inside one tenant. There is at most
// one per (TenantID, PrincipalID).
type Membership struct {
	PrincipalID string    `json:"principal_id"`
	TenantID    string    `json:"tenant_id"`
	Role        Role      `json:"role"`
	JoinedAt    time.Time `json:"joined_at"`
}

// MembershipRecord is a membership as returned by the cross-tenant lookup:
// ParentTenantID comes from the storage key, Membership from the stored
// body, whose TenantID may be empty on legacy rows.
type MembershipRecord struct {
	ParentTenantID string
	Membership     Membership
}

// TeamMember is a membership joined with the member's profile for display.
type TeamMember struct {
	PrincipalID string    `json:"principal_id"`
	Email       *string   `json:"email"`
	DisplayName *string   `json:"display_name"`
	Role        Role      `json:"role"`
	JoinedAt    time.Time `json:"joined_at"`
}

type Product struct {
	ID          string    `json:"id"`
	TenantID    string    `json:"tenant_id"`
	Name        string    `json:"name"`
	Price       float64   `json:"price"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Images      []string  `json:"images"`
	Tags        []string  `json:"tags"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type LeadStatus string

const (
	LeadStatusNew       LeadStatus = "new"
	LeadStatusContacted LeadStatus = "contacted"
	LeadStatusClosed    LeadStatus = "closed"
)

func (s LeadStatus) Valid() bool {
	switch s {
	case LeadStatusNew, LeadStatusContacted, LeadStatusClosed:
		return true
	}
	return false
}

type LeadItem struct {
	ProductID string  `json:"product_id"`
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
}

// Lead records a shopper starting a WhatsApp order from the storefront.
// IDs come from a sequence so newer leads always sort higher.
type Lead struct {
	ID           int64      `json:"id"`
	TenantID     string     `json:"tenant_id"`
	CustomerName string     `json:"customer_name,omitempty"`
	Total        float64    `json:"total"`
	Status       LeadStatus `json:"status"`
	Items        []LeadItem `json:"items"`
	Notes        string     `json:"notes,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}
