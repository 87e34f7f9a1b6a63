// Package onboarding creates tenants and edits their settings.
package onboarding

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lalith-99/storefront/internal/models"
	"github.com/lalith-99/storefront/internal/repository"
	"github.com/lalith-99/storefront/internal/storefront"
	"go.uber.org/zap"
)

var (
	ErrNotPlatformAdmin = errors.New("only platform admins can create tenants")
	ErrNameRequired     = errors.New("name is required")
	ErrSlugRequired     = errors.New("slug is required")
	ErrPhoneRequired    = errors.New("whatsapp phone is required")
	ErrTenantNotFound   = errors.New("tenant not found")
)

const DefaultPrimaryColor = "#000000"

var whitespace = regexp.MustCompile(`\s+`)

// NormalizeSlug lower-cases s and turns each whitespace run into "-".
func NormalizeSlug(s string) string {
	return whitespace.ReplaceAllString(strings.ToLower(strings.TrimSpace(s)), "-")
}

type CreateParams struct {
	Name          string `json:"name" binding:"required"`
	Slug          string `json:"slug"`
	WhatsAppPhone string `json:"whatsapp_phone" binding:"required"`
}

type Service struct {
	tenants repository.TenantRepository
	logger  *zap.Logger
	now     func() time.Time
	newID   func() string
}

func NewService(tenants repository.TenantRepository, logger *zap.Logger) *Service {
	return &Service{
		tenants: tenants,
		logger:  logger,
		now:     time.Now,
		newID:   func() string { return uuid.New().String() },
	}
}

// CreateTenant creates a tenant owned by principal together with its owner
// membership. The slug defaults to the normalized name.
func (s *Service) CreateTenant(ctx context.Context, principal models.Principal, isPlatformAdmin bool, p CreateParams) (*models.Tenant, error) {
	if !isPlatformAdmin {
		return nil, ErrNotPlatformAdmin
	}

	name := strings.TrimSpace(p.Name)
	if name == "" {
		return nil, ErrNameRequired
	}
	slug := NormalizeSlug(p.Slug)
	if slug == "" {
		slug = NormalizeSlug(name)
	}
	phone := storefront.Digits(p.WhatsAppPhone)
	if phone == "" {
		return nil, ErrPhoneRequired
	}

	now := s.now().UTC()
	tenant := &models.Tenant{
		ID:            s.newID(),
		Name:          name,
		Slug:          slug,
		WhatsAppPhone: phone,
		Branding:      models.Branding{PrimaryColor: DefaultPrimaryColor},
		OwnerID:       principal.ID,
		Active:        true,
		CreatedAt:     now,
	}
	owner := &models.Membership{
		PrincipalID: principal.ID,
		TenantID:    tenant.ID,
		Role:        models.RoleOwner,
		JoinedAt:    now,
	}
	if err := s.tenants.CreateWithOwner(ctx, tenant, owner); err != nil {
		return nil, fmt.Errorf("create tenant: %w", err)
	}

	s.logger.Info("tenant created",
		zap.String("tenant_id", tenant.ID),
		zap.String("slug", tenant.Slug),
		zap.String("owner_id", principal.ID),
	)
	return tenant, nil
}
