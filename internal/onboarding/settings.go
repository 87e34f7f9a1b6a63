package onboarding

import (
	"context"
	"fmt"
	"strings"

	"github.com/lalith-99/storefront/internal/models"
	"github.com/lalith-99/storefront/internal/storefront"
	"go.uber.org/zap"
)

// Settings are the tenant fields editable from the admin settings page.
// Every field is written; an empty optional field clears it.
type Settings struct {
	Name          string             `json:"name" binding:"required"`
	Slug          string             `json:"slug" binding:"required"`
	WhatsAppPhone string             `json:"whatsapp_phone"`
	PrimaryColor  string             `json:"primary_color"`
	LogoURL       string             `json:"logo_url"`
	Address       string             `json:"address"`
	MapsURL       string             `json:"maps_url"`
	SocialLinks   models.SocialLinks `json:"social_links"`
}

// UpdateSettings overwrites the editable settings of tenantID. Callers
// check the team-management gate first.
func (s *Service) UpdateSettings(ctx context.Context, tenantID string, in Settings) (*models.Tenant, error) {
	current, err := s.tenants.GetByID(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("get tenant: %w", err)
	}
	if current == nil {
		return nil, ErrTenantNotFound
	}

	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, ErrNameRequired
	}
	slug := NormalizeSlug(in.Slug)
	if slug == "" {
		return nil, ErrSlugRequired
	}
	color := strings.TrimSpace(in.PrimaryColor)
	if color == "" {
		color = DefaultPrimaryColor
	}

	updated := *current
	updated.Name = name
	updated.Slug = slug
	updated.WhatsAppPhone = storefront.Digits(in.WhatsAppPhone)
	updated.Branding = models.Branding{PrimaryColor: color, LogoURL: strings.TrimSpace(in.LogoURL)}
	updated.Address = strings.TrimSpace(in.Address)
	updated.MapsURL = strings.TrimSpace(in.MapsURL)
	updated.SocialLinks = models.SocialLinks{
		Instagram: strings.TrimSpace(in.SocialLinks.Instagram),
		Facebook:  strings.TrimSpace(in.SocialLinks.Facebook),
		TikTok:    strings.TrimSpace(in.SocialLinks.TikTok),
	}

	if err := s.tenants.Update(ctx, &updated); err != nil {
		return nil, fmt.Errorf("update tenant: %w", err)
	}

	s.logger.Info("tenant settings updated", zap.String("tenant_id", tenantID))
	return &updated, nil
}
