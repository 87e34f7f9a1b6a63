package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lalith-99/storefront/internal/app"
	"github.com/lalith-99/storefront/internal/identity"
	"github.com/lalith-99/storefront/internal/models"
	"github.com/lalith-99/storefront/internal/onboarding"
	"github.com/lalith-99/storefront/internal/profile"
	"go.uber.org/zap"
)

const (
	demoTenantID = "demo-shop"
	demoName     = "Mi Changarrito Demo"
	demoPhone    = "5215555555555"
)

var demoProducts = []struct {
	name     string
	price    float64
	category string
}{
	{"Coca Cola 600ml", 18, "Bebidas"},
	{"Sabritas Sal", 22, "Botanas"},
	{"Gansito", 15, "Pan Dulce"},
	{"Emperador Chocolate", 16, "Galletas"},
}

// seedDemo makes email a platform admin and gives them the demo tenant with
// a few products. Running it again only refreshes the claim and profile.
func seedDemo(ctx context.Context, stores *app.Stores, provider *identity.Provider, logger *zap.Logger, email string, out io.Writer) error {
	rec, err := provider.SetPlatformAdmin(ctx, email, true)
	if err != nil {
		return fmt.Errorf("%s must sign up before seeding: %w", email, err)
	}
	fmt.Fprintf(out, "platform admin: %s (%s)\n", rec.Email, rec.ID)

	principal := rec.Principal
	if principal.DisplayName == "" {
		principal.DisplayName = "Platform Admin"
	}
	if _, err := profile.NewAccessor(stores.Profiles, logger).Ensure(ctx, principal); err != nil {
		return fmt.Errorf("ensure profile: %w", err)
	}

	existing, err := stores.Tenants.GetByID(ctx, demoTenantID)
	if err != nil {
		return fmt.Errorf("get demo tenant: %w", err)
	}
	if existing != nil {
		fmt.Fprintf(out, "tenant %q already exists, skipping\n", demoTenantID)
		return nil
	}

	now := time.Now().UTC()
	tenant := &models.Tenant{
		ID:            demoTenantID,
		Name:          demoName,
		Slug:          demoTenantID,
		WhatsAppPhone: demoPhone,
		Branding:      models.Branding{PrimaryColor: onboarding.DefaultPrimaryColor},
		OwnerID:       rec.ID,
		Active:        true,
		CreatedAt:     now,
	}
	owner := &models.Membership{
		PrincipalID: rec.ID,
		TenantID:    tenant.ID,
		Role:        models.RoleOwner,
		JoinedAt:    now,
	}
	if err := stores.Tenants.CreateWithOwner(ctx, tenant, owner); err != nil {
		return fmt.Errorf("create demo tenant: %w", err)
	}
	fmt.Fprintf(out, "tenant: %s (/%s)\n", tenant.Name, tenant.Slug)

	for _, p := range demoProducts {
		product := &models.Product{
			ID:       uuid.NewString(),
			TenantID: tenant.ID,
			Name:     p.name,
			Price:    p.price,
			Category: strings.ToLower(p.category),
			Images:   []string{},
			Tags:     []string{},
			Active:   true,
		}
		if err := stores.Products.Create(ctx, product); err != nil {
			return fmt.Errorf("create product %q: %w", p.name, err)
		}
	}
	fmt.Fprintf(out, "products: %d\n", len(demoProducts))
	return nil
}
