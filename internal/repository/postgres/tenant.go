package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lalith-99/storefront/internal/db"
	"github.com/lalith-99/storefront/internal/models"
)

type TenantStore struct {
	pool *pgxpool.Pool
}

func NewTenantStore(pool *pgxpool.Pool) *TenantStore {
	return &TenantStore{pool: pool}
}

const tenantColumns = `
	id, name, slug, whatsapp_phone, primary_color, logo_url, address, maps_url,
	instagram, facebook, tiktok, owner_id, active, created_at`

func scanTenant(row pgx.Row) (*models.Tenant, error) {
	var t models.Tenant
	err := row.Scan(
		&t.ID,
		&t.Name,
		&t.Slug,
		&t.WhatsAppPhone,
		&t.Branding.PrimaryColor,
		&t.Branding.LogoURL,
		&t.Address,
		&t.MapsURL,
		&t.SocialLinks.Instagram,
		&t.SocialLinks.Facebook,
		&t.SocialLinks.TikTok,
		&t.OwnerID,
		&t.Active,
		&t.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *TenantStore) GetByID(ctx context.Context, tenantID string) (*models.Tenant, error) {
	query := `SELECT ` + tenantColumns + ` FROM tenants WHERE id = $1`

	t, err := scanTenant(s.pool.QueryRow(ctx, query, tenantID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get tenant: %w", err)
	}
	return t, nil
}

func (s *TenantStore) GetBySlug(ctx context.Context, slug string) (*models.Tenant, error) {
	query := `SELECT ` + tenantColumns + ` FROM tenants WHERE slug = $1 ORDER BY created_at, id LIMIT 1`

	t, err := scanTenant(s.pool.QueryRow(ctx, query, slug))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get tenant by slug: %w", err)
	}
	return t, nil
}

func (s *TenantStore) ListAll(ctx context.Context) ([]models.Tenant, error) {
	query := `SELECT ` + tenantColumns + ` FROM tenants ORDER BY created_at, id`
	return s.list(ctx, "list tenants", query)
}

func (s *TenantStore) ListByOwner(ctx context.Context, principalID string) ([]models.Tenant, error) {
	query := `SELECT ` + tenantColumns + ` FROM tenants WHERE owner_id = $1 ORDER BY created_at, id`
	return s.list(ctx, "list tenants by owner", query, principalID)
}

func (s *TenantStore) list(ctx context.Context, op, query string, args ...any) ([]models.Tenant, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	tenants := make([]models.Tenant, 0)
	for rows.Next() {
		t, err := scanTenant(rows)
		if err != nil {
			return nil, fmt.Errorf("scan tenant: %w", err)
		}
		tenants = append(tenants, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tenants: %w", err)
	}
	return tenants, nil
}

func (s *TenantStore) CreateWithOwner(ctx context.Context, tenant *models.Tenant, owner *models.Membership) error {
	return db.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		insertTenant := `
			INSERT INTO tenants (
				id, name, slug, whatsapp_phone, primary_color, logo_url, address, maps_url,
				instagram, facebook, tiktok, owner_id, active, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

		_, err := tx.Exec(ctx, insertTenant,
			tenant.ID, tenant.Name, tenant.Slug, tenant.WhatsAppPhone,
			tenant.Branding.PrimaryColor, tenant.Branding.LogoURL, tenant.Address, tenant.MapsURL,
			tenant.SocialLinks.Instagram, tenant.SocialLinks.Facebook, tenant.SocialLinks.TikTok,
			tenant.OwnerID, tenant.Active, tenant.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("insert tenant: %w", err)
		}

		insertOwner := `
			INSERT INTO memberships (tenant_id, principal_id, member_tenant_id, role, joined_at)
			VALUES ($1, $2, $1, $3, $4)`

		_, err = tx.Exec(ctx, insertOwner, tenant.ID, owner.PrincipalID, owner.Role, owner.JoinedAt)
		if err != nil {
			return fmt.Errorf("insert owner membership: %w", err)
		}
		return nil
	})
}

func (s *TenantStore) Update(ctx context.Context, tenant *models.Tenant) error {
	query := `
		UPDATE tenants SET
			name = $2, slug = $3, whatsapp_phone = $4, primary_color = $5, logo_url = $6,
			address = $7, maps_url = $8, instagram = $9, facebook = $10, tiktok = $11, active = $12
		WHERE id = $1`

	tag, err := s.pool.Exec(ctx, query,
		tenant.ID, tenant.Name, tenant.Slug, tenant.WhatsAppPhone,
		tenant.Branding.PrimaryColor, tenant.Branding.LogoURL, tenant.Address, tenant.MapsURL,
		tenant.SocialLinks.Instagram, tenant.SocialLinks.Facebook, tenant.SocialLinks.TikTok,
		tenant.Active,
	)
	if err != nil {
		return fmt.Errorf("update tenant: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update tenant: %s not found", tenant.ID)
	}
	return nil
}
