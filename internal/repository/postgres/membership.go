package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lalith-99/storefront/internal/models"
)

type MembershipStore struct {
	pool *pgxpool.Pool
}

func NewMembershipStore(pool *pgxpool.Pool) *MembershipStore {
	return &MembershipStore{pool: pool}
}

// ListByPrincipal scans memberships across every tenant via
// idx_memberships_principal. Rows come back in join order so repeated
// calls see the same sequence.
func (s *MembershipStore) ListByPrincipal(ctx context.Context, principalID string) ([]models.MembershipRecord, error) {
	query := `
		SELECT tenant_id, principal_id, member_tenant_id, role, joined_at
		FROM memberships
		WHERE principal_id = $1
		ORDER BY joined_at, tenant_id`

	rows, err := s.pool.Query(ctx, query, principalID)
	if err != nil {
		return nil, fmt.Errorf("list memberships by principal: %w", err)
	}
	defer rows.Close()

	records := make([]models.MembershipRecord, 0)
	for rows.Next() {
		var r models.MembershipRecord
		if err := rows.Scan(
			&r.ParentTenantID,
			&r.Membership.PrincipalID,
			&r.Membership.TenantID,
			&r.Membership.Role,
			&r.Membership.JoinedAt,
		); err != nil {
			return nil, fmt.Errorf("scan membership: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate memberships: %w", err)
	}
	return records, nil
}

func (s *MembershipStore) ListByTenant(ctx context.Context, tenantID string) ([]models.Membership, error) {
	query := `
		SELECT tenant_id, principal_id, role, joined_at
		FROM memberships
		WHERE tenant_id = $1
		ORDER BY joined_at, principal_id`

	rows, err := s.pool.Query(ctx, query, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	members := make([]models.Membership, 0)
	for rows.Next() {
		var m models.Membership
		if err := rows.Scan(&m.TenantID, &m.PrincipalID, &m.Role, &m.JoinedAt); err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate members: %w", err)
	}
	return members, nil
}

// Upsert overwrites role and joined_at on conflict, so inviting an
// existing member changes their role instead of failing.
func (s *MembershipStore) Upsert(ctx context.Context, m *models.Membership) error {
	query := `
		INSERT INTO memberships (tenant_id, principal_id, member_tenant_id, role, joined_at)
		VALUES ($1, $2, $1, $3, $4)
		ON CONFLICT (tenant_id, principal_id)
		DO UPDATE SET role = EXCLUDED.role, joined_at = EXCLUDED.joined_at,
			member_tenant_id = EXCLUDED.member_tenant_id`

	_, err := s.pool.Exec(ctx, query, m.TenantID, m.PrincipalID, m.Role, m.JoinedAt)
	if err != nil {
		return fmt.Errorf("upsert member: %w", err)
	}
	return nil
}

func (s *MembershipStore) Delete(ctx context.Context, tenantID, principalID string) error {
	query := `
		DELETE FROM memberships
		WHERE tenant_id = $1 AND principal_id = $2`

	_, err := s.pool.Exec(ctx, query, tenantID, principalID)
	if err != nil {
		return fmt.Errorf("remove member: %w", err)
	}
	return nil
}
