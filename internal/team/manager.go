// Package team lists, invites and removes the members of one tenant.
package team

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lalith-99/storefront/internal/models"
	"github.com/lalith-99/storefront/internal/repository"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	ErrNoSuchUser   = errors.New("no such user")
	ErrOwnerRemoval = errors.New("the owner cannot be removed")
	ErrInvalidRole  = errors.New("role must be admin or staff")
	ErrNotMember    = errors.New("not a member of this tenant")
	ErrOwnerDemoted = errors.New("the owner's role cannot be changed")
)

// profileLookupLimit caps concurrent profile reads while listing a team.
const profileLookupLimit = 8

type Manager struct {
	memberships repository.MembershipRepository
	profiles    repository.ProfileRepository
	logger      *zap.Logger
	now         func() time.Time
}

func NewManager(memberships repository.MembershipRepository, profiles repository.ProfileRepository, logger *zap.Logger) *Manager {
	return &Manager{memberships: memberships, profiles: profiles, logger: logger, now: time.Now}
}

// List returns the tenant's members joined with their profiles. A member
// without a profile gets nil email and display name.
func (m *Manager) List(ctx context.Context, tenantID string) ([]models.TeamMember, error) {
	memberships, err := m.memberships.ListByTenant(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list memberships: %w", err)
	}

	rows := make([]models.TeamMember, len(memberships))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(profileLookupLimit)
	for i, ms := range memberships {
		rows[i] = models.TeamMember{
			PrincipalID: ms.PrincipalID,
			Role:        ms.Role,
			JoinedAt:    ms.JoinedAt,
		}
		g.Go(func() error {
			p, err := m.profiles.GetByID(gctx, ms.PrincipalID)
			if err != nil {
				return fmt.Errorf("get profile %s: %w", ms.PrincipalID, err)
			}
			if p != nil {
				rows[i].Email = p.Email
				rows[i].DisplayName = p.DisplayName
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return rows, nil
}

// Invite grants role to the principal whose profile has the given email,
// replacing any role they already hold in the tenant. Only admin and staff
// can be granted this way, and an owner's membership is never rewritten.
func (m *Manager) Invite(ctx context.Context, tenantID, email string, role models.Role) (*models.Membership, error) {
	if role != models.RoleAdmin && role != models.RoleStaff {
		return nil, ErrInvalidRole
	}
	email = strings.TrimSpace(email)

	p, err := m.profiles.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("find profile by email: %w", err)
	}
	if p == nil {
		return nil, ErrNoSuchUser
	}

	current, err := m.memberships.ListByTenant(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list memberships: %w", err)
	}
	for _, existing := range current {
		if existing.PrincipalID == p.ID && existing.Role == models.RoleOwner {
			return nil, ErrOwnerDemoted
		}
	}

	ms := &models.Membership{
		PrincipalID: p.ID,
		TenantID:    tenantID,
		Role:        role,
		JoinedAt:    m.now().UTC(),
	}
	if err := m.memberships.Upsert(ctx, ms); err != nil {
		return nil, fmt.Errorf("upsert membership: %w", err)
	}

	m.logger.Info("member invited",
		zap.String("tenant_id", tenantID),
		zap.String("principal_id", p.ID),
		zap.String("role", string(role)),
	)
	return ms, nil
}

// Remove deletes a membership. role is the member's role as the caller
// last saw it; owners are refused without touching storage.
func (m *Manager) Remove(ctx context.Context, tenantID, principalID string, role models.Role) error {
	if role == models.RoleOwner {
		return ErrOwnerRemoval
	}
	if err := m.memberships.Delete(ctx, tenantID, principalID); err != nil {
		return fmt.Errorf("delete membership: %w", err)
	}

	m.logger.Info("member removed",
		zap.String("tenant_id", tenantID),
		zap.String("principal_id", principalID),
	)
	return nil
}
