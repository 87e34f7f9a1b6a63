// Package tenancy decides which tenants a principal may act on, with which
// role, and which one is currently selected.
package tenancy

import (
	"context"
	"fmt"

	"github.com/lalith-99/storefront/internal/models"
	"github.com/lalith-99/storefront/internal/repository"
	"golang.org/x/sync/errgroup"
)

// parentLookupLimit caps concurrent tenant reads while resolving
// memberships.
const parentLookupLimit = 8

// Resolution is the outcome of resolving one principal: tenants in
// discovery order and the effective grant for each of them.
type Resolution struct {
	Tenants []models.Tenant
	Grants  map[string]Grant
}

func emptyResolution() Resolution {
	return Resolution{Tenants: []models.Tenant{}, Grants: map[string]Grant{}}
}

// Has reports whether tenantID is in the resolved set.
func (r Resolution) Has(tenantID string) bool {
	_, ok := r.Grants[tenantID]
	return ok
}

// Tenant returns the resolved tenant with the given id.
func (r Resolution) Tenant(tenantID string) (models.Tenant, bool) {
	for _, t := range r.Tenants {
		if t.ID == tenantID {
			return t, true
		}
	}
	return models.Tenant{}, false
}

// add records tenant with grant unless the tenant is already present.
func (r *Resolution) add(t models.Tenant, g Grant) {
	if r.Has(t.ID) {
		return
	}
	r.Tenants = append(r.Tenants, t)
	r.Grants[t.ID] = g
}

type Resolver struct {
	tenants     repository.TenantRepository
	memberships repository.MembershipRepository
}

func NewResolver(tenants repository.TenantRepository, memberships repository.MembershipRepository) *Resolver {
	return &Resolver{tenants: tenants, memberships: memberships}
}

// Resolve computes the tenants principalID may select:
//
//  1. every tenant holding a membership for the principal, skipping
//     memberships whose tenant no longer exists;
//  2. for platform admins, every other tenant with an implied owner grant;
//  3. otherwise, only when step 1 found nothing, tenants whose owner field
//     is the principal, also with an implied owner grant.
//
// The first grant recorded for a tenant wins, so a stored membership is
// never replaced by an implied one. Any read error discards everything and
// returns an empty Resolution along with the error.
func (r *Resolver) Resolve(ctx context.Context, principalID string, claims models.Claims) (Resolution, error) {
	res := emptyResolution()

	if err := r.addMemberships(ctx, principalID, &res); err != nil {
		return emptyResolution(), err
	}

	switch {
	case claims.PlatformAdmin:
		all, err := r.tenants.ListAll(ctx)
		if err != nil {
			return emptyResolution(), fmt.Errorf("list all tenants: %w", err)
		}
		for _, t := range all {
			res.add(t, impliedOwner(principalID, t, InheritedPlatformAdmin))
		}

	case len(res.Tenants) == 0:
		owned, err := r.tenants.ListByOwner(ctx, principalID)
		if err != nil {
			return emptyResolution(), fmt.Errorf("list owned tenants: %w", err)
		}
		for _, t := range owned {
			res.add(t, impliedOwner(principalID, t, InheritedLegacyOwner))
		}
	}

	return res, nil
}

func (r *Resolver) addMemberships(ctx context.Context, principalID string, res *Resolution) error {
	records, err := r.memberships.ListByPrincipal(ctx, principalID)
	if err != nil {
		return fmt.Errorf("list memberships: %w", err)
	}

	memberships := make([]models.Membership, len(records))
	for i, rec := range records {
		m := rec.Membership
		if m.TenantID == "" {
			m.TenantID = rec.ParentTenantID
		}
		memberships[i] = m
	}

	// Parent lookups run concurrently; results land by index so discovery
	// order is kept, and the first failure cancels the rest.
	parents := make([]*models.Tenant, len(memberships))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(parentLookupLimit)
	for i, m := range memberships {
		if m.TenantID == "" {
			continue
		}
		g.Go(func() error {
			t, err := r.tenants.GetByID(gctx, m.TenantID)
			if err != nil {
				return fmt.Errorf("get tenant %s: %w", m.TenantID, err)
			}
			parents[i] = t
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for i, t := range parents {
		if t == nil {
			// Orphaned membership: the tenant was deleted.
			continue
		}
		res.add(*t, Stored(memberships[i]))
	}
	return nil
}

// impliedOwner synthesizes an owner grant. JoinedAt is the tenant's
// creation time so repeated resolutions produce identical grants.
func impliedOwner(principalID string, t models.Tenant, via Inheritance) Grant {
	return Synthesized(models.Membership{
		PrincipalID: principalID,
		TenantID:    t.ID,
		Role:        models.RoleOwner,
		JoinedAt:    t.CreatedAt,
	}, via)
}
