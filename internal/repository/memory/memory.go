// Package memory implements the repository contracts in process. It backs
// STORE_BACKEND=memory for local development and the service tests.
package memory

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/lalith-99/storefront/internal/models"
)

// DB is the shared state behind every store returned by New. One mutex
// guards all collections so CreateWithOwner can write two of them at once.
type DB struct {
	mu sync.RWMutex

	principals  map[string]models.PrincipalRecord
	profiles    map[string]models.UserProfile
	tenants     map[string]models.Tenant
	memberships map[string]map[string]models.MembershipRecord // tenant id -> principal id
	products    map[string]models.Product
	leads       []models.Lead
	nextLeadID  int64

	now func() time.Time
}

func New() *DB {
	return &DB{
		principals:  make(map[string]models.PrincipalRecord),
		profiles:    make(map[string]models.UserProfile),
		tenants:     make(map[string]models.Tenant),
		memberships: make(map[string]map[string]models.MembershipRecord),
		products:    make(map[string]models.Product),
		now:         time.Now,
	}
}

// SetClock replaces the time source used for generated timestamps.
func (d *DB) SetClock(now func() time.Time) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.now = now
}

func (d *DB) Principals() *PrincipalStore   { return &PrincipalStore{db: d} }
func (d *DB) Profiles() *ProfileStore       { return &ProfileStore{db: d} }
func (d *DB) Tenants() *TenantStore         { return &TenantStore{db: d} }
func (d *DB) Memberships() *MembershipStore { return &MembershipStore{db: d} }
func (d *DB) Products() *ProductStore       { return &ProductStore{db: d} }
func (d *DB) Leads() *LeadStore             { return &LeadStore{db: d} }

// ---------------------------------------------------------------
// Principals
// ---------------------------------------------------------------

type PrincipalStore struct{ db *DB }

func (s *PrincipalStore) Create(_ context.Context, rec *models.PrincipalRecord) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	if _, ok := s.db.principals[rec.ID]; ok {
		return fmt.Errorf("insert principal: duplicate id %s", rec.ID)
	}
	for _, p := range s.db.principals {
		if strings.EqualFold(p.Email, rec.Email) {
			return fmt.Errorf("insert principal: duplicate email %s", rec.Email)
		}
	}
	rec.CreatedAt = s.db.now()
	s.db.principals[rec.ID] = *rec
	return nil
}

func (s *PrincipalStore) GetByID(_ context.Context, id string) (*models.PrincipalRecord, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	p, ok := s.db.principals[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (s *PrincipalStore) GetByEmail(_ context.Context, email string) (*models.PrincipalRecord, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	for _, p := range s.db.principals {
		if strings.EqualFold(p.Email, email) {
			return &p, nil
		}
	}
	return nil, nil
}

func (s *PrincipalStore) SetClaims(_ context.Context, id string, claims models.Claims) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	p, ok := s.db.principals[id]
	if !ok {
		return fmt.Errorf("set claims: principal %s not found", id)
	}
	p.Claims = claims
	s.db.principals[id] = p
	return nil
}

// ---------------------------------------------------------------
// Profiles
// ---------------------------------------------------------------

type ProfileStore struct{ db *DB }

func (s *ProfileStore) GetByID(_ context.Context, principalID string) (*models.UserProfile, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	p, ok := s.db.profiles[principalID]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (s *ProfileStore) GetByEmail(_ context.Context, email string) (*models.UserProfile, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	var found *models.UserProfile
	for _, p := range s.db.profiles {
		if p.Email == nil || *p.Email != email {
			continue
		}
		if found == nil || p.CreatedAt.Before(found.CreatedAt) {
			cp := p
			found = &cp
		}
	}
	return found, nil
}

func (s *ProfileStore) Create(_ context.Context, profile *models.UserProfile) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	if _, ok := s.db.profiles[profile.ID]; ok {
		return nil
	}
	s.db.profiles[profile.ID] = *profile
	return nil
}

// ---------------------------------------------------------------
// Tenants
// ---------------------------------------------------------------

type TenantStore struct{ db *DB }

func (s *TenantStore) GetByID(_ context.Context, tenantID string) (*models.Tenant, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	t, ok := s.db.tenants[tenantID]
	if !ok {
		return nil, nil
	}
	return &t, nil
}

func (s *TenantStore) GetBySlug(ctx context.Context, slug string) (*models.Tenant, error) {
	all, err := s.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	for _, t := range all {
		if t.Slug == slug {
			return &t, nil
		}
	}
	return nil, nil
}

func (s *TenantStore) ListAll(_ context.Context) ([]models.Tenant, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	return s.db.sortedTenants(func(models.Tenant) bool { return true }), nil
}

func (s *TenantStore) ListByOwner(_ context.Context, principalID string) ([]models.Tenant, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	return s.db.sortedTenants(func(t models.Tenant) bool { return t.OwnerID == principalID }), nil
}

func (d *DB) sortedTenants(keep func(models.Tenant) bool) []models.Tenant {
	out := make([]models.Tenant, 0, len(d.tenants))
	for _, t := range d.tenants {
		if keep(t) {
			out = append(out, t)
		}
	}
	slices.SortFunc(out, func(a, b models.Tenant) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out
}

// PutTenant stores a tenant without an owner membership, the shape of
// tenants created before memberships existed.
func (s *TenantStore) PutTenant(t models.Tenant) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	s.db.tenants[t.ID] = t
}

// DeleteTenant removes only the tenant document, leaving its memberships
// orphaned.
func (s *TenantStore) DeleteTenant(tenantID string) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	delete(s.db.tenants, tenantID)
}

func (s *TenantStore) CreateWithOwner(_ context.Context, tenant *models.Tenant, owner *models.Membership) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	if _, ok := s.db.tenants[tenant.ID]; ok {
		return fmt.Errorf("insert tenant: duplicate id %s", tenant.ID)
	}
	s.db.tenants[tenant.ID] = *tenant
	s.db.putMembership(tenant.ID, *owner)
	return nil
}

func (s *TenantStore) Update(_ context.Context, tenant *models.Tenant) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	existing, ok := s.db.tenants[tenant.ID]
	if !ok {
		return fmt.Errorf("update tenant: %s not found", tenant.ID)
	}
	updated := *tenant
	updated.OwnerID = existing.OwnerID
	updated.CreatedAt = existing.CreatedAt
	s.db.tenants[tenant.ID] = updated
	return nil
}

// ---------------------------------------------------------------
// Memberships
// ---------------------------------------------------------------

type MembershipStore struct{ db *DB }

func (d *DB) putMembership(parentTenantID string, m models.Membership) {
	byPrincipal, ok := d.memberships[parentTenantID]
	if !ok {
		byPrincipal = make(map[string]models.MembershipRecord)
		d.memberships[parentTenantID] = byPrincipal
	}
	byPrincipal[m.PrincipalID] = models.MembershipRecord{ParentTenantID: parentTenantID, Membership: m}
}

// PutRecord stores a membership body verbatim under parentTenantID,
// including an empty TenantID field.
func (s *MembershipStore) PutRecord(parentTenantID string, m models.Membership) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	s.db.putMembership(parentTenantID, m)
}

func (s *MembershipStore) ListByPrincipal(_ context.Context, principalID string) ([]models.MembershipRecord, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	out := make([]models.MembershipRecord, 0)
	for _, byPrincipal := range s.db.memberships {
		if r, ok := byPrincipal[principalID]; ok {
			out = append(out, r)
		}
	}
	slices.SortFunc(out, func(a, b models.MembershipRecord) int {
		if c := a.Membership.JoinedAt.Compare(b.Membership.JoinedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ParentTenantID, b.ParentTenantID)
	})
	return out, nil
}

func (s *MembershipStore) ListByTenant(_ context.Context, tenantID string) ([]models.Membership, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	out := make([]models.Membership, 0)
	for _, r := range s.db.memberships[tenantID] {
		m := r.Membership
		m.TenantID = tenantID
		out = append(out, m)
	}
	slices.SortFunc(out, func(a, b models.Membership) int {
		if c := a.JoinedAt.Compare(b.JoinedAt); c != 0 {
			return c
		}
		return strings.Compare(a.PrincipalID, b.PrincipalID)
	})
	return out, nil
}

func (s *MembershipStore) Upsert(_ context.Context, m *models.Membership) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	s.db.putMembership(m.TenantID, *m)
	return nil
}

func (s *MembershipStore) Delete(_ context.Context, tenantID, principalID string) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	delete(s.db.memberships[tenantID], principalID)
	return nil
}

// ---------------------------------------------------------------
// Products
// ---------------------------------------------------------------

type ProductStore struct{ db *DB }

func (s *ProductStore) Create(_ context.Context, p *models.Product) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	if _, ok := s.db.products[p.ID]; ok {
		return fmt.Errorf("insert product: duplicate id %s", p.ID)
	}
	now := s.db.now()
	p.CreatedAt, p.UpdatedAt = now, now
	s.db.products[p.ID] = cloneProduct(*p)
	return nil
}

func (s *ProductStore) GetByID(_ context.Context, tenantID, productID string) (*models.Product, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	p, ok := s.db.products[productID]
	if !ok || p.TenantID != tenantID {
		return nil, nil
	}
	cp := cloneProduct(p)
	return &cp, nil
}

func (s *ProductStore) ListByTenant(_ context.Context, tenantID string, activeOnly bool) ([]models.Product, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	out := make([]models.Product, 0)
	for _, p := range s.db.products {
		if p.TenantID != tenantID || (activeOnly && !p.Active) {
			continue
		}
		out = append(out, cloneProduct(p))
	}
	slices.SortFunc(out, func(a, b models.Product) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out, nil
}

func (s *ProductStore) Update(_ context.Context, p *models.Product) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	existing, ok := s.db.products[p.ID]
	if !ok || existing.TenantID != p.TenantID {
		return fmt.Errorf("update product: %s not found", p.ID)
	}
	p.CreatedAt = existing.CreatedAt
	p.UpdatedAt = s.db.now()
	s.db.products[p.ID] = cloneProduct(*p)
	return nil
}

func (s *ProductStore) Delete(_ context.Context, tenantID, productID string) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	if p, ok := s.db.products[productID]; ok && p.TenantID == tenantID {
		delete(s.db.products, productID)
	}
	return nil
}

func cloneProduct(p models.Product) models.Product {
	p.Images = slices.Clone(p.Images)
	p.Tags = slices.Clone(p.Tags)
	return p
}

// ---------------------------------------------------------------
// Leads
// ---------------------------------------------------------------

type LeadStore struct{ db *DB }

func (s *LeadStore) Create(_ context.Context, lead *models.Lead) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	s.db.nextLeadID++
	now := s.db.now()
	lead.ID = s.db.nextLeadID
	lead.CreatedAt, lead.UpdatedAt = now, now
	stored := *lead
	stored.Items = slices.Clone(lead.Items)
	s.db.leads = append(s.db.leads, stored)
	return nil
}

func (s *LeadStore) ListByTenant(_ context.Context, tenantID string, before int64, limit int) ([]models.Lead, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	out := make([]models.Lead, 0)
	for i := len(s.db.leads) - 1; i >= 0 && len(out) < limit; i-- {
		l := s.db.leads[i]
		if l.TenantID != tenantID || (before > 0 && l.ID >= before) {
			continue
		}
		l.Items = slices.Clone(l.Items)
		out = append(out, l)
	}
	return out, nil
}

func (s *LeadStore) UpdateStatus(_ context.Context, tenantID string, leadID int64, status models.LeadStatus, notes string) (*models.Lead, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	for i := range s.db.leads {
		l := &s.db.leads[i]
		if l.ID != leadID || l.TenantID != tenantID {
			continue
		}
		l.Status = status
		l.Notes = notes
		l.UpdatedAt = s.db.now()
		cp := *l
		cp.Items = slices.Clone(l.Items)
		return &cp, nil
	}
	return nil, nil
}
