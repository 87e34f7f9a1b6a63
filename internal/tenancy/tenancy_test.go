package tenancy

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/lalith-99/storefront/internal/models"
	"github.com/lalith-99/storefront/internal/repository/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var errBackend = errors.New("backend unavailable")

var base = time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)

// fakeClaims implements ClaimsSource.
type fakeClaims struct {
	mu     sync.Mutex
	claims map[string]models.Claims
	err    error
}

func (f *fakeClaims) RefreshClaims(_ context.Context, principalID string) (models.Claims, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return models.Claims{}, f.err
	}
	return f.claims[principalID], nil
}

func (f *fakeClaims) set(principalID string, c models.Claims) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.claims == nil {
		f.claims = make(map[string]models.Claims)
	}
	f.claims[principalID] = c
}

// fakeSelection implements SelectionStore.
type fakeSelection struct {
	mu      sync.Mutex
	last    map[string]string
	saveErr error
	loadErr error
}

func (f *fakeSelection) Load(_ context.Context, principalID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.loadErr != nil {
		return "", f.loadErr
	}
	return f.last[principalID], nil
}

func (f *fakeSelection) Save(_ context.Context, principalID, tenantID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	if f.last == nil {
		f.last = make(map[string]string)
	}
	f.last[principalID] = tenantID
	return nil
}

// failingTenants makes every tenant read fail.
type failingTenants struct {
	*memory.TenantStore
}

func (failingTenants) GetByID(context.Context, string) (*models.Tenant, error) {
	return nil, errBackend
}

func (failingTenants) ListAll(context.Context) ([]models.Tenant, error) {
	return nil, errBackend
}

type fixture struct {
	db        *memory.DB
	claims    *fakeClaims
	selection *fakeSelection
	resolver  *Resolver
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := memory.New()
	return &fixture{
		db:        db,
		claims:    &fakeClaims{},
		selection: &fakeSelection{},
		resolver:  NewResolver(db.Tenants(), db.Memberships()),
	}
}

func (f *fixture) tenant(id, ownerID string, offset time.Duration) models.Tenant {
	t := models.Tenant{
		ID:        id,
		Name:      "Shop " + id,
		Slug:      "shop-" + id,
		OwnerID:   ownerID,
		Active:    true,
		CreatedAt: base.Add(offset),
	}
	f.db.Tenants().PutTenant(t)
	return t
}

func (f *fixture) member(tenantID, principalID string, role models.Role, offset time.Duration) {
	f.db.Memberships().PutRecord(tenantID, models.Membership{
		PrincipalID: principalID,
		TenantID:    tenantID,
		Role:        role,
		JoinedAt:    base.Add(offset),
	})
}

func (f *fixture) session(principalID string) *Session {
	return NewSession(models.Principal{ID: principalID}, f.resolver, f.claims, f.selection, zap.NewNop())
}

func tenantIDs(ts []models.Tenant) []string {
	ids := make([]string, 0, len(ts))
	for _, t := range ts {
		ids = append(ids, t.ID)
	}
	return ids
}

// ---------------------------------------------------------------
// Resolver
// ---------------------------------------------------------------

func TestResolve_NoAccessIsEmpty(t *testing.T) {
	f := newFixture(t)
	f.tenant("t1", "someone-else", 0)

	res, err := f.resolver.Resolve(context.Background(), "u1", models.Claims{})
	require.NoError(t, err)
	assert.Empty(t, res.Tenants)
	assert.Empty(t, res.Grants)
}

func TestResolve_PlatformAdminSeesEveryTenant(t *testing.T) {
	f := newFixture(t)
	f.tenant("t1", "o1", 0)
	f.tenant("t2", "o2", time.Minute)
	f.tenant("t3", "o3", 2*time.Minute)

	res, err := f.resolver.Resolve(context.Background(), "admin", models.Claims{PlatformAdmin: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"t1", "t2", "t3"}, tenantIDs(res.Tenants))
	for _, id := range []string{"t1", "t2", "t3"} {
		g := res.Grants[id]
		assert.True(t, g.IsSynthesized(), id)
		assert.Equal(t, models.RoleOwner, g.Role(), id)
		assert.Equal(t, InheritedPlatformAdmin, g.Via(), id)
		assert.Equal(t, "admin", g.Membership().PrincipalID, id)
	}
}

func TestResolve_StoredMembershipWinsOverPlatformAdmin(t *testing.T) {
	f := newFixture(t)
	f.tenant("t1", "o1", 0)
	f.tenant("t2", "o2", time.Minute)
	f.member("t2", "admin", models.RoleStaff, 0)

	res, err := f.resolver.Resolve(context.Background(), "admin", models.Claims{PlatformAdmin: true})
	require.NoError(t, err)

	assert.Equal(t, []string{"t2", "t1"}, tenantIDs(res.Tenants), "memberships are discovered first")
	stored, ok := res.Grants["t2"].StoredMembership()
	require.True(t, ok)
	assert.Equal(t, models.RoleStaff, stored.Role)
	assert.True(t, res.Grants["t1"].IsSynthesized())
}

func TestResolve_SkipsOrphanedMembership(t *testing.T) {
	f := newFixture(t)
	f.tenant("t1", "o1", 0)
	f.member("t1", "u1", models.RoleAdmin, 0)
	f.member("gone", "u1", models.RoleStaff, time.Minute)

	res, err := f.resolver.Resolve(context.Background(), "u1", models.Claims{})
	require.NoError(t, err)
	assert.Equal(t, []string{"t1"}, tenantIDs(res.Tenants))
	assert.False(t, res.Has("gone"))
}

func TestResolve_DefaultsTenantIDFromParent(t *testing.T) {
	f := newFixture(t)
	f.tenant("t1", "o1", 0)
	f.db.Memberships().PutRecord("t1", models.Membership{PrincipalID: "u1", Role: models.RoleStaff, JoinedAt: base})

	res, err := f.resolver.Resolve(context.Background(), "u1", models.Claims{})
	require.NoError(t, err)
	require.True(t, res.Has("t1"))
	assert.Equal(t, "t1", res.Grants["t1"].Membership().TenantID)
}

func TestResolve_LegacyOwnerFallback(t *testing.T) {
	f := newFixture(t)
	f.tenant("t1", "u1", 0)
	f.tenant("t2", "u1", time.Minute)
	f.tenant("t3", "o3", 2*time.Minute)

	res, err := f.resolver.Resolve(context.Background(), "u1", models.Claims{})
	require.NoError(t, err)
	assert.Equal(t, []string{"t1", "t2"}, tenantIDs(res.Tenants))
	assert.Equal(t, InheritedLegacyOwner, res.Grants["t1"].Via())
	assert.Equal(t, models.RoleOwner, res.Grants["t2"].Role())
}

func TestResolve_LegacyFallbackOnlyWithoutMemberships(t *testing.T) {
	f := newFixture(t)
	f.tenant("t1", "u1", 0)
	f.tenant("t2", "o2", time.Minute)
	f.member("t2", "u1", models.RoleStaff, 0)

	res, err := f.resolver.Resolve(context.Background(), "u1", models.Claims{})
	require.NoError(t, err)
	assert.Equal(t, []string{"t2"}, tenantIDs(res.Tenants), "owned tenant without a membership is not added")
}

func TestResolve_ReadErrorFailsClosed(t *testing.T) {
	f := newFixture(t)
	f.tenant("t1", "o1", 0)
	f.member("t1", "u1", models.RoleOwner, 0)

	r := NewResolver(failingTenants{f.db.Tenants()}, f.db.Memberships())
	res, err := r.Resolve(context.Background(), "u1", models.Claims{})
	require.ErrorIs(t, err, errBackend)
	assert.Empty(t, res.Tenants)
	assert.Empty(t, res.Grants)
}

func TestResolve_Idempotent(t *testing.T) {
	f := newFixture(t)
	f.tenant("t1", "o1", 0)
	f.tenant("t2", "o2", time.Minute)
	f.member("t1", "u1", models.RoleAdmin, 0)

	first, err := f.resolver.Resolve(context.Background(), "u1", models.Claims{PlatformAdmin: true})
	require.NoError(t, err)
	second, err := f.resolver.Resolve(context.Background(), "u1", models.Claims{PlatformAdmin: true})
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

// ---------------------------------------------------------------
// Gate
// ---------------------------------------------------------------

func TestCanManageTeam(t *testing.T) {
	grant := func(role models.Role) *Grant {
		g := Stored(models.Membership{Role: role})
		return &g
	}

	tests := []struct {
		name          string
		platformAdmin bool
		grant         *Grant
		want          bool
	}{
		{name: "owner", grant: grant(models.RoleOwner), want: true},
		{name: "admin", grant: grant(models.RoleAdmin), want: true},
		{name: "staff", grant: grant(models.RoleStaff), want: false},
		{name: "no membership", grant: nil, want: false},
		{name: "platform admin as staff", platformAdmin: true, grant: grant(models.RoleStaff), want: true},
		{name: "platform admin without membership", platformAdmin: true, grant: nil, want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanManageTeam(tt.platformAdmin, tt.grant))
		})
	}
}

func TestCanOnboard(t *testing.T) {
	assert.True(t, CanOnboard(true))
	assert.False(t, CanOnboard(false))
}

// ---------------------------------------------------------------
// Session
// ---------------------------------------------------------------

func TestSession_NoTenantSelectsNone(t *testing.T) {
	f := newFixture(t)
	s := f.session("u1")
	s.Start(context.Background())

	assert.Empty(t, s.Tenants())
	_, ok := s.Current()
	assert.False(t, ok)
	_, ok = s.CurrentMembership()
	assert.False(t, ok)
	assert.False(t, s.CanManageTeam())
}

func TestSession_StaffCannotManageTeam(t *testing.T) {
	f := newFixture(t)
	f.tenant("t1", "o1", 0)
	f.member("t1", "u1", models.RoleStaff, 0)

	s := f.session("u1")
	s.Start(context.Background())

	current, ok := s.Current()
	require.True(t, ok)
	assert.Equal(t, "t1", current.ID)
	assert.False(t, s.CanManageTeam())
	assert.False(t, s.IsPlatformAdmin())
}

func TestSession_PlatformAdminCanManageTeam(t *testing.T) {
	f := newFixture(t)
	f.tenant("t1", "o1", 0)
	f.claims.set("admin", models.Claims{PlatformAdmin: true})

	s := f.session("admin")
	s.Start(context.Background())

	assert.True(t, s.IsPlatformAdmin())
	assert.True(t, s.CanManageTeam())
	assert.True(t, s.CanOnboard())
	g, ok := s.CurrentMembership()
	require.True(t, ok)
	assert.True(t, g.IsSynthesized())
}

func TestSession_SwitchToUnresolvedIsNoop(t *testing.T) {
	f := newFixture(t)
	f.tenant("t1", "o1", 0)
	f.member("t1", "u1", models.RoleAdmin, 0)

	s := f.session("u1")
	s.Start(context.Background())

	switched, err := s.Switch(context.Background(), "t-unknown")
	require.NoError(t, err)
	assert.False(t, switched)

	current, ok := s.Current()
	require.True(t, ok)
	assert.Equal(t, "t1", current.ID)
	assert.Empty(t, f.selection.last, "nothing persisted")
}

func TestSession_SwitchPersistsAndUpdatesMembership(t *testing.T) {
	f := newFixture(t)
	f.tenant("t1", "o1", 0)
	f.tenant("t2", "o2", time.Minute)
	f.member("t1", "u1", models.RoleStaff, 0)
	f.member("t2", "u1", models.RoleAdmin, time.Minute)

	s := f.session("u1")
	s.Start(context.Background())
	assert.False(t, s.CanManageTeam())

	switched, err := s.Switch(context.Background(), "t2")
	require.NoError(t, err)
	assert.True(t, switched)

	current, _ := s.Current()
	assert.Equal(t, "t2", current.ID)
	assert.True(t, s.CanManageTeam())
	assert.Equal(t, "t2", f.selection.last["u1"])
}

func TestSession_SwitchPersistFailureStillSelects(t *testing.T) {
	f := newFixture(t)
	f.tenant("t1", "o1", 0)
	f.tenant("t2", "o2", time.Minute)
	f.member("t1", "u1", models.RoleStaff, 0)
	f.member("t2", "u1", models.RoleStaff, time.Minute)
	f.selection.saveErr = errBackend

	s := f.session("u1")
	s.Start(context.Background())

	switched, err := s.Switch(context.Background(), "t2")
	require.ErrorIs(t, err, errBackend)
	assert.True(t, switched)
	current, _ := s.Current()
	assert.Equal(t, "t2", current.ID)
}

func TestSession_PersistedSelectionWins(t *testing.T) {
	f := newFixture(t)
	f.tenant("t1", "o1", 0)
	f.tenant("t2", "o2", time.Minute)
	f.member("t1", "u1", models.RoleStaff, 0)
	f.member("t2", "u1", models.RoleStaff, time.Minute)
	require.NoError(t, f.selection.Save(context.Background(), "u1", "t2"))

	s := f.session("u1")
	s.Start(context.Background())

	current, ok := s.Current()
	require.True(t, ok)
	assert.Equal(t, "t2", current.ID)
}

func TestSession_StalePersistedSelectionFallsBackToFirst(t *testing.T) {
	f := newFixture(t)
	f.tenant("t1", "o1", 0)
	f.tenant("t2", "o2", time.Minute)
	f.member("t1", "u1", models.RoleStaff, 0)
	f.member("t2", "u1", models.RoleStaff, time.Minute)
	require.NoError(t, f.selection.Save(context.Background(), "u1", "t2"))

	require.NoError(t, f.db.Memberships().Delete(context.Background(), "t2", "u1"))

	s := f.session("u1")
	s.Start(context.Background())

	current, ok := s.Current()
	require.True(t, ok)
	assert.Equal(t, "t1", current.ID)
}

func TestSession_SelectionLoadErrorFallsBackToFirst(t *testing.T) {
	f := newFixture(t)
	f.tenant("t1", "o1", 0)
	f.member("t1", "u1", models.RoleStaff, 0)
	f.selection.loadErr = errBackend

	s := f.session("u1")
	s.Start(context.Background())

	current, ok := s.Current()
	require.True(t, ok)
	assert.Equal(t, "t1", current.ID)
}

func TestSession_RefreshPicksUpChanges(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.tenant("t1", "o1", 0)

	s := f.session("u1")
	s.Start(ctx)
	assert.Empty(t, s.Tenants())

	f.member("t1", "u1", models.RoleAdmin, 0)
	s.Start(ctx)
	assert.Empty(t, s.Tenants(), "Start only resolves once")

	require.NoError(t, s.Refresh(ctx))
	assert.Equal(t, []string{"t1"}, tenantIDs(s.Tenants()))

	renamed := models.Tenant{ID: "t1", Name: "Renamed", Slug: "shop-t1", OwnerID: "o1", Active: true}
	require.NoError(t, f.db.Tenants().Update(ctx, &renamed))
	s.Refresh(ctx)
	current, _ := s.Current()
	assert.Equal(t, "Renamed", current.Name)
}

func TestSession_ResolutionFailureFailsClosed(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.tenant("t1", "o1", 0)
	f.member("t1", "u1", models.RoleOwner, 0)
	f.claims.set("u1", models.Claims{PlatformAdmin: true})

	s := f.session("u1")
	s.Start(ctx)
	require.Len(t, s.Tenants(), 1)

	f.claims.err = errBackend
	assert.ErrorIs(t, s.Refresh(ctx), errBackend)

	assert.Empty(t, s.Tenants())
	assert.False(t, s.IsPlatformAdmin())
	_, ok := s.Current()
	assert.False(t, ok)
}

func TestSession_StopClearsState(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.tenant("t1", "o1", 0)
	f.member("t1", "u1", models.RoleOwner, 0)

	s := f.session("u1")
	s.Start(ctx)
	require.Len(t, s.Tenants(), 1)

	s.Stop()
	assert.Empty(t, s.Tenants())

	assert.NoError(t, s.Refresh(ctx))
	assert.Empty(t, s.Tenants(), "refresh after stop is a no-op")

	switched, err := s.Switch(ctx, "t1")
	require.NoError(t, err)
	assert.False(t, switched)
}

func TestSession_RefreshDropsRemovedMembership(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.tenant("t1", "o1", 0)
	f.tenant("t2", "o2", time.Hour)
	f.member("t1", "u1", models.RoleAdmin, 0)
	f.member("t2", "u1", models.RoleStaff, time.Hour)

	s := f.session("u1")
	s.Start(ctx)
	current, ok := s.Current()
	require.True(t, ok)
	require.Equal(t, "t1", current.ID)
	require.True(t, s.CanManageTeam())

	require.NoError(t, f.db.Memberships().Delete(ctx, "t1", "u1"))
	require.NoError(t, s.Refresh(ctx))

	current, ok = s.Current()
	require.True(t, ok)
	assert.Equal(t, "t2", current.ID)
	assert.False(t, s.CanManageTeam(), "staff grant in t2 cannot manage the team")
}

func TestSession_RefreshKeepsOwnSelection(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.tenant("t1", "o1", 0)
	f.tenant("t2", "o2", time.Hour)
	f.member("t1", "u1", models.RoleOwner, 0)
	f.member("t2", "u1", models.RoleOwner, time.Hour)

	phone := f.session("u1")
	laptop := f.session("u1")
	phone.Start(ctx)
	laptop.Start(ctx)

	switched, err := laptop.Switch(ctx, "t2")
	require.NoError(t, err)
	require.True(t, switched)
	require.Equal(t, "t2", f.selection.last["u1"])

	require.NoError(t, phone.Refresh(ctx))
	current, _ := phone.Current()
	assert.Equal(t, "t1", current.ID, "another device's switch does not move this one")

	fresh := f.session("u1")
	fresh.Start(ctx)
	current, _ = fresh.Current()
	assert.Equal(t, "t2", current.ID, "new sessions start from the persisted selection")
}

func TestSession_Snapshot(t *testing.T) {
	f := newFixture(t)
	f.tenant("t1", "o1", 0)
	f.member("t1", "u1", models.RoleOwner, 0)

	s := f.session("u1")
	s.Start(context.Background())

	v := s.Snapshot()
	require.NotNil(t, v.CurrentTenant)
	assert.Equal(t, "t1", v.CurrentTenant.ID)
	require.NotNil(t, v.CurrentMembership)
	assert.Equal(t, models.RoleOwner, v.CurrentMembership.Role())
	assert.True(t, v.CanManageTeam)
	assert.False(t, v.CanOnboard)
}

// ---------------------------------------------------------------
// Registry
// ---------------------------------------------------------------

func newRegistry(f *fixture) *Registry {
	return NewRegistry(f.resolver, f.claims, f.selection, zap.NewNop())
}

func TestRegistry_AcquireAndRelease(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.tenant("t1", "o1", 0)
	f.member("t1", "u1", models.RoleOwner, 0)
	reg := newRegistry(f)
	u1 := models.Principal{ID: "u1"}

	s1 := reg.Acquire(ctx, "tok-1", u1, time.Time{})
	s2 := reg.Acquire(ctx, "tok-1", u1, time.Time{})
	assert.Same(t, s1, s2)
	assert.Len(t, s1.Tenants(), 1)
	assert.Equal(t, 1, reg.Len())

	reg.Release("tok-1")
	_, ok := reg.Get("tok-1")
	assert.False(t, ok)
	assert.Empty(t, s1.Tenants(), "released sessions are stopped")

	s3 := reg.Acquire(ctx, "tok-1", u1, time.Time{})
	assert.NotSame(t, s1, s3)
	assert.Len(t, s3.Tenants(), 1)
}

func TestRegistry_SessionsPerToken(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.tenant("t1", "o1", 0)
	f.tenant("t2", "o2", time.Hour)
	f.member("t1", "u1", models.RoleOwner, 0)
	f.member("t2", "u1", models.RoleOwner, time.Hour)
	reg := newRegistry(f)
	u1 := models.Principal{ID: "u1"}

	phone := reg.Acquire(ctx, "tok-phone", u1, time.Time{})
	laptop := reg.Acquire(ctx, "tok-laptop", u1, time.Time{})
	require.NotSame(t, phone, laptop)
	assert.Equal(t, 2, reg.Len())

	_, err := laptop.Switch(ctx, "t2")
	require.NoError(t, err)
	current, _ := phone.Current()
	assert.Equal(t, "t1", current.ID)

	reg.Release("tok-laptop")
	assert.Empty(t, laptop.Tenants())
	got, ok := reg.Get("tok-phone")
	require.True(t, ok)
	assert.Same(t, phone, got)
	assert.Len(t, phone.Tenants(), 2, "signing out one device leaves the other running")
}

func TestRegistry_ExpiredSessionsAreDropped(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.tenant("t1", "o1", 0)
	f.member("t1", "u1", models.RoleOwner, 0)
	reg := newRegistry(f)
	now := base
	reg.now = func() time.Time { return now }
	u1 := models.Principal{ID: "u1"}

	old := reg.Acquire(ctx, "tok-old", u1, base.Add(time.Hour))
	forever := reg.Acquire(ctx, "tok-forever", u1, time.Time{})
	_ = reg.Acquire(ctx, "tok-other", u1, base.Add(time.Hour))
	require.Equal(t, 3, reg.Len())

	now = base.Add(time.Hour)
	_, ok := reg.Get("tok-old")
	assert.False(t, ok, "expired at the token's exp")
	assert.Empty(t, old.Tenants(), "expired sessions are stopped")
	assert.Equal(t, 2, reg.Len())

	fresh := reg.Acquire(ctx, "tok-new", u1, base.Add(2*time.Hour))
	assert.Len(t, fresh.Tenants(), 1)
	assert.Equal(t, 2, reg.Len(), "creating a session sweeps tok-other")
	_, ok = reg.Get("tok-other")
	assert.False(t, ok)

	got, ok := reg.Get("tok-forever")
	require.True(t, ok)
	assert.Same(t, forever, got)

	now = base.Add(3 * time.Hour)
	_ = reg.Acquire(ctx, "tok-last", u1, base.Add(4*time.Hour))
	assert.Equal(t, 2, reg.Len(), "tok-new expired and was swept")
	_, ok = reg.Get("tok-new")
	assert.False(t, ok)
}

func TestRegistry_ReacquireAfterExpiryStartsFresh(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.tenant("t1", "o1", 0)
	f.member("t1", "u1", models.RoleOwner, 0)
	reg := newRegistry(f)
	now := base
	reg.now = func() time.Time { return now }
	u1 := models.Principal{ID: "u1"}

	first := reg.Acquire(ctx, "tok-1", u1, base.Add(time.Minute))
	now = base.Add(time.Minute)
	second := reg.Acquire(ctx, "tok-1", u1, base.Add(time.Hour))
	assert.NotSame(t, first, second)
	assert.Empty(t, first.Tenants())
	assert.Len(t, second.Tenants(), 1)
}

func TestRegistry_ConcurrentAcquire(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.tenant("t1", "o1", 0)
	f.member("t1", "u1", models.RoleOwner, 0)
	reg := newRegistry(f)

	var wg sync.WaitGroup
	sessions := make([]*Session, 8)
	for i := range sessions {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sessions[i] = reg.Acquire(ctx, "tok-1", models.Principal{ID: "u1"}, time.Time{})
		}()
	}
	wg.Wait()

	for _, s := range sessions {
		assert.Same(t, sessions[0], s)
		assert.Len(t, s.Tenants(), 1, "every caller sees a started session")
	}
}
