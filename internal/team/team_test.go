package team

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/lalith-99/storefront/internal/models"
	"github.com/lalith-99/storefront/internal/repository/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var errBackend = errors.New("backend unavailable")

// flakyMemberships fails the selected operations and delegates the rest.
type flakyMemberships struct {
	*memory.MembershipStore
	failList   bool
	failUpsert bool
	failDelete bool
}

func (f *flakyMemberships) ListByTenant(ctx context.Context, tenantID string) ([]models.Membership, error) {
	if f.failList {
		return nil, errBackend
	}
	return f.MembershipStore.ListByTenant(ctx, tenantID)
}

func (f *flakyMemberships) Upsert(ctx context.Context, m *models.Membership) error {
	if f.failUpsert {
		return errBackend
	}
	return f.MembershipStore.Upsert(ctx, m)
}

func (f *flakyMemberships) Delete(ctx context.Context, tenantID, principalID string) error {
	if f.failDelete {
		return errBackend
	}
	return f.MembershipStore.Delete(ctx, tenantID, principalID)
}

type fixture struct {
	db          *memory.DB
	memberships *flakyMemberships
	manager     *Manager
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := memory.New()
	ms := &flakyMemberships{MembershipStore: db.Memberships()}
	m := NewManager(ms, db.Profiles(), zap.NewNop())
	m.now = func() time.Time { return time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC) }
	return &fixture{db: db, memberships: ms, manager: m}
}

func (f *fixture) profile(t *testing.T, id, email, name string) {
	t.Helper()
	require.NoError(t, f.db.Profiles().Create(context.Background(), &models.UserProfile{
		ID:          id,
		Email:       &email,
		DisplayName: &name,
	}))
}

func (f *fixture) member(t *testing.T, tenantID, principalID string, role models.Role, joined time.Time) {
	t.Helper()
	require.NoError(t, f.db.Memberships().Upsert(context.Background(), &models.Membership{
		PrincipalID: principalID,
		TenantID:    tenantID,
		Role:        role,
		JoinedAt:    joined,
	}))
}

func memberships(t *testing.T, f *fixture, tenantID string) []models.Membership {
	t.Helper()
	ms, err := f.db.Memberships().ListByTenant(context.Background(), tenantID)
	require.NoError(t, err)
	return ms
}

var day = time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

func TestList_JoinsProfiles(t *testing.T) {
	f := newFixture(t)
	f.profile(t, "u1", "owner@example.com", "Owner")
	f.member(t, "t1", "u1", models.RoleOwner, day)
	f.member(t, "t1", "ghost", models.RoleStaff, day.Add(time.Hour))

	rows, err := f.manager.List(context.Background(), "t1")
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "u1", rows[0].PrincipalID)
	require.NotNil(t, rows[0].Email)
	assert.Equal(t, "owner@example.com", *rows[0].Email)
	assert.Equal(t, models.RoleOwner, rows[0].Role)

	assert.Equal(t, "ghost", rows[1].PrincipalID)
	assert.Nil(t, rows[1].Email, "missing profile yields nil fields")
	assert.Nil(t, rows[1].DisplayName)
}

func TestInvite_UpsertsRole(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.profile(t, "u2", "staff@example.com", "Staff")

	_, err := f.manager.Invite(ctx, "t1", "staff@example.com", models.RoleStaff)
	require.NoError(t, err)
	_, err = f.manager.Invite(ctx, "t1", "staff@example.com", models.RoleAdmin)
	require.NoError(t, err)

	ms := memberships(t, f, "t1")
	require.Len(t, ms, 1)
	assert.Equal(t, "u2", ms[0].PrincipalID)
	assert.Equal(t, models.RoleAdmin, ms[0].Role)
}

func TestInvite_UnknownEmail(t *testing.T) {
	f := newFixture(t)

	_, err := f.manager.Invite(context.Background(), "t1", "nobody@example.com", models.RoleStaff)
	require.ErrorIs(t, err, ErrNoSuchUser)
	assert.Empty(t, memberships(t, f, "t1"))
}

func TestInvite_RejectsOwnerAndUnknownRoles(t *testing.T) {
	f := newFixture(t)
	f.profile(t, "u2", "staff@example.com", "Staff")

	for _, role := range []models.Role{models.RoleOwner, "superuser", ""} {
		_, err := f.manager.Invite(context.Background(), "t1", "staff@example.com", role)
		require.ErrorIs(t, err, ErrInvalidRole, string(role))
	}
	assert.Empty(t, memberships(t, f, "t1"))
}

func TestInvite_RefusesToDemoteOwner(t *testing.T) {
	f := newFixture(t)
	f.profile(t, "u1", "owner@example.com", "Owner")
	f.member(t, "t1", "u1", models.RoleOwner, day)

	for _, role := range []models.Role{models.RoleAdmin, models.RoleStaff} {
		_, err := f.manager.Invite(context.Background(), "t1", " owner@example.com ", role)
		require.ErrorIs(t, err, ErrOwnerDemoted, string(role))
	}
	ms := memberships(t, f, "t1")
	require.Len(t, ms, 1)
	assert.Equal(t, models.RoleOwner, ms[0].Role)
	assert.Equal(t, day, ms[0].JoinedAt)
}

func TestInvite_OwnerElsewhereCanJoin(t *testing.T) {
	f := newFixture(t)
	f.profile(t, "u1", "owner@example.com", "Owner")
	f.member(t, "t1", "u1", models.RoleOwner, day)

	ms, err := f.manager.Invite(context.Background(), "t2", "owner@example.com", models.RoleStaff)
	require.NoError(t, err)
	assert.Equal(t, models.RoleStaff, ms.Role)
	assert.Equal(t, models.RoleOwner, memberships(t, f, "t1")[0].Role)
}

func TestRemove_RefusesOwner(t *testing.T) {
	f := newFixture(t)
	f.member(t, "t1", "u1", models.RoleOwner, day)

	err := f.manager.Remove(context.Background(), "t1", "u1", models.RoleOwner)
	require.ErrorIs(t, err, ErrOwnerRemoval)
	assert.Len(t, memberships(t, f, "t1"), 1)
}

func TestRoster_InviteTwiceLeavesOneAdminRow(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.profile(t, "u1", "owner@example.com", "Owner")
	f.profile(t, "u2", "staff@example.com", "Staff")
	f.member(t, "t1", "u1", models.RoleOwner, day)

	r := NewRoster(f.manager, "t1")
	require.NoError(t, r.Load(ctx))
	require.NoError(t, r.Invite(ctx, "staff@example.com", models.RoleStaff))
	require.NoError(t, r.Invite(ctx, "staff@example.com", models.RoleAdmin))

	assert.Equal(t, StatusInvited, r.Status())
	rows := r.Rows()
	require.Len(t, rows, 2)
	assert.Equal(t, "u2", rows[1].PrincipalID)
	assert.Equal(t, models.RoleAdmin, rows[1].Role)
}

func TestRoster_InviteUnknownEmail(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.member(t, "t1", "u1", models.RoleOwner, day)

	r := NewRoster(f.manager, "t1")
	require.NoError(t, r.Load(ctx))
	before := r.Rows()

	err := r.Invite(ctx, "nobody@example.com", models.RoleStaff)
	require.ErrorIs(t, err, ErrNoSuchUser)
	assert.Equal(t, StatusNoSuchUser, r.Status())
	assert.Equal(t, before, r.Rows())
	assert.Len(t, memberships(t, f, "t1"), 1)
}

func TestRoster_InviteOwnerLeavesListUnchanged(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.profile(t, "u1", "owner@example.com", "Owner")
	f.member(t, "t1", "u1", models.RoleOwner, day)

	r := NewRoster(f.manager, "t1")
	require.NoError(t, r.Load(ctx))
	before := r.Rows()

	err := r.Invite(ctx, "owner@example.com", models.RoleAdmin)
	require.ErrorIs(t, err, ErrOwnerDemoted)
	assert.Equal(t, StatusOwnerDemoted, r.Status())
	assert.Equal(t, before, r.Rows())
}

func TestRoster_RemoveOwnerLeavesListUnchanged(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.member(t, "t1", "u1", models.RoleOwner, day)
	f.member(t, "t1", "u2", models.RoleStaff, day.Add(time.Hour))

	r := NewRoster(f.manager, "t1")
	require.NoError(t, r.Load(ctx))
	before := r.Rows()

	err := r.Remove(ctx, "u1")
	require.ErrorIs(t, err, ErrOwnerRemoval)
	assert.Equal(t, StatusOwnerRemoval, r.Status())
	assert.Equal(t, before, r.Rows())
	assert.Len(t, memberships(t, f, "t1"), 2)
}

func TestRoster_RemoveIsOptimistic(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.member(t, "t1", "u1", models.RoleOwner, day)
	f.member(t, "t1", "u2", models.RoleStaff, day.Add(time.Hour))

	r := NewRoster(f.manager, "t1")
	require.NoError(t, r.Load(ctx))

	// A member added behind the roster's back stays invisible until the
	// next Load, since Remove does not re-read.
	f.member(t, "t1", "u3", models.RoleStaff, day.Add(2*time.Hour))

	require.NoError(t, r.Remove(ctx, "u2"))
	assert.Equal(t, StatusRemoved, r.Status())
	rows := r.Rows()
	require.Len(t, rows, 1)
	assert.Equal(t, "u1", rows[0].PrincipalID)

	assert.Len(t, memberships(t, f, "t1"), 2)
}

func TestRoster_RemoveUnknownMember(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.member(t, "t1", "u1", models.RoleOwner, day)

	r := NewRoster(f.manager, "t1")
	require.NoError(t, r.Load(ctx))

	require.ErrorIs(t, r.Remove(ctx, "nobody"), ErrNotMember)
	assert.Len(t, r.Rows(), 1)
}

func TestRoster_FailuresKeepRows(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.profile(t, "u2", "staff@example.com", "Staff")
	f.member(t, "t1", "u1", models.RoleOwner, day)
	f.member(t, "t1", "u2", models.RoleStaff, day.Add(time.Hour))

	r := NewRoster(f.manager, "t1")
	require.NoError(t, r.Load(ctx))
	before := r.Rows()

	f.memberships.failDelete = true
	require.ErrorIs(t, r.Remove(ctx, "u2"), errBackend)
	assert.Equal(t, StatusRemoveFailed, r.Status())
	assert.Equal(t, before, r.Rows())

	f.memberships.failUpsert = true
	require.ErrorIs(t, r.Invite(ctx, "staff@example.com", models.RoleAdmin), errBackend)
	assert.Equal(t, StatusInviteFailed, r.Status())
	assert.Equal(t, before, r.Rows())

	f.memberships.failList = true
	require.ErrorIs(t, r.Load(ctx), errBackend)
	assert.Equal(t, StatusLoadFailed, r.Status())
	assert.Equal(t, before, r.Rows())
}
