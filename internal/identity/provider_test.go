package identity

import (
	"context"
	"testing"
	"time"

	"github.com/lalith-99/storefront/internal/cache"
	"github.com/lalith-99/storefront/internal/repository/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

func newTestProvider(t *testing.T) *Provider {
	t.Helper()
	db := memory.New()
	return NewProvider(db.Principals(), cache.NewMemoryRevocationStore(), "secret", time.Hour, bcrypt.MinCost, zap.NewNop())
}

func TestSignUpThenSignIn(t *testing.T) {
	ctx := context.Background()
	p := newTestProvider(t)

	up, err := p.SignUp(ctx, "ana@example.com", "password123", "Ana")
	require.NoError(t, err)
	assert.NotEmpty(t, up.Principal.ID)
	assert.False(t, up.Claims.PlatformAdmin)

	in, err := p.SignIn(ctx, "ANA@example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, up.Principal.ID, in.Principal.ID)

	_, err = p.SignIn(ctx, "ana@example.com", "wrong-password")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = p.SignIn(ctx, "nobody@example.com", "password123")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestSignUp_DuplicateEmail(t *testing.T) {
	ctx := context.Background()
	p := newTestProvider(t)

	_, err := p.SignUp(ctx, "ana@example.com", "password123", "Ana")
	require.NoError(t, err)

	_, err = p.SignUp(ctx, "ana@example.com", "password456", "Other")
	require.ErrorIs(t, err, ErrEmailTaken)
}

func TestSignOut_RevokesToken(t *testing.T) {
	ctx := context.Background()
	p := newTestProvider(t)

	issued, err := p.SignUp(ctx, "ana@example.com", "password123", "Ana")
	require.NoError(t, err)

	claims, err := p.Authenticate(ctx, issued.Token)
	require.NoError(t, err)

	require.NoError(t, p.SignOut(ctx, claims))

	_, err = p.Authenticate(ctx, issued.Token)
	require.ErrorIs(t, err, ErrTokenRevoked)
}

func TestClaimsOnlyVisibleAfterForcedRefresh(t *testing.T) {
	ctx := context.Background()
	p := newTestProvider(t)

	issued, err := p.SignUp(ctx, "admin@example.com", "password123", "Admin")
	require.NoError(t, err)

	_, err = p.SetPlatformAdmin(ctx, "admin@example.com", true)
	require.NoError(t, err)

	old, err := p.Authenticate(ctx, issued.Token)
	require.NoError(t, err)
	assert.False(t, old.PlatformAdmin, "existing token keeps its snapshot")

	claims, err := p.RefreshClaims(ctx, issued.Principal.ID)
	require.NoError(t, err)
	assert.True(t, claims.PlatformAdmin)

	refreshed, err := p.ForceRefresh(ctx, issued.Principal.ID)
	require.NoError(t, err)
	fresh, err := p.Authenticate(ctx, refreshed.Token)
	require.NoError(t, err)
	assert.True(t, fresh.PlatformAdmin)
}

func TestForceRefresh_UnknownPrincipal(t *testing.T) {
	p := newTestProvider(t)

	_, err := p.ForceRefresh(context.Background(), "ghost")
	require.ErrorIs(t, err, ErrUnknownPrincipal)
}

func TestRefreshClaims_ReadsStoredClaims(t *testing.T) {
	ctx := context.Background()
	db := memory.New()
	signer := NewProvider(db.Principals(), cache.NewMemoryRevocationStore(), "secret", time.Hour, bcrypt.MinCost, zap.NewNop())
	issued, err := signer.SignUp(ctx, "ana@example.com", "password123", "Ana")
	require.NoError(t, err)
	_, err = signer.SetPlatformAdmin(ctx, "ana@example.com", true)
	require.NoError(t, err)

	// No secret: signing would fail, reading claims must not.
	reader := NewProvider(db.Principals(), cache.NewMemoryRevocationStore(), "", time.Hour, bcrypt.MinCost, zap.NewNop())
	claims, err := reader.RefreshClaims(ctx, issued.Principal.ID)
	require.NoError(t, err)
	assert.True(t, claims.PlatformAdmin)

	_, err = reader.RefreshClaims(ctx, "ghost")
	require.ErrorIs(t, err, ErrUnknownPrincipal)
}

func TestSetPlatformAdmin_UnknownEmail(t *testing.T) {
	p := newTestProvider(t)

	_, err := p.SetPlatformAdmin(context.Background(), "ghost@example.com", true)
	require.ErrorIs(t, err, ErrUnknownPrincipal)
}
