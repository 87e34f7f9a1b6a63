package tenancy

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/lalith-99/storefront/internal/models"
	"go.uber.org/zap"
)

// ClaimsSource forces a token refresh and returns the principal's current
// custom claims.
type ClaimsSource interface {
	RefreshClaims(ctx context.Context, principalID string) (models.Claims, error)
}

// SelectionStore durably remembers the last tenant a principal switched to.
// Load returns "" when nothing was stored.
type SelectionStore interface {
	Load(ctx context.Context, principalID string) (string, error)
	Save(ctx context.Context, principalID, tenantID string) error
}

// Session holds one principal's resolved tenants and current selection
// between Start and Stop. Methods are safe for concurrent use.
type Session struct {
	principal models.Principal
	resolver  *Resolver
	claimsSrc ClaimsSource
	selection SelectionStore
	logger    *zap.Logger

	startOnce sync.Once

	mu         sync.RWMutex
	stopped    bool
	claims     models.Claims
	resolution Resolution
	current    string
}

func NewSession(
	principal models.Principal,
	resolver *Resolver,
	claimsSrc ClaimsSource,
	selection SelectionStore,
	logger *zap.Logger,
) *Session {
	return &Session{
		principal:  principal,
		resolver:   resolver,
		claimsSrc:  claimsSrc,
		selection:  selection,
		logger:     logger.With(zap.String("principal_id", principal.ID)),
		resolution: emptyResolution(),
	}
}

// Start resolves the principal's tenants and applies the selection policy.
// Only the first call does any work; concurrent callers wait for it.
func (s *Session) Start(ctx context.Context) {
	s.startOnce.Do(func() {
		_ = s.Refresh(ctx)
	})
}

// Stop tears the session down. Later Refresh and Switch calls are no-ops
// and every accessor reports an empty session.
func (s *Session) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopped = true
	s.claims = models.Claims{}
	s.resolution = emptyResolution()
	s.current = ""
}

// Refresh re-reads claims, re-runs the resolver and re-applies the
// selection policy. Call it after any change that could affect membership
// or tenant attributes, and before acting on the current grant.
//
// A failed read leaves the session empty rather than partially resolved;
// the error is logged and returned.
func (s *Session) Refresh(ctx context.Context) error {
	if s.isStopped() {
		return nil
	}

	claims, res, resolveErr := s.resolve(ctx)
	if resolveErr != nil {
		s.logger.Error("tenant resolution failed", zap.Error(resolveErr))
		claims, res = models.Claims{}, emptyResolution()
	}

	s.mu.RLock()
	keep := s.current != "" && res.Has(s.current)
	s.mu.RUnlock()

	persisted := ""
	if !keep && len(res.Tenants) > 0 {
		var err error
		persisted, err = s.selection.Load(ctx, s.principal.ID)
		if err != nil {
			s.logger.Warn("load last tenant failed", zap.Error(err))
			persisted = ""
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return nil
	}
	s.claims = claims
	s.resolution = res
	s.current = selectTenant(res, s.current, persisted)

	s.logger.Debug("tenants resolved",
		zap.Int("tenants", len(res.Tenants)),
		zap.String("current_tenant", s.current),
		zap.Bool("platform_admin", claims.PlatformAdmin),
	)
	return resolveErr
}

func (s *Session) resolve(ctx context.Context) (models.Claims, Resolution, error) {
	claims, err := s.claimsSrc.RefreshClaims(ctx, s.principal.ID)
	if err != nil {
		return models.Claims{}, Resolution{}, fmt.Errorf("refresh claims: %w", err)
	}
	res, err := s.resolver.Resolve(ctx, s.principal.ID, claims)
	if err != nil {
		return models.Claims{}, Resolution{}, err
	}
	return claims, res, nil
}

// selectTenant keeps this session's own selection while it is still
// resolved, then prefers the persisted id, then the first resolved tenant,
// then none. Other sessions of the same principal only share the persisted
// id.
func selectTenant(res Resolution, current, persisted string) string {
	if current != "" && res.Has(current) {
		return current
	}
	if persisted != "" && res.Has(persisted) {
		return persisted
	}
	if len(res.Tenants) > 0 {
		return res.Tenants[0].ID
	}
	return ""
}

// Switch selects tenantID and persists the choice. An id outside the
// resolved set leaves the session unchanged and reports false. The
// in-memory selection changes even if persisting it fails.
func (s *Session) Switch(ctx context.Context, tenantID string) (bool, error) {
	s.mu.Lock()
	if s.stopped || !s.resolution.Has(tenantID) {
		s.mu.Unlock()
		return false, nil
	}
	s.current = tenantID
	s.mu.Unlock()

	if err := s.selection.Save(ctx, s.principal.ID, tenantID); err != nil {
		return true, fmt.Errorf("persist selection: %w", err)
	}
	return true, nil
}

func (s *Session) isStopped() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stopped
}

func (s *Session) Principal() models.Principal {
	return s.principal
}

// Tenants returns a copy of the resolved tenants in discovery order.
func (s *Session) Tenants() []models.Tenant {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.resolution.Tenants)
}

// Current returns the selected tenant; false means the principal has no
// tenant.
func (s *Session) Current() (models.Tenant, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == "" {
		return models.Tenant{}, false
	}
	return s.resolution.Tenant(s.current)
}

// Memberships returns a copy of the grant map keyed by tenant id.
func (s *Session) Memberships() map[string]Grant {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return maps.Clone(s.resolution.Grants)
}

// CurrentMembership returns the grant for the selected tenant.
func (s *Session) CurrentMembership() (Grant, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == "" {
		return Grant{}, false
	}
	g, ok := s.resolution.Grants[s.current]
	return g, ok
}

func (s *Session) IsPlatformAdmin() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.claims.PlatformAdmin
}

// CanManageTeam evaluates the team gate for the selected tenant.
func (s *Session) CanManageTeam() bool {
	g, ok := s.CurrentMembership()
	if !ok {
		return CanManageTeam(s.IsPlatformAdmin(), nil)
	}
	return CanManageTeam(s.IsPlatformAdmin(), &g)
}

// CanOnboard evaluates the tenant creation gate.
func (s *Session) CanOnboard() bool {
	return CanOnboard(s.IsPlatformAdmin())
}

// View is a point-in-time copy of the session for rendering.
type View struct {
	Principal         models.Principal `json:"principal"`
	Tenants           []models.Tenant  `json:"tenants"`
	CurrentTenant     *models.Tenant   `json:"current_tenant"`
	Memberships       map[string]Grant `json:"memberships"`
	CurrentMembership *Grant           `json:"current_membership"`
	IsPlatformAdmin   bool             `json:"is_platform_admin"`
	CanManageTeam     bool             `json:"can_manage_team"`
	CanOnboard        bool             `json:"can_onboard"`
}

// Snapshot copies the whole session under one lock.
func (s *Session) Snapshot() View {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v := View{
		Principal:       s.principal,
		Tenants:         slices.Clone(s.resolution.Tenants),
		Memberships:     maps.Clone(s.resolution.Grants),
		IsPlatformAdmin: s.claims.PlatformAdmin,
		CanOnboard:      CanOnboard(s.claims.PlatformAdmin),
	}
	if t, ok := s.resolution.Tenant(s.current); ok && s.current != "" {
		v.CurrentTenant = &t
	}
	if g, ok := s.resolution.Grants[s.current]; ok && s.current != "" {
		v.CurrentMembership = &g
	}
	v.CanManageTeam = CanManageTeam(s.claims.PlatformAdmin, v.CurrentMembership)
	return v
}
