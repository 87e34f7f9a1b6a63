package team

import (
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/lalith-99/storefront/internal/models"
	"go.uber.org/zap"
)

// Status messages shown next to the team list.
const (
	StatusLoadFailed   = "Error loading the team"
	StatusInvited      = "User added to the team"
	StatusNoSuchUser   = "No user exists with that email"
	StatusInviteFailed = "Error adding user"
	StatusRemoved      = "User removed from the team"
	StatusOwnerRemoval = "The owner cannot be removed"
	StatusOwnerDemoted = "The owner's role cannot be changed"
	StatusRemoveFailed = "Error removing user"
)

// Roster is the team list of one tenant as last loaded, plus the outcome
// of the latest operation. A failed operation sets Status and leaves Rows
// as they were.
type Roster struct {
	manager  *Manager
	tenantID string
	logger   *zap.Logger

	mu     sync.Mutex
	rows   []models.TeamMember
	status string
}

func NewRoster(manager *Manager, tenantID string) *Roster {
	return &Roster{
		manager:  manager,
		tenantID: tenantID,
		logger:   manager.logger.With(zap.String("tenant_id", tenantID)),
		rows:     []models.TeamMember{},
	}
}

func (r *Roster) TenantID() string { return r.tenantID }

// Load replaces the rows with a fresh read.
func (r *Roster) Load(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.status = ""
	return r.reload(ctx)
}

func (r *Roster) reload(ctx context.Context) error {
	rows, err := r.manager.List(ctx, r.tenantID)
	if err != nil {
		r.logger.Error("load team failed", zap.Error(err))
		r.status = StatusLoadFailed
		return err
	}
	r.rows = rows
	return nil
}

// Invite grants role to the user with email and reloads the list.
func (r *Roster) Invite(ctx context.Context, email string, role models.Role) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := r.manager.Invite(ctx, r.tenantID, email, role); err != nil {
		switch {
		case errors.Is(err, ErrNoSuchUser):
			r.status = StatusNoSuchUser
		case errors.Is(err, ErrInvalidRole):
			r.status = ErrInvalidRole.Error()
		case errors.Is(err, ErrOwnerDemoted):
			r.status = StatusOwnerDemoted
		default:
			r.logger.Error("invite failed", zap.Error(err))
			r.status = StatusInviteFailed
		}
		return err
	}

	if err := r.reload(ctx); err != nil {
		return err
	}
	r.status = StatusInvited
	return nil
}

// Remove deletes the member's membership and drops their row without
// re-reading the list. The member's role is taken from the loaded rows.
func (r *Roster) Remove(ctx context.Context, principalID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := slices.IndexFunc(r.rows, func(m models.TeamMember) bool { return m.PrincipalID == principalID })
	if i < 0 {
		r.status = ErrNotMember.Error()
		return ErrNotMember
	}

	if err := r.manager.Remove(ctx, r.tenantID, principalID, r.rows[i].Role); err != nil {
		if errors.Is(err, ErrOwnerRemoval) {
			r.status = StatusOwnerRemoval
		} else {
			r.logger.Error("remove member failed", zap.Error(err))
			r.status = StatusRemoveFailed
		}
		return err
	}

	r.rows = slices.Delete(slices.Clone(r.rows), i, i+1)
	r.status = StatusRemoved
	return nil
}

// Rows returns a copy of the current team list.
func (r *Roster) Rows() []models.TeamMember {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.rows)
}

// Status is the message from the latest operation, empty after a clean
// Load.
func (r *Roster) Status() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}
