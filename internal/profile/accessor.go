package profile

import (
	"context"
	"fmt"
	"time"

	"github.com/lalith-99/storefront/internal/models"
	"github.com/lalith-99/storefront/internal/repository"
	"go.uber.org/zap"
)

// Accessor reads the caller's UserProfile and creates it from the
// principal on the first authenticated session.
type Accessor struct {
	profiles repository.ProfileRepository
	logger   *zap.Logger
	now      func() time.Time
}

func NewAccessor(profiles repository.ProfileRepository, logger *zap.Logger) *Accessor {
	return &Accessor{profiles: profiles, logger: logger, now: time.Now}
}

// Ensure returns the stored profile, creating it when absent. Existing
// profiles are never modified here.
func (a *Accessor) Ensure(ctx context.Context, principal models.Principal) (*models.UserProfile, error) {
	existing, err := a.profiles.GetByID(ctx, principal.ID)
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	if existing != nil {
		return existing, nil
	}

	p := &models.UserProfile{
		ID:          principal.ID,
		Email:       optional(principal.Email),
		DisplayName: optional(principal.DisplayName),
		PhotoURL:    optional(principal.PhotoURL),
		CreatedAt:   a.now().UTC(),
	}
	if err := a.profiles.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("create profile: %w", err)
	}

	a.logger.Info("profile created", zap.String("principal_id", principal.ID))
	return p, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
