// Package identity is the service's identity provider: it owns
// credentials, issues tokens, revokes them on sign-out and is the only
// place custom claims are read from.
package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lalith-99/storefront/internal/auth"
	"github.com/lalith-99/storefront/internal/models"
	"github.com/lalith-99/storefront/internal/repository"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("email already registered")
	ErrUnknownPrincipal   = errors.New("principal not found")
	ErrTokenRevoked       = errors.New("token revoked")
)

// RevocationStore remembers token ids invalidated by sign-out.
type RevocationStore interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// Issued is a freshly signed token together with what it asserts.
type Issued struct {
	Token     string           `json:"token"`
	ExpiresAt time.Time        `json:"expires_at"`
	Principal models.Principal `json:"principal"`
	Claims    models.Claims    `json:"claims"`
}

type Provider struct {
	principals  repository.PrincipalRepository
	revocations RevocationStore
	secret      string
	ttl         time.Duration
	bcryptCost  int
	logger      *zap.Logger
}

func NewProvider(
	principals repository.PrincipalRepository,
	revocations RevocationStore,
	secret string,
	ttl time.Duration,
	bcryptCost int,
	logger *zap.Logger,
) *Provider {
	return &Provider{
		principals:  principals,
		revocations: revocations,
		secret:      secret,
		ttl:         ttl,
		bcryptCost:  bcryptCost,
		logger:      logger,
	}
}

// SignUp registers a principal and signs them in. New principals carry no
// custom claims.
func (p *Provider) SignUp(ctx context.Context, email, password, displayName string) (*Issued, error) {
	email = strings.TrimSpace(email)

	existing, err := p.principals.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("check existing principal: %w", err)
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), p.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	rec := &models.PrincipalRecord{
		Principal: models.Principal{
			ID:          uuid.NewString(),
			Email:       email,
			DisplayName: strings.TrimSpace(displayName),
		},
		PasswordHash: string(hash),
	}
	if err := p.principals.Create(ctx, rec); err != nil {
		return nil, fmt.Errorf("create principal: %w", err)
	}

	p.logger.Info("principal signed up", zap.String("principal_id", rec.ID))
	return p.issue(rec)
}

// SignIn checks the password and issues a token. Unknown email and wrong
// password return the same error.
func (p *Provider) SignIn(ctx context.Context, email, password string) (*Issued, error) {
	rec, err := p.principals.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		return nil, fmt.Errorf("find principal: %w", err)
	}
	if rec == nil {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(rec.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return p.issue(rec)
}

// SignOut revokes the token for the rest of its lifetime.
func (p *Provider) SignOut(ctx context.Context, claims *auth.Claims) error {
	var ttl time.Duration
	if claims.ExpiresAt != nil {
		ttl = time.Until(claims.ExpiresAt.Time)
	}
	if err := p.revocations.Revoke(ctx, claims.ID, ttl); err != nil {
		return fmt.Errorf("sign out: %w", err)
	}
	p.logger.Info("principal signed out", zap.String("principal_id", claims.PrincipalID()))
	return nil
}

// Authenticate resolves a bearer token to its claims, rejecting revoked
// tokens.
func (p *Provider) Authenticate(ctx context.Context, token string) (*auth.Claims, error) {
	claims, err := auth.ParseToken(token, p.secret)
	if err != nil {
		return nil, err
	}
	revoked, err := p.revocations.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("check revocation: %w", err)
	}
	if revoked {
		return nil, ErrTokenRevoked
	}
	return claims, nil
}

// ForceRefresh re-reads the stored principal and issues a new token, so
// claims granted since the last sign-in become visible.
func (p *Provider) ForceRefresh(ctx context.Context, principalID string) (*Issued, error) {
	rec, err := p.principals.GetByID(ctx, principalID)
	if err != nil {
		return nil, fmt.Errorf("refresh token: %w", err)
	}
	if rec == nil {
		return nil, ErrUnknownPrincipal
	}
	return p.issue(rec)
}

// RefreshClaims returns the principal's current custom claims as stored.
// No token is issued.
func (p *Provider) RefreshClaims(ctx context.Context, principalID string) (models.Claims, error) {
	rec, err := p.principals.GetByID(ctx, principalID)
	if err != nil {
		return models.Claims{}, fmt.Errorf("read claims: %w", err)
	}
	if rec == nil {
		return models.Claims{}, ErrUnknownPrincipal
	}
	return rec.Claims, nil
}

// SetPlatformAdmin grants or withdraws the platform admin claim, keeping
// any other claims. Holders see the change on their next refresh.
func (p *Provider) SetPlatformAdmin(ctx context.Context, email string, admin bool) (*models.PrincipalRecord, error) {
	rec, err := p.principals.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		return nil, fmt.Errorf("find principal: %w", err)
	}
	if rec == nil {
		return nil, ErrUnknownPrincipal
	}

	claims := rec.Claims
	claims.PlatformAdmin = admin
	if err := p.principals.SetClaims(ctx, rec.ID, claims); err != nil {
		return nil, err
	}
	rec.Claims = claims

	p.logger.Info("platform admin claim updated",
		zap.String("principal_id", rec.ID),
		zap.Bool("platform_admin", admin),
	)
	return rec, nil
}

// Lookup returns the stored principal for email.
func (p *Provider) Lookup(ctx context.Context, email string) (*models.PrincipalRecord, error) {
	rec, err := p.principals.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		return nil, fmt.Errorf("find principal: %w", err)
	}
	if rec == nil {
		return nil, ErrUnknownPrincipal
	}
	return rec, nil
}

func (p *Provider) issue(rec *models.PrincipalRecord) (*Issued, error) {
	signed, claims, err := auth.GenerateToken(rec.Principal, rec.Claims, p.secret, p.ttl)
	if err != nil {
		return nil, err
	}
	return &Issued{
		Token:     signed,
		ExpiresAt: claims.ExpiresAt.Time,
		Principal: rec.Principal,
		Claims:    rec.Claims,
	}, nil
}
