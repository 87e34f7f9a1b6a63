// Package app opens the backends selected by configuration and hands out
// the stores built on them. cmd/server and cmd/storectl share it.
package app

import (
	"context"
	"fmt"

	"github.com/lalith-99/storefront/internal/cache"
	"github.com/lalith-99/storefront/internal/config"
	"github.com/lalith-99/storefront/internal/db"
	"github.com/lalith-99/storefront/internal/db/migrate"
	"github.com/lalith-99/storefront/internal/identity"
	"github.com/lalith-99/storefront/internal/repository"
	"github.com/lalith-99/storefront/internal/repository/memory"
	"github.com/lalith-99/storefront/internal/repository/postgres"
	"github.com/lalith-99/storefront/internal/tenancy"
	"go.uber.org/zap"
)

type Stores struct {
	Principals  repository.PrincipalRepository
	Profiles    repository.ProfileRepository
	Tenants     repository.TenantRepository
	Memberships repository.MembershipRepository
	Products    repository.ProductRepository
	Leads       repository.LeadRepository

	Selection   tenancy.SelectionStore
	Revocations identity.RevocationStore

	// Health pings every network backend.
	Health func(ctx context.Context) error

	closers []func()
}

// Close releases connections in reverse order of opening.
func (s *Stores) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

// Open connects to the backends named by cfg.StoreBackend. With "postgres"
// it also connects to Redis and, when MIGRATE_ON_START is set, migrates
// the schema first.
func Open(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Stores, error) {
	switch cfg.StoreBackend {
	case config.StoreBackendMemory:
		return openMemory(logger), nil
	case config.StoreBackendPostgres:
		return openPostgres(ctx, cfg, logger)
	}
	return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
}

func openMemory(logger *zap.Logger) *Stores {
	logger.Warn("using in-memory stores; data is lost on exit")
	mem := memory.New()
	return &Stores{
		Principals:  mem.Principals(),
		Profiles:    mem.Profiles(),
		Tenants:     mem.Tenants(),
		Memberships: mem.Memberships(),
		Products:    mem.Products(),
		Leads:       mem.Leads(),
		Selection:   cache.NewMemorySelectionStore(),
		Revocations: cache.NewMemoryRevocationStore(),
		Health:      func(context.Context) error { return nil },
	}
}

func openPostgres(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Stores, error) {
	if cfg.MigrateOnStart {
		if err := migrate.Run(cfg.DatabaseURL, "up"); err != nil {
			return nil, fmt.Errorf("migrate on start: %w", err)
		}
		logger.Info("migrations applied")
	}

	database, err := db.New(ctx, cfg.DatabaseURL, int32(cfg.DBMaxConns), logger)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	s := &Stores{}
	s.closers = append(s.closers, database.Close)

	rdb, err := cache.NewClient(ctx, cfg.RedisURL, logger)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	s.closers = append(s.closers, func() { _ = rdb.Close() })

	pool := database.Pool()
	s.Principals = postgres.NewPrincipalStore(pool)
	s.Profiles = postgres.NewProfileStore(pool)
	s.Tenants = postgres.NewTenantStore(pool)
	s.Memberships = postgres.NewMembershipStore(pool)
	s.Products = postgres.NewProductStore(pool)
	s.Leads = postgres.NewLeadStore(pool)
	s.Selection = cache.NewSelectionStore(rdb)
	s.Revocations = cache.NewRevocationStore(rdb)
	s.Health = func(ctx context.Context) error {
		if err := database.Health(ctx); err != nil {
			return err
		}
		return rdb.Ping(ctx).Err()
	}
	return s, nil
}

// NewIdentity builds the identity provider over s with cfg's token and
// hashing settings.
func NewIdentity(s *Stores, cfg *config.Config, logger *zap.Logger) *identity.Provider {
	return identity.NewProvider(s.Principals, s.Revocations, cfg.JWTSecret, cfg.TokenTTL(), cfg.BcryptCost, logger)
}
