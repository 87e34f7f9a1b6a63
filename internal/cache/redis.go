// Package cache holds the Redis-backed stores: the per-principal "last
// selected tenant" preference and the list of revoked token ids.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	keyPrefix       = "storefront:"
	lastTenantKey   = keyPrefix + "last_tenant:"
	revokedTokenKey = keyPrefix + "revoked_token:"
)

// NewClient parses a redis:// URL and pings the server once.
func NewClient(ctx context.Context, redisURL string, logger *zap.Logger) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	logger.Info("redis connection established", zap.String("addr", opts.Addr), zap.Int("db", opts.DB))
	return client, nil
}

// SelectionStore persists the last tenant a principal switched to. Entries
// never expire; they are only overwritten.
type SelectionStore struct {
	rdb redis.Cmdable
}

func NewSelectionStore(rdb redis.Cmdable) *SelectionStore {
	return &SelectionStore{rdb: rdb}
}

// Load returns "" when the principal never selected a tenant.
func (s *SelectionStore) Load(ctx context.Context, principalID string) (string, error) {
	v, err := s.rdb.Get(ctx, lastTenantKey+principalID).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		return "", fmt.Errorf("load last tenant: %w", err)
	}
	return v, nil
}

func (s *SelectionStore) Save(ctx context.Context, principalID, tenantID string) error {
	if err := s.rdb.Set(ctx, lastTenantKey+principalID, tenantID, 0).Err(); err != nil {
		return fmt.Errorf("save last tenant: %w", err)
	}
	return nil
}

// RevocationStore remembers signed-out token ids until the token would
// have expired anyway.
type RevocationStore struct {
	rdb redis.Cmdable
}

func NewRevocationStore(rdb redis.Cmdable) *RevocationStore {
	return &RevocationStore{rdb: rdb}
}

// Revoke marks tokenID revoked for ttl. A non-positive ttl means the token
// is already expired and nothing is stored.
func (s *RevocationStore) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := s.rdb.Set(ctx, revokedTokenKey+tokenID, "1", ttl).Err(); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

func (s *RevocationStore) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := s.rdb.Exists(ctx, revokedTokenKey+tokenID).Result()
	if err != nil {
		return false, fmt.Errorf("check revoked token: %w", err)
	}
	return n > 0, nil
}
