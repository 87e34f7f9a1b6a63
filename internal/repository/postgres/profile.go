package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lalith-99/storefront/internal/models"
)

type ProfileStore struct {
	pool *pgxpool.Pool
}

func NewProfileStore(pool *pgxpool.Pool) *ProfileStore {
	return &ProfileStore{pool: pool}
}

func (s *ProfileStore) GetByID(ctx context.Context, principalID string) (*models.UserProfile, error) {
	query := `
		SELECT id, email, display_name, photo_url, created_at
		FROM user_profiles
		WHERE id = $1`

	var p models.UserProfile
	err := s.pool.QueryRow(ctx, query, principalID).Scan(
		&p.ID,
		&p.Email,
		&p.DisplayName,
		&p.PhotoURL,
		&p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return &p, nil
}

func (s *ProfileStore) GetByEmail(ctx context.Context, email string) (*models.UserProfile, error) {
	query := `
		SELECT id, email, display_name, photo_url, created_at
		FROM user_profiles
		WHERE email = $1
		ORDER BY created_at
		LIMIT 1`

	var p models.UserProfile
	err := s.pool.QueryRow(ctx, query, email).Scan(
		&p.ID,
		&p.Email,
		&p.DisplayName,
		&p.PhotoURL,
		&p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get profile by email: %w", err)
	}
	return &p, nil
}

// Create inserts the profile. A concurrent first session for the same
// principal is harmless: the second insert does nothing.
func (s *ProfileStore) Create(ctx context.Context, profile *models.UserProfile) error {
	query := `
		INSERT INTO user_profiles (id, email, display_name, photo_url, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO NOTHING`

	_, err := s.pool.Exec(ctx, query,
		profile.ID, profile.Email, profile.DisplayName, profile.PhotoURL, profile.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert profile: %w", err)
	}
	return nil
}
