package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lalith-99/storefront/internal/models"
)

// PrincipalStore is the identity provider's credential table. custom_claims
// is JSONB and scans straight into models.Claims.
type PrincipalStore struct {
	pool *pgxpool.Pool
}

func NewPrincipalStore(pool *pgxpool.Pool) *PrincipalStore {
	return &PrincipalStore{pool: pool}
}

const principalColumns = `id, email, display_name, photo_url, password_hash, custom_claims, created_at`

func scanPrincipal(row pgx.Row) (*models.PrincipalRecord, error) {
	var p models.PrincipalRecord
	err := row.Scan(
		&p.ID,
		&p.Email,
		&p.DisplayName,
		&p.PhotoURL,
		&p.PasswordHash,
		&p.Claims,
		&p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *PrincipalStore) Create(ctx context.Context, rec *models.PrincipalRecord) error {
	query := `
		INSERT INTO principals (id, email, display_name, photo_url, password_hash, custom_claims, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, now())
		RETURNING created_at`

	err := s.pool.QueryRow(ctx, query,
		rec.ID, rec.Email, rec.DisplayName, rec.PhotoURL, rec.PasswordHash, rec.Claims,
	).Scan(&rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert principal: %w", err)
	}
	return nil
}

func (s *PrincipalStore) GetByID(ctx context.Context, id string) (*models.PrincipalRecord, error) {
	query := `SELECT ` + principalColumns + ` FROM principals WHERE id = $1`

	p, err := scanPrincipal(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get principal: %w", err)
	}
	return p, nil
}

// GetByEmail matches case-insensitively; sign-in forms are not consistent
// about capitalisation.
func (s *PrincipalStore) GetByEmail(ctx context.Context, email string) (*models.PrincipalRecord, error) {
	query := `SELECT ` + principalColumns + ` FROM principals WHERE lower(email) = lower($1)`

	p, err := scanPrincipal(s.pool.QueryRow(ctx, query, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get principal by email: %w", err)
	}
	return p, nil
}

func (s *PrincipalStore) SetClaims(ctx context.Context, id string, claims models.Claims) error {
	query := `UPDATE principals SET custom_claims = $2 WHERE id = $1`

	tag, err := s.pool.Exec(ctx, query, id, claims)
	if err != nil {
		return fmt.Errorf("set claims: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("set claims: principal %s not found", id)
	}
	return nil
}
