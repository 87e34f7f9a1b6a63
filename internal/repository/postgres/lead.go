package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lalith-99/storefront/internal/models"
)

type LeadStore struct {
	pool *pgxpool.Pool
}

func NewLeadStore(pool *pgxpool.Pool) *LeadStore {
	return &LeadStore{pool: pool}
}

const leadColumns = `id, tenant_id, customer_name, total, status, items, notes, created_at, updated_at`

func scanLead(row pgx.Row) (*models.Lead, error) {
	var l models.Lead
	err := row.Scan(
		&l.ID,
		&l.TenantID,
		&l.CustomerName,
		&l.Total,
		&l.Status,
		&l.Items,
		&l.Notes,
		&l.CreatedAt,
		&l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (s *LeadStore) Create(ctx context.Context, lead *models.Lead) error {
	query := `
		INSERT INTO leads (tenant_id, customer_name, total, status, items, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, now(), now())
		RETURNING id, created_at, updated_at`

	items := lead.Items
	if items == nil {
		items = []models.LeadItem{}
	}
	err := s.pool.QueryRow(ctx, query,
		lead.TenantID, lead.CustomerName, lead.Total, lead.Status, items, lead.Notes,
	).Scan(&lead.ID, &lead.CreatedAt, &lead.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert lead: %w", err)
	}
	return nil
}

// ListByTenant uses the bigserial id as the page cursor: before=0 is the
// first page, otherwise only leads with id < before are returned.
func (s *LeadStore) ListByTenant(ctx context.Context, tenantID string, before int64, limit int) ([]models.Lead, error) {
	var query string
	var args []any

	if before > 0 {
		query = `
			SELECT ` + leadColumns + `
			FROM leads
			WHERE tenant_id = $1 AND id < $2
			ORDER BY id DESC
			LIMIT $3`
		args = []any{tenantID, before, limit}
	} else {
		query = `
			SELECT ` + leadColumns + `
			FROM leads
			WHERE tenant_id = $1
			ORDER BY id DESC
			LIMIT $2`
		args = []any{tenantID, limit}
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list leads: %w", err)
	}
	defer rows.Close()

	leads := make([]models.Lead, 0)
	for rows.Next() {
		l, err := scanLead(rows)
		if err != nil {
			return nil, fmt.Errorf("scan lead: %w", err)
		}
		leads = append(leads, *l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate leads: %w", err)
	}
	return leads, nil
}

func (s *LeadStore) UpdateStatus(ctx context.Context, tenantID string, leadID int64, status models.LeadStatus, notes string) (*models.Lead, error) {
	query := `
		UPDATE leads SET status = $3, notes = $4, updated_at = now()
		WHERE id = $1 AND tenant_id = $2
		RETURNING ` + leadColumns

	l, err := scanLead(s.pool.QueryRow(ctx, query, leadID, tenantID, status, notes))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("update lead: %w", err)
	}
	return l, nil
}
