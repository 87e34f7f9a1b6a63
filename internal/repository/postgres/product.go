package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lalith-99/storefront/internal/models"
)

type ProductStore struct {
	pool *pgxpool.Pool
}

func NewProductStore(pool *pgxpool.Pool) *ProductStore {
	return &ProductStore{pool: pool}
}

const productColumns = `
	id, tenant_id, name, price, description, category, images, tags, active, created_at, updated_at`

func scanProduct(row pgx.Row) (*models.Product, error) {
	var p models.Product
	err := row.Scan(
		&p.ID,
		&p.TenantID,
		&p.Name,
		&p.Price,
		&p.Description,
		&p.Category,
		&p.Images,
		&p.Tags,
		&p.Active,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *ProductStore) Create(ctx context.Context, p *models.Product) error {
	query := `
		INSERT INTO products (id, tenant_id, name, price, description, category, images, tags, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now(), now())
		RETURNING created_at, updated_at`

	err := s.pool.QueryRow(ctx, query,
		p.ID, p.TenantID, p.Name, p.Price, p.Description, p.Category,
		nonNil(p.Images), nonNil(p.Tags), p.Active,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

func (s *ProductStore) GetByID(ctx context.Context, tenantID, productID string) (*models.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1 AND tenant_id = $2`

	p, err := scanProduct(s.pool.QueryRow(ctx, query, productID, tenantID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	return p, nil
}

func (s *ProductStore) ListByTenant(ctx context.Context, tenantID string, activeOnly bool) ([]models.Product, error) {
	query := `
		SELECT ` + productColumns + `
		FROM products
		WHERE tenant_id = $1 AND (active OR NOT $2)
		ORDER BY created_at DESC, id`

	rows, err := s.pool.Query(ctx, query, tenantID, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	products := make([]models.Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate products: %w", err)
	}
	return products, nil
}

func (s *ProductStore) Update(ctx context.Context, p *models.Product) error {
	query := `
		UPDATE products SET
			name = $3, price = $4, description = $5, category = $6,
			images = $7, tags = $8, active = $9, updated_at = now()
		WHERE id = $1 AND tenant_id = $2
		RETURNING created_at, updated_at`

	err := s.pool.QueryRow(ctx, query,
		p.ID, p.TenantID, p.Name, p.Price, p.Description, p.Category,
		nonNil(p.Images), nonNil(p.Tags), p.Active,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("update product: %s not found", p.ID)
		}
		return fmt.Errorf("update product: %w", err)
	}
	return nil
}

func (s *ProductStore) Delete(ctx context.Context, tenantID, productID string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM products WHERE id = $1 AND tenant_id = $2`, productID, tenantID)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	return nil
}

// nonNil keeps NOT NULL array columns from receiving NULL.
func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
