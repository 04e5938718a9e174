package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/conjunto-service/internal/domain"
)

// ConjuntoRepository encapsulates the public-schema registry of complexes.
type ConjuntoRepository interface {
	Create(ctx context.Context, conjunto *domain.Conjunto) error
	GetByTenantID(ctx context.Context, tenantID string) (*domain.Conjunto, error)
	// GetLatest returns the conjunto with the highest tenant id, or nil when
	// none exist yet.
	GetLatest(ctx context.Context) (*domain.Conjunto, error)
	List(ctx context.Context) ([]domain.Conjunto, error)
	SetActive(ctx context.Context, tenantID string, active bool) error
	Delete(ctx context.Context, tenantID string) error
}

type conjuntoRepository struct {
	pool *pgxpool.Pool
}

// NewConjuntoRepository instantiates the repository over the base pool.
func NewConjuntoRepository(pool *pgxpool.Pool) ConjuntoRepository {
	return &conjuntoRepository{pool: pool}
}

const conjuntoColumns = `id, nombre, tenant_id, plan, activo, created_at, updated_at`

func (r *conjuntoRepository) Create(ctx context.Context, conjunto *domain.Conjunto) error {
	const query = `
        INSERT INTO conjuntos (nombre, tenant_id, plan, activo)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		conjunto.Name,
		conjunto.TenantID,
		conjunto.Plan,
		conjunto.Active,
	).Scan(&conjunto.ID, &conjunto.CreatedAt, &conjunto.UpdatedAt)
}

func (r *conjuntoRepository) GetByTenantID(ctx context.Context, tenantID string) (*domain.Conjunto, error) {
	var conjunto domain.Conjunto
	err := r.pool.QueryRow(ctx,
		`SELECT `+conjuntoColumns+` FROM conjuntos WHERE tenant_id=$1`, tenantID,
	).Scan(conjuntoScanTargets(&conjunto)...)
	if err != nil {
		return nil, err
	}
	return &conjunto, nil
}

func (r *conjuntoRepository) GetLatest(ctx context.Context) (*domain.Conjunto, error) {
	var conjunto domain.Conjunto
	err := r.pool.QueryRow(ctx,
		`SELECT `+conjuntoColumns+` FROM conjuntos ORDER BY tenant_id DESC LIMIT 1`,
	).Scan(conjuntoScanTargets(&conjunto)...)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &conjunto, nil
}

func (r *conjuntoRepository) List(ctx context.Context) ([]domain.Conjunto, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+conjuntoColumns+` FROM conjuntos ORDER BY tenant_id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Conjunto
	for rows.Next() {
		var conjunto domain.Conjunto
		if err := rows.Scan(conjuntoScanTargets(&conjunto)...); err != nil {
			return nil, err
		}
		result = append(result, conjunto)
	}
	return result, rows.Err()
}

func (r *conjuntoRepository) SetActive(ctx context.Context, tenantID string, active bool) error {
	cmd, err := r.pool.Exec(ctx,
		`UPDATE conjuntos SET activo=$1, updated_at=NOW() WHERE tenant_id=$2`, active, tenantID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *conjuntoRepository) Delete(ctx context.Context, tenantID string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM conjuntos WHERE tenant_id=$1`, tenantID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func conjuntoScanTargets(conjunto *domain.Conjunto) []any {
	return []any{
		&conjunto.ID,
		&conjunto.Name,
		&conjunto.TenantID,
		&conjunto.Plan,
		&conjunto.Active,
		&conjunto.CreatedAt,
		&conjunto.UpdatedAt,
	}
}
