package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/conjunto-service/internal/domain"
)

// PQRFilter captures listing parameters. Every field is optional; zero
// values mean "no constraint".
type PQRFilter struct {
	Status      *domain.PQRStatus
	Category    *domain.PQRCategory
	Type        *domain.PQRType
	Priority    *domain.PQRPriority
	RequesterID *string
	AssigneeID  *string
	Search      *string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Limit       int
	Offset      int
}

// PQRRepository encapsulates ticket persistence inside one tenant schema.
type PQRRepository interface {
	Create(ctx context.Context, pqr *domain.PQR) error
	Update(ctx context.Context, pqr *domain.PQR) error
	GetByID(ctx context.Context, id string) (*domain.PQR, error)
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
	CountsByStatus(ctx context.Context) (map[domain.PQRStatus]int, error)
	ListWithFilter(ctx context.Context, filter PQRFilter) ([]domain.PQR, int, error)
	ListAll(ctx context.Context) ([]domain.PQR, error)
}

type pqrRepository struct {
	pool *pgxpool.Pool
}

// NewPQRRepository instantiates the repository over a tenant pool.
func NewPQRRepository(pool *pgxpool.Pool) PQRRepository {
	return &pqrRepository{pool: pool}
}

const pqrColumns = `id, numero, tipo, categoria, asunto, descripcion, estado, prioridad,
       anonimo, solicitante_id, responsable_id, propiedad_id, respuesta, observaciones,
       adjuntos, calificacion, comentario_calificacion, fecha_creacion, fecha_respuesta,
       fecha_cierre, updated_at`

func (r *pqrRepository) Create(ctx context.Context, pqr *domain.PQR) error {
	const query = `
        INSERT INTO pqrs (numero, tipo, categoria, asunto, descripcion, estado, prioridad,
            anonimo, solicitante_id, responsable_id, propiedad_id, adjuntos)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
        RETURNING id, fecha_creacion, updated_at`
	return r.pool.QueryRow(ctx, query,
		pqr.Number,
		pqr.Type,
		pqr.Category,
		pqr.Subject,
		pqr.Description,
		pqr.Status,
		pqr.Priority,
		pqr.Anonymous,
		pqr.RequesterID,
		pqr.AssigneeID,
		pqr.PropertyID,
		pqr.Attachments,
	).Scan(&pqr.ID, &pqr.CreatedAt, &pqr.UpdatedAt)
}

func (r *pqrRepository) Update(ctx context.Context, pqr *domain.PQR) error {
	const query = `
        UPDATE pqrs SET estado=$1, prioridad=$2, responsable_id=$3, respuesta=$4,
            observaciones=$5, calificacion=$6, comentario_calificacion=$7,
            fecha_respuesta=$8, fecha_cierre=$9, updated_at=NOW()
        WHERE id=$10`
	cmd, err := r.pool.Exec(ctx, query,
		pqr.Status,
		pqr.Priority,
		pqr.AssigneeID,
		pqr.Response,
		pqr.Notes,
		pqr.Rating,
		pqr.RatingComment,
		pqr.RespondedAt,
		pqr.ClosedAt,
		pqr.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *pqrRepository) GetByID(ctx context.Context, id string) (*domain.PQR, error) {
	query := fmt.Sprintf(`SELECT %s FROM pqrs WHERE id=$1`, pqrColumns)
	var pqr domain.PQR
	if err := r.pool.QueryRow(ctx, query, id).Scan(pqrScanTargets(&pqr)...); err != nil {
		return nil, err
	}
	return &pqr, nil
}

func (r *pqrRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM pqrs WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *pqrRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM pqrs`).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *pqrRepository) CountsByStatus(ctx context.Context) (map[domain.PQRStatus]int, error) {
	rows, err := r.pool.Query(ctx, `SELECT estado, COUNT(*) FROM pqrs GROUP BY estado`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[domain.PQRStatus]int)
	for rows.Next() {
		var status domain.PQRStatus
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[status] = count
	}
	return counts, rows.Err()
}

func (r *pqrRepository) ListWithFilter(ctx context.Context, filter PQRFilter) ([]domain.PQR, int, error) {
	clauses := []string{"1=1"}
	args := []any{}

	appendEq := func(column string, value any) {
		args = append(args, value)
		clauses = append(clauses, fmt.Sprintf("%s=$%d", column, len(args)))
	}

	if filter.Status != nil {
		appendEq("estado", *filter.Status)
	}
	if filter.Category != nil {
		appendEq("categoria", *filter.Category)
	}
	if filter.Type != nil {
		appendEq("tipo", *filter.Type)
	}
	if filter.Priority != nil {
		appendEq("prioridad", *filter.Priority)
	}
	if filter.RequesterID != nil {
		appendEq("solicitante_id", *filter.RequesterID)
	}
	if filter.AssigneeID != nil {
		appendEq("responsable_id", *filter.AssigneeID)
	}
	if filter.CreatedFrom != nil {
		args = append(args, *filter.CreatedFrom)
		clauses = append(clauses, fmt.Sprintf("fecha_creacion >= $%d", len(args)))
	}
	if filter.CreatedTo != nil {
		args = append(args, *filter.CreatedTo)
		clauses = append(clauses, fmt.Sprintf("fecha_creacion <= $%d", len(args)))
	}
	if filter.Search != nil && strings.TrimSpace(*filter.Search) != "" {
		search := "%" + strings.ToLower(strings.TrimSpace(*filter.Search)) + "%"
		args = append(args, search)
		ph := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf(
			"(LOWER(asunto) LIKE %s OR LOWER(descripcion) LIKE %s OR LOWER(numero) LIKE %s)", ph, ph, ph))
	}

	where := strings.Join(clauses, " AND ")

	var total int
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM pqrs WHERE %s`, where)
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 10
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`SELECT %s FROM pqrs WHERE %s ORDER BY fecha_creacion DESC LIMIT %d OFFSET %d`,
		pqrColumns, where, limit, offset)
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	result, err := scanPQRs(rows)
	if err != nil {
		return nil, 0, err
	}
	return result, total, nil
}

func (r *pqrRepository) ListAll(ctx context.Context) ([]domain.PQR, error) {
	query := fmt.Sprintf(`SELECT %s FROM pqrs ORDER BY fecha_creacion DESC`, pqrColumns)
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanPQRs(rows)
}

func pqrScanTargets(pqr *domain.PQR) []any {
	return []any{
		&pqr.ID,
		&pqr.Number,
		&pqr.Type,
		&pqr.Category,
		&pqr.Subject,
		&pqr.Description,
		&pqr.Status,
		&pqr.Priority,
		&pqr.Anonymous,
		&pqr.RequesterID,
		&pqr.AssigneeID,
		&pqr.PropertyID,
		&pqr.Response,
		&pqr.Notes,
		&pqr.Attachments,
		&pqr.Rating,
		&pqr.RatingComment,
		&pqr.CreatedAt,
		&pqr.RespondedAt,
		&pqr.ClosedAt,
		&pqr.UpdatedAt,
	}
}

func scanPQRs(rows pgx.Rows) ([]domain.PQR, error) {
	var result []domain.PQR
	for rows.Next() {
		var pqr domain.PQR
		if err := rows.Scan(pqrScanTargets(&pqr)...); err != nil {
			return nil, err
		}
		result = append(result, pqr)
	}
	return result, rows.Err()
}
