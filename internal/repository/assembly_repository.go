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

// AssemblyFilter captures listing parameters for assemblies.
type AssemblyFilter struct {
	Status   *domain.AssemblyStatus
	Type     *domain.AssemblyType
	DateFrom *time.Time
	DateTo   *time.Time
	Search   *string
	Limit    int
	Offset   int
}

// AssemblyRepository encapsulates assembly persistence inside one tenant schema.
type AssemblyRepository interface {
	Create(ctx context.Context, assembly *domain.Assembly) error
	Update(ctx context.Context, assembly *domain.Assembly) error
	GetByID(ctx context.Context, id string) (*domain.Assembly, error)
	Delete(ctx context.Context, id string) error
	ListWithFilter(ctx context.Context, filter AssemblyFilter) ([]domain.Assembly, int, error)
	CountsByStatus(ctx context.Context) (map[domain.AssemblyStatus]int, error)
	CountsByType(ctx context.Context) (map[domain.AssemblyType]int, error)
}

type assemblyRepository struct {
	pool *pgxpool.Pool
}

// NewAssemblyRepository instantiates the repository over a tenant pool.
func NewAssemblyRepository(pool *pgxpool.Pool) AssemblyRepository {
	return &assemblyRepository{pool: pool}
}

const assemblyColumns = `id, titulo, descripcion, tipo, estado, fecha, lugar, duracion_estimada,
       quorum_minimo, quorum_actual, quorum_alcanzado, agenda, asistencia, dias_aviso,
       fecha_aviso, acta_resumen, observaciones, adjuntos, creado_por, fecha_inicio,
       fecha_fin, created_at, updated_at`

func (r *assemblyRepository) Create(ctx context.Context, assembly *domain.Assembly) error {
	const query = `
        INSERT INTO asambleas (titulo, descripcion, tipo, estado, fecha, lugar, duracion_estimada,
            quorum_minimo, quorum_actual, quorum_alcanzado, agenda, asistencia, dias_aviso,
            adjuntos, creado_por)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		assembly.Title,
		assembly.Description,
		assembly.Type,
		assembly.Status,
		assembly.ScheduledAt,
		assembly.Venue,
		assembly.DurationMinutes,
		assembly.QuorumMinimum,
		assembly.QuorumCurrent,
		assembly.QuorumReached,
		assembly.Agenda,
		assembly.Attendance,
		assembly.NoticeDays,
		assembly.Attachments,
		assembly.CreatedBy,
	).Scan(&assembly.ID, &assembly.CreatedAt, &assembly.UpdatedAt)
}

func (r *assemblyRepository) Update(ctx context.Context, assembly *domain.Assembly) error {
	const query = `
        UPDATE asambleas SET titulo=$1, descripcion=$2, tipo=$3, estado=$4, fecha=$5, lugar=$6,
            duracion_estimada=$7, quorum_minimo=$8, quorum_actual=$9, quorum_alcanzado=$10,
            agenda=$11, asistencia=$12, dias_aviso=$13, fecha_aviso=$14, acta_resumen=$15,
            observaciones=$16, adjuntos=$17, fecha_inicio=$18, fecha_fin=$19, updated_at=NOW()
        WHERE id=$20`
	cmd, err := r.pool.Exec(ctx, query,
		assembly.Title,
		assembly.Description,
		assembly.Type,
		assembly.Status,
		assembly.ScheduledAt,
		assembly.Venue,
		assembly.DurationMinutes,
		assembly.QuorumMinimum,
		assembly.QuorumCurrent,
		assembly.QuorumReached,
		assembly.Agenda,
		assembly.Attendance,
		assembly.NoticeDays,
		assembly.NoticeSentAt,
		assembly.MinutesSummary,
		assembly.Notes,
		assembly.Attachments,
		assembly.StartedAt,
		assembly.EndedAt,
		assembly.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *assemblyRepository) GetByID(ctx context.Context, id string) (*domain.Assembly, error) {
	query := fmt.Sprintf(`SELECT %s FROM asambleas WHERE id=$1`, assemblyColumns)
	var assembly domain.Assembly
	if err := r.pool.QueryRow(ctx, query, id).Scan(assemblyScanTargets(&assembly)...); err != nil {
		return nil, err
	}
	return &assembly, nil
}

func (r *assemblyRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM asambleas WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *assemblyRepository) ListWithFilter(ctx context.Context, filter AssemblyFilter) ([]domain.Assembly, int, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.Status != nil {
		args = append(args, *filter.Status)
		clauses = append(clauses, fmt.Sprintf("estado=$%d", len(args)))
	}
	if filter.Type != nil {
		args = append(args, *filter.Type)
		clauses = append(clauses, fmt.Sprintf("tipo=$%d", len(args)))
	}
	if filter.DateFrom != nil {
		args = append(args, *filter.DateFrom)
		clauses = append(clauses, fmt.Sprintf("fecha >= $%d", len(args)))
	}
	if filter.DateTo != nil {
		args = append(args, *filter.DateTo)
		clauses = append(clauses, fmt.Sprintf("fecha <= $%d", len(args)))
	}
	if filter.Search != nil && *filter.Search != "" {
		args = append(args, "%"+strings.ToLower(*filter.Search)+"%")
		clauses = append(clauses, fmt.Sprintf(
			"(LOWER(titulo) LIKE $%d OR LOWER(descripcion) LIKE $%d)", len(args), len(args)))
	}

	where := strings.Join(clauses, " AND ")

	var total int
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM asambleas WHERE %s`, where)
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

	query := fmt.Sprintf(`SELECT %s FROM asambleas WHERE %s ORDER BY fecha DESC LIMIT %d OFFSET %d`,
		assemblyColumns, where, limit, offset)
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []domain.Assembly
	for rows.Next() {
		var assembly domain.Assembly
		if err := rows.Scan(assemblyScanTargets(&assembly)...); err != nil {
			return nil, 0, err
		}
		result = append(result, assembly)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return result, total, nil
}

func (r *assemblyRepository) CountsByStatus(ctx context.Context) (map[domain.AssemblyStatus]int, error) {
	rows, err := r.pool.Query(ctx, `SELECT estado, COUNT(*) FROM asambleas GROUP BY estado`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[domain.AssemblyStatus]int)
	for rows.Next() {
		var status domain.AssemblyStatus
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[status] = count
	}
	return counts, rows.Err()
}

func (r *assemblyRepository) CountsByType(ctx context.Context) (map[domain.AssemblyType]int, error) {
	rows, err := r.pool.Query(ctx, `SELECT tipo, COUNT(*) FROM asambleas GROUP BY tipo`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[domain.AssemblyType]int)
	for rows.Next() {
		var typ domain.AssemblyType
		var count int
		if err := rows.Scan(&typ, &count); err != nil {
			return nil, err
		}
		counts[typ] = count
	}
	return counts, rows.Err()
}

func assemblyScanTargets(assembly *domain.Assembly) []any {
	return []any{
		&assembly.ID,
		&assembly.Title,
		&assembly.Description,
		&assembly.Type,
		&assembly.Status,
		&assembly.ScheduledAt,
		&assembly.Venue,
		&assembly.DurationMinutes,
		&assembly.QuorumMinimum,
		&assembly.QuorumCurrent,
		&assembly.QuorumReached,
		&assembly.Agenda,
		&assembly.Attendance,
		&assembly.NoticeDays,
		&assembly.NoticeSentAt,
		&assembly.MinutesSummary,
		&assembly.Notes,
		&assembly.Attachments,
		&assembly.CreatedBy,
		&assembly.StartedAt,
		&assembly.EndedAt,
		&assembly.CreatedAt,
		&assembly.UpdatedAt,
	}
}
