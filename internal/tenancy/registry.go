package tenancy

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/spec-kit/conjunto-service/internal/config"
	"github.com/spec-kit/conjunto-service/internal/persistence"
	apperrors "github.com/spec-kit/conjunto-service/pkg/util"
)

// tenantIDPattern is the fixed short-code format: two lowercase letters
// followed by four digits, e.g. cj0001.
var tenantIDPattern = regexp.MustCompile(`^[a-z]{2}[0-9]{4}$`)

// Registry owns one data-access handle per tenant schema. Handles are created
// lazily on first lookup and live until DropSchema or CloseAll.
type Registry struct {
	base         *pgxpool.Pool
	pgCfg        config.PostgresConfig
	schemaPrefix string
	maxConns     int32
	logger       *zap.Logger

	mu      sync.RWMutex
	handles map[string]*pgxpool.Pool

	// open is swappable for tests.
	open func(ctx context.Context, schema string) (*pgxpool.Pool, error)
}

// NewRegistry builds a registry over the public-schema pool.
func NewRegistry(base *pgxpool.Pool, pgCfg config.PostgresConfig, tenancyCfg config.TenancyConfig, logger *zap.Logger) *Registry {
	r := &Registry{
		base:         base,
		pgCfg:        pgCfg,
		schemaPrefix: tenancyCfg.SchemaPrefix,
		maxConns:     tenancyCfg.TenantMaxConns,
		logger:       logger,
		handles:      make(map[string]*pgxpool.Pool),
	}
	r.open = r.openPool
	return r
}

// ValidateTenantID checks the fixed short-code format before any partition
// access is attempted.
func ValidateTenantID(tenantID string) error {
	if !tenantIDPattern.MatchString(tenantID) {
		return apperrors.NewValidationError("invalid tenant id", map[string]any{
			"tenantId": fmt.Sprintf("%q does not match the expected format (two letters followed by four digits)", tenantID),
		})
	}
	return nil
}

// SchemaName derives the partition name for a tenant id.
func (r *Registry) SchemaName(tenantID string) string {
	return r.schemaPrefix + tenantID
}

// Handle returns the cached pool for the tenant, creating it on first use.
// Repeated lookups for the same tenant return the identical pool instance.
func (r *Registry) Handle(ctx context.Context, tenantID string) (*pgxpool.Pool, error) {
	if err := ValidateTenantID(tenantID); err != nil {
		return nil, err
	}
	schema := r.SchemaName(tenantID)

	r.mu.RLock()
	pool, ok := r.handles[schema]
	r.mu.RUnlock()
	if ok {
		return pool, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if pool, ok := r.handles[schema]; ok {
		return pool, nil
	}
	pool, err := r.open(ctx, schema)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	r.handles[schema] = pool
	r.logger.Info("tenant handle opened", zap.String("schema", schema))
	return pool, nil
}

// CreateSchema provisions the tenant partition and applies the same migrations
// as the default partition. Administrative operation, not request handling.
func (r *Registry) CreateSchema(ctx context.Context, tenantID string) error {
	if err := ValidateTenantID(tenantID); err != nil {
		return err
	}
	schema := r.SchemaName(tenantID)
	if _, err := r.base.Exec(ctx, fmt.Sprintf(`CREATE SCHEMA IF NOT EXISTS %q`, schema)); err != nil {
		return apperrors.MapError(err)
	}
	pool, err := r.Handle(ctx, tenantID)
	if err != nil {
		return err
	}
	if err := persistence.RunMigrations(ctx, pool, persistence.TenantMigrationsDir, r.logger); err != nil {
		return apperrors.MapError(err)
	}
	r.logger.Info("tenant schema created", zap.String("schema", schema))
	return nil
}

// DropSchema closes and evicts the cached handle, then drops the partition
// with all its tables. Irreversible.
func (r *Registry) DropSchema(ctx context.Context, tenantID string) error {
	if err := ValidateTenantID(tenantID); err != nil {
		return err
	}
	schema := r.SchemaName(tenantID)

	r.mu.Lock()
	if pool, ok := r.handles[schema]; ok {
		pool.Close()
		delete(r.handles, schema)
	}
	r.mu.Unlock()

	if _, err := r.base.Exec(ctx, fmt.Sprintf(`DROP SCHEMA IF EXISTS %q CASCADE`, schema)); err != nil {
		return apperrors.MapError(err)
	}
	r.logger.Warn("tenant schema dropped", zap.String("schema", schema))
	return nil
}

// SchemaExists reports whether the tenant partition has been provisioned.
func (r *Registry) SchemaExists(ctx context.Context, tenantID string) (bool, error) {
	if err := ValidateTenantID(tenantID); err != nil {
		return false, err
	}
	const query = `
        SELECT EXISTS(
            SELECT schema_name FROM information_schema.schemata WHERE schema_name = $1
        )`
	var exists bool
	if err := r.base.QueryRow(ctx, query, r.SchemaName(tenantID)).Scan(&exists); err != nil {
		return false, apperrors.MapError(err)
	}
	return exists, nil
}

// ListTenantIDs returns the tenant ids of all provisioned partitions.
func (r *Registry) ListTenantIDs(ctx context.Context) ([]string, error) {
	const query = `
        SELECT schema_name FROM information_schema.schemata
        WHERE schema_name LIKE $1 ORDER BY schema_name`
	rows, err := r.base.Query(ctx, query, r.schemaPrefix+"%")
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var schema string
		if err := rows.Scan(&schema); err != nil {
			return nil, apperrors.MapError(err)
		}
		ids = append(ids, strings.TrimPrefix(schema, r.schemaPrefix))
	}
	return ids, rows.Err()
}

// CloseAll closes every cached handle. Called on process shutdown.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for schema, pool := range r.handles {
		pool.Close()
		delete(r.handles, schema)
	}
	r.logger.Info("tenant handles closed")
}

func (r *Registry) openPool(ctx context.Context, schema string) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(r.pgCfg.DSN)
	if err != nil {
		return nil, err
	}
	poolCfg.ConnConfig.RuntimeParams["search_path"] = schema
	if r.maxConns > 0 {
		poolCfg.MaxConns = r.maxConns
	}
	return pgxpool.NewWithConfig(ctx, poolCfg)
}

// NextTenantID derives the next identifier from the most recently created one.
// The first tenant ever created gets the fixed starting suffix 0001.
func NextTenantID(prefix, lastID string) (string, error) {
	if lastID == "" {
		return prefix + "0001", nil
	}
	suffix := strings.TrimPrefix(lastID, prefix)
	n, err := strconv.Atoi(suffix)
	if err != nil {
		return "", fmt.Errorf("parse tenant id %q: %w", lastID, err)
	}
	return fmt.Sprintf("%s%04d", prefix, n+1), nil
}
