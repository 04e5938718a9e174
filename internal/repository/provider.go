package repository

import (
	"context"

	"github.com/spec-kit/conjunto-service/internal/tenancy"
)

// TenantRepositories resolves tenant-scoped repositories. Services depend on
// this interface so tests can hand back in-memory implementations.
type TenantRepositories interface {
	PQRs(ctx context.Context, tenantID string) (PQRRepository, error)
	Assemblies(ctx context.Context, tenantID string) (AssemblyRepository, error)
}

type registryRepositories struct {
	registry *tenancy.Registry
}

// NewTenantRepositories binds repository construction to the tenant registry.
// Each call resolves the tenant's pool first, so a malformed or unknown tenant
// id surfaces before any query runs.
func NewTenantRepositories(registry *tenancy.Registry) TenantRepositories {
	return &registryRepositories{registry: registry}
}

func (p *registryRepositories) PQRs(ctx context.Context, tenantID string) (PQRRepository, error) {
	pool, err := p.registry.Handle(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	return NewPQRRepository(pool), nil
}

func (p *registryRepositories) Assemblies(ctx context.Context, tenantID string) (AssemblyRepository, error) {
	pool, err := p.registry.Handle(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	return NewAssemblyRepository(pool), nil
}
