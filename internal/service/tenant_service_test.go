package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/conjunto-service/internal/domain"
	"github.com/spec-kit/conjunto-service/internal/events"
)

func newTestTenantService() (*TenantService, *memConjuntoRepo, *memSchemaManager) {
	conjuntos := newMemConjuntoRepo()
	schemas := newMemSchemaManager()
	svc := NewTenantService(TenantDependencies{
		ConjuntoRepo: conjuntos,
		Schemas:      schemas,
		IDPrefix:     "cj",
		Dispatcher:   events.NewInMemoryDispatcher(),
	})
	return svc, conjuntos, schemas
}

func TestTenantProvisionSequence(t *testing.T) {
	svc, _, schemas := newTestTenantService()
	ctx := context.Background()

	first, err := svc.Provision(ctx, ProvisionInput{Name: "Conjunto Alameda"})
	require.NoError(t, err)
	assert.Equal(t, "cj0001", first.TenantID)
	assert.Equal(t, domain.PlanBasico, first.Plan, "plan defaults to BASICO")
	assert.True(t, first.Active)

	second, err := svc.Provision(ctx, ProvisionInput{Name: "Torres del Parque", Plan: domain.PlanPremium})
	require.NoError(t, err)
	assert.Equal(t, "cj0002", second.TenantID)
	assert.Equal(t, domain.PlanPremium, second.Plan)

	for _, id := range []string{"cj0001", "cj0002"} {
		exists, err := schemas.SchemaExists(ctx, id)
		require.NoError(t, err)
		assert.True(t, exists, "schema for %s should exist", id)
	}
}

func TestTenantProvisionValidation(t *testing.T) {
	svc, _, _ := newTestTenantService()
	ctx := context.Background()

	_, err := svc.Provision(ctx, ProvisionInput{Name: "ab"})
	requireDomainCode(t, err, "VALIDATION_FAILED")

	_, err = svc.Provision(ctx, ProvisionInput{Name: "Conjunto Alameda", Plan: domain.PlanTier("GRATIS")})
	requireDomainCode(t, err, "VALIDATION_FAILED")
}

func TestTenantProvisionRollsBackOnSchemaFailure(t *testing.T) {
	svc, conjuntos, schemas := newTestTenantService()
	ctx := context.Background()
	schemas.failOn = "cj0001"

	_, err := svc.Provision(ctx, ProvisionInput{Name: "Conjunto Alameda"})
	require.Error(t, err)

	// The registry row must not survive a failed schema creation.
	_, err = conjuntos.GetByTenantID(ctx, "cj0001")
	require.Error(t, err)

	// The id is reused on the next attempt.
	schemas.failOn = ""
	conjunto, err := svc.Provision(ctx, ProvisionInput{Name: "Conjunto Alameda"})
	require.NoError(t, err)
	assert.Equal(t, "cj0001", conjunto.TenantID)
}

func TestTenantGetRejectsMalformedID(t *testing.T) {
	svc, _, _ := newTestTenantService()
	_, err := svc.Get(context.Background(), "cj1; DROP SCHEMA public")
	require.Error(t, err)
}

func TestTenantSetActive(t *testing.T) {
	svc, conjuntos, _ := newTestTenantService()
	ctx := context.Background()
	conjunto, err := svc.Provision(ctx, ProvisionInput{Name: "Conjunto Alameda"})
	require.NoError(t, err)

	require.NoError(t, svc.SetActive(ctx, conjunto.TenantID, false))
	stored, err := conjuntos.GetByTenantID(ctx, conjunto.TenantID)
	require.NoError(t, err)
	assert.False(t, stored.Active)

	err = svc.SetActive(ctx, "cj9999", false)
	requireDomainCode(t, err, "NOT_FOUND")
}

func TestTenantDestroy(t *testing.T) {
	svc, conjuntos, schemas := newTestTenantService()
	ctx := context.Background()
	conjunto, err := svc.Provision(ctx, ProvisionInput{Name: "Conjunto Alameda"})
	require.NoError(t, err)

	require.NoError(t, svc.Destroy(ctx, conjunto.TenantID))

	exists, err := schemas.SchemaExists(ctx, conjunto.TenantID)
	require.NoError(t, err)
	assert.False(t, exists)
	_, err = conjuntos.GetByTenantID(ctx, conjunto.TenantID)
	require.Error(t, err)

	err = svc.Destroy(ctx, conjunto.TenantID)
	requireDomainCode(t, err, "NOT_FOUND")
}
