package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/conjunto-service/internal/domain"
	"github.com/spec-kit/conjunto-service/internal/events"
	apperrors "github.com/spec-kit/conjunto-service/pkg/util"
)

const testTenant = "cj0001"

func newTestPQRService(strict bool) (*PQRService, *memPQRRepo) {
	repo := newMemPQRRepo()
	svc := NewPQRService(PQRDependencies{
		Repos:             &memTenantRepos{pqrs: repo, assemblies: newMemAssemblyRepo()},
		Dispatcher:        events.NewInMemoryDispatcher(),
		StrictTransitions: strict,
	})
	return svc, repo
}

func validCreateInput() PQRCreateInput {
	return PQRCreateInput{
		Type:        domain.PQRTypePeticion,
		Category:    domain.PQRCategoryAdministracion,
		Subject:     "Solicitud de certificado",
		Description: "Necesito el certificado de paz y salvo del apartamento 501.",
	}
}

func TestPQRCreateTriage(t *testing.T) {
	adminMaintenance := "admin-maintenance"
	adminSecurity := "admin-security"
	adminServices := "admin-services"

	cases := []struct {
		name         string
		typ          domain.PQRType
		category     domain.PQRCategory
		wantPriority domain.PQRPriority
		wantAssignee *string
	}{
		{"reclamo mantenimiento is urgent", domain.PQRTypeReclamo, domain.PQRCategoryMantenimiento, domain.PQRPriorityUrgente, &adminMaintenance},
		{"seguridad is high", domain.PQRTypePeticion, domain.PQRCategorySeguridad, domain.PQRPriorityAlta, &adminSecurity},
		{"servicios publicos is high", domain.PQRTypeSugerencia, domain.PQRCategoryServiciosPublicos, domain.PQRPriorityAlta, &adminServices},
		{"queja ruido is medium and unassigned", domain.PQRTypeQueja, domain.PQRCategoryRuido, domain.PQRPriorityMedia, nil},
		{"vecinos stays unassigned", domain.PQRTypePeticion, domain.PQRCategoryVecinos, domain.PQRPriorityBaja, nil},
		{"otro defaults low", domain.PQRTypeSugerencia, domain.PQRCategoryOtro, domain.PQRPriorityBaja, nil},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, _ := newTestPQRService(false)
			input := validCreateInput()
			input.Type = tc.typ
			input.Category = tc.category
			pqr, err := svc.Create(context.Background(), testTenant, "user-1", input)
			require.NoError(t, err)
			assert.Equal(t, tc.wantPriority, pqr.Priority)
			if tc.wantAssignee == nil {
				assert.Nil(t, pqr.AssigneeID)
			} else {
				require.NotNil(t, pqr.AssigneeID)
				assert.Equal(t, *tc.wantAssignee, *pqr.AssigneeID)
			}
			assert.Equal(t, domain.PQRStatusRecibido, pqr.Status)
		})
	}
}

func TestPQRCreateNumbering(t *testing.T) {
	svc, _ := newTestPQRService(false)
	svc.now = func() time.Time { return time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC) }

	for i := 1; i <= 3; i++ {
		pqr, err := svc.Create(context.Background(), testTenant, "user-1", validCreateInput())
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("PQR-2025-%03d", i), pqr.Number)
	}
}

func TestPQRCreateValidation(t *testing.T) {
	svc, _ := newTestPQRService(false)

	input := validCreateInput()
	input.Subject = "abc"
	_, err := svc.Create(context.Background(), testTenant, "user-1", input)
	requireDomainCode(t, err, "VALIDATION_FAILED")

	input = validCreateInput()
	input.Description = "corta"
	_, err = svc.Create(context.Background(), testTenant, "user-1", input)
	requireDomainCode(t, err, "VALIDATION_FAILED")

	input = validCreateInput()
	input.Type = "INVALIDO"
	_, err = svc.Create(context.Background(), testTenant, "user-1", input)
	requireDomainCode(t, err, "VALIDATION_FAILED")
}

func TestPQRUpdateResolvedSetsRespondedAtOnce(t *testing.T) {
	svc, _ := newTestPQRService(false)
	firstNow := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return firstNow }

	pqr, err := svc.Create(context.Background(), testTenant, "user-1", validCreateInput())
	require.NoError(t, err)

	resolved := domain.PQRStatusResuelto
	answer := "Se entregó el certificado."
	updated, err := svc.Update(context.Background(), testTenant, "admin-1", pqr.ID, PQRUpdateInput{
		Status:   &resolved,
		Response: &answer,
	})
	require.NoError(t, err)
	require.NotNil(t, updated.RespondedAt)
	assert.Equal(t, firstNow, *updated.RespondedAt)

	// A later touch while still resolved must not move the timestamp.
	svc.now = func() time.Time { return firstNow.Add(48 * time.Hour) }
	note := "seguimiento"
	updated, err = svc.Update(context.Background(), testTenant, "admin-1", pqr.ID, PQRUpdateInput{Notes: &note})
	require.NoError(t, err)
	require.NotNil(t, updated.RespondedAt)
	assert.Equal(t, firstNow, *updated.RespondedAt)
}

func TestPQRUpdateResolvedWithoutResponseKeepsTimestampNil(t *testing.T) {
	svc, _ := newTestPQRService(false)
	pqr, err := svc.Create(context.Background(), testTenant, "user-1", validCreateInput())
	require.NoError(t, err)

	resolved := domain.PQRStatusResuelto
	updated, err := svc.Update(context.Background(), testTenant, "admin-1", pqr.ID, PQRUpdateInput{Status: &resolved})
	require.NoError(t, err)
	assert.Nil(t, updated.RespondedAt)
}

func TestPQRUpdateResponseAloneDoesNotStampTimestamp(t *testing.T) {
	svc, _ := newTestPQRService(false)
	pqr, err := svc.Create(context.Background(), testTenant, "user-1", validCreateInput())
	require.NoError(t, err)

	resolved := domain.PQRStatusResuelto
	updated, err := svc.Update(context.Background(), testTenant, "admin-1", pqr.ID, PQRUpdateInput{Status: &resolved})
	require.NoError(t, err)
	require.Nil(t, updated.RespondedAt)

	// Filing the answer later without touching estado leaves the stamp alone.
	answer := "Se entregó el certificado."
	updated, err = svc.Update(context.Background(), testTenant, "admin-1", pqr.ID, PQRUpdateInput{Response: &answer})
	require.NoError(t, err)
	assert.Nil(t, updated.RespondedAt)

	stampTime := time.Date(2025, 5, 3, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return stampTime }
	updated, err = svc.Update(context.Background(), testTenant, "admin-1", pqr.ID, PQRUpdateInput{Status: &resolved})
	require.NoError(t, err)
	require.NotNil(t, updated.RespondedAt)
	assert.Equal(t, stampTime, *updated.RespondedAt)
}

func TestPQRCreateValidationCountsRunes(t *testing.T) {
	svc, _ := newTestPQRService(false)

	// Four runes, eight bytes. Byte counting would wrongly accept it.
	input := validCreateInput()
	input.Subject = "ñoño"
	_, err := svc.Create(context.Background(), testTenant, "user-1", input)
	requireDomainCode(t, err, "VALIDATION_FAILED")

	input = validCreateInput()
	input.Subject = strings.Repeat("ñ", 200)
	input.Description = strings.Repeat("á", 10)
	_, err = svc.Create(context.Background(), testTenant, "user-1", input)
	require.NoError(t, err)
}

func TestPQRUpdateClosedSetsClosedAt(t *testing.T) {
	svc, _ := newTestPQRService(false)
	closeTime := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return closeTime }

	pqr, err := svc.Create(context.Background(), testTenant, "user-1", validCreateInput())
	require.NoError(t, err)

	closed := domain.PQRStatusCerrado
	updated, err := svc.Update(context.Background(), testTenant, "admin-1", pqr.ID, PQRUpdateInput{Status: &closed})
	require.NoError(t, err)
	require.NotNil(t, updated.ClosedAt)
	assert.Equal(t, closeTime, *updated.ClosedAt)
}

func TestPQRStrictTransitions(t *testing.T) {
	svc, _ := newTestPQRService(true)
	pqr, err := svc.Create(context.Background(), testTenant, "user-1", validCreateInput())
	require.NoError(t, err)

	closed := domain.PQRStatusCerrado
	_, err = svc.Update(context.Background(), testTenant, "admin-1", pqr.ID, PQRUpdateInput{Status: &closed})
	requireDomainCode(t, err, "BUSINESS_RULE")

	inProgress := domain.PQRStatusEnProceso
	updated, err := svc.Update(context.Background(), testTenant, "admin-1", pqr.ID, PQRUpdateInput{Status: &inProgress})
	require.NoError(t, err)
	assert.Equal(t, domain.PQRStatusEnProceso, updated.Status)
}

func TestPQRPermissiveTransitions(t *testing.T) {
	svc, _ := newTestPQRService(false)
	pqr, err := svc.Create(context.Background(), testTenant, "user-1", validCreateInput())
	require.NoError(t, err)

	// Default mode allows skipping ahead.
	closed := domain.PQRStatusCerrado
	updated, err := svc.Update(context.Background(), testTenant, "admin-1", pqr.ID, PQRUpdateInput{Status: &closed})
	require.NoError(t, err)
	assert.Equal(t, domain.PQRStatusCerrado, updated.Status)
}

func TestPQRUpdateRejectsBadRating(t *testing.T) {
	svc, _ := newTestPQRService(false)
	pqr, err := svc.Create(context.Background(), testTenant, "user-1", validCreateInput())
	require.NoError(t, err)

	rating := 6
	_, err = svc.Update(context.Background(), testTenant, "user-1", pqr.ID, PQRUpdateInput{Rating: &rating})
	requireDomainCode(t, err, "VALIDATION_FAILED")
}

func TestPQRDeleteOnlyWhileReceived(t *testing.T) {
	svc, _ := newTestPQRService(false)
	pqr, err := svc.Create(context.Background(), testTenant, "user-1", validCreateInput())
	require.NoError(t, err)

	inProgress := domain.PQRStatusEnProceso
	_, err = svc.Update(context.Background(), testTenant, "admin-1", pqr.ID, PQRUpdateInput{Status: &inProgress})
	require.NoError(t, err)

	err = svc.Delete(context.Background(), testTenant, "admin-1", pqr.ID)
	requireDomainCode(t, err, "BUSINESS_RULE")

	// The failed delete leaves the ticket untouched.
	kept, err := svc.Get(context.Background(), testTenant, pqr.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PQRStatusEnProceso, kept.Status)

	fresh, err := svc.Create(context.Background(), testTenant, "user-1", validCreateInput())
	require.NoError(t, err)
	require.NoError(t, svc.Delete(context.Background(), testTenant, "admin-1", fresh.ID))
	_, err = svc.Get(context.Background(), testTenant, fresh.ID)
	requireDomainCode(t, err, "NOT_FOUND")
}

func TestPQRListStats(t *testing.T) {
	svc, _ := newTestPQRService(false)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := svc.Create(ctx, testTenant, "user-1", validCreateInput())
		require.NoError(t, err)
	}
	first, err := svc.Create(ctx, testTenant, "user-2", validCreateInput())
	require.NoError(t, err)
	resolved := domain.PQRStatusResuelto
	_, err = svc.Update(ctx, testTenant, "admin-1", first.ID, PQRUpdateInput{Status: &resolved})
	require.NoError(t, err)

	items, total, stats, err := svc.List(ctx, testTenant, PQRListInput{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, items, 2)
	assert.Equal(t, 4, total)
	assert.Equal(t, 4, stats.Total)
	assert.Equal(t, 3, stats.Recibidos)
	assert.Equal(t, 1, stats.Resueltos)
}

func requireDomainCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var domainErr *apperrors.DomainError
	require.True(t, errors.As(err, &domainErr), "expected DomainError, got %T", err)
	assert.Equal(t, code, domainErr.Code)
}
