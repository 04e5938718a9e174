package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/conjunto-service/internal/domain"
	"github.com/spec-kit/conjunto-service/internal/events"
)

var assemblyNow = time.Date(2025, 9, 1, 8, 0, 0, 0, time.UTC)

func newTestAssemblyService(owners int) (*AssemblyService, *memAssemblyRepo) {
	repo := newMemAssemblyRepo()
	svc := NewAssemblyService(AssemblyDependencies{
		Repos:      &memTenantRepos{pqrs: newMemPQRRepo(), assemblies: repo},
		Owners:     fixedOwners(owners),
		Dispatcher: events.NewInMemoryDispatcher(),
	})
	svc.now = func() time.Time { return assemblyNow }
	return svc, repo
}

func validAssemblyInput() AssemblyCreateInput {
	return AssemblyCreateInput{
		Title:           "Asamblea ordinaria anual",
		Description:     "Presentación de estados financieros y elección del consejo.",
		Type:            domain.AssemblyTypeOrdinaria,
		ScheduledAt:     assemblyNow.Add(72 * time.Hour),
		Venue:           "Salón comunal",
		DurationMinutes: 120,
		QuorumMinimum:   51,
		Agenda: []domain.AgendaItem{
			{Title: "Verificación de quorum", EstimatedMinutes: 15},
			{Title: "Estados financieros", EstimatedMinutes: 45},
		},
		NoticeDays: 15,
	}
}

func TestAssemblyCreate(t *testing.T) {
	svc, _ := newTestAssemblyService(100)
	assembly, err := svc.Create(context.Background(), testTenant, "admin-1", validAssemblyInput())
	require.NoError(t, err)
	assert.Equal(t, domain.AssemblyStatusProgramada, assembly.Status)
	assert.Equal(t, domain.Attendance{}, assembly.Attendance)
	assert.False(t, assembly.QuorumReached)
	assert.Equal(t, "admin-1", assembly.CreatedBy)
}

func TestAssemblyCreateValidation(t *testing.T) {
	svc, _ := newTestAssemblyService(100)
	ctx := context.Background()

	cases := []struct {
		name   string
		mutate func(*AssemblyCreateInput)
	}{
		{"short title", func(in *AssemblyCreateInput) { in.Title = "abc" }},
		{"short description", func(in *AssemblyCreateInput) { in.Description = "breve" }},
		{"past date", func(in *AssemblyCreateInput) { in.ScheduledAt = assemblyNow.Add(-time.Hour) }},
		{"short venue", func(in *AssemblyCreateInput) { in.Venue = "no" }},
		{"duration too short", func(in *AssemblyCreateInput) { in.DurationMinutes = 20 }},
		{"duration too long", func(in *AssemblyCreateInput) { in.DurationMinutes = 500 }},
		{"quorum out of range", func(in *AssemblyCreateInput) { in.QuorumMinimum = 101 }},
		{"empty agenda", func(in *AssemblyCreateInput) { in.Agenda = nil }},
		{"agenda item title too short", func(in *AssemblyCreateInput) {
			in.Agenda = []domain.AgendaItem{{Title: "ab"}}
		}},
		{"agenda item time out of range", func(in *AssemblyCreateInput) {
			in.Agenda = []domain.AgendaItem{{Title: "Punto uno", EstimatedMinutes: 3}}
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			input := validAssemblyInput()
			tc.mutate(&input)
			_, err := svc.Create(ctx, testTenant, "admin-1", input)
			requireDomainCode(t, err, "VALIDATION_FAILED")
		})
	}
}

func TestAssemblyQuorumRecompute(t *testing.T) {
	svc, _ := newTestAssemblyService(100)
	ctx := context.Background()
	assembly, err := svc.Create(ctx, testTenant, "admin-1", validAssemblyInput())
	require.NoError(t, err)

	updated, err := svc.Update(ctx, testTenant, "admin-1", assembly.ID, AssemblyUpdateInput{
		Attendance: &domain.Attendance{Present: 40, Delegated: 10},
	})
	require.NoError(t, err)
	assert.Equal(t, 50.0, updated.QuorumCurrent)
	assert.False(t, updated.QuorumReached, "50 percent is below the 51 percent minimum")

	updated, err = svc.Update(ctx, testTenant, "admin-1", assembly.ID, AssemblyUpdateInput{
		Attendance: &domain.Attendance{Present: 45, Delegated: 10},
	})
	require.NoError(t, err)
	assert.Equal(t, 55.0, updated.QuorumCurrent)
	assert.True(t, updated.QuorumReached)
}

func TestAssemblyQuorumWithNoOwners(t *testing.T) {
	svc, _ := newTestAssemblyService(0)
	ctx := context.Background()
	assembly, err := svc.Create(ctx, testTenant, "admin-1", validAssemblyInput())
	require.NoError(t, err)

	updated, err := svc.Update(ctx, testTenant, "admin-1", assembly.ID, AssemblyUpdateInput{
		Attendance: &domain.Attendance{Present: 10},
	})
	require.NoError(t, err)
	assert.Equal(t, 0.0, updated.QuorumCurrent)
	assert.False(t, updated.QuorumReached)
}

func TestAssemblyStartWindow(t *testing.T) {
	svc, _ := newTestAssemblyService(100)
	ctx := context.Background()
	input := validAssemblyInput()
	input.ScheduledAt = assemblyNow.Add(time.Hour)
	assembly, err := svc.Create(ctx, testTenant, "admin-1", input)
	require.NoError(t, err)

	enCurso := domain.AssemblyStatusEnCurso
	// 60 minutes early is outside the window.
	_, err = svc.Update(ctx, testTenant, "admin-1", assembly.ID, AssemblyUpdateInput{Status: &enCurso})
	requireDomainCode(t, err, "BUSINESS_RULE")

	// 10 minutes before the scheduled time is inside it.
	svc.now = func() time.Time { return input.ScheduledAt.Add(-10 * time.Minute) }
	updated, err := svc.Update(ctx, testTenant, "admin-1", assembly.ID, AssemblyUpdateInput{Status: &enCurso})
	require.NoError(t, err)
	assert.Equal(t, domain.AssemblyStatusEnCurso, updated.Status)
	require.NotNil(t, updated.StartedAt)
}

func TestAssemblyLifecycle(t *testing.T) {
	svc, _ := newTestAssemblyService(100)
	ctx := context.Background()
	input := validAssemblyInput()
	input.ScheduledAt = assemblyNow.Add(10 * time.Minute)
	assembly, err := svc.Create(ctx, testTenant, "admin-1", input)
	require.NoError(t, err)

	finalizada := domain.AssemblyStatusFinalizada
	_, err = svc.Update(ctx, testTenant, "admin-1", assembly.ID, AssemblyUpdateInput{Status: &finalizada})
	requireDomainCode(t, err, "BUSINESS_RULE")

	enCurso := domain.AssemblyStatusEnCurso
	_, err = svc.Update(ctx, testTenant, "admin-1", assembly.ID, AssemblyUpdateInput{Status: &enCurso})
	require.NoError(t, err)

	cancelada := domain.AssemblyStatusCancelada
	_, err = svc.Update(ctx, testTenant, "admin-1", assembly.ID, AssemblyUpdateInput{Status: &cancelada})
	requireDomainCode(t, err, "BUSINESS_RULE")

	updated, err := svc.Update(ctx, testTenant, "admin-1", assembly.ID, AssemblyUpdateInput{
		Status:     &finalizada,
		Attendance: &domain.Attendance{Present: 60},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.AssemblyStatusFinalizada, updated.Status)
	require.NotNil(t, updated.EndedAt)
	assert.True(t, updated.QuorumReached)

	// Finished assemblies are immutable.
	note := "acta pendiente"
	_, err = svc.Update(ctx, testTenant, "admin-1", assembly.ID, AssemblyUpdateInput{Notes: &note})
	requireDomainCode(t, err, "BUSINESS_RULE")
}

func TestAssemblyCancelOnlyFromScheduled(t *testing.T) {
	svc, _ := newTestAssemblyService(100)
	ctx := context.Background()
	assembly, err := svc.Create(ctx, testTenant, "admin-1", validAssemblyInput())
	require.NoError(t, err)

	cancelada := domain.AssemblyStatusCancelada
	updated, err := svc.Update(ctx, testTenant, "admin-1", assembly.ID, AssemblyUpdateInput{Status: &cancelada})
	require.NoError(t, err)
	assert.Equal(t, domain.AssemblyStatusCancelada, updated.Status)
}

func TestAssemblyDeleteOnlyWhileScheduled(t *testing.T) {
	svc, _ := newTestAssemblyService(100)
	ctx := context.Background()

	assembly, err := svc.Create(ctx, testTenant, "admin-1", validAssemblyInput())
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, testTenant, assembly.ID))

	input := validAssemblyInput()
	input.ScheduledAt = assemblyNow.Add(10 * time.Minute)
	started, err := svc.Create(ctx, testTenant, "admin-1", input)
	require.NoError(t, err)
	enCurso := domain.AssemblyStatusEnCurso
	_, err = svc.Update(ctx, testTenant, "admin-1", started.ID, AssemblyUpdateInput{Status: &enCurso})
	require.NoError(t, err)

	err = svc.Delete(ctx, testTenant, started.ID)
	requireDomainCode(t, err, "BUSINESS_RULE")
}

func TestAssemblyNoticeSentOnce(t *testing.T) {
	svc, _ := newTestAssemblyService(100)
	ctx := context.Background()
	assembly, err := svc.Create(ctx, testTenant, "admin-1", validAssemblyInput())
	require.NoError(t, err)

	updated, err := svc.Update(ctx, testTenant, "admin-1", assembly.ID, AssemblyUpdateInput{SendNotice: true})
	require.NoError(t, err)
	require.NotNil(t, updated.NoticeSentAt)
	sentAt := *updated.NoticeSentAt

	svc.now = func() time.Time { return assemblyNow.Add(24 * time.Hour) }
	updated, err = svc.Update(ctx, testTenant, "admin-1", assembly.ID, AssemblyUpdateInput{SendNotice: true})
	require.NoError(t, err)
	assert.Equal(t, sentAt, *updated.NoticeSentAt)
}
