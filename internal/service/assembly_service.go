package service

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/spec-kit/conjunto-service/internal/domain"
	"github.com/spec-kit/conjunto-service/internal/events"
	"github.com/spec-kit/conjunto-service/internal/repository"
	apperrors "github.com/spec-kit/conjunto-service/pkg/util"
)

// startWindow is how early an assembly may be moved to EN_CURSO before its
// scheduled time.
const startWindow = 15 * time.Minute

// OwnerCounter reports how many active owner accounts a tenant has. The
// count is the quorum denominator.
type OwnerCounter interface {
	CountOwnersByTenant(ctx context.Context, tenantID string) (int, error)
}

// AssemblyService coordinates owner assemblies per tenant.
type AssemblyService struct {
	repos      repository.TenantRepositories
	owners     OwnerCounter
	dispatcher events.Dispatcher
	now        func() time.Time
}

// AssemblyDependencies bundles collaborators for the assembly service.
type AssemblyDependencies struct {
	Repos      repository.TenantRepositories
	Owners     OwnerCounter
	Dispatcher events.Dispatcher
}

// AssemblyCreateInput describes assembly scheduling payload.
type AssemblyCreateInput struct {
	Title           string
	Description     string
	Type            domain.AssemblyType
	ScheduledAt     time.Time
	Venue           string
	DurationMinutes int
	QuorumMinimum   int
	Agenda          []domain.AgendaItem
	NoticeDays      int
	Attachments     []string
}

// AssemblyUpdateInput describes a partial update; nil fields are left
// untouched. A nil Agenda keeps the existing agenda.
type AssemblyUpdateInput struct {
	Title          *string
	Description    *string
	Type           *domain.AssemblyType
	ScheduledAt    *time.Time
	Venue          *string
	DurationMins   *int
	QuorumMinimum  *int
	Agenda         []domain.AgendaItem
	Status         *domain.AssemblyStatus
	Attendance     *domain.Attendance
	Notes          *string
	MinutesSummary *string
	SendNotice     bool
}

// AssemblyListInput describes listing filters.
type AssemblyListInput struct {
	Status   *domain.AssemblyStatus
	Type     *domain.AssemblyType
	DateFrom *time.Time
	DateTo   *time.Time
	Search   *string
	Limit    int
	Offset   int
}

// AssemblyListStats summarizes the schedule shown next to listings.
type AssemblyListStats struct {
	Total    int                           `json:"total"`
	ByStatus map[domain.AssemblyStatus]int `json:"porEstado"`
	ByType   map[domain.AssemblyType]int   `json:"porTipo"`
}

// NewAssemblyService constructs the service.
func NewAssemblyService(deps AssemblyDependencies) *AssemblyService {
	return &AssemblyService{
		repos:      deps.Repos,
		owners:     deps.Owners,
		dispatcher: deps.Dispatcher,
		now:        time.Now,
	}
}

// Create schedules a new assembly.
func (s *AssemblyService) Create(ctx context.Context, tenantID, actorID string, input AssemblyCreateInput) (*domain.Assembly, error) {
	if err := s.validateCreate(input); err != nil {
		return nil, err
	}
	repo, err := s.repos.Assemblies(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	assembly := &domain.Assembly{
		Title:           strings.TrimSpace(input.Title),
		Description:     strings.TrimSpace(input.Description),
		Type:            input.Type,
		ScheduledAt:     input.ScheduledAt,
		Venue:           strings.TrimSpace(input.Venue),
		DurationMinutes: input.DurationMinutes,
		QuorumMinimum:   input.QuorumMinimum,
		Status:          domain.AssemblyStatusProgramada,
		Agenda:          input.Agenda,
		NoticeDays:      input.NoticeDays,
		Attachments:     input.Attachments,
		CreatedBy:       actorID,
	}
	if err := repo.Create(ctx, assembly); err != nil {
		return nil, err
	}
	s.publish(ctx, events.Event{
		Type:     events.EventAssemblyScheduled,
		TenantID: tenantID,
		EntityID: assembly.ID,
		ActorID:  actorID,
	})
	return assembly, nil
}

// Get fetches one assembly within the tenant.
func (s *AssemblyService) Get(ctx context.Context, tenantID, id string) (*domain.Assembly, error) {
	repo, err := s.repos.Assemblies(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	assembly, err := repo.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return assembly, nil
}

// Update applies a partial update, enforcing the lifecycle and recomputing
// quorum whenever attendance changes.
func (s *AssemblyService) Update(ctx context.Context, tenantID, actorID, id string, input AssemblyUpdateInput) (*domain.Assembly, error) {
	repo, err := s.repos.Assemblies(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	assembly, err := repo.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if assembly.Status == domain.AssemblyStatusFinalizada {
		return nil, apperrors.NewBusinessRuleError("a finished assembly cannot be modified")
	}

	if input.Title != nil {
		assembly.Title = strings.TrimSpace(*input.Title)
	}
	if input.Description != nil {
		assembly.Description = strings.TrimSpace(*input.Description)
	}
	if input.Type != nil {
		if !input.Type.IsValid() {
			return nil, apperrors.NewValidationError("validation failed", map[string]any{
				"tipo": "is not a recognized assembly type",
			})
		}
		assembly.Type = *input.Type
	}
	if input.ScheduledAt != nil {
		assembly.ScheduledAt = *input.ScheduledAt
	}
	if input.Venue != nil {
		assembly.Venue = strings.TrimSpace(*input.Venue)
	}
	if input.DurationMins != nil {
		assembly.DurationMinutes = *input.DurationMins
	}
	if input.QuorumMinimum != nil {
		assembly.QuorumMinimum = *input.QuorumMinimum
	}
	if input.Agenda != nil {
		assembly.Agenda = input.Agenda
	}
	if input.Notes != nil {
		assembly.Notes = input.Notes
	}
	if input.MinutesSummary != nil {
		assembly.MinutesSummary = input.MinutesSummary
	}
	now := s.now()
	if input.SendNotice && assembly.NoticeSentAt == nil {
		assembly.NoticeSentAt = &now
	}

	if input.Attendance != nil {
		assembly.Attendance = *input.Attendance
		if err := s.recomputeQuorum(ctx, tenantID, assembly); err != nil {
			return nil, err
		}
	}

	oldStatus := assembly.Status
	if input.Status != nil && *input.Status != assembly.Status {
		if err := s.applyTransition(ctx, tenantID, assembly, *input.Status, now); err != nil {
			return nil, err
		}
	}

	if err := repo.Update(ctx, assembly); err != nil {
		return nil, apperrors.MapError(err)
	}
	if oldStatus != assembly.Status {
		s.publish(ctx, events.Event{
			Type:     events.EventAssemblyTransition,
			TenantID: tenantID,
			EntityID: assembly.ID,
			ActorID:  actorID,
			Payload: events.AssemblyTransitionPayload{
				OldStatus:     oldStatus,
				NewStatus:     assembly.Status,
				QuorumReached: assembly.QuorumReached,
			},
		})
	}
	return assembly, nil
}

// Delete removes an assembly that has not left the scheduled state.
func (s *AssemblyService) Delete(ctx context.Context, tenantID, id string) error {
	repo, err := s.repos.Assemblies(ctx, tenantID)
	if err != nil {
		return err
	}
	assembly, err := repo.GetByID(ctx, id)
	if err != nil {
		return apperrors.MapError(err)
	}
	if assembly.Status != domain.AssemblyStatusProgramada {
		return apperrors.NewBusinessRuleError("only scheduled assemblies can be deleted")
	}
	if err := repo.Delete(ctx, id); err != nil {
		return apperrors.MapError(err)
	}
	return nil
}

// List returns a filtered page plus schedule-wide stats.
func (s *AssemblyService) List(ctx context.Context, tenantID string, input AssemblyListInput) ([]domain.Assembly, int, *AssemblyListStats, error) {
	repo, err := s.repos.Assemblies(ctx, tenantID)
	if err != nil {
		return nil, 0, nil, err
	}
	items, total, err := repo.ListWithFilter(ctx, repository.AssemblyFilter{
		Status:   input.Status,
		Type:     input.Type,
		DateFrom: input.DateFrom,
		DateTo:   input.DateTo,
		Search:   input.Search,
		Limit:    input.Limit,
		Offset:   input.Offset,
	})
	if err != nil {
		return nil, 0, nil, err
	}
	byStatus, err := repo.CountsByStatus(ctx)
	if err != nil {
		return nil, 0, nil, err
	}
	byType, err := repo.CountsByType(ctx)
	if err != nil {
		return nil, 0, nil, err
	}
	stats := &AssemblyListStats{ByStatus: byStatus, ByType: byType}
	for _, count := range byStatus {
		stats.Total += count
	}
	return items, total, stats, nil
}

func (s *AssemblyService) applyTransition(ctx context.Context, tenantID string, assembly *domain.Assembly, target domain.AssemblyStatus, now time.Time) error {
	if !target.IsValid() {
		return apperrors.NewValidationError("validation failed", map[string]any{
			"estado": "is not a recognized assembly status",
		})
	}
	switch target {
	case domain.AssemblyStatusEnCurso:
		if assembly.Status != domain.AssemblyStatusProgramada {
			return apperrors.NewBusinessRuleError("only a scheduled assembly can be started")
		}
		if now.Before(assembly.ScheduledAt.Add(-startWindow)) {
			return apperrors.NewBusinessRuleError(fmt.Sprintf(
				"assembly can only be started within %d minutes of its scheduled time",
				int(startWindow.Minutes())))
		}
		assembly.Status = target
		assembly.StartedAt = &now
	case domain.AssemblyStatusFinalizada:
		if assembly.Status != domain.AssemblyStatusEnCurso {
			return apperrors.NewBusinessRuleError("only an assembly in progress can be finished")
		}
		if err := s.recomputeQuorum(ctx, tenantID, assembly); err != nil {
			return err
		}
		assembly.Status = target
		assembly.EndedAt = &now
	case domain.AssemblyStatusCancelada:
		if assembly.Status != domain.AssemblyStatusProgramada {
			return apperrors.NewBusinessRuleError("only a scheduled assembly can be cancelled")
		}
		assembly.Status = target
	default:
		return apperrors.NewBusinessRuleError(fmt.Sprintf(
			"transition %s -> %s is not allowed", assembly.Status, target))
	}
	return nil
}

// recomputeQuorum derives participation from present plus delegated owners
// over the tenant's active owner count.
func (s *AssemblyService) recomputeQuorum(ctx context.Context, tenantID string, assembly *domain.Assembly) error {
	totalOwners, err := s.owners.CountOwnersByTenant(ctx, tenantID)
	if err != nil {
		return err
	}
	if totalOwners <= 0 {
		assembly.QuorumCurrent = 0
		assembly.QuorumReached = false
		return nil
	}
	participating := assembly.Attendance.Present + assembly.Attendance.Delegated
	percent := float64(participating) / float64(totalOwners) * 100
	assembly.QuorumCurrent = math.Round(percent*10) / 10
	assembly.QuorumReached = percent >= float64(assembly.QuorumMinimum)
	return nil
}

func (s *AssemblyService) validateCreate(input AssemblyCreateInput) error {
	details := map[string]any{}
	title := utf8.RuneCountInString(strings.TrimSpace(input.Title))
	if title < 5 || title > 200 {
		details["titulo"] = "must be between 5 and 200 characters"
	}
	if utf8.RuneCountInString(strings.TrimSpace(input.Description)) < 10 {
		details["descripcion"] = "must have at least 10 characters"
	}
	if !input.Type.IsValid() {
		details["tipo"] = "must be one of ORDINARIA, EXTRAORDINARIA, EMERGENCIA"
	}
	if !input.ScheduledAt.After(s.now()) {
		details["fecha"] = "must be in the future"
	}
	if utf8.RuneCountInString(strings.TrimSpace(input.Venue)) < 3 {
		details["lugar"] = "must have at least 3 characters"
	}
	if input.DurationMinutes < 30 || input.DurationMinutes > 480 {
		details["duracionEstimada"] = "must be between 30 and 480 minutes"
	}
	if input.QuorumMinimum < 1 || input.QuorumMinimum > 100 {
		details["quorumMinimo"] = "must be between 1 and 100"
	}
	if len(input.Agenda) == 0 {
		details["agenda"] = "must have at least 1 item"
	}
	for i, item := range input.Agenda {
		if utf8.RuneCountInString(strings.TrimSpace(item.Title)) < 3 {
			details[fmt.Sprintf("agenda[%d].titulo", i)] = "must have at least 3 characters"
		}
		if item.EstimatedMinutes != 0 && (item.EstimatedMinutes < 5 || item.EstimatedMinutes > 120) {
			details[fmt.Sprintf("agenda[%d].tiempoEstimado", i)] = "must be between 5 and 120 minutes"
		}
	}
	if len(details) > 0 {
		return apperrors.NewValidationError("validation failed", details)
	}
	return nil
}

func (s *AssemblyService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	event.ID = uuid.NewString()
	event.Timestamp = s.now()
	_ = s.dispatcher.Publish(ctx, event)
}
