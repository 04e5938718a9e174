package service

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/spec-kit/conjunto-service/internal/domain"
	"github.com/spec-kit/conjunto-service/internal/events"
	"github.com/spec-kit/conjunto-service/internal/repository"
	apperrors "github.com/spec-kit/conjunto-service/pkg/util"
)

// PQRService coordinates the request/complaint/claim workflow per tenant.
type PQRService struct {
	repos      repository.TenantRepositories
	dispatcher events.Dispatcher
	cache      MetricsCache
	strict     bool
	now        func() time.Time
}

// PQRDependencies bundles collaborators for the PQR service.
type PQRDependencies struct {
	Repos             repository.TenantRepositories
	Dispatcher        events.Dispatcher
	MetricsCache      MetricsCache
	StrictTransitions bool
}

// PQRCreateInput describes ticket creation payload.
type PQRCreateInput struct {
	Type        domain.PQRType
	Category    domain.PQRCategory
	Subject     string
	Description string
	Anonymous   bool
	PropertyID  *string
	Attachments []string
}

// PQRUpdateInput describes a partial update; nil fields are left untouched.
type PQRUpdateInput struct {
	Status        *domain.PQRStatus
	Priority      *domain.PQRPriority
	AssigneeID    *string
	Response      *string
	Notes         *string
	Rating        *int
	RatingComment *string
}

// PQRListInput describes listing filters.
type PQRListInput struct {
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

// PQRListStats summarizes the lifecycle distribution shown next to listings.
type PQRListStats struct {
	Total     int `json:"total"`
	Recibidos int `json:"recibidos"`
	EnProceso int `json:"enProceso"`
	Resueltos int `json:"resueltos"`
	Cerrados  int `json:"cerrados"`
}

// NewPQRService constructs the service.
func NewPQRService(deps PQRDependencies) *PQRService {
	return &PQRService{
		repos:      deps.Repos,
		dispatcher: deps.Dispatcher,
		cache:      deps.MetricsCache,
		strict:     deps.StrictTransitions,
		now:        time.Now,
	}
}

// triagePriority applies the intake rules in order; the first match wins.
func triagePriority(t domain.PQRType, c domain.PQRCategory) domain.PQRPriority {
	switch {
	case t == domain.PQRTypeReclamo && c == domain.PQRCategoryMantenimiento:
		return domain.PQRPriorityUrgente
	case c == domain.PQRCategorySeguridad || c == domain.PQRCategoryServiciosPublicos:
		return domain.PQRPriorityAlta
	case t == domain.PQRTypeQueja:
		return domain.PQRPriorityMedia
	default:
		return domain.PQRPriorityBaja
	}
}

// triageAssignees routes categories to the responsible role account.
// VECINOS and OTRO have no entry on purpose: those stay unassigned.
var triageAssignees = map[domain.PQRCategory]string{
	domain.PQRCategoryMantenimiento:     "admin-maintenance",
	domain.PQRCategorySeguridad:         "admin-security",
	domain.PQRCategoryAseo:              "admin-cleaning",
	domain.PQRCategoryAdministracion:    "admin-general",
	domain.PQRCategoryAreasComunes:      "admin-maintenance",
	domain.PQRCategoryServiciosPublicos: "admin-services",
}

// Linear forward lifecycle, enforced only in strict mode.
var allowedPQRTransitions = map[domain.PQRStatus][]domain.PQRStatus{
	domain.PQRStatusRecibido:  {domain.PQRStatusEnProceso},
	domain.PQRStatusEnProceso: {domain.PQRStatusResuelto},
	domain.PQRStatusResuelto:  {domain.PQRStatusCerrado},
	domain.PQRStatusCerrado:   {},
}

// Create files a new PQR, triages priority and assignee, and numbers it.
func (s *PQRService) Create(ctx context.Context, tenantID, requesterID string, input PQRCreateInput) (*domain.PQR, error) {
	if err := validatePQRCreate(input); err != nil {
		return nil, err
	}
	repo, err := s.repos.PQRs(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	count, err := repo.Count(ctx)
	if err != nil {
		return nil, err
	}
	now := s.now()
	number := fmt.Sprintf("PQR-%d-%03d", now.Year(), count+1)

	pqr := &domain.PQR{
		Number:      number,
		Type:        input.Type,
		Category:    input.Category,
		Subject:     strings.TrimSpace(input.Subject),
		Description: strings.TrimSpace(input.Description),
		Status:      domain.PQRStatusRecibido,
		Priority:    triagePriority(input.Type, input.Category),
		Anonymous:   input.Anonymous,
		RequesterID: requesterID,
		PropertyID:  input.PropertyID,
		Attachments: input.Attachments,
	}
	if assignee, ok := triageAssignees[input.Category]; ok {
		pqr.AssigneeID = &assignee
	}

	if err := repo.Create(ctx, pqr); err != nil {
		return nil, err
	}
	s.publishEvent(ctx, events.Event{
		Type:     events.EventPQRCreated,
		TenantID: tenantID,
		EntityID: pqr.ID,
		ActorID:  requesterID,
		Payload: events.PQRCreatedPayload{
			Number:     pqr.Number,
			Type:       pqr.Type,
			Category:   pqr.Category,
			Priority:   pqr.Priority,
			AssigneeID: pqr.AssigneeID,
			Subject:    pqr.Subject,
		},
	})
	return pqr, nil
}

// Get fetches a single PQR within the tenant.
func (s *PQRService) Get(ctx context.Context, tenantID, id string) (*domain.PQR, error) {
	repo, err := s.repos.PQRs(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	pqr, err := repo.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return pqr, nil
}

// Update applies a partial update, enforcing lifecycle rules and the
// idempotent timestamp side effects.
func (s *PQRService) Update(ctx context.Context, tenantID, actorID, id string, input PQRUpdateInput) (*domain.PQR, error) {
	if err := validatePQRUpdate(input); err != nil {
		return nil, err
	}
	repo, err := s.repos.PQRs(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	pqr, err := repo.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	oldStatus := pqr.Status
	if input.Status != nil && *input.Status != pqr.Status {
		if s.strict && !transitionAllowed(pqr.Status, *input.Status) {
			return nil, apperrors.NewBusinessRuleError(fmt.Sprintf(
				"transition %s -> %s is not allowed", pqr.Status, *input.Status))
		}
		pqr.Status = *input.Status
	}
	if input.Priority != nil {
		pqr.Priority = *input.Priority
	}
	if input.AssigneeID != nil {
		pqr.AssigneeID = input.AssigneeID
	}
	if input.Response != nil {
		pqr.Response = input.Response
	}
	if input.Notes != nil {
		pqr.Notes = input.Notes
	}
	if input.Rating != nil {
		pqr.Rating = input.Rating
	}
	if input.RatingComment != nil {
		pqr.RatingComment = input.RatingComment
	}

	now := s.now()
	// Only a status-carrying update stamps the response time; adding a
	// respuesta to an already resolved ticket does not.
	if input.Status != nil && pqr.Status == domain.PQRStatusResuelto && pqr.RespondedAt == nil &&
		pqr.Response != nil && strings.TrimSpace(*pqr.Response) != "" {
		pqr.RespondedAt = &now
	}
	if pqr.Status == domain.PQRStatusCerrado && pqr.ClosedAt == nil {
		pqr.ClosedAt = &now
	}

	if err := repo.Update(ctx, pqr); err != nil {
		return nil, apperrors.MapError(err)
	}
	if oldStatus != pqr.Status {
		s.publishEvent(ctx, events.Event{
			Type:     events.EventPQRStatusChanged,
			TenantID: tenantID,
			EntityID: pqr.ID,
			ActorID:  actorID,
			Payload: events.PQRStatusChangedPayload{
				OldStatus: oldStatus,
				NewStatus: pqr.Status,
			},
		})
	}
	return pqr, nil
}

// Delete removes a PQR that is still in intake.
func (s *PQRService) Delete(ctx context.Context, tenantID, actorID, id string) error {
	repo, err := s.repos.PQRs(ctx, tenantID)
	if err != nil {
		return err
	}
	pqr, err := repo.GetByID(ctx, id)
	if err != nil {
		return apperrors.MapError(err)
	}
	if pqr.Status != domain.PQRStatusRecibido {
		return apperrors.NewBusinessRuleError("only requests still in intake can be deleted")
	}
	if err := repo.Delete(ctx, id); err != nil {
		return apperrors.MapError(err)
	}
	s.publishEvent(ctx, events.Event{
		Type:     events.EventPQRDeleted,
		TenantID: tenantID,
		EntityID: pqr.ID,
		ActorID:  actorID,
	})
	return nil
}

// List returns a filtered page plus the tenant-wide lifecycle stats.
func (s *PQRService) List(ctx context.Context, tenantID string, input PQRListInput) ([]domain.PQR, int, *PQRListStats, error) {
	repo, err := s.repos.PQRs(ctx, tenantID)
	if err != nil {
		return nil, 0, nil, err
	}
	items, total, err := repo.ListWithFilter(ctx, repository.PQRFilter{
		Status:      input.Status,
		Category:    input.Category,
		Type:        input.Type,
		Priority:    input.Priority,
		RequesterID: input.RequesterID,
		AssigneeID:  input.AssigneeID,
		Search:      input.Search,
		CreatedFrom: input.CreatedFrom,
		CreatedTo:   input.CreatedTo,
		Limit:       input.Limit,
		Offset:      input.Offset,
	})
	if err != nil {
		return nil, 0, nil, err
	}
	counts, err := repo.CountsByStatus(ctx)
	if err != nil {
		return nil, 0, nil, err
	}
	stats := &PQRListStats{
		Recibidos: counts[domain.PQRStatusRecibido],
		EnProceso: counts[domain.PQRStatusEnProceso],
		Resueltos: counts[domain.PQRStatusResuelto],
		Cerrados:  counts[domain.PQRStatusCerrado],
	}
	stats.Total = stats.Recibidos + stats.EnProceso + stats.Resueltos + stats.Cerrados
	return items, total, stats, nil
}

func (s *PQRService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	event.ID = uuid.NewString()
	event.Timestamp = s.now()
	_ = s.dispatcher.Publish(ctx, event)
}

func transitionAllowed(from, to domain.PQRStatus) bool {
	for _, next := range allowedPQRTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func validatePQRCreate(input PQRCreateInput) error {
	details := map[string]any{}
	if !input.Type.IsValid() {
		details["tipo"] = "must be one of PETICION, QUEJA, RECLAMO, SUGERENCIA"
	}
	if !input.Category.IsValid() {
		details["categoria"] = "is not a recognized category"
	}
	subject := utf8.RuneCountInString(strings.TrimSpace(input.Subject))
	if subject < 5 || subject > 200 {
		details["asunto"] = "must be between 5 and 200 characters"
	}
	if utf8.RuneCountInString(strings.TrimSpace(input.Description)) < 10 {
		details["descripcion"] = "must have at least 10 characters"
	}
	if len(details) > 0 {
		return apperrors.NewValidationError("validation failed", details)
	}
	return nil
}

func validatePQRUpdate(input PQRUpdateInput) error {
	details := map[string]any{}
	if input.Status != nil && !input.Status.IsValid() {
		details["estado"] = "is not a recognized status"
	}
	if input.Priority != nil && !input.Priority.IsValid() {
		details["prioridad"] = "is not a recognized priority"
	}
	if input.Rating != nil && (*input.Rating < 1 || *input.Rating > 5) {
		details["calificacion"] = "must be between 1 and 5"
	}
	if len(details) > 0 {
		return apperrors.NewValidationError("validation failed", details)
	}
	return nil
}
