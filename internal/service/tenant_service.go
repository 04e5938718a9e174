package service

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/spec-kit/conjunto-service/internal/domain"
	"github.com/spec-kit/conjunto-service/internal/events"
	"github.com/spec-kit/conjunto-service/internal/repository"
	"github.com/spec-kit/conjunto-service/internal/tenancy"
	apperrors "github.com/spec-kit/conjunto-service/pkg/util"
)

// SchemaManager is the slice of the tenant registry the provisioning flow
// needs.
type SchemaManager interface {
	CreateSchema(ctx context.Context, tenantID string) error
	DropSchema(ctx context.Context, tenantID string) error
	SchemaExists(ctx context.Context, tenantID string) (bool, error)
}

// TenantService provisions and administers conjuntos.
type TenantService struct {
	conjuntos  repository.ConjuntoRepository
	schemas    SchemaManager
	idPrefix   string
	dispatcher events.Dispatcher
	now        func() time.Time
}

// TenantDependencies bundles collaborators for the tenant service.
type TenantDependencies struct {
	ConjuntoRepo repository.ConjuntoRepository
	Schemas      SchemaManager
	IDPrefix     string
	Dispatcher   events.Dispatcher
}

// ProvisionInput describes the new-conjunto payload.
type ProvisionInput struct {
	Name string
	Plan domain.PlanTier
}

// NewTenantService constructs the service.
func NewTenantService(deps TenantDependencies) *TenantService {
	return &TenantService{
		conjuntos:  deps.ConjuntoRepo,
		schemas:    deps.Schemas,
		idPrefix:   deps.IDPrefix,
		dispatcher: deps.Dispatcher,
		now:        time.Now,
	}
}

// Provision assigns the next tenant id, registers the conjunto and creates
// its schema with migrations applied.
func (s *TenantService) Provision(ctx context.Context, input ProvisionInput) (*domain.Conjunto, error) {
	name := strings.TrimSpace(input.Name)
	plan := input.Plan
	if plan == "" {
		plan = domain.PlanBasico
	}
	details := map[string]any{}
	if utf8.RuneCountInString(name) < 3 {
		details["nombre"] = "must have at least 3 characters"
	}
	if !plan.IsValid() {
		details["plan"] = "must be one of BASICO, ESTANDAR, PREMIUM"
	}
	if len(details) > 0 {
		return nil, apperrors.NewValidationError("validation failed", details)
	}

	latest, err := s.conjuntos.GetLatest(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	lastID := ""
	if latest != nil {
		lastID = latest.TenantID
	}
	tenantID, err := tenancy.NextTenantID(s.idPrefix, lastID)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	conjunto := &domain.Conjunto{
		Name:     name,
		TenantID: tenantID,
		Plan:     plan,
		Active:   true,
	}
	if err := s.conjuntos.Create(ctx, conjunto); err != nil {
		return nil, apperrors.MapError(err)
	}
	if err := s.schemas.CreateSchema(ctx, tenantID); err != nil {
		// Roll the registry row back so a failed provisioning leaves no
		// orphan tenant.
		_ = s.conjuntos.Delete(ctx, tenantID)
		return nil, err
	}

	s.publish(ctx, events.Event{
		Type:     events.EventTenantProvisioned,
		TenantID: tenantID,
		EntityID: conjunto.ID,
		Payload: events.TenantProvisionedPayload{
			TenantID: tenantID,
			Name:     conjunto.Name,
			Plan:     conjunto.Plan,
		},
	})
	return conjunto, nil
}

// Get returns one conjunto by tenant id.
func (s *TenantService) Get(ctx context.Context, tenantID string) (*domain.Conjunto, error) {
	if err := tenancy.ValidateTenantID(tenantID); err != nil {
		return nil, err
	}
	conjunto, err := s.conjuntos.GetByTenantID(ctx, tenantID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return conjunto, nil
}

// List returns all registered conjuntos ordered by tenant id.
func (s *TenantService) List(ctx context.Context) ([]domain.Conjunto, error) {
	return s.conjuntos.List(ctx)
}

// SetActive toggles a conjunto; inactive tenants cannot log in.
func (s *TenantService) SetActive(ctx context.Context, tenantID string, active bool) error {
	if err := tenancy.ValidateTenantID(tenantID); err != nil {
		return err
	}
	if err := s.conjuntos.SetActive(ctx, tenantID, active); err != nil {
		return apperrors.MapError(err)
	}
	return nil
}

// Destroy drops the tenant schema and removes the registry row. Irreversible.
func (s *TenantService) Destroy(ctx context.Context, tenantID string) error {
	if err := tenancy.ValidateTenantID(tenantID); err != nil {
		return err
	}
	if _, err := s.conjuntos.GetByTenantID(ctx, tenantID); err != nil {
		return apperrors.MapError(err)
	}
	if err := s.schemas.DropSchema(ctx, tenantID); err != nil {
		return err
	}
	if err := s.conjuntos.Delete(ctx, tenantID); err != nil {
		return apperrors.MapError(err)
	}
	return nil
}

func (s *TenantService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	event.ID = uuid.NewString()
	event.Timestamp = s.now()
	_ = s.dispatcher.Publish(ctx, event)
}
