package dto

import (
	"time"

	"github.com/spec-kit/conjunto-service/internal/domain"
)

// CreateConjuntoRequest payload.
type CreateConjuntoRequest struct {
	Name string          `json:"nombre" validate:"required,min=3"`
	Plan domain.PlanTier `json:"plan"`
}

// SetConjuntoActiveRequest payload.
type SetConjuntoActiveRequest struct {
	Active bool `json:"activo"`
}

// ConjuntoResponse wire shape.
type ConjuntoResponse struct {
	ID        string          `json:"id"`
	Name      string          `json:"nombre"`
	TenantID  string          `json:"tenantId"`
	Plan      domain.PlanTier `json:"plan"`
	Active    bool            `json:"activo"`
	CreatedAt time.Time       `json:"fechaCreacion"`
}

// NewConjuntoResponse maps the registry row.
func NewConjuntoResponse(conjunto *domain.Conjunto) ConjuntoResponse {
	return ConjuntoResponse{
		ID:        conjunto.ID,
		Name:      conjunto.Name,
		TenantID:  conjunto.TenantID,
		Plan:      conjunto.Plan,
		Active:    conjunto.Active,
		CreatedAt: conjunto.CreatedAt,
	}
}
