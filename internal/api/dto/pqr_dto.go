package dto

import (
	"time"

	"github.com/spec-kit/conjunto-service/internal/domain"
	"github.com/spec-kit/conjunto-service/internal/service"
)

// CreatePQRRequest payload.
type CreatePQRRequest struct {
	Type        domain.PQRType     `json:"tipo" validate:"required"`
	Category    domain.PQRCategory `json:"categoria" validate:"required"`
	Subject     string             `json:"asunto" validate:"required,min=5,max=200"`
	Description string             `json:"descripcion" validate:"required,min=10"`
	Anonymous   bool               `json:"anonimo"`
	PropertyID  *string            `json:"propiedadId"`
	Attachments []string           `json:"adjuntos"`
}

// UpdatePQRRequest partial payload; absent fields stay untouched.
type UpdatePQRRequest struct {
	Status        *domain.PQRStatus   `json:"estado"`
	Priority      *domain.PQRPriority `json:"prioridad"`
	AssigneeID    *string             `json:"responsableId"`
	Response      *string             `json:"respuesta"`
	Notes         *string             `json:"observaciones"`
	Rating        *int                `json:"calificacion" validate:"omitempty,min=1,max=5"`
	RatingComment *string             `json:"comentarioCalificacion"`
}

// PQRResponse full representation.
type PQRResponse struct {
	ID            string             `json:"id"`
	Number        string             `json:"numero"`
	Type          domain.PQRType     `json:"tipo"`
	Category      domain.PQRCategory `json:"categoria"`
	Subject       string             `json:"asunto"`
	Description   string             `json:"descripcion"`
	Status        domain.PQRStatus   `json:"estado"`
	Priority      domain.PQRPriority `json:"prioridad"`
	Anonymous     bool               `json:"anonimo"`
	RequesterID   string             `json:"solicitanteId"`
	AssigneeID    *string            `json:"responsableId"`
	PropertyID    *string            `json:"propiedadId"`
	Response      *string            `json:"respuesta"`
	Notes         *string            `json:"observaciones"`
	Attachments   []string           `json:"adjuntos"`
	Rating        *int               `json:"calificacion"`
	RatingComment *string            `json:"comentarioCalificacion"`
	CreatedAt     time.Time          `json:"fechaCreacion"`
	RespondedAt   *time.Time         `json:"fechaRespuesta"`
	ClosedAt      *time.Time         `json:"fechaCierre"`
	UpdatedAt     time.Time          `json:"fechaActualizacion"`
}

// PQRListResponse page plus tenant-wide lifecycle stats.
type PQRListResponse struct {
	Items []PQRResponse         `json:"items"`
	Total int                   `json:"total"`
	Stats *service.PQRListStats `json:"estadisticas"`
}

// NewPQRResponse maps the domain aggregate. Anonymous requests drop the
// requester reference from the wire shape.
func NewPQRResponse(pqr *domain.PQR) PQRResponse {
	resp := PQRResponse{
		ID:            pqr.ID,
		Number:        pqr.Number,
		Type:          pqr.Type,
		Category:      pqr.Category,
		Subject:       pqr.Subject,
		Description:   pqr.Description,
		Status:        pqr.Status,
		Priority:      pqr.Priority,
		Anonymous:     pqr.Anonymous,
		RequesterID:   pqr.RequesterID,
		AssigneeID:    pqr.AssigneeID,
		PropertyID:    pqr.PropertyID,
		Response:      pqr.Response,
		Notes:         pqr.Notes,
		Attachments:   pqr.Attachments,
		Rating:        pqr.Rating,
		RatingComment: pqr.RatingComment,
		CreatedAt:     pqr.CreatedAt,
		RespondedAt:   pqr.RespondedAt,
		ClosedAt:      pqr.ClosedAt,
		UpdatedAt:     pqr.UpdatedAt,
	}
	if pqr.Anonymous {
		resp.RequesterID = ""
	}
	return resp
}
