package dto

import (
	"time"

	"github.com/spec-kit/conjunto-service/internal/domain"
	"github.com/spec-kit/conjunto-service/internal/service"
)

// CreateAssemblyRequest payload.
type CreateAssemblyRequest struct {
	Title           string              `json:"titulo" validate:"required,min=5,max=200"`
	Description     string              `json:"descripcion" validate:"required,min=10"`
	Type            domain.AssemblyType `json:"tipo" validate:"required"`
	ScheduledAt     time.Time           `json:"fecha" validate:"required"`
	Venue           string              `json:"lugar" validate:"required,min=3"`
	DurationMinutes int                 `json:"duracionEstimada" validate:"required,min=30,max=480"`
	QuorumMinimum   int                 `json:"quorumMinimo" validate:"required,min=1,max=100"`
	Agenda          []domain.AgendaItem `json:"agenda" validate:"required,min=1"`
	NoticeDays      int                 `json:"diasAviso"`
	Attachments     []string            `json:"adjuntos"`
}

// UpdateAssemblyRequest partial payload; absent fields stay untouched.
type UpdateAssemblyRequest struct {
	Title          *string                `json:"titulo" validate:"omitempty,min=5,max=200"`
	Description    *string                `json:"descripcion" validate:"omitempty,min=10"`
	Type           *domain.AssemblyType   `json:"tipo"`
	ScheduledAt    *time.Time             `json:"fecha"`
	Venue          *string                `json:"lugar" validate:"omitempty,min=3"`
	DurationMins   *int                   `json:"duracionEstimada" validate:"omitempty,min=30,max=480"`
	QuorumMinimum  *int                   `json:"quorumMinimo" validate:"omitempty,min=1,max=100"`
	Agenda         []domain.AgendaItem    `json:"agenda"`
	Status         *domain.AssemblyStatus `json:"estado"`
	Attendance     *domain.Attendance     `json:"asistencia"`
	Notes          *string                `json:"observaciones"`
	MinutesSummary *string                `json:"actaResumen"`
	SendNotice     bool                   `json:"enviarAviso"`
}

// AssemblyResponse full representation.
type AssemblyResponse struct {
	ID              string                `json:"id"`
	Title           string                `json:"titulo"`
	Description     string                `json:"descripcion"`
	Type            domain.AssemblyType   `json:"tipo"`
	Status          domain.AssemblyStatus `json:"estado"`
	ScheduledAt     time.Time             `json:"fecha"`
	Venue           string                `json:"lugar"`
	DurationMinutes int                   `json:"duracionEstimada"`
	QuorumMinimum   int                   `json:"quorumMinimo"`
	QuorumCurrent   float64               `json:"quorumActual"`
	QuorumReached   bool                  `json:"quorumAlcanzado"`
	Agenda          []domain.AgendaItem   `json:"agenda"`
	Attendance      domain.Attendance     `json:"asistencia"`
	NoticeDays      int                   `json:"diasAviso"`
	NoticeSentAt    *time.Time            `json:"fechaAviso"`
	MinutesSummary  *string               `json:"actaResumen"`
	Notes           *string               `json:"observaciones"`
	Attachments     []string              `json:"adjuntos"`
	CreatedBy       string                `json:"creadoPor"`
	StartedAt       *time.Time            `json:"fechaInicio"`
	EndedAt         *time.Time            `json:"fechaFin"`
	CreatedAt       time.Time             `json:"fechaCreacion"`
	UpdatedAt       time.Time             `json:"fechaActualizacion"`
}

// AssemblyListResponse page plus schedule stats.
type AssemblyListResponse struct {
	Items []AssemblyResponse         `json:"items"`
	Total int                        `json:"total"`
	Stats *service.AssemblyListStats `json:"estadisticas"`
}

// NewAssemblyResponse maps the domain aggregate.
func NewAssemblyResponse(assembly *domain.Assembly) AssemblyResponse {
	return AssemblyResponse{
		ID:              assembly.ID,
		Title:           assembly.Title,
		Description:     assembly.Description,
		Type:            assembly.Type,
		Status:          assembly.Status,
		ScheduledAt:     assembly.ScheduledAt,
		Venue:           assembly.Venue,
		DurationMinutes: assembly.DurationMinutes,
		QuorumMinimum:   assembly.QuorumMinimum,
		QuorumCurrent:   assembly.QuorumCurrent,
		QuorumReached:   assembly.QuorumReached,
		Agenda:          assembly.Agenda,
		Attendance:      assembly.Attendance,
		NoticeDays:      assembly.NoticeDays,
		NoticeSentAt:    assembly.NoticeSentAt,
		MinutesSummary:  assembly.MinutesSummary,
		Notes:           assembly.Notes,
		Attachments:     assembly.Attachments,
		CreatedBy:       assembly.CreatedBy,
		StartedAt:       assembly.StartedAt,
		EndedAt:         assembly.EndedAt,
		CreatedAt:       assembly.CreatedAt,
		UpdatedAt:       assembly.UpdatedAt,
	}
}
