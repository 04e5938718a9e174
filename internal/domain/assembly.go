package domain

import "time"

// AssemblyType enumerates convocation kinds.
type AssemblyType string

const (
	AssemblyTypeOrdinaria      AssemblyType = "ORDINARIA"
	AssemblyTypeExtraordinaria AssemblyType = "EXTRAORDINARIA"
	AssemblyTypeEmergencia     AssemblyType = "EMERGENCIA"
)

// AssemblyStatus enumerates assembly lifecycle states.
type AssemblyStatus string

const (
	AssemblyStatusProgramada AssemblyStatus = "PROGRAMADA"
	AssemblyStatusEnCurso    AssemblyStatus = "EN_CURSO"
	AssemblyStatusFinalizada AssemblyStatus = "FINALIZADA"
	AssemblyStatusCancelada  AssemblyStatus = "CANCELADA"
)

// AgendaItem is a single ordered point in the assembly agenda.
type AgendaItem struct {
	Title            string `json:"titulo"`
	Description      string `json:"descripcion,omitempty"`
	EstimatedMinutes int    `json:"tiempoEstimado,omitempty"`
	Owner            string `json:"responsable,omitempty"`
}

// Attendance holds the counters used for quorum computation.
type Attendance struct {
	Confirmed int `json:"confirmados"`
	Present   int `json:"presentes"`
	Absent    int `json:"ausentes"`
	Delegated int `json:"delegaciones"`
}

// Assembly is the aggregate for owner assemblies.
type Assembly struct {
	ID              string
	Title           string
	Description     string
	Type            AssemblyType
	ScheduledAt     time.Time
	Venue           string
	DurationMinutes int
	QuorumMinimum   int
	QuorumCurrent   float64
	Status          AssemblyStatus
	Agenda          []AgendaItem
	NoticeDays      int
	NoticeSentAt    *time.Time
	Attendance      Attendance
	QuorumReached   bool
	MinutesSummary  *string
	Notes           *string
	Attachments     []string
	CreatedBy       string
	CreatedAt       time.Time
	StartedAt       *time.Time
	EndedAt         *time.Time
	UpdatedAt       time.Time
}

// IsValid reports whether the value is an enumerated assembly type.
func (t AssemblyType) IsValid() bool {
	switch t {
	case AssemblyTypeOrdinaria, AssemblyTypeExtraordinaria, AssemblyTypeEmergencia:
		return true
	}
	return false
}

// IsValid reports whether the value is an enumerated assembly status.
func (s AssemblyStatus) IsValid() bool {
	switch s {
	case AssemblyStatusProgramada, AssemblyStatusEnCurso, AssemblyStatusFinalizada, AssemblyStatusCancelada:
		return true
	}
	return false
}
