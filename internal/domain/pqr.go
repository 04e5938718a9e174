package domain

import "time"

// PQRType enumerates the kinds of requests residents can file.
type PQRType string

const (
	PQRTypePeticion   PQRType = "PETICION"
	PQRTypeQueja      PQRType = "QUEJA"
	PQRTypeReclamo    PQRType = "RECLAMO"
	PQRTypeSugerencia PQRType = "SUGERENCIA"
)

// PQRCategory enumerates the domains a request can concern.
type PQRCategory string

const (
	PQRCategoryMantenimiento     PQRCategory = "MANTENIMIENTO"
	PQRCategorySeguridad         PQRCategory = "SEGURIDAD"
	PQRCategoryRuido             PQRCategory = "RUIDO"
	PQRCategoryAseo              PQRCategory = "ASEO"
	PQRCategoryAdministracion    PQRCategory = "ADMINISTRACION"
	PQRCategoryAreasComunes      PQRCategory = "AREAS_COMUNES"
	PQRCategoryServiciosPublicos PQRCategory = "SERVICIOS_PUBLICOS"
	PQRCategoryVecinos           PQRCategory = "VECINOS"
	PQRCategoryOtro              PQRCategory = "OTRO"
)

// PQRStatus enumerates the ordered lifecycle states.
type PQRStatus string

const (
	PQRStatusRecibido  PQRStatus = "RECIBIDO"
	PQRStatusEnProceso PQRStatus = "EN_PROCESO"
	PQRStatusResuelto  PQRStatus = "RESUELTO"
	PQRStatusCerrado   PQRStatus = "CERRADO"
)

// PQRPriority enumerates urgency levels.
type PQRPriority string

const (
	PQRPriorityBaja    PQRPriority = "BAJA"
	PQRPriorityMedia   PQRPriority = "MEDIA"
	PQRPriorityAlta    PQRPriority = "ALTA"
	PQRPriorityUrgente PQRPriority = "URGENTE"
)

// PQR is the aggregate for resident petitions, complaints and claims.
type PQR struct {
	ID            string
	Number        string
	Type          PQRType
	Category      PQRCategory
	Subject       string
	Description   string
	Status        PQRStatus
	Priority      PQRPriority
	Anonymous     bool
	RequesterID   string
	AssigneeID    *string
	PropertyID    *string
	Response      *string
	Notes         *string
	Attachments   []string
	Rating        *int
	RatingComment *string
	CreatedAt     time.Time
	RespondedAt   *time.Time
	ClosedAt      *time.Time
	UpdatedAt     time.Time
}

// IsValid reports whether the value is an enumerated type.
func (t PQRType) IsValid() bool {
	switch t {
	case PQRTypePeticion, PQRTypeQueja, PQRTypeReclamo, PQRTypeSugerencia:
		return true
	}
	return false
}

// IsValid reports whether the value is an enumerated category.
func (c PQRCategory) IsValid() bool {
	switch c {
	case PQRCategoryMantenimiento, PQRCategorySeguridad, PQRCategoryRuido,
		PQRCategoryAseo, PQRCategoryAdministracion, PQRCategoryAreasComunes,
		PQRCategoryServiciosPublicos, PQRCategoryVecinos, PQRCategoryOtro:
		return true
	}
	return false
}

// IsValid reports whether the value is an enumerated status.
func (s PQRStatus) IsValid() bool {
	switch s {
	case PQRStatusRecibido, PQRStatusEnProceso, PQRStatusResuelto, PQRStatusCerrado:
		return true
	}
	return false
}

// IsValid reports whether the value is an enumerated priority.
func (p PQRPriority) IsValid() bool {
	switch p {
	case PQRPriorityBaja, PQRPriorityMedia, PQRPriorityAlta, PQRPriorityUrgente:
		return true
	}
	return false
}
