package domain

import "time"

// PlanTier enumerates subscription plans for a conjunto.
type PlanTier string

const (
	PlanBasico   PlanTier = "BASICO"
	PlanEstandar PlanTier = "ESTANDAR"
	PlanPremium  PlanTier = "PREMIUM"
)

// Conjunto is one residential complex, the unit of tenancy. Rows live in the
// public schema; all other aggregates live inside the tenant's own schema.
type Conjunto struct {
	ID        string
	Name      string
	TenantID  string
	Plan      PlanTier
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsValid reports whether the value is an enumerated plan.
func (p PlanTier) IsValid() bool {
	switch p {
	case PlanBasico, PlanEstandar, PlanPremium:
		return true
	}
	return false
}
