package events

import (
	"time"

	"github.com/spec-kit/conjunto-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventPQRCreated          EventType = "pqr_created"
	EventPQRStatusChanged    EventType = "pqr_status_changed"
	EventPQRDeleted          EventType = "pqr_deleted"
	EventAssemblyScheduled   EventType = "assembly_scheduled"
	EventAssemblyTransition  EventType = "assembly_transition"
	EventPasswordResetIssued EventType = "password_reset_issued"
	EventEmailVerifyIssued   EventType = "email_verification_issued"
	EventTenantProvisioned   EventType = "tenant_provisioned"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TenantID  string      `json:"tenant_id,omitempty"`
	EntityID  string      `json:"entity_id"`
	ActorID   string      `json:"actor_id,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// PQRCreatedPayload payload.
type PQRCreatedPayload struct {
	Number     string             `json:"numero"`
	Type       domain.PQRType     `json:"tipo"`
	Category   domain.PQRCategory `json:"categoria"`
	Priority   domain.PQRPriority `json:"prioridad"`
	AssigneeID *string            `json:"responsableId,omitempty"`
	Subject    string             `json:"asunto"`
}

// PQRStatusChangedPayload payload.
type PQRStatusChangedPayload struct {
	OldStatus domain.PQRStatus `json:"estadoAnterior"`
	NewStatus domain.PQRStatus `json:"estadoNuevo"`
}

// AssemblyTransitionPayload payload.
type AssemblyTransitionPayload struct {
	OldStatus     domain.AssemblyStatus `json:"estadoAnterior"`
	NewStatus     domain.AssemblyStatus `json:"estadoNuevo"`
	QuorumReached bool                  `json:"quorumAlcanzado"`
}

// TokenIssuedPayload carries single-purpose tokens to the notification stub,
// which logs them instead of emailing.
type TokenIssuedPayload struct {
	Email string `json:"email"`
	Token string `json:"token"`
}

// TenantProvisionedPayload payload.
type TenantProvisionedPayload struct {
	TenantID string          `json:"tenantId"`
	Name     string          `json:"nombre"`
	Plan     domain.PlanTier `json:"plan"`
}
