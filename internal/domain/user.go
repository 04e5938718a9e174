package domain

import "time"

// Role enumerates user roles ordered by privilege.
type Role string

const (
	RoleSuperAdmin    Role = "SUPER_ADMIN"
	RoleAdminConjunto Role = "ADMIN_CONJUNTO"
	RolePropietario   Role = "PROPIETARIO"
	RoleResidente     Role = "RESIDENTE"
	RoleRecepcion     Role = "RECEPCION"
	RoleVigilancia    Role = "VIGILANCIA"
	RoleMantenimiento Role = "MANTENIMIENTO"
)

// User is the domain model for authenticated accounts.
type User struct {
	ID            string
	Email         string
	PasswordHash  string
	FullName      string
	Role          Role
	ConjuntoID    *string
	TenantID      *string
	Active        bool
	EmailVerified bool
	LastLoginAt   *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// IsValid reports whether the value is an enumerated role.
func (r Role) IsValid() bool {
	switch r {
	case RoleSuperAdmin, RoleAdminConjunto, RolePropietario, RoleResidente,
		RoleRecepcion, RoleVigilancia, RoleMantenimiento:
		return true
	}
	return false
}
