package auth

import (
	"strings"

	"github.com/spec-kit/conjunto-service/internal/domain"
)

// roleHierarchy ranks roles by an integer level; a higher-ranked role
// satisfies every lower requirement.
var roleHierarchy = map[domain.Role]int{
	domain.RoleSuperAdmin:    100,
	domain.RoleAdminConjunto: 80,
	domain.RolePropietario:   60,
	domain.RoleResidente:     40,
	domain.RoleRecepcion:     30,
	domain.RoleVigilancia:    20,
	domain.RoleMantenimiento: 10,
}

// HasPermission reports whether userRole meets or exceeds requiredRole.
func HasPermission(userRole, requiredRole domain.Role) bool {
	return roleHierarchy[userRole] >= roleHierarchy[requiredRole]
}

// CanAccessTenant enforces tenant scoping. SUPER_ADMIN is tenant-unscoped by
// design; every other role requires exact tenant equality, never inferred
// from hierarchy.
func CanAccessTenant(role domain.Role, userTenantID *string, tenantID string) bool {
	if role == domain.RoleSuperAdmin {
		return true
	}
	return userTenantID != nil && *userTenantID == tenantID
}

// Capability is one (resource, action) pair. ActionWildcard grants every
// action on the resource.
type Capability struct {
	Resource string
	Action   string
}

// ActionWildcard matches any action on a resource.
const ActionWildcard = "*"

var roleCapabilities = map[domain.Role]map[Capability]struct{}{
	domain.RoleSuperAdmin: capabilitySet(
		"conjuntos:*", "usuarios:*", "sistema:*", "reportes:*",
	),
	domain.RoleAdminConjunto: capabilitySet(
		"propiedades:*", "residentes:*", "asambleas:*", "finanzas:*",
		"pqr:*", "servicios:*", "reportes:conjunto",
	),
	domain.RolePropietario: capabilitySet(
		"propiedades:read", "propiedades:update:own", "finanzas:read:own",
		"asambleas:participate", "servicios:reserve", "pqr:create", "pqr:read:own",
	),
	domain.RoleResidente: capabilitySet(
		"propiedades:read:own", "servicios:reserve", "pqr:create",
		"pqr:read:own", "asambleas:view",
	),
	domain.RoleRecepcion: capabilitySet(
		"visitantes:*", "correspondencia:*", "pqr:read", "pqr:update:assigned",
	),
	domain.RoleVigilancia: capabilitySet(
		"visitantes:*", "incidentes:*", "minutas:*", "pqr:read",
	),
	domain.RoleMantenimiento: capabilitySet(
		"pqr:read:maintenance", "pqr:update:maintenance", "servicios:read",
	),
}

// HasCapability checks a specific `resource:action` permission: exact match
// first, then the resource's wildcard form.
func HasCapability(role domain.Role, permission string) bool {
	caps, ok := roleCapabilities[role]
	if !ok {
		return false
	}
	resource, action, found := strings.Cut(permission, ":")
	if !found {
		return false
	}
	if _, ok := caps[Capability{Resource: resource, Action: action}]; ok {
		return true
	}
	_, ok = caps[Capability{Resource: resource, Action: ActionWildcard}]
	return ok
}

func capabilitySet(permissions ...string) map[Capability]struct{} {
	set := make(map[Capability]struct{}, len(permissions))
	for _, p := range permissions {
		resource, action, found := strings.Cut(p, ":")
		if !found {
			continue
		}
		set[Capability{Resource: resource, Action: action}] = struct{}{}
	}
	return set
}
