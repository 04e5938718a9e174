package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/conjunto-service/internal/domain"
	apperrors "github.com/spec-kit/conjunto-service/pkg/util"
)

const principalKey = "auth_principal"

// AccessTokenCookie is the http-only cookie fallback for browser sessions.
const AccessTokenCookie = "auth-token"

// AuthMiddleware validates bearer tokens (or the session cookie) and loads
// the caller's claims.
type AuthMiddleware struct {
	tokens *TokenManager
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(tokens *TokenManager) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens}
}

// Handle enforces authentication for protected routes.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	token := bearerToken(c)
	if token == "" {
		token = c.Cookies(AccessTokenCookie)
	}
	if token == "" {
		return apperrors.NewUnauthorized("missing credentials")
	}

	claims := m.tokens.VerifyAccessToken(token)
	if claims == nil {
		return apperrors.NewUnauthorized("invalid or expired token")
	}

	c.Locals(principalKey, claims)
	return c.Next()
}

// PrincipalFromContext retrieves the authenticated caller's claims.
func PrincipalFromContext(c *fiber.Ctx) (*AccessClaims, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	claims, ok := val.(*AccessClaims)
	return claims, ok
}

// RequireRole ensures the caller's role meets the required level.
func RequireRole(required domain.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, ok := PrincipalFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if !HasPermission(claims.Role, required) {
			return apperrors.NewForbidden("insufficient role")
		}
		return c.Next()
	}
}

// ResolveTenant decides which tenant partition a request targets. Regular
// roles are pinned to the tenant in their claims; SUPER_ADMIN may pick any
// tenant via the X-Tenant-ID header.
func ResolveTenant(c *fiber.Ctx) (string, error) {
	claims, ok := PrincipalFromContext(c)
	if !ok {
		return "", apperrors.NewUnauthorized("authentication required")
	}
	if claims.Role == domain.RoleSuperAdmin {
		if header := strings.TrimSpace(c.Get("X-Tenant-ID")); header != "" {
			return header, nil
		}
	}
	if claims.TenantID == nil || *claims.TenantID == "" {
		return "", apperrors.NewForbidden("no tenant assigned")
	}
	return *claims.TenantID, nil
}

func bearerToken(c *fiber.Ctx) string {
	header := c.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}
