package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/conjunto-service/internal/api/http/handlers"
	"github.com/spec-kit/conjunto-service/internal/auth"
	"github.com/spec-kit/conjunto-service/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	PQR            *handlers.PQRHandler
	Assemblies     *handlers.AssemblyHandler
	Conjuntos      *handlers.ConjuntosHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.Auth.Register)
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Post("/refresh", cfg.Auth.Refresh)
	authGroup.Post("/logout", cfg.Auth.Logout)
	authGroup.Post("/forgot-password", cfg.Auth.ForgotPassword)
	authGroup.Post("/reset-password", cfg.Auth.ResetPassword)
	authGroup.Post("/verify-email", cfg.Auth.VerifyEmail)

	api := app.Group("/api", cfg.AuthMiddleware.Handle)

	pqr := api.Group("/pqr")
	pqr.Post("/", cfg.PQR.Create)
	pqr.Get("/", cfg.PQR.List)
	pqr.Get("/metrics", auth.RequireRole(domain.RoleAdminConjunto), cfg.PQR.Metrics)
	pqr.Get("/:id", cfg.PQR.Get)
	pqr.Put("/:id", auth.RequireRole(domain.RoleRecepcion), cfg.PQR.Update)
	pqr.Delete("/:id", auth.RequireRole(domain.RoleAdminConjunto), cfg.PQR.Delete)

	asambleas := api.Group("/asambleas")
	asambleas.Post("/", auth.RequireRole(domain.RoleAdminConjunto), cfg.Assemblies.Create)
	asambleas.Get("/", cfg.Assemblies.List)
	asambleas.Get("/:id", cfg.Assemblies.Get)
	asambleas.Put("/:id", auth.RequireRole(domain.RoleAdminConjunto), cfg.Assemblies.Update)
	asambleas.Delete("/:id", auth.RequireRole(domain.RoleAdminConjunto), cfg.Assemblies.Delete)

	admin := app.Group("/admin", cfg.AuthMiddleware.Handle, auth.RequireRole(domain.RoleSuperAdmin))
	admin.Post("/conjuntos", cfg.Conjuntos.Create)
	admin.Get("/conjuntos", cfg.Conjuntos.List)
	admin.Get("/conjuntos/:tenantId", cfg.Conjuntos.Get)
	admin.Patch("/conjuntos/:tenantId/activation", cfg.Conjuntos.SetActive)
	admin.Delete("/conjuntos/:tenantId", cfg.Conjuntos.Destroy)
}
