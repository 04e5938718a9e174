package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/conjunto-service/internal/api/dto"
	"github.com/spec-kit/conjunto-service/internal/service"
	"github.com/spec-kit/conjunto-service/internal/validation"
	apperrors "github.com/spec-kit/conjunto-service/pkg/util"
)

// ConjuntosHandler manages the SUPER_ADMIN provisioning endpoints.
type ConjuntosHandler struct {
	service *service.TenantService
}

// NewConjuntosHandler constructs handler.
func NewConjuntosHandler(tenantService *service.TenantService) *ConjuntosHandler {
	return &ConjuntosHandler{service: tenantService}
}

// Create POST /admin/conjuntos.
func (h *ConjuntosHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateConjuntoRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := validation.Struct(req); err != nil {
		return err
	}
	conjunto, err := h.service.Provision(c.Context(), service.ProvisionInput{
		Name: req.Name,
		Plan: req.Plan,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.NewConjuntoResponse(conjunto)})
}

// List GET /admin/conjuntos.
func (h *ConjuntosHandler) List(c *fiber.Ctx) error {
	conjuntos, err := h.service.List(c.Context())
	if err != nil {
		return err
	}
	items := make([]dto.ConjuntoResponse, 0, len(conjuntos))
	for i := range conjuntos {
		items = append(items, dto.NewConjuntoResponse(&conjuntos[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Get GET /admin/conjuntos/:tenantId.
func (h *ConjuntosHandler) Get(c *fiber.Ctx) error {
	conjunto, err := h.service.Get(c.Context(), c.Params("tenantId"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewConjuntoResponse(conjunto)})
}

// SetActive PATCH /admin/conjuntos/:tenantId/activation.
func (h *ConjuntosHandler) SetActive(c *fiber.Ctx) error {
	var req dto.SetConjuntoActiveRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := h.service.SetActive(c.Context(), c.Params("tenantId"), req.Active); err != nil {
		return err
	}
	conjunto, err := h.service.Get(c.Context(), c.Params("tenantId"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewConjuntoResponse(conjunto)})
}

// Destroy DELETE /admin/conjuntos/:tenantId. Drops the tenant schema.
func (h *ConjuntosHandler) Destroy(c *fiber.Ctx) error {
	if err := h.service.Destroy(c.Context(), c.Params("tenantId")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
