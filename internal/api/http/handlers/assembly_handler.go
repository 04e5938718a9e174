package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/conjunto-service/internal/api/dto"
	"github.com/spec-kit/conjunto-service/internal/domain"
	"github.com/spec-kit/conjunto-service/internal/service"
	"github.com/spec-kit/conjunto-service/internal/validation"
	apperrors "github.com/spec-kit/conjunto-service/pkg/util"
)

// AssemblyHandler manages tenant-scoped assembly endpoints.
type AssemblyHandler struct {
	service *service.AssemblyService
}

// NewAssemblyHandler constructs handler.
func NewAssemblyHandler(assemblyService *service.AssemblyService) *AssemblyHandler {
	return &AssemblyHandler{service: assemblyService}
}

// Create POST /api/asambleas.
func (h *AssemblyHandler) Create(c *fiber.Ctx) error {
	principal, tenantID, err := requireTenant(c)
	if err != nil {
		return err
	}
	var req dto.CreateAssemblyRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := validation.Struct(req); err != nil {
		return err
	}
	assembly, err := h.service.Create(c.Context(), tenantID, principal.UserID, service.AssemblyCreateInput{
		Title:           req.Title,
		Description:     req.Description,
		Type:            req.Type,
		ScheduledAt:     req.ScheduledAt,
		Venue:           req.Venue,
		DurationMinutes: req.DurationMinutes,
		QuorumMinimum:   req.QuorumMinimum,
		Agenda:          req.Agenda,
		NoticeDays:      req.NoticeDays,
		Attachments:     req.Attachments,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.NewAssemblyResponse(assembly)})
}

// List GET /api/asambleas.
func (h *AssemblyHandler) List(c *fiber.Ctx) error {
	_, tenantID, err := requireTenant(c)
	if err != nil {
		return err
	}
	input := service.AssemblyListInput{}
	if v := c.Query("estado"); v != "" {
		status := domain.AssemblyStatus(v)
		input.Status = &status
	}
	if v := c.Query("tipo"); v != "" {
		typ := domain.AssemblyType(v)
		input.Type = &typ
	}
	if from := parseTime(c.Query("fechaDesde")); from != nil {
		input.DateFrom = from
	}
	if to := parseTime(c.Query("fechaHasta")); to != nil {
		input.DateTo = to
	}
	if v := c.Query("search"); v != "" {
		input.Search = &v
	}
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("pageSize"), 10)
	input.Offset = (page - 1) * pageSize
	input.Limit = pageSize

	items, total, stats, err := h.service.List(c.Context(), tenantID, input)
	if err != nil {
		return err
	}
	resp := dto.AssemblyListResponse{
		Items: make([]dto.AssemblyResponse, 0, len(items)),
		Total: total,
		Stats: stats,
	}
	for i := range items {
		resp.Items = append(resp.Items, dto.NewAssemblyResponse(&items[i]))
	}
	return c.JSON(fiber.Map{"data": resp})
}

// Get GET /api/asambleas/:id.
func (h *AssemblyHandler) Get(c *fiber.Ctx) error {
	_, tenantID, err := requireTenant(c)
	if err != nil {
		return err
	}
	assembly, err := h.service.Get(c.Context(), tenantID, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewAssemblyResponse(assembly)})
}

// Update PUT /api/asambleas/:id.
func (h *AssemblyHandler) Update(c *fiber.Ctx) error {
	principal, tenantID, err := requireTenant(c)
	if err != nil {
		return err
	}
	var req dto.UpdateAssemblyRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := validation.Struct(req); err != nil {
		return err
	}
	assembly, err := h.service.Update(c.Context(), tenantID, principal.UserID, c.Params("id"), service.AssemblyUpdateInput{
		Title:          req.Title,
		Description:    req.Description,
		Type:           req.Type,
		ScheduledAt:    req.ScheduledAt,
		Venue:          req.Venue,
		DurationMins:   req.DurationMins,
		QuorumMinimum:  req.QuorumMinimum,
		Agenda:         req.Agenda,
		Status:         req.Status,
		Attendance:     req.Attendance,
		Notes:          req.Notes,
		MinutesSummary: req.MinutesSummary,
		SendNotice:     req.SendNotice,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewAssemblyResponse(assembly)})
}

// Delete DELETE /api/asambleas/:id.
func (h *AssemblyHandler) Delete(c *fiber.Ctx) error {
	_, tenantID, err := requireTenant(c)
	if err != nil {
		return err
	}
	if err := h.service.Delete(c.Context(), tenantID, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
