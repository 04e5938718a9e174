package handlers

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/conjunto-service/internal/api/dto"
	"github.com/spec-kit/conjunto-service/internal/auth"
	"github.com/spec-kit/conjunto-service/internal/domain"
	"github.com/spec-kit/conjunto-service/internal/service"
	"github.com/spec-kit/conjunto-service/internal/validation"
	apperrors "github.com/spec-kit/conjunto-service/pkg/util"
)

// PQRHandler manages tenant-scoped ticket endpoints.
type PQRHandler struct {
	service *service.PQRService
}

// NewPQRHandler constructs handler.
func NewPQRHandler(pqrService *service.PQRService) *PQRHandler {
	return &PQRHandler{service: pqrService}
}

// Create POST /api/pqr.
func (h *PQRHandler) Create(c *fiber.Ctx) error {
	principal, tenantID, err := requireTenant(c)
	if err != nil {
		return err
	}
	var req dto.CreatePQRRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := validation.Struct(req); err != nil {
		return err
	}
	pqr, err := h.service.Create(c.Context(), tenantID, principal.UserID, service.PQRCreateInput{
		Type:        req.Type,
		Category:    req.Category,
		Subject:     req.Subject,
		Description: req.Description,
		Anonymous:   req.Anonymous,
		PropertyID:  req.PropertyID,
		Attachments: req.Attachments,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.NewPQRResponse(pqr)})
}

// List GET /api/pqr.
func (h *PQRHandler) List(c *fiber.Ctx) error {
	_, tenantID, err := requireTenant(c)
	if err != nil {
		return err
	}
	items, total, stats, err := h.service.List(c.Context(), tenantID, parsePQRListQuery(c))
	if err != nil {
		return err
	}
	resp := dto.PQRListResponse{
		Items: make([]dto.PQRResponse, 0, len(items)),
		Total: total,
		Stats: stats,
	}
	for i := range items {
		resp.Items = append(resp.Items, dto.NewPQRResponse(&items[i]))
	}
	return c.JSON(fiber.Map{"data": resp})
}

// Get GET /api/pqr/:id.
func (h *PQRHandler) Get(c *fiber.Ctx) error {
	_, tenantID, err := requireTenant(c)
	if err != nil {
		return err
	}
	pqr, err := h.service.Get(c.Context(), tenantID, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewPQRResponse(pqr)})
}

// Update PUT /api/pqr/:id.
func (h *PQRHandler) Update(c *fiber.Ctx) error {
	principal, tenantID, err := requireTenant(c)
	if err != nil {
		return err
	}
	var req dto.UpdatePQRRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := validation.Struct(req); err != nil {
		return err
	}
	pqr, err := h.service.Update(c.Context(), tenantID, principal.UserID, c.Params("id"), service.PQRUpdateInput{
		Status:        req.Status,
		Priority:      req.Priority,
		AssigneeID:    req.AssigneeID,
		Response:      req.Response,
		Notes:         req.Notes,
		Rating:        req.Rating,
		RatingComment: req.RatingComment,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewPQRResponse(pqr)})
}

// Delete DELETE /api/pqr/:id.
func (h *PQRHandler) Delete(c *fiber.Ctx) error {
	principal, tenantID, err := requireTenant(c)
	if err != nil {
		return err
	}
	if err := h.service.Delete(c.Context(), tenantID, principal.UserID, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Metrics GET /api/pqr/metrics.
func (h *PQRHandler) Metrics(c *fiber.Ctx) error {
	_, tenantID, err := requireTenant(c)
	if err != nil {
		return err
	}
	period := service.MetricsPeriod(c.Query("periodo", string(service.PeriodMes)))
	metrics, err := h.service.Metrics(c.Context(), tenantID, period)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": metrics})
}

func requireTenant(c *fiber.Ctx) (*auth.AccessClaims, string, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return nil, "", apperrors.NewUnauthorized("authentication required")
	}
	tenantID, err := auth.ResolveTenant(c)
	if err != nil {
		return nil, "", err
	}
	return principal, tenantID, nil
}

func parsePQRListQuery(c *fiber.Ctx) service.PQRListInput {
	input := service.PQRListInput{}
	if v := c.Query("estado"); v != "" {
		status := domain.PQRStatus(v)
		input.Status = &status
	}
	if v := c.Query("categoria"); v != "" {
		category := domain.PQRCategory(v)
		input.Category = &category
	}
	if v := c.Query("tipo"); v != "" {
		typ := domain.PQRType(v)
		input.Type = &typ
	}
	if v := c.Query("prioridad"); v != "" {
		priority := domain.PQRPriority(v)
		input.Priority = &priority
	}
	if v := c.Query("solicitanteId"); v != "" {
		input.RequesterID = &v
	}
	if v := c.Query("responsableId"); v != "" {
		input.AssigneeID = &v
	}
	if v := strings.TrimSpace(c.Query("search")); v != "" {
		input.Search = &v
	}
	if from := parseTime(c.Query("fechaDesde")); from != nil {
		input.CreatedFrom = from
	}
	if to := parseTime(c.Query("fechaHasta")); to != nil {
		input.CreatedTo = to
	}
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("pageSize"), 10)
	input.Offset = (page - 1) * pageSize
	input.Limit = pageSize
	return input
}

func parseTime(val string) *time.Time {
	if val == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, val)
	if err != nil {
		return nil
	}
	return &t
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}
