package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/betslib/feedsync/internal/services"
)

// IntegrationHandler handles HTTP requests for provider integration health
type IntegrationHandler struct {
	health *services.Health
}

// NewIntegrationHandler creates a new integration handler instance
func NewIntegrationHandler(health *services.Health) *IntegrationHandler {
	return &IntegrationHandler{health: health}
}

// ListIntegrations handles the request to list all known provider health rows
func (h *IntegrationHandler) ListIntegrations(c *fiber.Ctx) error {
	statuses, err := h.health.ListStatuses(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).
			JSON(errServer(err.Error()))
	}

	return c.JSON(Response{
		Slug: SuccessSlug,
		Data: statuses,
	})
}

// GetAvailability handles the request for feature-level availability booleans
func (h *IntegrationHandler) GetAvailability(c *fiber.Ctx) error {
	availability, err := h.health.GetDataAvailability(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).
			JSON(errServer(err.Error()))
	}

	return c.JSON(Response{
		Slug: SuccessSlug,
		Data: availability,
	})
}

// EnableIntegration handles the request to clear a manual disable
func (h *IntegrationHandler) EnableIntegration(c *fiber.Ctx) error {
	name := c.Params("name")
	if name == "" {
		return c.Status(fiber.StatusBadRequest).
			JSON(errInvalidInput("integration name is required"))
	}

	status, err := h.health.Enable(c.Context(), name)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).
			JSON(errServer(err.Error()))
	}

	return c.JSON(Response{
		Slug: SuccessSlug,
		Data: status,
	})
}

// DisableIntegration handles the request to manually disable an integration
func (h *IntegrationHandler) DisableIntegration(c *fiber.Ctx) error {
	name := c.Params("name")
	if name == "" {
		return c.Status(fiber.StatusBadRequest).
			JSON(errInvalidInput("integration name is required"))
	}

	var req DisableIntegrationRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).
			JSON(errInvalidInput(err.Error()))
	}
	if req.Reason == "" {
		return c.Status(fiber.StatusBadRequest).
			JSON(errInvalidInput("reason is required"))
	}

	// Auth is handled by an upstream collaborator; the identity header names the actor
	actor := c.Get("X-User-ID")
	if actor == "" {
		actor = "admin"
	}

	status, err := h.health.Disable(c.Context(), name, req.Reason, actor)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).
			JSON(errServer(err.Error()))
	}

	return c.JSON(Response{
		Slug: SuccessSlug,
		Data: status,
	})
}
