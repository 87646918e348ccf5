package health

import (
	healthsvc "nhadat-backend/internal/application/health"
	"nhadat-backend/internal/pkg/apperror"
	"nhadat-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// ServiceName is reported in the health payload.
const ServiceName = "nhadat-api"

// Handlers holds dependencies for health endpoints.
type Handlers struct {
	Checker        *healthsvc.Checker
	HealthAdminKey string
}

// JSON GET /health/json returns runtime, traffic and dependency status.
func (h *Handlers) JSON(c *fiber.Ctx) error {
	result := h.Checker.Collect(c.UserContext())
	return c.JSON(fiber.Map{
		"service":      ServiceName,
		"status":       result.Status,
		"runtime":      result.Runtime,
		"traffic":      result.Traffic,
		"dependencies": result.Dependencies,
	})
}

// Reset GET /health/reset?key=HEALTH_ADMIN_KEY clears the request counters.
func (h *Handlers) Reset(c *fiber.Ctx) error {
	key := c.Query("key")
	if h.HealthAdminKey == "" || key != h.HealthAdminKey {
		return response.Error(c, "Unauthorized", fiber.StatusForbidden, apperror.KindUnauthorized)
	}
	if h.Checker.Redis == nil {
		return response.Error(c, "Redis is not configured", fiber.StatusServiceUnavailable, apperror.KindInternal)
	}
	if err := h.Checker.Reset(c.UserContext()); err != nil {
		log.Error().Err(err).Msg("health: reset failed")
		return response.Fail(c, err)
	}
	return response.Success(c, "Stats reset successfully", nil)
}

// Errors GET /health/errors returns the last 50 server errors.
func (h *Handlers) Errors(c *fiber.Ctx) error {
	if h.Checker.Redis == nil {
		return c.JSON([]interface{}{})
	}
	entries, err := h.Checker.RecentErrors(c.UserContext())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON([]interface{}{})
	}
	return c.JSON(entries)
}
