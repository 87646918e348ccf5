package middleware

import (
	"strings"

	"nhadat-backend/internal/pkg/apperror"
	"nhadat-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// CORSConfig lists the front-end origins allowed to call the API. Empty allows any origin.
type CORSConfig struct {
	AllowedOrigins []string
}

// CORS reflects allowed origins, answers preflights and rejects other origins with 403.
func CORS(cfg CORSConfig) fiber.Handler {
	allowed := make(map[string]bool, len(cfg.AllowedOrigins))
	for _, o := range cfg.AllowedOrigins {
		allowed[strings.TrimRight(strings.ToLower(o), "/")] = true
	}
	return func(c *fiber.Ctx) error {
		origin := c.Get(fiber.HeaderOrigin)
		// No origin (same-origin or tools): allow
		if origin == "" {
			return c.Next()
		}
		if len(allowed) > 0 && !allowed[strings.TrimRight(strings.ToLower(origin), "/")] {
			return response.Error(c, "Not allowed by CORS", fiber.StatusForbidden, apperror.KindUnauthorized)
		}
		setCORSHeaders(c, origin)
		if c.Method() == fiber.MethodOptions {
			return c.SendStatus(fiber.StatusNoContent)
		}
		return c.Next()
	}
}

func setCORSHeaders(c *fiber.Ctx, origin string) {
	c.Set(fiber.HeaderAccessControlAllowOrigin, origin)
	c.Set(fiber.HeaderAccessControlAllowCredentials, "true")
	c.Set(fiber.HeaderAccessControlAllowHeaders, "Content-Type, Authorization")
	c.Set(fiber.HeaderAccessControlAllowMethods, "GET, POST, PUT, DELETE, OPTIONS")
	c.Set(fiber.HeaderVary, fiber.HeaderOrigin)
}
