package middleware

import (
	"nhadat-backend/internal/application/auth"
	"nhadat-backend/internal/constants"
	"nhadat-backend/internal/pkg/apperror"
	"nhadat-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// AuthorizePermission checks the caller's role against constants.PermissionRoles.
// Unconfigured permission -> 500; role not allowed -> 403.
func AuthorizePermission(permission string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p := GetPrincipal(c)
		if p == nil {
			return response.Fail(c, auth.ErrMissingToken)
		}
		roles, ok := constants.PermissionRoles[permission]
		if !ok || len(roles) == 0 {
			return response.Error(c, "Permission configuration error", fiber.StatusInternalServerError, apperror.KindInternal)
		}
		if !constants.AllowedRole(permission, string(p.Role)) {
			return response.Fail(c, auth.ErrForbidden)
		}
		return c.Next()
	}
}
