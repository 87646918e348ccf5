package middleware

import (
	"context"

	"nhadat-backend/internal/application/auth"
	"nhadat-backend/internal/domain"
	"nhadat-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

const principalLocal = "principal"

// PrincipalResolver turns an Authorization header into the calling principal.
type PrincipalResolver interface {
	Resolve(ctx context.Context, header string) (*auth.Principal, error)
}

// Authenticate requires a valid bearer token for an unlocked account.
// Missing or bad tokens get a generic 401; locked accounts get 403.
func Authenticate(r PrincipalResolver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := r.Resolve(c.UserContext(), c.Get(fiber.HeaderAuthorization))
		if err != nil {
			return response.Fail(c, err)
		}
		setPrincipal(c, p)
		return c.Next()
	}
}

// OptionalAuth attaches the principal when a usable token is sent and otherwise
// continues anonymously.
func OptionalAuth(r PrincipalResolver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		if header == "" {
			return c.Next()
		}
		if p, err := r.Resolve(c.UserContext(), header); err == nil {
			setPrincipal(c, p)
		}
		return c.Next()
	}
}

// RequireRole allows callers whose role ranks at least min. Must run after Authenticate.
func RequireRole(min domain.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p := GetPrincipal(c)
		if p == nil {
			return response.Fail(c, auth.ErrMissingToken)
		}
		if !p.HasRole(min) {
			return response.Fail(c, auth.ErrForbidden)
		}
		return c.Next()
	}
}

func setPrincipal(c *fiber.Ctx, p *auth.Principal) {
	c.Locals(principalLocal, p)
	c.SetUserContext(auth.WithPrincipal(c.UserContext(), p))
}

// GetPrincipal returns the authenticated caller, or nil for anonymous requests.
func GetPrincipal(c *fiber.Ctx) *auth.Principal {
	p, _ := c.Locals(principalLocal).(*auth.Principal)
	return p
}
