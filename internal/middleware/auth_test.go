package middleware

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"nhadat-backend/internal/application/auth"
	"nhadat-backend/internal/constants"
	"nhadat-backend/internal/domain"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubResolver maps raw header values to principals or errors.
type stubResolver map[string]interface{}

func (s stubResolver) Resolve(_ context.Context, header string) (*auth.Principal, error) {
	switch v := s[header].(type) {
	case *auth.Principal:
		return v, nil
	case error:
		return nil, v
	}
	return nil, auth.ErrMissingToken
}

var (
	userPrincipal  = &auth.Principal{AccountID: uuid.New(), Role: domain.RoleUser}
	staffPrincipal = &auth.Principal{AccountID: uuid.New(), Role: domain.RoleStaff}
	resolver       = stubResolver{
		"Bearer user":   userPrincipal,
		"Bearer staff":  staffPrincipal,
		"Bearer locked": auth.ErrAccountLocked,
		"Bearer bad":    auth.ErrInvalidToken,
	}
)

func call(t *testing.T, app *fiber.App, header string) (int, map[string]interface{}) {
	req := httptest.NewRequest("GET", "/", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	var out map[string]interface{}
	_ = json.Unmarshal(body, &out)
	return resp.StatusCode, out
}

func whoami(c *fiber.Ctx) error {
	p := GetPrincipal(c)
	if p == nil {
		return c.JSON(fiber.Map{"role": ""})
	}
	fromCtx := auth.FromContext(c.UserContext())
	return c.JSON(fiber.Map{"role": p.Role, "same": fromCtx == p})
}

func TestAuthenticate(t *testing.T) {
	app := fiber.New()
	app.Get("/", Authenticate(resolver), whoami)

	status, body := call(t, app, "")
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Không có token, truy cập bị từ chối", body["message"])

	status, _ = call(t, app, "Bearer bad")
	assert.Equal(t, fiber.StatusUnauthorized, status)

	status, body = call(t, app, "Bearer locked")
	assert.Equal(t, fiber.StatusForbidden, status)
	assert.Equal(t, "Tài khoản đã bị khóa", body["message"])

	status, body = call(t, app, "Bearer user")
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "nguoi_dung", body["role"])
	assert.Equal(t, true, body["same"])
}

func TestOptionalAuth_IgnoresBadTokens(t *testing.T) {
	app := fiber.New()
	app.Get("/", OptionalAuth(resolver), whoami)

	_, body := call(t, app, "")
	assert.Equal(t, "", body["role"])
	_, body = call(t, app, "Bearer bad")
	assert.Equal(t, "", body["role"])
	_, body = call(t, app, "Bearer staff")
	assert.Equal(t, "nhan_vien", body["role"])
}

func TestRequireRole(t *testing.T) {
	app := fiber.New()
	app.Get("/", Authenticate(resolver), RequireRole(domain.RoleStaff), whoami)

	status, body := call(t, app, "Bearer user")
	assert.Equal(t, fiber.StatusForbidden, status)
	assert.Equal(t, "Bạn không có quyền truy cập tính năng này", body["message"])
	status, _ = call(t, app, "Bearer staff")
	assert.Equal(t, fiber.StatusOK, status)
}

func TestAuthorizePermission(t *testing.T) {
	app := fiber.New()
	app.Get("/", Authenticate(resolver), AuthorizePermission(constants.ManageAccounts), whoami)
	status, _ := call(t, app, "Bearer staff")
	assert.Equal(t, fiber.StatusForbidden, status)

	app2 := fiber.New()
	app2.Get("/", Authenticate(resolver), AuthorizePermission("unknown"), whoami)
	status, _ = call(t, app2, "Bearer staff")
	assert.Equal(t, fiber.StatusInternalServerError, status)

	app3 := fiber.New()
	app3.Get("/", Authenticate(resolver), AuthorizePermission(constants.ModerateListings), whoami)
	status, _ = call(t, app3, "Bearer staff")
	assert.Equal(t, fiber.StatusOK, status)
}
