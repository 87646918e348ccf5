package auth

import (
	"strings"

	"nhadat-backend/internal/application/accounts"
	"nhadat-backend/internal/domain"
	"nhadat-backend/internal/pkg/apperror"
	"nhadat-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// Handlers holds dependencies for register and login.
type Handlers struct {
	Accounts *accounts.Service
}

// LoginRequest body: ten_dang_nhap, mat_khau.
type LoginRequest struct {
	Username string `json:"ten_dang_nhap"`
	Password string `json:"mat_khau"`
}

// SessionUser is the account summary returned with a token.
type SessionUser struct {
	ID       string      `json:"id"`
	Username string      `json:"ten_dang_nhap"`
	Email    string      `json:"email"`
	FullName string      `json:"ho_ten"`
	Role     domain.Role `json:"vai_tro"`
}

func sessionUser(acc *domain.Account) SessionUser {
	return SessionUser{
		ID:       acc.ID.String(),
		Username: acc.Username,
		Email:    acc.Email,
		FullName: acc.FullName,
		Role:     acc.Role,
	}
}

var errBadBody = apperror.Validation("Dữ liệu không hợp lệ")

// Register POST /api/users/dang-ky: create an ordinary account and return it with a token.
func (h *Handlers) Register(c *fiber.Ctx) error {
	var req accounts.RegisterInput
	if err := c.BodyParser(&req); err != nil {
		return response.Fail(c, errBadBody)
	}
	acc, err := h.Accounts.Register(c.UserContext(), req)
	if err != nil {
		return response.Fail(c, err)
	}
	token, err := h.Accounts.IssueToken(acc)
	if err != nil {
		return response.Fail(c, err)
	}
	return response.SuccessCreated(c, "Đăng ký thành công", fiber.Map{
		"user":  sessionUser(acc),
		"token": token,
	})
}

// Login POST /api/users/dang-nhap: exchange username and password for a bearer token.
func (h *Handlers) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return response.Fail(c, errBadBody)
	}
	if strings.TrimSpace(req.Username) == "" || req.Password == "" {
		return response.Fail(c, apperror.Validation("Vui lòng nhập tên đăng nhập và mật khẩu"))
	}
	sess, err := h.Accounts.Authenticate(c.UserContext(), strings.TrimSpace(req.Username), req.Password)
	if err != nil {
		return response.Fail(c, err)
	}
	return response.Success(c, "Đăng nhập thành công", fiber.Map{
		"user":  sessionUser(sess.Account),
		"token": sess.Token,
	})
}
