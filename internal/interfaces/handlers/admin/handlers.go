package admin

import (
	"nhadat-backend/internal/application/accounts"
	"nhadat-backend/internal/application/stats"
	"nhadat-backend/internal/domain"
	"nhadat-backend/internal/middleware"
	"nhadat-backend/internal/pkg/apperror"
	"nhadat-backend/internal/pkg/pagination"
	"nhadat-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// Handlers serves account administration. Routes are mounted behind RequireRole(admin).
type Handlers struct {
	Accounts   *accounts.Service
	Statistics *stats.Service
}

type UsersResult struct {
	Users      []domain.Account `json:"users"`
	Pagination pagination.Info  `json:"pagination"`
}

type lockView struct {
	ID       uuid.UUID        `json:"id"`
	Username string           `json:"ten_dang_nhap"`
	Lock     domain.LockState `json:"trang_thai"`
}

type roleView struct {
	ID       uuid.UUID   `json:"id"`
	Username string      `json:"ten_dang_nhap"`
	Role     domain.Role `json:"vai_tro"`
}

type roleRequest struct {
	Role string `json:"vai_tro"`
}

func accountID(c *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return uuid.Nil, accounts.ErrAccountNotFound
	}
	return id, nil
}

// Users GET /api/admin/users?page&limit&vai_tro&trang_thai
func (h *Handlers) Users(c *fiber.Ctx) error {
	f := accounts.ListFilter{Role: c.Query("vai_tro"), Lock: c.Query("trang_thai")}
	page := pagination.Parse(c.Query("page"), c.Query("limit"))
	users, info, err := h.Accounts.List(c.UserContext(), f, page)
	if err != nil {
		return response.Fail(c, err)
	}
	if users == nil {
		users = []domain.Account{}
	}
	return response.Success(c, "", UsersResult{Users: users, Pagination: info})
}

// ToggleStatus PUT /api/admin/users/:id/toggle-status
func (h *Handlers) ToggleStatus(c *fiber.Ctx) error {
	id, err := accountID(c)
	if err != nil {
		return response.Fail(c, err)
	}
	acc, err := h.Accounts.ToggleLock(c.UserContext(), id)
	if err != nil {
		return response.Fail(c, err)
	}
	verb := "Mở khóa"
	if acc.IsLocked() {
		verb = "Khóa"
	}
	return response.Success(c, verb+" tài khoản thành công", fiber.Map{
		"user": lockView{ID: acc.ID, Username: acc.Username, Lock: acc.Lock},
	})
}

// SetRole PUT /api/admin/users/:id/role with {vai_tro}.
func (h *Handlers) SetRole(c *fiber.Ctx) error {
	id, err := accountID(c)
	if err != nil {
		return response.Fail(c, err)
	}
	var req roleRequest
	if err := c.BodyParser(&req); err != nil {
		return response.Fail(c, apperror.Validation("Dữ liệu không hợp lệ"))
	}
	p := middleware.GetPrincipal(c)
	acc, err := h.Accounts.SetRole(c.UserContext(), p.AccountID, id, req.Role)
	if err != nil {
		return response.Fail(c, err)
	}
	return response.Success(c, "Cập nhật vai trò thành công", fiber.Map{
		"user": roleView{ID: acc.ID, Username: acc.Username, Role: acc.Role},
	})
}

// Stats GET /api/admin/thong-ke
func (h *Handlers) Stats(c *fiber.Ctx) error {
	out, err := h.Statistics.Admin(c.UserContext())
	if err != nil {
		return response.Fail(c, err)
	}
	return response.Success(c, "", out)
}
