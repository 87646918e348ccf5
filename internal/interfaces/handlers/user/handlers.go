package user

import (
	"nhadat-backend/internal/application/accounts"
	"nhadat-backend/internal/application/images"
	"nhadat-backend/internal/infrastructure/storage"
	"nhadat-backend/internal/middleware"
	"nhadat-backend/internal/pkg/apperror"
	"nhadat-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// Handlers serves the caller's own profile and avatar. All routes sit behind middleware.Authenticate.
type Handlers struct {
	Accounts *accounts.Service
	Images   *images.Service
}

// Profile GET /api/users/profile
func (h *Handlers) Profile(c *fiber.Ctx) error {
	p := middleware.GetPrincipal(c)
	prof, err := h.Accounts.Profile(c.UserContext(), p.AccountID)
	if err != nil {
		return response.Fail(c, err)
	}
	return response.Success(c, "", prof)
}

// UpdateProfile PUT /api/users/profile: only ho_ten, so_dien_thoai and dia_chi are read.
func (h *Handlers) UpdateProfile(c *fiber.Ctx) error {
	var in accounts.ProfileInput
	if err := c.BodyParser(&in); err != nil {
		return response.Fail(c, apperror.Validation("Dữ liệu không hợp lệ"))
	}
	p := middleware.GetPrincipal(c)
	prof, err := h.Accounts.UpdateProfile(c.UserContext(), p.AccountID, in)
	if err != nil {
		return response.Fail(c, err)
	}
	return response.Success(c, "Cập nhật thông tin thành công", prof)
}

// UploadAvatar POST /api/users/upload-avatar (multipart field "avatar"). Replaces any previous avatar.
func (h *Handlers) UploadAvatar(c *fiber.Ctx) error {
	fh, err := c.FormFile(storage.AvatarFormField)
	if err != nil {
		return response.Fail(c, storage.ErrNoFile)
	}
	p := middleware.GetPrincipal(c)
	img, err := h.Images.SetAvatar(c.UserContext(), p.AccountID, storage.FromMultipart(fh))
	if err != nil {
		return response.Fail(c, err)
	}
	return response.Success(c, "Upload avatar thành công", fiber.Map{"duong_dan_anh": img.Path})
}
