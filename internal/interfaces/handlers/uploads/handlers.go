package uploads

import (
	"errors"

	"nhadat-backend/internal/application/images"
	"nhadat-backend/internal/infrastructure/storage"
	"nhadat-backend/internal/middleware"
	"nhadat-backend/internal/pkg/apperror"
	"nhadat-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

var errAssetNotFound = apperror.New(apperror.KindNotFound, "Không tìm thấy file")

// Handlers serves stored images and detaches them.
type Handlers struct {
	Assets *storage.Assets
	Images *images.Service
}

// Asset GET /assets/* streams a stored object from the configured backend.
func (h *Handlers) Asset(c *fiber.Ctx) error {
	key := c.Params("*")
	rc, err := h.Assets.Open(c.UserContext(), key)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) || errors.Is(err, storage.ErrInvalidKey) {
			return response.Fail(c, errAssetNotFound)
		}
		log.Error().Err(err).Str("key", key).Msg("assets: read failed")
		return response.Fail(c, err)
	}
	c.Set(fiber.HeaderContentType, storage.ContentTypeFor(key))
	c.Set(fiber.HeaderCacheControl, "public, max-age=86400")
	return c.SendStream(rc)
}

// DeleteImage DELETE /api/images/:id removes a gallery image or avatar owned by the caller.
func (h *Handlers) DeleteImage(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return response.Fail(c, images.ErrImageNotFound)
	}
	p := middleware.GetPrincipal(c)
	if err := h.Images.Detach(c.UserContext(), id, p.AccountID); err != nil {
		return response.Fail(c, err)
	}
	return response.Success(c, "Xóa ảnh thành công", nil)
}
