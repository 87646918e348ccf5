package listings

import (
	listsvc "nhadat-backend/internal/application/listings"
	"nhadat-backend/internal/application/images"
	"nhadat-backend/internal/domain"
	"nhadat-backend/internal/middleware"
	"nhadat-backend/internal/pkg/pagination"
	"nhadat-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type Handlers struct {
	Service *listsvc.Service
	Images  *images.Service
}

// ListResult is the paginated listing payload.
type ListResult struct {
	Listings   []listsvc.View  `json:"tinDangs"`
	Pagination pagination.Info `json:"pagination"`
}

func listingID(c *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return uuid.Nil, listsvc.ErrListingNotFound
	}
	return id, nil
}

func pageOf(c *fiber.Ctx) pagination.Page {
	return pagination.Parse(c.Query("page"), c.Query("limit"))
}

// Create POST /api/tindang: multipart form with up to 10 "images".
func (h *Handlers) Create(c *fiber.Ctx) error {
	req, files, err := parseListingForm(c)
	if err != nil {
		return response.Fail(c, err)
	}
	p := middleware.GetPrincipal(c)
	v, err := h.Service.Create(c.UserContext(), p.AccountID, req.fields(), files)
	if err != nil {
		return response.Fail(c, err)
	}
	return response.SuccessCreated(c, "Tạo tin đăng thành công", v)
}

// List GET /api/tindang?page&limit&danh_muc&gia_min&gia_max&trang_thai
// trang_thai is only honored for staff and admin callers.
func (h *Handlers) List(c *fiber.Ctx) error {
	f, err := listsvc.ParseListFilter(c.Query("danh_muc"), c.Query("trang_thai"), c.Query("gia_min"), c.Query("gia_max"))
	if err != nil {
		return response.Fail(c, err)
	}
	views, info, err := h.Service.List(c.UserContext(), f, middleware.GetPrincipal(c), pageOf(c))
	if err != nil {
		return response.Fail(c, err)
	}
	return response.Success(c, "", ListResult{Listings: views, Pagination: info})
}

// Mine GET /api/tindang/my-posts: the caller's listings in every status.
func (h *Handlers) Mine(c *fiber.Ctx) error {
	var status domain.ListingStatus
	if raw := c.Query("trang_thai"); raw != "" {
		st, ok := domain.ParseListingStatus(raw)
		if !ok {
			return response.Fail(c, listsvc.ErrInvalidStatus)
		}
		status = st
	}
	p := middleware.GetPrincipal(c)
	views, info, err := h.Service.ListMine(c.UserContext(), p.AccountID, status, pageOf(c))
	if err != nil {
		return response.Fail(c, err)
	}
	return response.Success(c, "", ListResult{Listings: views, Pagination: info})
}

// Get GET /api/tindang/:id
func (h *Handlers) Get(c *fiber.Ctx) error {
	id, err := listingID(c)
	if err != nil {
		return response.Fail(c, err)
	}
	v, err := h.Service.Get(c.UserContext(), id, middleware.GetPrincipal(c))
	if err != nil {
		return response.Fail(c, err)
	}
	return response.Success(c, "", v)
}

// Update PUT /api/tindang/:id, owner only; imagesToDelete is a JSON array of image ids.
func (h *Handlers) Update(c *fiber.Ctx) error {
	id, err := listingID(c)
	if err != nil {
		return response.Fail(c, err)
	}
	req, files, err := parseListingForm(c)
	if err != nil {
		return response.Fail(c, err)
	}
	remove, err := req.imageIDs()
	if err != nil {
		return response.Fail(c, err)
	}
	p := middleware.GetPrincipal(c)
	v, err := h.Service.Update(c.UserContext(), id, p.AccountID, listsvc.UpdateInput{
		Patch:          req.patch(),
		ImagesToDelete: remove,
		Files:          files,
	})
	if err != nil {
		return response.Fail(c, err)
	}
	return response.Success(c, "Cập nhật tin đăng thành công", v)
}

// Delete DELETE /api/tindang/:id, owner only.
func (h *Handlers) Delete(c *fiber.Ctx) error {
	id, err := listingID(c)
	if err != nil {
		return response.Fail(c, err)
	}
	p := middleware.GetPrincipal(c)
	if err := h.Service.Delete(c.UserContext(), id, p.AccountID); err != nil {
		return response.Fail(c, err)
	}
	return response.Success(c, "Xóa tin đăng thành công", nil)
}

// DeleteImage DELETE /api/tindang/:id/images/:imageId, owner only; sends the listing back to review.
func (h *Handlers) DeleteImage(c *fiber.Ctx) error {
	id, err := listingID(c)
	if err != nil {
		return response.Fail(c, err)
	}
	imageID, err := uuid.Parse(c.Params("imageId"))
	if err != nil {
		return response.Fail(c, images.ErrImageNotFound)
	}
	gallery, err := h.Images.ListFor(c.UserContext(), domain.ImageKindListing, id)
	if err != nil {
		return response.Fail(c, err)
	}
	found := false
	for _, img := range gallery {
		if img.ID == imageID {
			found = true
			break
		}
	}
	if !found {
		return response.Fail(c, images.ErrImageNotFound)
	}
	p := middleware.GetPrincipal(c)
	if err := h.Images.Detach(c.UserContext(), imageID, p.AccountID); err != nil {
		return response.Fail(c, err)
	}
	return response.Success(c, "Xóa ảnh thành công", nil)
}
