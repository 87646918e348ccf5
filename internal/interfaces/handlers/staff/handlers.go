package staff

import (
	listsvc "nhadat-backend/internal/application/listings"
	"nhadat-backend/internal/application/stats"
	"nhadat-backend/internal/domain"
	"nhadat-backend/internal/middleware"
	"nhadat-backend/internal/pkg/apperror"
	"nhadat-backend/internal/pkg/pagination"
	"nhadat-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// Handlers serves the moderation queue. Routes are mounted behind RequireRole(staff).
type Handlers struct {
	Listings   *listsvc.Service
	Statistics *stats.Service
}

type ListResult struct {
	Listings   []listsvc.View  `json:"tinDangs"`
	Pagination pagination.Info `json:"pagination"`
}

type moderateRequest struct {
	Status string `json:"trang_thai"`
	Note   string `json:"ghi_chu"`
}

func listingID(c *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return uuid.Nil, listsvc.ErrListingNotFound
	}
	return id, nil
}

// List GET /api/staff/tin-dang?trang_thai&page&limit: every status unless filtered.
func (h *Handlers) List(c *fiber.Ctx) error {
	var status domain.ListingStatus
	if raw := c.Query("trang_thai"); raw != "" {
		st, ok := domain.ParseListingStatus(raw)
		if !ok {
			return response.Fail(c, listsvc.ErrInvalidStatus)
		}
		status = st
	}
	page := pagination.Parse(c.Query("page"), c.Query("limit"))
	views, info, err := h.Listings.ListForReview(c.UserContext(), status, page)
	if err != nil {
		return response.Fail(c, err)
	}
	return response.Success(c, "", ListResult{Listings: views, Pagination: info})
}

// Moderate PUT /api/staff/tin-dang/:id/duyet with {trang_thai: da_duyet|tu_choi, ghi_chu}.
func (h *Handlers) Moderate(c *fiber.Ctx) error {
	id, err := listingID(c)
	if err != nil {
		return response.Fail(c, err)
	}
	var req moderateRequest
	if err := c.BodyParser(&req); err != nil {
		return response.Fail(c, apperror.Validation("Dữ liệu không hợp lệ"))
	}
	decision, ok := domain.ParseDecision(req.Status)
	if !ok {
		return response.Fail(c, listsvc.ErrInvalidDecision)
	}
	p := middleware.GetPrincipal(c)
	v, err := h.Listings.Moderate(c.UserContext(), id, decision, req.Note, p.AccountID)
	if err != nil {
		return response.Fail(c, err)
	}
	msg := "Từ chối tin đăng thành công"
	if decision == domain.DecisionApprove {
		msg = "Duyệt tin đăng thành công"
	}
	return response.Success(c, msg, v)
}

// Events GET /api/staff/tin-dang/:id/lich-su
func (h *Handlers) Events(c *fiber.Ctx) error {
	id, err := listingID(c)
	if err != nil {
		return response.Fail(c, err)
	}
	events, err := h.Listings.Events(c.UserContext(), id)
	if err != nil {
		return response.Fail(c, err)
	}
	return response.Success(c, "", events)
}

// Stats GET /api/staff/thong-ke
func (h *Handlers) Stats(c *fiber.Ctx) error {
	out, err := h.Statistics.Staff(c.UserContext())
	if err != nil {
		return response.Fail(c, err)
	}
	return response.Success(c, "", out)
}
