package listings

import (
	"encoding/json"
	"strconv"
	"strings"

	"nhadat-backend/internal/domain"
	"nhadat-backend/internal/infrastructure/storage"
	"nhadat-backend/internal/pkg/apperror"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

var (
	errBadBody           = apperror.Validation("Dữ liệu không hợp lệ")
	errBadImagesToDelete = apperror.Validation("Dữ liệu ảnh cần xóa không hợp lệ")
)

// listingRequest is the create/update form. Nil fields were not sent.
type listingRequest struct {
	Title          *string  `json:"tieu_de"`
	PropertyType   *int     `json:"loai_hinh"`
	Category       *string  `json:"danh_muc"`
	Description    *string  `json:"mo_ta"`
	Price          *float64 `json:"gia"`
	Area           *float64 `json:"dien_tich"`
	Address        *string  `json:"dia_chi"`
	Bedrooms       *int     `json:"so_phong_ngu"`
	Bathrooms      *int     `json:"so_phong_tam"`
	Orientation    *string  `json:"huong_nha"`
	LegalStatus    *string  `json:"trang_thai_phap_ly"`
	ImagesToDelete []string `json:"imagesToDelete"`
}

// parseListingForm reads a JSON body or a multipart/urlencoded form plus its "images" files.
func parseListingForm(c *fiber.Ctx) (listingRequest, []storage.File, error) {
	var req listingRequest
	if c.Is("json") {
		if err := c.BodyParser(&req); err != nil {
			return req, nil, errBadBody
		}
		return req, nil, nil
	}

	var errs []apperror.FieldError
	str := func(key string) *string {
		v := c.FormValue(key)
		if v == "" {
			return nil
		}
		return &v
	}
	num := func(key string) *float64 {
		s := str(key)
		if s == nil {
			return nil
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(*s), 64)
		if err != nil {
			errs = append(errs, apperror.FieldError{Field: key, Message: "Giá trị phải là số"})
			return nil
		}
		return &v
	}
	integer := func(key string) *int {
		s := str(key)
		if s == nil {
			return nil
		}
		v, err := strconv.Atoi(strings.TrimSpace(*s))
		if err != nil {
			errs = append(errs, apperror.FieldError{Field: key, Message: "Giá trị phải là số nguyên"})
			return nil
		}
		return &v
	}
	req.Title = str("tieu_de")
	req.PropertyType = integer("loai_hinh")
	req.Category = str("danh_muc")
	req.Description = str("mo_ta")
	req.Price = num("gia")
	req.Area = num("dien_tich")
	req.Address = str("dia_chi")
	req.Bedrooms = integer("so_phong_ngu")
	req.Bathrooms = integer("so_phong_tam")
	req.Orientation = str("huong_nha")
	req.LegalStatus = str("trang_thai_phap_ly")
	if len(errs) > 0 {
		return req, nil, apperror.Validation("Dữ liệu không hợp lệ", errs...)
	}
	if raw := c.FormValue("imagesToDelete"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &req.ImagesToDelete); err != nil {
			return req, nil, errBadImagesToDelete
		}
	}

	var files []storage.File
	if form, err := c.MultipartForm(); err == nil {
		for _, fh := range form.File[storage.ListingFormField] {
			files = append(files, storage.FromMultipart(fh))
		}
	}
	return req, files, nil
}

func (r listingRequest) fields() domain.ListingFields {
	var f domain.ListingFields
	r.patch().Apply(&f)
	return f
}

func (r listingRequest) patch() domain.ListingPatch {
	p := domain.ListingPatch{
		Title:        r.Title,
		PropertyType: r.PropertyType,
		Description:  r.Description,
		Price:        r.Price,
		Area:         r.Area,
		Address:      r.Address,
		Bedrooms:     r.Bedrooms,
		Bathrooms:    r.Bathrooms,
		Orientation:  r.Orientation,
		LegalStatus:  r.LegalStatus,
	}
	if r.Category != nil {
		cat := domain.Category(strings.TrimSpace(*r.Category))
		p.Category = &cat
	}
	return p
}

func (r listingRequest) imageIDs() ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, len(r.ImagesToDelete))
	for _, s := range r.ImagesToDelete {
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, errBadImagesToDelete
		}
		ids = append(ids, id)
	}
	return ids, nil
}
