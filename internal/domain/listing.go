package domain

import (
	"strings"
	"time"

	"nhadat-backend/internal/pkg/apperror"
	"nhadat-backend/internal/pkg/validation"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ListingTTL is how long an approved listing stays public before it expires.
const ListingTTL = 30 * 24 * time.Hour

var (
	ErrListingExpired   = apperror.New(apperror.KindInvalidTransition, "Không thể chỉnh sửa tin đăng đã hết hạn")
	ErrNotPendingReview = apperror.New(apperror.KindInvalidTransition, "Tin đăng không ở trạng thái chờ duyệt")
	ErrNotExpirable     = apperror.New(apperror.KindInvalidTransition, "Tin đăng chưa đến hạn")
)

// ListingFields is the owner-editable content of a listing.
type ListingFields struct {
	Title        string   `gorm:"column:tieu_de;size:255;not null" json:"tieu_de"`
	PropertyType int      `gorm:"column:loai_hinh;not null" json:"loai_hinh"`
	Category     Category `gorm:"column:danh_muc;type:varchar(20);not null;index" json:"danh_muc"`
	Description  string   `gorm:"column:mo_ta;type:text;not null" json:"mo_ta"`
	Price        float64  `gorm:"column:gia;not null;index" json:"gia"`
	Area         *float64 `gorm:"column:dien_tich" json:"dien_tich,omitempty"`
	Address      string   `gorm:"column:dia_chi;not null" json:"dia_chi"`
	Bedrooms     *int     `gorm:"column:so_phong_ngu" json:"so_phong_ngu,omitempty"`
	Bathrooms    *int     `gorm:"column:so_phong_tam" json:"so_phong_tam,omitempty"`
	Orientation  string   `gorm:"column:huong_nha;size:50" json:"huong_nha,omitempty"`
	LegalStatus  string   `gorm:"column:trang_thai_phap_ly;size:100" json:"trang_thai_phap_ly,omitempty"`
}

// Validate checks every field and returns all failures at once.
func (f ListingFields) Validate() error {
	var errs []apperror.FieldError
	add := func(field, msg string) {
		errs = append(errs, apperror.FieldError{Field: field, Message: msg})
	}
	if !validation.LengthBetween(strings.TrimSpace(f.Title), validation.ListingTitleMin, validation.ListingTitleMax) {
		add("tieu_de", "Tiêu đề phải từ 10-255 ký tự")
	}
	if f.PropertyType < 1 {
		add("loai_hinh", "Loại hình không hợp lệ")
	}
	if _, ok := ParseCategory(string(f.Category)); !ok {
		add("danh_muc", "Danh mục không hợp lệ")
	}
	if !validation.LengthBetween(strings.TrimSpace(f.Description), validation.DescriptionMin, 0) {
		add("mo_ta", "Mô tả phải ít nhất 50 ký tự")
	}
	if f.Price < 0 {
		add("gia", "Giá phải là số dương")
	}
	if f.Area != nil && *f.Area < 0 {
		add("dien_tich", "Diện tích không được âm")
	}
	if strings.TrimSpace(f.Address) == "" {
		add("dia_chi", "Địa chỉ không được để trống")
	}
	if f.Bedrooms != nil && *f.Bedrooms < 0 {
		add("so_phong_ngu", "Số phòng ngủ không được âm")
	}
	if f.Bathrooms != nil && *f.Bathrooms < 0 {
		add("so_phong_tam", "Số phòng tắm không được âm")
	}
	if !validation.LengthBetween(f.Orientation, 0, validation.OrientationMax) {
		add("huong_nha", "Hướng nhà không được quá 50 ký tự")
	}
	if !validation.LengthBetween(f.LegalStatus, 0, validation.LegalStatusMax) {
		add("trang_thai_phap_ly", "Trạng thái pháp lý không được quá 100 ký tự")
	}
	if len(errs) > 0 {
		return apperror.Validation("Dữ liệu không hợp lệ", errs...)
	}
	return nil
}

// ListingPatch carries the fields an owner supplied on edit; nil means unchanged.
type ListingPatch struct {
	Title        *string
	PropertyType *int
	Category     *Category
	Description  *string
	Price        *float64
	Area         *float64
	Address      *string
	Bedrooms     *int
	Bathrooms    *int
	Orientation  *string
	LegalStatus  *string
}

// Apply copies the non-nil patch values onto f.
func (p ListingPatch) Apply(f *ListingFields) {
	if p.Title != nil {
		f.Title = *p.Title
	}
	if p.PropertyType != nil {
		f.PropertyType = *p.PropertyType
	}
	if p.Category != nil {
		f.Category = *p.Category
	}
	if p.Description != nil {
		f.Description = *p.Description
	}
	if p.Price != nil {
		f.Price = *p.Price
	}
	if p.Area != nil {
		f.Area = p.Area
	}
	if p.Address != nil {
		f.Address = *p.Address
	}
	if p.Bedrooms != nil {
		f.Bedrooms = p.Bedrooms
	}
	if p.Bathrooms != nil {
		f.Bathrooms = p.Bathrooms
	}
	if p.Orientation != nil {
		f.Orientation = *p.Orientation
	}
	if p.LegalStatus != nil {
		f.LegalStatus = *p.LegalStatus
	}
}

// Listing is a property advertisement. OwnerID is fixed at creation.
type Listing struct {
	ID      uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"_id"`
	OwnerID uuid.UUID `gorm:"column:nguoi_dung_id;type:uuid;not null;index" json:"nguoi_dung_id"`
	ListingFields
	Status    ListingStatus `gorm:"column:trang_thai;type:varchar(20);not null;default:'cho_duyet';index" json:"trang_thai"`
	Note      *string       `gorm:"column:ghi_chu" json:"ghi_chu,omitempty"`
	ExpiresAt *time.Time    `gorm:"column:ngay_het_han;index" json:"ngay_het_han,omitempty"`
	CreatedAt time.Time     `gorm:"column:ngay_tao;index" json:"ngay_tao"`
	UpdatedAt time.Time     `gorm:"column:ngay_cap_nhat" json:"ngay_cap_nhat"`
}

func (Listing) TableName() string {
	return "tin_dang"
}

// BeforeCreate sets the id if not already set.
func (l *Listing) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}

// NewListing validates fields and returns a listing awaiting review.
func NewListing(owner uuid.UUID, fields ListingFields) (*Listing, error) {
	if err := fields.Validate(); err != nil {
		return nil, err
	}
	return &Listing{OwnerID: owner, ListingFields: fields, Status: StatusPending}, nil
}

func (l *Listing) OwnedBy(id uuid.UUID) bool {
	return l.OwnerID == id
}

// Approve publishes a pending listing until now+ListingTTL. An empty note clears any previous one.
func (l *Listing) Approve(now time.Time, note string) error {
	if l.Status != StatusPending {
		return ErrNotPendingReview
	}
	exp := now.Add(ListingTTL)
	l.Status = StatusApproved
	l.Note = optionalNote(note)
	l.ExpiresAt = &exp
	return nil
}

// Reject closes a pending listing with the moderator's note. Expiry is never set.
func (l *Listing) Reject(note string) error {
	if l.Status != StatusPending {
		return ErrNotPendingReview
	}
	l.Status = StatusRejected
	l.Note = optionalNote(note)
	l.ExpiresAt = nil
	return nil
}

// ApplyEdit applies owner changes and sends the listing back to review.
func (l *Listing) ApplyEdit(p ListingPatch) error {
	if l.Status == StatusExpired {
		return ErrListingExpired
	}
	fields := l.ListingFields
	p.Apply(&fields)
	if err := fields.Validate(); err != nil {
		return err
	}
	l.ListingFields = fields
	l.MarkEdited()
	return nil
}

// MarkEdited resets moderation state after any owner change, including image-only edits.
func (l *Listing) MarkEdited() {
	l.Status = StatusPending
	l.Note = nil
	l.ExpiresAt = nil
}

// Expire moves an approved listing whose window has passed to expired.
func (l *Listing) Expire(now time.Time) error {
	if !l.ExpiredAt(now) {
		return ErrNotExpirable
	}
	l.Status = StatusExpired
	return nil
}

// ExpiredAt reports whether an approved listing is due to expire at now.
func (l *Listing) ExpiredAt(now time.Time) bool {
	return l.Status == StatusApproved && l.ExpiresAt != nil && !now.Before(*l.ExpiresAt)
}

func optionalNote(note string) *string {
	note = strings.TrimSpace(note)
	if note == "" {
		return nil
	}
	return &note
}
