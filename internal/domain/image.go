package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrImageOwnerMismatch is returned when an image row's owner columns disagree with its kind.
var ErrImageOwnerMismatch = errors.New("image owner does not match its kind")

// Image links a stored asset to either a listing gallery or an account avatar, never both.
// Build rows with NewListingImage or NewAvatarImage.
type Image struct {
	ID        uuid.UUID  `gorm:"column:id;type:uuid;primaryKey" json:"_id"`
	Kind      ImageKind  `gorm:"column:loai_anh;type:varchar(10);not null" json:"loai_anh"`
	ListingID *uuid.UUID `gorm:"column:tin_dang_id;type:uuid;index" json:"tin_dang_id,omitempty"`
	AccountID *uuid.UUID `gorm:"column:nguoi_dung_id;type:uuid;index" json:"nguoi_dung_id,omitempty"`
	Path      string     `gorm:"column:duong_dan_anh;not null" json:"duong_dan_anh"`
	Position  int        `gorm:"column:thu_tu;not null" json:"thu_tu"`
	SizeBytes int64      `gorm:"column:dung_luong" json:"dung_luong"`
	CreatedAt time.Time  `gorm:"column:ngay_tao" json:"ngay_tao"`
}

func (Image) TableName() string {
	return "images"
}

func NewListingImage(listingID uuid.UUID, path string, position int, size int64) *Image {
	id := listingID
	return &Image{Kind: ImageKindListing, ListingID: &id, Path: path, Position: position, SizeBytes: size}
}

func NewAvatarImage(accountID uuid.UUID, path string, size int64) *Image {
	id := accountID
	return &Image{Kind: ImageKindAvatar, AccountID: &id, Path: path, SizeBytes: size}
}

// OwnerID returns the listing id for gallery images and the account id for avatars.
func (i *Image) OwnerID() uuid.UUID {
	switch i.Kind {
	case ImageKindListing:
		if i.ListingID != nil {
			return *i.ListingID
		}
	case ImageKindAvatar:
		if i.AccountID != nil {
			return *i.AccountID
		}
	}
	return uuid.Nil
}

func (i *Image) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return i.checkOwner()
}

func (i *Image) BeforeSave(tx *gorm.DB) error {
	return i.checkOwner()
}

func (i *Image) checkOwner() error {
	switch i.Kind {
	case ImageKindListing:
		if i.ListingID == nil || *i.ListingID == uuid.Nil || i.AccountID != nil {
			return ErrImageOwnerMismatch
		}
	case ImageKindAvatar:
		if i.AccountID == nil || *i.AccountID == uuid.Nil || i.ListingID != nil {
			return ErrImageOwnerMismatch
		}
	default:
		return ErrImageOwnerMismatch
	}
	return nil
}

// Paths returns the stored references of images in order.
func Paths(images []Image) []string {
	out := make([]string, 0, len(images))
	for _, img := range images {
		out = append(out, img.Path)
	}
	return out
}
