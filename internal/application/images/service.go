package images

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"nhadat-backend/internal/application/listingevents"
	"nhadat-backend/internal/domain"
	"nhadat-backend/internal/infrastructure/storage"
	"nhadat-backend/internal/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

var (
	ErrImageNotFound = apperror.New(apperror.KindNotFound, "Không tìm thấy ảnh")
	ErrNotImageOwner = apperror.New(apperror.KindUnauthorized, "Bạn không có quyền xóa ảnh này")
)

// Service manages image associations; the bytes live in Assets.
type Service struct {
	DB     *gorm.DB
	Assets *storage.Assets
}

// SetAvatar stores f and makes it the account's only avatar. Previous avatar
// rows are removed in the same transaction and their files deleted afterwards.
func (s *Service) SetAvatar(ctx context.Context, accountID uuid.UUID, f storage.File) (*domain.Image, error) {
	stored, err := s.Assets.Save(ctx, storage.FolderAvatar, f)
	if err != nil {
		return nil, err
	}
	img := domain.NewAvatarImage(accountID, stored.Ref, stored.Size)
	var old []domain.Image
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("loai_anh = ? AND nguoi_dung_id = ?", domain.ImageKindAvatar, accountID).Find(&old).Error; err != nil {
			return err
		}
		if len(old) > 0 {
			if err := tx.Delete(&domain.Image{}, "loai_anh = ? AND nguoi_dung_id = ?", domain.ImageKindAvatar, accountID).Error; err != nil {
				return err
			}
		}
		return tx.Create(img).Error
	})
	if err != nil {
		s.Assets.RemoveStored(ctx, []storage.Stored{stored})
		return nil, err
	}
	s.Assets.RemoveRefs(ctx, domain.Paths(old)...)
	return img, nil
}

// ListFor returns a listing's gallery ordered by position, or an account's avatar.
func (s *Service) ListFor(ctx context.Context, kind domain.ImageKind, ownerID uuid.UUID) ([]domain.Image, error) {
	var out []domain.Image
	q := s.DB.WithContext(ctx).Where("loai_anh = ?", kind)
	switch kind {
	case domain.ImageKindListing:
		q = q.Where("tin_dang_id = ?", ownerID).Order("thu_tu ASC").Order("ngay_tao ASC")
	case domain.ImageKindAvatar:
		q = q.Where("nguoi_dung_id = ?", ownerID).Order("ngay_tao DESC").Limit(1)
	default:
		return nil, apperror.Validation("Loại ảnh không hợp lệ")
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// Galleries returns the ordered image references of several listings.
func (s *Service) Galleries(ctx context.Context, listingIDs []uuid.UUID) (map[uuid.UUID][]string, error) {
	out := make(map[uuid.UUID][]string, len(listingIDs))
	if len(listingIDs) == 0 {
		return out, nil
	}
	var imgs []domain.Image
	if err := s.DB.WithContext(ctx).
		Where("loai_anh = ? AND tin_dang_id IN ?", domain.ImageKindListing, listingIDs).
		Order("thu_tu ASC").Order("ngay_tao ASC").
		Find(&imgs).Error; err != nil {
		return nil, err
	}
	for _, img := range imgs {
		id := *img.ListingID
		out[id] = append(out[id], img.Path)
	}
	return out, nil
}

// Avatars returns the avatar reference of each account that has one.
func (s *Service) Avatars(ctx context.Context, accountIDs []uuid.UUID) (map[uuid.UUID]string, error) {
	out := make(map[uuid.UUID]string, len(accountIDs))
	if len(accountIDs) == 0 {
		return out, nil
	}
	var imgs []domain.Image
	if err := s.DB.WithContext(ctx).
		Where("loai_anh = ? AND nguoi_dung_id IN ?", domain.ImageKindAvatar, accountIDs).
		Order("ngay_tao ASC").
		Find(&imgs).Error; err != nil {
		return nil, err
	}
	for _, img := range imgs {
		out[*img.AccountID] = img.Path
	}
	return out, nil
}

// Detach removes one image. Gallery images may be removed by the listing owner,
// which counts as an edit and sends the listing back to review; avatars only by
// their account. The file is deleted after the row.
func (s *Service) Detach(ctx context.Context, imageID, callerID uuid.UUID) error {
	var img domain.Image
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", imageID).First(&img).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrImageNotFound
			}
			return err
		}
		switch img.Kind {
		case domain.ImageKindAvatar:
			if img.OwnerID() != callerID {
				return ErrNotImageOwner
			}
		case domain.ImageKindListing:
			var l domain.Listing
			if err := tx.Where("id = ?", img.OwnerID()).First(&l).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrImageNotFound
				}
				return err
			}
			if !l.OwnedBy(callerID) {
				return ErrNotImageOwner
			}
			if l.Status == domain.StatusExpired {
				return domain.ErrListingExpired
			}
			l.MarkEdited()
			if err := SaveModeration(tx, &l); err != nil {
				return err
			}
			if err := listingevents.Record(tx, l.ID, domain.EventUpdated, &callerID, map[string]interface{}{
				"removed_images": []string{img.ID.String()},
			}); err != nil {
				return err
			}
		}
		return tx.Delete(&domain.Image{}, "id = ?", img.ID).Error
	})
	if err != nil {
		return err
	}
	s.Assets.RemoveRefs(ctx, img.Path)
	log.Info().Str("image_id", img.ID.String()).Str("kind", string(img.Kind)).Msg("image detached")
	return nil
}

// SaveModeration writes a listing's status, note and expiry, including nil values.
func SaveModeration(tx *gorm.DB, l *domain.Listing) error {
	l.UpdatedAt = time.Now()
	return tx.Model(l).Select("trang_thai", "ghi_chu", "ngay_het_han", "ngay_cap_nhat").Updates(map[string]interface{}{
		"trang_thai":    l.Status,
		"ghi_chu":       l.Note,
		"ngay_het_han":  l.ExpiresAt,
		"ngay_cap_nhat": l.UpdatedAt,
	}).Error
}

// AppendToListing creates gallery rows after the listing's current highest position.
func AppendToListing(tx *gorm.DB, listingID uuid.UUID, stored []storage.Stored) ([]domain.Image, error) {
	if len(stored) == 0 {
		return nil, nil
	}
	var maxPos sql.NullInt64
	if err := tx.Model(&domain.Image{}).
		Where("loai_anh = ? AND tin_dang_id = ?", domain.ImageKindListing, listingID).
		Select("MAX(thu_tu)").Scan(&maxPos).Error; err != nil {
		return nil, err
	}
	next := 0
	if maxPos.Valid {
		next = int(maxPos.Int64) + 1
	}
	out := make([]domain.Image, 0, len(stored))
	for i, st := range stored {
		img := domain.NewListingImage(listingID, st.Ref, next+i, st.Size)
		if err := tx.Create(img).Error; err != nil {
			return nil, err
		}
		out = append(out, *img)
	}
	return out, nil
}

// RemoveFromListing deletes the given gallery rows of one listing and returns them.
// Ids that belong to other listings or avatars are ignored.
func RemoveFromListing(tx *gorm.DB, listingID uuid.UUID, ids []uuid.UUID) ([]domain.Image, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var imgs []domain.Image
	if err := tx.Where("loai_anh = ? AND tin_dang_id = ? AND id IN ?", domain.ImageKindListing, listingID, ids).Find(&imgs).Error; err != nil {
		return nil, err
	}
	if len(imgs) == 0 {
		return nil, nil
	}
	found := make([]uuid.UUID, 0, len(imgs))
	for _, img := range imgs {
		found = append(found, img.ID)
	}
	if err := tx.Delete(&domain.Image{}, "id IN ?", found).Error; err != nil {
		return nil, err
	}
	return imgs, nil
}

// RemoveAllFromListing deletes every gallery row of a listing and returns them.
func RemoveAllFromListing(tx *gorm.DB, listingID uuid.UUID) ([]domain.Image, error) {
	var imgs []domain.Image
	if err := tx.Where("tin_dang_id = ?", listingID).Find(&imgs).Error; err != nil {
		return nil, err
	}
	if len(imgs) == 0 {
		return nil, nil
	}
	if err := tx.Delete(&domain.Image{}, "tin_dang_id = ?", listingID).Error; err != nil {
		return nil, err
	}
	return imgs, nil
}
