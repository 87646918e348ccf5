package listings

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"nhadat-backend/internal/application/auth"
	"nhadat-backend/internal/application/images"
	"nhadat-backend/internal/application/listingevents"
	"nhadat-backend/internal/domain"
	"nhadat-backend/internal/infrastructure/metrics"
	"nhadat-backend/internal/infrastructure/storage"
	"nhadat-backend/internal/pkg/apperror"
	"nhadat-backend/internal/pkg/pagination"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

var (
	ErrListingNotFound = apperror.New(apperror.KindNotFound, "Không tìm thấy tin đăng")
	ErrNotOwnerEdit    = apperror.New(apperror.KindUnauthorized, "Bạn không có quyền chỉnh sửa tin đăng này")
	ErrNotOwnerDelete  = apperror.New(apperror.KindUnauthorized, "Bạn không có quyền xóa tin đăng này")
	ErrInvalidStatus   = apperror.Validation("Trạng thái không hợp lệ", apperror.FieldError{Field: "trang_thai", Message: "Trạng thái không hợp lệ"})
	ErrInvalidDecision = apperror.Validation("Trạng thái duyệt không hợp lệ", apperror.FieldError{Field: "trang_thai", Message: "Chỉ chấp nhận da_duyet hoặc tu_choi"})
)

type Service struct {
	DB     *gorm.DB
	Images *images.Service
	Now    func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// View is a listing with its gallery and the owner's public profile.
// Owner shadows the embedded owner id in JSON, matching the populated shape clients expect.
type View struct {
	domain.Listing
	Images []string              `json:"images"`
	Owner  *domain.PublicProfile `json:"nguoi_dung_id"`
}

// ListFilter narrows listing queries. Zero values match everything.
type ListFilter struct {
	Category domain.Category
	Status   domain.ListingStatus
	PriceMin *float64
	PriceMax *float64
}

// ParseListFilter reads the raw query values of a listing search.
func ParseListFilter(category, status, priceMin, priceMax string) (ListFilter, error) {
	var f ListFilter
	var errs []apperror.FieldError
	if category = strings.TrimSpace(category); category != "" {
		c, ok := domain.ParseCategory(category)
		if !ok {
			errs = append(errs, apperror.FieldError{Field: "danh_muc", Message: "Danh mục không hợp lệ"})
		}
		f.Category = c
	}
	if status = strings.TrimSpace(status); status != "" {
		st, ok := domain.ParseListingStatus(status)
		if !ok {
			errs = append(errs, apperror.FieldError{Field: "trang_thai", Message: "Trạng thái không hợp lệ"})
		}
		f.Status = st
	}
	parsePrice := func(field, raw string) *float64 {
		if raw = strings.TrimSpace(raw); raw == "" {
			return nil
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v < 0 {
			errs = append(errs, apperror.FieldError{Field: field, Message: "Giá phải là số dương"})
			return nil
		}
		return &v
	}
	f.PriceMin = parsePrice("gia_min", priceMin)
	f.PriceMax = parsePrice("gia_max", priceMax)
	if len(errs) > 0 {
		return ListFilter{}, apperror.Validation("Dữ liệu không hợp lệ", errs...)
	}
	return f, nil
}

func (f ListFilter) apply(q *gorm.DB) *gorm.DB {
	if f.Category != "" {
		q = q.Where("danh_muc = ?", f.Category)
	}
	if f.PriceMin != nil {
		q = q.Where("gia >= ?", *f.PriceMin)
	}
	if f.PriceMax != nil {
		q = q.Where("gia <= ?", *f.PriceMax)
	}
	return q
}

// Create stores the images, then writes the listing, its gallery and a CREATED event in one
// transaction. Stored files are removed again if the transaction fails.
func (s *Service) Create(ctx context.Context, ownerID uuid.UUID, fields domain.ListingFields, files []storage.File) (*View, error) {
	l, err := domain.NewListing(ownerID, fields)
	if err != nil {
		return nil, err
	}
	if err := storage.ValidateImages(files, storage.MaxListingImages); err != nil {
		return nil, err
	}
	stored, err := s.Images.Assets.SaveAll(ctx, storage.FolderListing, files)
	if err != nil {
		return nil, err
	}

	tx := s.DB.WithContext(ctx).Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			s.Images.Assets.RemoveStored(ctx, stored)
			panic(r)
		}
	}()
	fail := func(err error) (*View, error) {
		tx.Rollback()
		s.Images.Assets.RemoveStored(ctx, stored)
		return nil, err
	}
	if err := tx.Create(l).Error; err != nil {
		return fail(err)
	}
	if _, err := images.AppendToListing(tx, l.ID, stored); err != nil {
		return fail(err)
	}
	if err := listingevents.Record(tx, l.ID, domain.EventCreated, &ownerID, map[string]interface{}{
		"gia":      l.Price,
		"danh_muc": l.Category,
		"images":   len(stored),
	}); err != nil {
		return fail(err)
	}
	if err := tx.Commit().Error; err != nil {
		s.Images.Assets.RemoveStored(ctx, stored)
		return nil, err
	}
	metrics.Transition("created")
	log.Info().Str("listing_id", l.ID.String()).Str("owner_id", ownerID.String()).Int("images", len(stored)).Msg("listing created")
	return s.view(ctx, l)
}

// UpdateInput is an owner edit: changed fields, gallery images to drop and new uploads to append.
type UpdateInput struct {
	Patch          domain.ListingPatch
	ImagesToDelete []uuid.UUID
	Files          []storage.File
}

// Update applies an owner edit. Any successful edit sends the listing back to review.
func (s *Service) Update(ctx context.Context, id, callerID uuid.UUID, in UpdateInput) (*View, error) {
	l, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !l.OwnedBy(callerID) {
		return nil, ErrNotOwnerEdit
	}
	if err := l.ApplyEdit(in.Patch); err != nil {
		return nil, err
	}
	if err := storage.ValidateImages(in.Files, storage.MaxListingImages); err != nil {
		return nil, err
	}
	stored, err := s.Images.Assets.SaveAll(ctx, storage.FolderListing, in.Files)
	if err != nil {
		return nil, err
	}

	var removed []domain.Image
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Guarded on status so a concurrent expiry sweep wins over the edit.
		res := tx.Model(l).Where("trang_thai <> ?", domain.StatusExpired).
			Select("*").Omit("id", "nguoi_dung_id", "ngay_tao").
			Updates(l)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrListingExpired
		}
		var err error
		if removed, err = images.RemoveFromListing(tx, l.ID, in.ImagesToDelete); err != nil {
			return err
		}
		if _, err := images.AppendToListing(tx, l.ID, stored); err != nil {
			return err
		}
		removedIDs := make([]string, 0, len(removed))
		for _, img := range removed {
			removedIDs = append(removedIDs, img.ID.String())
		}
		return listingevents.Record(tx, l.ID, domain.EventUpdated, &callerID, map[string]interface{}{
			"removed_images": removedIDs,
			"added_images":   len(stored),
		})
	})
	if err != nil {
		s.Images.Assets.RemoveStored(ctx, stored)
		return nil, err
	}
	s.Images.Assets.RemoveRefs(ctx, domain.Paths(removed)...)
	metrics.Transition("updated")
	return s.view(ctx, l)
}

// Get returns one listing. Listings that are not approved are only visible to their
// owner and to staff; everyone else gets not found.
func (s *Service) Get(ctx context.Context, id uuid.UUID, viewer *auth.Principal) (*View, error) {
	l, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !visibleTo(l, viewer) {
		return nil, ErrListingNotFound
	}
	return s.view(ctx, l)
}

func visibleTo(l *domain.Listing, viewer *auth.Principal) bool {
	if l.Status == domain.StatusApproved {
		return true
	}
	if viewer == nil {
		return false
	}
	return l.OwnedBy(viewer.AccountID) || viewer.Role.IsModerator()
}

// List is the public search. Only approved listings are returned unless a staff or
// admin viewer asks for another status.
func (s *Service) List(ctx context.Context, f ListFilter, viewer *auth.Principal, p pagination.Page) ([]View, pagination.Info, error) {
	status := domain.StatusApproved
	if f.Status != "" && viewer != nil && viewer.Role.IsModerator() {
		status = f.Status
	}
	q := f.apply(s.DB.WithContext(ctx).Model(&domain.Listing{})).Where("trang_thai = ?", status)
	return s.page(ctx, q, p)
}

// ListMine returns the owner's listings in any status, optionally filtered.
func (s *Service) ListMine(ctx context.Context, ownerID uuid.UUID, status domain.ListingStatus, p pagination.Page) ([]View, pagination.Info, error) {
	q := s.DB.WithContext(ctx).Model(&domain.Listing{}).Where("nguoi_dung_id = ?", ownerID)
	if status != "" {
		q = q.Where("trang_thai = ?", status)
	}
	return s.page(ctx, q, p)
}

// ListForReview is the staff queue. An empty status lists every listing.
func (s *Service) ListForReview(ctx context.Context, status domain.ListingStatus, p pagination.Page) ([]View, pagination.Info, error) {
	q := s.DB.WithContext(ctx).Model(&domain.Listing{})
	if status != "" {
		q = q.Where("trang_thai = ?", status)
	}
	return s.page(ctx, q, p)
}

func (s *Service) page(ctx context.Context, q *gorm.DB, p pagination.Page) ([]View, pagination.Info, error) {
	p = p.Normalize()
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, pagination.Info{}, err
	}
	var ls []domain.Listing
	if err := q.Order("ngay_tao DESC").Offset(p.Offset()).Limit(p.Limit).Find(&ls).Error; err != nil {
		return nil, pagination.Info{}, err
	}
	views, err := s.views(ctx, ls)
	if err != nil {
		return nil, pagination.Info{}, err
	}
	return views, pagination.NewInfo(p, total), nil
}

// Moderate approves or rejects a pending listing. The write is conditional on the
// listing still being pending, so of two racing moderators only one succeeds.
func (s *Service) Moderate(ctx context.Context, id uuid.UUID, decision domain.Decision, note string, actorID uuid.UUID) (*View, error) {
	var l domain.Listing
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", id).First(&l).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrListingNotFound
			}
			return err
		}
		event := domain.EventApproved
		var err error
		switch decision {
		case domain.DecisionApprove:
			err = l.Approve(s.now(), note)
		case domain.DecisionReject:
			event = domain.EventRejected
			err = l.Reject(note)
		default:
			return ErrInvalidDecision
		}
		if err != nil {
			return err
		}
		l.UpdatedAt = s.now()
		res := tx.Model(&domain.Listing{}).
			Where("id = ? AND trang_thai = ?", l.ID, domain.StatusPending).
			Updates(map[string]interface{}{
				"trang_thai":    l.Status,
				"ghi_chu":       l.Note,
				"ngay_het_han":  l.ExpiresAt,
				"ngay_cap_nhat": l.UpdatedAt,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrNotPendingReview
		}
		return listingevents.Record(tx, l.ID, event, &actorID, map[string]interface{}{
			"ghi_chu":      l.Note,
			"ngay_het_han": l.ExpiresAt,
		})
	})
	if err != nil {
		return nil, err
	}
	metrics.Transition(string(l.Status))
	log.Info().Str("listing_id", l.ID.String()).Str("actor_id", actorID.String()).Str("status", string(l.Status)).Msg("listing moderated")
	return s.view(ctx, &l)
}

// Delete removes an owner's listing in any state together with its gallery rows.
// Files are deleted after the commit; failures there are only logged.
func (s *Service) Delete(ctx context.Context, id, callerID uuid.UUID) error {
	tx := s.DB.WithContext(ctx).Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()
	var l domain.Listing
	if err := tx.Where("id = ?", id).First(&l).Error; err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrListingNotFound
		}
		return err
	}
	if !l.OwnedBy(callerID) {
		tx.Rollback()
		return ErrNotOwnerDelete
	}
	removed, err := images.RemoveAllFromListing(tx, l.ID)
	if err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Delete(&domain.Listing{}, "id = ?", l.ID).Error; err != nil {
		tx.Rollback()
		return err
	}
	if err := listingevents.Record(tx, l.ID, domain.EventDeleted, &callerID, map[string]interface{}{
		"tieu_de":    l.Title,
		"trang_thai": l.Status,
		"images":     len(removed),
	}); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit().Error; err != nil {
		return err
	}
	s.Images.Assets.RemoveRefs(ctx, domain.Paths(removed)...)
	metrics.Transition("deleted")
	log.Info().Str("listing_id", l.ID.String()).Str("owner_id", callerID.String()).Msg("listing deleted")
	return nil
}

// ExpireDue moves every approved listing whose window has passed at now to expired
// and returns how many were changed.
func (s *Service) ExpireDue(ctx context.Context, now time.Time) (int, error) {
	var due []domain.Listing
	if err := s.DB.WithContext(ctx).
		Where("trang_thai = ? AND ngay_het_han IS NOT NULL AND ngay_het_han <= ?", domain.StatusApproved, now).
		Find(&due).Error; err != nil {
		return 0, err
	}
	expired := 0
	for i := range due {
		l := &due[i]
		if err := l.Expire(now); err != nil {
			continue
		}
		err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			res := tx.Model(&domain.Listing{}).
				Where("id = ? AND trang_thai = ?", l.ID, domain.StatusApproved).
				Updates(map[string]interface{}{"trang_thai": domain.StatusExpired, "ngay_cap_nhat": now})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return domain.ErrNotExpirable
			}
			return listingevents.Record(tx, l.ID, domain.EventExpired, nil, map[string]interface{}{
				"ngay_het_han": l.ExpiresAt,
			})
		})
		if errors.Is(err, domain.ErrNotExpirable) {
			continue
		}
		if err != nil {
			return expired, err
		}
		expired++
		metrics.Transition(string(domain.StatusExpired))
	}
	if expired > 0 {
		log.Info().Int("count", expired).Msg("listings expired")
	}
	return expired, nil
}

// Events returns a listing's audit trail. Deleted listings keep their events.
func (s *Service) Events(ctx context.Context, id uuid.UUID) ([]domain.ListingEvent, error) {
	events, err := (&listingevents.Service{DB: s.DB}).ForListing(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(events) == 0 {
		if _, err := s.find(ctx, id); err != nil {
			return nil, err
		}
	}
	return events, nil
}

func (s *Service) find(ctx context.Context, id uuid.UUID) (*domain.Listing, error) {
	var l domain.Listing
	if err := s.DB.WithContext(ctx).Where("id = ?", id).First(&l).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrListingNotFound
		}
		return nil, err
	}
	return &l, nil
}

func (s *Service) view(ctx context.Context, l *domain.Listing) (*View, error) {
	views, err := s.views(ctx, []domain.Listing{*l})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// views joins galleries, owners and owner avatars onto ls in three queries.
func (s *Service) views(ctx context.Context, ls []domain.Listing) ([]View, error) {
	out := make([]View, 0, len(ls))
	if len(ls) == 0 {
		return out, nil
	}
	listingIDs := make([]uuid.UUID, 0, len(ls))
	ownerIDs := make([]uuid.UUID, 0, len(ls))
	seen := make(map[uuid.UUID]bool)
	for _, l := range ls {
		listingIDs = append(listingIDs, l.ID)
		if !seen[l.OwnerID] {
			seen[l.OwnerID] = true
			ownerIDs = append(ownerIDs, l.OwnerID)
		}
	}
	galleries, err := s.Images.Galleries(ctx, listingIDs)
	if err != nil {
		return nil, err
	}
	avatars, err := s.Images.Avatars(ctx, ownerIDs)
	if err != nil {
		return nil, err
	}
	var owners []domain.Account
	if err := s.DB.WithContext(ctx).Where("id IN ?", ownerIDs).Find(&owners).Error; err != nil {
		return nil, err
	}
	profiles := make(map[uuid.UUID]*domain.PublicProfile, len(owners))
	for i := range owners {
		var avatar *string
		if ref, ok := avatars[owners[i].ID]; ok {
			avatar = &ref
		}
		p := owners[i].PublicProfile(avatar)
		profiles[owners[i].ID] = &p
	}
	for _, l := range ls {
		gallery := galleries[l.ID]
		if gallery == nil {
			gallery = []string{}
		}
		out = append(out, View{Listing: l, Images: gallery, Owner: profiles[l.OwnerID]})
	}
	return out, nil
}
