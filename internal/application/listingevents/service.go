package listingevents

import (
	"context"

	"nhadat-backend/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Service struct {
	DB *gorm.DB
}

// Record appends an audit event using tx, so it commits or rolls back with the change it describes.
func Record(tx *gorm.DB, listingID uuid.UUID, typ domain.ListingEventType, actor *uuid.UUID, data map[string]interface{}) error {
	ev, err := domain.NewListingEvent(listingID, typ, actor, data)
	if err != nil {
		return err
	}
	return tx.Create(ev).Error
}

// ForListing returns a listing's events, oldest first. Events survive listing deletion.
func (s *Service) ForListing(ctx context.Context, listingID uuid.UUID) ([]domain.ListingEvent, error) {
	var events []domain.ListingEvent
	if err := s.DB.WithContext(ctx).Where("tin_dang_id = ?", listingID).Order("ngay_tao ASC").Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}
