package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ListingEventType string

const (
	EventCreated  ListingEventType = "CREATED"
	EventUpdated  ListingEventType = "UPDATED"
	EventApproved ListingEventType = "APPROVED"
	EventRejected ListingEventType = "REJECTED"
	EventExpired  ListingEventType = "EXPIRED"
	EventDeleted  ListingEventType = "DELETED"
)

// ListingEvent is one entry of a listing's audit trail. Rows outlive the listing.
type ListingEvent struct {
	ID        uuid.UUID        `gorm:"column:id;type:uuid;primaryKey" json:"_id"`
	ListingID uuid.UUID        `gorm:"column:tin_dang_id;type:uuid;not null;index" json:"tin_dang_id"`
	Type      ListingEventType `gorm:"column:loai_su_kien;type:varchar(20);not null" json:"loai_su_kien"`
	ActorID   *uuid.UUID       `gorm:"column:nguoi_thuc_hien_id;type:uuid" json:"nguoi_thuc_hien_id"`
	Data      datatypes.JSON   `gorm:"column:du_lieu" json:"du_lieu"`
	CreatedAt time.Time        `gorm:"column:ngay_tao;index" json:"ngay_tao"`
}

func (ListingEvent) TableName() string {
	return "tin_dang_su_kien"
}

func (e *ListingEvent) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

// NewListingEvent builds an event with data marshalled to JSON. actor is nil for system sweeps.
func NewListingEvent(listingID uuid.UUID, typ ListingEventType, actor *uuid.UUID, data map[string]interface{}) (*ListingEvent, error) {
	if data == nil {
		data = map[string]interface{}{}
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return &ListingEvent{ListingID: listingID, Type: typ, ActorID: actor, Data: datatypes.JSON(raw)}, nil
}
