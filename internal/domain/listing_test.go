package domain

import (
	"strings"
	"testing"
	"time"

	"nhadat-backend/internal/pkg/apperror"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validFields() ListingFields {
	return ListingFields{
		Title:        "Nhà phố quận 7",
		PropertyType: 1,
		Category:     CategorySale,
		Description:  strings.Repeat("Mô tả chi tiết ", 5),
		Price:        100,
		Address:      "Quận 7, TP.HCM",
	}
}

func TestNewListing_StartsPending(t *testing.T) {
	l, err := NewListing(uuid.New(), validFields())
	require.NoError(t, err)
	assert.Equal(t, StatusPending, l.Status)
	assert.Nil(t, l.ExpiresAt)
	assert.Nil(t, l.Note)
}

func TestListingFields_Validate_CollectsFieldErrors(t *testing.T) {
	f := validFields()
	f.Title = "ngắn"
	f.Description = "quá ngắn"
	f.Price = -1
	f.Category = "thue"
	f.Address = "  "
	neg := -2
	f.Bedrooms = &neg
	err := f.Validate()
	require.Error(t, err)
	e, ok := apperror.As(err)
	require.True(t, ok)
	assert.Equal(t, apperror.KindValidation, e.Kind)
	fields := map[string]bool{}
	for _, fe := range e.Fields {
		fields[fe.Field] = true
	}
	for _, name := range []string{"tieu_de", "mo_ta", "gia", "danh_muc", "dia_chi", "so_phong_ngu"} {
		assert.True(t, fields[name], name)
	}
}

func TestApprove_SetsExpiryExactly(t *testing.T) {
	l, _ := NewListing(uuid.New(), validFields())
	now := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	require.NoError(t, l.Approve(now, "ok"))
	assert.Equal(t, StatusApproved, l.Status)
	require.NotNil(t, l.ExpiresAt)
	assert.Equal(t, now.Add(30*24*time.Hour), *l.ExpiresAt)
	require.NotNil(t, l.Note)
	assert.Equal(t, "ok", *l.Note)
}

func TestApprove_EmptyNoteClears(t *testing.T) {
	l, _ := NewListing(uuid.New(), validFields())
	note := "cũ"
	l.Note = &note
	require.NoError(t, l.Approve(time.Now(), ""))
	assert.Nil(t, l.Note)
}

func TestReject_NeverSetsExpiry(t *testing.T) {
	l, _ := NewListing(uuid.New(), validFields())
	require.NoError(t, l.Reject("thiếu ảnh"))
	assert.Equal(t, StatusRejected, l.Status)
	assert.Nil(t, l.ExpiresAt)
	assert.Equal(t, "thiếu ảnh", *l.Note)
}

func TestModeration_OnlyFromPending(t *testing.T) {
	l, _ := NewListing(uuid.New(), validFields())
	require.NoError(t, l.Approve(time.Now(), ""))
	assert.Equal(t, ErrNotPendingReview, l.Approve(time.Now(), ""))
	assert.Equal(t, ErrNotPendingReview, l.Reject("x"))
	assert.Equal(t, StatusApproved, l.Status)
}

func TestApplyEdit_ResetsToPendingFromAnyNonExpiredState(t *testing.T) {
	price := 250.0
	for _, prep := range []func(*Listing){
		func(l *Listing) {},
		func(l *Listing) { _ = l.Approve(time.Now(), "ok") },
		func(l *Listing) { _ = l.Reject("không đạt") },
	} {
		l, _ := NewListing(uuid.New(), validFields())
		prep(l)
		require.NoError(t, l.ApplyEdit(ListingPatch{Price: &price}))
		assert.Equal(t, StatusPending, l.Status)
		assert.Nil(t, l.Note)
		assert.Nil(t, l.ExpiresAt)
		assert.Equal(t, 250.0, l.Price)
	}
}

func TestApplyEdit_ExpiredFails(t *testing.T) {
	l, _ := NewListing(uuid.New(), validFields())
	now := time.Now()
	require.NoError(t, l.Approve(now, ""))
	require.NoError(t, l.Expire(now.Add(ListingTTL)))
	price := 1.0
	err := l.ApplyEdit(ListingPatch{Price: &price})
	assert.Equal(t, ErrListingExpired, err)
	assert.Equal(t, StatusExpired, l.Status)
	assert.Equal(t, 100.0, l.Price)
}

func TestApplyEdit_InvalidPatchLeavesListingUntouched(t *testing.T) {
	l, _ := NewListing(uuid.New(), validFields())
	require.NoError(t, l.Approve(time.Now(), "ok"))
	short := "ngắn"
	err := l.ApplyEdit(ListingPatch{Title: &short})
	require.Error(t, err)
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))
	assert.Equal(t, StatusApproved, l.Status)
	assert.Equal(t, "Nhà phố quận 7", l.Title)
}

func TestExpire_OnlyWhenDue(t *testing.T) {
	l, _ := NewListing(uuid.New(), validFields())
	now := time.Now()
	assert.Equal(t, ErrNotExpirable, l.Expire(now))
	require.NoError(t, l.Approve(now, ""))
	assert.Equal(t, ErrNotExpirable, l.Expire(now.Add(time.Hour)))
	require.NoError(t, l.Expire(now.Add(ListingTTL)))
	assert.Equal(t, StatusExpired, l.Status)
}

func TestParseListingStatus(t *testing.T) {
	for _, s := range AllStatuses {
		got, ok := ParseListingStatus(string(s))
		assert.True(t, ok)
		assert.Equal(t, s, got)
	}
	_, ok := ParseListingStatus("dang_ban")
	assert.False(t, ok)
}
