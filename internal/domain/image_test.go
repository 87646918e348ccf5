package domain

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupImageDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&Image{}))
	return db
}

func TestImage_ConstructorsPersist(t *testing.T) {
	db := setupImageDB(t)
	listingID, accountID := uuid.New(), uuid.New()
	gallery := NewListingImage(listingID, "/assets/tindang/a.jpg", 2, 10)
	avatar := NewAvatarImage(accountID, "/assets/avatars/b.png", 20)
	require.NoError(t, db.Create(gallery).Error)
	require.NoError(t, db.Create(avatar).Error)
	assert.Equal(t, listingID, gallery.OwnerID())
	assert.Equal(t, accountID, avatar.OwnerID())
}

func TestImage_RejectsDualOwner(t *testing.T) {
	db := setupImageDB(t)
	img := NewListingImage(uuid.New(), "/assets/tindang/a.jpg", 0, 1)
	acc := uuid.New()
	img.AccountID = &acc
	err := db.Create(img).Error
	assert.ErrorIs(t, err, ErrImageOwnerMismatch)
}

func TestImage_RejectsMissingOwner(t *testing.T) {
	db := setupImageDB(t)
	err := db.Create(&Image{Kind: ImageKindAvatar, Path: "/assets/avatars/x.png"}).Error
	assert.ErrorIs(t, err, ErrImageOwnerMismatch)
}

func TestPaths(t *testing.T) {
	imgs := []Image{{Path: "/a"}, {Path: "/b"}}
	assert.Equal(t, []string{"/a", "/b"}, Paths(imgs))
}
