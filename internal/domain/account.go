package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Account is a registered user. Username and email never change after registration.
type Account struct {
	ID           uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Username     string    `gorm:"column:ten_dang_nhap;size:50;not null;uniqueIndex" json:"ten_dang_nhap"`
	PasswordHash string    `gorm:"column:mat_khau;not null" json:"-"`
	Email        string    `gorm:"column:email;size:255;not null;uniqueIndex" json:"email"`
	Phone        string    `gorm:"column:so_dien_thoai;size:15" json:"so_dien_thoai"`
	FullName     string    `gorm:"column:ho_ten;size:100" json:"ho_ten"`
	Address      string    `gorm:"column:dia_chi;size:500" json:"dia_chi"`
	Role         Role      `gorm:"column:vai_tro;type:varchar(20);not null;default:'nguoi_dung';index" json:"vai_tro"`
	Lock         LockState `gorm:"column:trang_thai;type:varchar(10);not null;default:'unlock';index" json:"trang_thai"`
	CreatedAt    time.Time `gorm:"column:ngay_tao" json:"ngay_tao"`
	UpdatedAt    time.Time `gorm:"column:ngay_cap_nhat" json:"ngay_cap_nhat"`
}

func (Account) TableName() string {
	return "users"
}

// BeforeCreate sets the id and fills role/lock defaults.
func (a *Account) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.Role == "" {
		a.Role = RoleUser
	}
	if a.Lock == "" {
		a.Lock = Unlocked
	}
	return nil
}

func (a *Account) IsLocked() bool {
	return a.Lock == Locked
}

// PublicProfile is the owner view embedded in listing responses.
type PublicProfile struct {
	ID       uuid.UUID `json:"_id"`
	FullName string    `json:"ho_ten"`
	Email    string    `json:"email"`
	Phone    string    `json:"so_dien_thoai,omitempty"`
	Role     Role      `json:"vai_tro,omitempty"`
	Lock     LockState `json:"trang_thai,omitempty"`
	Avatar   *string   `json:"avatar,omitempty"`
}

func (a *Account) PublicProfile(avatar *string) PublicProfile {
	return PublicProfile{
		ID:       a.ID,
		FullName: a.FullName,
		Email:    a.Email,
		Phone:    a.Phone,
		Role:     a.Role,
		Lock:     a.Lock,
		Avatar:   avatar,
	}
}
