package accounts

import (
	"context"
	"errors"
	"strings"

	"nhadat-backend/internal/application/auth"
	"nhadat-backend/internal/domain"
	"nhadat-backend/internal/pkg/apperror"
	"nhadat-backend/internal/pkg/pagination"
	"nhadat-backend/internal/pkg/validation"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrAccountNotFound     = apperror.New(apperror.KindNotFound, "Không tìm thấy người dùng")
	ErrDuplicateIdentity   = apperror.New(apperror.KindDuplicateIdentity, "Email hoặc tên đăng nhập đã tồn tại")
	ErrInvalidCredentials  = apperror.New(apperror.KindInvalidCredentials, "Tên đăng nhập hoặc mật khẩu không đúng")
	ErrInvalidRole         = apperror.Validation("Vai trò không hợp lệ", apperror.FieldError{Field: "vai_tro", Message: "Vai trò không hợp lệ"})
	ErrProtectedAccount    = apperror.New(apperror.KindProtectedAccount, "Không thể khóa tài khoản admin")
	ErrCannotChangeOwnRole = apperror.New(apperror.KindProtectedAccount, "Không thể thay đổi vai trò của chính mình")
)

// DefaultBcryptCost is used when Service.BcryptCost is zero.
const DefaultBcryptCost = 10

// Service owns the account table.
type Service struct {
	DB         *gorm.DB
	Tokens     *auth.TokenIssuer
	BcryptCost int
}

// RegisterInput is the registration form.
type RegisterInput struct {
	Username string `json:"ten_dang_nhap"`
	Password string `json:"mat_khau"`
	Email    string `json:"email"`
	Phone    string `json:"so_dien_thoai"`
	FullName string `json:"ho_ten"`
	Address  string `json:"dia_chi"`
}

func (in RegisterInput) validate() error {
	var errs []apperror.FieldError
	if !validation.IsValidUsername(in.Username) {
		errs = append(errs, apperror.FieldError{Field: "ten_dang_nhap", Message: "Tên đăng nhập phải từ 3-50 ký tự"})
	}
	if !validation.IsValidPassword(in.Password) {
		errs = append(errs, apperror.FieldError{Field: "mat_khau", Message: "Mật khẩu phải ít nhất 6 ký tự"})
	}
	if !validation.IsValidEmail(in.Email) {
		errs = append(errs, apperror.FieldError{Field: "email", Message: "Email không hợp lệ"})
	}
	if !validation.IsValidPhone(in.Phone) {
		errs = append(errs, apperror.FieldError{Field: "so_dien_thoai", Message: "Số điện thoại không hợp lệ"})
	}
	if !validation.LengthBetween(in.FullName, 0, validation.FullnameMax) {
		errs = append(errs, apperror.FieldError{Field: "ho_ten", Message: "Họ tên không được quá 100 ký tự"})
	}
	if !validation.LengthBetween(in.Address, 0, validation.AddressMax) {
		errs = append(errs, apperror.FieldError{Field: "dia_chi", Message: "Địa chỉ không được quá 500 ký tự"})
	}
	if len(errs) > 0 {
		return apperror.Validation("Dữ liệu không hợp lệ", errs...)
	}
	return nil
}

func (s *Service) cost() int {
	if s.BcryptCost > 0 {
		return s.BcryptCost
	}
	return DefaultBcryptCost
}

// Register creates an ordinary, unlocked account. The password is stored only as a bcrypt hash.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*domain.Account, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = validation.NormalizeEmail(in.Email)
	in.FullName = strings.TrimSpace(in.FullName)
	in.Phone = strings.TrimSpace(in.Phone)
	in.Address = strings.TrimSpace(in.Address)
	if err := in.validate(); err != nil {
		return nil, err
	}

	var count int64
	if err := s.DB.WithContext(ctx).Model(&domain.Account{}).
		Where("email = ? OR ten_dang_nhap = ?", in.Email, in.Username).
		Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrDuplicateIdentity
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost())
	if err != nil {
		return nil, err
	}
	acc := &domain.Account{
		Username:     in.Username,
		PasswordHash: string(hash),
		Email:        in.Email,
		Phone:        in.Phone,
		FullName:     in.FullName,
		Address:      in.Address,
		Role:         domain.RoleUser,
		Lock:         domain.Unlocked,
	}
	if err := s.DB.WithContext(ctx).Create(acc).Error; err != nil {
		// Lost a race with a concurrent registration of the same identity.
		if s.identityTaken(ctx, in.Email, in.Username) {
			return nil, ErrDuplicateIdentity
		}
		return nil, err
	}
	log.Info().Str("account_id", acc.ID.String()).Str("username", acc.Username).Msg("account registered")
	return acc, nil
}

func (s *Service) identityTaken(ctx context.Context, email, username string) bool {
	var count int64
	err := s.DB.WithContext(ctx).Model(&domain.Account{}).
		Where("email = ? OR ten_dang_nhap = ?", email, username).
		Count(&count).Error
	return err == nil && count > 0
}

// Session is a successful login.
type Session struct {
	Account *domain.Account
	Token   string
}

// Authenticate checks the lock state before the password, then issues a bearer token.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*Session, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, apperror.Validation("Dữ liệu không hợp lệ",
			apperror.FieldError{Field: "ten_dang_nhap", Message: "Tên đăng nhập không được để trống"},
			apperror.FieldError{Field: "mat_khau", Message: "Mật khẩu không được để trống"})
	}
	var acc domain.Account
	if err := s.DB.WithContext(ctx).Where("ten_dang_nhap = ?", username).First(&acc).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if acc.IsLocked() {
		return nil, auth.ErrAccountLocked
	}
	if err := bcrypt.CompareHashAndPassword([]byte(acc.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	token, _, err := s.Tokens.Issue(acc.ID)
	if err != nil {
		return nil, err
	}
	return &Session{Account: &acc, Token: token}, nil
}

// IssueToken returns a bearer token for an already-verified account (used right after registration).
func (s *Service) IssueToken(acc *domain.Account) (string, error) {
	token, _, err := s.Tokens.Issue(acc.ID)
	return token, err
}

func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	var acc domain.Account
	if err := s.DB.WithContext(ctx).Where("id = ?", id).First(&acc).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	return &acc, nil
}

// Profile is an account with its avatar reference.
type Profile struct {
	User   *domain.Account `json:"user"`
	Avatar *string         `json:"avatar"`
}

func (s *Service) Profile(ctx context.Context, id uuid.UUID) (*Profile, error) {
	acc, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	avatar, err := s.avatarRef(ctx, id)
	if err != nil {
		return nil, err
	}
	return &Profile{User: acc, Avatar: avatar}, nil
}

func (s *Service) avatarRef(ctx context.Context, id uuid.UUID) (*string, error) {
	var img domain.Image
	err := s.DB.WithContext(ctx).
		Where("loai_anh = ? AND nguoi_dung_id = ?", domain.ImageKindAvatar, id).
		Order("ngay_tao DESC").First(&img).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &img.Path, nil
}

// ProfileInput holds owner-editable profile fields; nil means unchanged.
// Username and email are not editable.
type ProfileInput struct {
	FullName *string `json:"ho_ten"`
	Phone    *string `json:"so_dien_thoai"`
	Address  *string `json:"dia_chi"`
}

func (s *Service) UpdateProfile(ctx context.Context, id uuid.UUID, in ProfileInput) (*Profile, error) {
	upd := map[string]interface{}{}
	var errs []apperror.FieldError
	if in.FullName != nil {
		v := strings.TrimSpace(*in.FullName)
		if !validation.LengthBetween(v, 0, validation.FullnameMax) {
			errs = append(errs, apperror.FieldError{Field: "ho_ten", Message: "Họ tên không được quá 100 ký tự"})
		}
		upd["ho_ten"] = v
	}
	if in.Phone != nil {
		v := strings.TrimSpace(*in.Phone)
		if !validation.IsValidPhone(v) {
			errs = append(errs, apperror.FieldError{Field: "so_dien_thoai", Message: "Số điện thoại không hợp lệ"})
		}
		upd["so_dien_thoai"] = v
	}
	if in.Address != nil {
		v := strings.TrimSpace(*in.Address)
		if !validation.LengthBetween(v, 0, validation.AddressMax) {
			errs = append(errs, apperror.FieldError{Field: "dia_chi", Message: "Địa chỉ không được quá 500 ký tự"})
		}
		upd["dia_chi"] = v
	}
	if len(errs) > 0 {
		return nil, apperror.Validation("Dữ liệu không hợp lệ", errs...)
	}

	acc, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(upd) > 0 {
		if err := s.DB.WithContext(ctx).Model(acc).Updates(upd).Error; err != nil {
			return nil, err
		}
	}
	return s.Profile(ctx, id)
}

// SetRole changes an account's role under the rules of validateRoleChange.
func (s *Service) SetRole(ctx context.Context, actorID, targetID uuid.UUID, role string) (*domain.Account, error) {
	newRole, ok := domain.ParseRole(role)
	if !ok {
		return nil, ErrInvalidRole
	}
	var acc domain.Account
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", targetID).First(&acc).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrAccountNotFound
			}
			return err
		}
		if err := validateRoleChange(tx, actorID, &acc, newRole); err != nil {
			return err
		}
		return tx.Model(&acc).Update("vai_tro", newRole).Error
	})
	if err != nil {
		return nil, err
	}
	acc.Role = newRole
	log.Info().Str("actor_id", actorID.String()).Str("account_id", targetID.String()).Str("role", string(newRole)).Msg("account role changed")
	return &acc, nil
}

// ToggleLock flips lock state. Admin accounts can never be locked this way.
func (s *Service) ToggleLock(ctx context.Context, targetID uuid.UUID) (*domain.Account, error) {
	acc, err := s.GetByID(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if acc.Role == domain.RoleAdmin {
		return nil, ErrProtectedAccount
	}
	next := acc.Lock.Toggled()
	// Conditional on role so a concurrent promotion to admin is not overridden.
	res := s.DB.WithContext(ctx).Model(&domain.Account{}).
		Where("id = ? AND vai_tro <> ?", acc.ID, domain.RoleAdmin).
		Update("trang_thai", next)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrProtectedAccount
	}
	acc.Lock = next
	return acc, nil
}

// ListFilter narrows the admin account list; empty fields match everything.
type ListFilter struct {
	Role string
	Lock string
}

func (s *Service) List(ctx context.Context, f ListFilter, p pagination.Page) ([]domain.Account, pagination.Info, error) {
	p = p.Normalize()
	q := s.DB.WithContext(ctx).Model(&domain.Account{})
	if f.Role != "" {
		r, ok := domain.ParseRole(f.Role)
		if !ok {
			return nil, pagination.Info{}, ErrInvalidRole
		}
		q = q.Where("vai_tro = ?", r)
	}
	if f.Lock != "" {
		l, ok := domain.ParseLockState(f.Lock)
		if !ok {
			return nil, pagination.Info{}, apperror.Validation("Trạng thái không hợp lệ")
		}
		q = q.Where("trang_thai = ?", l)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, pagination.Info{}, err
	}
	var out []domain.Account
	if err := q.Order("ngay_tao DESC").Offset(p.Offset()).Limit(p.Limit).Find(&out).Error; err != nil {
		return nil, pagination.Info{}, err
	}
	return out, pagination.NewInfo(p, total), nil
}

// EnsureAdmin creates the admin account or promotes an existing one with that username.
// An existing password is kept unless it is empty.
func (s *Service) EnsureAdmin(ctx context.Context, username, password, email string) (*domain.Account, bool, error) {
	username = strings.TrimSpace(username)
	email = validation.NormalizeEmail(email)
	if !validation.IsValidUsername(username) || !validation.IsValidEmail(email) || !validation.IsValidPassword(password) {
		return nil, false, apperror.Validation("Dữ liệu không hợp lệ")
	}
	var acc domain.Account
	err := s.DB.WithContext(ctx).Where("ten_dang_nhap = ?", username).First(&acc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost())
		if err != nil {
			return nil, false, err
		}
		acc = domain.Account{
			Username:     username,
			PasswordHash: string(hash),
			Email:        email,
			FullName:     "Admin",
			Role:         domain.RoleAdmin,
			Lock:         domain.Unlocked,
		}
		if err := s.DB.WithContext(ctx).Create(&acc).Error; err != nil {
			return nil, false, err
		}
		return &acc, true, nil
	}
	if err != nil {
		return nil, false, err
	}
	upd := map[string]interface{}{"vai_tro": domain.RoleAdmin, "trang_thai": domain.Unlocked}
	if acc.PasswordHash == "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost())
		if err != nil {
			return nil, false, err
		}
		upd["mat_khau"] = string(hash)
	}
	if err := s.DB.WithContext(ctx).Model(&acc).Updates(upd).Error; err != nil {
		return nil, false, err
	}
	updated, err := s.GetByID(ctx, acc.ID)
	return updated, false, err
}
