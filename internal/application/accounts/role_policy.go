package accounts

import (
	"nhadat-backend/internal/domain"
	"nhadat-backend/internal/pkg/apperror"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrLastAdmin = apperror.New(apperror.KindProtectedAccount, "Hệ thống phải có ít nhất một quản trị viên")

// validateRoleChange enforces the role governance rules inside tx: nobody changes
// their own role, and the last admin cannot be demoted.
func validateRoleChange(tx *gorm.DB, actorID uuid.UUID, target *domain.Account, newRole domain.Role) error {
	if actorID == target.ID {
		return ErrCannotChangeOwnRole
	}
	if target.Role != domain.RoleAdmin || newRole == domain.RoleAdmin {
		return nil
	}
	var admins int64
	if err := tx.Model(&domain.Account{}).Where("vai_tro = ?", domain.RoleAdmin).Count(&admins).Error; err != nil {
		return err
	}
	if admins <= 1 {
		return ErrLastAdmin
	}
	return nil
}
