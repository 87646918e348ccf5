package auth

import "nhadat-backend/internal/pkg/apperror"

var (
	ErrMissingToken  = apperror.New(apperror.KindUnauthenticated, "Không có token, truy cập bị từ chối")
	ErrInvalidToken  = apperror.New(apperror.KindUnauthenticated, "Token không hợp lệ")
	ErrAccountLocked = apperror.New(apperror.KindAccountLocked, "Tài khoản đã bị khóa")
	ErrForbidden     = apperror.New(apperror.KindUnauthorized, "Bạn không có quyền truy cập tính năng này")
)
