package middleware

import (
	"errors"

	"nhadat-backend/internal/pkg/apperror"
	"nhadat-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandler is the global error handler. Returns the standard error format.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		kind := apperror.KindInternal
		switch {
		case fe.Code == fiber.StatusNotFound:
			kind = apperror.KindNotFound
		case fe.Code < fiber.StatusInternalServerError:
			kind = apperror.KindValidation
		}
		return response.Error(c, fe.Message, fe.Code, kind)
	}
	return response.Fail(c, err)
}
