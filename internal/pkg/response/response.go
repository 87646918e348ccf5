package response

import (
	"nhadat-backend/internal/pkg/apperror"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// SuccessBody is the standardized success JSON shape.
type SuccessBody struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// ErrorBody is the standardized error JSON shape.
type ErrorBody struct {
	Success bool                  `json:"success"`
	Message string                `json:"message"`
	Code    apperror.Kind         `json:"code,omitempty"`
	Errors  []apperror.FieldError `json:"errors,omitempty"`
	Detail  string                `json:"error,omitempty"`
}

// Generic message for uncategorized failures.
const ServerErrorMessage = "Lỗi server"

// ExposeDetails controls whether internal error text is added to 500 responses.
// The router turns it off in production.
var ExposeDetails = true

// Success sends a 200 OK response with the standard success format.
func Success(c *fiber.Ctx, message string, data interface{}) error {
	return c.Status(fiber.StatusOK).JSON(SuccessBody{Success: true, Message: message, Data: data})
}

// SuccessCreated sends a 201 Created response with the standard success format.
func SuccessCreated(c *fiber.Ctx, message string, data interface{}) error {
	return c.Status(fiber.StatusCreated).JSON(SuccessBody{Success: true, Message: message, Data: data})
}

// Error sends a response with the standard error format.
func Error(c *fiber.Ctx, message string, statusCode int, code apperror.Kind) error {
	return c.Status(statusCode).JSON(ErrorBody{Success: false, Message: message, Code: code})
}

// Unauthorized sends 401 with the same shape as other errors.
func Unauthorized(c *fiber.Ctx, message string) error {
	return Error(c, message, fiber.StatusUnauthorized, apperror.KindUnauthenticated)
}

// Fail maps err to its HTTP status and writes the error envelope.
// Uncategorized errors are logged and reported as a generic server error.
func Fail(c *fiber.Ctx, err error) error {
	e, ok := apperror.As(err)
	if !ok {
		RequestLogger(c).Error().Err(err).Str("path", c.Path()).Str("method", c.Method()).Msg("unhandled error")
		body := ErrorBody{Success: false, Message: ServerErrorMessage, Code: apperror.KindInternal}
		if ExposeDetails {
			body.Detail = err.Error()
		}
		return c.Status(fiber.StatusInternalServerError).JSON(body)
	}
	return c.Status(StatusFor(e.Kind)).JSON(ErrorBody{
		Success: false,
		Message: e.Message,
		Code:    e.Kind,
		Errors:  e.Fields,
	})
}

// StatusFor returns the HTTP status used for an error kind.
func StatusFor(kind apperror.Kind) int {
	switch kind {
	case apperror.KindValidation, apperror.KindProtectedAccount:
		return fiber.StatusBadRequest
	case apperror.KindUnauthenticated, apperror.KindInvalidCredentials:
		return fiber.StatusUnauthorized
	case apperror.KindUnauthorized, apperror.KindAccountLocked:
		return fiber.StatusForbidden
	case apperror.KindNotFound:
		return fiber.StatusNotFound
	case apperror.KindDuplicateIdentity, apperror.KindInvalidTransition:
		return fiber.StatusConflict
	default:
		return fiber.StatusInternalServerError
	}
}

// RequestLogger returns the logger Tracing attached to the request, or the global one.
func RequestLogger(c *fiber.Ctx) *zerolog.Logger {
	if l := zerolog.Ctx(c.UserContext()); l.GetLevel() != zerolog.Disabled {
		return l
	}
	return &log.Logger
}
