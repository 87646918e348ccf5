package apperror

import "errors"

// Kind is the error category surfaced to API clients in the "code" field.
type Kind string

const (
	KindValidation         Kind = "VALIDATION_ERROR"
	KindNotFound           Kind = "NOT_FOUND"
	KindUnauthenticated    Kind = "UNAUTHENTICATED"
	KindUnauthorized       Kind = "UNAUTHORIZED"
	KindAccountLocked      Kind = "ACCOUNT_LOCKED"
	KindDuplicateIdentity  Kind = "DUPLICATE_IDENTITY"
	KindInvalidTransition  Kind = "INVALID_TRANSITION"
	KindInvalidCredentials Kind = "INVALID_CREDENTIALS"
	KindProtectedAccount   Kind = "PROTECTED_ACCOUNT"
	KindInternal           Kind = "INTERNAL"
)

// FieldError is a single form-field message, suitable for form redisplay.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error is a categorized, user-presentable failure. Services declare sentinels
// with New and compare them with errors.Is.
type Error struct {
	Kind    Kind
	Message string
	Fields  []FieldError
}

func (e *Error) Error() string {
	return e.Message
}

// New returns a categorized error with a human-readable message.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Validation returns a validation error carrying field-level messages.
func Validation(message string, fields ...FieldError) *Error {
	return &Error{Kind: KindValidation, Message: message, Fields: fields}
}

// As extracts the *Error from err, if any.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// KindOf returns the category of err; uncategorized errors are KindInternal.
func KindOf(err error) Kind {
	if e, ok := As(err); ok {
		return e.Kind
	}
	return KindInternal
}
