package domain

import "errors"

// Error kinds. Use errors.Is against these to classify failures.
var (
	ErrValidation   = errors.New("validation error")
	ErrConflict     = errors.New("conflict")
	ErrNotFound     = errors.New("not found")
	ErrProvisioning = errors.New("provisioning error")
	ErrGateway      = errors.New("payment gateway error")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
)

// Error pairs a kind with a message that is safe to show to API callers.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Kind
}

func NewError(kind error, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Validation(message string) error   { return NewError(ErrValidation, message) }
func Conflict(message string) error     { return NewError(ErrConflict, message) }
func NotFound(message string) error     { return NewError(ErrNotFound, message) }
func Provisioning(message string) error { return NewError(ErrProvisioning, message) }
func Gateway(message string) error      { return NewError(ErrGateway, message) }

// Message returns the caller-facing message of err, or fallback when err carries none.
func Message(err error, fallback string) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Message
	}
	return fallback
}
