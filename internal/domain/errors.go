package domain

import "errors"

var (
	ErrValidation      = errors.New("validation error")
	ErrCapacity        = errors.New("not enough spots left on tour")
	ErrDeadline        = errors.New("booking window is closed")
	ErrExternalService = errors.New("external service error")
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrForbidden       = errors.New("forbidden")
)

// Error kinds returned to API clients.
const (
	KindValidation      = "validation_error"
	KindCapacity        = "capacity_error"
	KindDeadline        = "deadline_error"
	KindExternalService = "external_service_error"
	KindNotFound        = "not_found"
	KindConflict        = "conflict"
	KindForbidden       = "forbidden"
	KindInternal        = "internal_error"
)

// ErrorKind maps an error to its taxonomy kind. Unknown errors are internal.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrCapacity):
		return KindCapacity
	case errors.Is(err, ErrDeadline):
		return KindDeadline
	case errors.Is(err, ErrExternalService):
		return KindExternalService
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrConflict):
		return KindConflict
	case errors.Is(err, ErrForbidden):
		return KindForbidden
	default:
		return KindInternal
	}
}
