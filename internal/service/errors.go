package service

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// Sentinel errors returned by every service. Handlers map them to HTTP status codes.
var (
	ErrUnauthenticated   = errors.New("authentication required")
	ErrForbidden         = errors.New("access denied")
	ErrNotFound          = errors.New("resource not found")
	ErrValidation        = errors.New("invalid request")
	ErrConflict          = errors.New("conflict with current state")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrPrecondition      = errors.New("precondition failed")
)

// notFound translates gorm.ErrRecordNotFound into ErrNotFound and wraps anything else
func notFound(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return fmt.Errorf("failed to load %s: %w", what, err)
}

func validationf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
