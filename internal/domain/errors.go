package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for the domain layer. The HTTP boundary maps each of them
// to one status code; more specific errors wrap one of these.
var (
	ErrValidation      = errors.New("domain: validation failed")
	ErrUnauthenticated = errors.New("domain: unauthenticated")
	ErrForbidden       = errors.New("domain: forbidden")
	ErrNotFound        = errors.New("domain: not found")
	ErrConflict        = errors.New("domain: conflict")
	ErrLimitReached    = errors.New("domain: plan limit reached")
)

var (
	ErrDuplicateSubdomain = fmt.Errorf("subdomain already exists: %w", ErrConflict)
	ErrDuplicateEmail     = fmt.Errorf("email already exists in this tenant: %w", ErrConflict)
	ErrInvalidReference   = fmt.Errorf("referenced entity does not exist in this tenant: %w", ErrValidation)
	ErrTenantSuspended    = fmt.Errorf("tenant account is suspended or inactive: %w", ErrForbidden)
	ErrUserInactive       = fmt.Errorf("user account is inactive: %w", ErrForbidden)
)

// Invalid returns a validation error with a human-readable reason.
func Invalid(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrValidation)
}

// LimitError reports that a tenant has used up its plan allowance for a resource kind.
type LimitError struct {
	Kind ResourceKind
	Max  int
}

func (e *LimitError) Error() string {
	return fmt.Sprintf("%s limit reached for your plan (Max: %d)", e.Kind.Singular(), e.Max)
}

func (e *LimitError) Is(target error) bool {
	return target == ErrLimitReached
}
