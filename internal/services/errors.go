package services

import (
	"errors"
	"fmt"

	"github.com/tinytitans-bjj/community-backend/internal/identity"
	"github.com/tinytitans-bjj/community-backend/internal/repository"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrForbidden       = errors.New("forbidden")
	ErrInvalidInput    = errors.New("invalid input")
	ErrPayloadTooLarge = errors.New("payload too large")
	ErrQuotaExceeded   = errors.New("attachment limit reached")
	ErrThreadLocked    = errors.New("thread is locked")
	ErrTooManyAttempts = errors.New("too many incorrect PIN attempts")

	// ErrUnverified is also an ErrForbidden.
	ErrUnverified = fmt.Errorf("location PIN not verified: %w", ErrForbidden)
)

// UnverifiedError is returned when a principal has no live grant for a
// location. It matches ErrUnverified and ErrForbidden.
type UnverifiedError struct {
	Slug string
}

func (e *UnverifiedError) Error() string {
	return fmt.Sprintf("location PIN not verified for %s", e.Slug)
}

func (e *UnverifiedError) Unwrap() error {
	return ErrUnverified
}

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

func notFound(what string) error {
	return fmt.Errorf("%s %w", what, ErrNotFound)
}

// storeErr maps repository.ErrNotFound to a NotFound naming the missing entity.
func storeErr(err error, what string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return notFound(what)
	}
	return err
}

func requireAdmin(policy *identity.AdministratorPolicy, p identity.Principal) error {
	if err := policy.Require(p); err != nil {
		return fmt.Errorf("%w: %v", ErrForbidden, err)
	}
	return nil
}
