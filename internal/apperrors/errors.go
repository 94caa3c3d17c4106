package apperrors

import (
	"errors"
	"fmt"
)

// Sentinel errors shared by repositories, services and handlers.
// Handlers map each of them to its own status code.
var (
	ErrNotFound           = errors.New("not found")
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrUnknownWriter      = errors.New("unknown writer")
	ErrForbidden          = errors.New("forbidden")
	ErrAlreadyRecommended = errors.New("already recommended")
	ErrNotRecommended     = errors.New("not recommended")
	ErrInvalidInput       = errors.New("invalid input")
)

// PersistenceError wraps a failure of the underlying store.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence error during %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// Persistence wraps err as a PersistenceError unless it already carries one of
// the sentinel errors above, in which case it is returned untouched.
func Persistence(op string, err error) error {
	if err == nil {
		return nil
	}
	if IsDomain(err) {
		return err
	}
	var pe *PersistenceError
	if errors.As(err, &pe) {
		return err
	}
	return &PersistenceError{Op: op, Err: err}
}

// IsDomain reports whether err is one of the sentinel errors.
func IsDomain(err error) bool {
	for _, target := range []error{
		ErrNotFound,
		ErrUnauthenticated,
		ErrUnknownWriter,
		ErrForbidden,
		ErrAlreadyRecommended,
		ErrNotRecommended,
		ErrInvalidInput,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// Invalid returns an ErrInvalidInput carrying a human readable reason.
func Invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
