package errors

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
)

// DriverError is a wrapper around errno codes, with a customizable error message.
//
// Derived errors keep their parent in the Unwrap chain, so errors.Is matches the
// sentinel a DriverError was built from as well as any wrapped cause.
type DriverError interface {
	error
	Errno() Errno
	Unwrap() error
	WithMessage(message string) DriverError
	Wrap(err error) DriverError
}

type driverError struct {
	errno         Errno
	message       string
	originalError error
}

// Error implements the `error` object interface. When called, it returns a string
// describing the error.
func (e driverError) Error() string {
	if e.message != "" {
		return e.message
	}
	return StrError(e.errno)
}

func (e driverError) Errno() Errno {
	return e.errno
}

func (e driverError) Unwrap() error {
	return e.originalError
}

// WithMessage returns a new error with the same errno code and `message`
// appended to this error's text.
func (e driverError) WithMessage(message string) DriverError {
	return driverError{
		errno:         e.errno,
		message:       fmt.Sprintf("%s: %s", e.Error(), message),
		originalError: e,
	}
}

// Wrap returns a new error with the same errno code whose chain contains both
// this error and `err`.
func (e driverError) Wrap(err error) DriverError {
	return driverError{
		errno:         e.errno,
		message:       fmt.Sprintf("%s: %s", e.Error(), err.Error()),
		originalError: multierror.Append(e, err),
	}
}

// New creates a new [DriverError] with a default message derived from the
// errno code.
func New(errnoCode Errno) DriverError {
	return driverError{
		errno:   errnoCode,
		message: StrError(errnoCode),
	}
}

func NewFromError(errnoCode Errno, originalError error) DriverError {
	return New(errnoCode).Wrap(originalError)
}

// NewWithMessage creates a new DriverError from an errno code with a custom
// message.
func NewWithMessage(errnoCode Errno, message string) DriverError {
	return New(errnoCode).WithMessage(message)
}

// ErrnoOf returns the errno code carried by the first DriverError in err's
// chain. Errors from outside the driver map to EIO.
func ErrnoOf(err error) Errno {
	if err == nil {
		return EOK
	}
	for current := err; current != nil; {
		if derr, ok := current.(DriverError); ok {
			return derr.Errno()
		}
		unwrapper, ok := current.(interface{ Unwrap() error })
		if !ok {
			break
		}
		current = unwrapper.Unwrap()
	}
	return EIO
}
