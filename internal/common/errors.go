// Package common defines sentinel errors and small helpers shared by the
// repositories, services and transports of confkeeper. Callers should use
// errors.Is to match these values.
package common

import (
	"context"
	"errors"
	"fmt"
)

var (

	// repository specific errors
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")
	ErrCapacityFull    = errors.New("capacity reached")
	ErrNotRegistered   = errors.New("not registered")
	ErrVersionConflict = errors.New("version conflict")

	// service specific errors
	ErrorValidation     = errors.New("validation error")
	ErrorInternal       = errors.New("internal error")
	ErrorUnauthorized   = errors.New("unauthorized")
	ErrForbidden        = errors.New("forbidden")
	ErrStoreUnavailable = errors.New("store unavailable")

	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

// domainErrors are the kinds that pass through StoreError untouched.
var domainErrors = []error{
	ErrorNotFound,
	ErrorAlreadyExists,
	ErrCapacityFull,
	ErrNotRegistered,
	ErrVersionConflict,
	ErrorValidation,
	ErrorUnauthorized,
	ErrForbidden,
	ErrStoreUnavailable,
	ErrInvalidToken,
	ErrTokenExpired,
}

// Error is a user-facing error message tagged with one of the sentinel kinds
// above. errors.Is(err, kind) reports true for the tagged kind.
type Error struct {
	kind error
	msg  string
}

// NewError returns an error with message msg that matches kind.
func NewError(kind error, msg string) error {
	return &Error{kind: kind, msg: msg}
}

func (e *Error) Error() string { return e.msg }

func (e *Error) Unwrap() error { return e.kind }

// Kind returns the sentinel this error was tagged with.
func (e *Error) Kind() error { return e.kind }

// StoreError classifies an error returned by a repository. Domain sentinels
// are returned as is; timeouts, connection failures and any other driver
// error are wrapped into ErrStoreUnavailable.
func StoreError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	for _, k := range domainErrors {
		if errors.Is(err, k) {
			return err
		}
	}
	return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
}
