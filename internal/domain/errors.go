// Package domain holds the error taxonomy shared by stores and features.
package domain

import (
	"errors"
	"net/http"
)

// HTTPError is implemented by domain errors that map to an HTTP status code.
type HTTPError interface {
	error
	StatusCode() int
}

type (
	// NotFoundError indicates a referenced folder/record is absent.
	NotFoundError struct {
		Message string
	}

	// ValidationError indicates a constraint violation: empty name,
	// oversized field, invalid enum value, malformed date.
	ValidationError struct {
		Message string
	}

	// IOError indicates a storage or database transport failure.
	IOError struct {
		Message string
		Err     error
	}

	// UnauthorizedError indicates a bad or missing export API key.
	UnauthorizedError struct {
		Message string
	}

	// CycleDetectedError indicates a breadcrumb walk exceeded the depth
	// bound, i.e. the parent links form a cycle.
	CycleDetectedError struct {
		Message string
	}
)

func (e *NotFoundError) Error() string      { return e.Message }
func (e *ValidationError) Error() string    { return e.Message }
func (e *IOError) Error() string            { return e.Message }
func (e *UnauthorizedError) Error() string  { return e.Message }
func (e *CycleDetectedError) Error() string { return e.Message }

func (e *IOError) Unwrap() error { return e.Err }

func (e *NotFoundError) StatusCode() int      { return http.StatusNotFound }
func (e *ValidationError) StatusCode() int    { return http.StatusBadRequest }
func (e *IOError) StatusCode() int            { return http.StatusBadGateway }
func (e *UnauthorizedError) StatusCode() int  { return http.StatusUnauthorized }
func (e *CycleDetectedError) StatusCode() int { return http.StatusInternalServerError }

// Sentinel errors for errors.Is matching.
var (
	ErrNotFound      = errors.New("not found")
	ErrValidation    = errors.New("validation failed")
	ErrIO            = errors.New("storage failure")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrCycleDetected = errors.New("cycle detected")
)

func (e *NotFoundError) Is(target error) bool      { return target == ErrNotFound }
func (e *ValidationError) Is(target error) bool    { return target == ErrValidation }
func (e *IOError) Is(target error) bool            { return target == ErrIO }
func (e *UnauthorizedError) Is(target error) bool  { return target == ErrUnauthorized }
func (e *CycleDetectedError) Is(target error) bool { return target == ErrCycleDetected }
