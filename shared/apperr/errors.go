// Package apperr holds the error kinds shared by every service and their
// mapping onto HTTP status codes.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrValidation           = errors.New("invalid request data")                  // 400
	ErrDuplicateEmail       = errors.New("email already in use")                  // 400
	ErrInvalidCredentials   = errors.New("invalid credentials")                   // 401
	ErrSecurityMismatch     = errors.New("incorrect security question or answer") // 401
	ErrInvalidRecoveryToken = errors.New("invalid or expired recovery token")     // 401
	ErrNotFound             = errors.New("not found")                             // 404
	ErrStore                = errors.New("internal server error")                 // 500
)

// Store wraps an underlying store failure so that it classifies as ErrStore
// while keeping the original error for server-side logging.
func Store(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrStore, err)
}

// Validation returns an ErrValidation carrying a field specific message.
func Validation(msg string) error {
	return fmt.Errorf("%w: %s", ErrValidation, msg)
}

// NotFound returns an ErrNotFound naming what was missing.
func NotFound(what string) error {
	return fmt.Errorf("%s %w", what, ErrNotFound)
}

// Kind returns the wire name of the error kind.
func Kind(err error) string {
	switch {
	case errors.Is(err, ErrValidation):
		return "ValidationError"
	case errors.Is(err, ErrDuplicateEmail):
		return "DuplicateEmail"
	case errors.Is(err, ErrInvalidCredentials):
		return "InvalidCredentials"
	case errors.Is(err, ErrSecurityMismatch):
		return "SecurityMismatch"
	case errors.Is(err, ErrInvalidRecoveryToken):
		return "InvalidRecoveryToken"
	case errors.Is(err, ErrNotFound):
		return "NotFound"
	default:
		return "StoreError"
	}
}

func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrValidation), errors.Is(err, ErrDuplicateEmail):
		return http.StatusBadRequest
	case errors.Is(err, ErrInvalidCredentials),
		errors.Is(err, ErrSecurityMismatch),
		errors.Is(err, ErrInvalidRecoveryToken):
		return http.StatusUnauthorized
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Message is the text shown to callers. Store failures never leak detail.
func Message(err error) string {
	if HTTPStatus(err) == http.StatusInternalServerError {
		return ErrStore.Error()
	}
	return err.Error()
}
