package errors

import (
	"fmt"
	"net/http"

	"github.com/cockroachdb/errors"
)

// Sentinels shared across the service. Mark errors with them through the builder.
var (
	ErrNotFound          = new(ErrCodeNotFound, "resource not found")
	ErrAlreadyExists     = new(ErrCodeAlreadyExists, "resource already exists")
	ErrValidation        = new(ErrCodeValidation, "validation error")
	ErrInvalidTransition = new(ErrCodeInvalidTransition, "invalid state transition")
	ErrPermissionDenied  = new(ErrCodePermissionDenied, "permission denied")
	ErrDatabase          = new(ErrCodeDatabase, "database error")
	ErrSystem            = new(ErrCodeSystemError, "system error")

	// maps errors to http status codes
	statusCodeMap = []struct {
		err    error
		status int
	}{
		{ErrNotFound, http.StatusNotFound},
		{ErrAlreadyExists, http.StatusConflict},
		{ErrInvalidTransition, http.StatusConflict},
		{ErrValidation, http.StatusBadRequest},
		{ErrPermissionDenied, http.StatusForbidden},
		{ErrDatabase, http.StatusInternalServerError},
		{ErrSystem, http.StatusInternalServerError},
	}
)

const (
	ErrCodeNotFound          = "not_found"
	ErrCodeAlreadyExists     = "already_exists"
	ErrCodeValidation        = "validation_error"
	ErrCodeInvalidTransition = "invalid_transition"
	ErrCodePermissionDenied  = "permission_denied"
	ErrCodeDatabase          = "database_error"
	ErrCodeSystemError       = "system_error"
)

// InternalError represents a domain error
type InternalError struct {
	Code    string // Machine-readable error code
	Message string // Human-readable error message
	Err     error  // Underlying error
}

func (e *InternalError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Err.Error())
}

func (e *InternalError) Unwrap() error {
	return e.Err
}

// Is matches two InternalErrors by code
func (e *InternalError) Is(target error) bool {
	if target == nil {
		return false
	}

	t, ok := target.(*InternalError)
	if !ok {
		return errors.Is(e.Err, target)
	}

	return e.Code == t.Code
}

func new(code string, message string) *InternalError {
	return &InternalError{
		Code:    code,
		Message: message,
	}
}

func As(err error, target any) bool {
	return errors.As(err, target)
}

func Is(err, reference error) bool {
	return errors.Is(err, reference)
}

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAlreadyExists checks if an error is a conflict on a unique key
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

// IsValidation checks if an error is a validation error
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsInvalidTransition checks if an error rejects a fee status change
func IsInvalidTransition(err error) bool {
	return errors.Is(err, ErrInvalidTransition)
}

// HTTPStatus maps an error to the status code the API answers with.
func HTTPStatus(err error) int {
	for _, m := range statusCodeMap {
		if errors.Is(err, m.err) {
			return m.status
		}
	}
	return http.StatusInternalServerError
}

// Code returns the machine readable code of the sentinel an error is marked with.
func Code(err error) string {
	for _, m := range statusCodeMap {
		if errors.Is(err, m.err) {
			return m.err.(*InternalError).Code
		}
	}
	return ErrCodeSystemError
}

// HintOf returns the first user facing hint, or the fallback when none was attached.
func HintOf(err error, fallback string) string {
	hints := errors.GetAllHints(err)
	if len(hints) == 0 {
		return fallback
	}
	return hints[0]
}
