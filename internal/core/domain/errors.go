package domain

import (
	"errors"
	"fmt"
)

// DomainError represents a client-side error with a structured error code.
// Codes have the form LS-<AREA>-<NNNN>.
type DomainError struct {
	Code    string // Error code (e.g., "LS-ARG-4001")
	Message string // Human-readable message
	Details string // Optional additional details
	Cause   error  // Underlying error (if any)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap() support.
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is matches any DomainError with the same code.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new DomainError with the given code and message.
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// WithDetails returns a copy of the error with additional details.
func (e *DomainError) WithDetails(details string) *DomainError {
	c := *e
	c.Details = details
	return &c
}

// WithCause returns a copy of the error wrapping the given cause.
func (e *DomainError) WithCause(cause error) *DomainError {
	c := *e
	c.Cause = cause
	return &c
}

// IsDomainError checks if an error is a DomainError with the given code.
// If code is empty, it only checks if the error is a DomainError.
func IsDomainError(err error, code string) bool {
	var de *DomainError
	if errors.As(err, &de) {
		return code == "" || de.Code == code
	}
	return false
}

// GetErrorCode extracts the error code from an error if it's a DomainError.
func GetErrorCode(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// Argument errors (ARG). Raised before anything is sent.
var (
	ErrValidation      = NewDomainError("LS-ARG-4000", "validation failed")
	ErrMissingArgument = NewDomainError("LS-ARG-4001", "missing required argument")
	ErrInvalidArgument = NewDomainError("LS-ARG-4002", "invalid argument")
)

// Account errors (AUTH).
var (
	ErrPasswordTooShort = NewDomainError("LS-AUTH-4001", fmt.Sprintf("password must be at least %d characters long", MinPasswordLength))
	ErrInvalidRole      = NewDomainError("LS-AUTH-4002", "role must be parent or teacher")
	ErrNotLoggedIn      = NewDomainError("LS-AUTH-4010", "not logged in")
)

// Resource errors.
var (
	ErrUnknownActivityType = NewDomainError("LS-ACTV-4000", "unknown activity type")
	ErrUnexpectedResponse  = NewDomainError("LS-SYS-5020", "unexpected response from service")
	ErrSessionStore        = NewDomainError("LS-SYS-5001", "session store error")
)
