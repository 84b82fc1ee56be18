package gateway

import (
	"errors"
	"fmt"
	"net/http"
)

// ConfigurationError reports a programming or configuration mistake such
// as an unknown service or HTTP method. Retrying does not help.
type ConfigurationError struct {
	Reason string
	Err    error
}

func (e *ConfigurationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("gateway configuration: %s: %v", e.Reason, e.Err)
	}
	return "gateway configuration: " + e.Reason
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// HTTPError is a non-2xx response surfaced to the caller.
type HTTPError struct {
	Status  int
	Message string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("http %d: %s", e.Status, e.Message)
}

// SessionExpiredError means the access token could not be renewed and the
// session has been torn down. The user has to log in again.
type SessionExpiredError struct {
	Reason string
	Err    error
}

func (e *SessionExpiredError) Error() string {
	msg := "session expired"
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *SessionExpiredError) Unwrap() error { return e.Err }

// NetworkError wraps a transport failure, including context cancellation.
// The request may or may not have reached the server.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// IsSessionExpired reports whether err is or wraps a *SessionExpiredError.
func IsSessionExpired(err error) bool {
	var target *SessionExpiredError
	return errors.As(err, &target)
}

// IsNetwork reports whether err is or wraps a *NetworkError.
func IsNetwork(err error) bool {
	var target *NetworkError
	return errors.As(err, &target)
}

// IsConfiguration reports whether err is or wraps a *ConfigurationError.
func IsConfiguration(err error) bool {
	var target *ConfigurationError
	return errors.As(err, &target)
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var target *HTTPError
	if errors.As(err, &target) {
		return target.Status
	}
	return 0
}

func newHTTPError(status int, body []byte) *HTTPError {
	msg := messageFrom(body)
	if msg == "" {
		msg = http.StatusText(status)
	}
	if msg == "" {
		msg = fmt.Sprintf("status %d", status)
	}
	return &HTTPError{Status: status, Message: msg}
}
