package failure

import (
	"errors"
	"net/http"
)

// ConfigurationError reports missing or unusable process configuration,
// such as an unset spreadsheet ID or absent admin credentials.
type ConfigurationError struct {
	Message string
}

// Error implements the error interface.
func (e *ConfigurationError) Error() string {
	return e.Message
}

// ValidationError reports user-correctable input problems.
type ValidationError struct {
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return e.Message
}

// RemoteServiceError wraps a failure returned by the backing sheet API.
// Remote failures are never retried automatically.
type RemoteServiceError struct {
	Op  string
	Err error
}

// Error implements the error interface.
func (e *RemoteServiceError) Error() string {
	if e.Err == nil {
		return "remote service error: " + e.Op
	}
	return "remote service error: " + e.Op + ": " + e.Err.Error()
}

// Unwrap exposes the underlying API error.
func (e *RemoteServiceError) Unwrap() error {
	return e.Err
}

// AuthError reports bad credentials or a missing/invalid session.
type AuthError struct {
	Message string
}

// Error implements the error interface.
func (e *AuthError) Error() string {
	return e.Message
}

// Validation is shorthand for &ValidationError{Message: msg}.
func Validation(msg string) error {
	return &ValidationError{Message: msg}
}

// Configuration is shorthand for &ConfigurationError{Message: msg}.
func Configuration(msg string) error {
	return &ConfigurationError{Message: msg}
}

// Remote wraps err as a RemoteServiceError for the named operation.
// A nil err yields nil.
func Remote(op string, err error) error {
	if err == nil {
		return nil
	}
	var already *RemoteServiceError
	if errors.As(err, &already) {
		return err
	}
	return &RemoteServiceError{Op: op, Err: err}
}

// HTTPStatus maps an error from the taxonomy onto a response status.
// Unknown errors map to 500.
func HTTPStatus(err error) int {
	var (
		validation *ValidationError
		auth       *AuthError
	)
	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &validation):
		return http.StatusBadRequest
	case errors.As(err, &auth):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// IsUserFacing reports whether the error message is safe to show verbatim.
// Configuration and remote failures are logged and replaced by a generic message.
func IsUserFacing(err error) bool {
	var (
		validation *ValidationError
		auth       *AuthError
	)
	return errors.As(err, &validation) || errors.As(err, &auth)
}
