package lifecycle

import (
	"errors"
	"fmt"
	"strings"
)

// ValidationError is a local, pre-network rejection (missing consent, bad
// input). Never sent over the wire; surfaced inline.
type ValidationError struct {
	Message string
	Missing []string
}

func (e *ValidationError) Error() string {
	if len(e.Missing) > 0 {
		return fmt.Sprintf("%s: %s", e.Message, strings.Join(e.Missing, ", "))
	}
	return e.Message
}

func NewValidationError(msg string, missing ...string) error {
	return &ValidationError{Message: msg, Missing: missing}
}

// AuthError means the stored session is no longer valid; the user must
// re-authenticate before the operation is retried.
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("authError: %s", e.Message)
}

func NewAuthError(msg string) error {
	return &AuthError{Message: msg}
}

// ServiceError is a retryable upstream failure, shown to the user with the
// server-provided message.
type ServiceError struct {
	StatusCode int
	Message    string
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("serviceError: %d: %s", e.StatusCode, e.Message)
}

func NewServiceError(status int, msg string) error {
	return &ServiceError{StatusCode: status, Message: msg}
}

// ErrActionInFlight suppresses a repeated approve/reject tap while the first
// request is still outstanding.
var ErrActionInFlight = errors.New("action already in flight")

// ErrUnknownSession is returned for operations on a job with no active
// session.
var ErrUnknownSession = errors.New("no active session for job")

// IsValidation reports whether err is a local validation rejection.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// IsAuth reports whether err requires re-authentication.
func IsAuth(err error) bool {
	var a *AuthError
	return errors.As(err, &a)
}
