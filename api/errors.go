package api

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is a failed upstream call. StatusCode is zero for transport-level
// failures that never reached the server.
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("marketplace api: %s", e.Message)
	}
	return fmt.Sprintf("marketplace api: %d: %s", e.StatusCode, e.Message)
}

// NewError builds an Error with the given status and message.
func NewError(status int, msg string) *Error {
	return &Error{StatusCode: status, Message: msg}
}

// IsAuthError reports whether err is an upstream 401, meaning the stored
// session token is no longer valid and re-authentication is required.
func IsAuthError(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized
}
