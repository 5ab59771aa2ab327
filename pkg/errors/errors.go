package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error represents a typed domain error with HTTP awareness.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	Err     error  `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// New creates a new Error instance.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// Predefined errors for common scenarios. Codes are part of the API
// contract; the front end maps them to localized text.
var (
	ErrValidation         = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrTokenMissing       = New("TOKEN_MISSING", http.StatusUnauthorized, "authorization token missing")
	ErrTokenInvalid       = New("TOKEN_INVALID", http.StatusUnauthorized, "authorization token invalid")
	ErrTokenExpired       = New("TOKEN_EXPIRED", http.StatusUnauthorized, "authorization token expired")
	ErrInvalidCredentials = New("AUTHENTICATION_ERROR", http.StatusUnauthorized, "invalid username or password")
	ErrInactiveAccount    = New("AUTHENTICATION_ERROR", http.StatusUnauthorized, "account is inactive")
	ErrForbidden          = New("AUTHORIZATION_ERROR", http.StatusForbidden, "insufficient permissions")
	ErrNotFound           = New("RESOURCE_NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrDuplicate          = New("DUPLICATE_RESOURCE", http.StatusConflict, "resource already exists")
	ErrFileUpload         = New("FILE_UPLOAD_ERROR", http.StatusBadRequest, "invalid upload")
	ErrDatabase           = New("DATABASE_ERROR", http.StatusInternalServerError, "internal server error")
	ErrCacheMiss          = New("CACHE_MISS", http.StatusNotFound, "cache miss")
)

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrDatabase.Code, ErrDatabase.Status, ErrDatabase.Message)
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}

// IsAuthentication reports whether the error belongs to the token/credential
// family, useful when middleware must short-circuit with 401.
func IsAuthentication(err error) bool {
	e := FromError(err)
	return e != nil && e.Status == http.StatusUnauthorized
}
