package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode represents a unique error code
type ErrorCode string

const (
	ErrCodeInternal         ErrorCode = "INTERNAL_ERROR"
	ErrCodeNotFound         ErrorCode = "NOT_FOUND"
	ErrCodeAlreadyExists    ErrorCode = "ALREADY_EXISTS"
	ErrCodeInvalidState     ErrorCode = "INVALID_STATE"
	ErrCodeTranslation      ErrorCode = "TRANSLATION_FAILED"
	ErrCodeRevoked          ErrorCode = "REVOKED"
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	ErrCodeInvalidClient    ErrorCode = "INVALID_CLIENT"
)

// OAuth2 / OIDC error response codes
const (
	OAuthInvalidGrant  = "invalid_grant"
	OAuthInvalidClient = "invalid_client"
	OAuthAccessDenied  = "access_denied"
	OAuthInvalidScope  = "invalid_scope"
	OAuthServerError   = "server_error"
)

// Error represents a structured error with code, message, and optional details
type Error struct {
	Code    ErrorCode              // Unique error code
	Message string                 // Human-readable error message
	Details map[string]interface{} // Optional additional details
	Err     error                  // Wrapped underlying error
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the wrapped error for errors.Is and errors.As
func (e *Error) Unwrap() error {
	return e.Err
}

// WithDetail adds a detail to the error
func (e *Error) WithDetail(key string, value interface{}) *Error {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// HTTPStatusCode returns the appropriate HTTP status code for this error
func (e *Error) HTTPStatusCode() int {
	return MapErrorCodeToHTTPStatus(e.Code)
}

// New creates a new Error with the given code and message
func New(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// Newf creates a new Error with formatted message
func Newf(code ErrorCode, format string, args ...interface{}) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap wraps an existing error with code and message
func Wrap(err error, code ErrorCode, message string) *Error {
	if err == nil {
		return nil
	}
	return &Error{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Wrapf wraps an existing error with code and formatted message
func Wrapf(err error, code ErrorCode, format string, args ...interface{}) *Error {
	if err == nil {
		return nil
	}
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Err:     err,
	}
}

// IsCode checks if an error has a specific error code
func IsCode(err error, code ErrorCode) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error
// Returns ErrCodeInternal if the error is not a structured Error
func GetCode(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ErrCodeInternal
}

// GetDetails extracts the details from an error
// Returns nil if the error is not a structured Error
func GetDetails(err error) map[string]interface{} {
	var e *Error
	if errors.As(err, &e) {
		return e.Details
	}
	return nil
}

// MapErrorCodeToHTTPStatus maps error codes to HTTP status codes
func MapErrorCodeToHTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeValidationFailed, ErrCodeRevoked:
		return http.StatusBadRequest
	case ErrCodeInvalidClient:
		return http.StatusUnauthorized
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeAlreadyExists:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// OAuthErrorCode maps an error to the OAuth2 error response code the
// token endpoint should emit.
func OAuthErrorCode(err error) string {
	switch GetCode(err) {
	case ErrCodeRevoked, ErrCodeNotFound:
		return OAuthInvalidGrant
	case ErrCodeInvalidClient:
		return OAuthInvalidClient
	case ErrCodeValidationFailed:
		return OAuthAccessDenied
	default:
		return OAuthServerError
	}
}

// NotFound creates a "not found" error for an entity kind and identifier
func NotFound(kind, identifier string) *Error {
	return Newf(ErrCodeNotFound, "%s not found: %s", kind, identifier).
		WithDetail("kind", kind).
		WithDetail("id", identifier)
}

// AlreadyExists creates an "already exists" error
func AlreadyExists(kind, identifier string) *Error {
	return Newf(ErrCodeAlreadyExists, "%s already exists: %s", kind, identifier).
		WithDetail("kind", kind).
		WithDetail("id", identifier)
}

// StateError reports a persisted row that cannot be turned back into an entity.
func StateError(kind, field string, err error) *Error {
	e := Newf(ErrCodeInvalidState, "invalid %s state: field %s", kind, field).
		WithDetail("kind", kind).
		WithDetail("field", field)
	e.Err = err
	return e
}

// TranslationError reports a claim value that could not be coerced to its declared type.
func TranslationError(claim, claimType, value string, err error) *Error {
	e := Newf(ErrCodeTranslation, "cannot translate claim %s to %s from value %q", claim, claimType, value).
		WithDetail("claim", claim).
		WithDetail("type", claimType)
	e.Err = err
	return e
}

// RevocationConflict reports use of a revoked or expired code or token.
func RevocationConflict(kind, identifier string) *Error {
	return Newf(ErrCodeRevoked, "%s is revoked or expired: %s", kind, identifier).
		WithDetail("kind", kind).
		WithDetail("id", identifier)
}

// ValidationError creates a "validation failed" error
func ValidationError(message string) *Error {
	return New(ErrCodeValidationFailed, message)
}

// InvalidClient reports a client authentication failure.
func InvalidClient(clientID string) *Error {
	return Newf(ErrCodeInvalidClient, "client authentication failed: %s", clientID).
		WithDetail("client_id", clientID)
}

// Internal creates an "internal error"
func Internal(message string) *Error {
	return New(ErrCodeInternal, message)
}

// IsNotFound reports whether err is a NotFound error.
func IsNotFound(err error) bool {
	return IsCode(err, ErrCodeNotFound)
}

// IsRevoked reports whether err is a RevocationConflict.
func IsRevoked(err error) bool {
	return IsCode(err, ErrCodeRevoked)
}
