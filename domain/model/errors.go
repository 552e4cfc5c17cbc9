package model

import (
	"errors"
	"fmt"
)

type ErrorKind string

const (
	ErrorKindCSRF        ErrorKind = "csrf"
	ErrorKindToken       ErrorKind = "token"
	ErrorKindValidation  ErrorKind = "validation"
	ErrorKindDispatch    ErrorKind = "dispatch"
	ErrorKindPersistence ErrorKind = "persistence"
	ErrorKindNotFound    ErrorKind = "not_found"
	ErrorKindConflict    ErrorKind = "conflict"
)

// PublishError is the typed error returned by every component of the pipeline.
type PublishError struct {
	Kind    ErrorKind
	Code    string
	Message string
	Err     error
}

func (e *PublishError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *PublishError) Unwrap() error { return e.Err }

// Is matches on kind and code so sentinels can be compared with errors.Is.
func (e *PublishError) Is(target error) bool {
	var t *PublishError
	if !errors.As(target, &t) {
		return false
	}
	return e.Kind == t.Kind && e.Code == t.Code
}

func NewPublishError(kind ErrorKind, code, message string, err error) *PublishError {
	return &PublishError{Kind: kind, Code: code, Message: message, Err: err}
}

var (
	ErrInvalidState          = &PublishError{Kind: ErrorKindCSRF, Code: "INVALID_STATE", Message: "authorization state is missing, expired or already used; restart the authorization flow"}
	ErrPlatformMismatch      = &PublishError{Kind: ErrorKindCSRF, Code: "PLATFORM_MISMATCH", Message: "authorization state was issued for another platform"}
	ErrNoRefreshToken        = &PublishError{Kind: ErrorKindToken, Code: "NO_REFRESH_TOKEN", Message: "connection has no refresh token"}
	ErrTokenExchange         = &PublishError{Kind: ErrorKindToken, Code: "TOKEN_EXCHANGE_FAILED", Message: "authorization code exchange failed"}
	ErrTokenRefresh          = &PublishError{Kind: ErrorKindToken, Code: "TOKEN_REFRESH_FAILED", Message: "token refresh failed"}
	ErrUnsupportedPlatform   = &PublishError{Kind: ErrorKindValidation, Code: "UNSUPPORTED_PLATFORM", Message: "platform is not supported"}
	ErrInvalidBrandID        = &PublishError{Kind: ErrorKindValidation, Code: "INVALID_BRAND_ID", Message: "brand id may only contain letters, digits, '-' and '_' (max 128)"}
	ErrPlatformNotConfigured = &PublishError{Kind: ErrorKindValidation, Code: "PLATFORM_NOT_CONFIGURED", Message: "platform oauth client is not configured"}
	ErrConnectionNotFound    = &PublishError{Kind: ErrorKindNotFound, Code: "CONNECTION_NOT_FOUND", Message: "platform connection not found"}
	ErrJobNotFound           = &PublishError{Kind: ErrorKindNotFound, Code: "JOB_NOT_FOUND", Message: "publishing job not found"}
	ErrIllegalTransition     = &PublishError{Kind: ErrorKindConflict, Code: "ILLEGAL_TRANSITION", Message: "job status does not allow this action"}
	ErrPersistence           = &PublishError{Kind: ErrorKindPersistence, Code: "PERSISTENCE_FAILED", Message: "durable store is unavailable"}
)

// Wrap attaches a cause to a sentinel while keeping errors.Is working.
func Wrap(sentinel *PublishError, err error) *PublishError {
	return &PublishError{Kind: sentinel.Kind, Code: sentinel.Code, Message: sentinel.Message, Err: err}
}

// ErrorCode extracts the code of a PublishError, or "" for foreign errors.
func ErrorCode(err error) string {
	var pe *PublishError
	if errors.As(err, &pe) {
		return pe.Code
	}
	return ""
}
