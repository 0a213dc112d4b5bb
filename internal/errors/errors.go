package errors

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// Common error types that can be used across the application
var (
	ErrNotFound         = new(ErrCodeNotFound, "resource not found")
	ErrAlreadyExists    = new(ErrCodeAlreadyExists, "resource already exists")
	ErrVersionConflict  = new(ErrCodeVersionConflict, "version conflict")
	ErrValidation       = new(ErrCodeValidation, "validation error")
	ErrInvalidOperation = new(ErrCodeInvalidOperation, "invalid operation")
	ErrHTTPClient       = new(ErrCodeHTTPClient, "http client error")
	ErrDatabase         = new(ErrCodeDatabase, "database error")
	ErrInternal         = new(ErrCodeInternal, "internal error")

	// ErrSequenceExhausted means the registered invoice number range is used up.
	// Terminal and never retried: a new registration must be provisioned.
	ErrSequenceExhausted = new(ErrCodeSequenceExhausted, "invoice number range exhausted")
	// ErrProviderRejected is a compliance rejection from the provider, never auto-retried
	ErrProviderRejected = new(ErrCodeProviderRejected, "invoice rejected by provider")
	// ErrProviderAuth is an expired or invalid provider token
	ErrProviderAuth = new(ErrCodeProviderAuth, "provider authentication failed")
	// ErrProviderTimeout is a timed-out provider call, routed into the retry path
	ErrProviderTimeout = new(ErrCodeProviderTimeout, "provider call timed out")
)

const (
	ErrCodeHTTPClient        = "http_client_error"
	ErrCodeInternal          = "internal_error"
	ErrCodeNotFound          = "not_found"
	ErrCodeAlreadyExists     = "already_exists"
	ErrCodeVersionConflict   = "version_conflict"
	ErrCodeValidation        = "validation_error"
	ErrCodeInvalidOperation  = "invalid_operation"
	ErrCodeDatabase          = "database_error"
	ErrCodeSequenceExhausted = "sequence_exhausted"
	ErrCodeProviderRejected  = "provider_rejected"
	ErrCodeProviderAuth      = "provider_auth_error"
	ErrCodeProviderTimeout   = "provider_timeout"
)

// InternalError represents a domain error
type InternalError struct {
	Code    string // Machine-readable error code
	Message string // Human-readable error message
	Op      string // Logical operation name
	Err     error  // Underlying error
}

func (e *InternalError) Error() string {
	if e.Err == nil {
		return e.DisplayError()
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Err.Error())
}

func (e *InternalError) DisplayError() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *InternalError) Unwrap() error {
	return e.Err
}

// Is implements error matching for wrapped errors
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

// New creates a new InternalError
func new(code string, message string) *InternalError {
	return &InternalError{
		Code:    code,
		Message: message,
	}
}

func New(code string, message string) *InternalError {
	return new(code, message)
}

func Is(err, target error) bool {
	return errors.Is(err, target)
}

func As(err error, target any) bool {
	return errors.As(err, target)
}

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAlreadyExists checks if an error is an already exists error
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

// IsVersionConflict checks if an error is a version conflict error
func IsVersionConflict(err error) bool {
	return errors.Is(err, ErrVersionConflict)
}

// IsValidation checks if an error is a validation error
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsInvalidOperation checks if an error is an invalid operation error
func IsInvalidOperation(err error) bool {
	return errors.Is(err, ErrInvalidOperation)
}

// IsHTTPClient checks if an error is an http client error
func IsHTTPClient(err error) bool {
	return errors.Is(err, ErrHTTPClient)
}

// IsSequenceExhausted checks if an error is a sequence exhaustion error
func IsSequenceExhausted(err error) bool {
	return errors.Is(err, ErrSequenceExhausted)
}

// IsProviderRejected checks if an error is a provider business rejection
func IsProviderRejected(err error) bool {
	return errors.Is(err, ErrProviderRejected)
}

// IsProviderAuth checks if an error is a provider authentication error
func IsProviderAuth(err error) bool {
	return errors.Is(err, ErrProviderAuth)
}

// IsProviderTimeout checks if an error is a provider timeout
func IsProviderTimeout(err error) bool {
	return errors.Is(err, ErrProviderTimeout)
}
