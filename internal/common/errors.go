// Package common provides shared utilities and types used across the application.
package common

import (
	"errors"
	"fmt"
)

// Common application errors.
var (
	// Sync errors.
	ErrNoCandidates = errors.New("no candidate transactions provided")
	ErrBaselineRead = errors.New("failed to read remote baseline")

	// Buxfer API errors.
	ErrAuthFailed     = errors.New("buxfer authentication failed")
	ErrSessionExpired = errors.New("buxfer session expired")
	ErrWriteRejected  = errors.New("buxfer rejected the write")

	// Configuration errors.
	ErrMissingConfig = errors.New("missing configuration")
	ErrInvalidConfig = errors.New("invalid configuration")
)

// UserError represents an error that should be shown to the user.
type UserError struct {
	Err         error
	UserMessage string
}

func (e *UserError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.UserMessage, e.Err)
	}
	return e.UserMessage
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// NewUserError creates a new user-friendly error.
func NewUserError(userMessage string, err error) error {
	return &UserError{
		UserMessage: userMessage,
		Err:         err,
	}
}

// IsRetryable determines if an error should trigger a retry. Unknown
// errors default to retryable; the remote API's transient failures arrive
// as plain HTTP errors.
func IsRetryable(err error) bool {
	// Auth failures are fatal and never retried automatically.
	if errors.Is(err, ErrAuthFailed) {
		return false
	}

	var retryableErr *RetryableError
	if errors.As(err, &retryableErr) {
		return retryableErr.Retryable
	}

	return true
}
