// Package common provides shared utilities and types used across the application.
package common

import (
	"context"
	"errors"
	"fmt"
)

// Common application errors.
var (
	// Capture errors.
	ErrEmptyCapture = errors.New("capture text is empty")
	ErrInvalidPhoto = errors.New("invalid photo attachment")

	// Classification errors.
	ErrClassificationFailed = errors.New("classification failed")
	ErrUnknownKind          = errors.New("unknown record kind")

	// Non-fatal integration errors.
	ErrAttachmentFailed = errors.New("attachment upload failed")
	ErrCalendarSync     = errors.New("calendar sync failed")
	ErrNotAuthenticated = errors.New("calendar not authenticated")

	// Database errors.
	ErrNotFound       = errors.New("not found")
	ErrDuplicateEntry = errors.New("duplicate entry")

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

// IsFatal reports whether an error must abort a capture. Attachment and
// calendar failures degrade the result instead of failing it.
func IsFatal(err error) bool {
	return !errors.Is(err, ErrAttachmentFailed) &&
		!errors.Is(err, ErrCalendarSync) &&
		!errors.Is(err, ErrNotAuthenticated)
}

// IsRetryable determines if an error should trigger a retry.
func IsRetryable(err error) bool {
	if errors.Is(err, ErrRateLimit) ||
		errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var retryableErr *RetryableError
	if errors.As(err, &retryableErr) {
		return retryableErr.Retryable
	}

	return false
}
