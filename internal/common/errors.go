package common

import (
	"errors"
	"fmt"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Common application errors
var (
	ErrNotFound         = errors.New("resource not found")
	ErrInvalidInput     = errors.New("invalid input")
	ErrInternal         = errors.New("internal error")
	ErrCacheUnavailable = errors.New("cache store unavailable")
)

// NewAppError builds an AppError with an optional cause.
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// EmptyModelResponseError means the model returned a message with no content.
// FinishReason is kept for diagnosis (e.g. "length", "content_filter").
type EmptyModelResponseError struct {
	FinishReason string
}

func (e *EmptyModelResponseError) Error() string {
	return fmt.Sprintf("model returned empty response (finish_reason=%q)", e.FinishReason)
}

// MalformedOutputError means the model's content was not parseable JSON at all.
// Schema-level problems are recovered by field coercion and never reach here.
type MalformedOutputError struct {
	Raw    string
	Reason string
}

func (e *MalformedOutputError) Error() string {
	return fmt.Sprintf("malformed model output: %s", e.Reason)
}

// TransientError marks an upstream failure worth retrying (timeout, 429, 5xx).
type TransientError struct {
	Cause error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("transient upstream error: %v", e.Cause)
}

func (e *TransientError) Unwrap() error {
	return e.Cause
}

// IsTransient reports whether err is retryable under the batch backoff policy.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}
