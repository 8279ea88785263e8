// Package errors provides standardized error handling for the realtime
// messaging and notification delivery subsystem.
package errors

import (
	stderrors "errors"
	"fmt"
	"time"
)

// ErrorCode represents standardized internal error codes.
type ErrorCode string

// Failure taxonomy. Connectivity and permission failures are recovered
// locally and never surfaced as hard errors; mutation sync failures are
// logged without rolling back optimistic state.
const (
	ErrCodeChannelUnavailable ErrorCode = "CHANNEL_UNAVAILABLE"
	ErrCodeChannelSendFailed  ErrorCode = "CHANNEL_SEND_FAILED"

	ErrCodePermissionDenied ErrorCode = "PERMISSION_DENIED"
	ErrCodePushUnsupported  ErrorCode = "PUSH_UNSUPPORTED"

	ErrCodePushPayloadInvalid ErrorCode = "PUSH_PAYLOAD_INVALID"
	ErrCodeSubscriptionStale  ErrorCode = "SUBSCRIPTION_STALE"

	ErrCodeMutationSyncFailed ErrorCode = "MUTATION_SYNC_FAILED"
	ErrCodeFetchFailed        ErrorCode = "FETCH_FAILED"
	ErrCodeSendFailed         ErrorCode = "SEND_FAILED"

	ErrCodeEmptyContent  ErrorCode = "EMPTY_CONTENT"
	ErrCodeInternalError ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	cause     error
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

func (e *StandardError) Unwrap() error {
	return e.cause
}

// ==========================
// Error Constructors
// ==========================

// NewChannelUnavailableError marks a send attempted while the duplex channel
// is down. Callers recover via the REST fallback.
func NewChannelUnavailableError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeChannelUnavailable,
		Message:   "Realtime channel is not connected",
		Details:   details,
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewPermissionDeniedError is the normal negative result for a user who
// declined notification permission.
func NewPermissionDeniedError() *StandardError {
	return &StandardError{
		Code:      ErrCodePermissionDenied,
		Message:   "Notification permission denied by user",
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewPushUnsupportedError marks a platform with no worker registration or
// push manager capability.
func NewPushUnsupportedError() *StandardError {
	return &StandardError{
		Code:      ErrCodePushUnsupported,
		Message:   "Push notifications are not supported on this platform",
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewFetchFailedError wraps a failed REST read.
func NewFetchFailedError(details string, cause error) *StandardError {
	return &StandardError{
		Code:      ErrCodeFetchFailed,
		Message:   "Fetch from server failed",
		Details:   details,
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     cause,
	}
}

// NewSendFailedError wraps a failed message send on both paths.
func NewSendFailedError(details string, cause error) *StandardError {
	return &StandardError{
		Code:      ErrCodeSendFailed,
		Message:   "Message send failed",
		Details:   details,
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     cause,
	}
}

// NewEmptyContentError rejects a send whose trimmed content is empty.
func NewEmptyContentError() *StandardError {
	return &StandardError{
		Code:      ErrCodeEmptyContent,
		Message:   "Message content must not be empty",
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewMutationSyncFailedError marks a fire-and-forget mutation whose server
// call failed. Local optimistic state is kept.
func NewMutationSyncFailedError(operation string, cause error) *StandardError {
	return &StandardError{
		Code:      ErrCodeMutationSyncFailed,
		Message:   "Server-side mutation failed, local state kept",
		Details:   operation,
		Retryable: false,
		Timestamp: time.Now().UTC(),
		cause:     cause,
	}
}

// ==========================
// Predicates
// ==========================

// CodeOf extracts the ErrorCode from any error in the chain, or
// ErrCodeInternalError if none is a StandardError.
func CodeOf(err error) ErrorCode {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr.Code
	}
	return ErrCodeInternalError
}

// IsRetryable reports whether the error chain carries a retryable
// StandardError.
func IsRetryable(err error) bool {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr.Retryable
	}
	return false
}

// IsPermissionDenied reports the permission-denied negative result.
func IsPermissionDenied(err error) bool {
	return CodeOf(err) == ErrCodePermissionDenied
}

// IsChannelUnavailable reports a connectivity failure that should trigger
// the REST fallback rather than a user-visible error.
func IsChannelUnavailable(err error) bool {
	return CodeOf(err) == ErrCodeChannelUnavailable
}
