package errors

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// NetworkError reports a timeout or connection-level failure while talking
// to the advisory backend. It is retryable by explicit user action only.
type NetworkError struct {
	Op  string // logical operation, e.g. "decision-options", "chat-send"
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network failure during %s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// BackendError reports a non-success response from the advisory backend.
type BackendError struct {
	Op         string
	StatusCode int
	Message    string
}

func (e *BackendError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("backend error during %s (status %d): %s", e.Op, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("backend error during %s (status %d)", e.Op, e.StatusCode)
}

// ValidationError reports a malformed or missing required request field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// DiscardedError marks an async result superseded by a newer request.
// It is bookkeeping only and must never surface to the user.
type DiscardedError struct {
	Generation uint64
}

func (e *DiscardedError) Error() string {
	return fmt.Sprintf("result discarded: superseded (generation %d)", e.Generation)
}

// StateError reports an invalid transition attempt, such as selecting an
// option while the decision tree is terminal. Callers are expected to treat
// it as a no-op rather than a crash.
type StateError struct {
	Op    string
	State string
}

func (e *StateError) Error() string {
	return fmt.Sprintf("invalid operation %s in state %s", e.Op, e.State)
}

// IsNetwork reports whether err is (or wraps) a NetworkError.
func IsNetwork(err error) bool {
	var netFailure *NetworkError
	if errors.As(err, &netFailure) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}
	var opErr *net.OpError
	return errors.As(err, &opErr)
}

// IsBackend reports whether err is (or wraps) a BackendError.
func IsBackend(err error) bool {
	var backendErr *BackendError
	return errors.As(err, &backendErr)
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var validationErr *ValidationError
	return errors.As(err, &validationErr)
}

// IsDiscarded reports whether err marks a superseded async result.
func IsDiscarded(err error) bool {
	var discarded *DiscardedError
	if errors.As(err, &discarded) {
		return true
	}
	return errors.Is(err, context.Canceled)
}

// IsState reports whether err is (or wraps) a StateError.
func IsState(err error) bool {
	var stateErr *StateError
	return errors.As(err, &stateErr)
}

// IsRetryable reports whether a manual retry of the failed operation makes
// sense. Network failures and server-side backend errors qualify; validation
// and state errors never do. There is no automatic retry loop anywhere in
// this client: retries require explicit user action.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if IsValidation(err) || IsState(err) || IsDiscarded(err) {
		return false
	}
	if IsNetwork(err) {
		return true
	}
	var backendErr *BackendError
	if errors.As(err, &backendErr) {
		return isTransientHTTPStatus(backendErr.StatusCode)
	}
	return false
}

func isTransientHTTPStatus(statusCode int) bool {
	switch statusCode {
	case http.StatusTooManyRequests, // 429
		http.StatusInternalServerError, // 500
		http.StatusBadGateway,          // 502
		http.StatusServiceUnavailable,  // 503
		http.StatusGatewayTimeout:      // 504
		return true
	}
	return false
}

// Helper constructors

// NewNetworkError wraps a transport-level failure for the given operation.
func NewNetworkError(op string, err error) *NetworkError {
	return &NetworkError{Op: op, Err: err}
}

// NewBackendError builds a BackendError from an HTTP status and body message.
func NewBackendError(op string, statusCode int, message string) *BackendError {
	return &BackendError{Op: op, StatusCode: statusCode, Message: message}
}

// NewValidationError reports a malformed request field.
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// NewStateError reports an invalid transition attempt.
func NewStateError(op, state string) *StateError {
	return &StateError{Op: op, State: state}
}
