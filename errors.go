package agentic

import (
	"errors"
	"fmt"
)

// Error taxonomy, by propagation policy:
//
//   - Config/auth errors (AuthError, InvalidModelError, PermissionError,
//     MalformedResponseError) indicate broken deployment configuration or a
//     provider contract violation. They are always raised and never caught by
//     the agent loop.
//   - TransientProviderError is raised after the adapter's own retry policy
//     is exhausted. The loop does not retry; retry policy beyond the adapter
//     is the caller's responsibility.
//   - Semantic failures (content filter, empty response, parse errors) and
//     tool failures are NOT errors in this taxonomy: they travel through the
//     conversation as Messages tagged with an ErrorCode, giving the model a
//     chance to self-correct.

// AuthError indicates an invalid API key or missing credentials.
type AuthError struct {
	Reason string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("authentication failed: %s", e.Reason)
}

// InvalidModelError indicates the model name doesn't exist, the request was
// malformed, or the account lacks access to the model.
type InvalidModelError struct {
	Reason string
}

func (e *InvalidModelError) Error() string {
	return fmt.Sprintf("invalid model or request: %s", e.Reason)
}

// PermissionError indicates valid credentials but insufficient permissions.
type PermissionError struct {
	Reason string
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("permission denied: %s", e.Reason)
}

// MalformedResponseError indicates the provider returned a structurally
// invalid response (no choices, missing usage, missing message field). This
// is a provider API contract violation and is never silently degraded.
type MalformedResponseError struct {
	Reason string
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed provider response: %s", e.Reason)
}

// TransientProviderError is raised when rate limits, server errors,
// connection failures, or timeouts persist after the adapter's retry policy
// is exhausted. It preserves the attempt count and the underlying error.
type TransientProviderError struct {
	AttemptCount int
	ErrorType    string
	Err          error
}

func (e *TransientProviderError) Error() string {
	msg := fmt.Sprintf("transient provider error: %v", e.Err)
	if e.AttemptCount > 0 {
		msg += fmt.Sprintf(" (after %d attempts)", e.AttemptCount)
	}
	if e.ErrorType != "" {
		msg += fmt.Sprintf(" [type: %s]", e.ErrorType)
	}
	return msg
}

func (e *TransientProviderError) Unwrap() error {
	return e.Err
}

// IsConfigError reports whether err is a config/auth error that should
// crash fast.
func IsConfigError(err error) bool {
	var authErr *AuthError
	var modelErr *InvalidModelError
	var permErr *PermissionError
	var malformedErr *MalformedResponseError
	return errors.As(err, &authErr) ||
		errors.As(err, &modelErr) ||
		errors.As(err, &permErr) ||
		errors.As(err, &malformedErr)
}

// IsTransientError reports whether err is a transient provider error with
// retries exhausted.
func IsTransientError(err error) bool {
	var transientErr *TransientProviderError
	return errors.As(err, &transientErr)
}

// ShouldRaise reports whether err belongs to the raised-exception channel.
// Errors outside both categories are unknown and also propagate, so callers
// see them with full context instead of having them swallowed.
func ShouldRaise(err error) bool {
	return IsConfigError(err) || IsTransientError(err)
}

// ErrorCategory returns "config", "transient", or "unknown" for err.
func ErrorCategory(err error) string {
	switch {
	case IsConfigError(err):
		return "config"
	case IsTransientError(err):
		return "transient"
	default:
		return "unknown"
	}
}
