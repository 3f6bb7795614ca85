// Package errors defines the error taxonomy for the streaming chat
// protocol: every failure is either terminal (never retried), retryable
// under the coordinator's policy, or a cancellation, and carries a message
// suitable for direct display to the user.
package errors

import (
	stderrors "errors"
	"fmt"
)

// Code is a machine-readable classification of a chat failure.
type Code string

const (
	// CodeClient is a 4xx from the backend: malformed request, auth
	// failure, quota. Terminal.
	CodeClient Code = "CLIENT_ERROR"
	// CodeUpstream is a 5xx from the backend or upstream provider. Retryable.
	CodeUpstream Code = "UPSTREAM_ERROR"
	// CodeConnection is a network-level failure reaching the backend. Retryable.
	CodeConnection Code = "CONNECTION_FAILED"
	// CodeModel is an explicit error frame sent mid-stream by the provider. Retryable.
	CodeModel Code = "MODEL_ERROR"
	// CodeEmptyCompletion is a stream that finished without an error frame
	// but produced no usable text. Retryable: providers occasionally drop a
	// stream early without signaling, and silently showing an empty answer
	// is worse than one more attempt.
	CodeEmptyCompletion Code = "EMPTY_COMPLETION"
	// CodeIdleTimeout is a stream that stopped producing bytes without
	// closing. Retryable.
	CodeIdleTimeout Code = "IDLE_TIMEOUT"
	// CodeCancelled is a user-initiated stop. Not an error in the retry
	// sense; terminal with its own message.
	CodeCancelled Code = "CANCELLED"
	// CodeExhausted means every retry attempt failed. Terminal.
	CodeExhausted Code = "RETRIES_EXHAUSTED"
)

// ChatError is the unified error type produced by the streaming core.
type ChatError struct {
	// Code classifies the failure.
	Code Code `json:"code"`
	// Message is human-presentable and safe to show verbatim.
	Message string `json:"message"`
	// Retryable indicates whether the coordinator may run another attempt.
	Retryable bool `json:"retryable"`
	// HTTPStatus is the backend status that produced this error, 0 when
	// the failure was not HTTP-level.
	HTTPStatus int `json:"-"`
	// Cause is the underlying error.
	Cause error `json:"-"`
}

// Error returns the string representation of the error.
func (e *ChatError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *ChatError) Unwrap() error { return e.Cause }

// WithCause sets the underlying cause and returns the receiver.
func (e *ChatError) WithCause(cause error) *ChatError {
	e.Cause = cause
	return e
}

// --- Constructors ---

// Client creates a terminal error for a 4xx backend response. The message
// is surfaced verbatim when the backend supplied one.
func Client(httpStatus int, message string) *ChatError {
	if message == "" {
		message = fmt.Sprintf("The request was rejected (HTTP %d).", httpStatus)
	}
	return &ChatError{Code: CodeClient, Message: message, HTTPStatus: httpStatus}
}

// Invalid creates a terminal error for a request rejected before it was
// sent (client-side validation).
func Invalid(message string) *ChatError {
	return &ChatError{Code: CodeClient, Message: message}
}

// Upstream creates a retryable error for a 5xx backend response.
func Upstream(httpStatus int, message string) *ChatError {
	if message == "" {
		message = "The model service is temporarily unavailable."
	}
	return &ChatError{Code: CodeUpstream, Message: message, HTTPStatus: httpStatus, Retryable: true}
}

// Connection creates a retryable error for a network-level failure.
func Connection(cause error) *ChatError {
	return &ChatError{
		Code: CodeConnection, Message: "Unable to reach the chat service.",
		Retryable: true, Cause: cause,
	}
}

// Model creates a retryable error for an explicit error frame.
func Model(message string) *ChatError {
	if message == "" {
		message = "The model could not complete this response."
	}
	return &ChatError{Code: CodeModel, Message: message, Retryable: true}
}

// EmptyCompletion creates a retryable error for a stream that ended with
// no usable content and no explicit error frame.
func EmptyCompletion() *ChatError {
	return &ChatError{
		Code: CodeEmptyCompletion, Message: "The model returned an empty response.",
		Retryable: true,
	}
}

// IdleTimeout creates a retryable error for a stream that went silent.
func IdleTimeout(cause error) *ChatError {
	return &ChatError{
		Code: CodeIdleTimeout, Message: "The response stream stalled.",
		Retryable: true, Cause: cause,
	}
}

// Cancelled creates the terminal cancellation signal.
func Cancelled() *ChatError {
	return &ChatError{Code: CodeCancelled, Message: "Response cancelled"}
}

// Exhausted creates the terminal error reported after every attempt failed.
func Exhausted(attempts int, last error) *ChatError {
	return &ChatError{
		Code: CodeExhausted,
		Message: fmt.Sprintf(
			"The model did not produce a response after %d attempts. Try adjusting your message or switching models.",
			attempts),
		Cause: last,
	}
}

// --- Classification helpers ---

// IsRetryable reports whether another attempt is allowed for err.
func IsRetryable(err error) bool {
	var ce *ChatError
	if stderrors.As(err, &ce) {
		return ce.Retryable
	}
	return false
}

// IsCancelled reports whether err is the user-cancellation signal.
func IsCancelled(err error) bool {
	var ce *ChatError
	return stderrors.As(err, &ce) && ce.Code == CodeCancelled
}

// IsTerminal reports whether err stops all further attempts.
func IsTerminal(err error) bool {
	var ce *ChatError
	if stderrors.As(err, &ce) {
		return !ce.Retryable
	}
	return true
}

// UserMessage extracts a human-presentable message from err, falling back
// to a generic one for non-chat errors.
func UserMessage(err error) string {
	var ce *ChatError
	if stderrors.As(err, &ce) {
		return ce.Message
	}
	return "Something went wrong while generating the response."
}

// FromHTTPStatus classifies a non-2xx backend status: 4xx is terminal,
// everything else is retryable.
func FromHTTPStatus(status int, message string) *ChatError {
	if status >= 400 && status < 500 {
		return Client(status, message)
	}
	return Upstream(status, message)
}
