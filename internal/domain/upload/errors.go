package upload

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind categorizes upload failures. Retry decisions and HTTP status
// mapping both key off the kind, never off message text.
type Kind string

const (
	KindInvalidArgument Kind = "invalid_argument" // bad file/name/size, never retried
	KindUnauthorized    Kind = "unauthorized"     // credential acquisition failed
	KindUpstream        Kind = "upstream"         // provider returned a non-success status
	KindNetwork         Kind = "network"          // transport-level failure or timeout
	KindProtocol        Kind = "protocol"         // provider violated the resumable contract
)

// Error is the typed failure surfaced by the upload pipeline.
type Error struct {
	Kind       Kind
	Message    string
	StatusCode int // provider HTTP status, when applicable
	Err        error
}

func (e *Error) Error() string {
	switch {
	case e.StatusCode != 0 && e.Err != nil:
		return fmt.Sprintf("[%s] %s (status %d): %v", e.Kind, e.Message, e.StatusCode, e.Err)
	case e.StatusCode != 0:
		return fmt.Sprintf("[%s] %s (status %d)", e.Kind, e.Message, e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Message, e.Err)
	default:
		return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewInvalidArgument reports a caller mistake that must not be retried.
func NewInvalidArgument(message string) *Error {
	return &Error{Kind: KindInvalidArgument, Message: message}
}

// NewUnauthorized reports a failed credential acquisition.
func NewUnauthorized(message string, err error) *Error {
	return &Error{Kind: KindUnauthorized, Message: message, Err: err}
}

// NewUpstream reports a non-success provider response.
func NewUpstream(statusCode int, message string) *Error {
	return &Error{Kind: KindUpstream, Message: message, StatusCode: statusCode}
}

// NewNetwork reports a transport-level failure. A transport timeout is
// indistinguishable from any other network error for retry purposes.
func NewNetwork(err error) *Error {
	return &Error{Kind: KindNetwork, Message: "provider request failed", Err: err}
}

// NewProtocol reports a provider that violated the resumable contract.
// Always fatal.
func NewProtocol(message string) *Error {
	return &Error{Kind: KindProtocol, Message: message}
}

// KindOf extracts the failure kind, or empty for untyped errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsRetryable reports whether a chunk-level failure may be resent.
// Only network and upstream failures qualify; everything else is fatal.
func IsRetryable(err error) bool {
	switch KindOf(err) {
	case KindNetwork, KindUpstream:
		return true
	default:
		return false
	}
}

// HTTPStatus maps a pipeline failure onto an HTTP response code for the
// relay surface.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindInvalidArgument:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindUpstream, KindProtocol:
		return http.StatusBadGateway
	case KindNetwork:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
