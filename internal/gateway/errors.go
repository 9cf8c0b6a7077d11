package gateway

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies every failure the gateway can return.
type Kind string

const (
	KindValidation Kind = "validation"
	KindAuth       Kind = "auth"
	KindNotFound   Kind = "notFound"
	KindConflict   Kind = "conflict"
	KindNetwork    Kind = "network"
	KindServer     Kind = "server"
	KindUnknown    Kind = "unknown"
)

// Retryable reports whether a repeated attempt could succeed.
func (k Kind) Retryable() bool {
	return k == KindNetwork || k == KindServer
}

// Error is the single normalized error shape returned by the gateway.
// Callers never see raw transport errors.
type Error struct {
	Kind Kind

	// HTTPStatus is zero when no response was received.
	HTTPStatus int

	// Message is human readable and safe to show to the user.
	Message string

	// Op names the operation, e.g. "PATCH /api/lists/{id}/items/reorder".
	Op string

	// Err is the underlying cause, if any.
	Err error
}

func (e *Error) Error() string {
	if e.HTTPStatus != 0 {
		return fmt.Sprintf("%s (%s %d): %s", e.Op, e.Kind, e.HTTPStatus, e.Message)
	}
	return fmt.Sprintf("%s (%s): %s", e.Op, e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// UserMessage returns the text a UI should display.
func (e *Error) UserMessage() string {
	if e.Message != "" {
		return e.Message
	}
	return defaultMessage(e.Kind)
}

// NewValidationError builds a client-side validation failure.
func NewValidationError(op, message string) *Error {
	return &Error{Kind: KindValidation, Op: op, Message: message}
}

// KindOf returns the Kind of err, or KindUnknown when err is not a
// gateway error. A nil error has no kind.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var gwErr *Error
	if errors.As(err, &gwErr) {
		return gwErr.Kind
	}
	return KindUnknown
}

// IsKind reports whether err (or any error in its chain) is a gateway
// error of the given kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// IsAuthError reports whether err is an authentication failure.
func IsAuthError(err error) bool {
	return IsKind(err, KindAuth)
}

// UserMessage returns a display string for any error.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var gwErr *Error
	if errors.As(err, &gwErr) {
		return gwErr.UserMessage()
	}
	return defaultMessage(KindUnknown)
}

// classifyStatus maps an HTTP status code onto a Kind.
func classifyStatus(status int) Kind {
	switch {
	case status == http.StatusBadRequest, status == http.StatusUnprocessableEntity:
		return KindValidation
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		return KindAuth
	case status == http.StatusNotFound:
		return KindNotFound
	case status == http.StatusConflict:
		return KindConflict
	case status >= 500:
		return KindServer
	default:
		return KindUnknown
	}
}

func defaultMessage(kind Kind) string {
	switch kind {
	case KindValidation:
		return "Some of the submitted values are invalid."
	case KindAuth:
		return "Your session has expired. Please log in again."
	case KindNotFound:
		return "The requested item no longer exists."
	case KindConflict:
		return "This change conflicts with another change. Refresh and try again."
	case KindNetwork:
		return "Could not reach the server. Check your connection."
	case KindServer:
		return "The server had a problem handling the request."
	default:
		return "Something went wrong."
	}
}
