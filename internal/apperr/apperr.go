// Package apperr classifies service errors into a small set of kinds that map onto HTTP
// status codes. Kinds are sentinels: callers match them with errors.Is and wrap causes with
// New/Wrap so the original error stays reachable for logging.
package apperr

import (
	"errors"
	"net/http"
)

// Kind is a sentinel error describing a class of failure.
type Kind struct {
	name   string
	status int
}

func (k *Kind) Error() string { return k.name }

// StatusCode returns the HTTP status associated with the kind.
func (k *Kind) StatusCode() int { return k.status }

var (
	InvalidArgument = &Kind{name: "invalid argument", status: http.StatusBadRequest}
	Unauthorized    = &Kind{name: "unauthorized", status: http.StatusUnauthorized}
	Forbidden       = &Kind{name: "forbidden", status: http.StatusForbidden}
	NotActive       = &Kind{name: "session not active", status: http.StatusForbidden}
	NotFound        = &Kind{name: "not found", status: http.StatusNotFound}
	Conflict        = &Kind{name: "conflict", status: http.StatusConflict}
	Upstream        = &Kind{name: "upstream error", status: http.StatusInternalServerError}
	Internal        = &Kind{name: "internal error", status: http.StatusInternalServerError}
)

// Error carries a kind, a message safe to show callers, and an optional cause.
type Error struct {
	kind  *Kind
	msg   string
	cause error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return e.msg + ": " + e.cause.Error()
	}
	return e.msg
}

func (e *Error) Unwrap() []error {
	if e.cause != nil {
		return []error{e.kind, e.cause}
	}
	return []error{e.kind}
}

// New returns an error of this kind with the given public message.
func (k *Kind) New(msg string) error {
	return &Error{kind: k, msg: msg}
}

// Wrap returns an error of this kind that keeps err as its cause.
func (k *Kind) Wrap(err error, msg string) error {
	return &Error{kind: k, msg: msg, cause: err}
}

// KindOf reports the kind of err, or Internal when err is not classified.
func KindOf(err error) *Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.kind
	}
	var k *Kind
	if errors.As(err, &k) {
		return k
	}
	return Internal
}

// StatusCode returns the HTTP status for err.
func StatusCode(err error) int {
	return KindOf(err).StatusCode()
}

// PublicMessage returns the message intended for API callers. Server-side kinds never
// leak their cause.
func PublicMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.msg
	}
	return KindOf(err).Error()
}
