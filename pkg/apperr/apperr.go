package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error so handlers can map it to an HTTP status without
// string matching.
type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindNotFound
	KindInvalidState
	KindOverpayment
)

// Error carries a kind alongside the message. It supports errors.Is/As and
// fmt %w wrapping like any other error.
type Error struct {
	kind Kind
	msg  string
	err  error
}

func (e *Error) Error() string {
	if e.err != nil {
		return e.msg + ": " + e.err.Error()
	}
	return e.msg
}

func (e *Error) Unwrap() error { return e.err }

func (e *Error) Kind() Kind { return e.kind }

func newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{kind: kind, msg: fmt.Sprintf(format, args...)}
}

// Validation marks malformed or out-of-bounds input. Never retried.
func Validation(format string, args ...interface{}) error {
	return newf(KindValidation, format, args...)
}

// NotFound marks a missing loan/application/payment reference.
func NotFound(format string, args ...interface{}) error {
	return newf(KindNotFound, format, args...)
}

// InvalidState marks an operation against an entity not in the required state
// (deciding a non-pending application, verifying a non-pending payment).
func InvalidState(format string, args ...interface{}) error {
	return newf(KindInvalidState, format, args...)
}

// Overpayment marks a principal allocation that would drive a balance
// negative. Its occurrence indicates an allocation or concurrency bug, not a
// user input problem.
func Overpayment(format string, args ...interface{}) error {
	return newf(KindOverpayment, format, args...)
}

// Wrap attaches a kind to an underlying error.
func Wrap(kind Kind, err error, msg string) error {
	return &Error{kind: kind, msg: msg, err: err}
}

// KindOf returns the kind of err, walking the wrap chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.kind
	}
	return KindUnknown
}

// IsKind reports whether err (or anything it wraps) carries the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// HTTPStatus maps an error kind to the status the REST contract promises:
// 400 for bad input, 404 for missing references, 409 for state conflicts,
// 422 for overpayment, 500 otherwise.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindInvalidState:
		return http.StatusConflict
	case KindOverpayment:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
