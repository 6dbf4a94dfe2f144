// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package apperr defines the application's error taxonomy. Every error
// that should reach a client with a specific HTTP status is an *Error
// whose Kind identifies its category; everything else is reported as a
// generic internal error.
package apperr

import (
	"errors"
	"net/http"
)

// Kind identifies a category of failure.
type Kind string

const (
	KindInvalidCredential Kind = "INVALID_CREDENTIAL"
	KindUserNotRegistered Kind = "USER_NOT_REGISTERED"
	KindForbidden         Kind = "FORBIDDEN"
	KindNotEnrolled       Kind = "NOT_ENROLLED"
	KindLessonNotFound    Kind = "LESSON_NOT_FOUND"
	KindNotFound          Kind = "NOT_FOUND"
	KindConflict          Kind = "CONFLICT"
	KindBadRequest        Kind = "BAD_REQUEST"
	KindTooManyRequests   Kind = "TOO_MANY_REQUESTS"
	KindUnavailable       Kind = "UNAVAILABLE"
	KindInternal          Kind = "INTERNAL"
)

var statusByKind = map[Kind]int{
	KindInvalidCredential: http.StatusUnauthorized,
	KindUserNotRegistered: http.StatusUnauthorized,
	KindForbidden:         http.StatusForbidden,
	KindNotEnrolled:       http.StatusForbidden,
	KindLessonNotFound:    http.StatusNotFound,
	KindNotFound:          http.StatusNotFound,
	KindConflict:          http.StatusConflict,
	KindBadRequest:        http.StatusBadRequest,
	KindTooManyRequests:   http.StatusTooManyRequests,
	KindUnavailable:       http.StatusServiceUnavailable,
	KindInternal:          http.StatusInternalServerError,
}

// Error is a categorised application error. Message is safe to show to
// clients; Err carries the underlying cause for logs.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil && e.Message != "" {
		return e.Message + ": " + e.Err.Error()
	}
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches another *Error by Kind so that sentinels work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// Status returns the HTTP status code for the error's kind.
func (e *Error) Status() int {
	if s, ok := statusByKind[e.Kind]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// Sentinels for errors.Is comparisons.
var (
	ErrInvalidCredential = &Error{Kind: KindInvalidCredential, Message: "invalid or expired credential"}
	ErrUserNotRegistered = &Error{Kind: KindUserNotRegistered, Message: "user not registered, register first"}
	ErrForbidden         = &Error{Kind: KindForbidden, Message: "forbidden"}
	ErrNotEnrolled       = &Error{Kind: KindNotEnrolled, Message: "not enrolled in this course"}
	ErrLessonNotFound    = &Error{Kind: KindLessonNotFound, Message: "lesson not found"}
	ErrNotFound          = &Error{Kind: KindNotFound, Message: "not found"}
	ErrConflict          = &Error{Kind: KindConflict, Message: "already exists"}
	ErrBadRequest        = &Error{Kind: KindBadRequest, Message: "bad request"}
)

// New returns an error of the given kind with a client-facing message.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

// Wrap returns an error of the given kind carrying cause for logging.
func Wrap(kind Kind, msg string, cause error) *Error {
	return &Error{Kind: kind, Message: msg, Err: cause}
}

// Forbidden returns a Forbidden error with a specific message.
func Forbidden(msg string) *Error { return New(KindForbidden, msg) }

// NotFound returns a NotFound error naming the missing resource.
func NotFound(msg string) *Error { return New(KindNotFound, msg) }

// Conflict returns a Conflict error with a specific message.
func Conflict(msg string) *Error { return New(KindConflict, msg) }

// BadRequest returns a BadRequest error with a specific message.
func BadRequest(msg string) *Error { return New(KindBadRequest, msg) }

// Unavailable reports a feature whose backing service is not configured.
func Unavailable(msg string) *Error { return New(KindUnavailable, msg) }

// InvalidCredential wraps an identity-provider failure.
func InvalidCredential(cause error) *Error {
	return Wrap(KindInvalidCredential, ErrInvalidCredential.Message, cause)
}

// StatusOf maps any error to an HTTP status. Non-taxonomy errors are 500.
func StatusOf(err error) int {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Status()
	}
	return http.StatusInternalServerError
}

// MessageOf returns the client-facing message for err. Internal errors
// never leak their cause.
func MessageOf(err error) string {
	var ae *Error
	if errors.As(err, &ae) && ae.Kind != KindInternal {
		if ae.Message != "" {
			return ae.Message
		}
		return string(ae.Kind)
	}
	return "internal server error"
}
