package portalerr

import (
	"errors"
	"fmt"
)

// Kind classifies a failure.
type Kind string

const (
	Validation         Kind = "validation"
	Auth               Kind = "auth"
	DeviceConflict     Kind = "device_conflict"
	Network            Kind = "network"
	Server             Kind = "server"
	InvalidReference   Kind = "invalid_reference"
	TransactionTimeout Kind = "transaction_timeout"
)

func (k Kind) Error() string { return "portal." + string(k) }

// Error is a classified failure. Status is the HTTP status code, or 0 when
// the request never produced a response.
type Error struct {
	Kind    Kind
	Message string
	Status  int
	// Code is the machine readable error field from the response body, if any.
	Code string
	Err  error
}

// New creates an *Error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap creates an *Error of the given kind around cause.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Err: cause}
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Status != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.Status)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind.Error(), msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind.Error(), msg)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches Kind targets, so errors.Is(err, portalerr.Auth) works on any
// wrapped *Error.
func (e *Error) Is(target error) bool {
	k, ok := target.(Kind)
	return ok && k == e.Kind
}

// WithStatus sets the HTTP status and returns e.
func (e *Error) WithStatus(status int) *Error {
	e.Status = status
	return e
}

// WithCode sets the response error code and returns e.
func (e *Error) WithCode(code string) *Error {
	e.Code = code
	return e
}

// KindOf returns the kind of err. Unclassified errors are reported as Server.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	var k Kind
	if errors.As(err, &k) {
		return k
	}
	return Server
}

// Message returns a user presentable message for err.
func Message(err error) string {
	var pe *Error
	if errors.As(err, &pe) && pe.Message != "" {
		return pe.Message
	}
	if err == nil {
		return ""
	}
	return err.Error()
}

// Status returns the HTTP status attached to err, or 0.
func Status(err error) int {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Status
	}
	return 0
}
