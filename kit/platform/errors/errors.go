package errors

import (
	"errors"
	"fmt"
)

// Error codes shared by the storage and aggregation packages.
const (
	EInternal       = "internal error"
	ENotImplemented = "not implemented"
	ENotFound       = "not found"
	EInvalid        = "invalid" // validation failed
)

// Error is the error struct of colstore.
//
// The Code targets automated handlers so that callers can tell a
// configuration error apart from a contract violation. Msg describes the
// problem to a human. Op and Err chain errors together in a logical stack
// trace.
//
// A configuration error raised while building an aggregator factory:
//
//	&Error{
//	    Code: EInvalid,
//	    Op:   "aggregation.New",
//	    Msg:  "must have a valid, non-empty fieldName or expression",
//	}
type Error struct {
	Code string
	Msg  string
	Op   string
	Err  error
}

// Errorf builds an Error with the given code, operation and formatted message.
func Errorf(code, op, format string, args ...interface{}) *Error {
	return &Error{
		Code: code,
		Op:   op,
		Msg:  fmt.Sprintf(format, args...),
	}
}

func (e *Error) Error() string {
	switch {
	case e.Msg != "" && e.Err != nil:
		return e.Msg + ": " + e.Err.Error()
	case e.Msg != "":
		return e.Msg
	case e.Err != nil:
		return e.Err.Error()
	}
	return "<" + e.Code + ">"
}

func (e *Error) Unwrap() error { return e.Err }

// field walks the chain of *Error below err and returns the first non-empty
// value of get. found is false when err holds no *Error at all.
func field(err error, get func(*Error) string) (v string, found bool) {
	var e *Error
	if !errors.As(err, &e) {
		return "", false
	}
	for e != nil {
		if v := get(e); v != "" {
			return v, true
		}
		if !errors.As(e.Err, &e) {
			break
		}
	}
	return "", true
}

// ErrorCode returns the first code in the chain of err. Errors that carry
// no code are internal.
func ErrorCode(err error) string {
	if err == nil {
		return ""
	}
	if code, _ := field(err, func(e *Error) string { return e.Code }); code != "" {
		return code
	}
	return EInternal
}

// ErrorOp returns the first operation in the chain of err, or "".
func ErrorOp(err error) string {
	if err == nil {
		return ""
	}
	op, _ := field(err, func(e *Error) string { return e.Op })
	return op
}

// ErrorMessage returns the first human-readable message in the chain of err.
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	if msg, _ := field(err, func(e *Error) string { return e.Msg }); msg != "" {
		return msg
	}
	return "An internal error has occurred."
}
