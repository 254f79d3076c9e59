// Package domainerrors carries coded errors across service boundaries.
//
// Services classify every failure with a Code so the transport layer can map it
// to a status without string matching. Stores do not use this package; they
// return sentinel errors (pkg/platform/sentinel) that services translate.
package domainerrors

import (
	"errors"
	"fmt"
	"strings"
)

// Code classifies a domain failure.
type Code string

const (
	CodeNotFound             Code = "not_found"
	CodePolicyViolation      Code = "policy_violation"
	CodeConflict             Code = "conflict"
	CodeValidation           Code = "validation_error"
	CodeCircularRelationship Code = "circular_relationship"
	CodeInvariantViolation   Code = "invariant_violation"
	CodeInvalidInput         Code = "invalid_input"
	CodeBadRequest           Code = "bad_request"
	CodeUnauthorized         Code = "unauthorized"
	CodeForbidden            Code = "forbidden"
	CodeTimeout              Code = "timeout"
	CodeInternal             Code = "internal_error"
)

// Error is a coded domain error. Reasons holds individual rule messages when a
// validation produced more than one.
type Error struct {
	Code    Code
	Message string
	Reasons []string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New builds a coded error.
func New(code Code, msg string) error {
	return &Error{Code: code, Message: msg}
}

// Newf builds a coded error with a formatted message.
func Newf(code Code, format string, args ...any) error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying error.
func Wrap(err error, code Code, msg string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: msg, Err: err}
}

// WithReasons builds a coded error whose message is the joined reasons.
func WithReasons(code Code, reasons []string) error {
	return &Error{Code: code, Message: strings.Join(reasons, "; "), Reasons: append([]string(nil), reasons...)}
}

// As extracts the outermost domain error from a chain.
func As(err error) (*Error, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

// HasCode reports whether the outermost domain error in the chain has code.
func HasCode(err error, code Code) bool {
	de, ok := As(err)
	return ok && de.Code == code
}

// Is is an alias of HasCode kept for call sites that read better with it.
func Is(err error, code Code) bool {
	return HasCode(err, code)
}

// CodeOf returns the code of the outermost domain error, or CodeInternal.
func CodeOf(err error) Code {
	if de, ok := As(err); ok {
		return de.Code
	}
	return CodeInternal
}
