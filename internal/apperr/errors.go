package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies a failure so the transport layer can pick a status code
// without inspecting error strings.
type Kind int

const (
	KindValidation Kind = iota
	KindPermission
	KindNotFound
	KindBusiness
	KindConflict
	KindRateLimit
	KindStorage
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindPermission:
		return "permission"
	case KindNotFound:
		return "not_found"
	case KindBusiness:
		return "business"
	case KindConflict:
		return "conflict"
	case KindRateLimit:
		return "rate_limit"
	case KindStorage:
		return "storage"
	default:
		return "unknown"
	}
}

type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

func New(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

func Wrap(kind Kind, err error, msg string) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

func Validation(format string, args ...interface{}) *Error {
	return New(KindValidation, format, args...)
}

func Permission(format string, args ...interface{}) *Error {
	return New(KindPermission, format, args...)
}

func NotFound(format string, args ...interface{}) *Error {
	return New(KindNotFound, format, args...)
}

func Business(format string, args ...interface{}) *Error {
	return New(KindBusiness, format, args...)
}

func Conflict(format string, args ...interface{}) *Error {
	return New(KindConflict, format, args...)
}

func RateLimit(format string, args ...interface{}) *Error {
	return New(KindRateLimit, format, args...)
}

func Storage(err error, msg string) *Error {
	return Wrap(KindStorage, err, msg)
}

// KindOf reports the Kind of err, or KindStorage for untyped errors so that
// unexpected failures surface as 5xx rather than leaking as 400s.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindStorage
}

func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}
