package base

import (
	"errors"
	"fmt"
)

type ErrorKind byte

const (
	// KindInvalidData marks malformed, truncated or out-of-range input.
	KindInvalidData ErrorKind = iota
	// KindAccessDenied marks authorization-style failures.
	KindAccessDenied
)

// Error is the typed error codec and association failures resolve to.
type Error struct {
	Kind ErrorKind
	Msg  string
}

func (e *Error) Error() string {
	return e.Msg
}

// InvalidDataf builds a KindInvalidData error from a format string.
func InvalidDataf(format string, args ...any) error {
	return &Error{Kind: KindInvalidData, Msg: fmt.Sprintf(format, args...)}
}

// AccessDeniedf builds a KindAccessDenied error from a format string.
func AccessDeniedf(format string, args ...any) error {
	return &Error{Kind: KindAccessDenied, Msg: fmt.Sprintf(format, args...)}
}

// IsInvalidData reports whether err is or wraps a KindInvalidData error.
func IsInvalidData(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == KindInvalidData
}

// IsAccessDenied reports whether err is or wraps a KindAccessDenied error.
func IsAccessDenied(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == KindAccessDenied
}
