package fserror

import (
	"errors"
	"fmt"
)

var (
	ErrGeneric      = &Error{Kind: KindGeneric}      // ErrGeneric matches any error of KindGeneric with errors.Is
	ErrPermission   = &Error{Kind: KindPermission}   // ErrPermission matches any error of KindPermission with errors.Is
	ErrNotExist     = &Error{Kind: KindNotExist}     // ErrNotExist matches any error of KindNotExist with errors.Is
	ErrNotDirectory = &Error{Kind: KindNotDirectory} // ErrNotDirectory matches any error of KindNotDirectory with errors.Is
	ErrBadPath      = &Error{Kind: KindBadPath}      // ErrBadPath matches any error of KindBadPath with errors.Is
	ErrNotConnected = &Error{Kind: KindConnect}      // ErrNotConnected matches any error of KindConnect with errors.Is
)

// Error is a normalized error. An *Error has already been classified, passing it
// through Format again only adds a component prefix and keeps the Kind.
type Error struct {
	// Message is the full human readable message including component prefixes.
	Message string
	// Kind is the classification of the failure.
	Kind Kind

	cause error
}

// New returns a normalized error with the given kind and message. No component
// prefix is added.
func New(kind Kind, msg string) *Error {
	return &Error{Message: msg, Kind: kind}
}

// Newf is New with a sprintf style message.
func Newf(kind Kind, template string, args ...any) *Error {
	return New(kind, fmt.Sprintf(template, args...))
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Message == "" {
		return string(e.Kind)
	}
	return e.Message
}

// Unwrap returns the raw error the normalized error was created from, if any.
func (e *Error) Unwrap() error {
	return e.cause
}

// Is reports whether the target is an *Error of the same Kind.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// WithContext returns a new *Error with the component name prepended to the
// message and the retry suffix appended. The Kind and the cause are preserved.
func (e *Error) WithContext(component string, opts ...Option) *Error {
	options := NewOptions(opts...)
	return &Error{
		Message: component + ": " + e.Error() + options.suffix(),
		Kind:    e.Kind,
		cause:   e.cause,
	}
}

// KindOf returns the Kind of a normalized error in the chain or KindGeneric
// if there is none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindGeneric
}

// IsNormalized returns true if err is or wraps an *Error.
func IsNormalized(err error) bool {
	var e *Error
	return errors.As(err, &e)
}
