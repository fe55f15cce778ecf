package fserror

import (
	"errors"
	"net"
)

// Format turns any error into a normalized *Error with the component name as
// the message prefix.
//
//   - a nil error produces a KindGeneric "Undefined error" which always
//     indicates a bug in the caller.
//   - an already normalized error keeps its Kind and gets one more prefix.
//   - a raw error is classified by its native code. Connection failures get a
//     tailored message. The native code becomes the Kind, or defaultKind when
//     there is none.
//
// The Attempts option appends an " after N attempts" suffix.
func Format(err error, component string, defaultKind Kind, opts ...Option) *Error {
	if err == nil {
		return &Error{Message: component + ": Undefined error - probably a bug!", Kind: KindGeneric}
	}

	var normalized *Error
	if errors.As(err, &normalized) {
		return normalized.WithContext(component, opts...)
	}

	options := NewOptions(opts...)
	suffix := options.suffix()
	code := NativeCode(err)

	var msg string
	switch code {
	case codeLookup:
		msg = component + ": Address lookup failed for host " + lookupHost(err) + suffix
	case codeRefused:
		msg = component + ": Remote host at " + remoteAddr(err) + " refused connection" + suffix
	case codeReset:
		msg = component + ": Remote host has reset the connection: " + err.Error() + suffix
	default:
		msg = component + ": " + err.Error() + suffix
	}

	kind := code
	if kind == "" {
		kind = defaultKind
	}
	if kind == "" {
		kind = KindGeneric
	}

	return &Error{Message: msg, Kind: kind, cause: err}
}

// FormatMessage produces a normalized *Error from a plain message.
func FormatMessage(msg string, component string, defaultKind Kind, opts ...Option) *Error {
	options := NewOptions(opts...)
	if defaultKind == "" {
		defaultKind = KindGeneric
	}
	return &Error{Message: component + ": " + msg + options.suffix(), Kind: defaultKind}
}

func lookupHost(err error) string {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) && dnsErr.Name != "" {
		return dnsErr.Name
	}
	return "(unknown)"
}

func remoteAddr(err error) string {
	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Addr != nil {
		return opErr.Addr.String()
	}
	return "(unknown)"
}
