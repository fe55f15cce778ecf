package fserror

import (
	"errors"
	"io/fs"
	"net"
	"syscall"
)

// NativeCode extracts a symbolic failure code such as "ECONNRESET" from a raw
// error. An empty Kind is returned when the error carries no recognizable code.
func NativeCode(err error) Kind {
	if err == nil {
		return ""
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return codeLookup
	}

	var errno syscall.Errno
	if errors.As(err, &errno) {
		if name := errnoName(errno); name != "" {
			return Kind(name)
		}
	}

	switch {
	case errors.Is(err, fs.ErrNotExist):
		return KindNotExist
	case errors.Is(err, fs.ErrPermission):
		return KindPermission
	}

	return ""
}
