package sftpclient

import (
	"github.com/k0sproject/pathguard/fserror"
)

const msgNoConnection = "No SFTP connection available"

// SessionHolder exposes the live session handle, nil when not connected.
type SessionHolder interface {
	Session() Session
}

func notConnected() *fserror.Error {
	return fserror.New(fserror.KindConnect, msgNoConnection)
}

// EnsureConnected returns a KindConnect error when the holder has no live
// session. It only reads the session handle, a concurrent disconnect is not
// guarded against.
func EnsureConnected(h SessionHolder) error {
	if h == nil || h.Session() == nil {
		return notConnected()
	}
	return nil
}

// EnsureConnectedFunc is EnsureConnected for callers that want the failure
// delivered to a function. It returns false after calling reject with the
// same error EnsureConnected would return.
func EnsureConnectedFunc(h SessionHolder, reject func(error)) bool {
	if err := EnsureConnected(h); err != nil {
		reject(err)
		return false
	}
	return true
}
