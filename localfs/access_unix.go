//go:build !windows

package localfs

import (
	"io/fs"

	"github.com/k0sproject/pathguard/pathcheck"
	"golang.org/x/sys/unix"
)

func access(path string, mode pathcheck.AccessMode) error {
	var bits uint32
	if mode&pathcheck.AccessRead != 0 {
		bits |= unix.R_OK
	}
	if mode&pathcheck.AccessWrite != 0 {
		bits |= unix.W_OK
	}
	if mode&pathcheck.AccessExecute != 0 {
		bits |= unix.X_OK
	}
	if bits == 0 {
		bits = unix.F_OK
	}
	if err := unix.Access(path, bits); err != nil {
		return &fs.PathError{Op: "access", Path: path, Err: err}
	}
	return nil
}
