//go:build windows

package localfs

import (
	"io/fs"
	"os"

	"github.com/k0sproject/pathguard/pathcheck"
)

// windows has no access(2), the read-only attribute is the only thing the
// file mode reflects so only write access can actually be denied here.
func access(path string, mode pathcheck.AccessMode) error {
	info, err := os.Stat(path)
	if err != nil {
		return err //nolint:wrapcheck
	}
	if mode&pathcheck.AccessWrite != 0 && !info.IsDir() && info.Mode().Perm()&0o200 == 0 {
		return &fs.PathError{Op: "access", Path: path, Err: fs.ErrPermission}
	}
	return nil
}
