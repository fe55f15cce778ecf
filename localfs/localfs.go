// Package localfs implements the local filesystem collaborator for path
// validation on top of the operating system.
package localfs

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/k0sproject/pathguard/pathcheck"
	"github.com/mitchellh/go-homedir"
)

var _ pathcheck.LocalFS = OS{}

// OS is the operating system's filesystem.
type OS struct{}

// Stat implements pathcheck.LocalFS.
func (OS) Stat(path string) (fs.FileInfo, error) {
	return os.Stat(path) //nolint:wrapcheck
}

// Access implements pathcheck.LocalFS.
func (OS) Access(path string, mode pathcheck.AccessMode) error {
	return access(path, mode)
}

// Abs implements pathcheck.LocalFS. A leading ~ is expanded to the user's
// home directory.
func (OS) Abs(path string) (string, error) {
	expanded, err := Expand(path)
	if err != nil {
		return "", err
	}
	abs, err := filepath.Abs(expanded)
	if err != nil {
		return "", fmt.Errorf("absolute path of %s: %w", path, err)
	}
	return abs, nil
}

// Expand does ~/ style path expansion for paths under the current user's home.
func Expand(path string) (string, error) {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return "", fmt.Errorf("expand %s: %w", path, err)
	}
	return expanded, nil
}

// NewValidator returns a path validator for the local filesystem.
func NewValidator() *pathcheck.Local {
	return pathcheck.NewLocal(OS{})
}
