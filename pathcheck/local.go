package pathcheck

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/k0sproject/pathguard/fserror"
	"github.com/k0sproject/pathguard/log"
)

// AccessMode is a set of permissions to check with LocalFS.Access.
type AccessMode uint8

const (
	AccessRead    AccessMode = 1 << iota // AccessRead checks for read permission
	AccessWrite                          // AccessWrite checks for write permission
	AccessExecute                        // AccessExecute checks for execute (directory traverse) permission
)

// LocalFS is the local filesystem collaborator.
type LocalFS interface {
	// Access returns an error if the path is not accessible with the given mode.
	Access(path string, mode AccessMode) error
	// Stat returns the file info of the path, following symlinks.
	Stat(path string) (fs.FileInfo, error)
	// Abs returns an absolute representation of the path with . and .. resolved.
	Abs(path string) (string, error)
}

const localComponent = "checkLocalPath"

// Local validates paths on a local filesystem.
type Local struct {
	log.LoggerInjectable
	fs LocalFS
}

// NewLocal returns a validator for paths on the given local filesystem.
func NewLocal(fsys LocalFS) *Local {
	return &Local{fs: fsys}
}

func accessModeFor(op Op) (AccessMode, error) {
	switch op {
	case ReadFile, ReadDir, ReadObject:
		return AccessRead, nil
	case WriteFile, WriteDir, WriteObject:
		return AccessWrite, nil
	default:
		return 0, fserror.Format(fmt.Errorf("%w: %s", ErrUnsupportedOp, op), localComponent, fserror.KindGeneric)
	}
}

// Probe checks that the path is accessible for the operation. A directory
// read with readDir must also be traversable. When a write target does not
// exist, the parent directory is checked for write permission. The target's
// kind is not verified, see Validate.
func (l *Local) Probe(ctx context.Context, path string, op Op) (*Result, error) {
	mode, err := accessModeFor(op)
	if err != nil {
		return nil, err
	}

	abs, err := l.fs.Abs(path)
	if err != nil {
		return nil, fserror.Format(err, localComponent, fserror.KindGeneric)
	}

	res := newResult(abs, op)

	if err := ctx.Err(); err != nil {
		return nil, fserror.Format(err, localComponent, fserror.KindGeneric)
	}

	if err := l.fs.Access(abs, mode); err != nil {
		msg, kind := fserror.Classify(err, abs)
		res.invalidate(kind, msg)
	} else if op == ReadDir {
		l.probeTraverse(res)
	}

	if res.Valid || !op.IsWrite() || res.ErrorKind != fserror.KindNotExist {
		return res, nil
	}

	parent := filepath.Dir(abs)
	if err := l.fs.Access(parent, AccessWrite); err != nil {
		msg, kind := fserror.Classify(err, parent)
		res.setParent(false, TypeNone, kind, msg)
	} else {
		res.setParent(true, TypeDir, "", "")
	}

	return res, nil
}

// probeTraverse checks execute permission on a readable directory. Anything
// that is not a directory is left for the kind check.
func (l *Local) probeTraverse(res *Result) {
	info, err := l.fs.Stat(res.Path)
	if err != nil || !info.IsDir() {
		return
	}
	if err := l.fs.Access(res.Path, AccessExecute); err != nil {
		msg, kind := fserror.Classify(err, res.Path)
		res.invalidate(kind, msg)
	}
}

// Validate checks that the path is accessible and of the right kind for the
// operation. A result with Valid false is not an error, an error is only
// returned for an unsupported operation kind or an unexpected failure.
func (l *Local) Validate(ctx context.Context, path string, op Op) (*Result, error) {
	res, err := l.Probe(ctx, path, op)
	if err != nil {
		return nil, err
	}

	switch {
	case res.Valid:
		if err := l.checkType(res); err != nil {
			return nil, err
		}
	case op.IsWrite() && res.ErrorKind == fserror.KindNotExist:
		l.checkParentType(res)
	}

	l.Log().Debug("validated local path", log.KeyPath, res.Path, log.KeyOp, op.String(), "valid", res.Valid, log.KeyKind, res.ErrorKind)

	return res, nil
}

func (l *Local) checkType(res *Result) error {
	info, err := l.fs.Stat(res.Path)
	if err != nil {
		return fserror.Format(fserror.ClassifyError(err, res.Path), localComponent, fserror.KindGeneric)
	}

	res.Type = TypeOf(info.Mode())

	switch res.Op {
	case ReadFile:
		if !info.Mode().IsRegular() {
			res.invalidate(fserror.KindBadPath, "Bad path: "+res.Path+" must be a regular file")
		}
	case WriteFile:
		if info.IsDir() {
			res.invalidate(fserror.KindBadPath, "Bad path: "+res.Path+" must be a regular file")
		}
	case ReadDir, WriteDir:
		if !info.IsDir() {
			res.invalidate(fserror.KindBadPath, "Bad path: "+res.Path+" must be a directory")
		}
	case ReadObject, WriteObject:
	}

	return nil
}

// the parent must be an existing directory, this supersedes a permission
// failure from the probe.
func (l *Local) checkParentType(res *Result) {
	parent := filepath.Dir(res.Path)
	info, err := l.fs.Stat(parent)
	if err != nil {
		if res.Parent == nil || res.Parent.Valid {
			msg, kind := fserror.Classify(err, parent)
			res.setParent(false, TypeNone, kind, msg)
		}
		return
	}

	typ := TypeOf(info.Mode())
	if !info.IsDir() {
		res.setParent(false, typ, fserror.KindBadPath, "Bad path: "+parent+" must be a directory")
		return
	}
	if res.Parent != nil {
		res.Parent.Type = typ
	}
}
