package pathcheck

import (
	"context"
	"fmt"
	"strings"

	"github.com/k0sproject/pathguard/fserror"
	"github.com/k0sproject/pathguard/log"
)

// RemoteFS is the remote filesystem collaborator, usually backed by an SFTP
// session.
type RemoteFS interface {
	// Exists returns the type of the object at path or TypeNone if there is none.
	Exists(ctx context.Context, path string) (Type, error)
	// RealPath returns the canonical absolute form of path as resolved by the remote end.
	RealPath(ctx context.Context, path string) (string, error)
	// PathSeparator returns the separator used by the remote filesystem.
	PathSeparator() string
}

const remoteComponent = "checkRemotePath"

// Remote validates paths on a remote filesystem.
type Remote struct {
	log.LoggerInjectable
	fs RemoteFS
}

// NewRemote returns a validator for paths on the given remote filesystem.
func NewRemote(fsys RemoteFS) *Remote {
	return &Remote{fs: fsys}
}

// Resolve rewrites a path starting with "./" or "../" (or consisting of just
// "." or "..") into an absolute path using the remote end's canonical form of
// "." or "..". Other paths are returned as-is.
func (r *Remote) Resolve(ctx context.Context, remotePath string) (string, error) {
	var prefix, rest string
	sep := r.fs.PathSeparator()

	switch {
	case remotePath == "..", remotePath == ".":
		prefix = remotePath
	case strings.HasPrefix(remotePath, ".."+sep), strings.HasPrefix(remotePath, "../"):
		prefix, rest = "..", remotePath[3:]
	case strings.HasPrefix(remotePath, "."+sep), strings.HasPrefix(remotePath, "./"):
		prefix, rest = ".", remotePath[2:]
	default:
		return remotePath, nil
	}

	canonical, err := r.fs.RealPath(ctx, prefix)
	if err != nil {
		return "", fserror.Format(err, remoteComponent, fserror.KindGeneric)
	}

	if rest == "" {
		return canonical, nil
	}

	return strings.TrimSuffix(canonical, sep) + sep + rest, nil
}

// Validate checks the remote path against the policy of the operation. A result
// with Valid false is not an error, an error is only returned for an
// unsupported operation kind or when the remote end fails.
func (r *Remote) Validate(ctx context.Context, remotePath string, op Op) (*Result, error) {
	if !op.Valid() {
		return nil, fserror.Format(fmt.Errorf("%w: %s", ErrUnsupportedOp, op), remoteComponent, fserror.KindGeneric)
	}

	resolved, err := r.Resolve(ctx, remotePath)
	if err != nil {
		return nil, err
	}

	typ, err := r.fs.Exists(ctx, resolved)
	if err != nil {
		return nil, fserror.Format(err, remoteComponent, fserror.KindGeneric)
	}

	res := newResult(resolved, op)
	res.Type = typ

	switch op {
	case ReadObject:
		if typ == TypeNone {
			res.invalidate(fserror.KindNotExist, "No such file or directory: "+resolved)
		}
	case ReadFile:
		switch typ {
		case TypeNone:
			res.invalidate(fserror.KindNotExist, "No such file: "+resolved)
		case TypeDir:
			res.invalidate(fserror.KindBadPath, "Bad path: "+resolved+" must be a file")
		}
	case ReadDir:
		switch typ {
		case TypeNone:
			res.invalidate(fserror.KindNotDirectory, "No such directory: "+resolved)
		case TypeDir:
		default:
			res.invalidate(fserror.KindBadPath, "Bad path: "+resolved+" must be a directory")
		}
	case WriteFile:
		switch typ {
		case TypeDir:
			res.invalidate(fserror.KindBadPath, "Bad path: "+resolved+" must be a file")
		case TypeNone:
			res.invalidate(fserror.KindNotExist, "No such file: "+resolved)
			err = r.checkParent(ctx, res)
		}
	case WriteDir:
		switch typ {
		case TypeNone:
			res.invalidate(fserror.KindNotDirectory, "No such directory: "+resolved)
			err = r.checkParent(ctx, res)
		case TypeDir:
		default:
			res.invalidate(fserror.KindBadPath, "Bad path: "+resolved+" must be a directory")
		}
	case WriteObject:
		if typ == TypeNone {
			res.invalidate(fserror.KindNotExist, "No such file or directory: "+resolved)
			err = r.checkParent(ctx, res)
		}
	}
	if err != nil {
		return nil, err
	}

	r.Log().Debug("validated remote path", log.KeyPath, res.Path, log.KeyOp, op.String(), "valid", res.Valid, log.KeyKind, res.ErrorKind)

	return res, nil
}

func (r *Remote) checkParent(ctx context.Context, res *Result) error {
	parent := parentDir(res.Path, r.fs.PathSeparator())
	typ, err := r.fs.Exists(ctx, parent)
	if err != nil {
		return fserror.Format(err, remoteComponent, fserror.KindGeneric)
	}

	switch typ {
	case TypeNone:
		res.setParent(false, typ, fserror.KindNotDirectory, "No such directory: "+parent)
	case TypeDir:
		res.setParent(true, typ, "", "")
	default:
		res.setParent(false, typ, fserror.KindBadPath, "Bad path: "+parent+" must be a directory")
	}

	return nil
}

// parentDir returns the directory portion of p. A path without a separator
// has the current directory as its parent.
func parentDir(p, sep string) string {
	trimmed := strings.TrimSuffix(p, sep)
	idx := strings.LastIndex(trimmed, sep)
	switch {
	case idx < 0:
		return "."
	case idx == 0:
		return sep
	default:
		return trimmed[:idx]
	}
}
