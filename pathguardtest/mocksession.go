package pathguardtest

import (
	"errors"
	"io/fs"
	"path"
	"sync"
	"time"
)

// ErrSessionClosed is returned by MockSession calls after the session has ended.
var ErrSessionClosed = errors.New("session closed")

type sessionFileInfo struct {
	name string
	mode fs.FileMode
}

func (i sessionFileInfo) Name() string       { return i.name }
func (i sessionFileInfo) Size() int64        { return 0 }
func (i sessionFileInfo) Mode() fs.FileMode  { return i.mode }
func (i sessionFileInfo) ModTime() time.Time { return time.Time{} }
func (i sessionFileInfo) IsDir() bool        { return i.mode.IsDir() }
func (i sessionFileInfo) Sys() any           { return nil }

// MockSession is an in-memory stand-in for an SFTP session.
type MockSession struct {
	// Cwd is the working directory returned by Getwd and used for RealPath.
	Cwd string
	// Block, when set, is waited on by Lstat before it returns.
	Block chan struct{}

	mu      sync.Mutex
	entries map[string]fs.FileMode
	errs    map[string]error
	done    chan struct{}
	waitErr error
	ended   bool
}

// NewMockSession returns a MockSession with "/" as the only directory and
// "/home/user" as the working directory.
func NewMockSession() *MockSession {
	return &MockSession{
		Cwd:     "/home/user",
		entries: map[string]fs.FileMode{"/": fs.ModeDir | 0o755},
		errs:    make(map[string]error),
		done:    make(chan struct{}),
	}
}

// AddFile adds a regular file.
func (m *MockSession) AddFile(p string) *MockSession {
	return m.add(p, 0o644)
}

// AddDir adds a directory.
func (m *MockSession) AddDir(p string) *MockSession {
	return m.add(p, fs.ModeDir|0o755)
}

// AddSymlink adds a symbolic link.
func (m *MockSession) AddSymlink(p string) *MockSession {
	return m.add(p, fs.ModeSymlink|0o777)
}

// SetError makes Lstat on p fail with err.
func (m *MockSession) SetError(p string, err error) *MockSession {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errs[p] = err
	return m
}

func (m *MockSession) add(p string, mode fs.FileMode) *MockSession {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[p] = mode
	return m
}

// Lstat returns the file info of p or an fs.ErrNotExist path error.
func (m *MockSession) Lstat(p string) (fs.FileInfo, error) {
	if m.Block != nil {
		<-m.Block
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ended {
		return nil, ErrSessionClosed
	}
	if err, ok := m.errs[p]; ok {
		return nil, err
	}
	mode, ok := m.entries[p]
	if !ok {
		return nil, &fs.PathError{Op: "lstat", Path: p, Err: fs.ErrNotExist}
	}
	return sessionFileInfo{name: path.Base(p), mode: mode}, nil
}

// RealPath returns p cleaned, joined to Cwd when relative.
func (m *MockSession) RealPath(p string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ended {
		return "", ErrSessionClosed
	}
	if path.IsAbs(p) {
		return path.Clean(p), nil
	}
	return path.Join(m.Cwd, p), nil
}

// Getwd returns Cwd.
func (m *MockSession) Getwd() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ended {
		return "", ErrSessionClosed
	}
	return m.Cwd, nil
}

// Wait blocks until the session is closed or killed and returns the error
// given to Kill.
func (m *MockSession) Wait() error {
	<-m.done
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.waitErr
}

// Close ends the session.
func (m *MockSession) Close() error {
	m.end(nil)
	return nil
}

// Kill ends the session as if the connection had failed with err.
func (m *MockSession) Kill(err error) {
	m.end(err)
}

// Ended returns true after Close or Kill.
func (m *MockSession) Ended() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ended
}

func (m *MockSession) end(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ended {
		return
	}
	m.ended = true
	m.waitErr = err
	close(m.done)
}
