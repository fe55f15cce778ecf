package pathguardtest

import (
	"io/fs"
	"path"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/k0sproject/pathguard/pathcheck"
)

var _ pathcheck.LocalFS = (*MockLocal)(nil)

type mockEntry struct {
	typ  pathcheck.Type
	perm fs.FileMode
}

// MockLocal is an in-memory pathcheck.LocalFS using slash separated paths.
// Permissions are evaluated against the owner bits only.
type MockLocal struct {
	// Cwd is used to make relative paths absolute.
	Cwd string

	mu      sync.Mutex
	entries map[string]mockEntry
}

// NewMockLocal returns a MockLocal containing only the root directory and
// "/work" which is also the working directory.
func NewMockLocal() *MockLocal {
	m := &MockLocal{Cwd: "/work", entries: map[string]mockEntry{}}
	m.AddDir("/", 0o755)
	m.AddDir("/work", 0o755)
	return m
}

// AddDir adds a directory.
func (m *MockLocal) AddDir(p string, perm fs.FileMode) {
	m.add(p, pathcheck.TypeDir, perm)
}

// AddFile adds a regular file.
func (m *MockLocal) AddFile(p string, perm fs.FileMode) {
	m.add(p, pathcheck.TypeFile, perm)
}

func (m *MockLocal) add(p string, typ pathcheck.Type, perm fs.FileMode) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[path.Clean(p)] = mockEntry{typ: typ, perm: perm}
}

// Abs implements pathcheck.LocalFS.
func (m *MockLocal) Abs(p string) (string, error) {
	if path.IsAbs(p) {
		return path.Clean(p), nil
	}
	return path.Join(m.Cwd, p), nil
}

// lookup walks the ancestors of p the way the kernel would.
func (m *MockLocal) lookup(op, p string) (mockEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p = path.Clean(p)
	parts := strings.Split(strings.TrimPrefix(p, "/"), "/")
	current := "/"
	for _, part := range parts {
		if part == "" {
			continue
		}
		dir := m.entries[current]
		if dir.typ != pathcheck.TypeDir {
			return mockEntry{}, &fs.PathError{Op: op, Path: p, Err: syscall.ENOTDIR}
		}
		if dir.perm&0o100 == 0 {
			return mockEntry{}, &fs.PathError{Op: op, Path: p, Err: syscall.EACCES}
		}
		current = path.Join(current, part)
		if _, ok := m.entries[current]; !ok {
			return mockEntry{}, &fs.PathError{Op: op, Path: p, Err: syscall.ENOENT}
		}
	}
	return m.entries[current], nil
}

// Access implements pathcheck.LocalFS.
func (m *MockLocal) Access(p string, mode pathcheck.AccessMode) error {
	entry, err := m.lookup("access", p)
	if err != nil {
		return err
	}
	if mode&pathcheck.AccessRead != 0 && entry.perm&0o400 == 0 ||
		mode&pathcheck.AccessWrite != 0 && entry.perm&0o200 == 0 ||
		mode&pathcheck.AccessExecute != 0 && entry.perm&0o100 == 0 {
		return &fs.PathError{Op: "access", Path: p, Err: syscall.EACCES}
	}
	return nil
}

// Stat implements pathcheck.LocalFS.
func (m *MockLocal) Stat(p string) (fs.FileInfo, error) {
	entry, err := m.lookup("stat", p)
	if err != nil {
		return nil, err
	}
	mode := entry.perm
	if entry.typ == pathcheck.TypeDir {
		mode |= fs.ModeDir
	}
	return &mockFileInfo{name: path.Base(p), mode: mode}, nil
}

type mockFileInfo struct {
	name string
	mode fs.FileMode
}

func (f *mockFileInfo) Name() string       { return f.name }
func (f *mockFileInfo) Size() int64        { return 0 }
func (f *mockFileInfo) Mode() fs.FileMode  { return f.mode }
func (f *mockFileInfo) ModTime() time.Time { return time.Time{} }
func (f *mockFileInfo) IsDir() bool        { return f.mode.IsDir() }
func (f *mockFileInfo) Sys() any           { return nil }
