package pathguardtest

import (
	"context"
	"path"
	"sync"

	"github.com/k0sproject/pathguard/pathcheck"
)

var _ pathcheck.RemoteFS = (*MockRemote)(nil)

// MockRemote is an in-memory pathcheck.RemoteFS. Paths are used verbatim as
// keys, nothing is normalized.
type MockRemote struct {
	// Cwd is returned by RealPath(".") and its parent by RealPath("..").
	Cwd string
	// Separator is returned by PathSeparator, "/" when empty.
	Separator string
	// Err is returned by every call when set.
	Err error

	mu      sync.Mutex
	entries map[string]pathcheck.Type
	calls   []string
}

// NewMockRemote returns a MockRemote with "/" as the only directory and
// "/home/user" as the working directory.
func NewMockRemote() *MockRemote {
	return &MockRemote{
		Cwd:     "/home/user",
		entries: map[string]pathcheck.Type{"/": pathcheck.TypeDir},
	}
}

// Add adds an object of the given type.
func (m *MockRemote) Add(p string, typ pathcheck.Type) *MockRemote {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[p] = typ
	return m
}

// Calls returns the calls received, in the form "exists /path" or "realpath ..".
func (m *MockRemote) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	calls := make([]string, len(m.calls))
	copy(calls, m.calls)
	return calls
}

func (m *MockRemote) record(call string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, call)
}

// Exists implements pathcheck.RemoteFS.
func (m *MockRemote) Exists(ctx context.Context, p string) (pathcheck.Type, error) {
	m.record("exists " + p)
	if err := ctx.Err(); err != nil {
		return pathcheck.TypeNone, err
	}
	if m.Err != nil {
		return pathcheck.TypeNone, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.entries[p], nil
}

// RealPath implements pathcheck.RemoteFS.
func (m *MockRemote) RealPath(ctx context.Context, p string) (string, error) {
	m.record("realpath " + p)
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if m.Err != nil {
		return "", m.Err
	}
	if path.IsAbs(p) {
		return path.Clean(p), nil
	}
	return path.Join(m.Cwd, p), nil
}

// PathSeparator implements pathcheck.RemoteFS.
func (m *MockRemote) PathSeparator() string {
	if m.Separator == "" {
		return "/"
	}
	return m.Separator
}
