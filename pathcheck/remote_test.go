package pathcheck_test

import (
	"context"
	"errors"
	"testing"

	"github.com/k0sproject/pathguard/fserror"
	"github.com/k0sproject/pathguard/pathcheck"
	"github.com/k0sproject/pathguard/pathguardtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRemoteFixture() *pathguardtest.MockRemote {
	return pathguardtest.NewMockRemote().
		Add("/home", pathcheck.TypeDir).
		Add("/home/user", pathcheck.TypeDir).
		Add("/home/user/bar", pathcheck.TypeFile).
		Add("/home/foo.txt", pathcheck.TypeFile).
		Add("/home/link", pathcheck.TypeSymlink).
		Add("/home/notes.txt", pathcheck.TypeFile)
}

func TestRemoteResolve(t *testing.T) {
	v := pathcheck.NewRemote(newRemoteFixture())
	ctx := context.Background()

	type testCase struct {
		in       string
		expected string
	}

	for _, tc := range []testCase{
		{"../foo.txt", "/home/foo.txt"},
		{"./bar", "/home/user/bar"},
		{".", "/home/user"},
		{"..", "/home"},
		{"/etc/hosts", "/etc/hosts"},
		{".profile", ".profile"},
		{"..data", "..data"},
	} {
		t.Run(tc.in, func(t *testing.T) {
			resolved, err := v.Resolve(ctx, tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, resolved)
		})
	}
}

func TestRemoteResolveRoot(t *testing.T) {
	m := newRemoteFixture()
	m.Cwd = "/"
	resolved, err := pathcheck.NewRemote(m).Resolve(context.Background(), "./etc")
	require.NoError(t, err)
	assert.Equal(t, "/etc", resolved)
}

func TestRemoteValidateResolvesFirst(t *testing.T) {
	m := newRemoteFixture()
	res, err := pathcheck.NewRemote(m).Validate(context.Background(), "../foo.txt", pathcheck.ReadFile)
	require.NoError(t, err)
	assert.True(t, res.Valid)
	assert.Equal(t, "/home/foo.txt", res.Path)
	assert.Equal(t, []string{"realpath ..", "exists /home/foo.txt"}, m.Calls())
}

func TestRemoteValidatePolicies(t *testing.T) {
	type testCase struct {
		name    string
		path    string
		op      pathcheck.Op
		valid   bool
		typ     pathcheck.Type
		kind    fserror.Kind
		message string
		parent  *pathcheck.Parent
	}

	for _, tc := range []testCase{
		{name: "readObject file", path: "/home/foo.txt", op: pathcheck.ReadObject, valid: true, typ: pathcheck.TypeFile},
		{name: "readObject dir", path: "/home", op: pathcheck.ReadObject, valid: true, typ: pathcheck.TypeDir},
		{name: "readObject missing", path: "/nope", op: pathcheck.ReadObject, kind: fserror.KindNotExist, message: "No such file or directory: /nope"},
		{name: "readFile file", path: "/home/foo.txt", op: pathcheck.ReadFile, valid: true, typ: pathcheck.TypeFile},
		{name: "readFile symlink", path: "/home/link", op: pathcheck.ReadFile, valid: true, typ: pathcheck.TypeSymlink},
		{name: "readFile missing", path: "/nope", op: pathcheck.ReadFile, kind: fserror.KindNotExist, message: "No such file: /nope"},
		{name: "readFile dir", path: "/home", op: pathcheck.ReadFile, typ: pathcheck.TypeDir, kind: fserror.KindBadPath, message: "Bad path: /home must be a file"},
		{name: "readDir dir", path: "/home", op: pathcheck.ReadDir, valid: true, typ: pathcheck.TypeDir},
		{name: "readDir missing", path: "/nope", op: pathcheck.ReadDir, kind: fserror.KindNotDirectory, message: "No such directory: /nope"},
		{name: "readDir file", path: "/home/foo.txt", op: pathcheck.ReadDir, typ: pathcheck.TypeFile, kind: fserror.KindBadPath, message: "Bad path: /home/foo.txt must be a directory"},
		{name: "readDir symlink", path: "/home/link", op: pathcheck.ReadDir, typ: pathcheck.TypeSymlink, kind: fserror.KindBadPath, message: "Bad path: /home/link must be a directory"},
		{name: "writeFile file", path: "/home/foo.txt", op: pathcheck.WriteFile, valid: true, typ: pathcheck.TypeFile},
		{name: "writeFile dir", path: "/home", op: pathcheck.WriteFile, typ: pathcheck.TypeDir, kind: fserror.KindBadPath, message: "Bad path: /home must be a file"},
		{
			name: "writeFile missing in dir", path: "/home/new.txt", op: pathcheck.WriteFile,
			kind: fserror.KindNotExist, message: "No such file: /home/new.txt",
			parent: &pathcheck.Parent{Valid: true, Type: pathcheck.TypeDir},
		},
		{
			name: "writeFile missing parent", path: "/nope/new.txt", op: pathcheck.WriteFile,
			kind: fserror.KindNotExist, message: "No such file: /nope/new.txt",
			parent: &pathcheck.Parent{Type: pathcheck.TypeNone, ErrorKind: fserror.KindNotDirectory, Message: "No such directory: /nope"},
		},
		{
			name: "writeFile parent is a file", path: "/home/foo.txt/new.txt", op: pathcheck.WriteFile,
			kind: fserror.KindNotExist, message: "No such file: /home/foo.txt/new.txt",
			parent: &pathcheck.Parent{Type: pathcheck.TypeFile, ErrorKind: fserror.KindBadPath, Message: "Bad path: /home/foo.txt must be a directory"},
		},
		{name: "writeDir dir", path: "/home", op: pathcheck.WriteDir, valid: true, typ: pathcheck.TypeDir},
		{name: "writeDir file", path: "/home/foo.txt", op: pathcheck.WriteDir, typ: pathcheck.TypeFile, kind: fserror.KindBadPath, message: "Bad path: /home/foo.txt must be a directory"},
		{
			name: "writeDir missing in dir", path: "/home/newdir", op: pathcheck.WriteDir,
			kind: fserror.KindNotDirectory, message: "No such directory: /home/newdir",
			parent: &pathcheck.Parent{Valid: true, Type: pathcheck.TypeDir},
		},
		{
			name: "writeDir missing parent", path: "/nope/newdir", op: pathcheck.WriteDir,
			kind: fserror.KindNotDirectory, message: "No such directory: /nope/newdir",
			parent: &pathcheck.Parent{Type: pathcheck.TypeNone, ErrorKind: fserror.KindNotDirectory, Message: "No such directory: /nope"},
		},
		{name: "writeObject file", path: "/home/foo.txt", op: pathcheck.WriteObject, valid: true, typ: pathcheck.TypeFile},
		{name: "writeObject dir", path: "/home", op: pathcheck.WriteObject, valid: true, typ: pathcheck.TypeDir},
		{
			name: "writeObject missing in root", path: "/new", op: pathcheck.WriteObject,
			kind: fserror.KindNotExist, message: "No such file or directory: /new",
			parent: &pathcheck.Parent{Valid: true, Type: pathcheck.TypeDir},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			res, err := pathcheck.NewRemote(newRemoteFixture()).Validate(context.Background(), tc.path, tc.op)
			require.NoError(t, err)
			assert.Equal(t, tc.path, res.Path)
			assert.Equal(t, tc.op, res.Op)
			assert.Equal(t, tc.valid, res.Valid)
			assert.Equal(t, tc.typ, res.Type)
			assert.Equal(t, tc.kind, res.ErrorKind)
			assert.Equal(t, tc.message, res.Message)
			assert.Equal(t, tc.parent, res.Parent)
		})
	}
}

func TestRemoteValidateParentProbeOnlyOnce(t *testing.T) {
	m := newRemoteFixture()
	_, err := pathcheck.NewRemote(m).Validate(context.Background(), "/a/b/c/new.txt", pathcheck.WriteFile)
	require.NoError(t, err)
	assert.Equal(t, []string{"exists /a/b/c/new.txt", "exists /a/b/c"}, m.Calls())
}

func TestRemoteValidateWindowsSeparator(t *testing.T) {
	m := pathguardtest.NewMockRemote()
	m.Separator = `\`
	m.Add(`C:\Users`, pathcheck.TypeDir)
	res, err := pathcheck.NewRemote(m).Validate(context.Background(), `C:\Users\new.txt`, pathcheck.WriteFile)
	require.NoError(t, err)
	require.NotNil(t, res.Parent)
	assert.True(t, res.Parent.Valid)
	assert.True(t, res.Usable())
}

func TestRemoteValidateBackendFailure(t *testing.T) {
	m := newRemoteFixture()
	m.Err = errors.New("channel closed")
	_, err := pathcheck.NewRemote(m).Validate(context.Background(), "/home", pathcheck.ReadDir)
	require.EqualError(t, err, "checkRemotePath: channel closed")
	require.ErrorIs(t, err, fserror.ErrGeneric)

	_, err = pathcheck.NewRemote(m).Validate(context.Background(), "./x", pathcheck.ReadDir)
	require.EqualError(t, err, "checkRemotePath: channel closed")
}

func TestRemoteValidateUnsupportedOp(t *testing.T) {
	m := newRemoteFixture()
	_, err := pathcheck.NewRemote(m).Validate(context.Background(), "/home", pathcheck.Op(0))
	require.ErrorIs(t, err, pathcheck.ErrUnsupportedOp)
	require.Equal(t, fserror.KindGeneric, fserror.KindOf(err))
	assert.Empty(t, m.Calls())
}

func TestRemoteResultErr(t *testing.T) {
	res, err := pathcheck.NewRemote(newRemoteFixture()).Validate(context.Background(), "/nope/newdir", pathcheck.WriteDir)
	require.NoError(t, err)
	assert.False(t, res.Usable())
	err = res.Err("mkdir")
	require.EqualError(t, err, "mkdir: No such directory: /nope")
	require.ErrorIs(t, err, fserror.ErrNotDirectory)
}
