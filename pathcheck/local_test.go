package pathcheck_test

import (
	"context"
	"testing"

	"github.com/k0sproject/pathguard/fserror"
	"github.com/k0sproject/pathguard/pathcheck"
	"github.com/k0sproject/pathguard/pathguardtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLocalFixture() *pathguardtest.MockLocal {
	m := pathguardtest.NewMockLocal()
	m.AddDir("/data", 0o755)
	m.AddFile("/data/file.txt", 0o644)
	m.AddFile("/data/secret.txt", 0o000)
	m.AddDir("/data/locked", 0o555)
	m.AddDir("/data/private", 0o000)
	m.AddFile("/data/locked/ro.txt", 0o444)
	return m
}

func TestLocalValidateExistingTargets(t *testing.T) {
	v := pathcheck.NewLocal(newLocalFixture())

	type testCase struct {
		path string
		op   pathcheck.Op
		typ  pathcheck.Type
	}

	for _, tc := range []testCase{
		{"/data/file.txt", pathcheck.ReadFile, pathcheck.TypeFile},
		{"/data", pathcheck.ReadDir, pathcheck.TypeDir},
		{"/data/file.txt", pathcheck.ReadObject, pathcheck.TypeFile},
		{"/data/file.txt", pathcheck.WriteFile, pathcheck.TypeFile},
		{"/data", pathcheck.WriteDir, pathcheck.TypeDir},
		{"/data", pathcheck.WriteObject, pathcheck.TypeDir},
	} {
		t.Run(tc.op.String(), func(t *testing.T) {
			res, err := v.Validate(context.Background(), tc.path, tc.op)
			require.NoError(t, err)
			assert.True(t, res.Valid)
			assert.Equal(t, tc.path, res.Path)
			assert.Equal(t, tc.typ, res.Type)
			assert.Empty(t, res.Message)
			assert.Empty(t, res.ErrorKind)
			assert.Nil(t, res.Parent)
			assert.True(t, res.Usable())
			assert.NoError(t, res.Err("put"))
		})
	}
}

func TestLocalValidateRelativePath(t *testing.T) {
	m := newLocalFixture()
	m.Cwd = "/data/locked"
	res, err := pathcheck.NewLocal(m).Validate(context.Background(), "../file.txt", pathcheck.ReadFile)
	require.NoError(t, err)
	assert.True(t, res.Valid)
	assert.Equal(t, "/data/file.txt", res.Path)
}

func TestLocalValidateWrongKind(t *testing.T) {
	v := pathcheck.NewLocal(newLocalFixture())

	res, err := v.Validate(context.Background(), "/data", pathcheck.ReadFile)
	require.NoError(t, err)
	assert.False(t, res.Valid)
	assert.Equal(t, fserror.KindBadPath, res.ErrorKind)
	assert.Equal(t, "Bad path: /data must be a regular file", res.Message)
	assert.Nil(t, res.Parent)

	res, err = v.Validate(context.Background(), "/data/file.txt", pathcheck.ReadDir)
	require.NoError(t, err)
	assert.False(t, res.Valid)
	assert.Equal(t, fserror.KindBadPath, res.ErrorKind)
	assert.Equal(t, "Bad path: /data/file.txt must be a directory", res.Message)

	res, err = v.Validate(context.Background(), "/data", pathcheck.WriteFile)
	require.NoError(t, err)
	assert.False(t, res.Valid)
	assert.Equal(t, fserror.KindBadPath, res.ErrorKind)
	assert.Nil(t, res.Parent)
	assert.False(t, res.Usable())

	res, err = v.Validate(context.Background(), "/data/file.txt", pathcheck.WriteDir)
	require.NoError(t, err)
	assert.False(t, res.Valid)
	assert.Equal(t, "Bad path: /data/file.txt must be a directory", res.Message)
}

func TestLocalValidatePermission(t *testing.T) {
	v := pathcheck.NewLocal(newLocalFixture())

	res, err := v.Validate(context.Background(), "/data/secret.txt", pathcheck.ReadFile)
	require.NoError(t, err)
	assert.False(t, res.Valid)
	assert.Equal(t, fserror.KindPermission, res.ErrorKind)
	assert.Equal(t, "Permission denied: /data/secret.txt", res.Message)

	res, err = v.Validate(context.Background(), "/data/locked/ro.txt", pathcheck.WriteFile)
	require.NoError(t, err)
	assert.False(t, res.Valid)
	assert.Equal(t, fserror.KindPermission, res.ErrorKind)
	assert.Nil(t, res.Parent, "permission failure on an existing target does not probe the parent")

	res, err = v.Validate(context.Background(), "/data/private", pathcheck.ReadDir)
	require.NoError(t, err)
	assert.Equal(t, fserror.KindPermission, res.ErrorKind)
}

func TestLocalReadDirTraverse(t *testing.T) {
	m := newLocalFixture()
	m.AddDir("/data/noexec", 0o444)
	v := pathcheck.NewLocal(m)

	res, err := v.Probe(context.Background(), "/data/noexec", pathcheck.ReadDir)
	require.NoError(t, err)
	assert.False(t, res.Valid)
	assert.Equal(t, fserror.KindPermission, res.ErrorKind)
	assert.Equal(t, "Permission denied: /data/noexec", res.Message)

	// a readable regular file passes the probe, the kind check rejects it
	res, err = v.Probe(context.Background(), "/data/file.txt", pathcheck.ReadDir)
	require.NoError(t, err)
	assert.True(t, res.Valid)

	res, err = v.Validate(context.Background(), "/data/file.txt", pathcheck.ReadDir)
	require.NoError(t, err)
	assert.Equal(t, fserror.KindBadPath, res.ErrorKind)
	assert.Equal(t, pathcheck.TypeFile, res.Type)
}

func TestLocalValidateMissingTarget(t *testing.T) {
	v := pathcheck.NewLocal(newLocalFixture())

	t.Run("read", func(t *testing.T) {
		res, err := v.Validate(context.Background(), "/data/nope.txt", pathcheck.ReadFile)
		require.NoError(t, err)
		assert.False(t, res.Valid)
		assert.Equal(t, fserror.KindNotExist, res.ErrorKind)
		assert.Equal(t, "No such file: /data/nope.txt", res.Message)
		assert.Nil(t, res.Parent)
		assert.ErrorIs(t, res.Err("get"), fserror.ErrNotExist)
	})

	t.Run("write with parent directory", func(t *testing.T) {
		res, err := v.Validate(context.Background(), "/data/new.txt", pathcheck.WriteFile)
		require.NoError(t, err)
		assert.False(t, res.Valid)
		assert.Equal(t, fserror.KindNotExist, res.ErrorKind)
		assert.Equal(t, pathcheck.TypeNone, res.Type)
		require.NotNil(t, res.Parent)
		assert.True(t, res.Parent.Valid)
		assert.Equal(t, pathcheck.TypeDir, res.Parent.Type)
		assert.True(t, res.Usable())
		assert.NoError(t, res.Err("put"))
	})

	t.Run("write with read-only parent", func(t *testing.T) {
		res, err := v.Validate(context.Background(), "/data/locked/new.txt", pathcheck.WriteFile)
		require.NoError(t, err)
		require.NotNil(t, res.Parent)
		assert.False(t, res.Parent.Valid)
		assert.Equal(t, fserror.KindPermission, res.Parent.ErrorKind)
		assert.Equal(t, "Permission denied: /data/locked", res.Parent.Message)
		err = res.Err("put")
		assert.EqualError(t, err, "put: Permission denied: /data/locked")
		assert.ErrorIs(t, err, fserror.ErrPermission)
	})

	t.Run("write with missing parent", func(t *testing.T) {
		res, err := v.Validate(context.Background(), "/data/missing/new", pathcheck.WriteDir)
		require.NoError(t, err)
		assert.False(t, res.Valid)
		require.NotNil(t, res.Parent)
		assert.False(t, res.Parent.Valid)
		assert.Equal(t, fserror.KindNotExist, res.Parent.ErrorKind)
		assert.Equal(t, "No such file: /data/missing", res.Parent.Message)
	})

	t.Run("write below a file", func(t *testing.T) {
		res, err := v.Validate(context.Background(), "/data/file.txt/new", pathcheck.WriteObject)
		require.NoError(t, err)
		assert.False(t, res.Valid)
		assert.Equal(t, fserror.KindNotDirectory, res.ErrorKind)
		assert.Equal(t, "Not a directory: /data/file.txt/new", res.Message)
		assert.Nil(t, res.Parent)
	})
}

func TestLocalValidateUnsupportedOp(t *testing.T) {
	_, err := pathcheck.NewLocal(newLocalFixture()).Validate(context.Background(), "/data", pathcheck.Op(99))
	require.ErrorIs(t, err, pathcheck.ErrUnsupportedOp)
	require.ErrorIs(t, err, fserror.ErrGeneric)
	require.Contains(t, err.Error(), "checkLocalPath: ")
}

func TestLocalValidateCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := pathcheck.NewLocal(newLocalFixture()).Validate(ctx, "/data", pathcheck.ReadDir)
	require.ErrorIs(t, err, context.Canceled)
}

func TestLocalValidateLogs(t *testing.T) {
	logger := &pathguardtest.MockLogger{}
	v := pathcheck.NewLocal(newLocalFixture())
	v.SetLogger(logger)
	_, err := v.Validate(context.Background(), "/data", pathcheck.ReadDir)
	require.NoError(t, err)
	require.Len(t, logger.Entries(), 1)
	entry, ok := logger.Find("validated local path")
	require.True(t, ok)
	assert.Equal(t, "/data", entry.Value("path"))
	assert.Equal(t, true, entry.Value("valid"))
}
