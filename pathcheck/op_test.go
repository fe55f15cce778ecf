package pathcheck_test

import (
	"testing"

	"github.com/k0sproject/pathguard/pathcheck"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestParseOp(t *testing.T) {
	for _, op := range []pathcheck.Op{
		pathcheck.ReadFile, pathcheck.ReadDir, pathcheck.ReadObject,
		pathcheck.WriteFile, pathcheck.WriteDir, pathcheck.WriteObject,
	} {
		parsed, err := pathcheck.ParseOp(op.String())
		require.NoError(t, err)
		assert.Equal(t, op, parsed)
	}

	_, err := pathcheck.ParseOp("deleteFile")
	require.ErrorIs(t, err, pathcheck.ErrUnsupportedOp)
}

func TestOpIsWrite(t *testing.T) {
	assert.False(t, pathcheck.ReadFile.IsWrite())
	assert.False(t, pathcheck.ReadObject.IsWrite())
	assert.True(t, pathcheck.WriteDir.IsWrite())
	assert.True(t, pathcheck.WriteObject.IsWrite())
	assert.False(t, pathcheck.Op(42).Valid())
	assert.Equal(t, "Op(42)", pathcheck.Op(42).String())
}

func TestResultYAML(t *testing.T) {
	res := &pathcheck.Result{
		Path:      "/data/new.txt",
		Op:        pathcheck.WriteFile,
		Type:      pathcheck.TypeNone,
		Message:   "No such file: /data/new.txt",
		ErrorKind: "ENOENT",
		Parent:    &pathcheck.Parent{Valid: true, Type: pathcheck.TypeDir},
	}
	out, err := yaml.Marshal(res)
	require.NoError(t, err)
	assert.Equal(t, `path: /data/new.txt
op: writeFile
valid: false
type: none
message: 'No such file: /data/new.txt'
errorKind: ENOENT
parent:
    valid: true
    type: directory
`, string(out))
}
