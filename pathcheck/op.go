// Package pathcheck validates local and remote paths before a file transfer
// operation. Each validation produces a Result that tells whether the target
// fits the operation and, for write operations on a missing target, whether
// its parent directory can host it.
package pathcheck

import (
	"errors"
	"fmt"
)

// ErrUnsupportedOp is returned when validation is requested for an unknown
// operation kind.
var ErrUnsupportedOp = errors.New("unsupported operation kind")

// Op is the intent a path is validated for.
type Op int

const (
	ReadFile    Op = iota + 1 // ReadFile requires an existing regular file
	ReadDir                   // ReadDir requires an existing directory
	ReadObject                // ReadObject requires an existing object of any kind
	WriteFile                 // WriteFile requires a writable file or a directory where one can be created
	WriteDir                  // WriteDir requires a writable directory or a directory where one can be created
	WriteObject               // WriteObject requires any writable object or a directory where one can be created
)

var opNames = map[Op]string{
	ReadFile:    "readFile",
	ReadDir:     "readDir",
	ReadObject:  "readObject",
	WriteFile:   "writeFile",
	WriteDir:    "writeDir",
	WriteObject: "writeObject",
}

// String returns the name of the operation kind.
func (o Op) String() string {
	if name, ok := opNames[o]; ok {
		return name
	}
	return fmt.Sprintf("Op(%d)", int(o))
}

// Valid returns true for the predefined operation kinds.
func (o Op) Valid() bool {
	_, ok := opNames[o]
	return ok
}

// IsWrite returns true for the write-type operation kinds.
func (o Op) IsWrite() bool {
	return o == WriteFile || o == WriteDir || o == WriteObject
}

// ParseOp returns the Op for a name such as "readFile".
func ParseOp(name string) (Op, error) {
	for op, n := range opNames {
		if n == name {
			return op, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnsupportedOp, name)
}

// MarshalText implements encoding.TextMarshaler.
func (o Op) MarshalText() ([]byte, error) {
	if !o.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedOp, int(o))
	}
	return []byte(o.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (o *Op) UnmarshalText(text []byte) error {
	op, err := ParseOp(string(text))
	if err != nil {
		return err
	}
	*o = op
	return nil
}
