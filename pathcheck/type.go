package pathcheck

import "io/fs"

// Type is the kind of object observed at a path.
type Type int

const (
	TypeNone    Type = iota // TypeNone means nothing exists at the path
	TypeFile                // TypeFile is a regular file (or other non-directory object)
	TypeDir                 // TypeDir is a directory
	TypeSymlink             // TypeSymlink is a symbolic link
)

// String returns the type name.
func (t Type) String() string {
	switch t {
	case TypeFile:
		return "file"
	case TypeDir:
		return "directory"
	case TypeSymlink:
		return "symlink"
	default:
		return "none"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (t Type) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// TypeOf returns the Type for a file mode.
func TypeOf(mode fs.FileMode) Type {
	switch {
	case mode.IsDir():
		return TypeDir
	case mode&fs.ModeSymlink != 0:
		return TypeSymlink
	default:
		return TypeFile
	}
}
