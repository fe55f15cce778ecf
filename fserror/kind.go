// Package fserror normalizes local and remote filesystem failures into a single
// error type carrying a fixed-vocabulary classification.
package fserror

// Kind classifies a failure. The predefined kinds below cover the failures the
// validators produce, any other value is a native failure code passed through
// as-is (for example "ECONNRESET" or "EIO").
type Kind string

const (
	KindGeneric      Kind = "ERR_GENERIC"       // KindGeneric is an unclassified failure, usually a bug
	KindPermission   Kind = "EACCES"            // KindPermission is returned when access is denied
	KindNotExist     Kind = "ENOENT"            // KindNotExist is returned when the target is missing
	KindNotDirectory Kind = "ENOTDIR"           // KindNotDirectory is returned when a directory was expected but is absent or something else
	KindBadPath      Kind = "ERR_BAD_PATH"      // KindBadPath is returned when the target exists but is the wrong kind for the operation
	KindConnect      Kind = "ERR_NOT_CONNECTED" // KindConnect is returned when there is no live session

	// native codes that get tailored messages in Format.
	codeLookup  Kind = "ENOTFOUND"
	codeRefused Kind = "ECONNREFUSED"
	codeReset   Kind = "ECONNRESET"
)

// String returns the kind as a string.
func (k Kind) String() string {
	return string(k)
}

// Known returns true if the kind is one of the predefined classifications
// rather than a passed-through native code.
func (k Kind) Known() bool {
	switch k {
	case KindGeneric, KindPermission, KindNotExist, KindNotDirectory, KindBadPath, KindConnect:
		return true
	default:
		return false
	}
}
