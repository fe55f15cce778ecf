package pathcheck

import (
	"github.com/k0sproject/pathguard/fserror"
)

// Parent describes the containing directory of a write target that does not
// exist yet.
type Parent struct {
	Valid     bool         `yaml:"valid" json:"valid"`
	Type      Type         `yaml:"type,omitempty" json:"type,omitempty"`
	Message   string       `yaml:"message,omitempty" json:"message,omitempty"`
	ErrorKind fserror.Kind `yaml:"errorKind,omitempty" json:"errorKind,omitempty"`
}

// Result is the outcome of a single path validation. Message and ErrorKind are
// only set when Valid is false. Parent is only set for write operations on a
// target that is missing or of the wrong kind.
type Result struct {
	Path      string       `yaml:"path" json:"path"`
	Op        Op           `yaml:"op" json:"op"`
	Valid     bool         `yaml:"valid" json:"valid"`
	// Type is the observed kind. It stays TypeNone when the access check
	// failed, even if something exists at Path.
	Type      Type         `yaml:"type" json:"type"`
	Message   string       `yaml:"message,omitempty" json:"message,omitempty"`
	ErrorKind fserror.Kind `yaml:"errorKind,omitempty" json:"errorKind,omitempty"`
	Parent    *Parent      `yaml:"parent,omitempty" json:"parent,omitempty"`
}

func newResult(path string, op Op) *Result {
	return &Result{Path: path, Op: op, Valid: true}
}

func (r *Result) invalidate(kind fserror.Kind, msg string) {
	r.Valid = false
	r.ErrorKind = kind
	r.Message = msg
}

func (r *Result) setParent(valid bool, typ Type, kind fserror.Kind, msg string) {
	r.Parent = &Parent{Valid: valid, Type: typ}
	if !valid {
		r.Parent.ErrorKind = kind
		r.Parent.Message = msg
	}
}

// ParentValid returns true when the parent was probed and found suitable.
func (r *Result) ParentValid() bool {
	return r.Parent != nil && r.Parent.Valid
}

// Usable returns true when the operation can proceed: the target is valid, or
// it is a write target that does not exist yet in a parent that can host it.
func (r *Result) Usable() bool {
	if r.Valid {
		return true
	}
	return r.Op.IsWrite() && r.ErrorKind != fserror.KindBadPath && r.ParentValid()
}

// Err returns nil for a usable result, otherwise a normalized error prefixed
// with the component name. When the parent was found unsuitable, the parent's
// message and kind are reported.
func (r *Result) Err(component string) error {
	if r.Usable() {
		return nil
	}
	if r.Parent != nil && !r.Parent.Valid {
		return fserror.FormatMessage(r.Parent.Message, component, r.Parent.ErrorKind)
	}
	return fserror.FormatMessage(r.Message, component, r.ErrorKind)
}
