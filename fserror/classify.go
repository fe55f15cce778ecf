package fserror

import (
	"errors"
	"io/fs"
	"syscall"
)

// Classify maps a raw local filesystem error to a message naming the subject
// path and a Kind. Errors that match none of the known conditions keep their
// own message and get their native code as the Kind, or KindGeneric if no code
// can be determined.
func Classify(err error, subject string) (string, Kind) {
	if err == nil {
		return "", ""
	}

	switch {
	case errors.Is(err, fs.ErrPermission):
		return "Permission denied: " + subject, KindPermission
	case errors.Is(err, fs.ErrNotExist):
		return "No such file: " + subject, KindNotExist
	case errors.Is(err, syscall.ENOTDIR):
		return "Not a directory: " + subject, KindNotDirectory
	}

	if code := NativeCode(err); code != "" {
		return err.Error(), code
	}

	return err.Error(), KindGeneric
}

// ClassifyError is Classify returning a normalized error that wraps err.
func ClassifyError(err error, subject string) *Error {
	if err == nil {
		return nil
	}
	msg, kind := Classify(err, subject)
	return &Error{Message: msg, Kind: kind, cause: err}
}
