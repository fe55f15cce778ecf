//go:build windows

package fserror

import (
	"syscall"

	"golang.org/x/sys/windows"
)

var windowsErrnoNames = map[syscall.Errno]string{
	windows.ERROR_FILE_NOT_FOUND: "ENOENT",
	windows.ERROR_PATH_NOT_FOUND: "ENOENT",
	windows.ERROR_ACCESS_DENIED:  "EACCES",
	windows.ERROR_DIRECTORY:      "ENOTDIR",
	windows.WSAECONNRESET:        "ECONNRESET",
	windows.WSAECONNREFUSED:      "ECONNREFUSED",
}

func errnoName(errno syscall.Errno) string {
	return windowsErrnoNames[errno]
}
