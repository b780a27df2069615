//go:build !windows

package platform

import (
	"bytes"

	"golang.org/x/sys/unix"
)

// OSVersion reports the kernel release string from uname.
func OSVersion() string {
	var name unix.Utsname
	if err := unix.Uname(&name); err != nil {
		return ErrorValue
	}

	return charsToString(name.Release[:])
}

// charsToString converts a NUL-terminated byte array from uname to a string.
func charsToString(chars []byte) string {
	if i := bytes.IndexByte(chars, 0); i >= 0 {
		chars = chars[:i]
	}

	return string(chars)
}
